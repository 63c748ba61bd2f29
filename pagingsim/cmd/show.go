package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/pagingsim/datarecording"
)

var showCmd = &cobra.Command{
	Use:   "show <database.sqlite3>",
	Short: "Show the runs and the accesses recorded in a database.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(args[0]); err != nil {
			log.Fatalf("Cannot open database: %v", err)
		}

		reader := datarecording.NewAccessReader(args[0])
		defer reader.Close()

		runID, _ := cmd.Flags().GetString("run")
		pid, _ := cmd.Flags().GetInt("pid")
		faultsOnly, _ := cmd.Flags().GetBool("faults-only")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		err := showRecording(cmd.Context(), os.Stdout, reader,
			accessQuery(runID, pid, faultsOnly, limit, offset), runID)
		if err != nil {
			log.Fatalf("Error reading database: %v", err)
		}
	},
}

// accessQuery selects the accesses of a run, of a process if pid is not
// negative, ordered by sequence number.
func accessQuery(
	runID string,
	pid int,
	faultsOnly bool,
	limit, offset int,
) datarecording.QueryParams {
	var (
		where []string
		args  []any
	)

	if runID != "" {
		where = append(where, "RunID = ?")
		args = append(args, runID)
	}

	if pid >= 0 {
		where = append(where, "PID = ?")
		args = append(args, pid)
	}

	if faultsOnly {
		where = append(where, "Outcome = ?")
		args = append(args, "fault")
	}

	return datarecording.QueryParams{
		Where:   strings.Join(where, " AND "),
		Args:    args,
		OrderBy: "RunID, Seq",
		Limit:   limit,
		Offset:  offset,
	}
}

func showRecording(
	ctx context.Context,
	w io.Writer,
	reader datarecording.DataReader,
	accesses datarecording.QueryParams,
	runID string,
) error {
	runs := datarecording.QueryParams{OrderBy: "RunID"}
	if runID != "" {
		runs.Where = "RunID = ?"
		runs.Args = []any{runID}
	}

	infos, _, err := reader.Query(ctx, datarecording.RunInfoTable, runs)
	if err != nil {
		return err
	}

	lastRun := ""
	for _, i := range infos {
		info := i.(*datarecording.RunInfo)
		if info.RunID != lastRun {
			fmt.Fprintf(w, "Run %s\n", info.RunID)
			lastRun = info.RunID
		}

		fmt.Fprintf(w, "  %s: %s\n", info.Property, info.Value)
	}

	entries, total, err := reader.Query(ctx, datarecording.AccessTable, accesses)
	if err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Fprintln(w, formatAccessEntry(*e.(*datarecording.AccessEntry)))
	}

	fmt.Fprintf(w, "Showing %d of %d accesses.\n", len(entries), total)

	return nil
}

func formatAccessEntry(e datarecording.AccessEntry) string {
	s := fmt.Sprintf("#%d PID %d %s VA 0x%x", e.Seq, e.PID, e.Kind, e.VAddr)

	if e.Translated {
		s += fmt.Sprintf(" -> PA 0x%x (frame %d)", e.PAddr, e.Frame)
	}

	s += " " + e.Outcome

	if e.Outcome == "fault" {
		s += ", " + e.Reason
	}

	if e.Evicted {
		s += fmt.Sprintf(", evicted PID %d page %d", e.VictimPID, e.VictimVPN)
	}

	return s
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().String("run", "", "Only show this run.")
	showCmd.Flags().Int("pid", -1, "Only show the accesses of this process.")
	showCmd.Flags().Bool("faults-only", false, "Only show page faults.")
	showCmd.Flags().Int("limit", 0, "Maximum number of accesses. 0 shows all.")
	showCmd.Flags().Int("offset", 0, "Number of accesses to skip.")
}
