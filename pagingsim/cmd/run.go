package cmd

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/pagingsim/datarecording"
	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/accesssim"
	"github.com/sarchlab/pagingsim/mem/vm/mmu"
	"github.com/sarchlab/pagingsim/sim/hooking"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and report every access.",
	Long: "`run` replays the accesses of a scenario, prints what happens to " +
		"each of them, and reports the statistics and the final frames.",
	Run: func(cmd *cobra.Command, _ []string) {
		s, err := loadScenario(cmd, os.Getenv)
		if err != nil {
			log.Fatalf("Error loading scenario: %v", err)
		}

		m, sim, err := s.Build()
		if err != nil {
			log.Fatalf("Error building scenario: %v", err)
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		faultsOnly, _ := cmd.Flags().GetBool("faults-only")

		if !quiet {
			logger := hooking.NewAccessLogger(log.New(os.Stdout, "", 0))
			if faultsOnly {
				logger.FaultsOnly()
			}

			m.AcceptHook(logger)
		}

		var recorder *datarecording.AccessRecorder

		record, _ := cmd.Flags().GetBool("record")
		if record {
			target := stringSetting(cmd, "db", envDB, os.Getenv)
			db := datarecording.NewDataRecorderWithConfig(
				datarecording.ParseTarget(target))
			recorder = datarecording.NewAccessRecorder(db)
			recorder.Start(s.Name)
			m.AcceptHook(recorder)

			atexit.Register(func() {
				recorder.End()

				if err := db.Close(); err != nil {
					log.Printf("Error closing database: %v", err)
				}
			})
		}

		if pages := s.ReferencePages(); pages != nil {
			printReferenceString(os.Stdout, pages)
		}

		steps, _ := cmd.Flags().GetInt("steps")
		if _, bounded := s.NumAccesses(); !bounded && steps <= 0 {
			fatalf("The scenario generates accesses forever, set --steps")
		}

		clearInterval, _ := cmd.Flags().GetInt("clear-interval")

		n, err := runSimulation(m, sim, steps, clearInterval)
		if err != nil {
			fatalf("Error at request %d: %v", n, err)
		}

		printStats(os.Stdout, n, sim.Stats())
		printFrames(os.Stdout, m.SnapshotFrames())

		if err := m.CheckInvariants(); err != nil {
			fatalf("Inconsistent memory state: %v", err)
		}

		atexit.Exit(0)
	},
}

// fatalf logs and exits through atexit, so that the recorded rows are
// flushed.
func fatalf(format string, v ...any) {
	log.Printf(format, v...)
	atexit.Exit(1)
}

// runSimulation ticks the simulator until its generator is exhausted or
// steps requests have been performed. It returns the number of requests,
// counting the one that failed if any.
func runSimulation(
	m *mmu.Comp,
	sim *accesssim.Simulator,
	steps, clearInterval int,
) (int, error) {
	n := 0

	for steps <= 0 || n < steps {
		result, ok, err := sim.Tick()
		if !ok {
			break
		}

		n++

		if errors.Is(err, vm.ErrInvalidPage) {
			log.Printf("#%d %s", result.Seq, result)
		} else if err != nil {
			return n, err
		}

		if clearInterval > 0 && n%clearInterval == 0 {
			m.ClearReferencedBits()
		}
	}

	return n, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("steps", 0,
		"Maximum number of requests to perform. 0 runs until the accesses "+
			"of the scenario are exhausted.")
	runCmd.Flags().Int("clear-interval", 0,
		"Clear the referenced bits every this many requests. 0 never clears.")
	runCmd.Flags().Bool("quiet", false, "Do not print every access.")
	runCmd.Flags().Bool("faults-only", false, "Only print page faults.")
	runCmd.Flags().Bool("record", false,
		"Record the accesses into a database.")
	runCmd.Flags().String("db", "",
		"SQLite database name without extension, or a clickhouse:// DSN. "+
			"[PAGINGSIM_DB]")
}
