// Package cmd provides the command-line interface of pagingsim.
package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagingsim",
	Short: "pagingsim simulates paged virtual memory.",
	Long: `pagingsim simulates paged virtual memory. It translates the ` +
		`accesses of processes through page tables and a TLB, serves page ` +
		`faults, and replaces pages with FIFO, LRU or Clock. Settings come ` +
		`from a scenario file, from a .env file and from flags, the flags ` +
		`taking precedence.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("Error loading .env file: %v", err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("scenario", "",
		"YAML scenario file. Without it, a reference string of 20 pages is "+
			"replayed with 5 frames.")
	flags.Int("frames", 0, "Number of physical frames. [PAGINGSIM_FRAMES]")
	flags.String("policy", "",
		"Replacement policy: fifo, lru or clock. [PAGINGSIM_POLICY]")
	flags.String("scope", "", "Replacement scope: global or local.")
	flags.Int("tlb-sets", 0, "Number of TLB sets. Needs --tlb-ways.")
	flags.Int("tlb-ways", 0, "Number of TLB ways. Needs --tlb-sets.")
}
