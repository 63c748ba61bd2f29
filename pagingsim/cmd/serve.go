package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/pagingsim/monitoring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a scenario over HTTP.",
	Long: "`serve` builds a scenario and exposes it through the monitoring " +
		"API, so that external tools can step it, issue accesses, and " +
		"inspect the page tables and the frames.",
	Run: func(cmd *cobra.Command, _ []string) {
		s, err := loadScenario(cmd, os.Getenv)
		if err != nil {
			log.Fatalf("Error loading scenario: %v", err)
		}

		m, sim, err := s.Build()
		if err != nil {
			log.Fatalf("Error building scenario: %v", err)
		}

		port := 0

		portStr := stringSetting(cmd, "port", envPort, os.Getenv)
		if portStr != "" {
			port, err = strconv.Atoi(portStr)
			if err != nil {
				log.Fatalf("Invalid port %q: %v", portStr, err)
			}
		}

		monitor := monitoring.NewMonitor().WithPortNumber(port)
		monitor.RegisterMMU(m)
		monitor.RegisterSimulator(sim)

		url := monitor.StartServer()

		open, _ := cmd.Flags().GetBool("open")
		if open {
			if err := browser.OpenURL(url + "/api/stats"); err != nil {
				fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
			}
		}

		ctx, stop := signal.NotifyContext(
			context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		interval, _ := cmd.Flags().GetDuration("replay-interval")
		if interval > 0 {
			total, _ := s.NumAccesses()
			go monitor.Replay(ctx, interval, uint64(total))
		}

		<-ctx.Done()

		atexit.Exit(0)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("port", "",
		"Port of the monitoring server. Empty picks a random port. "+
			"[PAGINGSIM_PORT]")
	serveCmd.Flags().Bool("open", false,
		"Open the statistics page in a browser.")
	serveCmd.Flags().Duration("replay-interval", 0,
		"Replay the accesses of the scenario, one every interval. "+
			"0 waits for /api/step and /api/access.")
}
