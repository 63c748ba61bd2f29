package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/pagingsim/scenario"
)

// The environment variables that provide defaults for the flags.
const (
	envFrames = "PAGINGSIM_FRAMES"
	envPolicy = "PAGINGSIM_POLICY"
	envDB     = "PAGINGSIM_DB"
	envPort   = "PAGINGSIM_PORT"
)

// loadScenario reads the scenario file, or uses the default scenario, and
// applies the environment and the flags on top of it.
func loadScenario(
	cmd *cobra.Command,
	getenv func(string) string,
) (*scenario.Scenario, error) {
	s := scenario.Default()

	path, _ := cmd.Flags().GetString("scenario")
	if path != "" {
		var err error

		s, err = scenario.Load(path)
		if err != nil {
			return nil, err
		}
	}

	if err := applyEnv(s, getenv); err != nil {
		return nil, err
	}

	applyFlags(cmd, s)

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func applyEnv(s *scenario.Scenario, getenv func(string) string) error {
	if v := getenv(envFrames); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envFrames, err)
		}

		s.Frames = n
	}

	if v := getenv(envPolicy); v != "" {
		s.Policy = v
	}

	return nil
}

func applyFlags(cmd *cobra.Command, s *scenario.Scenario) {
	flags := cmd.Flags()

	if flags.Changed("frames") {
		s.Frames, _ = flags.GetInt("frames")
	}

	if flags.Changed("policy") {
		s.Policy, _ = flags.GetString("policy")
	}

	if flags.Changed("scope") {
		s.Scope, _ = flags.GetString("scope")
	}

	if flags.Changed("tlb-sets") || flags.Changed("tlb-ways") {
		sets, _ := flags.GetInt("tlb-sets")
		ways, _ := flags.GetInt("tlb-ways")
		s.TLB = &scenario.TLBConfig{Sets: sets, Ways: ways}
	}
}

// stringSetting returns the flag if it is set, then the environment
// variable, then the flag default.
func stringSetting(
	cmd *cobra.Command,
	flag, env string,
	getenv func(string) string,
) string {
	v, _ := cmd.Flags().GetString(flag)
	if cmd.Flags().Changed(flag) {
		return v
	}

	if e := getenv(env); e != "" {
		return e
	}

	return v
}
