package main

import (
	"fmt"
	"strings"

	"github.com/jpalmerr/statuspoll/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without opening any source.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a statuspoll configuration file without polling anything.

This command parses the YAML, expands environment variables, and validates
all profiles, targets and steps. It's useful for CI pipelines before a
regression run.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  statuspoll validate -c statuspoll.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// targets are checked again by building them, which compiles regexes
	// exactly as watch will
	for _, p := range cfg.Profiles {
		if _, err := config.BuildOptions(p); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Profiles: %d\n", len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		targets := make([]string, len(p.Targets))
		for i, t := range p.Targets {
			targets[i] = t.String()
		}
		fmt.Printf("  - %s (%s, %d steps): targets [%s], every %s for up to %s, %d failures allowed\n",
			p.Name, p.Source.Type, len(p.Source.Steps), strings.Join(targets, ", "),
			p.Interval.Duration(), p.Timeout.Duration(), p.MaxFailures)
	}

	return nil
}
