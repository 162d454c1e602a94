// Package main is the entry point for the statuspoll CLI.
//
// statuspoll can be used as a library inside Go test suites or as a
// standalone binary driven by YAML profiles. This CLI provides the binary.
//
// Usage:
//
//	statuspoll watch -c statuspoll.yaml -p invoices   # Wait for a status
//	statuspoll validate -c statuspoll.yaml            # Validate profiles
//	statuspoll version                                # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "statuspoll",
	Short: "Wait for a workflow status to reach a target",
	Long: `statuspoll waits for a status shown in a web UI or served by an API
to reach one of a set of target values.

It reads the status at a fixed interval, records every distinct value it
sees, and stops when a target matches, the timeout elapses, or the status
source fails too many times in a row.

Quick start:
  1. Create a config file (statuspoll.yaml)
  2. Run: statuspoll watch -c statuspoll.yaml -p invoices

Example config:
  profiles:
    - name: invoices
      targets: [delivered]
      source:
        type: page
        url: https://app.example.com/invoices
        selector: td.status`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this statuspoll binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("statuspoll %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
