// Package main provides the entry point for the civimon CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for civimon.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "civimon",
		Short: "Monitor municipal websites for policy and governance documents",
		Long: `civimon monitors Norwegian municipal websites for policy and governance
documents such as volunteering strategies, action plans, and grant schemes.

It crawls each jurisdiction's site politely (rate limited, robots.txt aware),
stores every document as a content-addressed version so changes are detected
across runs, and can classify newly changed documents with a language model.

The classifier API key is read from the CIVIMON_LLM_API_KEY environment
variable; classification is skipped when it is not set.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("data-dir", "",
		"Directory for the database and document blobs (default: XDG data dir)")

	// Add subcommands
	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewClassifyCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
