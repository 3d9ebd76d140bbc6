package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for govbizops.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "govbizops",
		Short: "Collector for SAM.gov contract opportunities",
		Long: `govbizops collects federal contract opportunities from the SAM.gov
search API. Each collection cycle queries one posted-date window per
tracked NAICS code, merges the results, keeps solicitation-type records
that have not been seen before, and persists them to a local JSON store.

The collector enforces self-imposed API usage ceilings (filter values
per call, window width, calls per day, a fixed delay between calls) so
routine operation stays well inside SAM.gov acceptable-use norms.

The SAM.gov API key is read from the ` + "`SAM_GOV_API_KEY`" + ` environment
variable; the optional notification webhook from ` + "`GOVBIZOPS_WEBHOOK_URL`" + `.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCollectCmd())
	cmd.AddCommand(NewScheduleCmd())
	cmd.AddCommand(NewSummaryCmd())
	cmd.AddCommand(NewHistoryCmd())
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
