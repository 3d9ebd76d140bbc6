package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pretorin-ai/govbizops/internal/config"
	"github.com/pretorin-ai/govbizops/internal/history"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past collection cycles",
		Long: `History lists past collection cycles with their five operational
counts: records fetched, duplicates merged across code queries, records
dropped by the type filter, records already collected, and records
newly accepted.

Examples:
  # The last ten cycles
  govbizops history

  # Everything, as markdown
  govbizops history --limit 0 --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 10,
		"How many cycles to show (0 shows all)")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown instead of plain text")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file in addition to stdout")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	hdb, err := history.Open(dbDir, history.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no cycle history yet (run collect first): %w", err)
	}
	defer hdb.Close()

	cycles, err := hdb.RecentCycles(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to read cycle history: %w", err)
	}

	w, cleanup, err := buildReportWriter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := w.WriteCycles(cycles); err != nil {
		return fmt.Errorf("failed to write cycle history: %w", err)
	}
	return nil
}
