package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pretorin-ai/govbizops/internal/config"
	"github.com/pretorin-ai/govbizops/internal/report"
	"github.com/pretorin-ai/govbizops/internal/store"
)

// NewSummaryCmd creates the summary command.
func NewSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize the opportunity store",
		Long: `Summary reports what the local opportunity store holds: total record
count, breakdowns per NAICS code and per opportunity type, and the
collection-time bounds.

Examples:
  # Text summary on the terminal
  govbizops summary

  # Markdown summary written to a file
  govbizops summary --markdown --output summary.md`,
		Args: cobra.NoArgs,
		RunE: runSummaryCmd,
	}

	cmd.Flags().StringP("store", "s", "",
		"Opportunity store file path (default: XDG data directory)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown instead of plain text")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file in addition to stdout")

	return cmd
}

// runSummaryCmd executes the summary command.
func runSummaryCmd(cmd *cobra.Command, _ []string) error {
	storePath, err := cmd.Flags().GetString("store")
	if err != nil {
		return err
	}
	if storePath == "" {
		storePath = config.DefaultStoragePath()
	}

	st, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open opportunity store: %w", err)
	}

	w, cleanup, err := buildReportWriter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := w.WriteSummary(st.Summarize()); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// buildReportWriter assembles the report writer from the shared
// --markdown and --output flags. The cleanup closes the output file.
func buildReportWriter(cmd *cobra.Command) (report.Writer, func(), error) {
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, nil, err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}

	newWriter := func(out io.Writer) report.Writer {
		if markdownOut {
			return report.NewMarkdownWriter(out)
		}
		return report.NewSimpleWriter(out)
	}

	writers := []report.Writer{newWriter(cmd.OutOrStdout())}
	cleanup := func() {}

	if outputPath != "" {
		if dir := filepath.Dir(outputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.Create(outputPath) //nolint:gosec // user-provided report path is intentional
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		writers = append(writers, newWriter(f))
		cleanup = func() { _ = f.Close() }
	}

	if len(writers) == 1 {
		return writers[0], cleanup, nil
	}
	return report.NewMultiWriter(writers...), cleanup, nil
}
