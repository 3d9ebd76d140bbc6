package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pretorin-ai/govbizops/internal/model"
	"github.com/pretorin-ai/govbizops/internal/store"
)

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: Plain text with ASCII formatting rather than ANSI
// colors because it works in all terminals and pipes cleanly to files.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether empty sections are shown.
	showEmpty bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteSummary outputs the store summary as sectioned text.
func (w *SimpleWriter) WriteSummary(sum store.Summary) (int, error) {
	var b strings.Builder

	b.WriteString("Opportunity Store Summary\n")
	b.WriteString(strings.Repeat("=", 25) + "\n\n")
	fmt.Fprintf(&b, "Total collected: %s\n", w.count(sum.Total))
	if sum.Total > 0 {
		fmt.Fprintf(&b, "First collected: %s\n", sum.Oldest.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "Last collected:  %s\n", sum.Newest.Format("2006-01-02 15:04"))
	}

	if len(sum.ByCode) > 0 || w.showEmpty {
		b.WriteString("\nBy NAICS code:\n")
		for _, code := range sortedKeys(sum.ByCode) {
			fmt.Fprintf(&b, "  %-10s %s\n", code, w.count(sum.ByCode[code]))
		}
	}

	if len(sum.ByType) > 0 || w.showEmpty {
		b.WriteString("\nBy type:\n")
		for _, typ := range sortedKeys(sum.ByType) {
			fmt.Fprintf(&b, "  %-40s %s\n", typ, w.count(sum.ByType[typ]))
		}
	}

	return w.output.Write([]byte(b.String()))
}

// WriteCycles outputs the cycle history as a fixed-width table.
func (w *SimpleWriter) WriteCycles(cycles []model.CycleStats) (int, error) {
	var b strings.Builder

	b.WriteString("Collection Cycle History\n")
	b.WriteString(strings.Repeat("=", 24) + "\n\n")

	if len(cycles) == 0 {
		b.WriteString("No cycles recorded yet.\n")
		return w.output.Write([]byte(b.String()))
	}

	fmt.Fprintf(&b, "%-20s %-23s %8s %6s %6s %6s %6s\n",
		"Started", "Window", "Fetched", "Dup", "Type", "Known", "New")
	for _, c := range cycles {
		window := fmt.Sprintf("%s..%s",
			c.Window.From.Format("2006-01-02"),
			c.Window.To.Format("2006-01-02"))
		fmt.Fprintf(&b, "%-20s %-23s %8s %6s %6s %6s %6s\n",
			c.StartedAt.Format("2006-01-02 15:04"),
			window,
			w.count(c.TotalFetched),
			w.count(c.DuplicatesMerged),
			w.count(c.NonMatchingType),
			w.count(c.AlreadyCollected),
			w.count(c.NewlyAccepted),
		)
	}

	return w.output.Write([]byte(b.String()))
}
