// Package report renders store summaries and cycle history for humans.
package report

import (
	"io"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pretorin-ai/govbizops/internal/model"
	"github.com/pretorin-ai/govbizops/internal/store"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or both with
// the same API.
type Writer interface {
	// WriteSummary outputs the store summary.
	// Returns the number of bytes written and any error encountered.
	WriteSummary(sum store.Summary) (int, error)

	// WriteCycles outputs the cycle history, newest first.
	WriteCycles(cycles []model.CycleStats) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously, for outputting
// to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteSummary outputs the summary to all configured Writers.
// Returns the total bytes written; stops on the first error.
func (m *MultiWriter) WriteSummary(sum store.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(sum)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteCycles outputs the cycle history to all configured Writers.
func (m *MultiWriter) WriteCycles(cycles []model.CycleStats) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteCycles(cycles)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer

	// printer formats counts with locale-aware grouping (1,234).
	printer *message.Printer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{
		output:  output,
		printer: message.NewPrinter(language.English),
	}
}

// count renders an integer with thousands grouping.
func (b baseWriter) count(n int) string {
	return b.printer.Sprintf("%d", n)
}

// sortedKeys returns the map keys ordered descending by count, ties
// broken alphabetically, so report tables are deterministic.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
