package report

import (
	"io"

	"github.com/nao1215/markdown"

	"github.com/pretorin-ai/govbizops/internal/model"
	"github.com/pretorin-ai/govbizops/internal/store"
)

// MarkdownWriter outputs reports in Markdown format, designed for
// documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation: type-safe tables and headers beat hand-joined
// pipe characters.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSummary outputs the store summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(sum store.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Opportunity Store Summary")
	md.PlainText("")

	rows := [][]string{
		{"Total collected", w.count(sum.Total)},
	}
	if sum.Total > 0 {
		rows = append(rows,
			[]string{"First collected", sum.Oldest.Format("2006-01-02 15:04")},
			[]string{"Last collected", sum.Newest.Format("2006-01-02 15:04")},
		)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(sum.ByCode) > 0 {
		md.H2("By NAICS code")
		codeRows := make([][]string, 0, len(sum.ByCode))
		for _, code := range sortedKeys(sum.ByCode) {
			codeRows = append(codeRows, []string{code, w.count(sum.ByCode[code])})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Code", "Opportunities"},
			Rows:   codeRows,
		})
		md.PlainText("")
	}

	if len(sum.ByType) > 0 {
		md.H2("By type")
		typeRows := make([][]string, 0, len(sum.ByType))
		for _, typ := range sortedKeys(sum.ByType) {
			typeRows = append(typeRows, []string{typ, w.count(sum.ByType[typ])})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Type", "Opportunities"},
			Rows:   typeRows,
		})
	}

	return len(md.String()), md.Build()
}

// WriteCycles outputs the cycle history in Markdown format.
func (w *MarkdownWriter) WriteCycles(cycles []model.CycleStats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Collection Cycle History")
	md.PlainText("")

	if len(cycles) == 0 {
		md.PlainText("No cycles recorded yet.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(cycles))
	for _, c := range cycles {
		rows = append(rows, []string{
			c.StartedAt.Format("2006-01-02 15:04"),
			c.Window.From.Format("2006-01-02") + " .. " + c.Window.To.Format("2006-01-02"),
			w.count(c.TotalFetched),
			w.count(c.DuplicatesMerged),
			w.count(c.NonMatchingType),
			w.count(c.AlreadyCollected),
			w.count(c.NewlyAccepted),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Started", "Window", "Fetched", "Duplicates", "Filtered", "Known", "New"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}
