package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pretorin-ai/govbizops/internal/model"
	"github.com/pretorin-ai/govbizops/internal/store"
)

func testSummary() store.Summary {
	return store.Summary{
		Total: 1234,
		ByCode: map[string]int{
			"541511": 900,
			"541512": 300,
			"541690": 34,
		},
		ByType: map[string]int{
			"Solicitation (Original)": 1000,
			"Solicitation (Updated)":  234,
		},
		Oldest: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		Newest: time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func testCycles() []model.CycleStats {
	return []model.CycleStats{
		{
			CycleID: "cycle-2",
			Window: model.Window{
				From: time.Date(2025, 8, 19, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC),
			},
			StartedAt:        time.Date(2025, 8, 20, 6, 0, 0, 0, time.UTC),
			TotalFetched:     1500,
			DuplicatesMerged: 200,
			NonMatchingType:  300,
			AlreadyCollected: 900,
			NewlyAccepted:    100,
		},
	}
}

// TestSimpleWriter tests the text format output.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("summary sections and grouped counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		if _, err := w.WriteSummary(testSummary()); err != nil {
			t.Fatalf("WriteSummary() = %v", err)
		}

		out := buf.String()
		for _, want := range []string{"Total collected: 1,234", "541511", "900", "Solicitation (Original)", "2025-06-01"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("codes ordered by count descending", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		if _, err := w.WriteSummary(testSummary()); err != nil {
			t.Fatalf("WriteSummary() = %v", err)
		}

		out := buf.String()
		if strings.Index(out, "541511") > strings.Index(out, "541690") {
			t.Error("the largest code should be listed first")
		}
	})

	t.Run("cycle table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		if _, err := w.WriteCycles(testCycles()); err != nil {
			t.Fatalf("WriteCycles() = %v", err)
		}

		out := buf.String()
		for _, want := range []string{"2025-08-20 06:00", "2025-08-19..2025-08-20", "1,500", "100"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		if _, err := w.WriteCycles(nil); err != nil {
			t.Fatalf("WriteCycles() = %v", err)
		}
		if !strings.Contains(buf.String(), "No cycles recorded yet.") {
			t.Errorf("output = %q", buf.String())
		}
	})
}

// TestMarkdownWriter tests the markdown format output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("summary tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		if _, err := w.WriteSummary(testSummary()); err != nil {
			t.Fatalf("WriteSummary() = %v", err)
		}

		out := buf.String()
		for _, want := range []string{"# Opportunity Store Summary", "## By NAICS code", "| 541511 |", "1,234"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("cycle table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		if _, err := w.WriteCycles(testCycles()); err != nil {
			t.Fatalf("WriteCycles() = %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "# Collection Cycle History") {
			t.Errorf("output missing header:\n%s", out)
		}
		if !strings.Contains(out, "1,500") {
			t.Errorf("output missing fetched count:\n%s", out)
		}
	})
}

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, md bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&text), NewMarkdownWriter(&md))

	if _, err := mw.WriteSummary(testSummary()); err != nil {
		t.Fatalf("WriteSummary() = %v", err)
	}
	if text.Len() == 0 || md.Len() == 0 {
		t.Error("both writers should receive the summary")
	}
}
