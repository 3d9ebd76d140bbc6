package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pretorin-ai/govbizops/internal/model"
)

// TestDispatch tests concurrent delivery with failure isolation.
func TestDispatch(t *testing.T) {
	t.Parallel()

	stats := model.CycleStats{CycleID: "cycle-1"}
	records := []model.Opportunity{{NoticeID: "n-1"}}

	t.Run("all targets receive the delta", func(t *testing.T) {
		t.Parallel()

		var delivered atomic.Int32
		target := func(string) Target {
			return Target{
				Name: "t",
				Deliver: func(_ context.Context, s model.CycleStats, recs []model.Opportunity) error {
					if s.CycleID != "cycle-1" || len(recs) != 1 {
						t.Errorf("delivery got cycle %q with %d records", s.CycleID, len(recs))
					}
					delivered.Add(1)
					return nil
				},
			}
		}

		d := NewDispatcher(nil, target("a"), target("b"), target("c"))
		if failed := d.Dispatch(context.Background(), stats, records); failed != 0 {
			t.Errorf("Dispatch() = %d failures, want 0", failed)
		}
		if delivered.Load() != 3 {
			t.Errorf("delivered to %d targets, want 3", delivered.Load())
		}
	})

	t.Run("one failure does not stop the others", func(t *testing.T) {
		t.Parallel()

		var delivered atomic.Int32
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		d := NewDispatcher(logger,
			Target{Name: "webhook", Deliver: func(context.Context, model.CycleStats, []model.Opportunity) error {
				return errors.New("webhook unreachable")
			}},
			Target{Name: "crm", Deliver: func(context.Context, model.CycleStats, []model.Opportunity) error {
				delivered.Add(1)
				return nil
			}},
		)

		if failed := d.Dispatch(context.Background(), stats, records); failed != 1 {
			t.Errorf("Dispatch() = %d failures, want 1", failed)
		}
		if delivered.Load() != 1 {
			t.Error("the healthy target should still be delivered to")
		}
		out := buf.String()
		if !strings.Contains(out, "webhook") || !strings.Contains(out, "webhook unreachable") {
			t.Errorf("log %q should name the failed target and error", out)
		}
	})

	t.Run("no targets is a no-op", func(t *testing.T) {
		t.Parallel()

		d := NewDispatcher(nil)
		if failed := d.Dispatch(context.Background(), stats, records); failed != 0 {
			t.Errorf("Dispatch() = %d failures, want 0", failed)
		}
	})
}
