package collector

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pretorin-ai/govbizops/internal/model"
	"github.com/pretorin-ai/govbizops/internal/store"
)

// fakeFetcher serves canned per-code results and records the calls made.
type fakeFetcher struct {
	byCode map[string][]model.Opportunity
	err    error
	errOn  string // code whose fetch fails
	calls  [][]string
}

func (f *fakeFetcher) FetchAll(_ context.Context, _ model.Window, codes []string) ([]model.Opportunity, error) {
	f.calls = append(f.calls, codes)
	if len(codes) == 1 && codes[0] == f.errOn {
		return nil, f.err
	}
	var out []model.Opportunity
	for _, code := range codes {
		out = append(out, f.byCode[code]...)
	}
	return out, nil
}

func solicitation(noticeID string) model.Opportunity {
	return model.Opportunity{
		NoticeID: noticeID,
		Title:    "Opportunity " + noticeID,
		Type:     "Solicitation (Original)",
	}
}

// TestMergerMerge tests the per-code union.
func TestMergerMerge(t *testing.T) {
	t.Parallel()

	t.Run("unions overlapping code results by notice ID", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{byCode: map[string][]model.Opportunity{
			"541511": {solicitation("n-1"), solicitation("n-2"), solicitation("n-3")},
			"541512": {solicitation("n-3"), solicitation("n-4")},
		}}
		m := NewMerger(fetcher, nil)

		got, err := m.Merge(context.Background(), model.Window{}, []string{"541511", "541512"})
		if err != nil {
			t.Fatalf("Merge() = %v", err)
		}
		if got.RawFetched != 5 {
			t.Errorf("RawFetched = %d, want 5", got.RawFetched)
		}
		if len(got.Records) != 4 {
			t.Errorf("unique records = %d, want 4", len(got.Records))
		}
		if got.Duplicates() != 1 {
			t.Errorf("Duplicates() = %d, want 1", got.Duplicates())
		}
		if len(fetcher.calls) != 2 || len(fetcher.calls[0]) != 1 {
			t.Errorf("each code must be queried separately, got calls %v", fetcher.calls)
		}
	})

	t.Run("warns when a repeated notice diverges", func(t *testing.T) {
		t.Parallel()

		changed := solicitation("n-1")
		changed.Title = "Amended title"
		fetcher := &fakeFetcher{byCode: map[string][]model.Opportunity{
			"a": {solicitation("n-1")},
			"b": {changed},
		}}

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		m := NewMerger(fetcher, logger)

		got, err := m.Merge(context.Background(), model.Window{}, []string{"a", "b"})
		if err != nil {
			t.Fatalf("Merge() = %v", err)
		}
		if len(got.Records) != 1 {
			t.Fatalf("unique records = %d, want 1", len(got.Records))
		}
		if got.Records[0].Title != "Amended title" {
			t.Errorf("Title = %q, want the later sighting to win", got.Records[0].Title)
		}
		if !strings.Contains(buf.String(), "divergent payloads") {
			t.Error("divergent payloads should be logged")
		}
	})

	t.Run("identical repeats do not warn", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{byCode: map[string][]model.Opportunity{
			"a": {solicitation("n-1")},
			"b": {solicitation("n-1")},
		}}

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		m := NewMerger(fetcher, logger)

		if _, err := m.Merge(context.Background(), model.Window{}, []string{"a", "b"}); err != nil {
			t.Fatalf("Merge() = %v", err)
		}
		if strings.Contains(buf.String(), "divergent") {
			t.Error("identical payloads should not be reported as divergent")
		}
	})

	t.Run("failed query surfaces with earlier results kept", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("daily API call quota exceeded")
		fetcher := &fakeFetcher{
			byCode: map[string][]model.Opportunity{"a": {solicitation("n-1")}},
			errOn:  "b",
			err:    wantErr,
		}
		m := NewMerger(fetcher, nil)

		got, err := m.Merge(context.Background(), model.Window{}, []string{"a", "b"})
		if !errors.Is(err, wantErr) {
			t.Fatalf("Merge() = %v, want the query error", err)
		}
		if len(got.Records) != 1 {
			t.Errorf("earlier results should be kept, got %d records", len(got.Records))
		}
	})
}

// TestCollectSince tests the full cycle against a real store.
func TestCollectSince(t *testing.T) {
	t.Parallel()

	clock := func() time.Time {
		return time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	}

	newCollector := func(t *testing.T, fetcher Fetcher, opts ...CollectorOption) (*Collector, *store.Store) {
		t.Helper()
		st, err := store.Open(filepath.Join(t.TempDir(), "opportunities.json"))
		if err != nil {
			t.Fatalf("store.Open() = %v", err)
		}
		opts = append([]CollectorOption{
			WithCodes([]string{"541511", "541512"}),
			WithTypeFilter("Solicitation"),
			WithClock(clock),
		}, opts...)
		return NewCollector(fetcher, st, opts...), st
	}

	t.Run("five counts account for every fetched record", func(t *testing.T) {
		t.Parallel()

		sourcesSought := solicitation("n-5")
		sourcesSought.Type = "Sources Sought"

		fetcher := &fakeFetcher{byCode: map[string][]model.Opportunity{
			"541511": {solicitation("n-1"), solicitation("n-2"), solicitation("n-3")},
			"541512": {solicitation("n-3"), sourcesSought},
		}}
		c, st := newCollector(t, fetcher)

		// n-2 is already in the store from an earlier cycle.
		st.Accept(solicitation("n-2"), clock().AddDate(0, 0, -1))

		result, err := c.CollectSince(context.Background(), 1)
		if err != nil {
			t.Fatalf("CollectSince() = %v", err)
		}

		s := result.Stats
		if s.TotalFetched != 5 {
			t.Errorf("TotalFetched = %d, want 5", s.TotalFetched)
		}
		if s.DuplicatesMerged != 1 {
			t.Errorf("DuplicatesMerged = %d, want 1", s.DuplicatesMerged)
		}
		if s.NonMatchingType != 1 {
			t.Errorf("NonMatchingType = %d, want 1", s.NonMatchingType)
		}
		if s.AlreadyCollected != 1 {
			t.Errorf("AlreadyCollected = %d, want 1", s.AlreadyCollected)
		}
		if s.NewlyAccepted != 2 {
			t.Errorf("NewlyAccepted = %d, want 2", s.NewlyAccepted)
		}
		if sum := s.DuplicatesMerged + s.NonMatchingType + s.AlreadyCollected + s.NewlyAccepted; sum != s.TotalFetched {
			t.Errorf("counts sum to %d, want TotalFetched %d", sum, s.TotalFetched)
		}
		if len(result.NewRecords) != 2 {
			t.Errorf("NewRecords = %d, want 2", len(result.NewRecords))
		}
		if s.CycleID == "" {
			t.Error("CycleID should be set")
		}
	})

	t.Run("second identical cycle accepts nothing", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{byCode: map[string][]model.Opportunity{
			"541511": {solicitation("n-1"), solicitation("n-2")},
			"541512": nil,
		}}
		c, st := newCollector(t, fetcher)

		first, err := c.CollectSince(context.Background(), 1)
		if err != nil {
			t.Fatalf("first CollectSince() = %v", err)
		}
		if first.Stats.NewlyAccepted != 2 {
			t.Fatalf("first NewlyAccepted = %d, want 2", first.Stats.NewlyAccepted)
		}

		second, err := c.CollectSince(context.Background(), 1)
		if err != nil {
			t.Fatalf("second CollectSince() = %v", err)
		}
		if second.Stats.NewlyAccepted != 0 {
			t.Errorf("second NewlyAccepted = %d, want 0", second.Stats.NewlyAccepted)
		}
		if second.Stats.AlreadyCollected != 2 {
			t.Errorf("second AlreadyCollected = %d, want 2", second.Stats.AlreadyCollected)
		}
		if len(second.NewRecords) != 0 {
			t.Errorf("second NewRecords = %d, want empty delta", len(second.NewRecords))
		}
		if st.Len() != 2 {
			t.Errorf("store Len() = %d, want 2", st.Len())
		}
	})

	t.Run("lookback beyond the ceiling is clamped with a warning", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{byCode: map[string][]model.Opportunity{}}

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		c, _ := newCollector(t, fetcher,
			WithCodes([]string{"541511"}),
			WithMaxWindowDays(7),
			WithLogger(logger),
		)

		result, err := c.CollectSince(context.Background(), 30)
		if err != nil {
			t.Fatalf("CollectSince() = %v", err)
		}
		if got := result.Stats.Window.Width(); got != 7*24*time.Hour {
			t.Errorf("window width = %s, want 168h after clamping", got)
		}
		if !strings.Contains(buf.String(), "clamped") {
			t.Error("clamping should be logged as a warning")
		}
	})

	t.Run("mid-series failure stores the partial results and surfaces the error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("daily API call quota exceeded")
		fetcher := &fakeFetcher{
			byCode: map[string][]model.Opportunity{"541511": {solicitation("n-1")}},
			errOn:  "541512",
			err:    wantErr,
		}
		c, st := newCollector(t, fetcher)

		result, err := c.CollectSince(context.Background(), 1)
		if !errors.Is(err, wantErr) {
			t.Fatalf("CollectSince() = %v, want the query error surfaced", err)
		}
		if result.Stats.NewlyAccepted != 1 {
			t.Errorf("NewlyAccepted = %d, want the pre-failure record stored", result.Stats.NewlyAccepted)
		}
		if st.IsNew("n-1") {
			t.Error("pre-failure record should be in the store")
		}
	})

	t.Run("cycle history is recorded", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{byCode: map[string][]model.Opportunity{
			"541511": {solicitation("n-1")},
			"541512": nil,
		}}
		rec := &fakeRecorder{}
		c, _ := newCollector(t, fetcher, WithRecorder(rec))

		result, err := c.CollectSince(context.Background(), 1)
		if err != nil {
			t.Fatalf("CollectSince() = %v", err)
		}
		if rec.stats.CycleID != result.Stats.CycleID {
			t.Errorf("recorded cycle %q, want %q", rec.stats.CycleID, result.Stats.CycleID)
		}
		if len(rec.accepted) != 1 || rec.accepted[0] != "n-1" {
			t.Errorf("recorded accepted IDs = %v", rec.accepted)
		}
	})

	t.Run("recorder failure does not fail the cycle", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{byCode: map[string][]model.Opportunity{
			"541511": {solicitation("n-1")},
			"541512": nil,
		}}
		rec := &fakeRecorder{err: errors.New("disk full")}
		c, _ := newCollector(t, fetcher, WithRecorder(rec))

		if _, err := c.CollectSince(context.Background(), 1); err != nil {
			t.Errorf("CollectSince() = %v, recorder failures must not propagate", err)
		}
	})
}

type fakeRecorder struct {
	stats    model.CycleStats
	accepted []string
	err      error
}

func (r *fakeRecorder) RecordCycle(_ context.Context, stats model.CycleStats, acceptedIDs []string) error {
	r.stats = stats
	r.accepted = acceptedIDs
	return r.err
}
