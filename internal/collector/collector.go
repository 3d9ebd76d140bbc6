package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pretorin-ai/govbizops/internal/config"
	"github.com/pretorin-ai/govbizops/internal/model"
	"github.com/pretorin-ai/govbizops/internal/store"
)

// Recorder receives the outcome of each finished cycle. The history
// database satisfies this.
type Recorder interface {
	RecordCycle(ctx context.Context, stats model.CycleStats, acceptedIDs []string) error
}

// CycleResult is the outcome of one collection cycle.
type CycleResult struct {
	// Stats holds the five operational counts plus cycle identity.
	Stats model.CycleStats

	// NewRecords are the opportunities accepted into the store this cycle,
	// in acceptance order. Downstream collaborators consume exactly this
	// delta.
	NewRecords []model.Opportunity
}

// Collector orchestrates one collection cycle end to end: window
// derivation, per-code fetch and merge, type filtering, novelty checks
// against the store, and a single persist.
type Collector struct {
	merger        *Merger
	store         *store.Store
	codes         []string
	typeFilter    string
	maxWindowDays int
	recorder      Recorder
	logger        *slog.Logger
	now           func() time.Time
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCodes sets the NAICS codes queried each cycle.
func WithCodes(codes []string) CollectorOption {
	return func(c *Collector) {
		c.codes = codes
	}
}

// WithTypeFilter sets the substring records must carry in their type
// field to be stored.
func WithTypeFilter(substr string) CollectorOption {
	return func(c *Collector) {
		c.typeFilter = substr
	}
}

// WithMaxWindowDays sets the lookback ceiling in days. Requests beyond it
// are clamped with a warning rather than rejected.
func WithMaxWindowDays(days int) CollectorOption {
	return func(c *Collector) {
		if days > 0 {
			c.maxWindowDays = days
		}
	}
}

// WithRecorder sets the cycle-history recorder.
func WithRecorder(r Recorder) CollectorOption {
	return func(c *Collector) {
		c.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithClock sets the time source. Tests use this for stable windows.
func WithClock(now func() time.Time) CollectorOption {
	return func(c *Collector) {
		c.now = now
	}
}

// NewCollector creates a Collector fetching through fetcher and storing
// into st.
func NewCollector(fetcher Fetcher, st *store.Store, opts ...CollectorOption) *Collector {
	c := &Collector{
		store:         st,
		typeFilter:    config.DefaultTypeFilter,
		maxWindowDays: config.DefaultMaxWindowDays,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.merger = NewMerger(fetcher, c.logger)
	return c
}

// CollectSince runs one cycle over the posted-date window ending now and
// reaching daysBack days into the past. daysBack beyond the lookback
// ceiling is clamped with a warning; the underlying client would reject
// the oversized window outright.
//
// Each unique merged record goes down exactly one path: dropped by the
// type filter, skipped as already collected, or accepted. The store is
// persisted once, at the end of the cycle.
//
// When a query fails mid-series the records fetched before the failure
// are still filtered and stored, and the error is returned alongside the
// partial result.
func (c *Collector) CollectSince(ctx context.Context, daysBack int) (*CycleResult, error) {
	if daysBack < 1 {
		daysBack = config.DefaultLookbackDays
	}
	if daysBack > c.maxWindowDays {
		c.logger.Warn("lookback clamped to the window ceiling",
			"requested", daysBack,
			"ceiling", c.maxWindowDays,
		)
		daysBack = c.maxWindowDays
	}

	started := c.now()
	window := model.Window{
		From: started.AddDate(0, 0, -daysBack),
		To:   started,
	}

	result := &CycleResult{
		Stats: model.CycleStats{
			CycleID:   uuid.NewString(),
			Window:    window,
			StartedAt: started,
		},
	}

	c.logger.Info("collection cycle started",
		"cycleId", result.Stats.CycleID,
		"from", window.From.Format("2006-01-02"),
		"to", window.To.Format("2006-01-02"),
		"codes", c.codes,
	)

	merged, mergeErr := c.merger.Merge(ctx, window, c.codes)

	result.Stats.TotalFetched = merged.RawFetched
	result.Stats.DuplicatesMerged = merged.Duplicates()

	collectedAt := c.now()
	for _, op := range merged.Records {
		switch {
		case !op.MatchesType(c.typeFilter):
			result.Stats.NonMatchingType++
		case c.store.Accept(op, collectedAt):
			result.Stats.NewlyAccepted++
			result.NewRecords = append(result.NewRecords, op)
		default:
			result.Stats.AlreadyCollected++
		}
	}

	if err := c.store.Persist(); err != nil {
		return result, err
	}

	result.Stats.Duration = c.now().Sub(started)

	c.logger.Info("collection cycle finished",
		"cycleId", result.Stats.CycleID,
		"totalFetched", result.Stats.TotalFetched,
		"duplicatesMerged", result.Stats.DuplicatesMerged,
		"nonMatchingType", result.Stats.NonMatchingType,
		"alreadyCollected", result.Stats.AlreadyCollected,
		"newlyAccepted", result.Stats.NewlyAccepted,
		"duration", result.Stats.Duration,
	)

	c.recordHistory(ctx, result)

	return result, mergeErr
}

// recordHistory writes the cycle to the history recorder, if any.
// Recording is observability, not pipeline state; failures are logged
// and never fail the cycle.
func (c *Collector) recordHistory(ctx context.Context, result *CycleResult) {
	if c.recorder == nil {
		return
	}
	ids := make([]string, 0, len(result.NewRecords))
	for _, op := range result.NewRecords {
		ids = append(ids, op.NoticeID)
	}
	if err := c.recorder.RecordCycle(ctx, result.Stats, ids); err != nil {
		c.logger.Warn("failed to record cycle history",
			"cycleId", result.Stats.CycleID,
			"error", err,
		)
	}
}
