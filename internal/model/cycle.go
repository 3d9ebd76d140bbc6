package model

import (
	"time"
)

// Window is the posted-date range for a single collection cycle.
type Window struct {
	// From is the inclusive start of the range.
	From time.Time

	// To is the inclusive end of the range.
	To time.Time
}

// Width returns the width of the window.
func (w Window) Width() time.Duration {
	return w.To.Sub(w.From)
}

// CycleStats holds the five operational counts for one collection cycle.
// Together they account for every record the cycle touched:
//
//	TotalFetched = DuplicatesMerged + NonMatchingType + AlreadyCollected + NewlyAccepted
type CycleStats struct {
	// CycleID uniquely identifies this cycle across restarts.
	CycleID string

	// Window is the posted-date range the cycle queried.
	Window Window

	// StartedAt is when the cycle began.
	StartedAt time.Time

	// Duration is how long the cycle took end to end.
	Duration time.Duration

	// TotalFetched is the raw record count across all per-code queries,
	// before any merging.
	TotalFetched int

	// DuplicatesMerged is the number of raw records discarded because the
	// same notice ID was returned by more than one per-code query.
	DuplicatesMerged int

	// NonMatchingType is the number of unique records discarded by the
	// type filter. These are never stored.
	NonMatchingType int

	// AlreadyCollected is the number of unique, type-matching records
	// whose notice ID was already present in the store.
	AlreadyCollected int

	// NewlyAccepted is the number of records accepted into the store
	// this cycle.
	NewlyAccepted int
}
