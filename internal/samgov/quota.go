package samgov

import (
	"fmt"
	"sync"
	"time"
)

// quotaDay is the date format used to detect wall-clock day changes.
const quotaDay = "2006-01-02"

// Quota tracks search API calls made during the current calendar day.
//
// Design decision: The quota is an explicit object owned by the client
// instance rather than process-wide state. A process that needs multiple
// independent collectors gives each its own client and quota; nothing is
// shared, so nothing needs cross-client synchronization. The internal
// mutex only guards against concurrent use of a single client.
//
// The counter is in-memory only. A crash mid-cycle loses the count and a
// restart may repeat calls already counted; this imprecision wastes quota
// at worst and is accepted.
type Quota struct {
	mu sync.Mutex

	// limit is the daily call ceiling.
	limit int

	// day is the date (quotaDay format) the counter last reset.
	day string

	// used is the number of calls accepted today.
	used int

	// now returns the current time; injectable for tests.
	now func() time.Time
}

// QuotaOption configures a Quota.
type QuotaOption func(*Quota)

// WithClock sets the time source. Tests use this to cross day boundaries
// without sleeping.
func WithClock(now func() time.Time) QuotaOption {
	return func(q *Quota) {
		q.now = now
	}
}

// NewQuota creates a Quota with the given daily limit.
func NewQuota(limit int, opts ...QuotaOption) *Quota {
	q := &Quota{
		limit: limit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.day = q.now().Format(quotaDay)
	return q
}

// Acquire records one call attempt against today's quota.
// If the wall-clock date has changed since the last call, the counter
// resets to zero first. Returns ErrDailyQuotaExceeded (wrapped with the
// limit) when the call would exceed the ceiling; in that case nothing is
// recorded. Check-then-increment is atomic under the mutex.
func (q *Quota) Acquire() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	today := q.now().Format(quotaDay)
	if today != q.day {
		q.day = today
		q.used = 0
	}

	if q.used >= q.limit {
		return fmt.Errorf("%w: %d calls today (limit %d)", ErrDailyQuotaExceeded, q.used, q.limit)
	}
	q.used++
	return nil
}

// Used returns the number of calls accepted today.
func (q *Quota) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.now().Format(quotaDay) != q.day {
		return 0
	}
	return q.used
}

// Remaining returns how many calls are left today.
func (q *Quota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.now().Format(quotaDay) != q.day {
		return q.limit
	}
	if q.used >= q.limit {
		return 0
	}
	return q.limit - q.used
}
