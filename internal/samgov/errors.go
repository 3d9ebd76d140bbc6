package samgov

import "errors"

// Compliance violation errors. Each precondition fails fast with its own
// sentinel, before any network call, so callers can tell exactly which
// ceiling was hit via errors.Is().
var (
	// ErrDailyQuotaExceeded is returned when another search call would
	// exceed the daily call ceiling. The counter resets when the
	// wall-clock date changes.
	ErrDailyQuotaExceeded = errors.New("daily API call quota exceeded")

	// ErrTooManyFilterValues is returned when a search requests more
	// filter values than the compliance ceiling allows.
	ErrTooManyFilterValues = errors.New("too many filter values for one search")

	// ErrWindowTooWide is returned when the posted-date window exceeds the
	// compliance ceiling. Callers that want a wider reach must clamp at
	// their own boundary; the client never clamps silently.
	ErrWindowTooWide = errors.New("posted-date window exceeds the compliance ceiling")

	// ErrWindowExceedsProtocolMax is returned when the window exceeds the
	// one-year maximum enforced by the SAM.gov API protocol itself. This
	// is checked independently of the compliance ceiling.
	ErrWindowExceedsProtocolMax = errors.New("posted-date window exceeds the protocol maximum of one year")

	// ErrInvalidWindow is returned when the window end precedes its start.
	ErrInvalidWindow = errors.New("invalid window: end precedes start")
)

// IsComplianceViolation reports whether err is one of the compliance
// precondition errors. These must always surface to the caller; FetchAll
// uses this to distinguish them from swallowed transport failures.
func IsComplianceViolation(err error) bool {
	return errors.Is(err, ErrDailyQuotaExceeded) ||
		errors.Is(err, ErrTooManyFilterValues) ||
		errors.Is(err, ErrWindowTooWide) ||
		errors.Is(err, ErrWindowExceedsProtocolMax) ||
		errors.Is(err, ErrInvalidWindow)
}
