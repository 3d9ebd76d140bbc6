// Package samgov provides the rate-limited client for the SAM.gov
// contract opportunities search API.
//
// The client enforces four compliance preconditions before any network
// I/O: the daily call quota, the filter-value ceiling, the window-width
// ceiling, and the API protocol's own one-year window maximum. Pagination
// is handled by FetchAll, which inserts a fixed delay after every page
// fetch; that delay is a correctness property of the collector, not a
// cosmetic sleep, because SAM.gov throttles and bans bursty clients.
//
// Page-level transport failures during FetchAll terminate pagination and
// return the partially accumulated records: a partial cycle is acceptable
// because the next scheduled run repeats the window and the dedup store
// makes re-collection idempotent. Compliance violations are never
// swallowed.
package samgov
