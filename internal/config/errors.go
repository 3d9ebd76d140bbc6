package config

import "errors"

// Configuration validation errors returned by Config.Validate().
//
// These are package-level sentinel errors so callers can use errors.Is()
// for programmatic handling while still getting a human-readable message.
var (
	// ErrNoAPIKey is returned when the SAM.gov API key is missing.
	// The key is only ever read from the SAM_GOV_API_KEY environment variable.
	ErrNoAPIKey = errors.New("no API key: set the " + APIKeyEnv + " environment variable")

	// ErrNoFilterValues is returned when no NAICS codes are configured.
	// A collection cycle with no codes would query nothing.
	ErrNoFilterValues = errors.New("no NAICS codes configured")

	// ErrNoStoragePath is returned when the store path is empty.
	ErrNoStoragePath = errors.New("no storage path configured")

	// ErrInvalidLookback is returned when the lookback is below one day.
	ErrInvalidLookback = errors.New("invalid lookback: must be at least 1 day")

	// ErrInvalidPageSize is returned when the page size is not positive.
	ErrInvalidPageSize = errors.New("invalid page size: must be positive")

	// ErrInvalidRequestDelay is returned when the request delay is negative.
	// Use 0 to disable the delay (tests only; production keeps the default).
	ErrInvalidRequestDelay = errors.New("invalid request delay: must be non-negative")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCeiling is returned when any compliance ceiling is not
	// positive. Zero ceilings would reject every collection.
	ErrInvalidCeiling = errors.New("invalid compliance ceiling: must be positive")

	// ErrCeilingAboveProtocolMax is returned when the configured window
	// ceiling exceeds the API protocol's own one-year maximum.
	ErrCeilingAboveProtocolMax = errors.New("window ceiling exceeds the protocol maximum of one year")
)
