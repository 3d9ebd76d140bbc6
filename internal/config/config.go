package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
//
// The compliance ceilings here are self-imposed limits, adopted to stay
// within SAM.gov acceptable-use norms. They are deliberately tighter than
// what the API protocol itself allows (see ProtocolMaxWindowDays).
const (
	// DefaultBaseURL is the production SAM.gov contract opportunities
	// search endpoint.
	DefaultBaseURL = "https://api.sam.gov/opportunities/v2/search"

	// AlphaBaseURL is the alpha API endpoint, useful for testing against
	// SAM.gov's staging environment.
	AlphaBaseURL = "https://api-alpha.sam.gov/opportunities/v2/search"

	// DefaultMaxFilterValues is the compliance ceiling on NAICS codes per
	// collection. Each code costs one independent query series against the
	// API (the upstream ANDs multi-valued filters), so this bounds the
	// request volume of a cycle.
	DefaultMaxFilterValues = 3

	// DefaultMaxWindowDays is the compliance ceiling on the posted-date
	// range width, in days. Narrow windows prevent bulk data mining;
	// a scheduled daily collection only ever needs a few days of overlap.
	DefaultMaxWindowDays = 7

	// ProtocolMaxWindowDays is the date-range maximum enforced by the
	// SAM.gov API itself (one year). This is checked independently of the
	// compliance ceiling so the client stays correct even when a caller
	// raises MaxWindowDays.
	ProtocolMaxWindowDays = 365

	// DefaultMaxDailyCalls is the compliance ceiling on search API calls
	// per calendar day. A full cycle with three codes and default page
	// size rarely needs more than a handful of calls; 30 leaves headroom
	// for retries after partial failures without permitting bulk pulls.
	DefaultMaxDailyCalls = 30

	// DefaultRequestDelay is the fixed delay inserted after every search
	// API call. This is a correctness property, not cosmetics: SAM.gov
	// throttles and eventually bans clients that burst requests.
	DefaultRequestDelay = 1 * time.Second

	// DefaultPageSize is the pagination page size. 1000 is the maximum
	// the API accepts.
	DefaultPageSize = 1000

	// DefaultLookbackDays is the collection window for a routine cycle.
	DefaultLookbackDays = 1

	// DefaultTypeFilter keeps only records whose type contains this
	// substring. The upstream type field is free text; actionable records
	// are the various "Solicitation" flavors.
	DefaultTypeFilter = "Solicitation"

	// MinScheduleInterval is the floor on the interval between scheduled
	// collection cycles. 24 hours matches the once-per-day collection the
	// compliance ceilings are designed around.
	MinScheduleInterval = 24 * time.Hour

	// DefaultTimeout is the per-request HTTP timeout. The search endpoint
	// can be slow when returning full pages.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies this collector in HTTP requests.
	// A descriptive User-Agent is good practice for API clients.
	DefaultUserAgent = "govbizops/1.0 (+https://github.com/pretorin-ai/govbizops)"

	// AppName is the application name used for XDG directory paths.
	AppName = "govbizops"

	// StoreFileName is the durable opportunity store file name.
	StoreFileName = "opportunities.json"

	// APIKeyEnv is the environment variable holding the SAM.gov API key.
	// The key never appears in config files or CLI flags so it cannot leak
	// into shell history or version control.
	APIKeyEnv = "SAM_GOV_API_KEY"

	// WebhookEnv is the environment variable holding the notification
	// webhook URL. Webhook URLs embed a credential, so they are treated
	// like the API key.
	WebhookEnv = "GOVBIZOPS_WEBHOOK_URL"
)

// Config holds all configuration options for the collector.
// It is populated from CLI flags, environment variables, and an optional
// YAML file, then passed through the application via dependency injection
// rather than global state.
type Config struct {
	// APIKey is the SAM.gov API key, read from the environment.
	APIKey string

	// BaseURL is the search endpoint. Overridable for the alpha
	// environment and for tests.
	BaseURL string

	// NAICSCodes is the set of classification codes to track. Each code
	// becomes one independent query series per cycle.
	NAICSCodes []string

	// LookbackDays is how many days back the collection window reaches.
	LookbackDays int

	// StoragePath is the path of the durable opportunity store file.
	StoragePath string

	// HistoryDBDir is the directory holding the cycle-history database.
	// Empty disables cycle history.
	HistoryDBDir string

	// TypeFilter keeps only records whose type contains this substring.
	TypeFilter string

	// MaxFilterValues is the compliance ceiling on NAICS codes per cycle.
	MaxFilterValues int

	// MaxWindowDays is the compliance ceiling on window width in days.
	MaxWindowDays int

	// MaxDailyCalls is the compliance ceiling on API calls per day.
	MaxDailyCalls int

	// RequestDelay is the fixed post-call delay.
	RequestDelay time.Duration

	// PageSize is the pagination page size.
	PageSize int

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header for all outbound requests.
	UserAgent string

	// ScheduleInterval is the interval between scheduled cycles.
	// Enforced to be at least MinScheduleInterval by the schedule command.
	ScheduleInterval time.Duration

	// WebhookURL is the notification webhook. Empty disables notification.
	WebhookURL string

	// CRMBaseURL is the downstream CRM base URL. Empty disables CRM push.
	CRMBaseURL string

	// CRMAPIKey authenticates against the CRM.
	CRMAPIKey string

	// Describe enables description resolution for newly accepted records.
	Describe bool

	// MaxDescribe bounds how many new records get their description
	// resolved per cycle. Each resolution is an extra API call.
	MaxDescribe int

	// Verbose enables debug-level log output.
	Verbose bool

	// ConfigFilePath is an explicit config file path. Empty means search
	// the default locations.
	ConfigFilePath string
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be error prone; the
// constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:          DefaultBaseURL,
		NAICSCodes:       []string{"541511", "541512", "541690"},
		LookbackDays:     DefaultLookbackDays,
		TypeFilter:       DefaultTypeFilter,
		MaxFilterValues:  DefaultMaxFilterValues,
		MaxWindowDays:    DefaultMaxWindowDays,
		MaxDailyCalls:    DefaultMaxDailyCalls,
		RequestDelay:     DefaultRequestDelay,
		PageSize:         DefaultPageSize,
		Timeout:          DefaultTimeout,
		UserAgent:        DefaultUserAgent,
		ScheduleInterval: MinScheduleInterval,
		MaxDescribe:      10,
	}
}

// XDGDataDir returns the XDG data directory for govbizops.
// On Linux: ~/.local/share/govbizops
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for govbizops.
// On Linux: ~/.config/govbizops
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultStoragePath returns the default location of the opportunity store.
func DefaultStoragePath() string {
	return filepath.Join(XDGDataDir(), StoreFileName)
}

// Validate checks if the configuration is valid, returning the first
// sentinel error found. Called once after flag/env/file merging, before
// any collection begins, so failures are fast and clearly attributed.
//
// Note that Validate does not enforce the compliance ceilings themselves;
// oversized code lists and lookbacks are clamped (with a warning) at the
// command boundary, and the client rejects anything that slips through.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if len(c.NAICSCodes) == 0 {
		return ErrNoFilterValues
	}
	if c.StoragePath == "" {
		return ErrNoStoragePath
	}
	if c.LookbackDays < 1 {
		return ErrInvalidLookback
	}
	if c.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	if c.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxFilterValues <= 0 || c.MaxWindowDays <= 0 || c.MaxDailyCalls <= 0 {
		return ErrInvalidCeiling
	}
	if c.MaxWindowDays > ProtocolMaxWindowDays {
		return ErrCeilingAboveProtocolMax
	}
	return nil
}
