package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".govbizops"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file shape. All fields are optional;
// values present in the file fill in fields the CLI flags left at their
// defaults. Credentials (API key, webhook URL) have no place here; they
// come from the environment.
type File struct {
	// NAICSCodes is the set of classification codes to track.
	NAICSCodes []string `yaml:"naics_codes"`

	// LookbackDays is the collection window in days.
	LookbackDays int `yaml:"lookback_days"`

	// StoragePath is the durable store location.
	StoragePath string `yaml:"storage_path"`

	// HistoryDBDir is the cycle-history database directory.
	HistoryDBDir string `yaml:"history_db_dir"`

	// TypeFilter overrides the type-filter substring.
	TypeFilter string `yaml:"type_filter"`

	// RequestDelay overrides the post-call delay (e.g. "2s").
	RequestDelay time.Duration `yaml:"request_delay"`

	// ScheduleInterval overrides the scheduled-cycle interval.
	ScheduleInterval time.Duration `yaml:"schedule_interval"`

	// CRM configures the downstream CRM push.
	CRM struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"crm"`

	// Describe enables description resolution for new records.
	Describe bool `yaml:"describe"`

	// MaxDescribe bounds description resolutions per cycle.
	MaxDescribe int `yaml:"max_describe"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound; callers decide
// whether that matters based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile searches for the configuration file in order:
// the explicit path if given, then .govbizops in the current directory,
// then in the user's home directory. Returns empty string if none exists.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// Apply merges file values into the config. File values only fill fields
// that are empty or still at their zero value so CLI flags keep priority.
func (f *File) Apply(c *Config) {
	if len(f.NAICSCodes) > 0 {
		c.NAICSCodes = f.NAICSCodes
	}
	if f.LookbackDays > 0 {
		c.LookbackDays = f.LookbackDays
	}
	if f.StoragePath != "" {
		c.StoragePath = f.StoragePath
	}
	if f.HistoryDBDir != "" {
		c.HistoryDBDir = f.HistoryDBDir
	}
	if f.TypeFilter != "" {
		c.TypeFilter = f.TypeFilter
	}
	if f.RequestDelay > 0 {
		c.RequestDelay = f.RequestDelay
	}
	if f.ScheduleInterval > 0 {
		c.ScheduleInterval = f.ScheduleInterval
	}
	if f.CRM.BaseURL != "" {
		c.CRMBaseURL = f.CRM.BaseURL
	}
	if f.CRM.APIKey != "" {
		c.CRMAPIKey = f.CRM.APIKey
	}
	if f.Describe {
		c.Describe = true
	}
	if f.MaxDescribe > 0 {
		c.MaxDescribe = f.MaxDescribe
	}
}
