package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	c := NewConfig()
	c.APIKey = "test-key"
	c.StoragePath = "/tmp/opportunities.json"
	return c
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()

		if err := validConfig().Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing API key", func(c *Config) { c.APIKey = "" }, ErrNoAPIKey},
		{"no NAICS codes", func(c *Config) { c.NAICSCodes = nil }, ErrNoFilterValues},
		{"no storage path", func(c *Config) { c.StoragePath = "" }, ErrNoStoragePath},
		{"zero lookback", func(c *Config) { c.LookbackDays = 0 }, ErrInvalidLookback},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, ErrInvalidPageSize},
		{"negative delay", func(c *Config) { c.RequestDelay = -time.Second }, ErrInvalidRequestDelay},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero ceiling", func(c *Config) { c.MaxFilterValues = 0 }, ErrInvalidCeiling},
		{"ceiling above protocol max", func(c *Config) { c.MaxWindowDays = 400 }, ErrCeilingAboveProtocolMax},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestLoadConfigFile tests the YAML config loader.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads and applies values", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `
naics_codes: ["541511", "541519"]
lookback_days: 3
storage_path: /data/opps.json
request_delay: 2s
crm:
  base_url: https://crm.example.com
  api_key: crm-key
describe: true
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}

		c := NewConfig()
		f.Apply(c)

		if len(c.NAICSCodes) != 2 || c.NAICSCodes[1] != "541519" {
			t.Errorf("NAICSCodes = %v", c.NAICSCodes)
		}
		if c.LookbackDays != 3 {
			t.Errorf("LookbackDays = %d, want 3", c.LookbackDays)
		}
		if c.StoragePath != "/data/opps.json" {
			t.Errorf("StoragePath = %q", c.StoragePath)
		}
		if c.RequestDelay != 2*time.Second {
			t.Errorf("RequestDelay = %v, want 2s", c.RequestDelay)
		}
		if c.CRMBaseURL != "https://crm.example.com" || c.CRMAPIKey != "crm-key" {
			t.Errorf("CRM = %q / %q", c.CRMBaseURL, c.CRMAPIKey)
		}
		if !c.Describe {
			t.Error("Describe should be true")
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("malformed yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("naics_codes: [unterminated"), 0600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}

// TestFindConfigFile tests the config file search order.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path that exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile(%q) = %q", path, got)
		}
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})
}
