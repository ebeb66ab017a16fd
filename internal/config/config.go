// Package config provides configuration management for invclean.
//
// The config file holds the tunable parts of a cleaning run: input table shape,
// which fields are critical or audited for duplicates, subnet assumptions, the
// device type keyword rules, worker count, and the run history database.
// Every setting has a default, so running without a config file is normal.
//
// Config file locations (priority order):
//  1. $INVCLEAN_CONFIG
//  2. ./invclean.yaml
//  3. ~/.config/invclean/config.yaml
//  4. /etc/invclean/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"invclean/internal/domain"
)

const (
	defaultDelimiter = ","
	defaultDebounce  = 500 * time.Millisecond
	databaseFileName = "history.db"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the settings used when no config file exists
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Input.Delimiter == "" {
		c.Input.Delimiter = defaultDelimiter
	}
	if len(c.Input.RequiredColumns) == 0 {
		c.Input.RequiredColumns = append([]string(nil), domain.InputColumns...)
	}
	if len(c.Validation.CriticalFields) == 0 {
		c.Validation.CriticalFields = []string{domain.ColumnMAC, domain.ColumnFQDN, domain.ColumnSite}
	}
	if len(c.Validation.DuplicateFields) == 0 {
		c.Validation.DuplicateFields = []string{domain.ColumnIP, domain.ColumnMAC, domain.ColumnHostname}
	}
	if c.Validation.IPv4Prefix == 0 {
		c.Validation.IPv4Prefix = 24
	}
	if c.Validation.IPv6Prefix == 0 {
		c.Validation.IPv6Prefix = 64
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(DefaultDataDir(), databaseFileName)
	}
}

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return fmt.Errorf("input.delimiter must be a single character, got %q", c.Input.Delimiter)
	}
	if c.Validation.IPv4Prefix < 1 || c.Validation.IPv4Prefix > 32 {
		return fmt.Errorf("validation.ipv4_prefix %d outside 1-32", c.Validation.IPv4Prefix)
	}
	if c.Validation.IPv6Prefix < 1 || c.Validation.IPv6Prefix > 128 {
		return fmt.Errorf("validation.ipv6_prefix %d outside 1-128", c.Validation.IPv6Prefix)
	}
	if c.Processing.Workers < 0 {
		return fmt.Errorf("processing.workers must not be negative")
	}
	if err := checkFieldNames("validation.critical_fields", c.Validation.CriticalFields); err != nil {
		return err
	}
	if err := checkFieldNames("validation.duplicate_fields", c.Validation.DuplicateFields); err != nil {
		return err
	}
	for i, r := range c.Classification.Rules {
		if strings.TrimSpace(r.Category) == "" {
			return fmt.Errorf("classification.rules[%d]: empty category", i)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("classification.rules[%d] (%s): no keywords", i, r.Category)
		}
	}
	return nil
}

// checkFieldNames rejects names a finalized record cannot resolve
func checkFieldNames(key string, names []string) error {
	for _, name := range names {
		if !domain.IsAddressableField(name) {
			return fmt.Errorf("%s: unknown field %q (want one of %s)",
				key, name, strings.Join(domain.AddressableFields, ", "))
		}
	}
	return nil
}

// DelimiterRune returns the input delimiter as a rune
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}

// EffectiveWorkers returns the worker pool size
func (c *Config) EffectiveWorkers() int {
	if c.Processing.Workers > 0 {
		return c.Processing.Workers
	}
	return runtime.NumCPU()
}

// StoreEnabled reports whether runs are recorded in the history database
func (c *Config) StoreEnabled() bool {
	return c.Database.Enabled == nil || *c.Database.Enabled
}

// DebounceDuration returns the watch debounce interval
func (c *Config) DebounceDuration() time.Duration {
	if c.Watch.Debounce != nil && c.Watch.Debounce.Duration() > 0 {
		return c.Watch.Debounce.Duration()
	}
	return defaultDebounce
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Delimiter: %q, Workers: %d\n", c.Input.Delimiter, c.EffectiveWorkers())
	summary += fmt.Sprintf("Required columns: %s\n", strings.Join(c.Input.RequiredColumns, ", "))
	summary += fmt.Sprintf("Critical fields: %s; duplicate audit: %s\n",
		strings.Join(c.Validation.CriticalFields, ", "),
		strings.Join(c.Validation.DuplicateFields, ", "))
	summary += fmt.Sprintf("Subnet guess: IPv4 /%d, IPv6 /%d\n", c.Validation.IPv4Prefix, c.Validation.IPv6Prefix)
	if len(c.Classification.Rules) == 0 {
		summary += "Classification rules: built-in\n"
	} else {
		summary += fmt.Sprintf("Classification rules: %d custom\n", len(c.Classification.Rules))
	}
	if c.StoreEnabled() {
		summary += fmt.Sprintf("Run history: %s", c.Database.Path)
	} else {
		summary += "Run history: disabled"
	}
	return summary
}
