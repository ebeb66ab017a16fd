package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Version        int                  `yaml:"version"`
	Input          InputConfig          `yaml:"input"`
	Validation     ValidationConfig     `yaml:"validation"`
	Classification ClassificationConfig `yaml:"classification"`
	Processing     ProcessingConfig     `yaml:"processing"`
	Database       DatabaseConfig       `yaml:"database"`
	Watch          WatchConfig          `yaml:"watch"`
}

// InputConfig describes the input table
type InputConfig struct {
	// Delimiter is a single character; default ","
	Delimiter string `yaml:"delimiter"`
	// RequiredColumns must all be present in the header or the run fails
	RequiredColumns []string `yaml:"required_columns,omitempty"`
}

// ValidationConfig tunes the row checks and the dataset audit
type ValidationConfig struct {
	CriticalFields  []string `yaml:"critical_fields,omitempty"`  // Empty after processing -> MissingCriticalField
	DuplicateFields []string `yaml:"duplicate_fields,omitempty"` // Audited for shared values across rows
	IPv4Prefix      int      `yaml:"ipv4_prefix"`                // Assumed subnet size for private IPv4
	IPv6Prefix      int      `yaml:"ipv6_prefix"`                // Assumed subnet size for unique-local IPv6
}

// ClassificationConfig holds the ordered device type keyword rules
type ClassificationConfig struct {
	Rules []RuleConfig `yaml:"rules,omitempty"`
}

// RuleConfig maps keywords to a device category
type RuleConfig struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// ProcessingConfig controls the row worker pool
type ProcessingConfig struct {
	Workers int `yaml:"workers"` // 0 = number of CPUs
}

// DatabaseConfig holds run history settings
type DatabaseConfig struct {
	Path    string `yaml:"path"`
	Enabled *bool  `yaml:"enabled,omitempty"` // nil = enabled
}

// WatchConfig controls the watch command
type WatchConfig struct {
	Debounce *Duration `yaml:"debounce,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
