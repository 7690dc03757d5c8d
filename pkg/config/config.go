// Package config provides the scan-session configuration for Quasar. A
// single SessionConfig carries the settings shared by every table scan in a
// session: batching, inference sampling, storage backend, and logging.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// SessionConfig is the unified session configuration.
type SessionConfig struct {
	// Scan settings control batch shaping and row limits
	Scan ScanConfig `yaml:"scan" mapstructure:"scan"`

	// Inference settings control schema sampling
	Inference InferenceConfig `yaml:"inference" mapstructure:"inference"`

	// Storage selects and configures the object store backend
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Logging configures the structured logger
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ScanConfig contains scan execution settings.
type ScanConfig struct {
	// BatchSize is the target rows per emitted batch
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// InferenceConfig contains schema-inference settings.
type InferenceConfig struct {
	// MaxRecords bounds rows sampled per file for formats without an
	// embedded schema
	MaxRecords int `yaml:"max_records" mapstructure:"max_records"`
}

// StorageConfig selects the object store backend.
type StorageConfig struct {
	// Backend is one of "local" or "s3"
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Root is the local directory for the local backend
	Root string `yaml:"root" mapstructure:"root"`
	// Bucket, Prefix and Region configure the s3 backend
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
	Region string `yaml:"region" mapstructure:"region"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level sets logging verbosity (debug, info, warn, error)
	Level string `yaml:"level" mapstructure:"level"`
	// Encoding is json or console
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
	// Development enables human-friendly output
	Development bool `yaml:"development" mapstructure:"development"`
}

// NewSessionConfig returns a configuration with production-ready defaults.
func NewSessionConfig() *SessionConfig {
	return &SessionConfig{
		Scan: ScanConfig{
			BatchSize: 8192,
		},
		Inference: InferenceConfig{
			MaxRecords: 1000,
		},
		Storage: StorageConfig{
			Backend: "local",
			Root:    ".",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load reads a YAML configuration file into cfg. Environment variables with
// the QUASAR_ prefix override file values (QUASAR_SCAN_BATCH_SIZE and so on).
func Load(filePath string, cfg *SessionConfig) error {
	v := viper.New()
	v.SetConfigFile(filePath)
	v.SetEnvPrefix("QUASAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg.Validate()
}

// Save writes the configuration to a YAML file.
func Save(filePath string, cfg *SessionConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks required fields and value ranges.
func (c *SessionConfig) Validate() error {
	if c.Scan.BatchSize <= 0 {
		return fmt.Errorf("scan.batch_size must be positive")
	}
	if c.Inference.MaxRecords <= 0 {
		return fmt.Errorf("inference.max_records must be positive")
	}
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for the s3 backend")
	}
	return nil
}
