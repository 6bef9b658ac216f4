package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for CarLink Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Runtime    RuntimeConfig    `yaml:"runtime"`
	Logging    LoggingConfig    `yaml:"logging"`
	Connectors []InstanceConfig `yaml:"connectors"`
	Plugins    []InstanceConfig `yaml:"plugins"`
}

// SiteConfig contains deployment-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// RuntimeConfig contains the core runtime cadences.
type RuntimeConfig struct {
	// FetchInterval is how often every connector refreshes its subtree
	// from the backend (in seconds).
	FetchInterval int `yaml:"fetch_interval"`

	// HealthInterval is how often instance health is polled and logged
	// (in seconds).
	HealthInterval int `yaml:"health_interval"`

	// ShutdownTimeout bounds graceful shutdown (in seconds).
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

// InstanceConfig describes one connector or plugin instance to create
// at startup. Type selects the factory; ID disambiguates multiple
// instances of the same type and defaults to "default". The Config map
// is passed verbatim to the factory.
type InstanceConfig struct {
	Type   string         `yaml:"type"`
	ID     string         `yaml:"id"`
	Config map[string]any `yaml:"config"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: CARLINK_SECTION_KEY
// For example: CARLINK_LOGGING_LEVEL, CARLINK_RUNTIME_HEALTH_INTERVAL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "CarLink",
			Timezone: "UTC",
		},
		Runtime: RuntimeConfig{
			FetchInterval:   300,
			HealthInterval:  60,
			ShutdownTimeout: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: CARLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CARLINK_SITE_ID"); v != "" {
		cfg.Site.ID = v
	}
	if v := os.Getenv("CARLINK_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CARLINK_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Runtime validation
	if c.Runtime.FetchInterval < 1 {
		errs = append(errs, "runtime.fetch_interval must be at least 1 second")
	}
	if c.Runtime.HealthInterval < 1 {
		errs = append(errs, "runtime.health_interval must be at least 1 second")
	}
	if c.Runtime.ShutdownTimeout < 1 {
		errs = append(errs, "runtime.shutdown_timeout must be at least 1 second")
	}

	// Instance validation: types must be set and (type, id) pairs unique.
	seen := make(map[string]bool)
	for i, inst := range c.Connectors {
		if inst.Type == "" {
			errs = append(errs, fmt.Sprintf("connectors[%d].type is required", i))
			continue
		}
		key := instanceKey(inst)
		if seen[key] {
			errs = append(errs, fmt.Sprintf("connectors[%d]: duplicate instance %s", i, key))
		}
		seen[key] = true
	}
	for i, inst := range c.Plugins {
		if inst.Type == "" {
			errs = append(errs, fmt.Sprintf("plugins[%d].type is required", i))
			continue
		}
		key := instanceKey(inst)
		if seen[key] {
			errs = append(errs, fmt.Sprintf("plugins[%d]: duplicate instance %s", i, key))
		}
		seen[key] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func instanceKey(inst InstanceConfig) string {
	id := inst.ID
	if id == "" {
		id = "default"
	}
	return inst.Type + ":" + id
}

// GetFetchInterval returns the connector refresh cadence as a Duration.
func (c *Config) GetFetchInterval() time.Duration {
	return time.Duration(c.Runtime.FetchInterval) * time.Second
}

// GetHealthInterval returns the health poll cadence as a Duration.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.Runtime.HealthInterval) * time.Second
}

// GetShutdownTimeout returns the graceful shutdown bound as a Duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return time.Duration(c.Runtime.ShutdownTimeout) * time.Second
}
