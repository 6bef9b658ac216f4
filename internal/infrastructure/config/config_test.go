package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
site:
  id: "test-site"
runtime:
  fetch_interval: 120
  health_interval: 30
logging:
  level: "debug"
connectors:
  - type: "volkswagen"
    id: "family"
    config:
      username: "someone@example.com"
  - type: "volkswagen"
    id: "work"
plugins:
  - type: "mqtt_mirror"
    config:
      broker: "tcp://localhost:1883"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}

	if cfg.Runtime.FetchInterval != 120 {
		t.Errorf("Runtime.FetchInterval = %d, want 120", cfg.Runtime.FetchInterval)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}

	if len(cfg.Connectors) != 2 {
		t.Fatalf("len(Connectors) = %d, want 2", len(cfg.Connectors))
	}

	if cfg.Connectors[0].Config["username"] != "someone@example.com" {
		t.Errorf("Connectors[0].Config[username] = %v, want someone@example.com", cfg.Connectors[0].Config["username"])
	}

	if len(cfg.Plugins) != 1 || cfg.Plugins[0].Type != "mqtt_mirror" {
		t.Errorf("Plugins = %+v, want one mqtt_mirror entry", cfg.Plugins)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Site: SiteConfig{ID: "site-001"},
			Runtime: RuntimeConfig{
				FetchInterval:   300,
				HealthInterval:  60,
				ShutdownTimeout: 30,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing site ID",
			mutate:  func(c *Config) { c.Site.ID = "" },
			wantErr: true,
		},
		{
			name:    "zero fetch interval",
			mutate:  func(c *Config) { c.Runtime.FetchInterval = 0 },
			wantErr: true,
		},
		{
			name:    "zero health interval",
			mutate:  func(c *Config) { c.Runtime.HealthInterval = 0 },
			wantErr: true,
		},
		{
			name: "connector without type",
			mutate: func(c *Config) {
				c.Connectors = []InstanceConfig{{Type: ""}}
			},
			wantErr: true,
		},
		{
			name: "duplicate connector instance",
			mutate: func(c *Config) {
				c.Connectors = []InstanceConfig{
					{Type: "volkswagen"},
					{Type: "volkswagen", ID: "default"},
				}
			},
			wantErr: true,
		},
		{
			name: "connector and plugin sharing a key",
			mutate: func(c *Config) {
				c.Connectors = []InstanceConfig{{Type: "mirror"}}
				c.Plugins = []InstanceConfig{{Type: "mirror"}}
			},
			wantErr: true,
		},
		{
			name: "same type distinct ids",
			mutate: func(c *Config) {
				c.Connectors = []InstanceConfig{
					{Type: "volkswagen", ID: "family"},
					{Type: "volkswagen", ID: "work"},
				}
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetIntervals(t *testing.T) {
	cfg := &Config{
		Runtime: RuntimeConfig{
			FetchInterval:   120,
			HealthInterval:  45,
			ShutdownTimeout: 15,
		},
	}

	if got := cfg.GetFetchInterval().Seconds(); got != 120 {
		t.Errorf("GetFetchInterval() = %v, want 120", got)
	}

	if got := cfg.GetHealthInterval().Seconds(); got != 45 {
		t.Errorf("GetHealthInterval() = %v, want 45", got)
	}

	if got := cfg.GetShutdownTimeout().Seconds(); got != 15 {
		t.Errorf("GetShutdownTimeout() = %v, want 15", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("CARLINK_SITE_ID", "garage-02")
	t.Setenv("CARLINK_LOGGING_LEVEL", "debug")
	t.Setenv("CARLINK_LOGGING_FORMAT", "text")

	applyEnvOverrides(cfg)

	if cfg.Site.ID != "garage-02" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "garage-02")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}

	if cfg.Runtime.FetchInterval <= 0 {
		t.Error("defaultConfig should have a positive fetch interval")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("defaultConfig Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate, got %v", err)
	}
}
