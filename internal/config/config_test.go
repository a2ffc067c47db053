package config

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/language"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Engine.RootNamespace != "json" {
		t.Errorf("Expected default root namespace 'json', got %s", cfg.Engine.RootNamespace)
	}
	if cfg.Output.Format != "table" {
		t.Errorf("Expected default output format 'table', got %s", cfg.Output.Format)
	}
	if cfg.Output.PageSize != 20 {
		t.Errorf("Expected default page size 20, got %d", cfg.Output.PageSize)
	}

	tag, err := cfg.LocaleTag()
	if err != nil || tag != language.English {
		t.Errorf("LocaleTag() = %v, %v; want en", tag, err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		shouldError bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:   "csv output",
			modify: func(c *Config) { c.Output.Format = "CSV" },
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.Log.Level = "invalid" },
			shouldError: true,
		},
		{
			name:        "invalid log format",
			modify:      func(c *Config) { c.Log.Format = "xml" },
			shouldError: true,
		},
		{
			name:        "invalid output format",
			modify:      func(c *Config) { c.Output.Format = "html" },
			shouldError: true,
		},
		{
			name:        "zero page size",
			modify:      func(c *Config) { c.Output.PageSize = 0 },
			shouldError: true,
		},
		{
			name:        "unparseable locale",
			modify:      func(c *Config) { c.Engine.Locale = "not a locale!" },
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.shouldError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "jsonsql.yaml")
	content := `
log:
  level: debug
engine:
  locale: de
output:
  format: json
  page_size: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level 'debug', got %s", cfg.Log.Level)
	}
	if cfg.Engine.Locale != "de" {
		t.Errorf("Expected locale 'de', got %s", cfg.Engine.Locale)
	}
	if cfg.Output.Format != "json" || cfg.Output.PageSize != 5 {
		t.Errorf("Unexpected output config: %+v", cfg.Output)
	}
	// Unset keys keep their defaults.
	if cfg.Log.Format != "text" || cfg.Engine.RootNamespace != "json" {
		t.Errorf("Defaults lost: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JSONSQL_OUTPUT_FORMAT", "csv")
	t.Setenv("JSONSQL_ENGINE_ROOT_NAMESPACE", "data")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("Expected output format from env 'csv', got %s", cfg.Output.Format)
	}
	if cfg.Engine.RootNamespace != "data" {
		t.Errorf("Expected root namespace from env 'data', got %s", cfg.Engine.RootNamespace)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for a missing config file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("output:\n  page_size: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Expected validation error for a negative page size")
	}
}
