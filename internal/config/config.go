// Package config handles configuration loading and validation for jsonsql
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/gitsangramdesai/JSON-SQLParser/internal/logger"
	"github.com/gitsangramdesai/JSON-SQLParser/output"
)

// Config holds all configuration for jsonsql
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Engine EngineConfig `mapstructure:"engine"`
	Output OutputConfig `mapstructure:"output"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// EngineConfig holds query engine configuration
type EngineConfig struct {
	// RootNamespace is the optional leading segment of table paths.
	RootNamespace string `mapstructure:"root_namespace"`
	// Locale drives ORDER BY collation and header uppercasing.
	Locale string `mapstructure:"locale"`
}

// OutputConfig holds result rendering configuration
type OutputConfig struct {
	Format   string `mapstructure:"format"`
	PageSize int    `mapstructure:"page_size"`
}

// Default configuration values
func defaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Engine: EngineConfig{
			RootNamespace: "json",
			Locale:        "en",
		},
		Output: OutputConfig{
			Format:   "table",
			PageSize: 20,
		},
	}
}

// Load reads configuration from file and environment. Environment
// variables use the JSONSQL_ prefix, e.g. JSONSQL_OUTPUT_FORMAT.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)
	v.SetDefault("engine.root_namespace", cfg.Engine.RootNamespace)
	v.SetDefault("engine.locale", cfg.Engine.Locale)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.page_size", cfg.Output.PageSize)

	v.SetEnvPrefix("JSONSQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("jsonsql")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.jsonsql")

		// A missing config file leaves the defaults in place.
		_ = v.ReadInConfig()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are sensible
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	if _, err := c.LocaleTag(); err != nil {
		return err
	}

	if !validFormat(c.Output.Format) {
		return fmt.Errorf("invalid output format %q (supported: %s)", c.Output.Format, strings.Join(output.Formats, ", "))
	}

	if c.Output.PageSize < 1 {
		return fmt.Errorf("output.page_size must be positive, got %d", c.Output.PageSize)
	}

	return nil
}

// LocaleTag parses the configured locale.
func (c *Config) LocaleTag() (language.Tag, error) {
	tag, err := language.Parse(c.Engine.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", c.Engine.Locale, err)
	}
	return tag, nil
}

func validFormat(name string) bool {
	for _, f := range output.Formats {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}
