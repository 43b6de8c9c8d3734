package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"market-backfill/src/helpers"
	"market-backfill/src/models"
	"market-backfill/src/utils"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultMaxRetries applies when the YAML has no network.retries key.
const DefaultMaxRetries = 3

// EnvPrefix namespaces every environment override.
const EnvPrefix = "GAPFILL_"

var scheduleRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig loads the YAML file, applies defaults, then .env and environment
// overrides, and validates the result.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	modelConfig := models.MConfig{Network: models.MNetworkConfig{MaxRetries: DefaultMaxRetries}}
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()

	// 3. .env next to the config file, then the process environment
	dotenv := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Default returns a configuration that passes validation with a local SQLite
// store and a single Alpaca source.
func Default() *Config {
	c := &Config{MConfig: &models.MConfig{
		Name:      "market-backfill",
		Host:      "127.0.0.1",
		Port:      8090,
		LogLevel:  "info",
		DataStart: "2019-01-01 15:30",
		Storage:   models.MStorageConfig{DBType: "sqlite", DBPath: "market_data.db"},
		Network:   models.MNetworkConfig{MaxRetries: DefaultMaxRetries},
		Provider: models.MProviderConfig{
			Sources: []models.MSourceConfig{{Name: "alpaca", Type: "alpaca"}},
		},
		Universe: models.MUniverseConfig{Symbols: []string{"AAPL", "MSFT", "NVDA"}},
		Backfill: models.MBackfillConfig{ScheduleAt: "22:30"},
	}}
	c.ApplyDefaults()
	return c
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills zero values that have a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Europe/Berlin"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 30
	}
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = "market-backfill/1.0"
	}
	if c.Provider.RequestsPerMinute == 0 {
		c.Provider.RequestsPerMinute = 200
	}
	if c.Calendar.Source == "" {
		c.Calendar.Source = "builtin"
	}
	if c.Calendar.MIC == "" {
		c.Calendar.MIC = "xnys"
	}
	if c.Backfill.Workers == 0 {
		c.Backfill.Workers = 4
	}
	if c.Backfill.SymbolTimeoutSeconds == 0 {
		c.Backfill.SymbolTimeoutSeconds = 600
	}
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides fields from GAPFILL_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c.MConfig, env.Options{Prefix: EnvPrefix}); err != nil {
		return helpers.NewConfigurationError("failed to parse environment overrides", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return helpers.NewConfigurationError("application name cannot be empty", nil)
	}

	if c.Host == "" {
		return helpers.NewConfigurationError("server host cannot be empty", nil)
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return helpers.NewConfigurationError(fmt.Sprintf("invalid server port number: %d (must be between 1025 and 65535)", c.Port), nil)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return helpers.NewConfigurationError(fmt.Sprintf("invalid grpc port number: %d", c.GrpcPort), nil)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.DataStartTime(); err != nil {
		return err
	}

	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return helpers.NewConfigurationError("database path cannot be empty for sqlite", nil)
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return helpers.NewConfigurationError("connection string cannot be empty for postgres", nil)
		}
	default:
		return helpers.NewConfigurationError(fmt.Sprintf("unknown database type %q", c.Storage.DBType), nil)
	}

	if c.Network.RequestTimeout <= 0 {
		return helpers.NewConfigurationError("request timeout must be greater than 0", nil)
	}
	if c.Network.MaxRetries < 0 {
		return helpers.NewConfigurationError("max retries cannot be negative", nil)
	}

	if c.Provider.RequestsPerMinute <= 0 {
		return helpers.NewConfigurationError("requests_per_minute must be greater than 0", nil)
	}
	if len(c.Provider.Sources) == 0 {
		return helpers.NewConfigurationError("at least one data source must be configured", nil)
	}
	for i, src := range c.Provider.Sources {
		if src.Name == "" {
			return helpers.NewConfigurationError(fmt.Sprintf("source %d must have a name", i), nil)
		}
		if src.Type != "alpaca" && src.Type != "polygon" {
			return helpers.NewConfigurationError(fmt.Sprintf("source '%s' has unknown type %q", src.Name, src.Type), nil)
		}
	}

	if c.Calendar.Source != "builtin" && c.Calendar.Source != "exchange" {
		return helpers.NewConfigurationError(fmt.Sprintf("unknown calendar source %q", c.Calendar.Source), nil)
	}

	if c.Universe.Range < 0 {
		return helpers.NewConfigurationError("universe range cannot be negative", nil)
	}

	if c.Backfill.Workers <= 0 {
		return helpers.NewConfigurationError("backfill workers must be greater than 0", nil)
	}
	if c.Backfill.SymbolTimeoutSeconds <= 0 {
		return helpers.NewConfigurationError("symbol timeout must be greater than 0", nil)
	}
	if c.Backfill.ScheduleAt != "" && !scheduleRe.MatchString(c.Backfill.ScheduleAt) {
		return helpers.NewConfigurationError(fmt.Sprintf("schedule_at %q is not HH:MM", c.Backfill.ScheduleAt), nil)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Location resolves the reference time zone of stored timestamps.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("unknown timezone %q", c.Timezone), err)
	}
	return loc, nil
}

// -----------------------------------------------------------------------------

// DataStartTime parses data_start in the reference zone.
func (c *Config) DataStartTime() (time.Time, error) {
	if c.DataStart == "" {
		return time.Time{}, helpers.NewConfigurationError("data_start cannot be empty", nil)
	}
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := utils.ParseMinute(c.DataStart, loc)
	if err != nil {
		return time.Time{}, helpers.NewConfigurationError(fmt.Sprintf("data_start %q is not %q", c.DataStart, "yyyy-MM-dd HH:mm"), err)
	}
	return t, nil
}

// -----------------------------------------------------------------------------

// SymbolTimeout bounds one symbol's work in a reconciliation run.
func (c *Config) SymbolTimeout() time.Duration {
	return time.Duration(c.Backfill.SymbolTimeoutSeconds) * time.Second
}

// -----------------------------------------------------------------------------

// ResolvedSources returns the configured sources with provider-level
// credentials filled in where a source has none of its own.
func (c *Config) ResolvedSources() []models.MSourceConfig {
	out := make([]models.MSourceConfig, len(c.Provider.Sources))
	for i, src := range c.Provider.Sources {
		if src.APIKey == "" {
			src.APIKey = c.Provider.APIKey
		}
		if src.APISecret == "" {
			src.APISecret = c.Provider.APISecret
		}
		out[i] = src
	}
	return out
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
