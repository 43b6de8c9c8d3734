package config

import (
	"os"
	"path/filepath"
	"testing"

	"market-backfill/src/helpers"
	"market-backfill/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: gapfill-test
host: 127.0.0.1
port: 8090
timezone: Europe/Berlin
data_start: "2024-01-02 15:30"
storage:
  db_type: sqlite
  db_path: test.db
provider:
  api_key: shared-key
  sources:
    - name: alpaca
      type: alpaca
    - name: polygon
      type: polygon
      api_key: own-key
universe:
  symbols: [AAPL, MSFT]
  range: 1
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfig_DefaultsAndParsing(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "gapfill-test", cfg.Name)
	assert.Equal(t, 4, cfg.Backfill.Workers)
	assert.Equal(t, 200, cfg.Provider.RequestsPerMinute)
	assert.Equal(t, "builtin", cfg.Calendar.Source)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Universe.Symbols)

	start, err := cfg.DataStartTime()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02 15:30", start.Format(utils.TimestampLayout))
	assert.Equal(t, "Europe/Berlin", start.Location().String())

	sources := cfg.ResolvedSources()
	require.Len(t, sources, 2)
	assert.Equal(t, "shared-key", sources[0].APIKey)
	assert.Equal(t, "own-key", sources[1].APIKey)
}

func TestNewConfig_Retries(t *testing.T) {
	testCases := []struct {
		name     string
		extra    string
		expected int
	}{
		{name: "absent key uses default", extra: "", expected: DefaultMaxRetries},
		{name: "explicit zero disables retries", extra: "network:\n  retries: 0\n", expected: 0},
		{name: "explicit value", extra: "network:\n  retries: 7\n", expected: 7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(writeConfig(t, sampleYAML+tc.extra))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg.Network.MaxRetries)
		})
	}
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GAPFILL_BACKFILL_WORKERS", "9")
	t.Setenv("GAPFILL_PROVIDER_API_KEY", "from-env")
	t.Setenv("GAPFILL_UNIVERSE_SYMBOLS", "SPY,QQQ,IWM")

	cfg, err := NewConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Backfill.Workers)
	assert.Equal(t, "from-env", cfg.Provider.APIKey)
	assert.Equal(t, []string{"SPY", "QQQ", "IWM"}, cfg.Universe.Symbols)
}

func TestNewConfig_DotEnvFile(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".env"), []byte("GAPFILL_PROVIDER_API_SECRET=s3cret\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("GAPFILL_PROVIDER_API_SECRET") })

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Provider.APISecret)
}

func TestValidate_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{name: "empty data start", mutate: func(c *Config) { c.DataStart = "" }},
		{name: "unparseable data start", mutate: func(c *Config) { c.DataStart = "2024/01/02" }},
		{name: "unknown source type", mutate: func(c *Config) { c.Provider.Sources[0].Type = "yahoo" }},
		{name: "no sources", mutate: func(c *Config) { c.Provider.Sources = nil }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Storage.DBType = "postgres" }},
		{name: "bad schedule", mutate: func(c *Config) { c.Backfill.ScheduleAt = "25:00" }},
		{name: "bad calendar source", mutate: func(c *Config) { c.Calendar.Source = "lunar" }},
		{name: "privileged port", mutate: func(c *Config) { c.Port = 80 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, helpers.IsConfigurationError(err))
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, Default().Save(path))

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Default().MConfig, cfg.MConfig)
}
