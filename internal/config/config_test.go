package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/irs990-lake/internal/irs990/export"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./990data", cfg.Lake.DataDir)
	assert.Equal(t, "https://apps.irs.gov/pub/epostcard/990/xml", cfg.Fetch.BaseURL)
	assert.Equal(t, 2015, cfg.Fetch.StartYear)
	assert.Equal(t, 120, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.InDelta(t, 2.0, cfg.Fetch.RatePerSec, 0.001)
	assert.Equal(t, 50, cfg.Fetch.MaxParts)
	assert.Equal(t, 1, cfg.Extract.Workers)
	assert.Equal(t, "fail", cfg.Extract.OnMalformed)
	assert.Equal(t, 1000, cfg.Extract.ProgressEvery)
	assert.Equal(t, []string{"csv", "json"}, cfg.Export.Formats)
	assert.Equal(t, DriverNone, cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
lake:
  data_dir: /srv/990
extract:
  workers: 8
  on_malformed: skip
export:
  formats: [csv, xlsx]
store:
  driver: sqlite
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/990", cfg.Lake.DataDir)
	assert.Equal(t, 8, cfg.Extract.Workers)
	assert.Equal(t, "skip", cfg.Extract.OnMalformed)
	assert.Equal(t, []string{"csv", "xlsx"}, cfg.Export.Formats)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 2015, cfg.Fetch.StartYear)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("IRS990_STORE_DRIVER", "postgres")
	t.Setenv("IRS990_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("IRS990_FETCH_START_YEAR", "2020")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2020, cfg.Fetch.StartYear)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
extract:
  on_malformed: ignore
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "on_malformed")
}

func TestLoadRejectsNegativeRetries(t *testing.T) {
	chdirTemp(t)
	t.Setenv("IRS990_FETCH_MAX_RETRIES", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch.max_retries")
}

func TestLakeDirs(t *testing.T) {
	l := LakeConfig{DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "raw"), l.RawDir())
	assert.Equal(t, filepath.Join("/data", "csv"), l.FormatDir(export.CSV))
	assert.Equal(t, filepath.Join("/data", "xlsx"), l.FormatDir(export.XLSX))
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Lake.DataDir = "./990data"
	cfg.Fetch.TimeoutSecs = 120
	cfg.Fetch.MaxRetries = 3
	cfg.Fetch.RatePerSec = 2
	cfg.Fetch.MaxParts = 50
	cfg.Extract.Workers = 1
	cfg.Extract.OnMalformed = "fail"
	cfg.Export.Formats = []string{"csv", "json"}
	cfg.Store.Driver = DriverNone
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "skip policy", mutate: func(c *Config) { c.Extract.OnMalformed = "skip" }},
		{name: "empty policy means fail", mutate: func(c *Config) { c.Extract.OnMalformed = "" }},
		{name: "bad policy", mutate: func(c *Config) { c.Extract.OnMalformed = "ignore" }, wantErr: "on_malformed"},
		{name: "zero workers", mutate: func(c *Config) { c.Extract.Workers = 0 }, wantErr: "workers must be >= 1"},
		{name: "negative retries", mutate: func(c *Config) { c.Fetch.MaxRetries = -1 }, wantErr: "max_retries must be >= 1"},
		{name: "zero retries", mutate: func(c *Config) { c.Fetch.MaxRetries = 0 }, wantErr: "max_retries must be >= 1"},
		{name: "zero rate", mutate: func(c *Config) { c.Fetch.RatePerSec = 0 }, wantErr: "rate_per_sec must be > 0"},
		{name: "negative rate", mutate: func(c *Config) { c.Fetch.RatePerSec = -1.5 }, wantErr: "rate_per_sec must be > 0"},
		{name: "zero max parts", mutate: func(c *Config) { c.Fetch.MaxParts = 0 }, wantErr: "max_parts must be >= 1"},
		{name: "negative timeout", mutate: func(c *Config) { c.Fetch.TimeoutSecs = -1 }, wantErr: "timeout_secs must be >= 0"},
		{name: "zero timeout uses fetcher default", mutate: func(c *Config) { c.Fetch.TimeoutSecs = 0 }},
		{name: "bad format", mutate: func(c *Config) { c.Export.Formats = []string{"parquet"} }, wantErr: "export.formats"},
		{name: "postgres driver", mutate: func(c *Config) { c.Store.Driver = DriverPostgres }},
		{name: "bad driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }, wantErr: "unknown store.driver"},
		{name: "no data dir", mutate: func(c *Config) { c.Lake.DataDir = "" }, wantErr: "data_dir is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
