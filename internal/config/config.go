package config

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/irs990-lake/internal/irs990"
	"github.com/sells-group/irs990-lake/internal/irs990/export"
)

// Config holds the full application configuration.
type Config struct {
	Lake    LakeConfig    `yaml:"lake" mapstructure:"lake"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// LakeConfig locates the data lake on disk.
type LakeConfig struct {
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// RawDir holds downloaded IRS archives.
func (l LakeConfig) RawDir() string { return filepath.Join(l.DataDir, "raw") }

// FormatDir holds exports of one format.
func (l LakeConfig) FormatDir(f export.Format) string { return filepath.Join(l.DataDir, string(f)) }

// FetchConfig configures archive downloads.
type FetchConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	StartYear   int     `yaml:"start_year" mapstructure:"start_year"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	// MaxParts bounds the part loop per year in case the placeholder never appears.
	MaxParts int `yaml:"max_parts" mapstructure:"max_parts"`
}

// ExtractConfig configures document extraction.
type ExtractConfig struct {
	Workers       int    `yaml:"workers" mapstructure:"workers"`
	OnMalformed   string `yaml:"on_malformed" mapstructure:"on_malformed"`
	ProgressEvery int    `yaml:"progress_every" mapstructure:"progress_every"`
}

// ExportConfig configures output formats.
type ExportConfig struct {
	Formats []string `yaml:"formats" mapstructure:"formats"`
}

// StoreConfig configures the relational sink.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Store drivers.
const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("IRS990")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("lake.data_dir", "./990data")
	v.SetDefault("fetch.base_url", "https://apps.irs.gov/pub/epostcard/990/xml")
	v.SetDefault("fetch.start_year", 2015)
	v.SetDefault("fetch.user_agent", "irs990-lake/1.0")
	v.SetDefault("fetch.timeout_secs", 120)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 2)
	v.SetDefault("fetch.max_parts", 50)
	v.SetDefault("extract.workers", 1)
	v.SetDefault("extract.on_malformed", string(irs990.FailBatch))
	v.SetDefault("extract.progress_every", 1000)
	v.SetDefault("export.formats", []string{"csv", "json"})
	v.SetDefault("store.driver", DriverNone)
	v.SetDefault("store.sqlite_path", "./990data/irs990.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerated and bounded settings.
func (c *Config) Validate() error {
	if _, err := irs990.ParseMalformedPolicy(c.Extract.OnMalformed); err != nil {
		return eris.Wrap(err, "config: extract.on_malformed")
	}
	if c.Extract.Workers < 1 {
		return eris.Errorf("config: extract.workers must be >= 1, got %d", c.Extract.Workers)
	}
	if c.Fetch.MaxRetries < 1 {
		return eris.Errorf("config: fetch.max_retries must be >= 1, got %d", c.Fetch.MaxRetries)
	}
	if c.Fetch.RatePerSec <= 0 {
		return eris.Errorf("config: fetch.rate_per_sec must be > 0, got %g", c.Fetch.RatePerSec)
	}
	if c.Fetch.MaxParts < 1 {
		return eris.Errorf("config: fetch.max_parts must be >= 1, got %d", c.Fetch.MaxParts)
	}
	if c.Fetch.TimeoutSecs < 0 {
		return eris.Errorf("config: fetch.timeout_secs must be >= 0, got %d", c.Fetch.TimeoutSecs)
	}
	if _, err := export.ParseFormats(c.Export.Formats); err != nil {
		return eris.Wrap(err, "config: export.formats")
	}
	switch c.Store.Driver {
	case DriverNone, DriverPostgres, DriverSQLite:
	default:
		return eris.Errorf("config: unknown store.driver %q (valid: none, postgres, sqlite)", c.Store.Driver)
	}
	if c.Lake.DataDir == "" {
		return eris.New("config: lake.data_dir is required")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
