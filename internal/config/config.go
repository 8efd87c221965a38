package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source     SourceConfig     `yaml:"source" mapstructure:"source"`
	Boundaries BoundaryConfig   `yaml:"boundaries" mapstructure:"boundaries"`
	Dashboard  DashboardConfig  `yaml:"dashboard" mapstructure:"dashboard"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SourceConfig selects the tabular county extract.
type SourceConfig struct {
	Kind         string `yaml:"kind" mapstructure:"kind"`
	Path         string `yaml:"path" mapstructure:"path"`
	DatabaseURL  string `yaml:"database_url" mapstructure:"database_url"`
	Query        string `yaml:"query" mapstructure:"query"`
	SnapshotDate int    `yaml:"snapshot_date" mapstructure:"snapshot_date"`
	Sheet        string `yaml:"sheet" mapstructure:"sheet"`
	Delimiter    string `yaml:"delimiter" mapstructure:"delimiter"`
	OnParseError string `yaml:"on_parse_error" mapstructure:"on_parse_error"`
}

// BoundaryConfig selects the county GeoJSON.
type BoundaryConfig struct {
	URL       string `yaml:"url" mapstructure:"url"`
	Path      string `yaml:"path" mapstructure:"path"`
	Shapefile string `yaml:"shapefile" mapstructure:"shapefile"`
	CacheDir  string `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// DashboardConfig picks the preset and overrides parts of it.
type DashboardConfig struct {
	Preset      string    `yaml:"preset" mapstructure:"preset"`
	PresetFile  string    `yaml:"preset_file" mapstructure:"preset_file"`
	Title       string    `yaml:"title" mapstructure:"title"`
	MapboxToken string    `yaml:"mapbox_token" mapstructure:"mapbox_token"`
	TopN        int       `yaml:"top_n" mapstructure:"top_n"`
	Center      []float64 `yaml:"center" mapstructure:"center"`
	Zoom        float64   `yaml:"zoom" mapstructure:"zoom"`
}

// FetchConfig configures remote downloads.
type FetchConfig struct {
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PerHostRate   float64 `yaml:"per_host_rate" mapstructure:"per_host_rate"`
	RetryAttempts int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins      []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file, and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COVIDMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.kind", "")
	v.SetDefault("source.path", "")
	v.SetDefault("source.database_url", "")
	v.SetDefault("source.query", "")
	v.SetDefault("source.snapshot_date", 11)
	v.SetDefault("source.sheet", "")
	v.SetDefault("source.delimiter", ",")
	v.SetDefault("source.on_parse_error", "skip")
	v.SetDefault("boundaries.url", "https://raw.githubusercontent.com/plotly/datasets/master/geojson-counties-fips.json")
	v.SetDefault("boundaries.path", "")
	v.SetDefault("boundaries.shapefile", "")
	v.SetDefault("boundaries.cache_dir", "")
	v.SetDefault("dashboard.preset", "0.9")
	v.SetDefault("dashboard.preset_file", "")
	v.SetDefault("dashboard.title", "")
	v.SetDefault("dashboard.mapbox_token", "")
	v.SetDefault("dashboard.top_n", 10)
	v.SetDefault("dashboard.zoom", 0)
	v.SetDefault("fetch.user_agent", "covidmap/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.per_host_rate", 2.0)
	v.SetDefault("fetch.retry_attempts", 3)
	v.SetDefault("server.port", 8050)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
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

	return &cfg, nil
}

// Validate checks the fields a command mode depends on.
func (c *Config) Validate(mode string) error {
	var missing []string

	switch mode {
	case "serve", "render", "check":
	case "boundaries":
		return nil
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Source.Kind {
	case "", "csv", "xlsx", "sqlite":
		if c.Source.Path == "" {
			missing = append(missing, "source.path")
		}
	case "postgres":
		if c.Source.DatabaseURL == "" {
			missing = append(missing, "source.database_url")
		}
	default:
		return eris.Errorf("config: unknown source.kind %q", c.Source.Kind)
	}

	if c.Source.Delimiter != "" && len([]rune(c.Source.Delimiter)) != 1 {
		return eris.Errorf("config: source.delimiter must be a single character, got %q", c.Source.Delimiter)
	}
	switch c.Source.OnParseError {
	case "", "skip", "abort":
	default:
		return eris.Errorf("config: source.on_parse_error must be skip or abort, got %q", c.Source.OnParseError)
	}
	if c.Dashboard.TopN < 0 {
		return eris.New("config: dashboard.top_n must be >= 0")
	}
	if n := len(c.Dashboard.Center); n != 0 && n != 2 {
		return eris.New("config: dashboard.center must be [lat, lon]")
	}
	if mode == "serve" && c.Server.Port <= 0 {
		return eris.New("config: server.port must be > 0")
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required fields for %s: %s", mode, strings.Join(missing, ", "))
	}
	return nil
}

// DelimiterRune returns the configured CSV delimiter, or 0 for the default.
func (c SourceConfig) DelimiterRune() rune {
	r := []rune(c.Delimiter)
	if len(r) != 1 {
		return 0
	}
	return r[0]
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
