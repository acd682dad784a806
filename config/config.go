// Package config loads weathercast settings from a YAML file, defaults and
// WEATHERCAST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/sartorproj/weathercast/notify"
	"github.com/sartorproj/weathercast/sarima"
	"github.com/sartorproj/weathercast/sequence"
)

// Config represents the complete application configuration
type Config struct {
	DataDir   string         `mapstructure:"data_dir"`   // directory of <City>_<YYYY-MM-DD>.csv datasets
	AssetsDir string         `mapstructure:"assets_dir"` // root of the prediction, summary and comparison tables
	Server    ServerConfig   `mapstructure:"server"`
	Forecast  ForecastConfig `mapstructure:"forecast"`
	Sequence  SequenceConfig `mapstructure:"sequence"`
	Store     StoreConfig    `mapstructure:"store"`
	Notify    notify.Config  `mapstructure:"notify"`
	Report    ReportConfig   `mapstructure:"report"`
	Logging   LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests per second, 0 disables limiting
	Burst          int           `mapstructure:"burst"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Addr is host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ForecastConfig configures the classical forecasters.
type ForecastConfig struct {
	MaxHorizon  int          `mapstructure:"max_horizon"`
	WarnHorizon int          `mapstructure:"warn_horizon"` // LSTM horizons past this are logged as unreliable
	Parallelism int          `mapstructure:"parallelism"`
	ARIMA       ARIMAConfig  `mapstructure:"arima"`
	SARIMA      SARIMAConfig `mapstructure:"sarima"`
}

// ARIMAConfig is the fixed (p,d,q) order, or an automatic search.
type ARIMAConfig struct {
	P         int  `mapstructure:"p"`
	D         int  `mapstructure:"d"`
	Q         int  `mapstructure:"q"`
	AutoOrder bool `mapstructure:"auto_order"`
}

// SARIMAConfig is the (p,d,q)(P,D,Q,m) order.
type SARIMAConfig struct {
	P  int `mapstructure:"p"`
	D  int `mapstructure:"d"`
	Q  int `mapstructure:"q"`
	SP int `mapstructure:"seasonal_p"`
	SD int `mapstructure:"seasonal_d"`
	SQ int `mapstructure:"seasonal_q"`
	M  int `mapstructure:"period"`
}

// Order converts to a model order.
func (c SARIMAConfig) Order() sarima.Order {
	return sarima.Order{P: c.P, D: c.D, Q: c.Q, SP: c.SP, SD: c.SD, SQ: c.SQ, M: c.M}
}

// SequenceConfig holds the LSTM hyperparameters and the training limit.
type SequenceConfig struct {
	sequence.Config `mapstructure:",squash"`
	MaxConcurrent   int64 `mapstructure:"max_concurrent"`
}

// StoreConfig selects the forecast store: dir, memory or redis.
type StoreConfig struct {
	Type      string      `mapstructure:"type"`
	CacheSize int         `mapstructure:"cache_size"` // LRU size in front of the store, 0 disables it
	Redis     RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	URL      string        `mapstructure:"url"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ReportConfig controls the summary exports.
type ReportConfig struct {
	XLSX bool `mapstructure:"xlsx"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.AssetsDir == "" {
		return errors.New("assets_dir is required")
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}
	if err := c.Sequence.Validate(); err != nil {
		return fmt.Errorf("sequence config: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RateLimit < 0 {
		return errors.New("rate_limit must not be negative")
	}
	if c.RateLimit > 0 && c.Burst < 1 {
		return errors.New("burst must be positive when rate limiting")
	}
	return nil
}

// Validate validates forecast configuration
func (c *ForecastConfig) Validate() error {
	if c.MaxHorizon < 1 {
		return fmt.Errorf("invalid max_horizon: %d", c.MaxHorizon)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("invalid parallelism: %d", c.Parallelism)
	}
	a := c.ARIMA
	if a.P < 0 || a.D < 0 || a.Q < 0 {
		return fmt.Errorf("invalid arima order (%d,%d,%d)", a.P, a.D, a.Q)
	}
	s := c.SARIMA
	if s.P < 0 || s.D < 0 || s.Q < 0 || s.SP < 0 || s.SD < 0 || s.SQ < 0 {
		return fmt.Errorf("invalid sarima order %s", s.Order())
	}
	if s.M < 2 {
		return fmt.Errorf("sarima period must be at least 2, got %d", s.M)
	}
	return nil
}

// Validate validates sequence configuration
func (c *SequenceConfig) Validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("invalid max_concurrent: %d", c.MaxConcurrent)
	}
	return c.Config.Validate()
}

// Validate validates store configuration
func (c *StoreConfig) Validate() error {
	switch c.Type {
	case "dir", "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Type)
	}
	if c.CacheSize < 0 {
		return errors.New("cache_size must not be negative")
	}
	if c.Type == "memory" && c.CacheSize < 1 {
		return errors.New("memory store needs a positive cache_size")
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level: %s", c.Level)
	}
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid format: %s", c.Format)
	}
	return nil
}
