package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sartorproj/weathercast/notify"
	"github.com/sartorproj/weathercast/sequence"
)

// EnvPrefix prefixes environment overrides, e.g. WEATHERCAST_SERVER_PORT.
const EnvPrefix = "WEATHERCAST"

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("weathercast")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/weathercast")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return parseConfig(v)
}

// setDefaults mirrors DefaultConfig so every key can be overridden from the
// environment.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("assets_dir", d.AssetsDir)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	v.SetDefault("forecast.max_horizon", d.Forecast.MaxHorizon)
	v.SetDefault("forecast.warn_horizon", d.Forecast.WarnHorizon)
	v.SetDefault("forecast.parallelism", d.Forecast.Parallelism)
	v.SetDefault("forecast.arima.p", d.Forecast.ARIMA.P)
	v.SetDefault("forecast.arima.d", d.Forecast.ARIMA.D)
	v.SetDefault("forecast.arima.q", d.Forecast.ARIMA.Q)
	v.SetDefault("forecast.arima.auto_order", d.Forecast.ARIMA.AutoOrder)
	v.SetDefault("forecast.sarima.p", d.Forecast.SARIMA.P)
	v.SetDefault("forecast.sarima.d", d.Forecast.SARIMA.D)
	v.SetDefault("forecast.sarima.q", d.Forecast.SARIMA.Q)
	v.SetDefault("forecast.sarima.seasonal_p", d.Forecast.SARIMA.SP)
	v.SetDefault("forecast.sarima.seasonal_d", d.Forecast.SARIMA.SD)
	v.SetDefault("forecast.sarima.seasonal_q", d.Forecast.SARIMA.SQ)
	v.SetDefault("forecast.sarima.period", d.Forecast.SARIMA.M)

	s := d.Sequence
	v.SetDefault("sequence.n_steps", s.NSteps)
	v.SetDefault("sequence.test_fraction", s.TestFraction)
	v.SetDefault("sequence.units", s.Units)
	v.SetDefault("sequence.activation", string(s.Activation))
	v.SetDefault("sequence.dropout", s.Dropout)
	v.SetDefault("sequence.epochs", s.Epochs)
	v.SetDefault("sequence.batch_size", s.BatchSize)
	v.SetDefault("sequence.patience", s.Patience)
	v.SetDefault("sequence.learning_rate", s.LearningRate)
	v.SetDefault("sequence.seed", s.Seed)
	v.SetDefault("sequence.max_concurrent", s.MaxConcurrent)

	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.cache_size", d.Store.CacheSize)
	v.SetDefault("store.redis.url", d.Store.Redis.URL)
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("store.redis.ttl", d.Store.Redis.TTL)

	v.SetDefault("notify.url", d.Notify.URL)
	v.SetDefault("notify.subject_prefix", d.Notify.SubjectPrefix)
	v.SetDefault("notify.timeout", d.Notify.Timeout)

	v.SetDefault("report.xlsx", d.Report.XLSX)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:   "./Datasets",
		AssetsDir: "./Assets",
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			RateLimit:      5,
			Burst:          10,
			RequestTimeout: 5 * time.Minute,
		},
		Forecast: ForecastConfig{
			MaxHorizon:  30,
			WarnHorizon: 14,
			Parallelism: 1,
			ARIMA:       ARIMAConfig{P: 1, D: 1, Q: 1},
			SARIMA:      SARIMAConfig{P: 1, D: 1, Q: 1, SP: 1, SD: 1, SQ: 1, M: 12},
		},
		Sequence: SequenceConfig{
			Config:        sequence.DefaultConfig(),
			MaxConcurrent: 1,
		},
		Store: StoreConfig{
			Type:      "dir",
			CacheSize: 64,
			Redis: RedisConfig{
				URL:    "redis://localhost:6379/0",
				Prefix: "weathercast",
				TTL:    24 * time.Hour,
			},
		},
		Notify: notify.Config{
			SubjectPrefix: "weathercast.runs",
			Timeout:       5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
