package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/weathercast/sequence"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default config should be valid", mutate: func(*Config) {}},
		{name: "missing data dir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: true},
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "rate limit without burst", mutate: func(c *Config) { c.Server.Burst = 0 }, wantErr: true},
		{name: "rate limiting disabled", mutate: func(c *Config) { c.Server.RateLimit = 0; c.Server.Burst = 0 }},
		{name: "zero parallelism", mutate: func(c *Config) { c.Forecast.Parallelism = 0 }, wantErr: true},
		{name: "negative arima order", mutate: func(c *Config) { c.Forecast.ARIMA.Q = -1 }, wantErr: true},
		{name: "seasonal period one", mutate: func(c *Config) { c.Forecast.SARIMA.M = 1 }, wantErr: true},
		{name: "bad activation", mutate: func(c *Config) { c.Sequence.Activation = "sigmoid" }, wantErr: true},
		{name: "no training slots", mutate: func(c *Config) { c.Sequence.MaxConcurrent = 0 }, wantErr: true},
		{name: "unknown store", mutate: func(c *Config) { c.Store.Type = "s3" }, wantErr: true},
		{name: "memory store without cache", mutate: func(c *Config) { c.Store.Type = "memory"; c.Store.CacheSize = 0 }, wantErr: true},
		{name: "redis store without url", mutate: func(c *Config) { c.Store.Type = "redis"; c.Store.Redis.URL = "" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, sequence.DefaultConfig(), cfg.Sequence.Config)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weathercast.yaml")
	content := `
data_dir: /srv/datasets
server:
  port: 9090
forecast:
  arima:
    auto_order: true
  sarima:
    period: 7
sequence:
  epochs: 5
  activation: relu
  max_concurrent: 2
store:
  type: redis
  redis:
    url: redis://cache:6379/1
    ttl: 1h
notify:
  url: nats://bus:4222
report:
  xlsx: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/datasets", cfg.DataDir)
	assert.Equal(t, "./Assets", cfg.AssetsDir)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Forecast.ARIMA.AutoOrder)
	assert.Equal(t, 7, cfg.Forecast.SARIMA.M)
	assert.Equal(t, 1, cfg.Forecast.SARIMA.SP)
	assert.Equal(t, 5, cfg.Sequence.Epochs)
	assert.Equal(t, sequence.ReLU, cfg.Sequence.Activation)
	assert.Equal(t, 30, cfg.Sequence.NSteps)
	assert.Equal(t, int64(2), cfg.Sequence.MaxConcurrent)
	assert.Equal(t, "redis", cfg.Store.Type)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, "nats://bus:4222", cfg.Notify.URL)
	assert.True(t, cfg.Report.XLSX)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WEATHERCAST_SERVER_PORT", "7070")
	t.Setenv("WEATHERCAST_FORECAST_PARALLELISM", "4")
	t.Setenv("WEATHERCAST_LOGGING_FORMAT", "console")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Forecast.Parallelism)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weathercast.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 70000\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid port")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestServerAddr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:8080", DefaultConfig().Server.Addr())
}
