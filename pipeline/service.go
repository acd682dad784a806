// Package pipeline wires datasets, forecasters, stores and notifications
// into the operations exposed by the CLI and the HTTP API.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/semaphore"

	"github.com/sartorproj/weathercast/analysis"
	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/config"
	"github.com/sartorproj/weathercast/logging"
	"github.com/sartorproj/weathercast/notify"
	"github.com/sartorproj/weathercast/report"
	"github.com/sartorproj/weathercast/stats"
	"github.com/sartorproj/weathercast/store"
	"github.com/sartorproj/weathercast/telemetry"
	"github.com/sartorproj/weathercast/timeseries"
	"github.com/sartorproj/weathercast/weather"
)

var (
	// ErrUnknownCity is returned when no dataset exists for a city.
	ErrUnknownCity = errors.New("unknown city")
	// ErrUnknownFeature is returned for a feature outside the canonical five.
	ErrUnknownFeature = errors.New("unknown feature")
)

// Service runs forecasts for the cities found in the data directory.
type Service struct {
	cfg       *config.Config
	logger    *logging.Logger
	store     store.Store
	publisher notify.Publisher
	metrics   *telemetry.Metrics
	layout    report.Layout
	training  *semaphore.Weighted
}

// Option configures a Service.
type Option func(*Service)

// WithStore replaces the store built from the configuration.
func WithStore(s store.Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithPublisher replaces the publisher built from the configuration.
func WithPublisher(p notify.Publisher) Option {
	return func(svc *Service) { svc.publisher = p }
}

// WithMetrics shares a set of collectors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// New builds a service. The store and publisher come from cfg unless
// supplied as options.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	svc := &Service{
		cfg:      cfg,
		logger:   logging.Global(),
		layout:   report.Layout{Root: cfg.AssetsDir},
		training: semaphore.NewWeighted(cfg.Sequence.MaxConcurrent),
	}
	for _, opt := range opts {
		opt(svc)
	}

	if svc.metrics == nil {
		svc.metrics = telemetry.New()
	}
	if svc.store == nil {
		s, err := OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		svc.store = s
	}
	if svc.publisher == nil {
		p, err := notify.New(cfg.Notify)
		if err != nil {
			return nil, err
		}
		svc.publisher = p
	}
	return svc, nil
}

// OpenStore builds the configured forecast store. Directory and Redis
// stores get an LRU in front when cache_size is positive; a Redis store also
// writes the prediction files.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	dir := store.NewDir(cfg.AssetsDir)

	var base store.Store
	switch cfg.Store.Type {
	case "memory":
		return store.NewMemory(cfg.Store.CacheSize, nil)
	case "redis":
		r := cfg.Store.Redis
		rs, err := store.NewRedis(ctx, store.RedisConfig{
			URL:      r.URL,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
			TTL:      r.TTL,
		})
		if err != nil {
			return nil, err
		}
		base = store.Tee{rs, dir}
	default:
		base = dir
	}

	if cfg.Store.CacheSize > 0 {
		return store.NewMemory(cfg.Store.CacheSize, base)
	}
	return base, nil
}

// Metrics returns the collectors the service records into.
func (s *Service) Metrics() *telemetry.Metrics {
	return s.metrics
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Close releases the publisher and any closable store.
func (s *Service) Close() error {
	errs := []error{s.publisher.Close()}
	if c, ok := s.store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Cities lists the available datasets.
func (s *Service) Cities() ([]Dataset, error) {
	return Discover(s.cfg.DataDir)
}

func (s *Service) dataset(city string) (Dataset, error) {
	datasets, err := s.Cities()
	if err != nil {
		return Dataset{}, err
	}
	for _, d := range datasets {
		if d.City == city {
			return d, nil
		}
	}
	return Dataset{}, fmt.Errorf("%w: %q", ErrUnknownCity, city)
}

// Load returns the cleaned five-feature frame of a city.
func (s *Service) Load(city string) (*timeseries.Frame, error) {
	d, err := s.dataset(city)
	if err != nil {
		return nil, err
	}
	return LoadCity(d.Path)
}

// StationarityRow is the ADF outcome of one feature. Error is set when the
// test could not be computed.
type StationarityRow struct {
	Feature    string  `json:"feature"`
	Statistic  float64 `json:"adf_statistic"`
	PValue     float64 `json:"p_value"`
	Stationary bool    `json:"stationary"`
	Error      string  `json:"error,omitempty"`
}

// Stationarity tests every feature of a city.
func (s *Service) Stationarity(city string) ([]StationarityRow, error) {
	frame, err := s.Load(city)
	if err != nil {
		return nil, err
	}
	rows := make([]StationarityRow, 0, len(frame.Columns))
	for _, name := range frame.Columns {
		col, err := frame.Column(name)
		if err != nil {
			return nil, err
		}
		res, err := stats.CheckStationarity(col)
		if err != nil {
			rows = append(rows, StationarityRow{Feature: name, Error: err.Error()})
			continue
		}
		rows = append(rows, StationarityRow{
			Feature:    name,
			Statistic:  res.Statistic,
			PValue:     res.PValue,
			Stationary: res.IsStationary(),
		})
	}
	return rows, nil
}

// Compare joins the stored forecasts of the three models for one feature
// and writes the comparison table.
func (s *Service) Compare(ctx context.Context, city, feature string) (*timeseries.Frame, error) {
	if !weather.IsFeature(feature) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	tables, err := store.GetAll(ctx, s.store, city)
	if err != nil {
		return nil, err
	}
	table, err := compare.Assemble(feature, tables)
	if err != nil {
		return nil, err
	}
	path := s.layout.ComparisonPath(city)
	if err := timeseries.SaveFrame(table, path, 2); err != nil {
		return nil, fmt.Errorf("writing comparison: %w", err)
	}
	s.logger.Info("comparison written", "city", city, "feature", feature, "path", path, "rows", table.Len())
	return table, nil
}

// Analyze describes the dataset of a city.
func (s *Service) Analyze(city string) (*analysis.Report, error) {
	frame, err := s.Load(city)
	if err != nil {
		return nil, err
	}
	return analysis.Analyze(frame)
}
