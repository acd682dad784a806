// Package telemetry exposes Prometheus collectors for forecast runs.
package telemetry

import (
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weathercast"

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	featureFits     *prometheus.CounterVec
	featureDuration *prometheus.HistogramVec
	runs            *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	training        prometheus.Histogram
	trainingActive  prometheus.Gauge
	accuracy        *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry, together with the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		featureFits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feature_fits_total",
				Help:      "Per-feature model fits by outcome",
			},
			[]string{"model", "feature", "outcome"},
		),
		featureDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "feature_fit_duration_seconds",
				Help:      "Time to fit, forecast and score one feature",
				Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
			},
			[]string{"model"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Forecast runs by outcome",
			},
			[]string{"model", "outcome"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "End-to-end forecast run time",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 9),
			},
			[]string{"model"},
		),
		training: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lstm_training_duration_seconds",
				Help:      "LSTM training time",
				Buckets:   prometheus.ExponentialBuckets(0.1, 3, 8),
			},
		),
		trainingActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "lstm_trainings_in_progress",
				Help:      "LSTM trainings currently running",
			},
		),
		accuracy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "forecast_accuracy_percent",
				Help:      "Overall accuracy of the latest run per city and model",
			},
			[]string{"city", "model"},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ObserveFeature records one per-feature evaluation.
func (m *Metrics) ObserveFeature(model, feature string, elapsed time.Duration, err error) {
	m.featureFits.WithLabelValues(model, feature, outcome(err)).Inc()
	m.featureDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(model string, elapsed time.Duration, err error) {
	m.runs.WithLabelValues(model, outcome(err)).Inc()
	m.runDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// StartTraining marks a training as running. The returned func records its
// duration and must be called once.
func (m *Metrics) StartTraining() func() {
	m.trainingActive.Inc()
	start := time.Now()
	return func() {
		m.trainingActive.Dec()
		m.training.Observe(time.Since(start).Seconds())
	}
}

// SetAccuracy publishes the overall accuracy of a run. NaN is skipped.
func (m *Metrics) SetAccuracy(city, model string, accuracy float64) {
	if math.IsNaN(accuracy) {
		return
	}
	m.accuracy.WithLabelValues(city, model).Set(accuracy)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
