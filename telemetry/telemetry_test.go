package telemetry

import (
	"errors"
	"io"
	"math"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// find returns the metric of family name whose labels include want.
func find(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				return m
			}
		}
	}
	return nil
}

func TestObserveFeature(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.ObserveFeature("ARIMA", "Mean Temperature", 20*time.Millisecond, nil)
	m.ObserveFeature("ARIMA", "Mean Temperature", 10*time.Millisecond, nil)
	m.ObserveFeature("ARIMA", "Max Wind Speed", time.Millisecond, errors.New("constant"))

	ok := find(t, reg, "weathercast_feature_fits_total", map[string]string{"feature": "Mean Temperature", "outcome": "success"})
	require.NotNil(t, ok)
	assert.Equal(t, 2.0, ok.GetCounter().GetValue())

	failed := find(t, reg, "weathercast_feature_fits_total", map[string]string{"feature": "Max Wind Speed", "outcome": "failure"})
	require.NotNil(t, failed)
	assert.Equal(t, 1.0, failed.GetCounter().GetValue())

	hist := find(t, reg, "weathercast_feature_fit_duration_seconds", map[string]string{"model": "ARIMA"})
	require.NotNil(t, hist)
	assert.Equal(t, uint64(3), hist.GetHistogram().GetSampleCount())
}

func TestObserveRunAndAccuracy(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.ObserveRun("SARIMA", time.Second, nil)
	m.ObserveRun("SARIMA", time.Second, errors.New("boom"))
	m.SetAccuracy("Berlin", "SARIMA", 91.5)
	m.SetAccuracy("Berlin", "LSTM", math.NaN())

	failed := find(t, reg, "weathercast_runs_total", map[string]string{"model": "SARIMA", "outcome": "failure"})
	require.NotNil(t, failed)
	assert.Equal(t, 1.0, failed.GetCounter().GetValue())

	acc := find(t, reg, "weathercast_forecast_accuracy_percent", map[string]string{"city": "Berlin", "model": "SARIMA"})
	require.NotNil(t, acc)
	assert.Equal(t, 91.5, acc.GetGauge().GetValue())
	assert.Nil(t, find(t, reg, "weathercast_forecast_accuracy_percent", map[string]string{"model": "LSTM"}))
}

func TestStartTraining(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	done := m.StartTraining()
	active := find(t, reg, "weathercast_lstm_trainings_in_progress", nil)
	require.NotNil(t, active)
	assert.Equal(t, 1.0, active.GetGauge().GetValue())

	done()
	active = find(t, reg, "weathercast_lstm_trainings_in_progress", nil)
	assert.Equal(t, 0.0, active.GetGauge().GetValue())
	training := find(t, reg, "weathercast_lstm_training_duration_seconds", nil)
	require.NotNil(t, training)
	assert.Equal(t, uint64(1), training.GetHistogram().GetSampleCount())
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRun("LSTM", time.Second, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `weathercast_runs_total{model="LSTM",outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
