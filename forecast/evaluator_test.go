package forecast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/weathercast/logging"
	"github.com/sartorproj/weathercast/timeseries"
)

// naive forecasts the last value and scores against the tail.
func naive(fail map[string]error) funcStrategy {
	return funcStrategy{
		label: "naive",
		fn: func(ctx context.Context, s *timeseries.Series, h int) (*Fitted, error) {
			if err := fail[s.Name]; err != nil {
				return nil, err
			}
			last := s.Values[s.Len()-1]
			fc := make([]float64, h)
			for i := range fc {
				fc[i] = last
			}
			return &Fitted{Forecast: fc, Actual: s.Tail(h).Values, Summary: Summary{Order: "naive"}}, nil
		},
	}
}

type mockObserver struct {
	mock.Mock
	mu sync.Mutex
}

func (m *mockObserver) ObserveFeature(model, feature string, elapsed time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Called(model, feature, err != nil)
}

func TestEvaluatorPreservesInputOrder(t *testing.T) {
	names := make([]string, 8)
	cols := make(map[string][]float64)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i)
		cols[names[i]] = linearNoise(60, int64(i))
	}
	frame := frameOf(t, 60, cols, names...)

	slow := funcStrategy{
		label: "slow",
		fn: func(ctx context.Context, s *timeseries.Series, h int) (*Fitted, error) {
			// earlier features finish last
			var idx int
			fmt.Sscanf(s.Name, "f%d", &idx)
			time.Sleep(time.Duration(8-idx) * 2 * time.Millisecond)
			return naive(nil).Fit(ctx, s, h)
		},
	}

	res, err := NewEvaluator(slow, WithParallelism(4), WithLogger(logging.NewNop())).
		Run(context.Background(), frame, nil, 5)
	require.NoError(t, err)
	require.Len(t, res.Summaries, len(names))
	for i, s := range res.Summaries {
		assert.Equal(t, names[i], s.Feature)
		assert.False(t, s.Failed())
	}
	assert.Equal(t, "slow", res.Model)
}

func TestEvaluatorRecordsFeatureFailure(t *testing.T) {
	frame := frameOf(t, 40, map[string][]float64{
		"a": linearNoise(40, 1),
		"b": linearNoise(40, 2),
		"c": linearNoise(40, 3),
	}, "a", "b", "c")

	boom := errors.New("boom")
	res, err := NewEvaluator(naive(map[string]error{"b": boom}), WithLogger(logging.NewNop())).
		Run(context.Background(), frame, []string{"a", "b", "c"}, 3)
	require.NoError(t, err)

	require.Len(t, res.Summaries, 3)
	assert.Equal(t, []string{"b"}, res.Failed())
	assert.Nil(t, res.Forecasts["b"])
	assert.NotNil(t, res.Forecasts["a"])
	assert.NotNil(t, res.Forecasts["c"])
	assert.NotContains(t, res.OverallMetrics, "b")
	assert.Len(t, res.OverallMetrics, 2)

	failed := res.Summaries[1]
	var mfe *ModelFitError
	require.ErrorAs(t, failed.Err, &mfe)
	assert.Equal(t, "b", mfe.Feature)
	assert.Equal(t, StageFit, mfe.Stage)
	assert.ErrorIs(t, failed.Err, boom)
	assert.False(t, failed.Metrics.Valid)
}

func TestEvaluatorUnknownColumn(t *testing.T) {
	frame := frameOf(t, 30, map[string][]float64{"a": linearNoise(30, 1)}, "a")

	res, err := NewEvaluator(naive(nil), WithLogger(logging.NewNop())).
		Run(context.Background(), frame, []string{"a", "missing"}, 2)
	require.NoError(t, err)

	var mfe *ModelFitError
	require.ErrorAs(t, res.Summaries[1].Err, &mfe)
	assert.Equal(t, StageLoad, mfe.Stage)
}

func TestEvaluatorRejectsWrongForecastLength(t *testing.T) {
	frame := frameOf(t, 30, map[string][]float64{"a": linearNoise(30, 1)}, "a")
	short := funcStrategy{
		label: "short",
		fn: func(ctx context.Context, s *timeseries.Series, h int) (*Fitted, error) {
			return &Fitted{Forecast: []float64{1}, Actual: []float64{1}}, nil
		},
	}

	res, err := NewEvaluator(short, WithLogger(logging.NewNop())).Run(context.Background(), frame, nil, 4)
	require.NoError(t, err)

	var mfe *ModelFitError
	require.ErrorAs(t, res.Summaries[0].Err, &mfe)
	assert.Equal(t, StageForecast, mfe.Stage)
}

func TestEvaluatorInvalidHorizon(t *testing.T) {
	frame := frameOf(t, 30, map[string][]float64{"a": linearNoise(30, 1)}, "a")
	_, err := NewEvaluator(naive(nil)).Run(context.Background(), frame, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestEvaluatorCancelled(t *testing.T) {
	frame := frameOf(t, 30, map[string][]float64{"a": linearNoise(30, 1)}, "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEvaluator(naive(nil), WithLogger(logging.NewNop())).Run(ctx, frame, nil, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluatorNotifiesObserver(t *testing.T) {
	frame := frameOf(t, 30, map[string][]float64{
		"a": linearNoise(30, 1),
		"b": linearNoise(30, 2),
	}, "a", "b")

	obs := &mockObserver{}
	obs.On("ObserveFeature", "naive", "a", false).Once()
	obs.On("ObserveFeature", "naive", "b", true).Once()

	_, err := NewEvaluator(naive(map[string]error{"b": errors.New("x")}),
		WithObserver(obs), WithParallelism(2), WithLogger(logging.NewNop())).
		Run(context.Background(), frame, nil, 2)
	require.NoError(t, err)
	obs.AssertExpectations(t)
}

func TestResultFrame(t *testing.T) {
	frame := frameOf(t, 30, map[string][]float64{
		"a": linearNoise(30, 1),
		"b": linearNoise(30, 2),
		"c": linearNoise(30, 3),
	}, "a", "b", "c")

	res, err := NewEvaluator(naive(map[string]error{"b": errors.New("x")}), WithLogger(logging.NewNop())).
		Run(context.Background(), frame, nil, 4)
	require.NoError(t, err)

	out, err := res.Frame()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, out.Columns)
	assert.Equal(t, 4, out.Len())
	assert.Equal(t, start.AddDate(0, 0, 30), out.Dates[0])
}

func TestResultFrameAllFailed(t *testing.T) {
	res := &Result{Model: "ARIMA", Summaries: []Summary{ErrorSummary("a", errors.New("x"))}}
	_, err := res.Frame()
	assert.Error(t, err)
}

func TestInsufficientDataUnwrapsToValidation(t *testing.T) {
	err := fmt.Errorf("train: %w", &InsufficientDataError{Rows: 31, Window: 30, Train: 1, Test: 0})

	var dve *DataValidationError
	assert.ErrorAs(t, err, &dve)
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 31, ide.Rows)
}
