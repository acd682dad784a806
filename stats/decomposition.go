package stats

import (
	"fmt"
	"math"

	"github.com/sartorproj/weathercast/timeseries"
)

// DecompositionResult holds an additive decomposition Y = T + S + R.
// Trend and Residual are NaN where the centered moving average is undefined.
type DecompositionResult struct {
	Observed *timeseries.Series
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	Period   int
}

// Decompose performs a classical additive seasonal decomposition. The trend
// is a centered moving average of length period (2xperiod for even periods)
// and the seasonal component is the mean detrended value at each position
// of the cycle, centered to sum to zero.
func Decompose(series *timeseries.Series, period int) (*DecompositionResult, error) {
	n := series.Len()
	if period < 2 {
		return nil, fmt.Errorf("decomposition period %d must be at least 2", period)
	}
	if n < 2*period {
		return nil, fmt.Errorf("decomposition needs %d observations, got %d: %w", 2*period, n, ErrTooShort)
	}

	trend := centeredMovingAverage(series.Values, period)

	pattern := make([]float64, period)
	counts := make([]int, period)
	for i, v := range series.Values {
		if math.IsNaN(trend[i]) {
			continue
		}
		pattern[i%period] += v - trend[i]
		counts[i%period]++
	}
	mean := 0.0
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
		mean += pattern[i]
	}
	mean /= float64(period)

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i, v := range series.Values {
		seasonal[i] = pattern[i%period] - mean
		residual[i] = v - trend[i] - seasonal[i]
	}

	component := func(name string, values []float64) *timeseries.Series {
		return &timeseries.Series{Timestamps: series.Timestamps, Values: values, Name: name}
	}
	return &DecompositionResult{
		Observed: series,
		Trend:    component("trend", trend),
		Seasonal: component("seasonal", seasonal),
		Residual: component("residual", residual),
		Period:   period,
	}, nil
}

func centeredMovingAverage(values []float64, period int) []float64 {
	n := len(values)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			sum += 0.5 * (values[i-half] + values[i+half])
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
		}
		out[i] = sum / float64(period)
	}
	return out
}
