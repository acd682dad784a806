// Package metrics scores forecasts against observed values.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/weathercast/logging"
	"github.com/sartorproj/weathercast/weather"
)

// Epsilon replaces exact-zero denominators in the percentage errors.
const Epsilon = 1e-10

// Bundle holds the six scores. When Valid is false every score is NaN.
type Bundle struct {
	MSE      float64 `json:"mse"`
	MAE      float64 `json:"mae"`
	R2       float64 `json:"r2"`
	MAPE     float64 `json:"mape"`
	SMAPE    float64 `json:"smape"`
	Accuracy float64 `json:"accuracy"`
	Valid    bool    `json:"valid"`
}

// NullBundle is the result of a failed computation.
func NullBundle() Bundle {
	nan := math.NaN()
	return Bundle{MSE: nan, MAE: nan, R2: nan, MAPE: nan, SMAPE: nan, Accuracy: nan}
}

// MetricsError reports inputs that cannot be scored.
type MetricsError struct {
	ActualLen   int
	ForecastLen int
	Reason      string
}

func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics: %s (actual=%d, forecast=%d)", e.Reason, e.ActualLen, e.ForecastLen)
}

// Flatten concatenates the rows of a matrix.
func Flatten(m [][]float64) []float64 {
	n := 0
	for _, row := range m {
		n += len(row)
	}
	out := make([]float64, 0, n)
	for _, row := range m {
		out = append(out, row...)
	}
	return out
}

// Compute scores forecast against actual. The inputs must be non-empty, of
// equal length and free of NaN.
func Compute(actual, forecast []float64) (Bundle, error) {
	if len(actual) != len(forecast) {
		return NullBundle(), &MetricsError{len(actual), len(forecast), "length mismatch"}
	}
	if len(actual) == 0 {
		return NullBundle(), &MetricsError{0, 0, "empty input"}
	}
	if floats.HasNaN(actual) || floats.HasNaN(forecast) {
		return NullBundle(), &MetricsError{len(actual), len(forecast), "input contains NaN"}
	}

	n := float64(len(actual))
	var sq, abs, ape, sape float64
	for i, a := range actual {
		diff := a - forecast[i]
		sq += diff * diff
		abs += math.Abs(diff)

		denom := a
		if denom == 0 {
			denom = Epsilon
		}
		ape += math.Abs(diff / denom)
		sape += 2 * math.Abs(diff) / (math.Abs(a) + math.Abs(forecast[i]) + Epsilon)
	}

	mape := ape / n * 100
	return Bundle{
		MSE:      sq / n,
		MAE:      abs / n,
		R2:       RSquared(actual, forecast),
		MAPE:     mape,
		SMAPE:    sape / n * 100,
		Accuracy: 100 - mape,
		Valid:    true,
	}, nil
}

// RSquared is the coefficient of determination. A constant actual series
// scores 1 when matched exactly and 0 otherwise.
func RSquared(actual, forecast []float64) float64 {
	mean := stat.Mean(actual, nil)
	total := 0.0
	for _, a := range actual {
		total += (a - mean) * (a - mean)
	}
	if total == 0 {
		if floats.Equal(actual, forecast) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(forecast, actual, nil)
}

// Calculate is Compute for general features. Failures are logged and yield
// a null bundle.
func Calculate(actual, forecast []float64) Bundle {
	b, err := Compute(actual, forecast)
	if err != nil {
		logging.Global().Warn("metrics computation failed", "error", err)
		return NullBundle()
	}
	return b
}

// CalculatePrecipitation uses the same formulas as Calculate. Precipitation
// is mostly zeros, so its MAPE and accuracy are unstable and kept out of
// overall accuracy.
func CalculatePrecipitation(actual, forecast []float64) Bundle {
	b, err := Compute(actual, forecast)
	if err != nil {
		logging.Global().Warn("precipitation metrics computation failed", "error", err)
		return NullBundle()
	}
	return b
}

// ForFeature picks the variant matching feature.
func ForFeature(feature string, actual, forecast []float64) Bundle {
	if weather.IsPrecipitation(feature) {
		return CalculatePrecipitation(actual, forecast)
	}
	return Calculate(actual, forecast)
}
