package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/weathercast/weather"
)

// OverallAccuracy averages the per-column MAPE of two row-major matrices and
// returns 100 minus that mean. Columns whose actuals are all below Epsilon
// are skipped; ok is false when every column was skipped.
func OverallAccuracy(actual, predicted [][]float64) (accuracy float64, ok bool) {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN(), false
	}
	cols := len(actual[0])
	for i := range actual {
		if len(actual[i]) != cols || len(predicted[i]) != cols {
			return math.NaN(), false
		}
	}

	var sum float64
	var used int
	for j := 0; j < cols; j++ {
		skip := true
		for i := range actual {
			if actual[i][j] >= Epsilon {
				skip = false
				break
			}
		}
		if skip {
			continue
		}

		ape := 0.0
		for i := range actual {
			denom := actual[i][j]
			if denom == 0 {
				denom = Epsilon
			}
			ape += math.Abs((actual[i][j] - predicted[i][j]) / denom)
		}
		sum += ape / float64(len(actual)) * 100
		used++
	}

	if used == 0 {
		return math.NaN(), false
	}
	return 100 - sum/float64(used), true
}

// PercentageAccuracy is 100 minus the mean absolute relative error over every
// cell, in percent. Zero actuals are replaced by Epsilon.
func PercentageAccuracy(actual, predicted [][]float64) float64 {
	var sum float64
	var n int
	for i := range actual {
		for j, a := range actual[i] {
			denom := a
			if denom == 0 {
				denom = Epsilon
			}
			sum += math.Abs(a-predicted[i][j]) / denom
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return 100 - sum/float64(n)*100
}

// Overall summarises the per-feature bundles of one run.
type Overall struct {
	MSE      float64 `json:"mse"`
	Accuracy float64 `json:"accuracy"`
}

// Rollup averages MSE over every valid bundle and Accuracy over every valid
// bundle except precipitation. Either is NaN when nothing qualifies.
func Rollup(bundles map[string]Bundle) Overall {
	names := make([]string, 0, len(bundles))
	for name := range bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	var mse, acc []float64
	for _, name := range names {
		b := bundles[name]
		if !b.Valid {
			continue
		}
		if !math.IsNaN(b.MSE) {
			mse = append(mse, b.MSE)
		}
		if !weather.IsPrecipitation(name) && !math.IsNaN(b.Accuracy) {
			acc = append(acc, b.Accuracy)
		}
	}
	return Overall{MSE: mean(mse), Accuracy: mean(acc)}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}
