package forecast

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sartorproj/weathercast/timeseries"
)

// funcStrategy adapts a plain function to Strategy.
type funcStrategy struct {
	label string
	fn    func(ctx context.Context, series *timeseries.Series, horizon int) (*Fitted, error)
}

func (f funcStrategy) Name() string { return f.label }

func (f funcStrategy) Fit(ctx context.Context, series *timeseries.Series, horizon int) (*Fitted, error) {
	return f.fn(ctx, series, horizon)
}

var start = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// linearNoise is a warming trend with gaussian noise.
func linearNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = 5 + 0.08*float64(i) + rng.NormFloat64()
	}
	return out
}

func seasonalNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = 12 + 3*math.Sin(2*math.Pi*float64(i)/12) + 0.5*rng.NormFloat64()
	}
	return out
}

func randomWalk(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	out[0] = 10
	for i := 1; i < n; i++ {
		out[i] = out[i-1] + rng.NormFloat64()
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func frameOf(t *testing.T, n int, columns map[string][]float64, order ...string) *timeseries.Frame {
	t.Helper()
	f := timeseries.NewFrame(timeseries.DailyDates(start, n))
	for _, name := range order {
		require.NoError(t, f.SetColumn(name, columns[name]))
	}
	return f
}
