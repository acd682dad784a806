package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/weathercast/timeseries"
)

func named(values []float64, name string) *timeseries.Series {
	s := timeseries.New(values)
	s.Name = name
	return s
}

func TestCheckStationarity(t *testing.T) {
	res, err := CheckStationarity(named(whiteNoise(400, 11), "Mean Temperature"))
	require.NoError(t, err)

	assert.Equal(t, "Mean Temperature", res.Feature)
	assert.True(t, res.IsStationary())
	assert.Less(t, res.PValue, SignificanceLevel)
	assert.Contains(t, res.CriticalValues, "5%")
}

func TestCheckStationarityDropsNaN(t *testing.T) {
	values := whiteNoise(400, 12)
	withGaps := append([]float64{}, values...)
	withGaps = append(withGaps, nan(), nan())

	clean, err := CheckStationarity(named(values, "x"))
	require.NoError(t, err)
	gappy, err := CheckStationarity(named(withGaps, "x"))
	require.NoError(t, err)

	assert.InDelta(t, clean.Statistic, gappy.Statistic, 1e-12)
}

func TestCheckStationarityConstant(t *testing.T) {
	values := make([]float64, 60)
	_, err := CheckStationarity(named(values, "Daylight Duration"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstantSeries)
}

func TestMakeStationaryLeavesStationaryInput(t *testing.T) {
	in := named(whiteNoise(400, 13), "x")

	out, differenced, err := MakeStationary(in)
	require.NoError(t, err)
	assert.False(t, differenced)
	assert.Same(t, in, out)

	again, differenced, err := MakeStationary(out)
	require.NoError(t, err)
	assert.False(t, differenced)
	assert.Equal(t, out.Values, again.Values)
}

func TestMakeStationaryDifferencesOnce(t *testing.T) {
	in := named(driftingWalk(400, 14), "x")

	out, differenced, err := MakeStationary(in)
	require.NoError(t, err)
	assert.True(t, differenced)
	assert.Equal(t, in.Len()-1, out.Len())
	assert.InDelta(t, in.Values[1]-in.Values[0], out.Values[0], 1e-12)
	assert.Equal(t, in.Timestamps[1], out.Timestamps[0])
}

func TestFirstDifferenceEmpty(t *testing.T) {
	_, err := FirstDifference(named([]float64{3}, "Max Wind Speed"))
	require.Error(t, err)

	var derr *DifferencingError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "Max Wind Speed", derr.Feature)
	assert.Equal(t, 1, derr.Length)
}
