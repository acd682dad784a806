package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	dates := DailyDates(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 3)
	f, err := FrameFromRows(dates, []string{"a", "b"}, [][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
	})
	require.NoError(t, err)
	return f
}

func TestFrameFromRows(t *testing.T) {
	f := sampleFrame(t)

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"a", "b"}, f.Columns)
	assert.Equal(t, []float64{10, 20, 30}, f.Values("b"))
	assert.Equal(t, [][]float64{{1, 10}, {2, 20}, {3, 30}}, f.Rows())
}

func TestFrameFromRowsShapeErrors(t *testing.T) {
	dates := DailyDates(Epoch, 2)

	_, err := FrameFromRows(dates, []string{"a"}, [][]float64{{1}})
	assert.Error(t, err)

	_, err = FrameFromRows(dates, []string{"a", "b"}, [][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestFrameColumnIsCopy(t *testing.T) {
	f := sampleFrame(t)

	col, err := f.Column("a")
	require.NoError(t, err)
	col.Values[0] = 99

	assert.Equal(t, 1.0, f.Values("a")[0])
	assert.Equal(t, "a", col.Name)

	_, err = f.Column("missing")
	assert.Error(t, err)
}

func TestFrameSelectAndRename(t *testing.T) {
	f := sampleFrame(t)

	sel, err := f.Select("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, sel.Columns)

	renamed, err := f.Rename(map[string]string{"a": "Alpha"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "b"}, renamed.Columns)
	assert.True(t, renamed.Has("Alpha"))
	assert.False(t, renamed.Has("a"))

	_, err = f.Rename(map[string]string{"a": "b"})
	assert.Error(t, err)
}

func TestFrameRoundAndNaN(t *testing.T) {
	f := NewFrame(DailyDates(Epoch, 3))
	require.NoError(t, f.SetColumn("x", []float64{1.005, 2.344, math.NaN()}))

	assert.True(t, f.HasNaN())

	r := f.Round(2)
	assert.InDelta(t, 2.34, r.Values("x")[1], 1e-12)
	assert.True(t, math.IsNaN(r.Values("x")[2]))
}

func TestFrameFutureDates(t *testing.T) {
	f := sampleFrame(t)

	future := f.FutureDates(2)
	require.Len(t, future, 2)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), future[0])
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), future[1])
}

func TestRoundTo(t *testing.T) {
	assert.InDelta(t, 2.46, RoundTo(2.456, 2), 1e-12)
	assert.InDelta(t, -1.23, RoundTo(-1.234, 2), 1e-12)
	assert.Equal(t, 3.0, RoundTo(2.5, 0))
	assert.True(t, math.IsNaN(RoundTo(math.NaN(), 2)))
}
