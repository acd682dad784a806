// Package timeseries provides daily series and date-indexed frames.
package timeseries

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Day is the spacing between consecutive observations.
const Day = 24 * time.Hour

// Epoch is the first date assigned to series built without explicit dates.
var Epoch = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// Series represents one feature as a daily time series.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// New creates a daily series starting at Epoch.
func New(values []float64) *Series {
	return &Series{
		Timestamps: DailyDates(Epoch, len(values)),
		Values:     values,
	}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	for i := 1; i < len(timestamps); i++ {
		if !timestamps[i].After(timestamps[i-1]) {
			return nil, errors.New("timestamps must be strictly increasing")
		}
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// DailyDates returns n consecutive days beginning at start.
func DailyDates(start time.Time, n int) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// IsConstant reports whether every value equals the first one.
func (s *Series) IsConstant() bool {
	for _, v := range s.Values {
		if v != s.Values[0] {
			return false
		}
	}
	return true
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// HasNaN reports whether the series contains a missing value.
func (s *Series) HasNaN() bool {
	for _, v := range s.Values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// DropNaN returns a copy without missing observations.
func (s *Series) DropNaN() *Series {
	out := &Series{
		Timestamps: make([]time.Time, 0, len(s.Values)),
		Values:     make([]float64, 0, len(s.Values)),
		Name:       s.Name,
	}
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		out.Values = append(out.Values, v)
		if i < len(s.Timestamps) {
			out.Timestamps = append(out.Timestamps, s.Timestamps[i])
		}
	}
	return out
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN calculates the lag-n difference of the series. The first n
// observations have no predecessor and are dropped.
func (s *Series) DiffN(n int) *Series {
	if n <= 0 || len(s.Values) <= n {
		return &Series{Timestamps: []time.Time{}, Values: []float64{}, Name: s.Name}
	}

	result := make([]float64, len(s.Values)-n)
	for i := n; i < len(s.Values); i++ {
		result[i-n] = s.Values[i] - s.Values[i-n]
	}

	timestamps := make([]time.Time, len(result))
	if len(s.Timestamps) > n {
		copy(timestamps, s.Timestamps[n:])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name,
	}
}

// SeasonalDiff calculates the seasonal difference with period m.
func (s *Series) SeasonalDiff(m int) *Series {
	return s.DiffN(m)
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Timestamps: []time.Time{}, Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Tail returns the last n observations, or the whole series when it is shorter.
func (s *Series) Tail(n int) *Series {
	return s.Slice(len(s.Values)-n, len(s.Values))
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// LastDate returns the date of the final observation.
func (s *Series) LastDate() (time.Time, bool) {
	if len(s.Timestamps) == 0 {
		return time.Time{}, false
	}
	return s.Timestamps[len(s.Timestamps)-1], true
}

// FutureDates returns the h days following the last observation.
func (s *Series) FutureDates(h int) []time.Time {
	last, ok := s.LastDate()
	if !ok {
		return DailyDates(Epoch, h)
	}
	return DailyDates(last.AddDate(0, 0, 1), h)
}

// MovingAverage calculates a trailing moving average. The first window-1
// positions have no full window and are NaN, so the result stays aligned
// with the input dates.
func (s *Series) MovingAverage(window int) *Series {
	out := s.Copy()
	if window <= 0 {
		return out
	}
	sum := 0.0
	valid := 0
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			sum += v
			valid++
		}
		if i >= window {
			if old := s.Values[i-window]; !math.IsNaN(old) {
				sum -= old
				valid--
			}
		}
		if i < window-1 || valid < window {
			out.Values[i] = math.NaN()
			continue
		}
		out.Values[i] = sum / float64(window)
	}
	return out
}
