package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Frame is a date-indexed table with one float column per feature.
type Frame struct {
	Dates   []time.Time
	Columns []string
	data    map[string][]float64
}

// NewFrame creates an empty frame over the given dates.
func NewFrame(dates []time.Time) *Frame {
	d := make([]time.Time, len(dates))
	copy(d, dates)
	return &Frame{
		Dates: d,
		data:  make(map[string][]float64),
	}
}

// FrameFromRows builds a frame from a row-major matrix.
func FrameFromRows(dates []time.Time, columns []string, rows [][]float64) (*Frame, error) {
	if len(rows) != len(dates) {
		return nil, fmt.Errorf("got %d rows for %d dates", len(rows), len(dates))
	}
	f := NewFrame(dates)
	for j, name := range columns {
		col := make([]float64, len(rows))
		for i, row := range rows {
			if len(row) != len(columns) {
				return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
			}
			col[i] = row[j]
		}
		if err := f.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Dates)
}

// Empty reports whether the frame has no rows or no columns.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Dates) == 0 || len(f.Columns) == 0
}

// SetColumn adds or replaces a column. The slice is copied.
func (f *Frame) SetColumn(name string, values []float64) error {
	if len(values) != len(f.Dates) {
		return fmt.Errorf("column %q has %d values for %d dates", name, len(values), len(f.Dates))
	}
	col := make([]float64, len(values))
	copy(col, values)
	f.put(name, col)
	return nil
}

// put stores col under name without copying or checking its length.
func (f *Frame) put(name string, col []float64) {
	if _, ok := f.data[name]; !ok {
		f.Columns = append(f.Columns, name)
	}
	f.data[name] = col
}

// Has reports whether the frame has the named column.
func (f *Frame) Has(name string) bool {
	if f == nil {
		return false
	}
	_, ok := f.data[name]
	return ok
}

// Values returns the backing slice of a column, or nil.
func (f *Frame) Values(name string) []float64 {
	return f.data[name]
}

// Column returns a copy of a column as a Series.
func (f *Frame) Column(name string) (*Series, error) {
	values, ok := f.data[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	s := &Series{
		Timestamps: make([]time.Time, len(f.Dates)),
		Values:     make([]float64, len(values)),
		Name:       name,
	}
	copy(s.Timestamps, f.Dates)
	copy(s.Values, values)
	return s, nil
}

// Select returns a frame restricted to the given columns, in that order.
func (f *Frame) Select(columns ...string) (*Frame, error) {
	out := NewFrame(f.Dates)
	for _, name := range columns {
		values, ok := f.data[name]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		if err := out.SetColumn(name, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Rename returns a copy with columns renamed through mapping.
// Columns without an entry keep their name.
func (f *Frame) Rename(mapping map[string]string) (*Frame, error) {
	out := NewFrame(f.Dates)
	for _, name := range f.Columns {
		target := name
		if renamed, ok := mapping[name]; ok {
			target = renamed
		}
		if out.Has(target) {
			return nil, fmt.Errorf("rename produces duplicate column %q", target)
		}
		if err := out.SetColumn(target, f.data[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Rows returns the frame as a row-major matrix in column order.
func (f *Frame) Rows() [][]float64 {
	rows := make([][]float64, len(f.Dates))
	for i := range rows {
		rows[i] = make([]float64, len(f.Columns))
		for j, name := range f.Columns {
			rows[i][j] = f.data[name][i]
		}
	}
	return rows
}

// HasNaN reports whether any cell is missing.
func (f *Frame) HasNaN() bool {
	for _, name := range f.Columns {
		for _, v := range f.data[name] {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

// LastDate returns the date of the final row.
func (f *Frame) LastDate() (time.Time, bool) {
	if len(f.Dates) == 0 {
		return time.Time{}, false
	}
	return f.Dates[len(f.Dates)-1], true
}

// FutureDates returns the h days following the last row.
func (f *Frame) FutureDates(h int) []time.Time {
	last, ok := f.LastDate()
	if !ok {
		return DailyDates(Epoch, h)
	}
	return DailyDates(last.AddDate(0, 0, 1), h)
}

// Round returns a copy with every cell rounded to the given number of decimals.
func (f *Frame) Round(decimals int) *Frame {
	out := NewFrame(f.Dates)
	for _, name := range f.Columns {
		col := make([]float64, len(f.data[name]))
		for i, v := range f.data[name] {
			col[i] = RoundTo(v, decimals)
		}
		out.put(name, col)
	}
	return out
}

// Validate checks the date index is strictly increasing.
func (f *Frame) Validate() error {
	for i := 1; i < len(f.Dates); i++ {
		if !f.Dates[i].After(f.Dates[i-1]) {
			return errors.New("frame dates must be strictly increasing")
		}
	}
	return nil
}

// RoundTo rounds half away from zero to the given decimals. NaN stays NaN.
func RoundTo(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
