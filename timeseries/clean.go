package timeseries

import "math"

// InterpolateTime fills missing values by linear interpolation weighted by
// the elapsed time between the surrounding observations. Leading and
// trailing gaps take the nearest observed value. A series with no
// observations is returned unchanged.
func (s *Series) InterpolateTime() *Series {
	out := s.Copy()
	vals := out.Values

	prev := -1
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		switch {
		case prev < 0:
			for k := 0; k < i; k++ {
				vals[k] = v
			}
		case i-prev > 1:
			t0 := s.position(prev)
			span := s.position(i) - t0
			for k := prev + 1; k < i; k++ {
				w := (s.position(k) - t0) / span
				vals[k] = vals[prev] + w*(v-vals[prev])
			}
		}
		prev = i
	}
	if prev >= 0 {
		for k := prev + 1; k < len(vals); k++ {
			vals[k] = vals[prev]
		}
	}
	return out
}

// position returns the time coordinate of index i in days. Without dates
// the index itself is used.
func (s *Series) position(i int) float64 {
	if len(s.Timestamps) != len(s.Values) {
		return float64(i)
	}
	return s.Timestamps[i].Sub(s.Timestamps[0]).Hours() / 24
}

// FillMean replaces missing values with the mean of the observed values.
func (s *Series) FillMean() *Series {
	out := s.Copy()
	sum, n := 0.0, 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return out
	}
	mean := sum / float64(n)
	for i, v := range out.Values {
		if math.IsNaN(v) {
			out.Values[i] = mean
		}
	}
	return out
}

// Clean returns a copy of the frame where every column has been time
// interpolated and then mean filled. Columns with no observed value stay
// missing.
func (f *Frame) Clean() (*Frame, error) {
	out := NewFrame(f.Dates)
	for _, name := range f.Columns {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		if err := out.SetColumn(name, col.InterpolateTime().FillMean().Values); err != nil {
			return nil, err
		}
	}
	return out, nil
}
