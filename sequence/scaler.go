package sequence

import "errors"

// MinMaxScaler maps every column independently onto [0, 1]. A column with
// no range scales to 0 and inverts to its constant.
type MinMaxScaler struct {
	Min   []float64
	Range []float64
}

// FitScaler learns the per-column minimum and range of rows.
func FitScaler(rows [][]float64) (*MinMaxScaler, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("cannot fit scaler on an empty matrix")
	}
	cols := len(rows[0])
	s := &MinMaxScaler{Min: make([]float64, cols), Range: make([]float64, cols)}
	max := make([]float64, cols)
	copy(s.Min, rows[0])
	copy(max, rows[0])
	for _, row := range rows[1:] {
		if len(row) != cols {
			return nil, errors.New("rows have different lengths")
		}
		for j, v := range row {
			if v < s.Min[j] {
				s.Min[j] = v
			}
			if v > max[j] {
				max[j] = v
			}
		}
	}
	for j := range s.Range {
		s.Range[j] = max[j] - s.Min[j]
	}
	return s, nil
}

func (s *MinMaxScaler) scale(j int) float64 {
	if s.Range[j] == 0 {
		return 1
	}
	return 1 / s.Range[j]
}

// Transform scales a copy of rows.
func (s *MinMaxScaler) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = (v - s.Min[j]) * s.scale(j)
		}
	}
	return out
}

// Inverse maps scaled rows back to original units.
func (s *MinMaxScaler) Inverse(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v/s.scale(j) + s.Min[j]
		}
	}
	return out
}
