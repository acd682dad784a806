package sequence

import "fmt"

// StepPredictor predicts the row that follows a window.
type StepPredictor interface {
	PredictStep(window [][]float64) ([]float64, error)
}

// Recursive forecasts horizon rows by feeding every prediction back into the
// window and dropping its oldest row. Errors compound by construction: no
// step sees a true future value.
func Recursive(p StepPredictor, seed [][]float64, horizon int) ([][]float64, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("recursive forecast needs a non-empty seed window")
	}

	window := make([][]float64, len(seed))
	copy(window, seed)

	out := make([][]float64, 0, horizon)
	for step := 0; step < horizon; step++ {
		next, err := p.PredictStep(window)
		if err != nil {
			return nil, fmt.Errorf("forecast step %d: %w", step+1, err)
		}
		out = append(out, next)

		shifted := make([][]float64, 0, len(window))
		shifted = append(shifted, window[1:]...)
		window = append(shifted, next)
	}
	return out, nil
}
