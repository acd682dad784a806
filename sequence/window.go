package sequence

import (
	"math"

	"github.com/sartorproj/weathercast/forecast"
)

// Windows pairs every run of nSteps consecutive rows with the row after it.
// The windows share memory with rows.
func Windows(rows [][]float64, nSteps int) (x [][][]float64, y [][]float64) {
	for i := 0; i+nSteps < len(rows); i++ {
		x = append(x, rows[i:i+nSteps])
		y = append(y, rows[i+nSteps])
	}
	return x, y
}

// Split is a chronological train/test partition of windowed samples.
type Split struct {
	TrainX [][][]float64
	TrainY [][]float64
	TestX  [][][]float64
	TestY  [][]float64
}

// SplitSizes returns the partition sizes for n samples: the test side is
// ceil(testFraction*n) and the train side the rest.
func SplitSizes(n int, testFraction float64) (train, test int) {
	test = int(math.Ceil(testFraction * float64(n)))
	if test > n {
		test = n
	}
	return n - test, test
}

// ChronoSplit keeps the earliest samples for training and the tail for
// testing. An empty side fails with *forecast.InsufficientDataError.
func ChronoSplit(rows [][]float64, nSteps int, testFraction float64) (*Split, error) {
	x, y := Windows(rows, nSteps)
	train, test := SplitSizes(len(x), testFraction)
	if train == 0 || test == 0 {
		return nil, &forecast.InsufficientDataError{
			Rows:   len(rows),
			Window: nSteps,
			Train:  train,
			Test:   test,
		}
	}
	return &Split{
		TrainX: x[:train],
		TrainY: y[:train],
		TestX:  x[train:],
		TestY:  y[train:],
	}, nil
}
