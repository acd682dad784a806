package sequence

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// TrainConfig controls one training run.
type TrainConfig struct {
	Epochs       int
	BatchSize    int
	Patience     int
	LearningRate float64
	Dropout      float64
}

// History records the mean losses of every completed epoch.
type History struct {
	TrainLoss []float64
	ValLoss   []float64
	BestEpoch int
	// EarlyStopped is set when patience ran out before the last epoch.
	EarlyStopped bool
}

// Train fits net with mini-batch Adam, shuffling the training samples every
// epoch. Training stops once the validation loss has not improved for
// Patience epochs, and the weights of the best epoch are restored at the
// end. Cancellation is checked between epochs.
func Train(ctx context.Context, net *Network, rng *rand.Rand, split *Split, cfg TrainConfig) (*History, error) {
	opt := NewAdam(cfg.LearningRate)
	hist := &History{BestEpoch: -1}
	best := math.Inf(1)
	var bestWeights []*mat.Dense
	wait := 0

	order := make([]int, len(split.TrainX))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return hist, err
		}

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var sum float64
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			xb := make([][][]float64, 0, end-start)
			yb := make([][]float64, 0, end-start)
			for _, idx := range order[start:end] {
				xb = append(xb, split.TrainX[idx])
				yb = append(yb, split.TrainY[idx])
			}

			y, tp := net.forward(xb, dropoutMask(len(xb), net.Units, cfg.Dropout, rng))
			loss, dy := mseGrad(y, yb)
			opt.Step(net.params(), net.backward(tp, dy))
			sum += loss * float64(len(xb))
		}
		trainLoss := sum / float64(len(order))

		valLoss := evaluateLoss(net, split.TestX, split.TestY)
		hist.TrainLoss = append(hist.TrainLoss, trainLoss)
		hist.ValLoss = append(hist.ValLoss, valLoss)

		if valLoss < best {
			best = valLoss
			bestWeights = net.snapshot()
			hist.BestEpoch = epoch
			wait = 0
			continue
		}
		wait++
		if cfg.Patience > 0 && wait >= cfg.Patience {
			hist.EarlyStopped = epoch < cfg.Epochs-1
			break
		}
	}

	if bestWeights != nil {
		net.restore(bestWeights)
	}
	return hist, nil
}

// dropoutMask zeroes each unit with probability rate and scales survivors
// by 1/(1-rate). It returns nil when rate is zero.
func dropoutMask(rows, cols int, rate float64, rng *rand.Rand) *mat.Dense {
	if rate <= 0 {
		return nil
	}
	keep := 1 / (1 - rate)
	data := make([]float64, rows*cols)
	for i := range data {
		if rng.Float64() >= rate {
			data[i] = keep
		}
	}
	return mat.NewDense(rows, cols, data)
}

func evaluateLoss(net *Network, x [][][]float64, y [][]float64) float64 {
	pred := net.Predict(x)
	var sum float64
	var n int
	for i := range pred {
		for j, v := range pred[i] {
			d := v - y[i][j]
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
