package sequence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sartorproj/weathercast/forecast"
	"github.com/sartorproj/weathercast/logging"
	"github.com/sartorproj/weathercast/metrics"
	"github.com/sartorproj/weathercast/timeseries"
)

// Config holds the sequence model hyperparameters.
type Config struct {
	NSteps       int        `mapstructure:"n_steps"`
	TestFraction float64    `mapstructure:"test_fraction"`
	Units        int        `mapstructure:"units"`
	Activation   Activation `mapstructure:"activation"`
	Dropout      float64    `mapstructure:"dropout"`
	Epochs       int        `mapstructure:"epochs"`
	BatchSize    int        `mapstructure:"batch_size"`
	Patience     int        `mapstructure:"patience"`
	LearningRate float64    `mapstructure:"learning_rate"`
	Seed         int64      `mapstructure:"seed"`
}

// DefaultConfig returns a 30-day window, 50 units and 20 epochs.
func DefaultConfig() Config {
	return Config{
		NSteps:       30,
		TestFraction: 0.2,
		Units:        50,
		Activation:   Tanh,
		Dropout:      0.2,
		Epochs:       20,
		BatchSize:    32,
		Patience:     5,
		LearningRate: 1e-3,
		Seed:         42,
	}
}

// Validate checks the hyperparameters.
func (c Config) Validate() error {
	switch {
	case c.NSteps < 1:
		return errors.New("n_steps must be positive")
	case c.TestFraction <= 0 || c.TestFraction >= 1:
		return errors.New("test_fraction must be in (0, 1)")
	case c.Units < 1:
		return errors.New("units must be positive")
	case c.Activation != Tanh && c.Activation != ReLU:
		return fmt.Errorf("unknown activation %q", c.Activation)
	case c.Dropout < 0 || c.Dropout >= 1:
		return errors.New("dropout must be in [0, 1)")
	case c.Epochs < 1:
		return errors.New("epochs must be positive")
	case c.BatchSize < 1:
		return errors.New("batch_size must be positive")
	case c.Patience < 0:
		return errors.New("patience must not be negative")
	case c.LearningRate <= 0:
		return errors.New("learning_rate must be positive")
	}
	return nil
}

// Evaluation scores the test tail in original units.
type Evaluation struct {
	MSE                float64 `json:"mse"`
	MAE                float64 `json:"mae"`
	R2                 float64 `json:"r2"`
	PercentageAccuracy float64 `json:"percentage_accuracy"`
	// OverallAccuracy is NaN when every feature was skipped.
	OverallAccuracy float64 `json:"overall_accuracy"`
	// Features scores each column on its own, precipitation through the
	// precipitation variant.
	Features map[string]metrics.Bundle `json:"features"`
	// Overall rolls Features up the same way the classical models do, so
	// precipitation stays out of the accuracy.
	Overall metrics.Overall `json:"overall"`
}

// Result is the outcome of one sequence forecast. ValLoss is nil when no
// validation loss was computed.
type Result struct {
	Features  []string
	TrainLoss float64
	ValLoss   *float64
	Forecast  [][]float64
	// Accuracy is the rounded percentage accuracy.
	Accuracy   float64
	Evaluation Evaluation
	History    *History
	Frame      *timeseries.Frame
}

// Forecaster trains the LSTM on a whole frame and forecasts every column.
type Forecaster struct {
	cfg    Config
	sem    *semaphore.Weighted
	logger *logging.Logger
	hook   TrainingHook
}

// TrainingHook is called once a training slot is held. The returned func
// runs when training ends.
type TrainingHook interface {
	StartTraining() func()
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithSemaphore shares a training slot limit between forecasters.
func WithSemaphore(sem *semaphore.Weighted) Option {
	return func(f *Forecaster) {
		if sem != nil {
			f.sem = sem
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(f *Forecaster) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithTrainingHook observes every training.
func WithTrainingHook(h TrainingHook) Option {
	return func(f *Forecaster) { f.hook = h }
}

// NewForecaster validates cfg.
func NewForecaster(cfg Config, opts ...Option) (*Forecaster, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sequence config: %w", err)
	}
	f := &Forecaster{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(1),
		logger: logging.Global(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Run trains on frame and forecasts horizon days past its last date. Any
// failure aborts the whole run.
func (f *Forecaster) Run(ctx context.Context, frame *timeseries.Frame, horizon int) (*Result, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: got %d", forecast.ErrInvalidHorizon, horizon)
	}
	if frame.Empty() || len(frame.Columns) == 0 {
		return nil, &forecast.DataValidationError{Reason: "empty frame"}
	}
	if frame.HasNaN() {
		return nil, &forecast.DataValidationError{Reason: "frame contains missing values"}
	}

	rows := frame.Rows()
	scaler, err := FitScaler(rows)
	if err != nil {
		return nil, &forecast.DataValidationError{Reason: err.Error()}
	}
	scaled := scaler.Transform(rows)

	split, err := ChronoSplit(scaled, f.cfg.NSteps, f.cfg.TestFraction)
	if err != nil {
		return nil, err
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.sem.Release(1)
	if f.hook != nil {
		defer f.hook.StartTraining()()
	}

	rng := rand.New(rand.NewSource(f.cfg.Seed))
	features := len(frame.Columns)
	net := NewNetwork(features, f.cfg.Units, features, f.cfg.Activation, rng)

	started := time.Now()
	hist, err := Train(ctx, net, rng, split, TrainConfig{
		Epochs:       f.cfg.Epochs,
		BatchSize:    f.cfg.BatchSize,
		Patience:     f.cfg.Patience,
		LearningRate: f.cfg.LearningRate,
		Dropout:      f.cfg.Dropout,
	})
	if err != nil {
		return nil, fmt.Errorf("training: %w", err)
	}
	f.logger.Info("sequence model trained",
		"epochs", len(hist.TrainLoss),
		"best_epoch", hist.BestEpoch+1,
		"early_stopped", hist.EarlyStopped,
		"train_samples", len(split.TrainX),
		"test_samples", len(split.TestX),
		"elapsed", time.Since(started).String())

	actual := scaler.Inverse(split.TestY)
	predicted := scaler.Inverse(net.Predict(split.TestX))
	eval := evaluate(frame.Columns, actual, predicted)

	future, err := Recursive(net, scaled[len(scaled)-f.cfg.NSteps:], horizon)
	if err != nil {
		return nil, err
	}
	future = scaler.Inverse(future)

	out, err := timeseries.FrameFromRows(frame.FutureDates(horizon), frame.Columns, future)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Features:   append([]string(nil), frame.Columns...),
		Forecast:   future,
		Accuracy:   math.Round(eval.PercentageAccuracy),
		Evaluation: eval,
		History:    hist,
		Frame:      out,
		TrainLoss:  math.NaN(),
	}
	if n := len(hist.TrainLoss); n > 0 {
		res.TrainLoss = hist.TrainLoss[n-1]
		val := hist.ValLoss[n-1]
		res.ValLoss = &val
	}
	return res, nil
}

func evaluate(columns []string, actual, predicted [][]float64) Evaluation {
	flatA, flatP := metrics.Flatten(actual), metrics.Flatten(predicted)
	b := metrics.Calculate(flatA, flatP)

	cols := len(actual[0])
	r2 := 0.0
	perFeature := make(map[string]metrics.Bundle, cols)
	for j := 0; j < cols; j++ {
		a := make([]float64, len(actual))
		p := make([]float64, len(actual))
		for i := range actual {
			a[i], p[i] = actual[i][j], predicted[i][j]
		}
		r2 += metrics.RSquared(a, p)
		if j < len(columns) {
			perFeature[columns[j]] = metrics.ForFeature(columns[j], a, p)
		}
	}

	overall, ok := metrics.OverallAccuracy(actual, predicted)
	if !ok {
		overall = math.NaN()
	}
	return Evaluation{
		MSE:                b.MSE,
		MAE:                b.MAE,
		R2:                 r2 / float64(cols),
		PercentageAccuracy: metrics.PercentageAccuracy(actual, predicted),
		OverallAccuracy:    overall,
		Features:           perFeature,
		Overall:            metrics.Rollup(perFeature),
	}
}
