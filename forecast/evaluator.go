package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/weathercast/logging"
	"github.com/sartorproj/weathercast/metrics"
	"github.com/sartorproj/weathercast/timeseries"
)

// Fitted is what a strategy produces for one feature: the forecast, the
// observations it is scored against and the model description.
type Fitted struct {
	Forecast    []float64
	Actual      []float64
	Differenced bool
	Summary     Summary
}

// Strategy fits one feature and forecasts it.
type Strategy interface {
	Name() string
	Fit(ctx context.Context, series *timeseries.Series, horizon int) (*Fitted, error)
}

// Observer is notified after every feature.
type Observer interface {
	ObserveFeature(model, feature string, elapsed time.Duration, err error)
}

// Evaluator runs a strategy over every feature of a frame. A failing feature
// is recorded in its summary and does not stop the others.
type Evaluator struct {
	strategy    Strategy
	parallelism int
	logger      *logging.Logger
	observer    Observer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithParallelism bounds how many features are fitted at once.
func WithParallelism(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithLogger sets the logger. The global logger is used otherwise.
func WithLogger(l *logging.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(e *Evaluator) { e.observer = o }
}

// NewEvaluator creates an evaluator for the strategy.
func NewEvaluator(s Strategy, opts ...Option) *Evaluator {
	e := &Evaluator{
		strategy:    s,
		parallelism: 1,
		logger:      logging.Global(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type slot struct {
	summary  Summary
	forecast *FeatureForecast
}

// Run evaluates the named features, or every column when none are given.
// Summaries keep the order of features. Only cancellation and an invalid
// horizon fail the whole run.
func (e *Evaluator) Run(ctx context.Context, frame *timeseries.Frame, features []string, horizon int) (*Result, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}
	if len(features) == 0 {
		features = frame.Columns
	}

	slots := make([]slot, len(features))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, feature := range features {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = e.evaluate(gctx, frame, feature, horizon)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		Model:          e.strategy.Name(),
		Forecasts:      make(map[string]*FeatureForecast, len(features)),
		Summaries:      make([]Summary, 0, len(features)),
		OverallMetrics: make(map[string]metrics.Bundle),
	}
	for _, s := range slots {
		res.Summaries = append(res.Summaries, s.summary)
		res.Forecasts[s.summary.Feature] = s.forecast
		if !s.summary.Failed() {
			res.OverallMetrics[s.summary.Feature] = s.summary.Metrics
		}
	}
	return res, nil
}

func (e *Evaluator) evaluate(ctx context.Context, frame *timeseries.Frame, feature string, horizon int) slot {
	start := time.Now()
	s, err := e.evaluateFeature(ctx, frame, feature, horizon)
	elapsed := time.Since(start)

	if e.observer != nil {
		e.observer.ObserveFeature(e.strategy.Name(), feature, elapsed, err)
	}
	if err != nil {
		e.logger.Warn("feature evaluation failed",
			"model", e.strategy.Name(), "feature", feature, "error", err)
		return slot{summary: ErrorSummary(feature, err)}
	}
	e.logger.Debug("feature evaluated",
		"model", e.strategy.Name(), "feature", feature,
		"order", s.summary.Order, "aic", s.summary.AIC, "elapsed", elapsed.String())
	return s
}

func (e *Evaluator) evaluateFeature(ctx context.Context, frame *timeseries.Frame, feature string, horizon int) (slot, error) {
	series, err := frame.Column(feature)
	if err != nil {
		return slot{}, fitError(feature, StageLoad, err)
	}
	series = series.DropNaN()

	fitted, err := e.strategy.Fit(ctx, series, horizon)
	if err != nil {
		return slot{}, fitError(feature, StageFit, err)
	}
	if len(fitted.Forecast) != horizon {
		return slot{}, fitError(feature, StageForecast,
			fmt.Errorf("got %d forecast steps, want %d", len(fitted.Forecast), horizon))
	}
	for _, v := range fitted.Forecast {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return slot{}, fitError(feature, StageForecast, errors.New("forecast is not finite"))
		}
	}

	summary := fitted.Summary
	summary.Feature = feature
	summary.Differenced = fitted.Differenced
	summary.Metrics = metrics.ForFeature(feature, fitted.Actual, fitted.Forecast)

	return slot{
		summary: summary,
		forecast: &FeatureForecast{
			Feature:     feature,
			Dates:       series.FutureDates(horizon),
			Values:      fitted.Forecast,
			Differenced: fitted.Differenced,
		},
	}, nil
}
