package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sartorproj/weathercast/autoarima"
	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/forecast"
	"github.com/sartorproj/weathercast/metrics"
	"github.com/sartorproj/weathercast/notify"
	"github.com/sartorproj/weathercast/report"
	"github.com/sartorproj/weathercast/sequence"
	"github.com/sartorproj/weathercast/timeseries"
	"github.com/sartorproj/weathercast/weather"
)

// Run is one completed forecast of a city. Forecast is nil when every
// feature failed; Classical or Sequence holds the model output.
type Run struct {
	ID        string
	City      string
	Model     compare.Model
	Horizon   int
	Forecast  *timeseries.Frame
	Summary   *report.Table
	Failed    []string
	Overall   metrics.Overall
	Classical *forecast.Result
	Sequence  *sequence.Result
	Elapsed   time.Duration
	CreatedAt time.Time
}

// Forecast dispatches to the runner of model.
func (s *Service) Forecast(ctx context.Context, model compare.Model, city string, horizon int) (*Run, error) {
	switch model {
	case compare.ARIMA:
		return s.RunARIMA(ctx, city, horizon)
	case compare.SARIMA:
		return s.RunSARIMA(ctx, city, horizon)
	case compare.LSTM:
		return s.RunLSTM(ctx, city, horizon)
	}
	return nil, fmt.Errorf("unknown model %q", model)
}

// RunARIMA forecasts every feature of a city with the configured ARIMA order.
func (s *Service) RunARIMA(ctx context.Context, city string, horizon int) (*Run, error) {
	a := s.cfg.Forecast.ARIMA
	strategy := forecast.NewARIMA(a.P, a.D, a.Q)
	if a.AutoOrder {
		strategy.Auto = autoarima.DefaultConfig()
	}
	return s.track(ctx, compare.ARIMA, city, horizon, func(run *Run, frame *timeseries.Frame) error {
		return s.classical(ctx, run, frame, strategy)
	})
}

// RunSARIMA forecasts every feature of a city with the configured seasonal order.
func (s *Service) RunSARIMA(ctx context.Context, city string, horizon int) (*Run, error) {
	strategy := forecast.NewSARIMA(s.cfg.Forecast.SARIMA.Order())
	return s.track(ctx, compare.SARIMA, city, horizon, func(run *Run, frame *timeseries.Frame) error {
		return s.classical(ctx, run, frame, strategy)
	})
}

// RunLSTM trains the sequence model on all features of a city at once.
func (s *Service) RunLSTM(ctx context.Context, city string, horizon int) (*Run, error) {
	return s.track(ctx, compare.LSTM, city, horizon, func(run *Run, frame *timeseries.Frame) error {
		if horizon > s.cfg.Forecast.WarnHorizon {
			s.logger.Warn("predictions this far ahead may be less reliable",
				"city", city, "horizon", horizon, "reliable_horizon", s.cfg.Forecast.WarnHorizon)
		}
		fc, err := sequence.NewForecaster(s.cfg.Sequence.Config,
			sequence.WithSemaphore(s.training),
			sequence.WithLogger(s.logger.With("city", city, "run_id", run.ID)),
			sequence.WithTrainingHook(s.metrics))
		if err != nil {
			return err
		}
		res, err := fc.Run(ctx, frame, horizon)
		if err != nil {
			return err
		}
		run.Sequence = res
		run.Forecast = res.Frame.Round(2)
		run.Summary = report.SequenceSummaryTable(res)
		run.Overall = res.Evaluation.Overall
		return nil
	})
}

func (s *Service) classical(ctx context.Context, run *Run, frame *timeseries.Frame, strategy forecast.Strategy) error {
	ev := forecast.NewEvaluator(strategy,
		forecast.WithParallelism(s.cfg.Forecast.Parallelism),
		forecast.WithLogger(s.logger.With("city", run.City, "run_id", run.ID)),
		forecast.WithObserver(s.metrics))
	res, err := ev.Run(ctx, frame, weather.Features(), run.Horizon)
	if err != nil {
		return err
	}
	run.Classical = res
	run.Summary = report.SummaryTable(res.Summaries)
	run.Failed = res.Failed()
	run.Overall = res.Overall()
	if len(run.Failed) == len(res.Summaries) {
		return nil
	}
	table, err := res.Frame()
	if err != nil {
		return err
	}
	run.Forecast = table.Round(2)
	return nil
}

// track validates the horizon, loads the city, runs body and then persists,
// publishes and records the run.
func (s *Service) track(ctx context.Context, model compare.Model, city string, horizon int, body func(*Run, *timeseries.Frame) error) (*Run, error) {
	started := time.Now()
	run, err := s.execute(ctx, model, city, horizon, body)
	elapsed := time.Since(started)
	s.metrics.ObserveRun(string(model), elapsed, err)
	if err != nil {
		s.logger.Error("forecast run failed", "city", city, "model", string(model), "horizon", horizon, "error", err)
		return nil, err
	}
	run.Elapsed = elapsed
	s.metrics.SetAccuracy(city, string(model), run.Overall.Accuracy)
	s.logger.Info("forecast run completed",
		"run_id", run.ID,
		"city", city,
		"model", string(model),
		"horizon", horizon,
		"failed", len(run.Failed),
		"accuracy", run.Overall.Accuracy,
		"elapsed", elapsed.String())
	return run, nil
}

func (s *Service) execute(ctx context.Context, model compare.Model, city string, horizon int, body func(*Run, *timeseries.Frame) error) (*Run, error) {
	if horizon < 1 || horizon > s.cfg.Forecast.MaxHorizon {
		return nil, fmt.Errorf("%w: %d is outside [1, %d]", forecast.ErrInvalidHorizon, horizon, s.cfg.Forecast.MaxHorizon)
	}
	frame, err := s.Load(city)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:        uuid.NewString(),
		City:      city,
		Model:     model,
		Horizon:   horizon,
		CreatedAt: time.Now().UTC(),
	}
	if err := body(run, frame); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, run); err != nil {
		return nil, err
	}
	s.publish(ctx, run)
	return run, nil
}

func (s *Service) persist(ctx context.Context, run *Run) error {
	if run.Forecast != nil {
		if err := s.store.Put(ctx, run.City, run.Model, run.Forecast); err != nil {
			return fmt.Errorf("storing forecast: %w", err)
		}
	} else if err := s.store.Delete(ctx, run.City, run.Model); err != nil {
		// an older table would otherwise be compared as if it were current
		return fmt.Errorf("clearing stale forecast: %w", err)
	}
	if err := report.SaveCSV(s.layout.SummaryPath(run.Model, run.City, ".csv"), run.Summary); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if s.cfg.Report.XLSX {
		title := fmt.Sprintf("%s %s summary", run.City, run.Model)
		if err := report.SaveXLSX(s.layout.SummaryPath(run.Model, run.City, ".xlsx"), title, run.Summary); err != nil {
			return fmt.Errorf("writing summary workbook: %w", err)
		}
	}
	return nil
}

// publish is best effort; the run already succeeded.
func (s *Service) publish(ctx context.Context, run *Run) {
	features := weather.Features()
	if run.Forecast != nil {
		features = append([]string(nil), run.Forecast.Columns...)
	}
	failed := run.Failed
	if failed == nil {
		failed = []string{}
	}
	event := notify.RunEvent{
		RunID:     run.ID,
		City:      run.City,
		Model:     string(run.Model),
		Horizon:   run.Horizon,
		Features:  features,
		Failed:    failed,
		CreatedAt: run.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("run event not published", "run_id", run.ID, "error", err)
	}
}
