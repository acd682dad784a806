// Package forecast runs per-feature forecasting strategies over a city's
// weather frame and scores them.
//
// An Evaluator drives a Strategy feature by feature. Each feature is fitted,
// forecast and scored on its own; a failure is recorded as a Summary with
// Err set and a nil forecast, and the remaining features carry on.
//
//	ev := forecast.NewEvaluator(forecast.NewARIMA(1, 1, 1), forecast.WithParallelism(4))
//	res, err := ev.Run(ctx, frame, weather.Features(), 7)
//	if err != nil {
//		return err
//	}
//	for _, s := range res.Summaries {
//		if s.Failed() {
//			log.Printf("%s: %v", s.Feature, s.Err)
//		}
//	}
//
// ARIMA scores against the tail of the raw series. SARIMA first applies
// stats.MakeStationary and scores against the tail of the adjusted series.
package forecast
