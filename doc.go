// Package weathercast forecasts daily city weather with ARIMA, SARIMA and
// LSTM models and compares their predictions.
//
// Each city has one raw daily dataset named <City>_<YYYY-MM-DD>.csv. The
// five tracked features are mean temperature, feels-like temperature, total
// precipitation, daylight duration and maximum wind speed. Gaps are filled by
// time interpolation before any model sees the data.
//
// # Features
//
//   - ADF stationarity checks per feature
//   - ARIMA and seasonal ARIMA forecasts per feature, optionally with an
//     automatic order search
//   - A multivariate LSTM sequence forecaster trained on sliding windows
//   - Accuracy metrics (MSE, MAE, R², MAPE, SMAPE) on a held-out tail
//   - A comparison table joining every model's forecast of one feature
//   - Descriptive analysis of the raw dataset
//
// # Quick Start
//
// Run a forecast from the command line:
//
//	weathercast forecast sarima Berlin --horizon 7
//	weathercast forecast lstm Berlin --horizon 7
//	weathercast compare Berlin --feature "Mean Temperature"
//
// Or embed the pipeline:
//
//	cfg, _ := config.Load("")
//	svc, _ := pipeline.New(ctx, cfg)
//	run, _ := svc.RunARIMA(ctx, "Berlin", 7)
//
// # Packages
//
//   - timeseries: series and date-indexed frames, CSV input and output
//   - stats: ADF, KPSS, Ljung-Box and decomposition
//   - arima, sarima, autoarima: the classical models
//   - metrics: accuracy metrics
//   - forecast: per-feature classical evaluation
//   - sequence: the LSTM forecaster
//   - compare: the comparison table
//   - pipeline: datasets, runs and persistence
//   - store, notify, telemetry: forecast storage, run events and metrics
//   - server: the HTTP API
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
package weathercast
