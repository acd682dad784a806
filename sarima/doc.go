// Package sarima implements multiplicative seasonal ARIMA models,
// SARIMA(p,d,q)(P,D,Q,m).
//
// The seasonal and non-seasonal lag polynomials are multiplied out and the
// coefficients are estimated by conditional sum of squares on the
// differenced series. Forecasts fold the differencing operators into the AR
// recursion, so they come back on the scale of the input series.
//
//	model := sarima.New(1, 1, 1, 1, 1, 1, 12)
//	if err := model.Fit(series); err != nil {
//		return err
//	}
//	forecasts, err := model.Predict(7)
package sarima
