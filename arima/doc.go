// Package arima implements ARIMA(p,d,q) models estimated by conditional sum
// of squares.
//
// The series is differenced d times, a mean is estimated when d is zero, and
// the AR and MA coefficients are found with a Nelder-Mead search started
// from Yule-Walker estimates. Forecasts are integrated back to the scale of
// the input series.
//
//	model := arima.New(1, 1, 1)
//	if err := model.Fit(series); err != nil {
//		return err // arima.ErrConstantSeries for a flat series
//	}
//	forecasts, _ := model.Predict(7)
//	s := model.Summary()
//	fmt.Printf("ar.L1=%.3f ma.L1=%.3f sigma2=%.3f AIC=%.1f\n", s.AR(1), s.MA(1), s.Sigma2, s.AIC)
//
// For seasonal data, use the sarima package.
package arima
