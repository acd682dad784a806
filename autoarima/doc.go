// Package autoarima selects an ARIMA order automatically.
//
// The differencing order comes from repeated KPSS (or ADF) tests. The AR and
// MA orders are then chosen by AIC or BIC, either with a stepwise walk from a
// few starting points or with an exhaustive grid.
//
//	res, err := autoarima.SelectOrder(series, autoarima.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	fmt.Printf("ARIMA%s AIC=%.2f (%d models)\n", res.Order, res.AIC, res.ModelsEvaluated)
//	forecasts, _ := res.Predict(7)
package autoarima
