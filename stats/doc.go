// Package stats provides the statistical tests behind the forecasters.
//
// # Stationarity
//
// CheckStationarity runs an Augmented Dickey-Fuller test with a constant
// term, choosing the lag order by AIC and reporting MacKinnon p-values. A
// feature is stationary when the p-value is below 0.05.
//
//	res, err := stats.CheckStationarity(series)
//	if err != nil {
//		return err
//	}
//	fmt.Printf("ADF=%.3f p=%.4f stationary=%v\n", res.Statistic, res.PValue, res.IsStationary())
//
// MakeStationary applies a single first difference when the unit root is
// not rejected:
//
//	adjusted, differenced, err := stats.MakeStationary(series)
//
// KPSS and NDiffs are used by the automatic order search.
//
// # Diagnostics
//
//	lb, err := stats.LjungBox(residuals, 10, p+q)
//
// # Decomposition
//
//	d, err := stats.Decompose(series, 365) // additive, yearly cycle on daily data
package stats
