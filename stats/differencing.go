package stats

import (
	"github.com/sartorproj/weathercast/timeseries"
)

// NDiffs determines the number of first differences required for
// stationarity, up to maxD (default 2). testType is "kpss" (default) or
// "adf". A test that cannot be computed stops the search at the current d.
func NDiffs(series *timeseries.Series, maxD int, testType string) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := series
	for d := 0; d < maxD; d++ {
		stationary, ok := isStationary(current, testType)
		if !ok || stationary {
			return d
		}

		current = current.Diff()
		if current.Len() < 10 {
			return d + 1
		}
	}
	return maxD
}

func isStationary(series *timeseries.Series, testType string) (stationary, ok bool) {
	if testType == "adf" {
		res, err := ADF(series, 0)
		if err != nil {
			return false, false
		}
		return res.IsStationary(), true
	}
	res, err := KPSS(series, "c", 0)
	if err != nil {
		return false, false
	}
	return res.IsStationary(), true
}
