package stats

import (
	"fmt"

	"github.com/sartorproj/weathercast/timeseries"
)

// SignificanceLevel is the p-value threshold used by the stationarity checks.
const SignificanceLevel = 0.05

// StationarityResult is the ADF outcome for one feature.
type StationarityResult struct {
	Feature        string
	Statistic      float64
	PValue         float64
	UsedLag        int
	NObs           int
	CriticalValues map[string]float64
}

// IsStationary reports whether the p-value is below SignificanceLevel.
func (r StationarityResult) IsStationary() bool {
	return r.PValue < SignificanceLevel
}

// DifferencingError is returned when differencing leaves no observations.
type DifferencingError struct {
	Feature string
	Length  int
}

func (e *DifferencingError) Error() string {
	return fmt.Sprintf("differencing %q of length %d left no observations", e.Feature, e.Length)
}

// CheckStationarity runs the ADF test on the series with missing values
// removed.
func CheckStationarity(series *timeseries.Series) (StationarityResult, error) {
	res, err := ADF(series.DropNaN(), 0)
	if err != nil {
		return StationarityResult{}, fmt.Errorf("stationarity of %q: %w", series.Name, err)
	}
	return StationarityResult{
		Feature:        series.Name,
		Statistic:      res.Statistic,
		PValue:         res.PValue,
		UsedLag:        res.Lags,
		NObs:           res.NObs,
		CriticalValues: res.CriticalVals,
	}, nil
}

// MakeStationary applies one first difference when the ADF test does not
// reject a unit root. The boolean reports whether differencing happened.
// A stationary series is returned unchanged.
func MakeStationary(series *timeseries.Series) (*timeseries.Series, bool, error) {
	res, err := CheckStationarity(series)
	if err != nil {
		return nil, false, err
	}
	if res.IsStationary() {
		return series, false, nil
	}

	diffed, err := FirstDifference(series)
	if err != nil {
		return nil, false, err
	}
	return diffed, true, nil
}

// FirstDifference returns the lag-1 difference without missing values.
func FirstDifference(series *timeseries.Series) (*timeseries.Series, error) {
	diffed := series.Diff().DropNaN()
	if diffed.Len() == 0 {
		return nil, &DifferencingError{Feature: series.Name, Length: series.Len()}
	}
	return diffed, nil
}
