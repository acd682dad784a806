package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/sartorproj/weathercast/metrics"
	"github.com/sartorproj/weathercast/timeseries"
)

// FeatureForecast is the H-step forecast of one feature, dated from the day
// after its last observation.
type FeatureForecast struct {
	Feature     string      `json:"feature"`
	Dates       []time.Time `json:"dates"`
	Values      []float64   `json:"values"`
	Differenced bool        `json:"differenced,omitempty"`
}

// Summary is one row of a model summary table. Err is set when the feature
// failed, and then only Feature is meaningful.
type Summary struct {
	Feature     string         `json:"feature"`
	Order       string         `json:"order,omitempty"`
	AR1         float64        `json:"ar_l1"`
	MA1         float64        `json:"ma_l1"`
	Sigma2      float64        `json:"sigma2"`
	AIC         float64        `json:"aic"`
	BIC         float64        `json:"bic"`
	NObs        int            `json:"nobs"`
	LjungBoxP   float64        `json:"ljung_box_p"`
	Differenced bool           `json:"differenced,omitempty"`
	Metrics     metrics.Bundle `json:"metrics"`
	Err         error          `json:"-"`
}

// Failed reports whether the feature failed.
func (s Summary) Failed() bool {
	return s.Err != nil
}

// ErrorSummary builds the summary of a failed feature.
func ErrorSummary(feature string, err error) Summary {
	nan := math.NaN()
	return Summary{
		Feature:   feature,
		AR1:       nan,
		MA1:       nan,
		Sigma2:    nan,
		AIC:       nan,
		BIC:       nan,
		LjungBoxP: nan,
		Metrics:   metrics.NullBundle(),
		Err:       err,
	}
}

// Result is the outcome of one classical forecasting run. Forecasts holds a
// nil entry for every failed feature.
type Result struct {
	Model          string                      `json:"model"`
	Forecasts      map[string]*FeatureForecast `json:"forecasts"`
	Summaries      []Summary                   `json:"summaries"`
	OverallMetrics map[string]metrics.Bundle   `json:"overall_metrics"`
}

// Failed lists the features that failed, in input order.
func (r *Result) Failed() []string {
	var out []string
	for _, s := range r.Summaries {
		if s.Failed() {
			out = append(out, s.Feature)
		}
	}
	return out
}

// Overall rolls the per-feature metrics up into a single MSE and accuracy.
func (r *Result) Overall() metrics.Overall {
	return metrics.Rollup(r.OverallMetrics)
}

// Frame gathers the successful forecasts into one date-indexed table, one
// column per feature in summary order. Every forecast must share its dates.
func (r *Result) Frame() (*timeseries.Frame, error) {
	var frame *timeseries.Frame
	for _, s := range r.Summaries {
		fc := r.Forecasts[s.Feature]
		if fc == nil {
			continue
		}
		if frame == nil {
			frame = timeseries.NewFrame(fc.Dates)
		} else if !sameDates(frame.Dates, fc.Dates) {
			return nil, fmt.Errorf("forecast dates of %q differ from the other features", fc.Feature)
		}
		if err := frame.SetColumn(fc.Feature, fc.Values); err != nil {
			return nil, err
		}
	}
	if frame == nil {
		return nil, fmt.Errorf("%s produced no forecasts", r.Model)
	}
	return frame, nil
}

func sameDates(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
