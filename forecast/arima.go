package forecast

import (
	"context"
	"math"

	"github.com/sartorproj/weathercast/arima"
	"github.com/sartorproj/weathercast/autoarima"
	"github.com/sartorproj/weathercast/stats"
	"github.com/sartorproj/weathercast/timeseries"
)

// ARIMA fits a fixed-order ARIMA model on the raw series of each feature and
// scores the forecast against the last H observations of that same series.
type ARIMA struct {
	Order arima.Order
	// Auto, when set, replaces Order by an information-criterion search.
	Auto *autoarima.Config
}

// NewARIMA returns a fixed-order ARIMA strategy.
func NewARIMA(p, d, q int) *ARIMA {
	return &ARIMA{Order: arima.Order{P: p, D: d, Q: q}}
}

func (a *ARIMA) Name() string { return "ARIMA" }

func (a *ARIMA) Fit(ctx context.Context, series *timeseries.Series, horizon int) (*Fitted, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var model *arima.Model
	if a.Auto != nil {
		res, err := autoarima.SelectOrder(series, a.Auto)
		if err != nil {
			return nil, fitError(series.Name, StageOrder, err)
		}
		model = res.Model
	} else {
		model = arima.New(a.Order.P, a.Order.D, a.Order.Q)
		if err := model.Fit(series); err != nil {
			return nil, fitError(series.Name, StageFit, err)
		}
	}

	fc, err := model.Predict(horizon)
	if err != nil {
		return nil, fitError(series.Name, StageForecast, err)
	}

	sum := model.Summary()
	return &Fitted{
		Forecast: fc,
		Actual:   series.Tail(horizon).Values,
		Summary: Summary{
			Order:     "ARIMA" + sum.Order.String(),
			AR1:       sum.AR(1),
			MA1:       sum.MA(1),
			Sigma2:    sum.Sigma2,
			AIC:       sum.AIC,
			BIC:       sum.BIC,
			NObs:      sum.NObs,
			LjungBoxP: ljungBoxP(sum.LjungBox),
		},
	}, nil
}

func ljungBoxP(lb *stats.LjungBoxResult) float64 {
	if lb == nil {
		return math.NaN()
	}
	return lb.PValue
}
