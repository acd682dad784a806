package forecast

import (
	"context"

	"github.com/sartorproj/weathercast/sarima"
	"github.com/sartorproj/weathercast/stats"
	"github.com/sartorproj/weathercast/timeseries"
)

// DefaultSeasonalOrder is (1,1,1)(1,1,1,12).
var DefaultSeasonalOrder = sarima.Order{P: 1, D: 1, Q: 1, SP: 1, SD: 1, SQ: 1, M: 12}

// SARIMA differences a feature once when the ADF test finds a unit root, then
// fits a seasonal model on the adjusted series. Forecasts and the actuals
// they are scored against both stay on the adjusted scale, so the scores of
// a differenced feature are not comparable with ARIMA's.
type SARIMA struct {
	Order sarima.Order
}

// NewSARIMA returns a seasonal strategy for the given order.
func NewSARIMA(order sarima.Order) *SARIMA {
	return &SARIMA{Order: order}
}

func (s *SARIMA) Name() string { return "SARIMA" }

func (s *SARIMA) Fit(ctx context.Context, series *timeseries.Series, horizon int) (*Fitted, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	adjusted, differenced, err := stats.MakeStationary(series)
	if err != nil {
		return nil, fitError(series.Name, StageStationarity, err)
	}

	o := s.Order
	model := sarima.New(o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
	if err := model.Fit(adjusted); err != nil {
		return nil, fitError(series.Name, StageFit, err)
	}
	fc, err := model.Predict(horizon)
	if err != nil {
		return nil, fitError(series.Name, StageForecast, err)
	}

	sum := model.Summary()
	return &Fitted{
		Forecast:    fc,
		Actual:      adjusted.Tail(horizon).Values,
		Differenced: differenced,
		Summary: Summary{
			Order:     "SARIMA" + sum.Order.String(),
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
