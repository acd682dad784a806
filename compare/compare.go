// Package compare joins the forecasts of the three models for one feature.
package compare

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sartorproj/weathercast/timeseries"
)

// Model names a forecaster.
type Model string

const (
	LSTM   Model = "LSTM"
	ARIMA  Model = "ARIMA"
	SARIMA Model = "SARIMA"
)

// Models returns the models in comparison column order.
func Models() []Model {
	return []Model{LSTM, ARIMA, SARIMA}
}

// ParseModel accepts a model name in any case.
func ParseModel(s string) (Model, error) {
	for _, m := range Models() {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown model %q", s)
}

// ErrUnavailable is returned when a model has no forecast for the feature.
var ErrUnavailable = errors.New("comparison unavailable")

// Assemble joins the feature column of every model's forecast table on the
// dates they all share. Values are rounded to two decimals. A missing or
// empty table, a table without the feature, or no shared dates yields
// ErrUnavailable and no table.
func Assemble(feature string, tables map[Model]*timeseries.Frame) (*timeseries.Frame, error) {
	columns := make(map[Model]map[int64]float64, len(Models()))
	for _, m := range Models() {
		f := tables[m]
		if f == nil || f.Empty() {
			return nil, fmt.Errorf("%w: no %s forecast", ErrUnavailable, m)
		}
		if !f.Has(feature) {
			return nil, fmt.Errorf("%w: %s forecast has no %q", ErrUnavailable, m, feature)
		}
		byDate := make(map[int64]float64, f.Len())
		for i, v := range f.Values(feature) {
			byDate[f.Dates[i].Unix()] = v
		}
		columns[m] = byDate
	}

	base := tables[Models()[0]]
	var dates []time.Time
	for _, d := range base.Dates {
		shared := true
		for _, m := range Models()[1:] {
			if _, ok := columns[m][d.Unix()]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: forecasts of %q share no dates", ErrUnavailable, feature)
	}

	out := timeseries.NewFrame(dates)
	for _, m := range Models() {
		col := make([]float64, len(dates))
		for i, d := range dates {
			col[i] = columns[m][d.Unix()]
		}
		if err := out.SetColumn(string(m), col); err != nil {
			return nil, err
		}
	}
	return out.Round(2), nil
}
