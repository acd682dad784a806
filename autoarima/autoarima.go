package autoarima

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/weathercast/arima"
	"github.com/sartorproj/weathercast/stats"
	"github.com/sartorproj/weathercast/timeseries"
)

// ErrNoModel is returned when no candidate order could be fitted.
var ErrNoModel = errors.New("no candidate ARIMA order could be fitted")

// Config controls the order search.
type Config struct {
	MaxP        int
	MaxD        int
	MaxQ        int
	Criterion   string // "aic" or "bic"
	StationTest string // "kpss" or "adf"
	Stepwise    bool
}

// DefaultConfig keeps the grid small enough for daily weather features.
func DefaultConfig() *Config {
	return &Config{
		MaxP:        3,
		MaxD:        2,
		MaxQ:        3,
		Criterion:   "aic",
		StationTest: "kpss",
		Stepwise:    true,
	}
}

// Result is the selected model.
type Result struct {
	Order           arima.Order
	Model           *arima.Model
	AIC             float64
	BIC             float64
	Criterion       float64
	ModelsEvaluated int
}

type searcher struct {
	series    *timeseries.Series
	d         int
	cfg       *Config
	tried     map[[2]int]bool
	best      *Result
	evaluated int
}

// SelectOrder picks d with a unit-root test and then searches p and q by
// information criterion.
func SelectOrder(series *timeseries.Series, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxP < 0 || cfg.MaxQ < 0 {
		return nil, fmt.Errorf("invalid search bounds p<=%d q<=%d", cfg.MaxP, cfg.MaxQ)
	}
	clean := series.DropNaN()
	if clean.IsConstant() {
		return nil, arima.ErrConstantSeries
	}

	s := &searcher{
		series: clean,
		d:      stats.NDiffs(clean, cfg.MaxD, cfg.StationTest),
		cfg:    cfg,
		tried:  make(map[[2]int]bool),
	}
	if cfg.Stepwise {
		s.stepwise()
	} else {
		for p := 0; p <= cfg.MaxP; p++ {
			for q := 0; q <= cfg.MaxQ; q++ {
				s.try(p, q)
			}
		}
	}

	if s.best == nil {
		return nil, ErrNoModel
	}
	s.best.ModelsEvaluated = s.evaluated
	return s.best, nil
}

// stepwise follows the Hyndman-Khandakar neighbourhood walk.
func (s *searcher) stepwise() {
	for _, start := range [][2]int{{2, 2}, {0, 0}, {1, 0}, {0, 1}} {
		s.try(start[0], start[1])
	}
	if s.best == nil {
		return
	}

	for improved := true; improved; {
		improved = false
		p, q := s.best.Order.P, s.best.Order.Q
		for _, step := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, -1}} {
			if s.try(p+step[0], q+step[1]) {
				improved = true
			}
		}
	}
}

// try fits one candidate and reports whether it became the best.
func (s *searcher) try(p, q int) bool {
	if p < 0 || q < 0 || p > s.cfg.MaxP || q > s.cfg.MaxQ || s.tried[[2]int{p, q}] {
		return false
	}
	s.tried[[2]int{p, q}] = true

	model := arima.New(p, s.d, q)
	if err := model.Fit(s.series); err != nil {
		return false
	}
	s.evaluated++

	score := model.AIC
	if s.cfg.Criterion == "bic" {
		score = model.BIC
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return false
	}
	if s.best != nil && score >= s.best.Criterion {
		return false
	}
	s.best = &Result{
		Order:     model.Order,
		Model:     model,
		AIC:       model.AIC,
		BIC:       model.BIC,
		Criterion: score,
	}
	return true
}

// Predict forecasts with the selected model.
func (r *Result) Predict(steps int) ([]float64, error) {
	if r.Model == nil {
		return nil, arima.ErrNotFitted
	}
	return r.Model.Predict(steps)
}
