package arima

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/sartorproj/weathercast/timeseries"
)

func ar1(n int, phi, mean float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	values[0] = mean
	for i := 1; i < n; i++ {
		values[i] = mean + phi*(values[i-1]-mean) + rng.NormFloat64()
	}
	return values
}

func TestNewARIMA(t *testing.T) {
	model := New(2, 1, 1)

	if model.Order.P != 2 || model.Order.D != 1 || model.Order.Q != 1 {
		t.Errorf("Unexpected order %v", model.Order)
	}
	if model.Order.String() != "(2,1,1)" {
		t.Errorf("Unexpected order string %q", model.Order.String())
	}
}

func TestARIMAFitAR1(t *testing.T) {
	phi := 0.7
	model := New(1, 0, 0)

	if err := model.Fit(timeseries.New(ar1(500, phi, 20, 1))); err != nil {
		t.Fatalf("Failed to fit AR(1) model: %v", err)
	}

	t.Logf("True AR coeff: %f, Estimated: %f", phi, model.ARCoeffs[0])

	if math.Abs(model.ARCoeffs[0]-phi) > 0.1 {
		t.Errorf("AR coefficient estimate off: true=%f, est=%f", phi, model.ARCoeffs[0])
	}
	if math.Abs(model.Intercept-20) > 1 {
		t.Errorf("Expected mean near 20, got %f", model.Intercept)
	}
	if math.Abs(model.Sigma2-1) > 0.25 {
		t.Errorf("Expected innovation variance near 1, got %f", model.Sigma2)
	}
	if len(model.Residuals()) != 499 {
		t.Errorf("Expected 499 conditional residuals, got %d", len(model.Residuals()))
	}
}

func TestARIMAFitMA1(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	n := 500
	theta := 0.5
	values := make([]float64, n)
	prev := 0.0
	for i := range values {
		e := rng.NormFloat64()
		values[i] = 100 + e + theta*prev
		prev = e
	}

	model := New(0, 0, 1)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit MA(1) model: %v", err)
	}

	t.Logf("True MA coeff: %f, Estimated: %f", theta, model.MACoeffs[0])
	if math.Abs(model.MACoeffs[0]-theta) > 0.15 {
		t.Errorf("MA coefficient estimate off: true=%f, est=%f", theta, model.MACoeffs[0])
	}
}

func TestARIMAFitConstant(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 12.5
	}

	err := New(1, 1, 1).Fit(timeseries.New(values))
	if !errors.Is(err, ErrConstantSeries) {
		t.Errorf("Expected ErrConstantSeries, got %v", err)
	}
}

func TestARIMAFitRejectsShortAndMissing(t *testing.T) {
	if err := New(1, 1, 1).Fit(timeseries.New([]float64{1, 2, 3})); err == nil {
		t.Error("Expected error for short series")
	}

	values := ar1(50, 0.5, 0, 3)
	values[10] = math.NaN()
	if err := New(1, 0, 0).Fit(timeseries.New(values)); err == nil {
		t.Error("Expected error for missing values")
	}
}

func TestARIMAPredictBeforeFit(t *testing.T) {
	if _, err := New(1, 0, 0).Predict(3); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
}

func TestARIMAPredictAR1(t *testing.T) {
	model := New(1, 0, 0)
	if err := model.Fit(timeseries.New(ar1(300, 0.6, 50, 4))); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	forecasts, err := model.Predict(30)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(forecasts) != 30 {
		t.Fatalf("Expected 30 forecasts, got %d", len(forecasts))
	}
	if math.Abs(forecasts[29]-model.Intercept) > 0.01 {
		t.Errorf("Long-horizon forecast should revert to the mean %f, got %f", model.Intercept, forecasts[29])
	}

	if _, err := model.Predict(0); err == nil {
		t.Error("Expected error for zero steps")
	}
}

func TestARIMAIntegrate(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 3 + 2*float64(i)
	}

	walk := New(0, 1, 0)
	if err := walk.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	flat, _ := walk.Predict(3)
	for i, v := range flat {
		if v != values[39] {
			t.Errorf("Random walk forecast %d: expected %f, got %f", i, values[39], v)
		}
	}

	trend := New(0, 2, 0)
	if err := trend.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	line, _ := trend.Predict(3)
	for i, v := range line {
		want := 3 + 2*float64(40+i)
		if math.Abs(v-want) > 1e-9 {
			t.Errorf("Second-order forecast %d: expected %f, got %f", i, want, v)
		}
	}
}

func TestARIMASummary(t *testing.T) {
	if New(1, 1, 1).Summary() != nil {
		t.Error("Expected nil summary before fitting")
	}

	values := make([]float64, 120)
	level := 10.0
	for i, v := range ar1(120, 0.5, 0, 5) {
		level += v
		values[i] = level
	}

	model := New(1, 1, 1)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	s := model.Summary()
	if s.NObs != 120 {
		t.Errorf("Expected 120 observations, got %d", s.NObs)
	}
	if math.IsNaN(s.AR(1)) || math.IsNaN(s.MA(1)) {
		t.Error("Expected lag-1 coefficients")
	}
	if !math.IsNaN(s.AR(2)) {
		t.Error("Expected NaN for a missing lag")
	}
	if s.Sigma2 <= 0 || math.IsInf(s.AIC, 0) || s.BIC <= s.AIC {
		t.Errorf("Unexpected criteria: sigma2=%f aic=%f bic=%f", s.Sigma2, s.AIC, s.BIC)
	}
	if s.LjungBox == nil {
		t.Error("Expected a Ljung-Box result on residuals")
	}
}

func TestYuleWalker(t *testing.T) {
	phi := yuleWalker([]float64{1, 0.5, 0.25}, 2)
	if math.Abs(phi[0]-0.5) > 1e-9 || math.Abs(phi[1]) > 1e-9 {
		t.Errorf("Expected AR(1) solution [0.5 0], got %v", phi)
	}
}
