// Package arima implements ARIMA (AutoRegressive Integrated Moving Average) models.
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/weathercast/stats"
	"github.com/sartorproj/weathercast/timeseries"
)

var (
	// ErrConstantSeries is returned by Fit when the series has no variation.
	ErrConstantSeries = errors.New("cannot fit ARIMA to a constant series")
	// ErrNotFitted is returned when predicting before fitting.
	ErrNotFitted = errors.New("model must be fitted before prediction")
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model represents an ARIMA model estimated by conditional sum of squares.
// A mean is estimated only when D is zero.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // AR coefficients (phi)
	MACoeffs  []float64 // MA coefficients (theta)
	Intercept float64
	Sigma2    float64 // Innovation variance
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64

	fitted    bool
	levels    [][]float64 // levels[k] is the series differenced k times
	residuals []float64
	nobs      int
}

// New creates a new ARIMA model with the specified order.
func New(p, d, q int) *Model {
	return &Model{
		Order:    Order{P: p, D: d, Q: q},
		ARCoeffs: make([]float64, p),
		MACoeffs: make([]float64, q),
	}
}

// Fit fits the ARIMA model to the given time series data.
func (m *Model) Fit(series *timeseries.Series) error {
	if m.Order.P < 0 || m.Order.D < 0 || m.Order.Q < 0 {
		return fmt.Errorf("invalid order %s", m.Order)
	}
	if series.HasNaN() {
		return errors.New("series contains missing values")
	}
	if series.Len() < m.Order.P+m.Order.Q+m.Order.D+10 {
		return fmt.Errorf("insufficient data points for order %s: %d", m.Order, series.Len())
	}
	if series.IsConstant() {
		return ErrConstantSeries
	}

	m.levels = [][]float64{series.Values}
	current := series
	for i := 0; i < m.Order.D; i++ {
		current = current.Diff()
		m.levels = append(m.levels, current.Values)
	}
	y := current.Values
	m.nobs = series.Len()

	m.fitCSS(y)
	m.calculateIC(len(y))
	m.fitted = true
	return nil
}

func (m *Model) withMean() bool { return m.Order.D == 0 }

// unpack splits the optimizer vector [mean?, ar..., ma...].
func (m *Model) unpack(x []float64) (mu float64, ar, ma []float64) {
	i := 0
	if m.withMean() {
		mu = x[0]
		i = 1
	}
	ar = x[i : i+m.Order.P]
	ma = x[i+m.Order.P:]
	return mu, ar, ma
}

// fitCSS minimises the conditional sum of squares with Nelder-Mead,
// starting from Yule-Walker AR estimates.
func (m *Model) fitCSS(y []float64) {
	p, q := m.Order.P, m.Order.Q

	init := make([]float64, 0, 1+p+q)
	mu := 0.0
	if m.withMean() {
		mu = stat.Mean(y, nil)
		init = append(init, mu)
	}
	centered := timeseries.New(centeredCopy(y, mu))
	if p > 0 {
		if acf := stats.ACF(centered, p); acf != nil {
			init = append(init, yuleWalker(acf, p)...)
		} else {
			init = append(init, make([]float64, p)...)
		}
	}
	for i := 0; i < q; i++ {
		init = append(init, 0.1)
	}

	best := init
	if len(init) > 0 {
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				mu, ar, ma := m.unpack(x)
				if !admissible(ar) || !admissible(ma) {
					return math.Inf(1)
				}
				sse, _ := cssResiduals(y, mu, ar, ma)
				return sse
			},
		}
		settings := &optimize.Settings{MajorIterations: 2000, FuncEvaluations: 20000}
		// A non-nil error still carries the best point found so far.
		res, _ := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
		if res != nil && res.F <= problem.Func(init) {
			best = res.X
		}
	}

	mu, ar, ma := m.unpack(best)
	m.Intercept = mu
	m.ARCoeffs = append([]float64(nil), ar...)
	m.MACoeffs = append([]float64(nil), ma...)

	sse, resid := cssResiduals(y, mu, m.ARCoeffs, m.MACoeffs)
	m.residuals = resid
	count := len(y) - p
	if count < 1 {
		count = 1
	}
	m.Sigma2 = sse / float64(count)
}

// cssResiduals computes one-step residuals conditioning on the first p
// observations and zero pre-sample innovations.
func cssResiduals(y []float64, mu float64, ar, ma []float64) (float64, []float64) {
	p, q := len(ar), len(ma)
	resid := make([]float64, len(y))
	sse := 0.0
	for t := p; t < len(y); t++ {
		pred := mu
		for i := 0; i < p; i++ {
			pred += ar[i] * (y[t-i-1] - mu)
		}
		for i := 0; i < q && t-i-1 >= 0; i++ {
			pred += ma[i] * resid[t-i-1]
		}
		resid[t] = y[t] - pred
		sse += resid[t] * resid[t]
	}
	return sse, resid
}

// admissible bounds each coefficient inside the unit interval.
func admissible(coeffs []float64) bool {
	for _, c := range coeffs {
		if math.Abs(c) >= 1 {
			return false
		}
	}
	return true
}

func centeredCopy(y []float64, mu float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = v - mu
	}
	return out
}

// calculateIC uses the Gaussian log-likelihood at the CSS estimate. The
// parameter count includes sigma2.
func (m *Model) calculateIC(n int) {
	k := m.Order.P + m.Order.Q + 1
	if m.withMean() {
		k++
	}
	eff := float64(n - m.Order.P)
	if m.Sigma2 > 0 {
		m.LogLik = -eff / 2 * (math.Log(2*math.Pi*m.Sigma2) + 1)
	} else {
		m.LogLik = math.Inf(1)
	}

	kf := float64(k)
	m.AIC = -2*m.LogLik + 2*kf
	m.BIC = -2*m.LogLik + kf*math.Log(eff)
	if eff-kf-1 > 0 {
		m.AICc = m.AIC + 2*kf*(kf+1)/(eff-kf-1)
	} else {
		m.AICc = math.Inf(1)
	}
}

// Predict generates forecasts for the specified number of steps ahead on the
// scale of the fitted series.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}

	p, q := m.Order.P, m.Order.Q
	y := m.levels[len(m.levels)-1]
	n := len(y)

	ext := make([]float64, n+steps)
	copy(ext, y)
	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (ext[t-i-1] - m.Intercept)
		}
		// future innovations have zero expectation
		for i := 0; i < q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MACoeffs[i] * m.residuals[t-i-1]
		}
		ext[t] = pred
	}

	return m.integrate(ext[n:]), nil
}

// integrate undoes differencing level by level, anchoring each cumulative
// sum on the last observation of the level below.
func (m *Model) integrate(forecasts []float64) []float64 {
	result := append([]float64(nil), forecasts...)
	for k := m.Order.D - 1; k >= 0; k-- {
		level := m.levels[k]
		prev := level[len(level)-1]
		for j := range result {
			result[j] += prev
			prev = result[j]
		}
	}
	return result
}

// Residuals returns the model residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals[m.Order.P:]...)
}

// Summary describes a fitted model.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	Intercept float64
	Sigma2    float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	NObs      int
	LjungBox  *stats.LjungBoxResult // nil when the test could not be computed
}

// AR returns the lag-k AR coefficient, or NaN when the order has none.
func (s *Summary) AR(k int) float64 {
	if k < 1 || k > len(s.ARCoeffs) {
		return math.NaN()
	}
	return s.ARCoeffs[k-1]
}

// MA returns the lag-k MA coefficient, or NaN when the order has none.
func (s *Summary) MA(k int) float64 {
	if k < 1 || k > len(s.MACoeffs) {
		return math.NaN()
	}
	return s.MACoeffs[k-1]
}

// Summary returns a summary of the fitted model.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	lb, _ := stats.LjungBox(timeseries.New(m.Residuals()), 10, m.Order.P+m.Order.Q)

	return &Summary{
		Order:     m.Order,
		ARCoeffs:  append([]float64(nil), m.ARCoeffs...),
		MACoeffs:  append([]float64(nil), m.MACoeffs...),
		Intercept: m.Intercept,
		Sigma2:    m.Sigma2,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      m.nobs,
		LjungBox:  lb,
	}
}

// yuleWalker estimates AR coefficients by solving the Toeplitz system
// R phi = r built from the autocorrelations.
func yuleWalker(acf []float64, order int) []float64 {
	phi := make([]float64, order)
	if order <= 0 || len(acf) <= order {
		return phi
	}

	r := mat.NewSymDense(order, nil)
	for i := 0; i < order; i++ {
		for j := i; j < order; j++ {
			r.SetSym(i, j, acf[j-i])
		}
	}
	rhs := mat.NewVecDense(order, append([]float64(nil), acf[1:order+1]...))

	var chol mat.Cholesky
	if !chol.Factorize(r) {
		return phi
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return phi
	}
	for i := range phi {
		phi[i] = math.Max(-0.95, math.Min(0.95, sol.AtVec(i)))
	}
	return phi
}
