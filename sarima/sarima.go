// Package sarima implements multiplicative Seasonal ARIMA (SARIMA) models.
package sarima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/weathercast/stats"
	"github.com/sartorproj/weathercast/timeseries"
)

var (
	// ErrConstantSeries is returned by Fit when the series has no variation.
	ErrConstantSeries = errors.New("cannot fit SARIMA to a constant series")
	// ErrNotFitted is returned when predicting before fitting.
	ErrNotFitted = errors.New("model must be fitted before prediction")
)

// Order represents SARIMA model order (p, d, q) x (P, D, Q, m).
type Order struct {
	P int // Non-seasonal AR order
	D int // Non-seasonal differencing order
	Q int // Non-seasonal MA order
	// Seasonal components
	SP int // Seasonal AR order
	SD int // Seasonal differencing order
	SQ int // Seasonal MA order
	M  int // Seasonal period
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d,%d)", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

func (o Order) validate() error {
	for _, v := range []int{o.P, o.D, o.Q, o.SP, o.SD, o.SQ} {
		if v < 0 {
			return fmt.Errorf("invalid order %s", o)
		}
	}
	if (o.SP > 0 || o.SD > 0 || o.SQ > 0) && o.M < 2 {
		return fmt.Errorf("seasonal order %s needs a period of at least 2", o)
	}
	return nil
}

// Model is a SARIMA model estimated by conditional sum of squares on the
// differenced series. A mean is estimated only when D and SD are zero.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // Non-seasonal AR coefficients
	MACoeffs  []float64 // Non-seasonal MA coefficients
	SARCoeffs []float64 // Seasonal AR coefficients
	SMACoeffs []float64 // Seasonal MA coefficients
	Intercept float64
	Sigma2    float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64

	fitted    bool
	data      []float64
	diffData  []float64
	phi       []float64 // expanded AR lag coefficients of the differenced series
	theta     []float64 // expanded MA lag coefficients
	residuals []float64
}

// New creates a new SARIMA model with the specified order.
func New(p, d, q, sp, sd, sq, m int) *Model {
	return &Model{
		Order: Order{
			P: p, D: d, Q: q,
			SP: sp, SD: sd, SQ: sq, M: m,
		},
	}
}

func (m *Model) withMean() bool { return m.Order.D == 0 && m.Order.SD == 0 }

func (m *Model) nParams() int {
	n := m.Order.P + m.Order.Q + m.Order.SP + m.Order.SQ
	if m.withMean() {
		n++
	}
	return n
}

// Fit fits the SARIMA model to the given time series data.
func (m *Model) Fit(series *timeseries.Series) error {
	if err := m.Order.validate(); err != nil {
		return err
	}
	if series.HasNaN() {
		return errors.New("series contains missing values")
	}
	if series.IsConstant() {
		return ErrConstantSeries
	}

	o := m.Order
	lost := o.D + o.SD*o.M
	condition := o.P + o.SP*o.M
	if minLen := lost + condition + o.Q + o.SQ*o.M + 10; series.Len() < minLen {
		return fmt.Errorf("insufficient data points for order %s: have %d, need %d", o, series.Len(), minLen)
	}

	m.data = append([]float64(nil), series.Values...)
	diff := series
	for i := 0; i < o.D; i++ {
		diff = diff.Diff()
	}
	for i := 0; i < o.SD; i++ {
		diff = diff.SeasonalDiff(o.M)
	}
	m.diffData = diff.Values

	m.fitCSS()
	m.calculateIC()
	m.fitted = true
	return nil
}

// unpack splits [mean?, ar..., ma..., sar..., sma...].
func (m *Model) unpack(x []float64) (mu float64, ar, ma, sar, sma []float64) {
	o := m.Order
	i := 0
	if m.withMean() {
		mu = x[0]
		i = 1
	}
	ar = x[i : i+o.P]
	i += o.P
	ma = x[i : i+o.Q]
	i += o.Q
	sar = x[i : i+o.SP]
	i += o.SP
	sma = x[i : i+o.SQ]
	return
}

// expand multiplies the seasonal and non-seasonal lag polynomials and
// returns the coefficients of the combined AR and MA recursions.
func (m *Model) expand(ar, ma, sar, sma []float64) (phi, theta []float64) {
	arPoly := polyMul(lagPoly(ar, 1, -1), lagPoly(sar, m.Order.M, -1))
	maPoly := polyMul(lagPoly(ma, 1, 1), lagPoly(sma, m.Order.M, 1))
	phi = make([]float64, len(arPoly)-1)
	for i := range phi {
		phi[i] = -arPoly[i+1]
	}
	return phi, maPoly[1:]
}

func (m *Model) fitCSS() {
	o := m.Order
	y := m.diffData

	init := make([]float64, 0, m.nParams())
	mu := 0.0
	if m.withMean() {
		mu = stat.Mean(y, nil)
		init = append(init, mu)
	}
	acf := stats.ACF(timeseries.New(y), max(o.P, o.SP*o.M))
	at := func(lag int) float64 {
		if acf == nil || lag >= len(acf) {
			return 0
		}
		return 0.5 * acf[lag]
	}
	for i := 1; i <= o.P; i++ {
		init = append(init, at(i))
	}
	for i := 0; i < o.Q; i++ {
		init = append(init, 0.1)
	}
	for i := 1; i <= o.SP; i++ {
		init = append(init, at(i*o.M))
	}
	for i := 0; i < o.SQ; i++ {
		init = append(init, 0.1)
	}

	objective := func(x []float64) float64 {
		mu, ar, ma, sar, sma := m.unpack(x)
		for _, c := range [][]float64{ar, ma, sar, sma} {
			for _, v := range c {
				if math.Abs(v) >= 1 {
					return math.Inf(1)
				}
			}
		}
		phi, theta := m.expand(ar, ma, sar, sma)
		sse, _ := cssResiduals(y, mu, phi, theta)
		return sse
	}

	best := init
	if len(init) > 0 {
		settings := &optimize.Settings{MajorIterations: 1000, FuncEvaluations: 10000}
		res, _ := optimize.Minimize(optimize.Problem{Func: objective}, init, settings, &optimize.NelderMead{})
		if res != nil && res.F <= objective(init) {
			best = res.X
		}
	}

	mu, ar, ma, sar, sma := m.unpack(best)
	m.Intercept = mu
	m.ARCoeffs = append([]float64(nil), ar...)
	m.MACoeffs = append([]float64(nil), ma...)
	m.SARCoeffs = append([]float64(nil), sar...)
	m.SMACoeffs = append([]float64(nil), sma...)
	m.phi, m.theta = m.expand(m.ARCoeffs, m.MACoeffs, m.SARCoeffs, m.SMACoeffs)

	sse, resid := cssResiduals(y, mu, m.phi, m.theta)
	m.residuals = resid
	count := len(y) - len(m.phi)
	if count < 1 {
		count = 1
	}
	m.Sigma2 = sse / float64(count)
}

// cssResiduals computes residuals conditioning on the first len(phi)
// observations with zero pre-sample innovations.
func cssResiduals(y []float64, mu float64, phi, theta []float64) (float64, []float64) {
	resid := make([]float64, len(y))
	sse := 0.0
	for t := len(phi); t < len(y); t++ {
		pred := mu
		for i, c := range phi {
			if c != 0 {
				pred += c * (y[t-i-1] - mu)
			}
		}
		for j, c := range theta {
			if c != 0 && t-j-1 >= 0 {
				pred += c * resid[t-j-1]
			}
		}
		resid[t] = y[t] - pred
		sse += resid[t] * resid[t]
	}
	return sse, resid
}

func (m *Model) calculateIC() {
	eff := float64(len(m.diffData) - len(m.phi))
	k := float64(m.nParams() + 1) // sigma2
	if m.Sigma2 > 0 {
		m.LogLik = -eff / 2 * (math.Log(2*math.Pi*m.Sigma2) + 1)
	} else {
		m.LogLik = math.Inf(1)
	}
	m.AIC = -2*m.LogLik + 2*k
	m.BIC = -2*m.LogLik + k*math.Log(eff)
	if eff-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(eff-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
}

// Predict generates forecasts for the specified number of steps ahead. The
// differencing operators are folded into the AR recursion, so forecasts come
// back on the scale of the fitted series.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}

	o := m.Order
	integrated := polyMul(negate(m.phi), differencing(o.D, 1))
	integrated = polyMul(integrated, differencing(o.SD, o.M))
	a := make([]float64, len(integrated)-1)
	for i := range a {
		a[i] = -integrated[i+1]
	}

	n := len(m.data)
	offset := n - len(m.diffData)
	ext := make([]float64, n+steps)
	copy(ext, m.data)
	for h := 0; h < steps; h++ {
		t := n + h
		pred := 0.0
		if m.withMean() {
			pred = m.Intercept
		}
		for i, c := range a {
			if c != 0 && t-i-1 >= 0 {
				v := ext[t-i-1]
				if m.withMean() {
					v -= m.Intercept
				}
				pred += c * v
			}
		}
		for j, c := range m.theta {
			k := t - j - 1 - offset
			if c != 0 && k >= 0 && k < len(m.residuals) {
				pred += c * m.residuals[k]
			}
		}
		ext[t] = pred
	}
	return append([]float64(nil), ext[n:]...), nil
}

// lagPoly builds 1 + sign*(c1 B^step + c2 B^(2 step) + ...).
func lagPoly(coeffs []float64, step int, sign float64) []float64 {
	if len(coeffs) == 0 {
		return []float64{1}
	}
	p := make([]float64, len(coeffs)*step+1)
	p[0] = 1
	for i, c := range coeffs {
		p[(i+1)*step] = sign * c
	}
	return p
}

// differencing builds (1 - B^step)^order.
func differencing(order, step int) []float64 {
	p := []float64{1}
	for i := 0; i < order; i++ {
		p = polyMul(p, lagPoly([]float64{1}, step, -1))
	}
	return p
}

// negate turns expanded AR coefficients back into 1 - phi1 B - ...
func negate(phi []float64) []float64 {
	p := make([]float64, len(phi)+1)
	p[0] = 1
	for i, c := range phi {
		p[i+1] = -c
	}
	return p
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// Residuals returns the conditional residuals of the differenced series.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals[len(m.phi):]...)
}

// Summary describes a fitted model.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	SARCoeffs []float64
	SMACoeffs []float64
	Intercept float64
	Sigma2    float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	NObs      int
	LjungBox  *stats.LjungBoxResult // nil when the test could not be computed
}

// AR returns the lag-k non-seasonal AR coefficient, or NaN.
func (s *Summary) AR(k int) float64 { return coefAt(s.ARCoeffs, k) }

// MA returns the lag-k non-seasonal MA coefficient, or NaN.
func (s *Summary) MA(k int) float64 { return coefAt(s.MACoeffs, k) }

func coefAt(c []float64, k int) float64 {
	if k < 1 || k > len(c) {
		return math.NaN()
	}
	return c[k-1]
}

// Summary returns a summary of the fitted model.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	o := m.Order
	lb, _ := stats.LjungBox(timeseries.New(m.Residuals()), 10, o.P+o.Q+o.SP+o.SQ)

	return &Summary{
		Order:     o,
		ARCoeffs:  append([]float64(nil), m.ARCoeffs...),
		MACoeffs:  append([]float64(nil), m.MACoeffs...),
		SARCoeffs: append([]float64(nil), m.SARCoeffs...),
		SMACoeffs: append([]float64(nil), m.SMACoeffs...),
		Intercept: m.Intercept,
		Sigma2:    m.Sigma2,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      len(m.data),
		LjungBox:  lb,
	}
}
