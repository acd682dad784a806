package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/weathercast/timeseries"
)

var (
	// ErrTooShort is returned when a series has too few observations for a test.
	ErrTooShort = errors.New("series too short")
	// ErrConstantSeries is returned when a test is undefined for a series with no variation.
	ErrConstantSeries = errors.New("series is constant")
)

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	CriticalVals map[string]float64 // Critical values at 1%, 5%, 10%
	AIC          float64
}

// IsStationary reports whether the unit-root null is rejected at 5%.
func (r *ADFResult) IsStationary() bool {
	return r.PValue < SignificanceLevel
}

// ADF performs the Augmented Dickey-Fuller test with a constant term.
// The null hypothesis is that the series has a unit root.
//
// The number of lagged differences is chosen by AIC among 0..maxLag, all
// candidate regressions sharing the same sample. A non-positive maxLag uses
// ceil(12*(n/100)^(1/4)).
func ADF(series *timeseries.Series, maxLag int) (*ADFResult, error) {
	x := series.Values
	n := len(x)
	if n < 4 {
		return nil, fmt.Errorf("adf on %d observations: %w", n, ErrTooShort)
	}
	if series.IsConstant() {
		return nil, ErrConstantSeries
	}

	if maxLag <= 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	// one constant term
	if limit := n/2 - 2; maxLag > limit {
		maxLag = limit
	}
	if maxLag < 0 {
		return nil, fmt.Errorf("adf on %d observations: %w", n, ErrTooShort)
	}

	dx := series.Diff().Values

	bestLag, bestAIC := -1, math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		fit, err := adfRegression(x, dx, maxLag, lag)
		if err != nil {
			continue
		}
		if aic := fit.aic(); aic < bestAIC {
			bestLag, bestAIC = lag, aic
		}
	}
	if bestLag < 0 {
		return nil, errors.New("adf: no lag order produced a solvable regression")
	}

	fit, err := adfRegression(x, dx, bestLag, bestLag)
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}

	tStat := fit.coef[1] / fit.stdErr[1]
	return &ADFResult{
		Statistic:    tStat,
		PValue:       mackinnonPValue(tStat),
		Lags:         bestLag,
		NObs:         fit.nobs,
		CriticalVals: mackinnonCritical(fit.nobs),
		AIC:          bestAIC,
	}, nil
}

// adfRegression regresses dx_t on [1, x_{t-1}, dx_{t-1}..dx_{t-lag}] over
// the sample that starts after trim lagged differences.
func adfRegression(x, dx []float64, trim, lag int) (*olsFit, error) {
	nobs := len(dx) - trim
	if nobs <= lag+2 {
		return nil, ErrTooShort
	}

	design := mat.NewDense(nobs, lag+2, nil)
	y := mat.NewVecDense(nobs, nil)
	for i := 0; i < nobs; i++ {
		t := trim + i
		y.SetVec(i, dx[t])
		design.Set(i, 0, 1)
		design.Set(i, 1, x[t])
		for j := 1; j <= lag; j++ {
			design.Set(i, 1+j, dx[t-j])
		}
	}
	return ols(design, y)
}

type olsFit struct {
	coef   []float64
	stdErr []float64
	ssr    float64
	nobs   int
}

// aic matches the Gaussian log-likelihood convention of OLS packages.
func (f *olsFit) aic() float64 {
	n := float64(f.nobs)
	llf := -n / 2 * (math.Log(2*math.Pi) + math.Log(f.ssr/n) + 1)
	return -2*llf + 2*float64(len(f.coef))
}

// ols solves the normal equations and returns coefficients with their
// standard errors.
func ols(x *mat.Dense, y *mat.VecDense) (*olsFit, error) {
	n, k := x.Dims()
	if n <= k {
		return nil, ErrTooShort
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("singular regression: %w", err)
	}

	var xty, beta, fitted, resid mat.VecDense
	xty.MulVec(x.T(), y)
	beta.MulVec(&inv, &xty)
	fitted.MulVec(x, &beta)
	resid.SubVec(y, &fitted)

	ssr := mat.Dot(&resid, &resid)
	s2 := ssr / float64(n-k)

	fit := &olsFit{
		coef:   make([]float64, k),
		stdErr: make([]float64, k),
		ssr:    ssr,
		nobs:   n,
	}
	for i := 0; i < k; i++ {
		fit.coef[i] = beta.AtVec(i)
		fit.stdErr[i] = math.Sqrt(s2 * inv.At(i, i))
	}
	return fit, nil
}

// MacKinnon (1994) response surface for the constant-only regression with
// one integrated variable.
var (
	tauMax      = 2.74
	tauMin      = -18.83
	tauStar     = -1.61
	tauSmallP   = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP   = []float64{1.7339, 0.93202, -0.12745, -0.010368}
	tauCritical = map[string][]float64{
		"1%":  {-3.43035, -6.5393, -16.786, -79.433},
		"5%":  {-2.86154, -2.8903, -4.234, -40.040},
		"10%": {-2.56677, -1.5384, -2.809, 0},
	}
)

// mackinnonPValue returns the approximate p-value of an ADF statistic.
func mackinnonPValue(stat float64) float64 {
	switch {
	case math.IsNaN(stat):
		return math.NaN()
	case stat > tauMax:
		return 1
	case stat < tauMin:
		return 0
	}
	coef := tauLargeP
	if stat <= tauStar {
		coef = tauSmallP
	}
	return distuv.UnitNormal.CDF(polyval(coef, stat))
}

// mackinnonCritical returns the finite-sample critical values (MacKinnon 2010).
func mackinnonCritical(nobs int) map[string]float64 {
	inv := 1 / float64(nobs)
	out := make(map[string]float64, len(tauCritical))
	for level, c := range tauCritical {
		out[level] = polyval(c, inv)
	}
	return out
}

// polyval evaluates c[0] + c[1]*x + c[2]*x^2 + ...
func polyval(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
}

// IsStationary reports whether the level-stationarity null survives at 5%.
func (r *KPSSResult) IsStationary() bool {
	return r.PValue >= SignificanceLevel
}

var (
	kpssLevels    = []float64{0.10, 0.05, 0.025, 0.01}
	kpssCritLevel = []float64{0.347, 0.463, 0.574, 0.739}
	kpssCritTrend = []float64{0.119, 0.146, 0.176, 0.216}
)

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test. The null
// hypothesis is stationarity around a level ("c") or a trend ("ct").
// A non-positive nlags uses ceil(12*(n/100)^(1/4)).
func KPSS(series *timeseries.Series, regression string, nlags int) (*KPSSResult, error) {
	n := series.Len()
	if n < 10 {
		return nil, fmt.Errorf("kpss on %d observations: %w", n, ErrTooShort)
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	resid := make([]float64, n)
	crit := kpssCritLevel
	if regression == "ct" {
		t := make([]float64, n)
		for i := range t {
			t[i] = float64(i)
		}
		a, b := stat.LinearRegression(t, series.Values, nil, false)
		for i, v := range series.Values {
			resid[i] = v - a - b*t[i]
		}
		crit = kpssCritTrend
	} else {
		mean := stat.Mean(series.Values, nil)
		for i, v := range series.Values {
			resid[i] = v - mean
		}
	}

	// Newey-West long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range resid {
		s2 += r * r
	}
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += resid[i] * resid[i-l]
		}
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	s2 /= float64(n)
	if s2 <= 0 {
		return nil, ErrConstantSeries
	}

	eta, cum := 0.0, 0.0
	for _, r := range resid {
		cum += r
		eta += cum * cum
	}
	kpss := eta / (float64(n) * float64(n) * s2)

	crits := make(map[string]float64, len(crit))
	for i, level := range []string{"10%", "5%", "2.5%", "1%"} {
		crits[level] = crit[i]
	}
	return &KPSSResult{
		Statistic:    kpss,
		PValue:       interpolatePValue(kpss, crit, kpssLevels),
		Lags:         nlags,
		CriticalVals: crits,
	}, nil
}

// interpolatePValue linearly interpolates a p-value from an ascending table
// of critical values, clipping at the table ends.
func interpolatePValue(x float64, crit, pvals []float64) float64 {
	if x <= crit[0] {
		return pvals[0]
	}
	last := len(crit) - 1
	if x >= crit[last] {
		return pvals[last]
	}
	for i := 1; i <= last; i++ {
		if x <= crit[i] {
			w := (x - crit[i-1]) / (crit[i] - crit[i-1])
			return pvals[i-1] + w*(pvals[i]-pvals[i-1])
		}
	}
	return pvals[last]
}
