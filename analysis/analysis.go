// Package analysis describes a city's daily weather history.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/weathercast/stats"
	"github.com/sartorproj/weathercast/timeseries"
	"github.com/sartorproj/weathercast/weather"
)

// RollingWindow is the length of the rolling means, in days.
const RollingWindow = 7

// DecompositionPeriod is the yearly cycle of daily data.
const DecompositionPeriod = 365

// HistogramBins is the number of precipitation histogram bins.
const HistogramBins = 30

// Stats summarises one column. Std is the sample standard deviation and the
// quartiles interpolate linearly between order statistics.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Yearly aggregates one calendar year.
type Yearly struct {
	Year               int     `json:"year"`
	MeanTemperature    float64 `json:"mean_temperature"`
	TotalPrecipitation float64 `json:"total_precipitation"`
}

// Histogram counts values between consecutive Edges.
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// Report is the full analysis of one frame.
type Report struct {
	Features               []string                   `json:"features"`
	Summary                map[string]Stats           `json:"summary"`
	RollingTemperature     *timeseries.Series         `json:"-"`
	RollingPrecipitation   *timeseries.Series         `json:"-"`
	PrecipitationHistogram Histogram                  `json:"precipitation_histogram"`
	Yearly                 []Yearly                   `json:"yearly"`
	Decomposition          *stats.DecompositionResult `json:"-"`
}

// Describe summarises the non-missing values of a series.
func Describe(s *timeseries.Series) Stats {
	values := append([]float64(nil), s.DropNaN().Values...)
	n := len(values)
	if n == 0 {
		nan := math.NaN()
		return Stats{Mean: nan, Std: nan, Min: nan, Q25: nan, Median: nan, Q75: nan, Max: nan}
	}
	sort.Float64s(values)

	std := math.NaN()
	if n > 1 {
		std = stat.StdDev(values, nil)
	}
	return Stats{
		Count:  n,
		Mean:   stat.Mean(values, nil),
		Std:    std,
		Min:    values[0],
		Q25:    quantile(values, 0.25),
		Median: quantile(values, 0.5),
		Q75:    quantile(values, 0.75),
		Max:    values[n-1],
	}
}

// quantile interpolates at position p*(n-1) of sorted values.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Analyze builds the report. The frame must carry display-named mean
// temperature and precipitation columns. The decomposition is skipped when
// fewer than two years of data are available.
func Analyze(frame *timeseries.Frame) (*Report, error) {
	temp, err := frame.Column(weather.MeanTemperature)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	precip, err := frame.Column(weather.TotalPrecipitation)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}

	r := &Report{
		Features:               append([]string(nil), frame.Columns...),
		Summary:                make(map[string]Stats, len(frame.Columns)),
		RollingTemperature:     temp.MovingAverage(RollingWindow),
		RollingPrecipitation:   precip.MovingAverage(RollingWindow),
		PrecipitationHistogram: histogram(precip.DropNaN().Values, HistogramBins),
		Yearly:                 yearly(temp, precip),
	}
	for _, name := range frame.Columns {
		col, err := frame.Column(name)
		if err != nil {
			return nil, fmt.Errorf("analysis: %w", err)
		}
		r.Summary[name] = Describe(col)
	}

	clean := temp.DropNaN()
	if clean.Len() >= 2*DecompositionPeriod {
		d, err := stats.Decompose(clean, DecompositionPeriod)
		if err != nil {
			return nil, fmt.Errorf("analysis: %w", err)
		}
		r.Decomposition = d
	}
	return r, nil
}

func histogram(values []float64, bins int) Histogram {
	if len(values) == 0 {
		return Histogram{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		hi = lo + 1
	}
	edges := make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	// the last divider is exclusive in stat.Histogram
	edges[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, edges, sorted, nil)
	return Histogram{Edges: edges, Counts: counts}
}

func yearly(temp, precip *timeseries.Series) []Yearly {
	type acc struct {
		tempSum   float64
		tempN     int
		precipSum float64
	}
	byYear := make(map[int]*acc)
	var years []int
	get := func(y int) *acc {
		a, ok := byYear[y]
		if !ok {
			a = &acc{}
			byYear[y] = a
			years = append(years, y)
		}
		return a
	}
	for i, v := range temp.Values {
		a := get(temp.Timestamps[i].Year())
		if !math.IsNaN(v) {
			a.tempSum += v
			a.tempN++
		}
	}
	for i, v := range precip.Values {
		a := get(precip.Timestamps[i].Year())
		if !math.IsNaN(v) {
			a.precipSum += v
		}
	}
	sort.Ints(years)

	out := make([]Yearly, 0, len(years))
	for _, y := range years {
		a := byYear[y]
		mean := math.NaN()
		if a.tempN > 0 {
			mean = a.tempSum / float64(a.tempN)
		}
		out = append(out, Yearly{Year: y, MeanTemperature: mean, TotalPrecipitation: a.precipSum})
	}
	return out
}
