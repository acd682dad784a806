package server

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sartorproj/weathercast/analysis"
	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/timeseries"
	"github.com/sartorproj/weathercast/weather"
)

// num maps NaN and infinities to JSON null.
func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nums(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = num(v)
	}
	return out
}

// FrameResponse is a date-indexed table.
type FrameResponse struct {
	Dates   []string              `json:"dates"`
	Columns map[string][]*float64 `json:"columns"`
	Order   []string              `json:"order"`
}

func frameResponse(f *timeseries.Frame) *FrameResponse {
	if f == nil {
		return nil
	}
	r := &FrameResponse{
		Dates:   make([]string, f.Len()),
		Columns: make(map[string][]*float64, len(f.Columns)),
		Order:   append([]string(nil), f.Columns...),
	}
	for i, d := range f.Dates {
		r.Dates[i] = d.Format(timeseries.DateLayout)
	}
	for _, name := range f.Columns {
		r.Columns[name] = nums(f.Values(name))
	}
	return r
}

// TableResponse is a summary table rendered as strings.
type TableResponse struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Health handles health check requests
func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// NotFound handles unmatched routes
func (s *Server) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error: ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found",
			Path:    c.Path(),
		},
	})
}

// Cities lists the cities with a dataset.
func (s *Server) Cities(c *fiber.Ctx) error {
	datasets, err := s.svc.Cities()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"cities": datasets})
}

// StationarityResponse is one ADF row.
type StationarityResponse struct {
	Feature    string   `json:"feature"`
	Statistic  *float64 `json:"adf_statistic"`
	PValue     *float64 `json:"p_value"`
	Stationary bool     `json:"stationary"`
	Error      string   `json:"error,omitempty"`
}

// Stationarity runs the ADF test on every feature of a city.
func (s *Server) Stationarity(c *fiber.Ctx) error {
	rows, err := s.svc.Stationarity(c.Params("city"))
	if err != nil {
		return err
	}
	out := make([]StationarityResponse, len(rows))
	for i, r := range rows {
		out[i] = StationarityResponse{Feature: r.Feature, Stationary: r.Stationary, Error: r.Error}
		if r.Error == "" {
			out[i].Statistic = num(r.Statistic)
			out[i].PValue = num(r.PValue)
		}
	}
	return c.JSON(fiber.Map{"city": c.Params("city"), "results": out})
}

// RunResponse describes a finished forecast run.
type RunResponse struct {
	RunID           string         `json:"run_id"`
	City            string         `json:"city"`
	Model           string         `json:"model"`
	Horizon         int            `json:"horizon"`
	Failed          []string       `json:"failed"`
	OverallMSE      *float64       `json:"overall_mse"`
	OverallAccuracy *float64       `json:"overall_accuracy"`
	Forecast        *FrameResponse `json:"forecast"`
	Summary         TableResponse  `json:"summary"`
	ElapsedSeconds  float64        `json:"elapsed_seconds"`
}

// Forecast runs a model for a city. The horizon defaults to 7 days.
func (s *Server) Forecast(c *fiber.Ctx) error {
	model, err := compare.ParseModel(c.Params("model"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	horizon := 7
	if h := c.Query("horizon"); h != "" {
		horizon, err = strconv.Atoi(h)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "horizon must be an integer")
		}
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	run, err := s.svc.Forecast(ctx, model, c.Params("city"), horizon)
	if err != nil {
		return err
	}

	failed := run.Failed
	if failed == nil {
		failed = []string{}
	}
	return c.Status(fiber.StatusCreated).JSON(RunResponse{
		RunID:           run.ID,
		City:            run.City,
		Model:           string(run.Model),
		Horizon:         run.Horizon,
		Failed:          failed,
		OverallMSE:      num(run.Overall.MSE),
		OverallAccuracy: num(run.Overall.Accuracy),
		Forecast:        frameResponse(run.Forecast),
		Summary:         TableResponse{Header: run.Summary.Header, Rows: run.Summary.Records()},
		ElapsedSeconds:  run.Elapsed.Seconds(),
	})
}

// Comparison joins the three stored forecasts of one feature. format=csv
// returns the table as CSV.
func (s *Server) Comparison(c *fiber.Ctx) error {
	feature := c.Query("feature", weather.MeanTemperature)
	ctx, cancel := s.requestContext(c)
	defer cancel()

	table, err := s.svc.Compare(ctx, c.Params("city"), feature)
	if err != nil {
		return err
	}
	if strings.EqualFold(c.Query("format"), "csv") {
		var buf bytes.Buffer
		if err := timeseries.WriteFrame(&buf, table, 2); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Send(buf.Bytes())
	}
	return c.JSON(fiber.Map{"city": c.Params("city"), "feature": feature, "table": frameResponse(table)})
}

// StatsResponse is a null-safe analysis.Stats.
type StatsResponse struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q25    *float64 `json:"q25"`
	Median *float64 `json:"median"`
	Q75    *float64 `json:"q75"`
	Max    *float64 `json:"max"`
}

// YearlyResponse is a null-safe analysis.Yearly.
type YearlyResponse struct {
	Year               int      `json:"year"`
	MeanTemperature    *float64 `json:"mean_temperature"`
	TotalPrecipitation *float64 `json:"total_precipitation"`
}

// AnalysisResponse is the descriptive analysis of a city.
type AnalysisResponse struct {
	City                   string                   `json:"city"`
	Summary                map[string]StatsResponse `json:"summary"`
	RollingTemperature     []*float64               `json:"rolling_temperature"`
	RollingPrecipitation   []*float64               `json:"rolling_precipitation"`
	PrecipitationHistogram analysis.Histogram       `json:"precipitation_histogram"`
	Yearly                 []YearlyResponse         `json:"yearly"`
	Decomposed             bool                     `json:"decomposed"`
}

// Analysis describes the dataset of a city.
func (s *Server) Analysis(c *fiber.Ctx) error {
	city := c.Params("city")
	rep, err := s.svc.Analyze(city)
	if err != nil {
		return err
	}
	out := AnalysisResponse{
		City:                   city,
		Summary:                make(map[string]StatsResponse, len(rep.Summary)),
		RollingTemperature:     nums(rep.RollingTemperature.Values),
		RollingPrecipitation:   nums(rep.RollingPrecipitation.Values),
		PrecipitationHistogram: rep.PrecipitationHistogram,
		Decomposed:             rep.Decomposition != nil,
	}
	for name, st := range rep.Summary {
		out.Summary[name] = StatsResponse{
			Count:  st.Count,
			Mean:   num(st.Mean),
			Std:    num(st.Std),
			Min:    num(st.Min),
			Q25:    num(st.Q25),
			Median: num(st.Median),
			Q75:    num(st.Q75),
			Max:    num(st.Max),
		}
	}
	for _, y := range rep.Yearly {
		out.Yearly = append(out.Yearly, YearlyResponse{
			Year:               y.Year,
			MeanTemperature:    num(y.MeanTemperature),
			TotalPrecipitation: num(y.TotalPrecipitation),
		})
	}
	return c.JSON(out)
}
