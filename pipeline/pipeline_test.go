package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/config"
	"github.com/sartorproj/weathercast/forecast"
	"github.com/sartorproj/weathercast/logging"
	"github.com/sartorproj/weathercast/notify"
	"github.com/sartorproj/weathercast/store"
	"github.com/sartorproj/weathercast/telemetry"
	"github.com/sartorproj/weathercast/weather"
)

var firstDay = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// writeDataset writes n days of synthetic raw weather with a gap in the
// temperature column and one unused column.
func writeDataset(t *testing.T, dir, city string, through time.Time, n int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(len(city)) + 7))

	var b strings.Builder
	b.WriteString("date,temperature_2m_mean,apparent_temperature_mean,precipitation_sum,daylight_duration,wind_speed_10m_max,weather_code\n")
	for i := 0; i < n; i++ {
		season := math.Sin(2 * math.Pi * float64(i) / 365)
		temp := 10 + 8*season + rng.NormFloat64()
		feels := temp - 2 + 0.5*rng.NormFloat64()
		precip := 0.0
		if rng.Float64() < 0.4 {
			precip = 5 * rng.Float64()
		}
		daylight := 43200 + 10000*season + 50*rng.NormFloat64()
		wind := 15 + 4*rng.NormFloat64()

		tempCell := fmt.Sprintf("%.2f", temp)
		if i == 20 || i == 21 {
			tempCell = ""
		}
		fmt.Fprintf(&b, "%s,%s,%.2f,%.2f,%.1f,%.2f,%d\n",
			firstDay.AddDate(0, 0, i).Format("2006-01-02"), tempCell, feels, precip, daylight, wind, rng.Intn(4))
	}

	path := filepath.Join(dir, city+"_"+through.Format("2006-01-02")+".csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.RunEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.RunEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc       *Service
	cfg       *config.Config
	publisher *recordingPublisher
	store     *store.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.AssetsDir = t.TempDir()
	cfg.Report.XLSX = true
	cfg.Forecast.Parallelism = 2
	cfg.Sequence.NSteps = 10
	cfg.Sequence.Units = 6
	cfg.Sequence.Epochs = 3
	writeDataset(t, cfg.DataDir, "Berlin", firstDay.AddDate(0, 0, 159), 160)

	mem, err := store.NewMemory(16, store.NewDir(cfg.AssetsDir))
	require.NoError(t, err)
	pub := &recordingPublisher{}

	svc, err := New(context.Background(), cfg,
		WithStore(mem),
		WithPublisher(pub),
		WithMetrics(telemetry.NewWithRegistry(prometheus.NewRegistry())),
		WithLogger(logging.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return &fixture{svc: svc, cfg: cfg, publisher: pub, store: mem}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "Berlin", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 5)
	newest := writeDataset(t, dir, "Berlin", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 5)
	writeDataset(t, dir, "New York", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Oslo_2024-01-01.csv"), 0o755))

	got, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Berlin", got[0].City)
	assert.Equal(t, newest, got[0].Path)
	assert.Equal(t, "New York", got[1].City)

	_, err = Discover(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadCity(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "Lima", firstDay.AddDate(0, 0, 39), 40)

	frame, err := LoadCity(path)
	require.NoError(t, err)
	assert.Equal(t, weather.Features(), frame.Columns)
	assert.Equal(t, 40, frame.Len())
	assert.False(t, frame.HasNaN())

	temp := frame.Values(weather.MeanTemperature)
	assert.InDelta(t, temp[19]+(temp[22]-temp[19])/3, temp[20], 1e-9)
}

func TestStationarity(t *testing.T) {
	f := newFixture(t)
	rows, err := f.svc.Stationarity("Berlin")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for i, row := range rows {
		assert.Equal(t, weather.Features()[i], row.Feature)
		assert.Empty(t, row.Error)
		assert.Equal(t, row.PValue < 0.05, row.Stationary)
	}

	_, err = f.svc.Stationarity("Atlantis")
	assert.ErrorIs(t, err, ErrUnknownCity)
}

func TestRunARIMA(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	run, err := f.svc.RunARIMA(ctx, "Berlin", 7)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, compare.ARIMA, run.Model)
	assert.Empty(t, run.Failed)
	require.NotNil(t, run.Forecast)
	assert.Equal(t, weather.Features(), run.Forecast.Columns)
	assert.Equal(t, firstDay.AddDate(0, 0, 160), run.Forecast.Dates[0])
	for _, name := range run.Forecast.Columns {
		for _, v := range run.Forecast.Values(name) {
			assert.Equal(t, math.Round(v*100)/100, v)
		}
	}

	stored, err := f.store.Get(ctx, "Berlin", compare.ARIMA)
	require.NoError(t, err)
	assert.Same(t, run.Forecast, stored)
	layout := f.svc.layout
	assert.FileExists(t, layout.PredictionsPath(compare.ARIMA, "Berlin"))
	assert.FileExists(t, layout.SummaryPath(compare.ARIMA, "Berlin", ".csv"))
	assert.FileExists(t, layout.SummaryPath(compare.ARIMA, "Berlin", ".xlsx"))

	require.Len(t, f.publisher.events, 1)
	e := f.publisher.events[0]
	assert.Equal(t, run.ID, e.RunID)
	assert.Equal(t, "ARIMA", e.Model)
	assert.Equal(t, 7, e.Horizon)
	assert.Equal(t, weather.Features(), e.Features)
	assert.Equal(t, []string{}, e.Failed)
}

func TestRunAllFeaturesFailedClearsStoredTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var b strings.Builder
	b.WriteString("date,temperature_2m_mean,apparent_temperature_mean,precipitation_sum,daylight_duration,wind_speed_10m_max\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "%s,12,10,0,43200,15\n", firstDay.AddDate(0, 0, i).Format("2006-01-02"))
	}
	path := filepath.Join(f.cfg.DataDir, "Flatland_"+firstDay.AddDate(0, 0, 59).Format("2006-01-02")+".csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	stale, err := f.svc.Load("Berlin")
	require.NoError(t, err)
	require.NoError(t, f.store.Put(ctx, "Flatland", compare.ARIMA, stale))

	run, err := f.svc.RunARIMA(ctx, "Flatland", 5)
	require.NoError(t, err)
	assert.Nil(t, run.Forecast)
	assert.ElementsMatch(t, weather.Features(), run.Failed)

	_, err = f.store.Get(ctx, "Flatland", compare.ARIMA)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoFileExists(t, f.svc.layout.PredictionsPath(compare.ARIMA, "Flatland"))
	assert.FileExists(t, f.svc.layout.SummaryPath(compare.ARIMA, "Flatland", ".csv"))
}

func TestRunHorizonBounds(t *testing.T) {
	f := newFixture(t)
	for _, h := range []int{0, 31} {
		_, err := f.svc.RunARIMA(context.Background(), "Berlin", h)
		assert.ErrorIs(t, err, forecast.ErrInvalidHorizon)
	}
	assert.Empty(t, f.publisher.events)
}

func TestRunUnknownCity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Forecast(context.Background(), compare.SARIMA, "Atlantis", 5)
	assert.ErrorIs(t, err, ErrUnknownCity)
}

func TestRunPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = fmt.Errorf("bus down")
	_, err := f.svc.RunARIMA(context.Background(), "Berlin", 3)
	require.NoError(t, err)
	assert.Len(t, f.publisher.events, 1)
}

func TestRunLSTM(t *testing.T) {
	f := newFixture(t)
	run, err := f.svc.RunLSTM(context.Background(), "Berlin", 20)
	require.NoError(t, err)
	require.NotNil(t, run.Sequence)
	assert.Equal(t, 20, run.Forecast.Len())
	assert.Equal(t, weather.Features(), run.Forecast.Columns)
	assert.Equal(t, "Train Loss", run.Summary.Rows[0][0])

	// zero-rain days make the cell-wise percentage accuracy meaningless;
	// the overall figure leaves precipitation out like the classical runs
	eval := run.Sequence.Evaluation
	require.Len(t, eval.Features, len(weather.Features()))
	var accs []float64
	for name, b := range eval.Features {
		if !weather.IsPrecipitation(name) {
			accs = append(accs, b.Accuracy)
		}
	}
	sum := 0.0
	for _, a := range accs {
		sum += a
	}
	assert.InDelta(t, sum/float64(len(accs)), run.Overall.Accuracy, 1e-9)
	assert.Equal(t, eval.Overall, run.Overall)
	assert.Greater(t, run.Overall.Accuracy, eval.PercentageAccuracy)
	assert.FileExists(t, f.svc.layout.SummaryPath(compare.LSTM, "Berlin", ".csv"))
}

func TestCompare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Compare(ctx, "Berlin", weather.MeanTemperature)
	require.ErrorIs(t, err, compare.ErrUnavailable)

	for _, m := range compare.Models() {
		_, err := f.svc.Forecast(ctx, m, "Berlin", 5)
		require.NoError(t, err, m)
	}

	table, err := f.svc.Compare(ctx, "Berlin", weather.MeanTemperature)
	require.NoError(t, err)
	assert.Equal(t, []string{"LSTM", "ARIMA", "SARIMA"}, table.Columns)
	assert.Equal(t, 5, table.Len())
	assert.FileExists(t, f.svc.layout.ComparisonPath("Berlin"))

	_, err = f.svc.Compare(ctx, "Berlin", "Humidity")
	assert.ErrorIs(t, err, ErrUnknownFeature)
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t)
	rep, err := f.svc.Analyze("Berlin")
	require.NoError(t, err)
	assert.Equal(t, 160, rep.Summary[weather.MeanTemperature].Count)
	assert.Nil(t, rep.Decomposition)
	require.Len(t, rep.Yearly, 1)
	assert.Equal(t, 2023, rep.Yearly[0].Year)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.AssetsDir = t.TempDir()

	s, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, s)

	cfg.Store.CacheSize = 0
	s, err = OpenStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &store.Dir{}, s)

	cfg.Store.Type = "redis"
	cfg.Store.Redis.URL = "redis://127.0.0.1:1/0"
	_, err = OpenStore(ctx, cfg)
	assert.Error(t, err)
}
