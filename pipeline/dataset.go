package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/sartorproj/weathercast/timeseries"
	"github.com/sartorproj/weathercast/weather"
)

var datasetName = regexp.MustCompile(`^(.+)_(\d{4}-\d{2}-\d{2})\.csv$`)

// Dataset is the newest <City>_<YYYY-MM-DD>.csv file of a city.
type Dataset struct {
	City    string    `json:"city"`
	Through time.Time `json:"through"`
	Path    string    `json:"-"`
}

// Discover lists one dataset per city, the one with the latest date, sorted
// by city name.
func Discover(dir string) ([]Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading datasets: %w", err)
	}

	latest := make(map[string]Dataset)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := datasetName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		through, err := time.Parse(timeseries.DateLayout, m[2])
		if err != nil {
			continue
		}
		if cur, ok := latest[m[1]]; ok && !through.After(cur.Through) {
			continue
		}
		latest[m[1]] = Dataset{City: m[1], Through: through, Path: filepath.Join(dir, e.Name())}
	}

	out := make([]Dataset, 0, len(latest))
	for _, d := range latest {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out, nil
}

// LoadCity reads the five raw weather columns of a dataset, renames them to
// their display names and fills missing values.
func LoadCity(path string) (*timeseries.Frame, error) {
	opts := timeseries.DefaultCSVOptions()
	opts.Columns = weather.RawColumns()
	raw, err := timeseries.LoadFrame(path, opts)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	renamed, err := raw.Rename(weather.RenameMapping())
	if err != nil {
		return nil, err
	}
	return renamed.Clean()
}
