package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sartorproj/weathercast/forecast"
	"github.com/sartorproj/weathercast/sequence"
)

// Table is a header and rows of string, int, bool or float64 cells. NaN
// cells are written empty.
type Table struct {
	Header []string
	Rows   [][]any
}

// SummaryHeader names the columns of a classical model summary.
var SummaryHeader = []string{
	"Feature", "Order", "AR Coefficient", "MA Coefficient", "Sigma2", "AIC", "BIC",
	"NObs", "Ljung-Box p", "Differenced",
	"MSE", "MAE", "R²", "MAPE (%)", "SMAPE (%)", "Accuracy (%)", "Error",
}

// SummaryTable has one row per feature. A failed feature only carries its
// name and error.
func SummaryTable(summaries []forecast.Summary) *Table {
	t := &Table{Header: SummaryHeader}
	for _, s := range summaries {
		if s.Failed() {
			row := make([]any, len(SummaryHeader))
			for i := range row {
				row[i] = ""
			}
			row[0] = s.Feature
			row[len(row)-1] = s.Err.Error()
			t.Rows = append(t.Rows, row)
			continue
		}
		m := s.Metrics
		t.Rows = append(t.Rows, []any{
			s.Feature, s.Order, s.AR1, s.MA1, s.Sigma2, s.AIC, s.BIC,
			s.NObs, s.LjungBoxP, s.Differenced,
			m.MSE, m.MAE, m.R2, m.MAPE, m.SMAPE, m.Accuracy, "",
		})
	}
	return t
}

// SequenceSummaryTable lists the losses and scores of a sequence run.
func SequenceSummaryTable(res *sequence.Result) *Table {
	val := math.NaN()
	if res.ValLoss != nil {
		val = *res.ValLoss
	}
	e := res.Evaluation
	return &Table{
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Train Loss", round4(res.TrainLoss)},
			{"Test Loss", round4(val)},
			{"MSE", e.MSE},
			{"MAE", e.MAE},
			{"R²", e.R2},
			{"Percentage Accuracy (%)", res.Accuracy},
			{"Overall Accuracy (%)", e.OverallAccuracy},
		},
	}
}

func round4(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Round(v*1e4) / 1e4
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Records renders every row as strings, the way WriteCSV writes them.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		record := make([]string, len(t.Header))
		for i := range record {
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}
		out[r] = record
	}
	return out
}

// WriteCSV writes t as comma separated values.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	for _, record := range t.Records() {
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes t to path, creating parent directories.
func SaveCSV(path string, t *Table) error {
	return saveWith(path, func(w io.Writer) error { return WriteCSV(w, t) })
}

func saveWith(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
