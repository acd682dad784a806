package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout used when writing dates.
const DateLayout = "2006-01-02"

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn string   // Column name for dates (default: "date")
	Columns    []string // Columns to load (default: every other column)
	Delimiter  rune     // Field delimiter (default: ',')
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn: "date",
		Delimiter:  ',',
	}
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// ParseDate parses a dataset date and truncates it to the UTC day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	for _, layout := range dateLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			ts = ts.UTC()
			return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// LoadFrame loads a frame from a CSV file.
func LoadFrame(filename string, opts *CSVOptions) (*Frame, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadFrame(file, opts)
}

// ReadFrame reads a date-indexed frame. Missing cells become NaN; rows are
// sorted by date and duplicate dates are rejected.
func ReadFrame(r io.Reader, opts *CSVOptions) (*Frame, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	dateColumn := opts.DateColumn
	if dateColumn == "" {
		dateColumn = "date"
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty CSV")
		}
		return nil, err
	}

	dateIdx := -1
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\"\ufeff"))
		index[h] = i
		if h == dateColumn {
			dateIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("date column %q not found", dateColumn)
	}

	columns := opts.Columns
	if len(columns) == 0 {
		for _, h := range header {
			h = strings.TrimSpace(strings.Trim(h, "\"\ufeff"))
			if h != dateColumn && h != "" {
				columns = append(columns, h)
			}
		}
	}
	colIdx := make([]int, len(columns))
	for j, name := range columns {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		colIdx[j] = i
	}

	type row struct {
		date   time.Time
		values []float64
	}
	var rows []row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		date, err := ParseDate(record[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values := make([]float64, len(columns))
		for j, i := range colIdx {
			if i >= len(record) {
				values[j] = math.NaN()
				continue
			}
			v, err := parseCell(record[i])
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, columns[j], err)
			}
			values[j] = v
		}
		rows = append(rows, row{date: date, values: values})
	}

	if len(rows) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	dates := make([]time.Time, len(rows))
	matrix := make([][]float64, len(rows))
	for i, r := range rows {
		if i > 0 && r.date.Equal(rows[i-1].date) {
			return nil, fmt.Errorf("duplicate date %s", r.date.Format(DateLayout))
		}
		dates[i] = r.date
		matrix[i] = r.values
	}
	return FrameFromRows(dates, columns, matrix)
}

// SaveFrame writes a frame to a CSV file, creating parent directories.
func SaveFrame(f *Frame, filename string, decimals int) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteFrame(file, f, decimals); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteFrame writes a frame as CSV with a leading date column. A negative
// decimals value writes the shortest exact representation. NaN is written
// as an empty cell.
func WriteFrame(w io.Writer, f *Frame, decimals int) error {
	writer := csv.NewWriter(w)

	header := append([]string{"date"}, f.Columns...)
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i, date := range f.Dates {
		record[0] = date.Format(DateLayout)
		for j, name := range f.Columns {
			v := f.data[name][i]
			if math.IsNaN(v) {
				record[j+1] = ""
				continue
			}
			if decimals >= 0 {
				v = RoundTo(v, decimals)
			}
			record[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
