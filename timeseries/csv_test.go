package timeseries

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadFrame(t *testing.T) {
	csvData := `date,temperature_2m_mean,precipitation_sum
2020-01-01,10.5,0
2020-01-02,11.0,1.2
2020-01-03,9.5,0.4`

	f, err := ReadFrame(strings.NewReader(csvData), DefaultCSVOptions())
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if f.Len() != 3 {
		t.Errorf("Expected 3 rows, got %d", f.Len())
	}
	if len(f.Columns) != 2 || f.Columns[0] != "temperature_2m_mean" {
		t.Errorf("Unexpected columns %v", f.Columns)
	}

	expected := []float64{0, 1.2, 0.4}
	for i, v := range expected {
		if got := f.Values("precipitation_sum")[i]; got != v {
			t.Errorf("Value at index %d: expected %f, got %f", i, v, got)
		}
	}
}

func TestReadFrameTimezoneDates(t *testing.T) {
	csvData := `date,x
2020-01-01 00:00:00+00:00,1
2020-01-02 00:00:00+00:00,2`

	f, err := ReadFrame(strings.NewReader(csvData), nil)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	want := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	if !f.Dates[1].Equal(want) {
		t.Errorf("Expected %v, got %v", want, f.Dates[1])
	}
}

func TestReadFrameMissingValues(t *testing.T) {
	csvData := `date,y
2020-01-01,100
2020-01-02,NA
2020-01-03,
2020-01-04,NaN`

	f, err := ReadFrame(strings.NewReader(csvData), nil)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if f.Len() != 4 {
		t.Fatalf("Expected missing cells to keep their rows, got %d rows", f.Len())
	}
	for i := 1; i < 4; i++ {
		if !math.IsNaN(f.Values("y")[i]) {
			t.Errorf("Expected NaN at index %d, got %f", i, f.Values("y")[i])
		}
	}
}

func TestReadFrameSelectsColumns(t *testing.T) {
	csvData := `date,a,b,c
2020-01-01,1,2,3
2020-01-02,4,5,6`

	opts := DefaultCSVOptions()
	opts.Columns = []string{"c", "a"}

	f, err := ReadFrame(strings.NewReader(csvData), opts)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if len(f.Columns) != 2 || f.Columns[0] != "c" {
		t.Errorf("Expected columns [c a], got %v", f.Columns)
	}

	opts.Columns = []string{"missing"}
	if _, err := ReadFrame(strings.NewReader(csvData), opts); err == nil {
		t.Error("Expected error for unknown column")
	}
}

func TestReadFrameSortsAndRejectsDuplicates(t *testing.T) {
	unordered := `date,y
2020-01-03,3
2020-01-01,1
2020-01-02,2`

	f, err := ReadFrame(strings.NewReader(unordered), nil)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}
	if f.Values("y")[0] != 1 || f.Values("y")[2] != 3 {
		t.Errorf("Expected rows sorted by date, got %v", f.Values("y"))
	}

	duplicated := `date,y
2020-01-01,1
2020-01-01,2`
	if _, err := ReadFrame(strings.NewReader(duplicated), nil); err == nil {
		t.Error("Expected error for duplicate dates")
	}
}

func TestReadFrameErrors(t *testing.T) {
	cases := map[string]string{
		"empty":      ``,
		"no date":    "x,y\n1,2",
		"no rows":    "date,y",
		"bad date":   "date,y\nyesterday,1",
		"bad number": "date,y\n2020-01-01,abc",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadFrame(strings.NewReader(data), nil); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestWriteFrameRoundTrip(t *testing.T) {
	f, err := FrameFromRows(DailyDates(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 2),
		[]string{"ARIMA"}, [][]float64{{1.23456}, {math.NaN()}})
	if err != nil {
		t.Fatalf("FrameFromRows failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, f, 2); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	want := "date,ARIMA\n2024-05-01,1.23\n2024-05-02,\n"
	if buf.String() != want {
		t.Errorf("Unexpected CSV:\n%s", buf.String())
	}

	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	if err := SaveFrame(f, path, -1); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}
	loaded, err := LoadFrame(path, nil)
	if err != nil {
		t.Fatalf("LoadFrame failed: %v", err)
	}
	if loaded.Values("ARIMA")[0] != 1.23456 {
		t.Errorf("Expected full precision, got %f", loaded.Values("ARIMA")[0])
	}
}
