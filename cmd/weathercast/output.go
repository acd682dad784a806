package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/sartorproj/weathercast/analysis"
	"github.com/sartorproj/weathercast/report"
)

// writeAnalysis prints the descriptive statistics followed by the yearly
// aggregates, both as CSV.
func writeAnalysis(w io.Writer, features []string, summary map[string]analysis.Stats, yearly []analysis.Yearly) error {
	names := append([]string(nil), features...)
	if len(names) == 0 {
		for name := range summary {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	desc := &report.Table{Header: []string{"Feature", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"}}
	for _, name := range names {
		st, ok := summary[name]
		if !ok {
			continue
		}
		desc.Rows = append(desc.Rows, []any{name, st.Count, st.Mean, st.Std, st.Min, st.Q25, st.Median, st.Q75, st.Max})
	}
	if err := report.WriteCSV(w, desc); err != nil {
		return err
	}

	years := &report.Table{Header: []string{"Year", "Mean Temperature", "Total Precipitation"}}
	for _, y := range yearly {
		years.Rows = append(years.Rows, []any{y.Year, y.MeanTemperature, y.TotalPrecipitation})
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return report.WriteCSV(w, years)
}
