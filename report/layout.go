// Package report writes forecast, summary and comparison tables to disk.
package report

import (
	"path/filepath"

	"github.com/sartorproj/weathercast/compare"
)

// Layout places every table under Root:
//
//	<Root>/<MODEL>/Predictions/<City>_<MODEL>_Predictions.csv
//	<Root>/<MODEL>/Summaries/<City>_<MODEL>_Summary.csv
//	<Root>/Comparisons/<City>_Model_Comparison.csv
type Layout struct {
	Root string
}

// PredictionsPath is the forecast table of a city and model.
func (l Layout) PredictionsPath(model compare.Model, city string) string {
	return filepath.Join(l.Root, string(model), "Predictions", city+"_"+string(model)+"_Predictions.csv")
}

// SummaryPath is the summary table of a city and model. ext is ".csv" or ".xlsx".
func (l Layout) SummaryPath(model compare.Model, city, ext string) string {
	return filepath.Join(l.Root, string(model), "Summaries", city+"_"+string(model)+"_Summary"+ext)
}

// ComparisonPath is the comparison table of a city.
func (l Layout) ComparisonPath(city string) string {
	return filepath.Join(l.Root, "Comparisons", city+"_Model_Comparison.csv")
}
