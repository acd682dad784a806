// Package timeseries provides the daily data structures used by the
// forecasters.
//
// A Series holds one feature with its dates. A Frame is a date-indexed table
// with one column per feature, which is how city datasets, forecast tables
// and comparison tables are represented.
//
// # Loading and cleaning
//
//	f, err := timeseries.LoadFrame("Datasets/Berlin_2025-01-31.csv", nil)
//	if err != nil {
//		return err
//	}
//	f, err = f.Clean() // time interpolation, then per-column mean fill
//
// # Transformations
//
//	temp, _ := f.Column("temperature_2m_mean")
//	diff := temp.Diff()              // first difference, leading value dropped
//	weekly := temp.MovingAverage(7)  // trailing 7-day mean, NaN padded
//	future := temp.FutureDates(7)    // the 7 days after the last observation
//
// # Writing
//
// WriteFrame and SaveFrame write a leading "date" column followed by the
// frame columns, rounding to the requested number of decimals.
package timeseries
