// Package weather defines the daily weather features the forecasters work on.
package weather

// Display names of the five canonical features.
const (
	MeanTemperature      = "Mean Temperature"
	FeelsLikeTemperature = "Feels-Like Temperature"
	TotalPrecipitation   = "Total Precipitation"
	DaylightDuration     = "Daylight Duration"
	MaxWindSpeed         = "Max Wind Speed"
)

// Raw column names as delivered by the daily archive dataset.
const (
	RawMeanTemperature      = "temperature_2m_mean"
	RawFeelsLikeTemperature = "apparent_temperature_mean"
	RawTotalPrecipitation   = "precipitation_sum"
	RawDaylightDuration     = "daylight_duration"
	RawMaxWindSpeed         = "wind_speed_10m_max"
)

var rawColumns = []string{
	RawMeanTemperature,
	RawFeelsLikeTemperature,
	RawTotalPrecipitation,
	RawDaylightDuration,
	RawMaxWindSpeed,
}

var renameMapping = map[string]string{
	RawMeanTemperature:      MeanTemperature,
	RawFeelsLikeTemperature: FeelsLikeTemperature,
	RawTotalPrecipitation:   TotalPrecipitation,
	RawDaylightDuration:     DaylightDuration,
	RawMaxWindSpeed:         MaxWindSpeed,
}

var inverseMapping = func() map[string]string {
	inv := make(map[string]string, len(renameMapping))
	for raw, display := range renameMapping {
		inv[display] = raw
	}
	return inv
}()

// Features returns the display names in canonical order.
func Features() []string {
	out := make([]string, len(rawColumns))
	for i, raw := range rawColumns {
		out[i] = renameMapping[raw]
	}
	return out
}

// RawColumns returns the raw dataset column names in canonical order.
func RawColumns() []string {
	out := make([]string, len(rawColumns))
	copy(out, rawColumns)
	return out
}

// RenameMapping returns a copy of the raw -> display name mapping.
func RenameMapping() map[string]string {
	out := make(map[string]string, len(renameMapping))
	for k, v := range renameMapping {
		out[k] = v
	}
	return out
}

// DisplayName maps a raw column to its display name. Unknown names are returned unchanged.
func DisplayName(raw string) string {
	if name, ok := renameMapping[raw]; ok {
		return name
	}
	return raw
}

// RawName maps a display name back to the raw column. Unknown names are returned unchanged.
func RawName(display string) string {
	if name, ok := inverseMapping[display]; ok {
		return name
	}
	return display
}

// IsFeature reports whether name is one of the canonical display names.
func IsFeature(name string) bool {
	_, ok := inverseMapping[name]
	return ok
}

// IsPrecipitation reports whether the feature carries zero-heavy precipitation data.
// Percentage-based scores for it are unreliable and are excluded from accuracy rollups.
func IsPrecipitation(feature string) bool {
	return feature == TotalPrecipitation || feature == RawTotalPrecipitation
}
