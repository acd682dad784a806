package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeaturesOrder(t *testing.T) {
	assert.Equal(t, []string{
		MeanTemperature, FeelsLikeTemperature, TotalPrecipitation, DaylightDuration, MaxWindSpeed,
	}, Features())
}

func TestRenameRoundTrip(t *testing.T) {
	for _, raw := range RawColumns() {
		assert.Equal(t, raw, RawName(DisplayName(raw)))
	}
	assert.Equal(t, "unknown", DisplayName("unknown"))
	assert.Equal(t, "unknown", RawName("unknown"))
}

func TestIsPrecipitation(t *testing.T) {
	assert.True(t, IsPrecipitation(TotalPrecipitation))
	assert.True(t, IsPrecipitation(RawTotalPrecipitation))
	assert.False(t, IsPrecipitation(MeanTemperature))
	assert.True(t, IsFeature(DaylightDuration))
	assert.False(t, IsFeature(RawDaylightDuration))
}

func TestRenameMappingIsCopy(t *testing.T) {
	m := RenameMapping()
	m[RawMeanTemperature] = "changed"
	assert.Equal(t, MeanTemperature, DisplayName(RawMeanTemperature))
}
