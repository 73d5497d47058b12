package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeodesicDistanceMiles(t *testing.T) {
	// One degree of latitude is about 69.1 miles.
	d := GeodesicDistanceMiles(42.0, -41.0, 43.0, -41.0)
	assert.InDelta(t, 69.09, d, 0.05)

	assert.InDelta(t, 0.0, GeodesicDistanceMiles(1, 1, 1, 1), 1e-12)

	// Distance is symmetric.
	assert.InDelta(t, d, GeodesicDistanceMiles(43.0, -41.0, 42.0, -41.0), 1e-9)
}

func TestInitialBearing(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
	}{
		{"north", 0, 0, 1, 0, 0},
		{"east", 0, 0, 0, 1, 90},
		{"south", 1, 0, 0, 0, 180},
		{"west", 0, 1, 0, 0, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := InitialBearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, b, 1e-6)
			assert.GreaterOrEqual(t, b, 0.0)
			assert.Less(t, b, 360.0)
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(42.5, -41.0))
	assert.False(t, ValidateCoordinates(91, 0))
	assert.False(t, ValidateCoordinates(0, -181))
}
