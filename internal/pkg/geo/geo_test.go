package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(10, 10, 10, 10), 1e-9)
	// one degree of latitude
	assert.InDelta(t, 111.19, DistanceKm(0, 0, 1, 0), 0.01)
	// Paris to London
	assert.InDelta(t, 343.5, DistanceKm(48.8566, 2.3522, 51.5074, -0.1278), 1.0)
	assert.InDelta(t, DistanceKm(1, 2, 3, 4), DistanceKm(3, 4, 1, 2), 1e-9)
}

func TestFormatCoordinates(t *testing.T) {
	assert.Equal(t, "12.34, 56.78", FormatCoordinates(12.34, 56.78))
	assert.Equal(t, "-33.8688, 151.2093", FormatCoordinates(-33.8688, 151.2093))
	assert.Equal(t, "0, 10", FormatCoordinates(0, 10))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.34568, Round(12.345678, 5))
	assert.Equal(t, -1.5, Round(-1.49999, 2))
	assert.Equal(t, 3.0, Round(2.5, 0))
	assert.Equal(t, -3.0, Round(-2.5, 0))
	assert.Equal(t, 0.13, Round(0.129, 2))
}
