package geo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/waconnect/backend/internal/geo"
)

func TestDistanceKmSymmetricAndZero(t *testing.T) {
	pairs := []struct {
		name string
		a, b geo.Coordinate
	}{
		{"equator", geo.Coordinate{Lat: 0, Lon: 0}, geo.Coordinate{Lat: 0, Lon: 1}},
		{"mumbai-delhi", geo.Coordinate{Lat: 19.0760, Lon: 72.8777}, geo.Coordinate{Lat: 28.6139, Lon: 77.2090}},
		{"antimeridian", geo.Coordinate{Lat: 10, Lon: 179.5}, geo.Coordinate{Lat: 10, Lon: -179.5}},
	}
	for _, tc := range pairs {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, geo.DistanceKm(tc.a, tc.b), geo.DistanceKm(tc.b, tc.a))
			require.GreaterOrEqual(t, geo.DistanceKm(tc.a, tc.b), 0.0)
			require.Zero(t, geo.DistanceKm(tc.a, tc.a))
		})
	}
}

func TestDistanceKmKnownValues(t *testing.T) {
	oneDegree := geo.DistanceKm(geo.Coordinate{Lat: 0, Lon: 0}, geo.Coordinate{Lat: 0, Lon: 1})
	require.InDelta(t, 111.19, oneDegree, 0.1)

	mumbai := geo.Coordinate{Lat: 19.0760, Lon: 72.8777}
	delhi := geo.Coordinate{Lat: 28.6139, Lon: 77.2090}
	d := geo.DistanceKm(mumbai, delhi)
	require.InDelta(t, 1148.1, d, 5)
}

func TestDistanceKmMonotonicWithSeparation(t *testing.T) {
	origin := geo.Coordinate{Lat: 12.9716, Lon: 77.5946}
	prev := 0.0
	for _, dLon := range []float64{0.01, 0.05, 0.1, 0.5, 1, 2} {
		d := geo.DistanceKm(origin, geo.Coordinate{Lat: origin.Lat, Lon: origin.Lon + dLon})
		require.Greater(t, d, prev)
		prev = d
	}
}

func TestRoundKm(t *testing.T) {
	require.Equal(t, 5.01, geo.RoundKm(5.005))
	require.Equal(t, 5.0, geo.RoundKm(5.0049))
	require.Equal(t, 0.0, geo.RoundKm(0))
}

func TestFormatDistance(t *testing.T) {
	cases := []struct {
		km   float64
		want string
	}{
		{0.5, "500 m"},
		{0.999, "999 m"},
		{1.0, "1.0 km"},
		{12.34, "12.3 km"},
		{0.0004, "0 m"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, geo.FormatDistance(tc.km))
	}
}
