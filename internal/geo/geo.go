package geo

import (
	"fmt"
	"math"
)

// earthRadiusKm is the mean Earth radius used for great-circle distance.
const earthRadiusKm = 6371.0

// Coordinate is a WGS84 point in decimal degrees. Callers are expected to keep
// latitude within [-90, 90] and longitude within [-180, 180]; out-of-range
// values are not rejected here.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceKm returns the Haversine great-circle distance between a and b in
// kilometres. The result is symmetric, zero for identical points and never
// negative.
func DistanceKm(a, b Coordinate) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*sinLon*sinLon

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RoundKm rounds a distance to two decimal places. Both the delivery policy and
// the storefront display round through this helper so repeated evaluations of
// the same logical input always compare the same value.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// FormatDistance renders distances below one kilometre in metres and
// everything else in kilometres with one decimal.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
