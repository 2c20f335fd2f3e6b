// Package geo holds coordinate math for proximity gating.
package geo

import "math"

const earthRadiusMiles = 3958.8

// RangeThresholdMiles is how close a user must be to a target to interact
// with it. The gate is boundary-inclusive.
const RangeThresholdMiles = 0.2

// Coordinate is a WGS 84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate is inside the WGS 84 bounds.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// DistanceMiles returns the great-circle distance between a and b using the
// haversine formula.
func DistanceMiles(a, b Coordinate) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLng := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMiles * c
}

// InRange reports whether a and b are within RangeThresholdMiles of each
// other. Inclusive: exactly at the threshold counts as in range.
func InRange(a, b Coordinate) bool {
	return DistanceMiles(a, b) <= RangeThresholdMiles
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
