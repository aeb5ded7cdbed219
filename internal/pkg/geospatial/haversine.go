package geospatial

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
// The result is symmetric and never NaN. It is zero exactly when both points
// are the same place on the globe: longitudes 180 and -180 coincide, and any
// longitude at a pole names the pole.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	if SamePoint(lat1, lon1, lat2, lon2) {
		return 0
	}

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push a marginally outside [0,1] for near-identical or antipodal points.
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// SamePoint reports whether two coordinates name the same physical point.
func SamePoint(lat1, lon1, lat2, lon2 float64) bool {
	if lat1 != lat2 {
		return false
	}
	if math.Abs(lat1) == 90 {
		return true
	}
	return NormalizeLon(lon1) == NormalizeLon(lon2)
}

// NormalizeLon maps a longitude into [-180, 180).
func NormalizeLon(lon float64) float64 {
	return lon - 360*math.Floor((lon+180)/360)
}

// Validate checks that lat/lon are finite and inside valid degree ranges.
func Validate(lat, lon float64) error {
	switch {
	case math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0):
		return fmt.Errorf("coordinate (%v, %v) is not finite", lat, lon)
	case lat < -90 || lat > 90:
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	case lon < -180 || lon > 180:
		return fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	return nil
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
