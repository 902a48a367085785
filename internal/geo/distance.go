package geo

import "math"

const earthRadiusMeters = 6371000.0

// DistanceMeters computes the great-circle distance between two coordinate
// pairs using the haversine formula. The arcsine argument is clamped to
// [-1, 1] so antipodal points do not fall outside the domain through
// floating-point overshoot.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1R := degreesToRadians(lat1)
	lat2R := degreesToRadians(lat2)
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1R)*math.Cos(lat2R)*math.Sin(dLon/2)*math.Sin(dLon/2)

	arg := math.Sqrt(a)
	if arg > 1 {
		arg = 1
	} else if arg < -1 {
		arg = -1
	}

	return earthRadiusMeters * 2 * math.Asin(arg)
}

// WithinRadius reports whether the second point lies within radiusMeters of
// the first, along with the computed distance.
func WithinRadius(origLat, origLon, curLat, curLon, radiusMeters float64) (bool, float64) {
	distance := DistanceMeters(origLat, origLon, curLat, curLon)
	return distance <= radiusMeters, distance
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}
