// Package gis computes great-circle distance and azimuth between
// consecutive points of a trajectory, used by the domain projector to
// derive the trajectory fields sequence template 3-15-023 expects between
// fixes (distance and bearing from each fix to the next one).
package gis

import "math"

// earthRadiusMeters is the equatorial (WGS84 semi-major axis) Earth radius
// used for distance in meters.
const earthRadiusMeters = 6378137.0

// HaversineDistance returns, for each consecutive pair of points in a
// trajectory of len(lon) points, the great-circle distance between them in
// meters. The returned slice has length len(lon)-1; the source Python
// pads a trailing zero onto the original array instead, but this signature
// is clearer about which element a distance belongs to. lon and lat are in
// degrees.
func HaversineDistance(lon, lat []float64) []float64 {
	if len(lon) < 2 {
		return nil
	}

	out := make([]float64, len(lon)-1)
	for i := 0; i < len(lon)-1; i++ {
		out[i] = haversineStep(
			toRadians(lon[i]), toRadians(lat[i]),
			toRadians(lon[i+1]), toRadians(lat[i+1]),
			earthRadiusMeters,
		)
	}

	return out
}

// haversineStep returns the great-circle distance in r's units between
// (lon1,lat1) and (lon2,lat2), all in radians.
func haversineStep(lon1, lat1, lon2, lat2, r float64) float64 {
	dLon := lon2 - lon1
	dLat := lat2 - lat1
	sin2Phi := math.Pow(math.Sin(dLat/2), 2)
	cosTerm := math.Cos(lat1) * math.Cos(lat2)
	sin2Lambda := math.Pow(math.Sin(dLon/2), 2)

	return 2 * r * math.Asin(math.Sqrt(sin2Phi+cosTerm*sin2Lambda))
}

// Azimuth returns, for each consecutive pair of points in a trajectory of
// len(lon) points, the initial bearing in degrees (clockwise from north,
// derived from the spherical law of sines) from the first point to the
// second. The returned slice has length len(lon)-1. lon and lat are in
// degrees.
func Azimuth(lon, lat []float64) []float64 {
	if len(lon) < 2 {
		return nil
	}

	out := make([]float64, len(lon)-1)
	for i := 0; i < len(lon)-1; i++ {
		lon1, lat1 := toRadians(lon[i]), toRadians(lat[i])
		lon2, lat2 := toRadians(lon[i+1]), toRadians(lat[i+1])

		dLon := lon2 - lon1
		cosPhi := math.Cos(lat2)
		sinDLam := math.Sin(dLon)
		// Arc-distance on a unit sphere, used as the denominator in the
		// spherical law of sines.
		a := haversineStep(lon1, lat1, lon2, lat2, 1)
		sinA := math.Sin(a)

		out[i] = toDegrees(math.Asin(cosPhi * sinDLam / sinA))
	}

	return out
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
