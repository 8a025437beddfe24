// Package geofence decides whether a scan location lies inside a session's radius.
package geofence

import (
	"math"

	"Backend-Attendance/src/models"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle distance between two coordinates.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// rounding can push a slightly above 1 for antipodal points
	a = math.Min(1, math.Max(0, a))

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(a))
}

// WithinRadius reports whether (lat, lon) is inside the circle. A point exactly
// at radiusMeters counts as inside.
func WithinRadius(centerLat, centerLon, radiusMeters, lat, lon float64) bool {
	return DistanceMeters(centerLat, centerLon, lat, lon) <= radiusMeters
}

// ValidCoordinate reports whether (lat, lon) is a point on the globe.
func ValidCoordinate(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) &&
		lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Complete reports whether a fenced session carries its center and radius.
func Complete(session *models.Session) bool {
	return session.GeoLatitude != nil && session.GeoLongitude != nil &&
		session.GeoRadiusMeters != nil && *session.GeoRadiusMeters > 0
}

// Evaluation is the outcome of checking a scan against a session's fence.
type Evaluation struct {
	DistanceMeters float64
	Within         bool
}

// Evaluate checks a coordinate against a session's fence. Unfenced sessions
// accept any location; a fenced session missing its center or radius accepts none.
func Evaluate(session *models.Session, lat, lon float64) Evaluation {
	if session == nil || !session.GeoFenceEnabled {
		return Evaluation{Within: true}
	}
	if !Complete(session) {
		return Evaluation{Within: false}
	}

	d := DistanceMeters(*session.GeoLatitude, *session.GeoLongitude, lat, lon)
	return Evaluation{DistanceMeters: d, Within: d <= *session.GeoRadiusMeters}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
