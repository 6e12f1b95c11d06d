package geo

import (
	"math"

	"presenca_backend/models"
)

// Spherical Earth radius in meters, as used by the haversine formula.
const earthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle distance between two coordinates
// using the haversine formula. It is commutative and never negative; NaN or
// infinite inputs propagate as NaN rather than failing.
func DistanceMeters(a, b models.Coordinate) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	dPhi := toRadians(b.Latitude - a.Latitude)
	dLambda := toRadians(b.Longitude - a.Longitude)

	hav := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(hav), math.Sqrt(1-hav))

	return earthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Evaluation is the outcome of a geofence membership check.
type Evaluation struct {
	InsideFence    bool
	DistanceMeters float64
}

// Evaluate decides whether a point lies within the configured fence.
// The boundary is inclusive: a point exactly RadiusMeters away is inside.
// This is the sole authority for fence membership; callers must not
// recompute the decision from the raw distance.
func Evaluate(point models.Coordinate, cfg models.FenceConfig) Evaluation {
	d := DistanceMeters(point, cfg.Center)
	return Evaluation{
		InsideFence:    d <= cfg.RadiusMeters,
		DistanceMeters: d,
	}
}
