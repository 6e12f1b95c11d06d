package geo

import (
	"math"
	"testing"

	"presenca_backend/models"
)

var schoolCenter = models.Coordinate{Latitude: -1.436270, Longitude: -48.459680}

func TestDistanceMeters_IdenticalIsZero(t *testing.T) {
	points := []models.Coordinate{
		{Latitude: 0, Longitude: 0},
		schoolCenter,
		{Latitude: 89.9, Longitude: 179.9},
		{Latitude: -33.8688, Longitude: 151.2093},
	}
	for _, p := range points {
		if d := DistanceMeters(p, p); d != 0 {
			t.Errorf("DistanceMeters(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceMeters_Commutative(t *testing.T) {
	pairs := [][2]models.Coordinate{
		{schoolCenter, {Latitude: -1.4558, Longitude: -48.5044}},
		{{Latitude: 51.5007, Longitude: -0.1246}, {Latitude: 48.8584, Longitude: 2.2945}},
		{{Latitude: -89, Longitude: 170}, {Latitude: 89, Longitude: -170}},
	}
	for _, pair := range pairs {
		ab := DistanceMeters(pair[0], pair[1])
		ba := DistanceMeters(pair[1], pair[0])
		if ab != ba {
			t.Errorf("DistanceMeters not commutative: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceMeters_KnownDistance(t *testing.T) {
	// One degree of latitude along a meridian on the 6371km sphere.
	a := models.Coordinate{Latitude: 0, Longitude: 0}
	b := models.Coordinate{Latitude: 1, Longitude: 0}
	want := 6371000.0 * math.Pi / 180
	if d := DistanceMeters(a, b); math.Abs(d-want) > 0.01 {
		t.Errorf("DistanceMeters = %v, want %v +-0.01", d, want)
	}
}

func TestDistanceMeters_NaNPropagates(t *testing.T) {
	a := models.Coordinate{Latitude: math.NaN(), Longitude: 0}
	b := models.Coordinate{Latitude: 0, Longitude: 0}
	if d := DistanceMeters(a, b); !math.IsNaN(d) {
		t.Errorf("DistanceMeters with NaN input = %v, want NaN", d)
	}
}

func TestEvaluate_CenterInside(t *testing.T) {
	cfg := models.FenceConfig{Center: schoolCenter, RadiusMeters: 200}
	ev := Evaluate(schoolCenter, cfg)
	if !ev.InsideFence {
		t.Fatal("center of fence evaluated outside")
	}
	if math.Abs(ev.DistanceMeters) > 0.01 {
		t.Errorf("distance at center = %v, want ~0", ev.DistanceMeters)
	}
}

func TestEvaluate_BoundaryInclusive(t *testing.T) {
	// A point roughly 200m north of the center; the exact computed
	// distance is used as the radius so the boundary case is exact.
	north := models.Coordinate{
		Latitude:  schoolCenter.Latitude + 200.0/6371000.0*180/math.Pi,
		Longitude: schoolCenter.Longitude,
	}
	d := DistanceMeters(north, schoolCenter)
	if math.Abs(d-200) > 0.01 {
		t.Fatalf("constructed point is %vm away, want ~200m", d)
	}

	onBoundary := Evaluate(north, models.FenceConfig{Center: schoolCenter, RadiusMeters: d})
	if !onBoundary.InsideFence {
		t.Error("point exactly on the boundary evaluated outside")
	}

	justOutside := Evaluate(north, models.FenceConfig{Center: schoolCenter, RadiusMeters: d - 0.01})
	if justOutside.InsideFence {
		t.Error("point 0.01m past the radius evaluated inside")
	}
}

func TestEvaluate_FarPointOutside(t *testing.T) {
	far := models.Coordinate{Latitude: schoolCenter.Latitude + 0.045, Longitude: schoolCenter.Longitude}
	ev := Evaluate(far, models.FenceConfig{Center: schoolCenter, RadiusMeters: 200})
	if ev.InsideFence {
		t.Error("point ~5000m away evaluated inside a 200m fence")
	}
	if math.Abs(ev.DistanceMeters-5000) > 10 {
		t.Errorf("distance = %v, want ~5000", ev.DistanceMeters)
	}
}
