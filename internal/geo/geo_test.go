package geo

import (
	"math"
	"testing"
)

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]Coordinate{
		{{Latitude: 41.3125903, Longitude: -72.9250062}, {Latitude: 41.316307, Longitude: -72.922585}},
		{{Latitude: 0, Longitude: 0}, {Latitude: 10, Longitude: 10}},
		{{Latitude: -33.8688, Longitude: 151.2093}, {Latitude: 51.5074, Longitude: -0.1278}},
		{{Latitude: 89.9, Longitude: 179.9}, {Latitude: -89.9, Longitude: -179.9}},
	}

	for _, p := range pairs {
		ab := DistanceMiles(p[0], p[1])
		ba := DistanceMiles(p[1], p[0])
		if ab != ba {
			t.Errorf("distance not symmetric: %v vs %v for %v", ab, ba, p)
		}
	}
}

func TestDistanceZeroAtSamePoint(t *testing.T) {
	c := Coordinate{Latitude: 41.316307, Longitude: -72.922585}
	if d := DistanceMiles(c, c); math.Abs(d) > 1e-9 {
		t.Errorf("distance to self = %v, want ~0", d)
	}
	if !InRange(c, c) {
		t.Error("point must be in range of itself")
	}
}

func TestKnownDistance(t *testing.T) {
	// ~0.32 miles apart in New Haven: out of range.
	user := Coordinate{Latitude: 41.3125903, Longitude: -72.9250062}
	clue := Coordinate{Latitude: 41.316307, Longitude: -72.922585}

	d := DistanceMiles(user, clue)
	if d < 0.25 || d > 0.40 {
		t.Fatalf("distance = %v, want ~0.32", d)
	}
	if InRange(user, clue) {
		t.Errorf("%v miles must be out of range", d)
	}
}

func TestRangeGate(t *testing.T) {
	// One degree of latitude is ~69.09 miles, so 0.0028 degrees is ~0.193
	// miles and 0.0030 degrees is ~0.207 miles.
	base := Coordinate{Latitude: 41.0, Longitude: -72.0}

	near := Coordinate{Latitude: 41.0028, Longitude: -72.0}
	if !InRange(base, near) {
		t.Errorf("%v miles should be in range", DistanceMiles(base, near))
	}

	far := Coordinate{Latitude: 41.0030, Longitude: -72.0}
	if InRange(base, far) {
		t.Errorf("%v miles should be out of range", DistanceMiles(base, far))
	}
}

func TestCoordinateValid(t *testing.T) {
	tests := []struct {
		c    Coordinate
		want bool
	}{
		{Coordinate{0, 0}, true},
		{Coordinate{90, 180}, true},
		{Coordinate{-90, -180}, true},
		{Coordinate{90.01, 0}, false},
		{Coordinate{0, -180.01}, false},
		{Coordinate{-91, 200}, false},
	}

	for _, tt := range tests {
		if got := tt.c.Valid(); got != tt.want {
			t.Errorf("Valid(%v) = %v, want %v", tt.c, got, tt.want)
		}
	}
}
