package geo

import (
	"math"
	"testing"
)

func TestRoundTo(t *testing.T) {
	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{13.049, 1, 13.0},
		{13.051, 1, 13.1},
		{-80.26, 1, -80.3},
		{12.34567, 4, 12.3457},
	}
	for _, tt := range tests {
		if got := RoundTo(tt.in, tt.places); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("RoundTo(%v, %d) = %v, want %v", tt.in, tt.places, got, tt.want)
		}
	}
}

func TestDistanceKm(t *testing.T) {
	if d := DistanceKm(10, 80, 10, 80); d != 0 {
		t.Errorf("expected 0 for same point, got %f", d)
	}
	// One degree of latitude is roughly 111 km.
	d := DistanceKm(10, 80, 11, 80)
	if d < 110 || d > 112.5 {
		t.Errorf("expected ~111km, got %f", d)
	}
}

func TestOffsetKm_RoundTripsWithDistance(t *testing.T) {
	lat, lng := OffsetKm(13.05, 80.28, 3, 4)
	d := DistanceKm(13.05, 80.28, lat, lng)
	if math.Abs(d-5) > 0.05 {
		t.Errorf("expected ~5km offset, got %f", d)
	}
}
