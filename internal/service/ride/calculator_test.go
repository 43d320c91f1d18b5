package ride

import (
	"math"
	"testing"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
)

func TestCalculateFare(t *testing.T) {
	tests := []struct {
		name       string
		rideType   types.RideType
		distanceKm float64
		want       int64
	}{
		{"standard 10km", types.RideStandard, 10, 135},
		{"comfort 10km", types.RideComfort, 10, 195},
		{"share 10km", types.RideShare, 10, 95},
		{"standard fractional rounds", types.RideStandard, 2.54, 45}, // 30.48 -> 30
		{"standard rounds up", types.RideStandard, 2.55, 46},        // 30.6 -> 31
		{"zero distance is base fee", types.RideComfort, 0, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CalculateFare(tt.rideType, tt.distanceKm)
			if !ok {
				t.Fatalf("CalculateFare(%s, %v) rejected a valid ride type", tt.rideType, tt.distanceKm)
			}
			if got != tt.want {
				t.Errorf("CalculateFare(%s, %v) = %d, want %d", tt.rideType, tt.distanceKm, got, tt.want)
			}
		})
	}
}

func TestCalculateFareUnknownType(t *testing.T) {
	if fare, ok := CalculateFare(types.RideType("luxury"), 10); ok {
		t.Errorf("CalculateFare accepted an unknown ride type, fare = %d", fare)
	}
}

func TestCalculateFareDeterministic(t *testing.T) {
	first, _ := CalculateFare(types.RideShare, 7.3)
	for i := 0; i < 100; i++ {
		if got, _ := CalculateFare(types.RideShare, 7.3); got != first {
			t.Fatalf("fare changed between calls: %d vs %d", got, first)
		}
	}
}

func coords(lat, lng float64) models.Location {
	return models.Location{Latitude: &lat, Longitude: &lng}
}

func TestEstimateDistance(t *testing.T) {
	// Johannesburg CBD to Sandton, roughly 12 km as the crow flies.
	jhb := coords(-26.2041, 28.0473)
	sandton := coords(-26.1076, 28.0567)

	got := EstimateDistance(jhb, sandton)
	if got < 10 || got > 13 {
		t.Errorf("EstimateDistance(jhb, sandton) = %v, want roughly 12km", got)
	}

	if d := EstimateDistance(jhb, jhb); math.Abs(d) > 1e-9 {
		t.Errorf("distance to self = %v, want 0", d)
	}

	noCoords := models.Location{Address: "somewhere"}
	if d := EstimateDistance(jhb, noCoords); d != 0 {
		t.Errorf("distance without coordinates = %v, want 0", d)
	}
}
