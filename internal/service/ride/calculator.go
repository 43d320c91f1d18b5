package ride

import (
	"math"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
)

// Per-kilometre rates in whole currency units, plus a flat base fee added to
// every ride. A standard 10 km ride costs 12*10+15 = 135.
const baseFee = 15

var perKmRates = map[types.RideType]float64{
	types.RideStandard: 12,
	types.RideComfort:  18,
	types.RideShare:    8,
}

// CalculateFare is deterministic: same type and distance, same fare.
// The distance part is rounded half away from zero before the base fee.
// ok is false for a ride type outside the rate table; callers validate the
// type first, so a false here is a caller bug, not a pricing decision.
func CalculateFare(rideType types.RideType, distanceKm float64) (fare int64, ok bool) {
	rate, ok := perKmRates[rideType]
	if !ok {
		return 0, false
	}
	return int64(math.Round(rate*distanceKm)) + baseFee, true
}

const earthRadiusKm = 6371.0

// EstimateDistance returns the haversine great-circle distance between the
// pickup and dropoff coordinates. Zero when either side has no coordinates;
// the caller decides whether that is acceptable.
func EstimateDistance(pickup, dropoff models.Location) float64 {
	if !pickup.HasCoords() || !dropoff.HasCoords() {
		return 0
	}

	lat1 := *pickup.Latitude * math.Pi / 180
	lat2 := *dropoff.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (*dropoff.Longitude - *pickup.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
