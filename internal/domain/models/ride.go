package models

import (
	"time"

	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

// Location is an address with optional coordinates. Coordinates of (0, 0)
// with an empty address mean "not provided".
type Location struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoords reports whether both coordinates are set.
func (l Location) HasCoords() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Ride is the central entity: one trip request from pickup to dropoff.
//
// DriverID is nil exactly while Status is pending; once the ride is accepted
// it is set and never reassigned. Fare is computed once at creation.
type Ride struct {
	ID       uuid.UUID  `json:"id"`
	UserID   uuid.UUID  `json:"user_id"`
	DriverID *uuid.UUID `json:"driver_id,omitempty"`

	Pickup  Location `json:"pickup"`
	Dropoff Location `json:"dropoff"`

	RideType types.RideType   `json:"ride_type"`
	Status   types.RideStatus `json:"status"`

	Fare          int64               `json:"fare"`
	DistanceKm    float64             `json:"distance_km"`
	PaymentMethod string              `json:"payment_method,omitempty"`
	PaymentStatus types.PaymentStatus `json:"payment_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RideRequest is the input for creating a ride. DistanceKm may be provided
// directly; otherwise it is estimated from the pickup/dropoff coordinates.
type RideRequest struct {
	UserID        uuid.UUID
	Pickup        Location
	Dropoff       Location
	RideType      types.RideType
	DistanceKm    float64
	PaymentMethod string
}

// RideOverview is the admin aggregate view.
type RideOverview struct {
	RidesByStatus   map[types.RideStatus]int `json:"rides_by_status"`
	DriversActive   int                      `json:"drivers_active"`
	DriversVerified int                      `json:"drivers_verified"`
}
