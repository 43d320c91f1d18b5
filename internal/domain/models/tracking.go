package models

import (
	"time"

	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

// TrackingPoint is one timestamped driver location sample tied to a ride.
// The log is append-only: points are never mutated or deleted, except by the
// explicit retention job.
type TrackingPoint struct {
	ID         uuid.UUID `json:"id"`
	RideID     uuid.UUID `json:"ride_id"`
	DriverLat  float64   `json:"driver_lat"`
	DriverLng  float64   `json:"driver_lng"`
	RecordedAt time.Time `json:"recorded_at"`
}

// LocationUpdate is the realtime-channel payload for one driver position.
// Delivery is at-most-once and may arrive out of order; consumers apply
// last-write-wins by RecordedAt.
type LocationUpdate struct {
	RideID     uuid.UUID `json:"ride_id"`
	DriverID   uuid.UUID `json:"driver_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}
