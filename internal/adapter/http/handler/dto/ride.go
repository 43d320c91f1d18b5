package dto

import (
	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
	"github.com/hoblink/hoblink-backend/pkg/validator"
)

type LocationRequest struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (l LocationRequest) ToModel() models.Location {
	return models.Location{
		Address:   l.Address,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
	}
}

type CreateRideRequest struct {
	Pickup        LocationRequest `json:"pickup"`
	Dropoff       LocationRequest `json:"dropoff"`
	RideType      string          `json:"ride_type"`
	DistanceKm    float64         `json:"distance_km,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
}

func (r *CreateRideRequest) ToModel(userID uuid.UUID) models.RideRequest {
	return models.RideRequest{
		UserID:        userID,
		Pickup:        r.Pickup.ToModel(),
		Dropoff:       r.Dropoff.ToModel(),
		RideType:      types.RideType(r.RideType),
		DistanceKm:    r.DistanceKm,
		PaymentMethod: r.PaymentMethod,
	}
}

type RateRideRequest struct {
	Rating float64 `json:"rating"`
}

func ValidateCreateRide(v *validator.Validator, req *CreateRideRequest) {
	v.Check(req.Pickup.Address != "", "pickup", "address must be provided")
	v.Check(req.Dropoff.Address != "", "dropoff", "address must be provided")
	v.Check(types.RideType(req.RideType).Valid(), "ride_type", "must be one of standard, comfort, share")
	v.Check(req.DistanceKm >= 0, "distance_km", "must not be negative")

	checkCoords(v, "pickup", req.Pickup)
	checkCoords(v, "dropoff", req.Dropoff)
}

func ValidateRateRide(v *validator.Validator, req *RateRideRequest) {
	v.Check(req.Rating >= 1 && req.Rating <= 5, "rating", "must be between 1 and 5")
}

func checkCoords(v *validator.Validator, field string, l LocationRequest) {
	if l.Latitude != nil {
		v.Check(*l.Latitude >= -90 && *l.Latitude <= 90, field+".latitude", "must be between -90 and 90")
	}
	if l.Longitude != nil {
		v.Check(*l.Longitude >= -180 && *l.Longitude <= 180, field+".longitude", "must be between -180 and 180")
	}
}
