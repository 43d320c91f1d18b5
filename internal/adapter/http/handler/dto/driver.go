package dto

import (
	"time"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/service/driver"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
	"github.com/hoblink/hoblink-backend/pkg/validator"
)

type RegisterDriverRequest struct {
	LicenseNumber string `json:"license_number"`
	Vehicle       struct {
		Make  string `json:"make"`
		Model string `json:"model"`
		Year  int    `json:"year"`
		Color string `json:"color,omitempty"`
		Plate string `json:"plate"`
	} `json:"vehicle"`
}

func (r *RegisterDriverRequest) ToModel(userID uuid.UUID) driver.RegisterRequest {
	return driver.RegisterRequest{
		UserID:        userID,
		LicenseNumber: r.LicenseNumber,
		Vehicle: models.Vehicle{
			Make:  r.Vehicle.Make,
			Model: r.Vehicle.Model,
			Year:  r.Vehicle.Year,
			Color: r.Vehicle.Color,
			Plate: r.Vehicle.Plate,
		},
	}
}

type LocationUpdateRequest struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

func ValidateRegisterDriver(v *validator.Validator, req *RegisterDriverRequest) {
	v.Check(req.LicenseNumber != "", "license_number", "must be provided")
	v.Check(len(req.LicenseNumber) <= 64, "license_number", "must not be more than 64 bytes long")

	v.Check(req.Vehicle.Plate != "", "vehicle.plate", "must be provided")
	v.Check(req.Vehicle.Make != "", "vehicle.make", "must be provided")
	v.Check(req.Vehicle.Model != "", "vehicle.model", "must be provided")
	if req.Vehicle.Year != 0 {
		v.Check(req.Vehicle.Year >= 1980 && req.Vehicle.Year <= time.Now().Year()+1, "vehicle.year", "must be a plausible model year")
	}
}

func ValidateLocationUpdate(v *validator.Validator, req *LocationUpdateRequest) {
	v.Check(req.Lat >= -90 && req.Lat <= 90, "lat", "must be between -90 and 90")
	v.Check(req.Lng >= -180 && req.Lng <= 180, "lng", "must be between -180 and 180")
}
