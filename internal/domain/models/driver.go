package models

import (
	"time"

	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

// Vehicle attributes of a driver.
type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Color string `json:"color"`
	Plate string `json:"plate"`
}

// Driver extends a profile with vehicle and standing data.
type Driver struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	LicenseNumber string    `json:"license_number"`
	Vehicle       Vehicle   `json:"vehicle"`
	IsVerified    bool      `json:"is_verified"`
	IsActive      bool      `json:"is_active"`
	Rating        float64   `json:"rating"`
	TotalRides    int       `json:"total_rides"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
