package driver

import (
	"context"
	"errors"
	"strings"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

const defaultListLimit = 50

type DriverRepo interface {
	Create(ctx context.Context, d *models.Driver) error
	Get(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Driver, error)
	ListAvailable(ctx context.Context, limit int) ([]models.Driver, error)
	SetActive(ctx context.Context, driverID uuid.UUID, active bool) error
}

// Service manages driver records: registration, availability and lookups.
// Verification is an admin concern and lives in the admin service.
type Service struct {
	drivers DriverRepo
	log     logger.Logger
}

func NewService(drivers DriverRepo, log logger.Logger) *Service {
	return &Service{drivers: drivers, log: log}
}

// RegisterRequest is the driver onboarding input. The new record starts
// unverified; rides cannot be accepted until an admin verifies it.
type RegisterRequest struct {
	UserID        uuid.UUID
	LicenseNumber string
	Vehicle       models.Vehicle
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Driver, error) {
	ctx = wrap.WithAction(ctx, "register_driver")
	ctx = wrap.WithUserID(ctx, req.UserID.String())

	if err := validateRegister(req); err != nil {
		return nil, err
	}

	// one driver record per user
	if existing, err := s.drivers.GetByUser(ctx, req.UserID); err == nil {
		return existing, nil
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, wrap.Error(ctx, err)
	}

	d := &models.Driver{
		UserID:        req.UserID,
		LicenseNumber: req.LicenseNumber,
		Vehicle:       req.Vehicle,
	}
	if err := s.drivers.Create(ctx, d); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "driver registered", "driver_id", d.ID.String())
	return d, nil
}

func (s *Service) Get(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	d, err := s.drivers.Get(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(wrap.WithDriverID(ctx, driverID.String()), err)
	}
	return d, nil
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Driver, error) {
	d, err := s.drivers.GetByUser(ctx, userID)
	if err != nil {
		return nil, wrap.Error(wrap.WithUserID(ctx, userID.String()), err)
	}
	return d, nil
}

// Available lists verified, active drivers ordered by rating.
func (s *Service) Available(ctx context.Context, limit int) ([]models.Driver, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	drivers, err := s.drivers.ListAvailable(ctx, limit)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return drivers, nil
}

// SetActive toggles the driver's own availability. Verification state is
// untouched.
func (s *Service) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	ctx = wrap.WithAction(ctx, "set_driver_active")
	ctx = wrap.WithUserID(ctx, userID.String())

	d, err := s.drivers.GetByUser(ctx, userID)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	if err := s.drivers.SetActive(ctx, d.ID, active); err != nil {
		return wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "driver availability changed", "driver_id", d.ID.String(), "active", active)
	return nil
}

func validateRegister(req RegisterRequest) error {
	fields := map[string]string{}
	if req.UserID.IsZero() {
		fields["user_id"] = "caller identity is required"
	}
	if strings.TrimSpace(req.LicenseNumber) == "" {
		fields["license_number"] = "is required"
	}
	if strings.TrimSpace(req.Vehicle.Plate) == "" {
		fields["vehicle.plate"] = "is required"
	}
	if len(fields) > 0 {
		return &types.ValidationError{Fields: fields}
	}
	return nil
}
