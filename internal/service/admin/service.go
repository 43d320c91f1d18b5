package admin

import (
	"context"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/trm"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type RideRepo interface {
	List(ctx context.Context, limit, offset int) ([]models.Ride, error)
	CountByStatus(ctx context.Context) (map[types.RideStatus]int, error)
}

type DriverRepo interface {
	List(ctx context.Context, limit, offset int) ([]models.Driver, error)
	SetVerified(ctx context.Context, driverID uuid.UUID, verified bool) error
	CountActiveVerified(ctx context.Context) (active, verified int, err error)
}

type ProfileRepo interface {
	ListProfiles(ctx context.Context, limit, offset int) ([]models.Profile, error)
}

// Service is the operator surface: fleet overview, paginated listings and
// driver verification. Every operation here sits behind the admin role
// check at the HTTP layer.
type Service struct {
	rides    RideRepo
	drivers  DriverRepo
	profiles ProfileRepo
	txRead   trm.TxManager
	log      logger.Logger
}

func NewService(rides RideRepo, drivers DriverRepo, profiles ProfileRepo, txRead trm.TxManager, log logger.Logger) *Service {
	return &Service{
		rides:    rides,
		drivers:  drivers,
		profiles: profiles,
		txRead:   txRead,
		log:      log,
	}
}

// Overview aggregates ride counts per status with fleet totals. Both reads
// run in one transaction so the numbers are mutually consistent.
func (s *Service) Overview(ctx context.Context) (*models.RideOverview, error) {
	ctx = wrap.WithAction(ctx, "admin_overview")

	var overview models.RideOverview
	err := s.txRead.Do(ctx, func(ctx context.Context) error {
		byStatus, err := s.rides.CountByStatus(ctx)
		if err != nil {
			return err
		}
		active, verified, err := s.drivers.CountActiveVerified(ctx)
		if err != nil {
			return err
		}

		overview.RidesByStatus = byStatus
		overview.DriversActive = active
		overview.DriversVerified = verified
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return &overview, nil
}

func (s *Service) ListRides(ctx context.Context, limit, offset int) ([]models.Ride, error) {
	limit, offset = clampPage(limit, offset)

	rides, err := s.rides.List(ctx, limit, offset)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return rides, nil
}

func (s *Service) ListDrivers(ctx context.Context, limit, offset int) ([]models.Driver, error) {
	limit, offset = clampPage(limit, offset)

	drivers, err := s.drivers.List(ctx, limit, offset)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return drivers, nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]models.Profile, error) {
	limit, offset = clampPage(limit, offset)

	profiles, err := s.profiles.ListProfiles(ctx, limit, offset)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return profiles, nil
}

// SetDriverVerified grants or revokes a driver's ability to accept rides.
func (s *Service) SetDriverVerified(ctx context.Context, driverID uuid.UUID, verified bool) error {
	ctx = wrap.WithAction(ctx, "verify_driver")
	ctx = wrap.WithDriverID(ctx, driverID.String())

	if err := s.drivers.SetVerified(ctx, driverID, verified); err != nil {
		return wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "driver verification changed", "verified", verified)
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
