package ride

import (
	"context"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

type RideRepo interface {
	Create(ctx context.Context, ride *models.Ride) (*models.Ride, error)
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Ride, error)
	UpdateStatus(ctx context.Context, rideID uuid.UUID, expectedFrom, newStatus types.RideStatus) error
	AssignDriver(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
	UpdatePaymentStatus(ctx context.Context, rideID uuid.UUID, status types.PaymentStatus) error
}

type DriverRepo interface {
	Get(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
	RecordCompletedRide(ctx context.Context, driverID uuid.UUID, rating float64) error
}

// StatusPublisher pushes lifecycle changes to the realtime channel so ride
// subscribers see transitions without polling.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, ride *models.Ride) error
}
