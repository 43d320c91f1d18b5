package tracking

import (
	"context"
	"time"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

type TrackingRepo interface {
	Append(ctx context.Context, point *models.TrackingPoint) error
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]models.TrackingPoint, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type RideRepo interface {
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
}

// LocationPublisher fans a position out to the realtime channel.
type LocationPublisher interface {
	PublishLocation(ctx context.Context, update *models.LocationUpdate) error
}
