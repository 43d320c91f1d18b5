package tracking

import (
	"context"
	"time"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/metrics"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

const metricsService = "driver-service"

// Recorder is the write side of tracking: it appends driver positions to the
// per-ride log and pushes them to the realtime channel. The log is the
// source of truth; the channel is best-effort.
type Recorder struct {
	points    TrackingRepo
	rides     RideRepo
	publisher LocationPublisher
	log       logger.Logger
}

func NewRecorder(points TrackingRepo, rides RideRepo, publisher LocationPublisher, log logger.Logger) *Recorder {
	return &Recorder{
		points:    points,
		rides:     rides,
		publisher: publisher,
		log:       log,
	}
}

// Record appends one position for an active ride. Only the assigned driver
// may report, and only while the ride is in progress.
func (r *Recorder) Record(ctx context.Context, rideID, driverID uuid.UUID, lat, lng float64, recordedAt time.Time) error {
	ctx = wrap.WithAction(ctx, "record_location")
	ctx = wrap.WithRideID(ctx, rideID.String())
	ctx = wrap.WithDriverID(ctx, driverID.String())

	ride, err := r.rides.Get(ctx, rideID)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	if ride.DriverID == nil || *ride.DriverID != driverID {
		return types.ErrRideNotFound
	}
	if ride.Status != types.StatusInProgress && ride.Status != types.StatusAccepted {
		return types.ErrInvalidTransition
	}

	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	point := &models.TrackingPoint{
		RideID:     rideID,
		DriverLat:  lat,
		DriverLng:  lng,
		RecordedAt: recordedAt,
	}

	err = r.points.Append(ctx, point)
	metrics.TrackingPointsTotal.WithLabelValues(metricsService, pointOutcome(err)).Inc()
	if err != nil {
		return wrap.Error(ctx, err)
	}

	if r.publisher != nil {
		update := &models.LocationUpdate{
			RideID:     rideID,
			DriverID:   driverID,
			Lat:        lat,
			Lng:        lng,
			RecordedAt: recordedAt,
		}
		if err := r.publisher.PublishLocation(ctx, update); err != nil {
			r.log.Warn(ctx, "failed to publish location update", "err", err.Error())
		}
	}

	return nil
}

// Route returns the full ordered trace for a ride, oldest first.
func (r *Recorder) Route(ctx context.Context, rideID uuid.UUID) ([]models.TrackingPoint, error) {
	points, err := r.points.ListByRide(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(wrap.WithRideID(ctx, rideID.String()), err)
	}
	return points, nil
}

func pointOutcome(err error) string {
	if err != nil {
		return "error"
	}
	return "recorded"
}
