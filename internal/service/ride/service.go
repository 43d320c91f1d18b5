package ride

import (
	"context"
	"errors"
	"strings"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/metrics"
	"github.com/hoblink/hoblink-backend/pkg/trm"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

const metricsService = "ride-service"

const defaultHistoryLimit = 50

// Service owns the ride lifecycle. All status moves go through the
// transition table before touching storage, and the storage layer enforces
// the same rules again with conditional updates, so two racing writers
// resolve to exactly one winner.
type Service struct {
	rides     RideRepo
	drivers   DriverRepo
	publisher StatusPublisher
	txManager trm.TxManager
	log       logger.Logger
}

func NewService(rides RideRepo, drivers DriverRepo, publisher StatusPublisher, txManager trm.TxManager, log logger.Logger) *Service {
	return &Service{
		rides:     rides,
		drivers:   drivers,
		publisher: publisher,
		txManager: txManager,
		log:       log,
	}
}

// Create validates the request, prices it and persists a pending ride.
// The fare is computed exactly once here and never recomputed.
func (s *Service) Create(ctx context.Context, req models.RideRequest) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "create_ride")

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	distance := req.DistanceKm
	if distance <= 0 {
		distance = EstimateDistance(req.Pickup, req.Dropoff)
	}
	if distance <= 0 {
		return nil, types.NewValidation("distance_km", "distance must be positive or derivable from coordinates")
	}

	// validateRequest already checked the ride type.
	fare, ok := CalculateFare(req.RideType, distance)
	if !ok {
		return nil, types.NewValidation("ride_type", "must be one of standard, comfort, share")
	}

	ride := &models.Ride{
		UserID:        req.UserID,
		Pickup:        req.Pickup,
		Dropoff:       req.Dropoff,
		RideType:      req.RideType,
		Status:        types.StatusPending,
		Fare:          fare,
		DistanceKm:    distance,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: types.PaymentPending,
	}

	created, err := s.rides.Create(ctx, ride)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithRideID(ctx, created.ID.String())
	metrics.RidesTotal.WithLabelValues(metricsService, created.RideType.String()).Inc()
	metrics.ActiveRidesGauge.WithLabelValues(metricsService).Inc()
	s.log.Info(ctx, "ride created",
		"ride_type", created.RideType.String(),
		"fare", created.Fare,
	)

	s.publish(ctx, created)
	return created, nil
}

// Get fetches a single ride.
func (s *Service) Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ride, err := s.rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(wrap.WithRideID(ctx, rideID.String()), err)
	}
	return ride, nil
}

// History lists the caller's rides, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.Ride, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rides, err := s.rides.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return rides, nil
}

// Accept claims a pending ride for a verified driver. The claim is a
// conditional write: when several drivers race for the same ride, exactly
// one succeeds and the rest get ErrAlreadyClaimed.
func (s *Service) Accept(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "accept_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())
	ctx = wrap.WithDriverID(ctx, driverID.String())

	driver, err := s.drivers.Get(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !driver.IsVerified {
		return nil, types.ErrDriverNotVerified
	}

	ride, err := s.rides.AssignDriver(ctx, rideID, driver.ID)
	metrics.RideTransitionsTotal.WithLabelValues(metricsService, types.StatusAccepted.String(), transitionOutcome(err)).Inc()
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "ride accepted")
	s.publish(ctx, ride)
	return ride, nil
}

// Start moves an accepted ride to in_progress. Only the assigned driver
// may start it.
func (s *Service) Start(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "start_ride")
	return s.driverTransition(ctx, rideID, driverID, types.StatusInProgress)
}

// Complete finishes an in_progress ride. Only the assigned driver may
// complete it.
func (s *Service) Complete(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "complete_ride")

	ride, err := s.driverTransition(ctx, rideID, driverID, types.StatusCompleted)
	if err != nil {
		return nil, err
	}

	metrics.ActiveRidesGauge.WithLabelValues(metricsService).Dec()
	return ride, nil
}

// driverTransition applies a forward move on behalf of the assigned driver.
// The repository re-checks the expected source status, so a concurrent
// transition loses cleanly with ErrInvalidTransition.
func (s *Service) driverTransition(ctx context.Context, rideID, driverID uuid.UUID, to types.RideStatus) (*models.Ride, error) {
	ctx = wrap.WithRideID(ctx, rideID.String())
	ctx = wrap.WithDriverID(ctx, driverID.String())

	ride, err := s.rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if ride.DriverID == nil || *ride.DriverID != driverID {
		return nil, types.ErrRideNotFound
	}

	if err := ValidateTransition(ride.Status, to); err != nil {
		metrics.RideTransitionsTotal.WithLabelValues(metricsService, to.String(), "rejected").Inc()
		return nil, err
	}

	err = s.rides.UpdateStatus(ctx, rideID, ride.Status, to)
	metrics.RideTransitionsTotal.WithLabelValues(metricsService, to.String(), transitionOutcome(err)).Inc()
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ride.Status = to
	s.log.Info(ctx, "ride status changed", "to_status", to.String())
	s.publish(ctx, ride)
	return ride, nil
}

// Cancel lets the requesting rider cancel a ride that has not started.
func (s *Service) Cancel(ctx context.Context, rideID, userID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "cancel_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())

	ride, err := s.rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if ride.UserID != userID {
		return nil, types.ErrRideNotFound
	}

	if err := ValidateTransition(ride.Status, types.StatusCancelled); err != nil {
		metrics.RideTransitionsTotal.WithLabelValues(metricsService, types.StatusCancelled.String(), "rejected").Inc()
		return nil, err
	}

	err = s.rides.UpdateStatus(ctx, rideID, ride.Status, types.StatusCancelled)
	metrics.RideTransitionsTotal.WithLabelValues(metricsService, types.StatusCancelled.String(), transitionOutcome(err)).Inc()
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ride.Status = types.StatusCancelled
	metrics.ActiveRidesGauge.WithLabelValues(metricsService).Dec()
	s.log.Info(ctx, "ride cancelled")
	s.publish(ctx, ride)
	return ride, nil
}

// Rate records the rider's rating for a completed ride and folds it into
// the driver's running average. Both writes commit together.
func (s *Service) Rate(ctx context.Context, rideID, userID uuid.UUID, rating float64) error {
	ctx = wrap.WithAction(ctx, "rate_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())

	if rating < 1 || rating > 5 {
		return types.NewValidation("rating", "must be between 1 and 5")
	}

	return s.txManager.Do(ctx, func(ctx context.Context) error {
		ride, err := s.rides.Get(ctx, rideID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if ride.UserID != userID {
			return types.ErrRideNotFound
		}
		if ride.Status != types.StatusCompleted || ride.DriverID == nil {
			return types.ErrInvalidTransition
		}

		if err := s.drivers.RecordCompletedRide(ctx, *ride.DriverID, rating); err != nil {
			return wrap.Error(ctx, err)
		}
		return nil
	})
}

// MarkPaid updates the payment side of a ride.
func (s *Service) MarkPaid(ctx context.Context, rideID uuid.UUID, status types.PaymentStatus) error {
	ctx = wrap.WithAction(ctx, "update_payment")
	ctx = wrap.WithRideID(ctx, rideID.String())

	if err := s.rides.UpdatePaymentStatus(ctx, rideID, status); err != nil {
		return wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "payment status updated", "payment_status", string(status))
	return nil
}

func (s *Service) publish(ctx context.Context, ride *models.Ride) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStatus(ctx, ride); err != nil {
		s.log.Warn(ctx, "failed to publish ride status", "err", err.Error())
	}
}

func validateRequest(req models.RideRequest) error {
	fields := map[string]string{}
	if req.UserID.IsZero() {
		fields["user_id"] = "caller identity is required"
	}
	if strings.TrimSpace(req.Pickup.Address) == "" {
		fields["pickup"] = "address is required"
	}
	if strings.TrimSpace(req.Dropoff.Address) == "" {
		fields["dropoff"] = "address is required"
	}
	if !req.RideType.Valid() {
		fields["ride_type"] = "must be one of standard, comfort, share"
	}
	if len(fields) > 0 {
		return &types.ValidationError{Fields: fields}
	}
	return nil
}

func transitionOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, types.ErrAlreadyClaimed):
		return "lost_claim"
	case errors.Is(err, types.ErrInvalidTransition):
		return "rejected"
	default:
		return "error"
	}
}
