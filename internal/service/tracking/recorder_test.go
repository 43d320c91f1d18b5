package tracking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

type fakeTrackingRepo struct {
	mu     sync.Mutex
	points []models.TrackingPoint
}

func (f *fakeTrackingRepo) Append(_ context.Context, point *models.TrackingPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if point.DriverLat < -90 || point.DriverLat > 90 || point.DriverLng < -180 || point.DriverLng > 180 {
		return types.ErrCoordinatesOutOfRange
	}

	stored := *point
	stored.ID = uuid.MustNew()
	f.points = append(f.points, stored)
	return nil
}

func (f *fakeTrackingRepo) ListByRide(_ context.Context, rideID uuid.UUID) ([]models.TrackingPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.TrackingPoint
	for _, p := range f.points {
		if p.RideID == rideID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

func (f *fakeTrackingRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.points[:0]
	var deleted int64
	for _, p := range f.points {
		if p.RecordedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	f.points = kept
	return deleted, nil
}

type stubRideRepo struct {
	ride *models.Ride
}

func (s *stubRideRepo) Get(_ context.Context, rideID uuid.UUID) (*models.Ride, error) {
	if s.ride == nil || s.ride.ID != rideID {
		return nil, types.ErrRideNotFound
	}
	out := *s.ride
	return &out, nil
}

type capturePublisher struct {
	updates []*models.LocationUpdate
}

func (c *capturePublisher) PublishLocation(_ context.Context, u *models.LocationUpdate) error {
	c.updates = append(c.updates, u)
	return nil
}

func inProgressRide(driverID uuid.UUID) *models.Ride {
	return &models.Ride{
		ID:       uuid.MustNew(),
		UserID:   uuid.MustNew(),
		DriverID: &driverID,
		Status:   types.StatusInProgress,
	}
}

func newTestRecorder(repo *fakeTrackingRepo, rides *stubRideRepo, pub LocationPublisher) *Recorder {
	log := logger.InitLogger("tracking-test", logger.LevelError)
	return NewRecorder(repo, rides, pub, log)
}

func TestRecordAppendsAndPublishes(t *testing.T) {
	driverID := uuid.MustNew()
	ride := inProgressRide(driverID)
	repo := &fakeTrackingRepo{}
	pub := &capturePublisher{}
	rec := newTestRecorder(repo, &stubRideRepo{ride: ride}, pub)

	ctx := context.Background()
	base := time.Now().UTC()

	// append out of order: the log keeps every point, ordered by recorded_at
	if err := rec.Record(ctx, ride.ID, driverID, -26.2, 28.0, base.Add(2*time.Second)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := rec.Record(ctx, ride.ID, driverID, -26.1, 28.1, base); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	route, err := rec.Route(ctx, ride.ID)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if len(route) != 2 {
		t.Fatalf("route length = %d, want 2", len(route))
	}
	if !route[0].RecordedAt.Before(route[1].RecordedAt) {
		t.Error("route is not ordered oldest first")
	}

	if len(pub.updates) != 2 {
		t.Errorf("published %d updates, want 2", len(pub.updates))
	}
	if pub.updates[0].DriverID != driverID {
		t.Errorf("published driver = %s, want %s", pub.updates[0].DriverID, driverID)
	}
}

func TestRecordRejectsWrongDriver(t *testing.T) {
	driverID := uuid.MustNew()
	ride := inProgressRide(driverID)
	rec := newTestRecorder(&fakeTrackingRepo{}, &stubRideRepo{ride: ride}, nil)

	err := rec.Record(context.Background(), ride.ID, uuid.MustNew(), 0, 0, time.Now())
	if !errors.Is(err, types.ErrRideNotFound) {
		t.Fatalf("Record() by wrong driver error = %v, want ErrRideNotFound", err)
	}
}

func TestRecordRejectsFinishedRide(t *testing.T) {
	driverID := uuid.MustNew()
	ride := inProgressRide(driverID)
	ride.Status = types.StatusCompleted
	rec := newTestRecorder(&fakeTrackingRepo{}, &stubRideRepo{ride: ride}, nil)

	err := rec.Record(context.Background(), ride.ID, driverID, 0, 0, time.Now())
	if !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("Record() on completed ride error = %v, want ErrInvalidTransition", err)
	}
}

func TestRecordOutOfRangeCoordinates(t *testing.T) {
	driverID := uuid.MustNew()
	ride := inProgressRide(driverID)
	rec := newTestRecorder(&fakeTrackingRepo{}, &stubRideRepo{ride: ride}, nil)

	err := rec.Record(context.Background(), ride.ID, driverID, 91, 0, time.Now())
	if !errors.Is(err, types.ErrCoordinatesOutOfRange) {
		t.Fatalf("Record() with lat 91 error = %v, want ErrCoordinatesOutOfRange", err)
	}
}

func TestRetentionPrune(t *testing.T) {
	driverID := uuid.MustNew()
	ride := inProgressRide(driverID)
	repo := &fakeTrackingRepo{}
	rec := newTestRecorder(repo, &stubRideRepo{ride: ride}, nil)

	ctx := context.Background()
	old := time.Now().UTC().Add(-48 * time.Hour)
	fresh := time.Now().UTC()

	rec.Record(ctx, ride.ID, driverID, 1, 1, old)
	rec.Record(ctx, ride.ID, driverID, 2, 2, fresh)

	log := logger.InitLogger("tracking-test", logger.LevelError)
	job := NewRetentionJob(repo, 24*time.Hour, time.Hour, log)
	job.prune(ctx)

	route, _ := rec.Route(ctx, ride.ID)
	if len(route) != 1 || route[0].DriverLat != 2 {
		t.Fatalf("route after prune = %+v, want only the fresh point", route)
	}
}
