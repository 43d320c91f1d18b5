package ride

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

type fakeRideRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*models.Ride
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{rides: make(map[uuid.UUID]*models.Ride)}
}

func (f *fakeRideRepo) Create(_ context.Context, ride *models.Ride) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := *ride
	stored.ID = uuid.MustNew()
	f.rides[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (f *fakeRideRepo) Get(_ context.Context, rideID uuid.UUID) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ride, ok := f.rides[rideID]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	out := *ride
	return &out, nil
}

func (f *fakeRideRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Ride
	for _, r := range f.rides {
		if r.UserID == userID && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

// UpdateStatus mirrors the conditional UPDATE: zero rows when the source
// status no longer matches.
func (f *fakeRideRepo) UpdateStatus(_ context.Context, rideID uuid.UUID, expectedFrom, newStatus types.RideStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ride, ok := f.rides[rideID]
	if !ok {
		return types.ErrRideNotFound
	}
	if ride.Status != expectedFrom {
		return types.ErrInvalidTransition
	}
	ride.Status = newStatus
	return nil
}

// AssignDriver mirrors the conditional claim: only a pending, unassigned
// ride can be taken, so concurrent claims get exactly one winner.
func (f *fakeRideRepo) AssignDriver(_ context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ride, ok := f.rides[rideID]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	if ride.Status != types.StatusPending || ride.DriverID != nil {
		return nil, types.ErrAlreadyClaimed
	}
	id := driverID
	ride.DriverID = &id
	ride.Status = types.StatusAccepted

	out := *ride
	return &out, nil
}

func (f *fakeRideRepo) UpdatePaymentStatus(_ context.Context, rideID uuid.UUID, status types.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ride, ok := f.rides[rideID]
	if !ok {
		return types.ErrRideNotFound
	}
	ride.PaymentStatus = status
	return nil
}

type fakeDriverRepo struct {
	mu      sync.Mutex
	drivers map[uuid.UUID]*models.Driver
	rated   []float64
}

func newFakeDriverRepo() *fakeDriverRepo {
	return &fakeDriverRepo{drivers: make(map[uuid.UUID]*models.Driver)}
}

func (f *fakeDriverRepo) add(verified bool) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := uuid.MustNew()
	f.drivers[id] = &models.Driver{ID: id, IsVerified: verified, IsActive: true}
	return id
}

func (f *fakeDriverRepo) Get(_ context.Context, driverID uuid.UUID) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.drivers[driverID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return d, nil
}

func (f *fakeDriverRepo) RecordCompletedRide(_ context.Context, _ uuid.UUID, rating float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rated = append(f.rated, rating)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	statuses []types.RideStatus
}

func (f *fakePublisher) PublishStatus(_ context.Context, ride *models.Ride) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.statuses = append(f.statuses, ride.Status)
	return nil
}

type noopTxManager struct{}

func (noopTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(rides *fakeRideRepo, drivers *fakeDriverRepo, pub StatusPublisher) *Service {
	log := logger.InitLogger("ride-test", logger.LevelError)
	return NewService(rides, drivers, pub, noopTxManager{}, log)
}

func pendingRide(t *testing.T, svc *Service, userID uuid.UUID) *models.Ride {
	t.Helper()

	ride, err := svc.Create(context.Background(), models.RideRequest{
		UserID:     userID,
		Pickup:     models.Location{Address: "12 Main Rd"},
		Dropoff:    models.Location{Address: "88 Oak Ave"},
		RideType:   types.RideStandard,
		DistanceKm: 10,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return ride
}

func TestCreateRide(t *testing.T) {
	rides := newFakeRideRepo()
	pub := &fakePublisher{}
	svc := newTestService(rides, newFakeDriverRepo(), pub)
	userID := uuid.MustNew()

	ride := pendingRide(t, svc, userID)

	if ride.Status != types.StatusPending {
		t.Errorf("status = %s, want pending", ride.Status)
	}
	if ride.DriverID != nil {
		t.Error("new ride must have no driver")
	}
	if ride.Fare != 135 {
		t.Errorf("fare = %d, want 135", ride.Fare)
	}
	if ride.PaymentStatus != types.PaymentPending {
		t.Errorf("payment status = %s, want pending", ride.PaymentStatus)
	}

	got, err := svc.Get(context.Background(), ride.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != ride.ID || got.Fare != ride.Fare {
		t.Errorf("Get() = %+v, want the created ride", got)
	}

	if len(pub.statuses) != 1 || pub.statuses[0] != types.StatusPending {
		t.Errorf("published statuses = %v", pub.statuses)
	}
}

func TestCreateRideValidation(t *testing.T) {
	svc := newTestService(newFakeRideRepo(), newFakeDriverRepo(), nil)

	tests := []struct {
		name string
		req  models.RideRequest
	}{
		{"missing user", models.RideRequest{
			Pickup: models.Location{Address: "a"}, Dropoff: models.Location{Address: "b"},
			RideType: types.RideStandard, DistanceKm: 1,
		}},
		{"missing pickup", models.RideRequest{
			UserID: uuid.MustNew(), Dropoff: models.Location{Address: "b"},
			RideType: types.RideStandard, DistanceKm: 1,
		}},
		{"missing dropoff", models.RideRequest{
			UserID: uuid.MustNew(), Pickup: models.Location{Address: "a"},
			RideType: types.RideStandard, DistanceKm: 1,
		}},
		{"bad ride type", models.RideRequest{
			UserID: uuid.MustNew(), Pickup: models.Location{Address: "a"},
			Dropoff: models.Location{Address: "b"}, RideType: "luxury", DistanceKm: 1,
		}},
		{"coords do not replace pickup address", models.RideRequest{
			UserID: uuid.MustNew(), Pickup: coords(-26.2041, 28.0473),
			Dropoff: models.Location{Address: "b"},
			RideType: types.RideStandard, DistanceKm: 1,
		}},
		{"coords do not replace dropoff address", models.RideRequest{
			UserID: uuid.MustNew(), Pickup: models.Location{Address: "a"},
			Dropoff: coords(-26.1076, 28.0567),
			RideType: types.RideStandard, DistanceKm: 1,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.req); !types.IsValidation(err) {
				t.Errorf("Create() error = %v, want validation error", err)
			}
		})
	}
}

func TestAcceptClaimRace(t *testing.T) {
	rides := newFakeRideRepo()
	drivers := newFakeDriverRepo()
	svc := newTestService(rides, drivers, &fakePublisher{})

	ride := pendingRide(t, svc, uuid.MustNew())

	const contenders = 16
	driverIDs := make([]uuid.UUID, contenders)
	for i := range driverIDs {
		driverIDs[i] = drivers.add(true)
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Accept(context.Background(), ride.ID, driverIDs[i])
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, types.ErrAlreadyClaimed):
		default:
			t.Errorf("unexpected claim error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	got, err := svc.Get(context.Background(), ride.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != types.StatusAccepted || got.DriverID == nil {
		t.Errorf("ride after claim = %+v", got)
	}
}

func TestAcceptUnverifiedDriver(t *testing.T) {
	rides := newFakeRideRepo()
	drivers := newFakeDriverRepo()
	svc := newTestService(rides, drivers, &fakePublisher{})

	ride := pendingRide(t, svc, uuid.MustNew())
	unverified := drivers.add(false)

	if _, err := svc.Accept(context.Background(), ride.ID, unverified); !errors.Is(err, types.ErrDriverNotVerified) {
		t.Fatalf("Accept() error = %v, want ErrDriverNotVerified", err)
	}
}

func TestFullLifecycle(t *testing.T) {
	rides := newFakeRideRepo()
	drivers := newFakeDriverRepo()
	pub := &fakePublisher{}
	svc := newTestService(rides, drivers, pub)

	ctx := context.Background()
	userID := uuid.MustNew()
	ride := pendingRide(t, svc, userID)
	driverID := drivers.add(true)

	if _, err := svc.Accept(ctx, ride.ID, driverID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if _, err := svc.Start(ctx, ride.ID, driverID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := svc.Complete(ctx, ride.ID, driverID); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	got, _ := svc.Get(ctx, ride.ID)
	if got.Status != types.StatusCompleted {
		t.Fatalf("final status = %s, want completed", got.Status)
	}

	// completed is terminal: nothing moves it
	if _, err := svc.Cancel(ctx, ride.ID, userID); !errors.Is(err, types.ErrInvalidTransition) {
		t.Errorf("Cancel() on completed ride error = %v, want ErrInvalidTransition", err)
	}

	want := []types.RideStatus{types.StatusPending, types.StatusAccepted, types.StatusInProgress, types.StatusCompleted}
	if len(pub.statuses) != len(want) {
		t.Fatalf("published statuses = %v, want %v", pub.statuses, want)
	}
	for i, s := range want {
		if pub.statuses[i] != s {
			t.Errorf("published[%d] = %s, want %s", i, pub.statuses[i], s)
		}
	}
}

func TestStartSkippingAcceptIsRejected(t *testing.T) {
	rides := newFakeRideRepo()
	drivers := newFakeDriverRepo()
	svc := newTestService(rides, drivers, &fakePublisher{})

	ctx := context.Background()
	ride := pendingRide(t, svc, uuid.MustNew())
	driverID := drivers.add(true)

	// driver is not assigned yet, so the ride is invisible to them
	if _, err := svc.Start(ctx, ride.ID, driverID); !errors.Is(err, types.ErrRideNotFound) {
		t.Fatalf("Start() before accept error = %v, want ErrRideNotFound", err)
	}
}

func TestCancelRules(t *testing.T) {
	rides := newFakeRideRepo()
	drivers := newFakeDriverRepo()
	svc := newTestService(rides, drivers, &fakePublisher{})

	ctx := context.Background()
	userID := uuid.MustNew()

	// pending ride cancels fine
	ride := pendingRide(t, svc, userID)
	if _, err := svc.Cancel(ctx, ride.ID, userID); err != nil {
		t.Fatalf("Cancel() pending error = %v", err)
	}

	// another rider cannot cancel someone else's ride
	other := pendingRide(t, svc, userID)
	if _, err := svc.Cancel(ctx, other.ID, uuid.MustNew()); !errors.Is(err, types.ErrRideNotFound) {
		t.Fatalf("Cancel() by stranger error = %v, want ErrRideNotFound", err)
	}

	// in_progress cannot be cancelled
	active := pendingRide(t, svc, userID)
	driverID := drivers.add(true)
	if _, err := svc.Accept(ctx, active.ID, driverID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if _, err := svc.Start(ctx, active.ID, driverID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := svc.Cancel(ctx, active.ID, userID); !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("Cancel() in_progress error = %v, want ErrInvalidTransition", err)
	}
}

func TestRate(t *testing.T) {
	rides := newFakeRideRepo()
	drivers := newFakeDriverRepo()
	svc := newTestService(rides, drivers, &fakePublisher{})

	ctx := context.Background()
	userID := uuid.MustNew()
	ride := pendingRide(t, svc, userID)
	driverID := drivers.add(true)

	// rating before completion is rejected
	if err := svc.Rate(ctx, ride.ID, userID, 4); !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("Rate() before completion error = %v, want ErrInvalidTransition", err)
	}

	svc.Accept(ctx, ride.ID, driverID)
	svc.Start(ctx, ride.ID, driverID)
	svc.Complete(ctx, ride.ID, driverID)

	if err := svc.Rate(ctx, ride.ID, userID, 0); !types.IsValidation(err) {
		t.Fatalf("Rate() out of range error = %v, want validation error", err)
	}
	if err := svc.Rate(ctx, ride.ID, userID, 4.5); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if len(drivers.rated) != 1 || drivers.rated[0] != 4.5 {
		t.Errorf("recorded ratings = %v", drivers.rated)
	}
}

func TestHistory(t *testing.T) {
	rides := newFakeRideRepo()
	svc := newTestService(rides, newFakeDriverRepo(), nil)

	userID := uuid.MustNew()
	for i := 0; i < 3; i++ {
		pendingRide(t, svc, userID)
	}
	pendingRide(t, svc, uuid.MustNew())

	got, err := svc.History(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("History() returned %d rides, want 3", len(got))
	}
}
