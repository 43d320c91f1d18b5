package admin

import (
	"context"
	"testing"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

type fakeRideRepo struct {
	rides    []models.Ride
	byStatus map[types.RideStatus]int
}

func (f *fakeRideRepo) List(_ context.Context, limit, offset int) ([]models.Ride, error) {
	if offset >= len(f.rides) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.rides) {
		end = len(f.rides)
	}
	return f.rides[offset:end], nil
}

func (f *fakeRideRepo) CountByStatus(_ context.Context) (map[types.RideStatus]int, error) {
	return f.byStatus, nil
}

type fakeDriverRepo struct {
	drivers  []models.Driver
	verified map[uuid.UUID]bool
}

func (f *fakeDriverRepo) List(_ context.Context, limit, offset int) ([]models.Driver, error) {
	if offset >= len(f.drivers) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.drivers) {
		end = len(f.drivers)
	}
	return f.drivers[offset:end], nil
}

func (f *fakeDriverRepo) SetVerified(_ context.Context, driverID uuid.UUID, verified bool) error {
	for _, d := range f.drivers {
		if d.ID == driverID {
			f.verified[driverID] = verified
			return nil
		}
	}
	return types.ErrNotFound
}

func (f *fakeDriverRepo) CountActiveVerified(_ context.Context) (int, int, error) {
	active, verified := 0, 0
	for _, d := range f.drivers {
		if d.IsActive {
			active++
		}
		if d.IsVerified {
			verified++
		}
	}
	return active, verified, nil
}

type fakeProfileRepo struct {
	profiles []models.Profile
}

func (f *fakeProfileRepo) ListProfiles(_ context.Context, limit, offset int) ([]models.Profile, error) {
	if offset >= len(f.profiles) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.profiles) {
		end = len(f.profiles)
	}
	return f.profiles[offset:end], nil
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(rides *fakeRideRepo, drivers *fakeDriverRepo, profiles *fakeProfileRepo) *Service {
	log := logger.InitLogger("admin-test", logger.LevelError)
	return NewService(rides, drivers, profiles, passthroughTx{}, log)
}

func TestOverview(t *testing.T) {
	rides := &fakeRideRepo{byStatus: map[types.RideStatus]int{
		types.StatusPending:   3,
		types.StatusCompleted: 7,
	}}
	drivers := &fakeDriverRepo{
		drivers: []models.Driver{
			{ID: uuid.MustNew(), IsActive: true, IsVerified: true},
			{ID: uuid.MustNew(), IsActive: true},
			{ID: uuid.MustNew()},
		},
		verified: map[uuid.UUID]bool{},
	}
	svc := newTestService(rides, drivers, &fakeProfileRepo{})

	got, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if got.RidesByStatus[types.StatusPending] != 3 || got.RidesByStatus[types.StatusCompleted] != 7 {
		t.Errorf("RidesByStatus = %v", got.RidesByStatus)
	}
	if got.DriversActive != 2 {
		t.Errorf("DriversActive = %d, want 2", got.DriversActive)
	}
	if got.DriversVerified != 1 {
		t.Errorf("DriversVerified = %d, want 1", got.DriversVerified)
	}
}

func TestListRidesPagination(t *testing.T) {
	rides := &fakeRideRepo{}
	for i := 0; i < 5; i++ {
		rides.rides = append(rides.rides, models.Ride{ID: uuid.MustNew()})
	}
	svc := newTestService(rides, &fakeDriverRepo{verified: map[uuid.UUID]bool{}}, &fakeProfileRepo{})

	ctx := context.Background()

	page, err := svc.ListRides(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListRides() error = %v", err)
	}
	if len(page) != 2 {
		t.Errorf("first page = %d rides, want 2", len(page))
	}

	page, _ = svc.ListRides(ctx, 2, 4)
	if len(page) != 1 {
		t.Errorf("last page = %d rides, want 1", len(page))
	}

	// defaults apply for nonsense input
	page, _ = svc.ListRides(ctx, -1, -10)
	if len(page) != 5 {
		t.Errorf("default page = %d rides, want all 5", len(page))
	}
}

func TestSetDriverVerified(t *testing.T) {
	driverID := uuid.MustNew()
	drivers := &fakeDriverRepo{
		drivers:  []models.Driver{{ID: driverID}},
		verified: map[uuid.UUID]bool{},
	}
	svc := newTestService(&fakeRideRepo{}, drivers, &fakeProfileRepo{})

	ctx := context.Background()
	if err := svc.SetDriverVerified(ctx, driverID, true); err != nil {
		t.Fatalf("SetDriverVerified() error = %v", err)
	}
	if !drivers.verified[driverID] {
		t.Error("driver not marked verified")
	}

	if err := svc.SetDriverVerified(ctx, uuid.MustNew(), true); err == nil {
		t.Error("expected error for unknown driver")
	}
}
