package driver

import (
	"context"
	"sync"
	"testing"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

type fakeDriverRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.Driver
	byUser  map[uuid.UUID]*models.Driver
	created int
}

func newFakeDriverRepo() *fakeDriverRepo {
	return &fakeDriverRepo{
		byID:   make(map[uuid.UUID]*models.Driver),
		byUser: make(map[uuid.UUID]*models.Driver),
	}
}

func (f *fakeDriverRepo) Create(_ context.Context, d *models.Driver) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d.ID = uuid.MustNew()
	d.IsActive = true
	d.Rating = 5.0
	f.byID[d.ID] = d
	f.byUser[d.UserID] = d
	f.created++
	return nil
}

func (f *fakeDriverRepo) Get(_ context.Context, driverID uuid.UUID) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.byID[driverID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return d, nil
}

func (f *fakeDriverRepo) GetByUser(_ context.Context, userID uuid.UUID) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.byUser[userID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return d, nil
}

func (f *fakeDriverRepo) ListAvailable(_ context.Context, limit int) ([]models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Driver
	for _, d := range f.byID {
		if d.IsVerified && d.IsActive && len(out) < limit {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDriverRepo) SetActive(_ context.Context, driverID uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.byID[driverID]
	if !ok {
		return types.ErrNotFound
	}
	d.IsActive = active
	return nil
}

func newTestService(repo *fakeDriverRepo) *Service {
	return NewService(repo, logger.InitLogger("driver-test", logger.LevelError))
}

func registerReq(userID uuid.UUID) RegisterRequest {
	return RegisterRequest{
		UserID:        userID,
		LicenseNumber: "GP-123456",
		Vehicle:       models.Vehicle{Make: "Toyota", Model: "Corolla", Year: 2019, Plate: "ABC123GP"},
	}
}

func TestRegister(t *testing.T) {
	repo := newFakeDriverRepo()
	svc := newTestService(repo)
	userID := uuid.MustNew()

	d, err := svc.Register(context.Background(), registerReq(userID))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if d.IsVerified {
		t.Error("new driver must start unverified")
	}
	if !d.IsActive {
		t.Error("new driver must start active")
	}
}

func TestRegisterIsIdempotentPerUser(t *testing.T) {
	repo := newFakeDriverRepo()
	svc := newTestService(repo)
	userID := uuid.MustNew()

	first, err := svc.Register(context.Background(), registerReq(userID))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	second, err := svc.Register(context.Background(), registerReq(userID))
	if err != nil {
		t.Fatalf("second Register() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second registration created a new record: %s vs %s", first.ID, second.ID)
	}
	if repo.created != 1 {
		t.Errorf("created = %d, want 1", repo.created)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newFakeDriverRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{UserID: uuid.MustNew()})
	if !types.IsValidation(err) {
		t.Fatalf("Register() error = %v, want validation error", err)
	}
}

func TestSetActive(t *testing.T) {
	repo := newFakeDriverRepo()
	svc := newTestService(repo)
	userID := uuid.MustNew()

	ctx := context.Background()
	d, _ := svc.Register(ctx, registerReq(userID))

	if err := svc.SetActive(ctx, userID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	got, _ := svc.Get(ctx, d.ID)
	if got.IsActive {
		t.Error("driver still active after SetActive(false)")
	}
}

func TestAvailableExcludesUnverified(t *testing.T) {
	repo := newFakeDriverRepo()
	svc := newTestService(repo)

	ctx := context.Background()
	d, _ := svc.Register(ctx, registerReq(uuid.MustNew()))

	got, err := svc.Available(ctx, 0)
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Available() includes unverified driver")
	}

	repo.mu.Lock()
	repo.byID[d.ID].IsVerified = true
	repo.mu.Unlock()

	got, _ = svc.Available(ctx, 0)
	if len(got) != 1 {
		t.Fatalf("Available() = %d drivers, want 1", len(got))
	}
}
