package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	"github.com/hoblink/hoblink-backend/pkg/passhash"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

type fakeProfileRepo struct {
	mu         sync.Mutex
	identities map[string]*models.Identity
	profiles   map[uuid.UUID]*models.Profile

	// number of GetProfile calls that return ErrNotFound before success
	profileDelay int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		identities: make(map[string]*models.Identity),
		profiles:   make(map[uuid.UUID]*models.Profile),
	}
}

func (f *fakeProfileRepo) CreateIdentity(_ context.Context, ident *models.Identity, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.identities[ident.Email]; ok {
		return types.ErrNotUniqueEmail
	}

	ident.ID = uuid.MustNew()
	profile.ID = ident.ID
	f.identities[ident.Email] = ident
	f.profiles[ident.ID] = profile
	return nil
}

func (f *fakeProfileRepo) GetIdentityByEmail(_ context.Context, email string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ident, ok := f.identities[email]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return ident, nil
}

func (f *fakeProfileRepo) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.profileDelay > 0 {
		f.profileDelay--
		return nil, types.ErrNotFound
	}

	p, ok := f.profiles[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfileRepo) UpdateProfile(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.profiles[p.ID] = p
	return nil
}

type fakeTokenProvider struct {
	generated int
}

func (f *fakeTokenProvider) GenerateTokens(_ context.Context, user *models.User) (*models.TokenPair, error) {
	f.generated++
	return &models.TokenPair{AccessToken: "access-" + user.ID.String(), RefreshToken: "refresh"}, nil
}

func (f *fakeTokenProvider) Refresh(_ context.Context, _ string) (*models.TokenPair, error) {
	return &models.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (f *fakeTokenProvider) Validate(_ context.Context, _ string) (*models.CustomClaims, error) {
	return nil, ErrInvalidToken
}

type fakeRefreshRepo struct {
	revokedFor []uuid.UUID
	err        error
}

func (f *fakeRefreshRepo) Save(_ context.Context, _ *models.RefreshTokenRecord) error { return nil }
func (f *fakeRefreshRepo) Get(_ context.Context, _ uuid.UUID) (*models.RefreshTokenRecord, error) {
	return nil, nil
}
func (f *fakeRefreshRepo) Revoke(_ context.Context, _ uuid.UUID) error { return nil }
func (f *fakeRefreshRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	f.revokedFor = append(f.revokedFor, userID)
	return f.err
}

func newTestStore(t *testing.T, repo *fakeProfileRepo, budget time.Duration) *Store {
	t.Helper()
	log := logger.InitLogger("session-test", logger.LevelError)
	return NewStore(repo, &fakeRefreshRepo{}, &fakeTokenProvider{}, []string{"info@thabodigital.co.za"}, budget, log)
}

func TestSignUpRoleAssignment(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		requested types.UserRole
		want      types.UserRole
	}{
		{"rider stays rider", "rider@example.com", types.RoleRider, types.RoleRider},
		{"driver stays driver", "driver@example.com", types.RoleDriver, types.RoleDriver},
		{"admin request without allow-list is coerced", "sneaky@example.com", types.RoleAdmin, types.RoleRider},
		{"allow-listed email becomes admin", "info@thabodigital.co.za", types.RoleRider, types.RoleAdmin},
		{"unknown role defaults to rider", "unknown@example.com", types.UserRole("owner"), types.RoleRider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, newFakeProfileRepo(), time.Second)

			user, pair, err := store.SignUp(context.Background(), SignUpRequest{
				Email:    tt.email,
				Password: "correct-horse",
				FullName: "Test User",
				Role:     tt.requested,
			})
			if err != nil {
				t.Fatalf("SignUp() error = %v", err)
			}
			if user.Profile.Role != tt.want {
				t.Errorf("role = %s, want %s", user.Profile.Role, tt.want)
			}
			if pair == nil || pair.AccessToken == "" {
				t.Error("expected a token pair after signup")
			}
		})
	}
}

func TestSignUpValidation(t *testing.T) {
	store := newTestStore(t, newFakeProfileRepo(), time.Second)

	_, _, err := store.SignUp(context.Background(), SignUpRequest{Email: "not-an-email", Password: "short"})
	if !types.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	repo := newFakeProfileRepo()
	store := newTestStore(t, repo, time.Second)

	req := SignUpRequest{Email: "dup@example.com", Password: "correct-horse", Role: types.RoleRider}
	if _, _, err := store.SignUp(context.Background(), req); err != nil {
		t.Fatalf("first SignUp() error = %v", err)
	}
	if _, _, err := store.SignUp(context.Background(), req); !errors.Is(err, types.ErrNotUniqueEmail) {
		t.Fatalf("second SignUp() error = %v, want ErrNotUniqueEmail", err)
	}
}

func TestSignUpProfileRetry(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.profileDelay = 2
	store := newTestStore(t, repo, 2*time.Second)

	user, _, err := store.SignUp(context.Background(), SignUpRequest{
		Email:    "slow@example.com",
		Password: "correct-horse",
		Role:     types.RoleRider,
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if user.Profile.Email != "slow@example.com" {
		t.Errorf("profile email = %s", user.Profile.Email)
	}
}

func TestSignUpProfileNeverReady(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.profileDelay = 100
	store := newTestStore(t, repo, 300*time.Millisecond)

	_, _, err := store.SignUp(context.Background(), SignUpRequest{
		Email:    "never@example.com",
		Password: "correct-horse",
		Role:     types.RoleRider,
	})
	if !errors.Is(err, types.ErrProfileNotReady) {
		t.Fatalf("SignUp() error = %v, want ErrProfileNotReady", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	repo := newFakeProfileRepo()
	store := newTestStore(t, repo, time.Second)

	ctx := context.Background()
	if _, _, err := store.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "correct-horse", Role: types.RoleRider}); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	store.SignOut(ctx)

	if _, _, err := store.SignIn(ctx, "a@example.com", "wrong-password"); !errors.Is(err, types.ErrInvalidCredentials) {
		t.Fatalf("SignIn() error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := store.SignIn(ctx, "nobody@example.com", "whatever"); !errors.Is(err, types.ErrInvalidCredentials) {
		t.Fatalf("SignIn() unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignInSetsCurrentUser(t *testing.T) {
	repo := newFakeProfileRepo()
	store := newTestStore(t, repo, time.Second)

	ctx := context.Background()
	if _, _, err := store.SignUp(ctx, SignUpRequest{Email: "b@example.com", Password: "correct-horse", Role: types.RoleDriver}); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	store.SignOut(ctx)

	if !store.CurrentUser().IsAnonymous() {
		t.Fatal("expected anonymous user after sign-out")
	}

	user, _, err := store.SignIn(ctx, "b@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if store.CurrentUser().ID != user.ID {
		t.Error("CurrentUser() does not match signed-in user")
	}
	if !store.HasRole(types.RoleDriver) {
		t.Error("HasRole(driver) = false after driver sign-in")
	}
}

func TestRefreshNotifiesOnlyWarmSession(t *testing.T) {
	repo := newFakeProfileRepo()
	store := newTestStore(t, repo, time.Second)
	ctx := context.Background()

	notified := 0
	sub := store.OnAuthStateChange(func(*models.User) { notified++ })
	defer sub.Unsubscribe()

	// Stateless refresh: no current user, no auth state change.
	if _, err := store.Refresh(ctx, "refresh"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if notified != 0 {
		t.Fatalf("stateless refresh notified %d observer(s)", notified)
	}
	if !store.CurrentUser().IsAnonymous() {
		t.Fatal("stateless refresh must not install a current user")
	}

	user, _, err := store.SignUp(ctx, SignUpRequest{Email: "r@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	notified = 0

	if _, err := store.Refresh(ctx, "refresh"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if notified != 1 {
		t.Errorf("warm refresh notified %d observer(s), want 1", notified)
	}
	if store.CurrentUser().ID != user.ID {
		t.Error("warm refresh changed the current user")
	}
}

func TestSignOutRevokesBestEffort(t *testing.T) {
	repo := newFakeProfileRepo()
	refresh := &fakeRefreshRepo{err: errors.New("broker down")}
	log := logger.InitLogger("session-test", logger.LevelError)
	store := NewStore(repo, refresh, &fakeTokenProvider{}, nil, time.Second, log)

	ctx := context.Background()
	user, _, err := store.SignUp(ctx, SignUpRequest{Email: "c@example.com", Password: "correct-horse", Role: types.RoleRider})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	// revocation failure must not keep the local session alive
	store.SignOut(ctx)

	if !store.CurrentUser().IsAnonymous() {
		t.Fatal("expected anonymous user after sign-out despite revocation failure")
	}
	if len(refresh.revokedFor) != 1 || refresh.revokedFor[0] != user.ID {
		t.Errorf("revokedFor = %v, want [%s]", refresh.revokedFor, user.ID)
	}
}

func TestOnAuthStateChange(t *testing.T) {
	repo := newFakeProfileRepo()
	store := newTestStore(t, repo, time.Second)

	var mu sync.Mutex
	var first, second []string
	record := func(dst *[]string) func(*models.User) {
		return func(u *models.User) {
			mu.Lock()
			defer mu.Unlock()
			if u == nil {
				*dst = append(*dst, "signed_out")
			} else {
				*dst = append(*dst, u.Email)
			}
		}
	}

	sub1 := store.OnAuthStateChange(record(&first))
	sub2 := store.OnAuthStateChange(record(&second))

	ctx := context.Background()
	if _, _, err := store.SignUp(ctx, SignUpRequest{Email: "obs@example.com", Password: "correct-horse", Role: types.RoleRider}); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	sub2.Unsubscribe()
	sub2.Unsubscribe() // idempotent

	store.SignOut(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(first) != 2 || first[0] != "obs@example.com" || first[1] != "signed_out" {
		t.Errorf("first observer saw %v", first)
	}
	if len(second) != 1 || second[0] != "obs@example.com" {
		t.Errorf("unsubscribed observer saw %v", second)
	}

	sub1.Unsubscribe()
	store.mu.Lock()
	remaining := len(store.observers)
	store.mu.Unlock()
	if remaining != 0 {
		t.Errorf("observers remaining = %d, want 0", remaining)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := passhash.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	ok, err := passhash.VerifyPassword("correct-horse", hash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword() = %v, %v", ok, err)
	}
}
