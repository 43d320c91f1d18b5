package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/passhash"
)

// Profile reads after signup are retried because the profile row may be
// written by an async trigger. initialBackoff doubles each attempt.
const initialBackoff = 100 * time.Millisecond

// SignUpRequest is the caller-supplied part of a new account.
type SignUpRequest struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     types.UserRole
}

// Store is an explicit session object: it fronts the identity provider and
// holds the current user with an observer list for change notification.
// There is no package-level state; tests run independent stores side by side.
type Store struct {
	profiles ProfileRepo
	refresh  RefreshTokenRepo
	tokens   TokenProvider
	log      logger.Logger

	// lowercase emails that are granted the admin role at signup
	adminEmails map[string]struct{}
	// total time budget for the post-signup profile read
	profileReadBudget time.Duration

	mu        sync.Mutex
	current   *models.User
	observers map[int]func(*models.User)
	nextObs   int
}

func NewStore(profiles ProfileRepo, refresh RefreshTokenRepo, tokens TokenProvider, adminEmails []string, profileReadBudget time.Duration, log logger.Logger) *Store {
	allow := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		allow[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}

	return &Store{
		profiles:          profiles,
		refresh:           refresh,
		tokens:            tokens,
		log:               log,
		adminEmails:       allow,
		profileReadBudget: profileReadBudget,
		observers:         make(map[int]func(*models.User)),
	}
}

// CurrentUser returns the warm current identity, or the anonymous user.
// Never blocks.
func (s *Store) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return models.AnonymousUser()
	}
	return s.current
}

// HasRole is a pure function of the current identity's role field.
func (s *Store) HasRole(role types.UserRole) bool {
	return s.CurrentUser().HasRole(role)
}

// AuthSubscription is the unsubscribe handle returned by OnAuthStateChange.
// Unsubscribe is idempotent.
type AuthSubscription struct {
	once  sync.Once
	store *Store
	id    int
}

func (a *AuthSubscription) Unsubscribe() {
	a.once.Do(func() {
		a.store.mu.Lock()
		delete(a.store.observers, a.id)
		a.store.mu.Unlock()
	})
}

// OnAuthStateChange registers a listener invoked on sign-in, sign-out and
// token refresh. Multiple listeners are supported.
func (s *Store) OnAuthStateChange(fn func(*models.User)) *AuthSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn

	return &AuthSubscription{store: s, id: id}
}

func (s *Store) setCurrent(u *models.User) {
	s.mu.Lock()
	s.current = u
	observers := make([]func(*models.User), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(u)
	}
}

// resolveRole derives the stored role: the admin allow-list wins, a caller
// asking for admin without being listed is coerced to rider, and anything
// invalid defaults to rider.
func (s *Store) resolveRole(email string, requested types.UserRole) types.UserRole {
	if _, ok := s.adminEmails[strings.ToLower(email)]; ok {
		return types.RoleAdmin
	}
	if requested == types.RoleAdmin || !requested.Valid() {
		return types.RoleRider
	}
	return requested
}

// SignUp creates the identity and profile, then reads the profile back with
// bounded retry. Exactly one profile row per identity; a duplicate submission
// fails with ErrNotUniqueEmail rather than creating a second row.
func (s *Store) SignUp(ctx context.Context, req SignUpRequest) (*models.User, *models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "sign_up")

	if err := validateSignUp(req); err != nil {
		return nil, nil, err
	}

	hash, err := passhash.HashPassword(req.Password)
	if err != nil {
		s.log.Error(ctx, "failed to hash password", err)
		return nil, nil, wrap.Error(ctx, err)
	}

	ident := &models.Identity{
		Email:        req.Email,
		PasswordHash: hash,
	}
	profile := &models.Profile{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     s.resolveRole(req.Email, req.Role),
	}

	if err := s.profiles.CreateIdentity(ctx, ident, profile); err != nil {
		return nil, nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithUserID(ctx, ident.ID.String())

	// The insert may be visible before the profile row (async trigger).
	stored, err := s.profileWithRetry(ctx, ident)
	if err != nil {
		return nil, nil, wrap.Error(ctx, err)
	}

	user := &models.User{Identity: *ident, Profile: *stored}

	pair, err := s.tokens.GenerateTokens(ctx, user)
	if err != nil {
		return nil, nil, wrap.Error(ctx, err)
	}

	s.setCurrent(user)
	s.log.Info(ctx, "user signed up", "role", string(user.Profile.Role))

	return user, pair, nil
}

// profileWithRetry reads the profile with doubling backoff until the read
// budget is spent. A profile still missing then is ErrProfileNotReady, which
// callers must not conflate with ErrNotFound.
func (s *Store) profileWithRetry(ctx context.Context, ident *models.Identity) (*models.Profile, error) {
	backoff := initialBackoff
	deadline := time.Now().Add(s.profileReadBudget)

	for {
		profile, err := s.profiles.GetProfile(ctx, ident.ID)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, types.ErrNotFound) {
			return nil, err
		}

		if time.Now().Add(backoff).After(deadline) {
			return nil, types.ErrProfileNotReady
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// SignIn verifies credentials and joins Identity with Profile once.
func (s *Store) SignIn(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "sign_in")

	ident, err := s.profiles.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, nil, types.ErrInvalidCredentials
		}
		return nil, nil, wrap.Error(ctx, err)
	}

	if ok, err := passhash.VerifyPassword(password, ident.PasswordHash); err != nil || !ok {
		return nil, nil, types.ErrInvalidCredentials
	}

	ctx = wrap.WithUserID(ctx, ident.ID.String())

	profile, err := s.profiles.GetProfile(ctx, ident.ID)
	if err != nil {
		return nil, nil, wrap.Error(ctx, err)
	}

	user := &models.User{Identity: *ident, Profile: *profile}

	pair, err := s.tokens.GenerateTokens(ctx, user)
	if err != nil {
		return nil, nil, wrap.Error(ctx, err)
	}

	s.setCurrent(user)
	s.log.Info(ctx, "user signed in")

	return user, pair, nil
}

// SignOut clears the local identity and revokes refresh tokens best-effort:
// a revocation failure is logged, never surfaced as fatal.
func (s *Store) SignOut(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "sign_out")

	current := s.CurrentUser()
	if !current.IsAnonymous() && s.refresh != nil {
		if err := s.refresh.RevokeAllForUser(ctx, current.ID); err != nil {
			s.log.Warn(ctx, "failed to revoke refresh tokens on sign-out", "err", err.Error())
		}
	}

	s.setCurrent(nil)
}

// RoleCheck validates an access token and returns the joined user. Used by
// the HTTP auth middleware.
func (s *Store) RoleCheck(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != models.AccessToken {
		return nil, ErrInvalidToken
	}

	profile, err := s.profiles.GetProfile(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.ErrUserNotFound
		}
		return nil, err
	}

	return &models.User{
		Identity: models.Identity{ID: profile.ID, Email: profile.Email},
		Profile:  *profile,
	}, nil
}

// Refresh rotates the token pair. When a current identity is warm the
// observers are re-notified (token refresh is an auth state change for
// them); a stateless refresh leaves the store untouched.
func (s *Store) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	pair, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current != nil {
		s.setCurrent(current)
	}
	return pair, nil
}

func validateSignUp(req SignUpRequest) error {
	fields := map[string]string{}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(req.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return &types.ValidationError{Fields: fields}
	}
	return nil
}
