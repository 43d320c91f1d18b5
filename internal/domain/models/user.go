package models

import (
	"context"
	"time"

	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

// Identity is what the auth side knows about a user: a stable id, an email
// and credentials. Everything else lives in the Profile.
type Identity struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
}

// Profile is the mirrored row in the relational store.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      types.UserRole `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an Identity joined with its Profile, composed once after sign-in
// rather than merged ad hoc.
type User struct {
	Identity
	Profile Profile
}

// Role returns the profile role; empty profile means no role.
func (u *User) Role() types.UserRole {
	return u.Profile.Role
}

// HasRole is a pure function of the joined profile's role field.
func (u *User) HasRole(role types.UserRole) bool {
	if u == nil {
		return false
	}
	return u.Profile.Role == role
}

// IsAnonymous reports whether u is the anonymous placeholder.
func (u *User) IsAnonymous() bool {
	return u == nil || u.ID.IsZero()
}

// AnonymousUser is the identity attached to unauthenticated requests.
func AnonymousUser() *User {
	return &User{}
}

type userCtxKey struct{}

// WithUser stores the authenticated user in the request context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the authenticated user, or the anonymous user.
func UserFromContext(ctx context.Context) *User {
	if u, ok := ctx.Value(userCtxKey{}).(*User); ok && u != nil {
		return u
	}
	return AnonymousUser()
}
