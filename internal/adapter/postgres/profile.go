package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	pg "github.com/hoblink/hoblink-backend/pkg/postgres"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

type ProfileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepo(db *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// CreateIdentity inserts the credentials row and its mirrored profile in one
// statement pair. created_at/updated_at are server-set.
func (r *ProfileRepo) CreateIdentity(ctx context.Context, ident *models.Identity, profile *models.Profile) error {
	const op = "ProfileRepo.CreateIdentity"
	q := TxorDB(ctx, r.db)

	identQuery := `
		INSERT INTO identities (email, password_hash)
		VALUES ($1, $2)
		RETURNING id;`

	if err := q.QueryRow(ctx, identQuery, ident.Email, ident.PasswordHash).Scan(&ident.ID); err != nil {
		if pg.IsUniqueViolation(err) {
			return types.ErrNotUniqueEmail
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	profileQuery := `
		INSERT INTO profiles (id, email, full_name, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at;`

	profile.ID = ident.ID
	if err := q.QueryRow(ctx, profileQuery,
		profile.ID, profile.Email, profile.FullName, profile.Phone, profile.Role,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetIdentityByEmail fetches credentials by email. Returns ErrUserNotFound
// when absent.
func (r *ProfileRepo) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	const op = "ProfileRepo.GetIdentityByEmail"

	query := `
		SELECT id, email, password_hash
		FROM identities
		WHERE email = $1;`

	var ident models.Identity
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, email).Scan(&ident.ID, &ident.Email, &ident.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ident, nil
}

// GetProfile fetches the profile row. Returns ErrNotFound when absent; the
// session layer decides whether that means "not ready yet".
func (r *ProfileRepo) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	const op = "ProfileRepo.GetProfile"

	query := `
		SELECT id, email, full_name, phone, role, created_at, updated_at
		FROM profiles
		WHERE id = $1;`

	var p models.Profile
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Phone, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}

// UpdateProfile rewrites the mutable profile fields.
func (r *ProfileRepo) UpdateProfile(ctx context.Context, p *models.Profile) error {
	const op = "ProfileRepo.UpdateProfile"

	query := `
		UPDATE profiles
		SET full_name = $2, phone = $3, updated_at = now()
		WHERE id = $1;`

	cmdTag, err := TxorDB(ctx, r.db).Exec(ctx, query, p.ID, p.FullName, p.Phone)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrNotFound
	}

	return nil
}

// ListProfiles returns profiles ordered by creation time, newest first.
func (r *ProfileRepo) ListProfiles(ctx context.Context, limit, offset int) ([]models.Profile, error) {
	const op = "ProfileRepo.ListProfiles"

	query := `
		SELECT id, email, full_name, phone, role, created_at, updated_at
		FROM profiles
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
