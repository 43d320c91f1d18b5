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

type DriverRepo struct {
	db *pgxpool.Pool
}

func NewDriverRepo(db *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{db: db}
}

const driverColumns = `
	id, user_id, license_number,
	vehicle_make, vehicle_model, vehicle_year, vehicle_color, vehicle_plate,
	is_verified, is_active, rating, total_rides,
	created_at, updated_at`

func scanDriver(row pgx.Row) (*models.Driver, error) {
	var d models.Driver
	err := row.Scan(
		&d.ID, &d.UserID, &d.LicenseNumber,
		&d.Vehicle.Make, &d.Vehicle.Model, &d.Vehicle.Year, &d.Vehicle.Color, &d.Vehicle.Plate,
		&d.IsVerified, &d.IsActive, &d.Rating, &d.TotalRides,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new driver. Fresh drivers start unverified, active, with
// a 5.0 rating and zero completed rides.
func (r *DriverRepo) Create(ctx context.Context, d *models.Driver) error {
	const op = "DriverRepo.Create"

	query := `
		INSERT INTO drivers (
			user_id, license_number,
			vehicle_make, vehicle_model, vehicle_year, vehicle_color, vehicle_plate,
			is_verified, is_active, rating, total_rides
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, true, 5.0, 0)
		RETURNING id, is_verified, is_active, rating, total_rides, created_at, updated_at;`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		d.UserID, d.LicenseNumber,
		d.Vehicle.Make, d.Vehicle.Model, d.Vehicle.Year, d.Vehicle.Color, d.Vehicle.Plate,
	).Scan(&d.ID, &d.IsVerified, &d.IsActive, &d.Rating, &d.TotalRides, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return types.NewValidation("license_number", "already registered")
		}
		if pg.IsForeignKeyViolation(err) {
			return types.ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Get fetches a driver by id.
func (r *DriverRepo) Get(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	const op = "DriverRepo.Get"

	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1;`

	d, err := scanDriver(TxorDB(ctx, r.db).QueryRow(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return d, nil
}

// GetByUser fetches the driver row owned by a profile.
func (r *DriverRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Driver, error) {
	const op = "DriverRepo.GetByUser"

	query := `SELECT ` + driverColumns + ` FROM drivers WHERE user_id = $1;`

	d, err := scanDriver(TxorDB(ctx, r.db).QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return d, nil
}

// ListAvailable returns verified, active drivers ordered by rating.
func (r *DriverRepo) ListAvailable(ctx context.Context, limit int) ([]models.Driver, error) {
	const op = "DriverRepo.ListAvailable"

	query := `
		SELECT ` + driverColumns + `
		FROM drivers
		WHERE is_active = true AND is_verified = true
		ORDER BY rating DESC
		LIMIT $1;`

	return r.list(ctx, op, query, limit)
}

// List returns drivers paginated, newest first.
func (r *DriverRepo) List(ctx context.Context, limit, offset int) ([]models.Driver, error) {
	const op = "DriverRepo.List"

	query := `
		SELECT ` + driverColumns + `
		FROM drivers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;`

	return r.list(ctx, op, query, limit, offset)
}

func (r *DriverRepo) list(ctx context.Context, op, query string, args ...any) ([]models.Driver, error) {
	rows, err := TxorDB(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// SetVerified flips the admin verification flag.
func (r *DriverRepo) SetVerified(ctx context.Context, driverID uuid.UUID, verified bool) error {
	const op = "DriverRepo.SetVerified"

	query := `
		UPDATE drivers
		SET is_verified = $2, updated_at = now()
		WHERE id = $1;`

	cmdTag, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, verified)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrNotFound
	}

	return nil
}

// SetActive flips the driver's availability flag.
func (r *DriverRepo) SetActive(ctx context.Context, driverID uuid.UUID, active bool) error {
	const op = "DriverRepo.SetActive"

	query := `
		UPDATE drivers
		SET is_active = $2, updated_at = now()
		WHERE id = $1;`

	cmdTag, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, active)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrNotFound
	}

	return nil
}

// RecordCompletedRide folds a new rating into the rolling average and bumps
// the total-ride counter in one statement.
func (r *DriverRepo) RecordCompletedRide(ctx context.Context, driverID uuid.UUID, rating float64) error {
	const op = "DriverRepo.RecordCompletedRide"

	query := `
		UPDATE drivers
		SET rating = (rating * total_rides + $2) / (total_rides + 1),
		    total_rides = total_rides + 1,
		    updated_at = now()
		WHERE id = $1;`

	cmdTag, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, rating)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrNotFound
	}

	return nil
}

// CountActiveVerified returns active and verified driver counts for the
// admin overview.
func (r *DriverRepo) CountActiveVerified(ctx context.Context) (active, verified int, err error) {
	const op = "DriverRepo.CountActiveVerified"

	query := `
		SELECT
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE is_verified)
		FROM drivers;`

	if err := TxorDB(ctx, r.db).QueryRow(ctx, query).Scan(&active, &verified); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return active, verified, nil
}
