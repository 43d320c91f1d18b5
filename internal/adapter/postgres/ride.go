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

type RideRepo struct {
	db *pgxpool.Pool
}

func NewRideRepo(db *pgxpool.Pool) *RideRepo {
	return &RideRepo{db: db}
}

const rideColumns = `
	id, user_id, driver_id,
	pickup_address, pickup_lat, pickup_lng,
	dropoff_address, dropoff_lat, dropoff_lng,
	ride_type, status, fare, distance_km,
	payment_method, payment_status,
	created_at, updated_at`

func scanRide(row pgx.Row) (*models.Ride, error) {
	var ride models.Ride
	err := row.Scan(
		&ride.ID, &ride.UserID, &ride.DriverID,
		&ride.Pickup.Address, &ride.Pickup.Latitude, &ride.Pickup.Longitude,
		&ride.Dropoff.Address, &ride.Dropoff.Latitude, &ride.Dropoff.Longitude,
		&ride.RideType, &ride.Status, &ride.Fare, &ride.DistanceKm,
		&ride.PaymentMethod, &ride.PaymentStatus,
		&ride.CreatedAt, &ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

// Create persists a new ride. Status and payment_status must already be set
// (pending/pending); id and timestamps are server-generated.
func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) (*models.Ride, error) {
	const op = "RideRepo.Create"
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO rides (
			user_id,
			pickup_address, pickup_lat, pickup_lng,
			dropoff_address, dropoff_lat, dropoff_lng,
			ride_type, status, fare, distance_km,
			payment_method, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at;`

	err := q.QueryRow(ctx, query,
		ride.UserID,
		ride.Pickup.Address, ride.Pickup.Latitude, ride.Pickup.Longitude,
		ride.Dropoff.Address, ride.Dropoff.Latitude, ride.Dropoff.Longitude,
		ride.RideType, ride.Status, ride.Fare, ride.DistanceKm,
		ride.PaymentMethod, ride.PaymentStatus,
	).Scan(&ride.ID, &ride.CreatedAt, &ride.UpdatedAt)
	if err != nil {
		if pg.IsForeignKeyViolation(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ride, nil
}

// Get fetches one ride. Returns ErrRideNotFound when absent.
func (r *RideRepo) Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	const op = "RideRepo.Get"

	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1;`

	ride, err := scanRide(TxorDB(ctx, r.db).QueryRow(ctx, query, rideID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ride, nil
}

// ListByUser returns the user's rides, newest first.
func (r *RideRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Ride, error) {
	const op = "RideRepo.ListByUser"

	query := `
		SELECT ` + rideColumns + `
		FROM rides
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2;`

	return r.list(ctx, op, query, userID, limit)
}

// List returns rides across all users, newest first, paginated.
func (r *RideRepo) List(ctx context.Context, limit, offset int) ([]models.Ride, error) {
	const op = "RideRepo.List"

	query := `
		SELECT ` + rideColumns + `
		FROM rides
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;`

	return r.list(ctx, op, query, limit, offset)
}

func (r *RideRepo) list(ctx context.Context, op, query string, args ...any) ([]models.Ride, error) {
	rows, err := TxorDB(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *ride)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// UpdateStatus moves a ride to newStatus only while its current status is
// still expectedFrom. Zero rows means the ride either does not exist or was
// concurrently moved; the caller distinguishes via Get.
func (r *RideRepo) UpdateStatus(ctx context.Context, rideID uuid.UUID, expectedFrom, newStatus types.RideStatus) error {
	const op = "RideRepo.UpdateStatus"

	query := `
		UPDATE rides
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2;`

	cmdTag, err := TxorDB(ctx, r.db).Exec(ctx, query, rideID, expectedFrom, newStatus)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrInvalidTransition
	}

	return nil
}

// AssignDriver claims a pending ride for a driver. The conditional update is
// the only serialization point for the claim race: exactly one of two
// concurrent callers matches status='pending' AND driver_id IS NULL.
func (r *RideRepo) AssignDriver(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	const op = "RideRepo.AssignDriver"

	query := `
		UPDATE rides
		SET driver_id = $2, status = $3, updated_at = now()
		WHERE id = $1 AND status = $4 AND driver_id IS NULL
		RETURNING ` + rideColumns + `;`

	ride, err := scanRide(TxorDB(ctx, r.db).QueryRow(ctx, query,
		rideID, driverID, types.StatusAccepted, types.StatusPending,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the ride does not exist or it is no longer pending.
			if _, getErr := r.Get(ctx, rideID); getErr != nil {
				return nil, getErr
			}
			return nil, types.ErrAlreadyClaimed
		}
		if pg.IsForeignKeyViolation(err) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ride, nil
}

// UpdatePaymentStatus sets the payment outcome of a ride.
func (r *RideRepo) UpdatePaymentStatus(ctx context.Context, rideID uuid.UUID, status types.PaymentStatus) error {
	const op = "RideRepo.UpdatePaymentStatus"

	query := `
		UPDATE rides
		SET payment_status = $2, updated_at = now()
		WHERE id = $1;`

	cmdTag, err := TxorDB(ctx, r.db).Exec(ctx, query, rideID, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrRideNotFound
	}

	return nil
}

// CountByStatus returns ride counts grouped by status.
func (r *RideRepo) CountByStatus(ctx context.Context) (map[types.RideStatus]int, error) {
	const op = "RideRepo.CountByStatus"

	query := `SELECT status, COUNT(*) FROM rides GROUP BY status;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make(map[types.RideStatus]int)
	for rows.Next() {
		var (
			status types.RideStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
