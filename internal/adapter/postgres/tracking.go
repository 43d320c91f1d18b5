package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	pg "github.com/hoblink/hoblink-backend/pkg/postgres"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

type TrackingRepo struct {
	db *pgxpool.Pool
}

func NewTrackingRepo(db *pgxpool.Pool) *TrackingRepo {
	return &TrackingRepo{db: db}
}

// Append inserts one tracking point. The log is append-only; rows are never
// updated. Coordinate bounds are the only validation.
func (r *TrackingRepo) Append(ctx context.Context, point *models.TrackingPoint) error {
	const op = "TrackingRepo.Append"

	if point.DriverLat < -90 || point.DriverLat > 90 || point.DriverLng < -180 || point.DriverLng > 180 {
		return types.ErrCoordinatesOutOfRange
	}

	query := `
		INSERT INTO ride_tracking (ride_id, driver_lat, driver_lng, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		point.RideID, point.DriverLat, point.DriverLng, point.RecordedAt,
	).Scan(&point.ID)
	if err != nil {
		if pg.IsForeignKeyViolation(err) {
			return types.ErrRideNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListByRide returns the ride's points ordered by recorded_at ascending,
// regardless of insertion order.
func (r *TrackingRepo) ListByRide(ctx context.Context, rideID uuid.UUID) ([]models.TrackingPoint, error) {
	const op = "TrackingRepo.ListByRide"

	query := `
		SELECT id, ride_id, driver_lat, driver_lng, recorded_at
		FROM ride_tracking
		WHERE ride_id = $1
		ORDER BY recorded_at ASC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, rideID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.TrackingPoint
	for rows.Next() {
		var p models.TrackingPoint
		if err := rows.Scan(&p.ID, &p.RideID, &p.DriverLat, &p.DriverLng, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// DeleteBefore prunes points older than cutoff. This is the explicit
// retention extension; without it the log grows without bound.
func (r *TrackingRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "TrackingRepo.DeleteBefore"

	query := `DELETE FROM ride_tracking WHERE recorded_at < $1;`

	cmdTag, err := TxorDB(ctx, r.db).Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}
