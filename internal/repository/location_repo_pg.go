package repository

import (
	"context"

	"github.com/aegisguard/aegis/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LocationRepository is append-only. Updates are stored in arrival order
// and retained for audit and dispute resolution; nothing mutates or
// deletes a row once written.
type LocationRepository interface {
	Append(ctx context.Context, update *domain.LocationUpdate) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.LocationUpdate, error)
}

type PGLocationRepository struct {
	db *pgxpool.Pool
}

func NewLocationRepository(db *pgxpool.Pool) LocationRepository {
	return &PGLocationRepository{db: db}
}

func (r *PGLocationRepository) Append(ctx context.Context, update *domain.LocationUpdate) error {
	return r.db.QueryRow(ctx, `INSERT INTO location_updates
		(booking_id, guard_id, latitude, longitude, accuracy, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		update.BookingID, update.GuardID, update.Latitude, update.Longitude,
		update.Accuracy, update.RecordedAt).Scan(&update.ID)
}

func (r *PGLocationRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.LocationUpdate, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, guard_id, latitude, longitude, accuracy, recorded_at
		FROM location_updates WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []domain.LocationUpdate
	for rows.Next() {
		var u domain.LocationUpdate
		if err := rows.Scan(&u.ID, &u.BookingID, &u.GuardID, &u.Latitude, &u.Longitude, &u.Accuracy, &u.RecordedAt); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

var _ LocationRepository = (*PGLocationRepository)(nil)
