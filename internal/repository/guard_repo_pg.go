package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aegisguard/aegis/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// activeStatuses are the booking statuses that make a guard unavailable.
// Availability is derived from booking rows, never stored as a flag, so it
// cannot drift from actual booking state.
const activeStatuses = `('matched', 'accepted', 'in_progress')`

type GuardRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GuardProfile, error)
	// AvailableWithin filters a candidate set down to guards holding no
	// booking in a non-terminal status, preserving input order.
	AvailableWithin(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	// HasOtherActiveBooking reports whether the guard holds a non-terminal
	// booking other than the one given. The matched booking being accepted
	// must not count against its own guard.
	HasOtherActiveBooking(ctx context.Context, guardID, excludeBookingID uuid.UUID) (bool, error)
	UpdateLastLocation(ctx context.Context, guardID uuid.UUID, lat, lng float64, at time.Time) error
}

type PGGuardRepository struct {
	db *pgxpool.Pool
}

func NewGuardRepository(db *pgxpool.Pool) GuardRepository {
	return &PGGuardRepository{db: db}
}

func (r *PGGuardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.GuardProfile, error) {
	row := r.db.QueryRow(ctx, `SELECT id, hourly_rate, rating, last_latitude, last_longitude, last_seen_at
		FROM guards WHERE id=$1`, id)
	var g domain.GuardProfile
	if err := row.Scan(&g.ID, &g.HourlyRate, &g.Rating, &g.LastLatitude, &g.LastLongitude, &g.LastSeenAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGuardNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *PGGuardRepository) AvailableWithin(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `SELECT g.id FROM guards g
		WHERE g.id = ANY($1)
		AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.guard_id = g.id AND b.status IN `+activeStatuses+`
		)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	free := make(map[uuid.UUID]bool, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		free[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var available []uuid.UUID
	for _, id := range ids {
		if free[id] {
			available = append(available, id)
		}
	}
	return available, nil
}

func (r *PGGuardRepository) HasOtherActiveBooking(ctx context.Context, guardID, excludeBookingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM bookings WHERE guard_id=$1 AND id <> $2 AND status IN `+activeStatuses+`
	)`, guardID, excludeBookingID).Scan(&exists)
	return exists, err
}

func (r *PGGuardRepository) UpdateLastLocation(ctx context.Context, guardID uuid.UUID, lat, lng float64, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE guards SET last_latitude=$1, last_longitude=$2, last_seen_at=$3
		WHERE id=$4`, lat, lng, at, guardID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrGuardNotFound
	}
	return nil
}

var _ GuardRepository = (*PGGuardRepository)(nil)
