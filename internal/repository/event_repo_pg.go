package repository

import (
	"context"

	"github.com/aegisguard/aegis/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Append(ctx context.Context, event *domain.EventEnvelope) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.EventEnvelope, error)
}

type PGEventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) EventRepository {
	return &PGEventRepository{db: db}
}

// appendEvent writes an event row inside the caller's transaction so the
// trail commits or rolls back together with the booking transition.
func appendEvent(ctx context.Context, tx pgx.Tx, event *domain.EventEnvelope) error {
	return tx.QueryRow(ctx, `INSERT INTO booking_events (booking_id, name, payload, occurred_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		event.BookingID, event.Name, event.Payload, event.OccurredAt).Scan(&event.ID)
}

func (r *PGEventRepository) Append(ctx context.Context, event *domain.EventEnvelope) error {
	return r.db.QueryRow(ctx, `INSERT INTO booking_events (booking_id, name, payload, occurred_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		event.BookingID, event.Name, event.Payload, event.OccurredAt).Scan(&event.ID)
}

func (r *PGEventRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.EventEnvelope, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, name, payload, occurred_at
		FROM booking_events WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.EventEnvelope
	for rows.Next() {
		var e domain.EventEnvelope
		if err := rows.Scan(&e.ID, &e.BookingID, &e.Name, &e.Payload, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

var _ EventRepository = (*PGEventRepository)(nil)
