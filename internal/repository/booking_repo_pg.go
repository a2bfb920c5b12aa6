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

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking, event *domain.EventEnvelope) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// ListByStatus returns the oldest bookings in a status, for the match
	// polling cadence.
	ListByStatus(ctx context.Context, status domain.BookingStatus, limit int) ([]domain.Booking, error)
	// UpdateTransition commits a transition with a compare-and-swap on
	// (id, status=from, version). Zero rows means another writer got there
	// first and is reported as domain.ErrConflict. The event envelope, when
	// present, is appended in the same transaction so the trail can never
	// drift from the booking row.
	UpdateTransition(ctx context.Context, booking *domain.Booking, from domain.BookingStatus, event *domain.EventEnvelope) error
	// ExpireRequestedBefore cancels bookings still requested past the match
	// wait window, appending a cancellation event per row.
	ExpireRequestedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	// ExpireUnacceptedBefore cancels matched bookings whose offer nobody
	// accepted within the accept wait window. The offer timestamp is the
	// row's updated_at, written by the requested->matched transition.
	ExpireUnacceptedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	// ExpireUnstartedBefore cancels accepted bookings whose scheduled start
	// plus the start wait window has passed without the job starting.
	ExpireUnstartedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, customer_id, guard_id, status, latitude, longitude, address,
	scheduled_start, scheduled_end, actual_start, actual_end,
	hourly_rate, estimated_hours, estimated_total, payment_ref, cancel_reason,
	version, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(
		&b.ID, &b.CustomerID, &b.GuardID, &b.Status, &b.Latitude, &b.Longitude, &b.Address,
		&b.ScheduledStart, &b.ScheduledEnd, &b.ActualStart, &b.ActualEnd,
		&b.HourlyRate, &b.EstimatedHours, &b.EstimatedTotal, &b.PaymentRef, &b.CancelReason,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking, event *domain.EventEnvelope) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	booking.Status = domain.BookingStatusRequested
	booking.Version = 1
	if err := tx.QueryRow(ctx, `INSERT INTO bookings
		(id, customer_id, status, latitude, longitude, address, scheduled_start, scheduled_end,
		 hourly_rate, estimated_hours, estimated_total, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		booking.ID, booking.CustomerID, booking.Status, booking.Latitude, booking.Longitude,
		booking.Address, booking.ScheduledStart, booking.ScheduledEnd,
		booking.HourlyRate, booking.EstimatedHours, booking.EstimatedTotal, booking.Version).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	if event != nil {
		if err := appendEvent(ctx, tx, event); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus, limit int) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status=$1 ORDER BY created_at LIMIT $2`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) UpdateTransition(ctx context.Context, booking *domain.Booking, from domain.BookingStatus, event *domain.EventEnvelope) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE bookings SET
		guard_id=$1, status=$2, actual_start=$3, actual_end=$4,
		payment_ref=$5, cancel_reason=$6, version=version+1, updated_at=now()
		WHERE id=$7 AND status=$8 AND version=$9`,
		booking.GuardID, booking.Status, booking.ActualStart, booking.ActualEnd,
		booking.PaymentRef, booking.CancelReason, booking.ID, from, booking.Version)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	booking.Version++

	if event != nil {
		if err := appendEvent(ctx, tx, event); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) ExpireRequestedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	return r.expire(ctx, domain.BookingStatusRequested, domain.CancelReasonNoGuardAvailable,
		`UPDATE bookings SET status=$1, cancel_reason=$2, version=version+1, updated_at=now()
		 WHERE status=$3 AND created_at <= $4
		 RETURNING `+bookingColumns, deadline)
}

func (r *PGBookingRepository) ExpireUnacceptedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	return r.expire(ctx, domain.BookingStatusMatched, domain.CancelReasonNotAccepted,
		`UPDATE bookings SET status=$1, cancel_reason=$2, version=version+1, updated_at=now()
		 WHERE status=$3 AND updated_at <= $4
		 RETURNING `+bookingColumns, deadline)
}

func (r *PGBookingRepository) ExpireUnstartedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	return r.expire(ctx, domain.BookingStatusAccepted, domain.CancelReasonNotStarted,
		`UPDATE bookings SET status=$1, cancel_reason=$2, version=version+1, updated_at=now()
		 WHERE status=$3 AND scheduled_start <= $4
		 RETURNING `+bookingColumns, deadline)
}

func (r *PGBookingRepository) expire(ctx context.Context, from domain.BookingStatus, reason, query string, deadline time.Time) ([]domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query, domain.BookingStatusCancelled, reason, from, deadline)
	if err != nil {
		return nil, err
	}

	var cancelled []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		cancelled = append(cancelled, *b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cancelled {
		env, err := domain.Envelope(domain.BookingCancelled{
			BookingID:  cancelled[i].ID,
			Reason:     reason,
			OccurredAt: cancelled[i].UpdatedAt,
		})
		if err != nil {
			return nil, err
		}
		if err := appendEvent(ctx, tx, env); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return cancelled, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
