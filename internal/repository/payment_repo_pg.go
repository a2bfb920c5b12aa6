package repository

import (
	"context"
	"errors"

	"github.com/aegisguard/aegis/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error)
	// Update persists amounts and status; the status change must be legal
	// under the monotonic payment graph, which the coordinator enforces.
	Update(ctx context.Context, payment *domain.Payment) error
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.QueryRow(ctx, `INSERT INTO payments
		(booking_id, amount_authorized, amount_captured, platform_fee, guard_payout, status, auth_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		payment.BookingID, payment.AmountAuthorized, payment.AmountCaptured,
		payment.PlatformFee, payment.GuardPayout, payment.Status, payment.AuthRef).
		Scan(&payment.CreatedAt, &payment.UpdatedAt)
}

func (r *PGPaymentRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT booking_id, amount_authorized, amount_captured, platform_fee,
		guard_payout, status, auth_ref, created_at, updated_at
		FROM payments WHERE booking_id=$1`, bookingID)
	var p domain.Payment
	if err := row.Scan(&p.BookingID, &p.AmountAuthorized, &p.AmountCaptured, &p.PlatformFee,
		&p.GuardPayout, &p.Status, &p.AuthRef, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	cmd, err := r.db.Exec(ctx, `UPDATE payments SET
		amount_authorized=$1, amount_captured=$2, platform_fee=$3, guard_payout=$4,
		status=$5, auth_ref=$6, updated_at=now()
		WHERE booking_id=$7`,
		payment.AmountAuthorized, payment.AmountCaptured, payment.PlatformFee,
		payment.GuardPayout, payment.Status, payment.AuthRef, payment.BookingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
