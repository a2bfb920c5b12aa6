package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aegisguard/aegis/internal/domain"
	"github.com/aegisguard/aegis/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway is the external payment processor surface. Implementations
// adapt a vendor SDK; the coordinator never sees vendor types.
type Gateway interface {
	Authorize(ctx context.Context, bookingID uuid.UUID, amount float64) (string, error)
	Capture(ctx context.Context, ref string, amount float64) (float64, error)
	Void(ctx context.Context, ref string) error
}

// Coordinator makes the three payment operations idempotent under the
// booking identifier: repeated calls have the same externally-visible
// effect as a single call. Financial impact is at most once.
type Coordinator struct {
	gateway  Gateway
	payments repository.PaymentRepository
	timeout  time.Duration
	feeRate  float64
	log      *zap.Logger
}

func NewCoordinator(gateway Gateway, payments repository.PaymentRepository, timeout time.Duration, platformFeePercent float64, log *zap.Logger) *Coordinator {
	return &Coordinator{
		gateway:  gateway,
		payments: payments,
		timeout:  timeout,
		feeRate:  platformFeePercent / 100,
		log:      log.With(zap.String("service", "payment")),
	}
}

// Authorize holds funds for the booking. A hold that already exists is
// returned as-is; declined attempts leave no payment row so a later
// rematch can authorize afresh.
func (c *Coordinator) Authorize(ctx context.Context, bookingID uuid.UUID, amount float64) (string, error) {
	existing, err := c.payments.GetByBookingID(ctx, bookingID)
	if err != nil && !errors.Is(err, domain.ErrPaymentNotFound) {
		return "", err
	}
	if existing != nil {
		switch existing.Status {
		case domain.PaymentStatusAuthorized, domain.PaymentStatusCaptured:
			return existing.AuthRef, nil
		default:
			return "", fmt.Errorf("payment for booking %s is %s, cannot authorize", bookingID, existing.Status)
		}
	}

	var ref string
	err = c.withRetry(ctx, func(ctx context.Context) error {
		var err error
		ref, err = c.gateway.Authorize(ctx, bookingID, amount)
		return err
	})
	if err != nil {
		return "", err
	}

	p := &domain.Payment{
		BookingID:        bookingID,
		AmountAuthorized: amount,
		Status:           domain.PaymentStatusAuthorized,
		AuthRef:          ref,
	}
	if err := c.payments.Create(ctx, p); err != nil {
		return "", fmt.Errorf("record authorization for booking %s: %w", bookingID, err)
	}

	c.log.Info("authorization hold placed",
		zap.String("booking_id", bookingID.String()),
		zap.Float64("amount", amount))
	return ref, nil
}

// Capture finalizes the charge, clamped to the authorized amount. A
// payment already captured returns the stored amount with no gateway
// call; a gateway failure or exhausted timeout marks the payment failed
// and surfaces CaptureFailedError for reconciliation.
func (c *Coordinator) Capture(ctx context.Context, bookingID uuid.UUID, amount float64) (float64, error) {
	p, err := c.payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	if p.Status == domain.PaymentStatusCaptured {
		return p.AmountCaptured, nil
	}
	if !p.Status.CanTransitionTo(domain.PaymentStatusCaptured) {
		return 0, fmt.Errorf("payment for booking %s is %s, cannot capture", bookingID, p.Status)
	}

	if amount > p.AmountAuthorized {
		amount = p.AmountAuthorized
	}

	var captured float64
	err = c.withRetry(ctx, func(ctx context.Context) error {
		var err error
		captured, err = c.gateway.Capture(ctx, p.AuthRef, amount)
		return err
	})
	if err != nil {
		p.Status = domain.PaymentStatusFailed
		if updateErr := c.payments.Update(ctx, p); updateErr != nil {
			c.log.Error("record capture failure", zap.String("booking_id", bookingID.String()), zap.Error(updateErr))
		}
		var captureErr *domain.CaptureFailedError
		if errors.As(err, &captureErr) {
			return 0, err
		}
		return 0, &domain.CaptureFailedError{BookingID: bookingID.String(), Reason: err.Error()}
	}

	p.AmountCaptured = captured
	p.PlatformFee = captured * c.feeRate
	p.GuardPayout = captured - p.PlatformFee
	p.Status = domain.PaymentStatusCaptured
	if err := c.payments.Update(ctx, p); err != nil {
		return 0, fmt.Errorf("record capture for booking %s: %w", bookingID, err)
	}

	c.log.Info("payment captured",
		zap.String("booking_id", bookingID.String()),
		zap.Float64("amount", captured),
		zap.Float64("platform_fee", p.PlatformFee))
	return captured, nil
}

// Release voids an outstanding hold. It is a no-op when no hold exists or
// the payment was already captured or released.
func (c *Coordinator) Release(ctx context.Context, bookingID uuid.UUID) error {
	p, err := c.payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil
		}
		return err
	}
	if p.Status != domain.PaymentStatusAuthorized {
		return nil
	}

	if err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.gateway.Void(ctx, p.AuthRef)
	}); err != nil {
		return fmt.Errorf("void hold for booking %s: %w", bookingID, err)
	}

	p.Status = domain.PaymentStatusRefunded
	if err := c.payments.Update(ctx, p); err != nil {
		return fmt.Errorf("record release for booking %s: %w", bookingID, err)
	}

	c.log.Info("authorization hold released", zap.String("booking_id", bookingID.String()))
	return nil
}

// withRetry bounds a gateway call and retries once on timeout. Persistent
// timeout becomes ErrDependencyTimeout; everything else passes through.
func (c *Coordinator) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	err := c.attempt(ctx, op)
	if errors.Is(err, context.DeadlineExceeded) {
		err = c.attempt(ctx, op)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrDependencyTimeout
	}
	return err
}

func (c *Coordinator) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if c.timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return op(attemptCtx)
}
