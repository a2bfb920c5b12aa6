package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aegisguard/aegis/internal/domain"
	"github.com/aegisguard/aegis/internal/kafka"
	"github.com/aegisguard/aegis/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UseCase interface {
	RequestBooking(ctx context.Context, input RequestBookingInput) (*domain.Booking, error)
	MatchGuard(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	AcceptBooking(ctx context.Context, bookingID, guardID uuid.UUID) (*domain.Booking, error)
	StartJob(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	CompleteJob(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*domain.Booking, error)
	RecordLocation(ctx context.Context, input RecordLocationInput) error
	ExpireUnmatchedBookings(ctx context.Context) ([]domain.Booking, error)
	ExpireUnacceptedBookings(ctx context.Context) ([]domain.Booking, error)
	ExpireUnstartedBookings(ctx context.Context) ([]domain.Booking, error)
}

type Locator interface {
	FindNearby(ctx context.Context, lat, lng float64) ([]domain.GuardCandidate, error)
}

type Payments interface {
	Authorize(ctx context.Context, bookingID uuid.UUID, amount float64) (string, error)
	Capture(ctx context.Context, bookingID uuid.UUID, amount float64) (float64, error)
	Release(ctx context.Context, bookingID uuid.UUID) error
}

type Broadcaster interface {
	Publish(ctx context.Context, bookingID uuid.UUID, eventType string, payload any)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type GeoWriter interface {
	UpdateGuardPosition(ctx context.Context, guardID uuid.UUID, lat, lng float64) error
}

type AcceptLocker interface {
	AcquireAcceptLock(ctx context.Context, bookingID uuid.UUID, ttl time.Duration) (bool, error)
	ReleaseAcceptLock(ctx context.Context, bookingID uuid.UUID) error
}

// Policy holds the deployment-configured lifecycle windows. Nothing here
// is hardcoded; values come from config.
type Policy struct {
	MatchWait     time.Duration
	AcceptWait    time.Duration
	StartWait     time.Duration
	StartGrace    time.Duration
	AcceptLockTTL time.Duration
}

// Engine is the booking lifecycle orchestrator and the sole writer of
// booking state. Transitions commit through an optimistic
// compare-and-swap on the stored booking; a short per-booking mutex
// narrows the validate-and-commit window within one process, and external
// calls (locator, payment gateway) always happen outside it.
type Engine struct {
	bookings    repository.BookingRepository
	guards      repository.GuardRepository
	locations   repository.LocationRepository
	locator     Locator
	payments    Payments
	broadcaster Broadcaster
	producer    Producer
	geo         GeoWriter
	acceptLocks AcceptLocker

	eventsTopic        string
	notificationsTopic string
	policy             Policy
	log                *zap.Logger
	now                func() time.Time

	locks sync.Map // booking id -> *sync.Mutex
}

type EngineOption func(*Engine)

func WithNotificationsTopic(topic string) EngineOption {
	return func(e *Engine) {
		e.notificationsTopic = topic
	}
}

func WithGeoWriter(geo GeoWriter) EngineOption {
	return func(e *Engine) {
		e.geo = geo
	}
}

// WithAcceptLocker installs a shared lock around the accept critical
// section for deployments running more than one engine instance.
func WithAcceptLocker(locker AcceptLocker) EngineOption {
	return func(e *Engine) {
		e.acceptLocks = locker
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(
	bookings repository.BookingRepository,
	guards repository.GuardRepository,
	locations repository.LocationRepository,
	loc Locator,
	payments Payments,
	broadcaster Broadcaster,
	producer Producer,
	eventsTopic string,
	policy Policy,
	log *zap.Logger,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		bookings:    bookings,
		guards:      guards,
		locations:   locations,
		locator:     loc,
		payments:    payments,
		broadcaster: broadcaster,
		producer:    producer,
		eventsTopic: eventsTopic,
		policy:      policy,
		log:         log.With(zap.String("service", "dispatch")),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type RequestBookingInput struct {
	CustomerID     uuid.UUID
	Latitude       float64
	Longitude      float64
	Address        string
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	HourlyRate     float64
	EstimatedHours float64
}

type RecordLocationInput struct {
	BookingID  uuid.UUID
	GuardID    uuid.UUID
	Latitude   float64
	Longitude  float64
	Accuracy   float64
	RecordedAt time.Time
}

// RequestBooking creates the aggregate in requested status. The estimated
// total is computed once here and never recomputed.
func (e *Engine) RequestBooking(ctx context.Context, input RequestBookingInput) (*domain.Booking, error) {
	if input.HourlyRate <= 0 {
		return nil, errors.New("hourly rate must be positive")
	}
	if input.EstimatedHours <= 0 {
		return nil, errors.New("estimated hours must be positive")
	}
	if !input.ScheduledEnd.After(input.ScheduledStart) {
		return nil, errors.New("scheduled end must be after scheduled start")
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, errors.New("service location out of range")
	}

	now := e.now()
	booking := &domain.Booking{
		ID:             uuid.New(),
		CustomerID:     input.CustomerID,
		Status:         domain.BookingStatusRequested,
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		Address:        input.Address,
		ScheduledStart: input.ScheduledStart,
		ScheduledEnd:   input.ScheduledEnd,
		HourlyRate:     input.HourlyRate,
		EstimatedHours: input.EstimatedHours,
		EstimatedTotal: input.HourlyRate * input.EstimatedHours,
	}

	env, err := domain.Envelope(domain.BookingRequested{
		BookingID:      booking.ID,
		CustomerID:     booking.CustomerID,
		EstimatedTotal: booking.EstimatedTotal,
		OccurredAt:     now,
	})
	if err != nil {
		return nil, err
	}

	if err := e.bookings.Create(ctx, booking, env); err != nil {
		return nil, err
	}

	e.emit(ctx, env)
	e.log.Info("booking requested",
		zap.String("booking_id", booking.ID.String()),
		zap.Float64("estimated_total", booking.EstimatedTotal))
	return booking, nil
}

// MatchGuard moves requested -> matched: query the locator, place an
// authorization hold for the estimated total, then commit with the top
// candidate attached. A declined hold leaves the booking requested so
// rematching can occur; an empty locator result is ErrNoGuardAvailable
// and the booking stays requested for the retry cadence.
func (e *Engine) MatchGuard(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusMatched {
		return booking, nil
	}
	if booking.Status != domain.BookingStatusRequested {
		return nil, fmt.Errorf("match from %s: %w", booking.Status, domain.ErrInvalidTransition)
	}

	candidates, err := e.locator.FindNearby(ctx, booking.Latitude, booking.Longitude)
	if err != nil {
		return nil, fmt.Errorf("locate guards for booking %s: %w", bookingID, err)
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoGuardAvailable
	}
	top := candidates[0]

	ref, err := e.payments.Authorize(ctx, bookingID, booking.EstimatedTotal)
	if err != nil {
		var declined *domain.DeclinedError
		if errors.As(err, &declined) {
			e.log.Warn("authorization declined, booking stays requested",
				zap.String("booking_id", bookingID.String()))
		}
		return nil, err
	}

	unlock := e.lockBooking(bookingID)
	defer unlock()

	current, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch current.Status {
	case domain.BookingStatusRequested:
	case domain.BookingStatusMatched:
		return current, nil
	default:
		// Booking moved on while we were authorizing; give the hold back.
		if releaseErr := e.payments.Release(ctx, bookingID); releaseErr != nil {
			e.log.Error("release hold after lost match", zap.String("booking_id", bookingID.String()), zap.Error(releaseErr))
		}
		return nil, fmt.Errorf("match from %s: %w", current.Status, domain.ErrInvalidTransition)
	}

	now := e.now()
	guardID := top.GuardID
	current.GuardID = &guardID
	current.Status = domain.BookingStatusMatched
	current.PaymentRef = ref

	env, err := domain.Envelope(domain.GuardMatched{
		BookingID:      bookingID,
		GuardID:        guardID,
		DistanceKm:     top.DistanceKm,
		EstimatedTotal: current.EstimatedTotal,
		OccurredAt:     now,
	})
	if err != nil {
		return nil, err
	}

	if err := e.bookings.UpdateTransition(ctx, current, domain.BookingStatusRequested, env); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if again, readErr := e.bookings.GetByID(ctx, bookingID); readErr == nil && again.Status == domain.BookingStatusMatched {
				return again, nil
			}
		}
		// The hold was placed but the transition never committed.
		if releaseErr := e.payments.Release(ctx, bookingID); releaseErr != nil {
			e.log.Error("release hold after failed match commit", zap.String("booking_id", bookingID.String()), zap.Error(releaseErr))
		}
		return nil, err
	}

	e.emit(ctx, env)
	e.log.Info("guard matched",
		zap.String("booking_id", bookingID.String()),
		zap.String("guard_id", guardID.String()),
		zap.Float64("distance_km", top.DistanceKm))
	return current, nil
}

// AcceptBooking moves matched -> accepted for the accepting guard.
// Exactly one accept wins: the compare-and-swap on the matched status
// makes the transition atomic, and every losing caller gets ErrConflict.
// The winning guard becomes unavailable by construction, since
// availability is derived from its now-active booking.
func (e *Engine) AcceptBooking(ctx context.Context, bookingID, guardID uuid.UUID) (*domain.Booking, error) {
	booking, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusAccepted {
		if booking.GuardID != nil && *booking.GuardID == guardID {
			return booking, nil
		}
		return nil, domain.ErrConflict
	}
	if booking.Status != domain.BookingStatusMatched {
		return nil, fmt.Errorf("accept from %s: %w", booking.Status, domain.ErrInvalidTransition)
	}
	if booking.PaymentRef == "" {
		return nil, fmt.Errorf("accept without authorization hold: %w", domain.ErrInvalidTransition)
	}

	if e.acceptLocks != nil {
		ok, err := e.acceptLocks.AcquireAcceptLock(ctx, bookingID, e.policy.AcceptLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrConflict
		}
		defer func() {
			_ = e.acceptLocks.ReleaseAcceptLock(ctx, bookingID)
		}()
	}

	busy, err := e.guards.HasOtherActiveBooking(ctx, guardID, bookingID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, fmt.Errorf("guard %s holds another active booking: %w", guardID, domain.ErrConflict)
	}

	unlock := e.lockBooking(bookingID)
	defer unlock()

	current, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusAccepted {
		if current.GuardID != nil && *current.GuardID == guardID {
			return current, nil
		}
		return nil, domain.ErrConflict
	}
	if current.Status != domain.BookingStatusMatched {
		return nil, fmt.Errorf("accept from %s: %w", current.Status, domain.ErrInvalidTransition)
	}

	now := e.now()
	g := guardID
	current.GuardID = &g
	current.Status = domain.BookingStatusAccepted

	env, err := domain.Envelope(domain.BookingAccepted{
		BookingID:  bookingID,
		GuardID:    guardID,
		OccurredAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := e.bookings.UpdateTransition(ctx, current, domain.BookingStatusMatched, env); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if again, readErr := e.bookings.GetByID(ctx, bookingID); readErr == nil &&
				again.Status == domain.BookingStatusAccepted && again.GuardID != nil && *again.GuardID == guardID {
				return again, nil
			}
			return nil, domain.ErrConflict
		}
		return nil, err
	}

	e.emit(ctx, env)
	e.log.Info("booking accepted",
		zap.String("booking_id", bookingID.String()),
		zap.String("guard_id", guardID.String()))
	return current, nil
}

// StartJob moves accepted -> in_progress once the clock is inside the
// grace window before the scheduled start, and records the actual start.
func (e *Engine) StartJob(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusInProgress {
		return booking, nil
	}
	if booking.Status != domain.BookingStatusAccepted {
		return nil, fmt.Errorf("start from %s: %w", booking.Status, domain.ErrInvalidTransition)
	}

	now := e.now()
	if now.Before(booking.ScheduledStart.Add(-e.policy.StartGrace)) {
		return nil, fmt.Errorf("start before grace window opens at %s: %w",
			booking.ScheduledStart.Add(-e.policy.StartGrace).Format(time.RFC3339), domain.ErrInvalidTransition)
	}

	unlock := e.lockBooking(bookingID)
	defer unlock()

	current, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusInProgress {
		return current, nil
	}
	if current.Status != domain.BookingStatusAccepted {
		return nil, fmt.Errorf("start from %s: %w", current.Status, domain.ErrInvalidTransition)
	}

	start := now
	current.ActualStart = &start
	current.Status = domain.BookingStatusInProgress

	env, err := domain.Envelope(domain.JobStarted{
		BookingID:   bookingID,
		GuardID:     *current.GuardID,
		ActualStart: start,
		OccurredAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if err := e.bookings.UpdateTransition(ctx, current, domain.BookingStatusAccepted, env); err != nil {
		return nil, err
	}

	e.emit(ctx, env)
	e.log.Info("job started", zap.String("booking_id", bookingID.String()))
	return current, nil
}

// CompleteJob moves in_progress -> completed and captures the lesser of
// the authorized amount and actual elapsed hours times the hourly rate.
// Completion of an already-completed booking returns the prior result
// with no second capture. A failed capture does not block completion: the
// service was rendered, the payment row carries the failed status.
func (e *Engine) CompleteJob(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusCompleted {
		return booking, nil
	}
	if booking.Status != domain.BookingStatusInProgress || booking.ActualStart == nil {
		return nil, fmt.Errorf("complete from %s: %w", booking.Status, domain.ErrInvalidTransition)
	}

	end := e.now()
	elapsedHours := end.Sub(*booking.ActualStart).Hours()
	amount := elapsedHours * booking.HourlyRate

	finalAmount, err := e.payments.Capture(ctx, bookingID, amount)
	if err != nil {
		var captureErr *domain.CaptureFailedError
		if !errors.As(err, &captureErr) {
			return nil, err
		}
		// Surfaced for manual reconciliation via the payment status.
		e.log.Error("capture failed, completing booking anyway",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err))
		finalAmount = 0
	}

	unlock := e.lockBooking(bookingID)
	defer unlock()

	current, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCompleted {
		return current, nil
	}
	if current.Status != domain.BookingStatusInProgress {
		return nil, fmt.Errorf("complete from %s: %w", current.Status, domain.ErrInvalidTransition)
	}

	current.ActualEnd = &end
	current.Status = domain.BookingStatusCompleted

	env, err := domain.Envelope(domain.BookingCompleted{
		BookingID:   bookingID,
		FinalAmount: finalAmount,
		ActualEnd:   end,
		OccurredAt:  end,
	})
	if err != nil {
		return nil, err
	}

	if err := e.bookings.UpdateTransition(ctx, current, domain.BookingStatusInProgress, env); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if again, readErr := e.bookings.GetByID(ctx, bookingID); readErr == nil && again.Status == domain.BookingStatusCompleted {
				return again, nil
			}
		}
		return nil, err
	}

	e.emit(ctx, env)
	e.log.Info("booking completed",
		zap.String("booking_id", bookingID.String()),
		zap.Float64("final_amount", finalAmount),
		zap.Float64("elapsed_hours", elapsedHours))
	return current, nil
}

// CancelBooking moves any non-terminal booking to cancelled, then voids
// an outstanding hold. Cancelling an already-cancelled booking returns
// the prior result with no second release. A previously assigned guard
// becomes available again by construction once the booking is terminal.
func (e *Engine) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	booking, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusCancelled {
		return booking, nil
	}
	if booking.Status == domain.BookingStatusCompleted {
		return nil, fmt.Errorf("cancel completed booking: %w", domain.ErrInvalidTransition)
	}

	unlock := e.lockBooking(bookingID)
	defer unlock()

	current, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}
	if current.Status == domain.BookingStatusCompleted {
		return nil, fmt.Errorf("cancel completed booking: %w", domain.ErrInvalidTransition)
	}

	from := current.Status
	now := e.now()
	current.Status = domain.BookingStatusCancelled
	current.CancelReason = reason

	env, err := domain.Envelope(domain.BookingCancelled{
		BookingID:  bookingID,
		Reason:     reason,
		OccurredAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := e.bookings.UpdateTransition(ctx, current, from, env); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if again, readErr := e.bookings.GetByID(ctx, bookingID); readErr == nil && again.Status == domain.BookingStatusCancelled {
				return again, nil
			}
		}
		return nil, err
	}

	// The hold is voided only once the cancellation is durable. A concurrent
	// accept that wins the race keeps its hold; a failed void here leaves an
	// idempotently retryable hold, never an active booking without one.
	if current.PaymentRef != "" {
		if err := e.payments.Release(ctx, bookingID); err != nil {
			e.log.Error("release hold for cancelled booking", zap.String("booking_id", bookingID.String()), zap.Error(err))
		}
	}

	e.emit(ctx, env)
	e.log.Info("booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.String("reason", reason))
	return current, nil
}

// RecordLocation stores and broadcasts a guard ping. Updates arriving
// outside in_progress are dropped, not stored.
func (e *Engine) RecordLocation(ctx context.Context, input RecordLocationInput) error {
	booking, err := e.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return err
	}
	if booking.Status != domain.BookingStatusInProgress {
		return fmt.Errorf("location update while %s: %w", booking.Status, domain.ErrInvalidTransition)
	}
	if booking.GuardID == nil || *booking.GuardID != input.GuardID {
		return fmt.Errorf("location update from unassigned guard: %w", domain.ErrInvalidTransition)
	}

	update := &domain.LocationUpdate{
		BookingID:  input.BookingID,
		GuardID:    input.GuardID,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		Accuracy:   input.Accuracy,
		RecordedAt: input.RecordedAt,
	}
	if err := e.locations.Append(ctx, update); err != nil {
		return err
	}

	if err := e.guards.UpdateLastLocation(ctx, input.GuardID, input.Latitude, input.Longitude, input.RecordedAt); err != nil {
		return err
	}
	if e.geo != nil {
		if err := e.geo.UpdateGuardPosition(ctx, input.GuardID, input.Latitude, input.Longitude); err != nil {
			e.log.Warn("update guard geo index", zap.String("guard_id", input.GuardID.String()), zap.Error(err))
		}
	}

	if e.broadcaster != nil {
		e.broadcaster.Publish(ctx, input.BookingID, "location", update)
	}
	return nil
}

// ExpireUnmatchedBookings cancels bookings still requested past the
// match wait window with reason no_guard_available. No payment is ever
// touched here: a requested booking has no hold.
func (e *Engine) ExpireUnmatchedBookings(ctx context.Context) ([]domain.Booking, error) {
	deadline := e.now().Add(-e.policy.MatchWait)
	cancelled, err := e.bookings.ExpireRequestedBefore(ctx, deadline)
	if err != nil {
		return nil, err
	}

	for i := range cancelled {
		e.emitCancelled(ctx, &cancelled[i], domain.CancelReasonNoGuardAvailable)
	}
	return cancelled, nil
}

// ExpireUnacceptedBookings cancels matched bookings whose offer no guard
// accepted within the accept wait window, releasing the hold placed at
// match time. The offered guard becomes matchable again by construction
// once the booking is terminal.
func (e *Engine) ExpireUnacceptedBookings(ctx context.Context) ([]domain.Booking, error) {
	deadline := e.now().Add(-e.policy.AcceptWait)
	cancelled, err := e.bookings.ExpireUnacceptedBefore(ctx, deadline)
	if err != nil {
		return nil, err
	}

	for i := range cancelled {
		b := &cancelled[i]
		if b.PaymentRef != "" {
			if err := e.payments.Release(ctx, b.ID); err != nil {
				e.log.Error("release hold for expired booking", zap.String("booking_id", b.ID.String()), zap.Error(err))
			}
		}
		e.emitCancelled(ctx, b, domain.CancelReasonNotAccepted)
	}
	return cancelled, nil
}

// ExpireUnstartedBookings cancels accepted bookings whose job never
// started within the start wait window past the scheduled start,
// releasing each outstanding hold.
func (e *Engine) ExpireUnstartedBookings(ctx context.Context) ([]domain.Booking, error) {
	deadline := e.now().Add(-e.policy.StartWait)
	cancelled, err := e.bookings.ExpireUnstartedBefore(ctx, deadline)
	if err != nil {
		return nil, err
	}

	for i := range cancelled {
		b := &cancelled[i]
		if b.PaymentRef != "" {
			if err := e.payments.Release(ctx, b.ID); err != nil {
				e.log.Error("release hold for expired booking", zap.String("booking_id", b.ID.String()), zap.Error(err))
			}
		}
		e.emitCancelled(ctx, b, domain.CancelReasonNotStarted)
	}
	return cancelled, nil
}

func (e *Engine) emitCancelled(ctx context.Context, b *domain.Booking, reason string) {
	env, err := domain.Envelope(domain.BookingCancelled{
		BookingID:  b.ID,
		Reason:     reason,
		OccurredAt: b.UpdatedAt,
	})
	if err != nil {
		e.log.Error("build cancellation event", zap.String("booking_id", b.ID.String()), zap.Error(err))
		return
	}
	e.emit(ctx, env)
}

// emit forwards a committed event to the kafka sink and the realtime
// channel. Both are best effort; the durable trail was already written in
// the same transaction as the transition.
func (e *Engine) emit(ctx context.Context, env *domain.EventEnvelope) {
	msg := kafka.DomainEventMessage{
		Name:       string(env.Name),
		BookingID:  env.BookingID.String(),
		OccurredAt: env.OccurredAt,
		Payload:    env.Payload,
	}

	if e.producer != nil && e.eventsTopic != "" {
		if err := e.producer.Publish(ctx, e.eventsTopic, msg.BookingID, msg); err != nil {
			e.log.Warn("publish event to sink",
				zap.String("booking_id", msg.BookingID),
				zap.String("event", msg.Name),
				zap.Error(err))
		}
		if e.notificationsTopic != "" {
			if err := e.producer.Publish(ctx, e.notificationsTopic, msg.BookingID, msg); err != nil {
				e.log.Warn("publish event to notifications",
					zap.String("booking_id", msg.BookingID),
					zap.String("event", msg.Name),
					zap.Error(err))
			}
		}
	}

	if e.broadcaster != nil {
		e.broadcaster.Publish(ctx, env.BookingID, string(env.Name), env.Payload)
	}
}

func (e *Engine) lockBooking(id uuid.UUID) func() {
	v, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

var _ UseCase = (*Engine)(nil)
