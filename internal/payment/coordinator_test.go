package payment

import (
	"context"
	"testing"
	"time"

	"github.com/aegisguard/aegis/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Authorize(ctx context.Context, bookingID uuid.UUID, amount float64) (string, error) {
	args := m.Called(ctx, bookingID, amount)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Capture(ctx context.Context, ref string, amount float64) (float64, error) {
	args := m.Called(ctx, ref, amount)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockGateway) Void(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) Update(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func newTestCoordinator(gateway Gateway, repo *MockPaymentRepo) *Coordinator {
	return NewCoordinator(gateway, repo, time.Second, 20, zap.NewNop())
}

func TestAuthorize_PlacesHold(t *testing.T) {
	gateway := &MockGateway{}
	repo := &MockPaymentRepo{}
	c := newTestCoordinator(gateway, repo)
	bookingID := uuid.New()

	repo.On("GetByBookingID", mock.Anything, bookingID).Return(nil, domain.ErrPaymentNotFound)
	gateway.On("Authorize", mock.Anything, bookingID, 50.0).Return("auth-ref-1", nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.BookingID == bookingID &&
			p.Status == domain.PaymentStatusAuthorized &&
			p.AmountAuthorized == 50.0 &&
			p.AuthRef == "auth-ref-1"
	})).Return(nil)

	ref, err := c.Authorize(context.Background(), bookingID, 50)
	assert.NoError(t, err)
	assert.Equal(t, "auth-ref-1", ref)
}

func TestAuthorize_IdempotentUnderBookingID(t *testing.T) {
	gateway := &MockGateway{}
	repo := &MockPaymentRepo{}
	c := newTestCoordinator(gateway, repo)
	bookingID := uuid.New()

	repo.On("GetByBookingID", mock.Anything, bookingID).Return(&domain.Payment{
		BookingID:        bookingID,
		Status:           domain.PaymentStatusAuthorized,
		AmountAuthorized: 50,
		AuthRef:          "auth-ref-1",
	}, nil)

	ref, err := c.Authorize(context.Background(), bookingID, 50)
	assert.NoError(t, err)
	assert.Equal(t, "auth-ref-1", ref)
	gateway.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthorize_DeclinedLeavesNoPaymentRow(t *testing.T) {
	gateway := &MockGateway{}
	repo := &MockPaymentRepo{}
	c := newTestCoordinator(gateway, repo)
	bookingID := uuid.New()

	repo.On("GetByBookingID", mock.Anything, bookingID).Return(nil, domain.ErrPaymentNotFound)
	gateway.On("Authorize", mock.Anything, bookingID, 50.0).
		Return("", &domain.DeclinedError{BookingID: bookingID.String(), Reason: "card declined"})

	_, err := c.Authorize(context.Background(), bookingID, 50)
	var declined *domain.DeclinedError
	assert.ErrorAs(t, err, &declined)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCapture_ClampsToAuthorizedAmount(t *testing.T) {
	gateway := &MockGateway{}
	repo := &MockPaymentRepo{}
	c := newTestCoordinator(gateway, repo)
	bookingID := uuid.New()

	repo.On("GetByBookingID", mock.Anything, bookingID).Return(&domain.Payment{
		BookingID:        bookingID,
		Status:           domain.PaymentStatusAuthorized,
		AmountAuthorized: 50,
		AuthRef:          "auth-ref-1",
	}, nil)
	// Job ran long: requested 60, hold was 50.
	gateway.On("Capture", mock.Anything, "auth-ref-1", 50.0).Return(50.0, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Status == domain.PaymentStatusCaptured &&
			p.AmountCaptured == 50.0 &&
			p.PlatformFee == 10.0 &&
			p.GuardPayout == 40.0
	})).Return(nil)

	captured, err := c.Capture(context.Background(), bookingID, 60)
	assert.NoError(t, err)
	assert.Equal(t, 50.0, captured)
}

func TestCapture_IdempotentAfterCapture(t *testing.T) {
	gateway := &MockGateway{}
	repo := &MockPaymentRepo{}
	c := newTestCoordinator(gateway, repo)
	bookingID := uuid.New()

	repo.On("GetByBookingID", mock.Anything, bookingID).Return(&domain.Payment{
		BookingID:      bookingID,
		Status:         domain.PaymentStatusCaptured,
		AmountCaptured: 45,
	}, nil)

	captured, err := c.Capture(context.Background(), bookingID, 45)
	assert.NoError(t, err)
	assert.Equal(t, 45.0, captured)
	gateway.AssertNotCalled(t, "Capture", mock.Anything, mock.Anything, mock.Anything)
}

func TestCapture_GatewayFailureMarksPaymentFailed(t *testing.T) {
	gateway := &MockGateway{}
	repo := &MockPaymentRepo{}
	c := newTestCoordinator(gateway, repo)
	bookingID := uuid.New()

	repo.On("GetByBookingID", mock.Anything, bookingID).Return(&domain.Payment{
		BookingID:        bookingID,
		Status:           domain.PaymentStatusAuthorized,
		AmountAuthorized: 50,
		AuthRef:          "auth-ref-1",
	}, nil)
	gateway.On("Capture", mock.Anything, "auth-ref-1", 45.0).
		Return(0.0, &domain.CaptureFailedError{BookingID: bookingID.String(), Reason: "processor error"})
	repo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Status == domain.PaymentStatusFailed
	})).Return(nil)

	_, err := c.Capture(context.Background(), bookingID, 45)
	var failed *domain.CaptureFailedError
	assert.ErrorAs(t, err, &failed)
	repo.AssertExpectations(t)
}

func TestRelease_VoidsOutstandingHold(t *testing.T) {
	gateway := &MockGateway{}
	repo := &MockPaymentRepo{}
	c := newTestCoordinator(gateway, repo)
	bookingID := uuid.New()

	repo.On("GetByBookingID", mock.Anything, bookingID).Return(&domain.Payment{
		BookingID:        bookingID,
		Status:           domain.PaymentStatusAuthorized,
		AmountAuthorized: 50,
		AuthRef:          "auth-ref-1",
	}, nil)
	gateway.On("Void", mock.Anything, "auth-ref-1").Return(nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Status == domain.PaymentStatusRefunded
	})).Return(nil)

	assert.NoError(t, c.Release(context.Background(), bookingID))
}

func TestRelease_NoOpWithoutHold(t *testing.T) {
	gateway := &MockGateway{}
	repo := &MockPaymentRepo{}
	c := newTestCoordinator(gateway, repo)
	bookingID := uuid.New()

	repo.On("GetByBookingID", mock.Anything, bookingID).Return(nil, domain.ErrPaymentNotFound)

	assert.NoError(t, c.Release(context.Background(), bookingID))
	gateway.AssertNotCalled(t, "Void", mock.Anything, mock.Anything)
}

func TestRelease_NoOpAfterCapture(t *testing.T) {
	gateway := &MockGateway{}
	repo := &MockPaymentRepo{}
	c := newTestCoordinator(gateway, repo)
	bookingID := uuid.New()

	repo.On("GetByBookingID", mock.Anything, bookingID).Return(&domain.Payment{
		BookingID:      bookingID,
		Status:         domain.PaymentStatusCaptured,
		AmountCaptured: 45,
	}, nil)

	assert.NoError(t, c.Release(context.Background(), bookingID))
	gateway.AssertNotCalled(t, "Void", mock.Anything, mock.Anything)
}

func TestWithRetry_TimeoutBecomesDependencyTimeout(t *testing.T) {
	gateway := &MockGateway{}
	repo := &MockPaymentRepo{}
	c := newTestCoordinator(gateway, repo)
	c.timeout = 10 * time.Millisecond
	bookingID := uuid.New()

	repo.On("GetByBookingID", mock.Anything, bookingID).Return(nil, domain.ErrPaymentNotFound)
	gateway.On("Authorize", mock.Anything, bookingID, 50.0).Return("", context.DeadlineExceeded)

	_, err := c.Authorize(context.Background(), bookingID, 50)
	assert.ErrorIs(t, err, domain.ErrDependencyTimeout)
	// One retry, then give up.
	gateway.AssertNumberOfCalls(t, "Authorize", 2)
}

func TestSandboxGateway_CaptureClampsAndConsumesHold(t *testing.T) {
	g := NewSandboxGateway()
	ctx := context.Background()

	ref, err := g.Authorize(ctx, uuid.New(), 50)
	assert.NoError(t, err)

	captured, err := g.Capture(ctx, ref, 60)
	assert.NoError(t, err)
	assert.Equal(t, 50.0, captured)

	_, err = g.Capture(ctx, ref, 10)
	var failed *domain.CaptureFailedError
	assert.ErrorAs(t, err, &failed)
}
