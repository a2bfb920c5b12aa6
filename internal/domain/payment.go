package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Payment is one-to-one with a booking once a guard has been matched.
type Payment struct {
	BookingID        uuid.UUID
	AmountAuthorized float64
	AmountCaptured   float64
	PlatformFee      float64
	GuardPayout      float64
	Status           PaymentStatus
	AuthRef          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// paymentTransitions keeps payment status monotonic: captured, refunded
// and failed are terminal, a captured payment is never re-authorized.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusAuthorized, PaymentStatusFailed},
	PaymentStatusAuthorized: {PaymentStatusCaptured, PaymentStatusRefunded, PaymentStatusFailed},
	PaymentStatusCaptured:   nil,
	PaymentStatusRefunded:   nil,
	PaymentStatusFailed:     nil,
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCaptured || s == PaymentStatusRefunded || s == PaymentStatusFailed
}
