package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusRequested  BookingStatus = "requested"
	BookingStatusMatched    BookingStatus = "matched"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// Cancellation reasons recorded when the engine cancels a booking on its
// own rather than on an explicit customer/guard request.
const (
	CancelReasonNoGuardAvailable = "no_guard_available"
	CancelReasonNotAccepted      = "not_accepted_in_time"
	CancelReasonNotStarted       = "not_started_in_time"
)

type Booking struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	GuardID        *uuid.UUID
	Status         BookingStatus
	Latitude       float64
	Longitude      float64
	Address        string
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	ActualStart    *time.Time
	ActualEnd      *time.Time
	HourlyRate     float64
	EstimatedHours float64
	EstimatedTotal float64
	PaymentRef     string
	CancelReason   string
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// transitions is the full booking state graph. Cancellation is reachable
// from every non-terminal state; completed and cancelled are terminal.
var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusRequested:  {BookingStatusMatched, BookingStatusCancelled},
	BookingStatusMatched:    {BookingStatusAccepted, BookingStatusCancelled},
	BookingStatusAccepted:   {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted:  nil,
	BookingStatusCancelled:  nil,
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}
