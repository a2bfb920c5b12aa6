package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventName string

const (
	EventBookingRequested EventName = "booking_requested"
	EventGuardMatched     EventName = "guard_matched"
	EventBookingAccepted  EventName = "booking_accepted"
	EventJobStarted       EventName = "job_started"
	EventBookingCompleted EventName = "booking_completed"
	EventBookingCancelled EventName = "booking_cancelled"
)

// Event is the closed set of booking lifecycle events. Every variant lives
// in this file; consumers switch over Name and handle the set exhaustively.
type Event interface {
	Name() EventName
	Booking() uuid.UUID
	At() time.Time
	isEvent()
}

type BookingRequested struct {
	BookingID      uuid.UUID `json:"booking_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	EstimatedTotal float64   `json:"estimated_total"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type GuardMatched struct {
	BookingID      uuid.UUID `json:"booking_id"`
	GuardID        uuid.UUID `json:"guard_id"`
	DistanceKm     float64   `json:"distance_km"`
	EstimatedTotal float64   `json:"estimated_total"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type BookingAccepted struct {
	BookingID  uuid.UUID `json:"booking_id"`
	GuardID    uuid.UUID `json:"guard_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type JobStarted struct {
	BookingID   uuid.UUID `json:"booking_id"`
	GuardID     uuid.UUID `json:"guard_id"`
	ActualStart time.Time `json:"actual_start"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type BookingCompleted struct {
	BookingID   uuid.UUID `json:"booking_id"`
	FinalAmount float64   `json:"final_amount"`
	ActualEnd   time.Time `json:"actual_end"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type BookingCancelled struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e BookingRequested) Name() EventName    { return EventBookingRequested }
func (e BookingRequested) Booking() uuid.UUID { return e.BookingID }
func (e BookingRequested) At() time.Time      { return e.OccurredAt }
func (e BookingRequested) isEvent()           {}

func (e GuardMatched) Name() EventName    { return EventGuardMatched }
func (e GuardMatched) Booking() uuid.UUID { return e.BookingID }
func (e GuardMatched) At() time.Time      { return e.OccurredAt }
func (e GuardMatched) isEvent()           {}

func (e BookingAccepted) Name() EventName    { return EventBookingAccepted }
func (e BookingAccepted) Booking() uuid.UUID { return e.BookingID }
func (e BookingAccepted) At() time.Time      { return e.OccurredAt }
func (e BookingAccepted) isEvent()           {}

func (e JobStarted) Name() EventName    { return EventJobStarted }
func (e JobStarted) Booking() uuid.UUID { return e.BookingID }
func (e JobStarted) At() time.Time      { return e.OccurredAt }
func (e JobStarted) isEvent()           {}

func (e BookingCompleted) Name() EventName    { return EventBookingCompleted }
func (e BookingCompleted) Booking() uuid.UUID { return e.BookingID }
func (e BookingCompleted) At() time.Time      { return e.OccurredAt }
func (e BookingCompleted) isEvent()           {}

func (e BookingCancelled) Name() EventName    { return EventBookingCancelled }
func (e BookingCancelled) Booking() uuid.UUID { return e.BookingID }
func (e BookingCancelled) At() time.Time      { return e.OccurredAt }
func (e BookingCancelled) isEvent()           {}

// EventEnvelope is the persisted/published form of an Event: the variant
// payload serialized to JSON under a stable name.
type EventEnvelope struct {
	ID         int64
	Name       EventName
	BookingID  uuid.UUID
	OccurredAt time.Time
	Payload    json.RawMessage
}

func Envelope(ev Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", ev.Name(), err)
	}
	return &EventEnvelope{
		Name:       ev.Name(),
		BookingID:  ev.Booking(),
		OccurredAt: ev.At(),
		Payload:    payload,
	}, nil
}
