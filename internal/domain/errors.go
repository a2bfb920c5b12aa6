package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition means the attempted transition is not legal from
	// the booking's current status. Surfaced to the caller, never retried.
	ErrInvalidTransition = errors.New("invalid booking transition")

	// ErrConflict means a concurrent acceptance won the race; the losing
	// caller sees the booking as already taken.
	ErrConflict = errors.New("booking already taken")

	// ErrNoGuardAvailable means the locator returned no candidates within
	// the policy radius. The booking stays requested and is retried on the
	// polling cadence until the match wait window runs out.
	ErrNoGuardAvailable = errors.New("no guard available")

	// ErrDependencyTimeout means an external call exceeded its bound after
	// the single permitted retry.
	ErrDependencyTimeout = errors.New("dependency call timed out")

	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrGuardNotFound   = errors.New("guard not found")
)

// DeclinedError is a gateway-reported authorization decline. A declined
// hold reverts the booking to requested so rematching can occur.
type DeclinedError struct {
	BookingID string
	Reason    string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined for booking %s: %s", e.BookingID, e.Reason)
}

// CaptureFailedError is a gateway-reported capture failure at completion.
// The booking still completes; the payment row carries the failed status
// for manual reconciliation.
type CaptureFailedError struct {
	BookingID string
	Reason    string
}

func (e *CaptureFailedError) Error() string {
	return fmt.Sprintf("payment capture failed for booking %s: %s", e.BookingID, e.Reason)
}
