package domain

import (
	"time"

	"github.com/google/uuid"
)

// GuardProfile is owned by the availability subsystem. Availability itself
// is derived: a guard is available iff it holds no booking in a
// non-terminal status, so there is no flag to keep in sync here.
type GuardProfile struct {
	ID            uuid.UUID
	HourlyRate    float64
	Rating        float64
	LastLatitude  float64
	LastLongitude float64
	LastSeenAt    time.Time
}

// GuardCandidate is a locator result: an available guard ranked by
// distance from the service location.
type GuardCandidate struct {
	GuardID    uuid.UUID
	DistanceKm float64
	ETA        time.Duration
}

// LocationUpdate is an append-only ping recorded while a job is in
// progress. Stored as received; timestamps are not required to be
// monotonic across pings.
type LocationUpdate struct {
	ID         int64
	BookingID  uuid.UUID
	GuardID    uuid.UUID
	Latitude   float64
	Longitude  float64
	Accuracy   float64
	RecordedAt time.Time
}
