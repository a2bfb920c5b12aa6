package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEnvelope_CarriesVariantPayload(t *testing.T) {
	bookingID := uuid.New()
	guardID := uuid.New()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	env, err := Envelope(GuardMatched{
		BookingID:      bookingID,
		GuardID:        guardID,
		DistanceKm:     1.2,
		EstimatedTotal: 50,
		OccurredAt:     at,
	})
	assert.NoError(t, err)
	assert.Equal(t, EventGuardMatched, env.Name)
	assert.Equal(t, bookingID, env.BookingID)
	assert.Equal(t, at, env.OccurredAt)

	var decoded GuardMatched
	assert.NoError(t, json.Unmarshal(env.Payload, &decoded))
	assert.Equal(t, guardID, decoded.GuardID)
	assert.Equal(t, 1.2, decoded.DistanceKm)
}
