package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewEventRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewEventRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewGuardRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewGuardRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewLocationRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewLocationRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewPaymentRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewPaymentRepository(pool)
	assert.NotNil(t, repo)
}
