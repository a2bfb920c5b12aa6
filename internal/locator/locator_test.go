package locator

import (
	"context"
	"testing"
	"time"

	"github.com/aegisguard/aegis/internal/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockGeoIndex struct {
	mock.Mock
}

func (m *MockGeoIndex) NearbyGuards(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]cache.GuardDistance, error) {
	args := m.Called(ctx, lat, lng, radiusKm, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cache.GuardDistance), args.Error(1)
}

type MockGuardDirectory struct {
	mock.Mock
}

func (m *MockGuardDirectory) AvailableWithin(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func testPolicy() Policy {
	return Policy{SearchRadiusKm: 5, MaxCandidates: 20, AverageSpeedKmh: 30}
}

func TestFindNearby_RanksByDistance(t *testing.T) {
	geo := &MockGeoIndex{}
	dir := &MockGuardDirectory{}
	svc := NewService(geo, dir, testPolicy())

	far, near := uuid.New(), uuid.New()
	geo.On("NearbyGuards", mock.Anything, 52.0, 4.0, 5.0, 20).Return([]cache.GuardDistance{
		{GuardID: far, DistanceKm: 3.4},
		{GuardID: near, DistanceKm: 1.2},
	}, nil)
	dir.On("AvailableWithin", mock.Anything, mock.Anything).Return([]uuid.UUID{far, near}, nil)

	candidates, err := svc.FindNearby(context.Background(), 52.0, 4.0)
	assert.NoError(t, err)
	if assert.Len(t, candidates, 2) {
		assert.Equal(t, near, candidates[0].GuardID)
		assert.Equal(t, 1.2, candidates[0].DistanceKm)
		assert.Equal(t, far, candidates[1].GuardID)
	}
}

func TestFindNearby_TieBrokenByGuardID(t *testing.T) {
	geo := &MockGeoIndex{}
	dir := &MockGuardDirectory{}
	svc := NewService(geo, dir, testPolicy())

	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	geo.On("NearbyGuards", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]cache.GuardDistance{
			{GuardID: b, DistanceKm: 2.0},
			{GuardID: a, DistanceKm: 2.0},
		}, nil)
	dir.On("AvailableWithin", mock.Anything, mock.Anything).Return([]uuid.UUID{b, a}, nil)

	candidates, err := svc.FindNearby(context.Background(), 52.0, 4.0)
	assert.NoError(t, err)
	if assert.Len(t, candidates, 2) {
		assert.Equal(t, a, candidates[0].GuardID)
		assert.Equal(t, b, candidates[1].GuardID)
	}
}

func TestFindNearby_ExcludesBusyGuards(t *testing.T) {
	geo := &MockGeoIndex{}
	dir := &MockGuardDirectory{}
	svc := NewService(geo, dir, testPolicy())

	busy, free := uuid.New(), uuid.New()
	geo.On("NearbyGuards", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]cache.GuardDistance{
			{GuardID: busy, DistanceKm: 0.5},
			{GuardID: free, DistanceKm: 1.5},
		}, nil)
	dir.On("AvailableWithin", mock.Anything, []uuid.UUID{busy, free}).Return([]uuid.UUID{free}, nil)

	candidates, err := svc.FindNearby(context.Background(), 52.0, 4.0)
	assert.NoError(t, err)
	if assert.Len(t, candidates, 1) {
		assert.Equal(t, free, candidates[0].GuardID)
	}
}

func TestFindNearby_EmptyIndexIsNotAnError(t *testing.T) {
	geo := &MockGeoIndex{}
	dir := &MockGuardDirectory{}
	svc := NewService(geo, dir, testPolicy())

	geo.On("NearbyGuards", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]cache.GuardDistance{}, nil)

	candidates, err := svc.FindNearby(context.Background(), 52.0, 4.0)
	assert.NoError(t, err)
	assert.Empty(t, candidates)
	dir.AssertNotCalled(t, "AvailableWithin", mock.Anything, mock.Anything)
}

func TestFindNearby_ETAFromAverageSpeed(t *testing.T) {
	geo := &MockGeoIndex{}
	dir := &MockGuardDirectory{}
	svc := NewService(geo, dir, testPolicy())

	g := uuid.New()
	geo.On("NearbyGuards", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]cache.GuardDistance{{GuardID: g, DistanceKm: 15}}, nil)
	dir.On("AvailableWithin", mock.Anything, mock.Anything).Return([]uuid.UUID{g}, nil)

	candidates, err := svc.FindNearby(context.Background(), 52.0, 4.0)
	assert.NoError(t, err)
	if assert.Len(t, candidates, 1) {
		// 15 km at 30 km/h is half an hour.
		assert.Equal(t, 30*time.Minute, candidates[0].ETA)
	}
}
