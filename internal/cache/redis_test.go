package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestAcquireAcceptLock(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCacheWithClient(db)
	bookingID := uuid.New()

	key := acceptLockKey(bookingID)
	mockRedis.ExpectSetNX(key, "locked", 30*time.Second).SetVal(true)
	mockRedis.ExpectSetNX(key, "locked", 30*time.Second).SetVal(false)
	mockRedis.ExpectDel(key).SetVal(1)

	ok, err := c.AcquireAcceptLock(context.Background(), bookingID, 30*time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireAcceptLock(context.Background(), bookingID, 30*time.Second)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, c.ReleaseAcceptLock(context.Background(), bookingID))
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestUpdateGuardPosition(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCacheWithClient(db)
	guardID := uuid.New()

	mockRedis.ExpectGeoAdd(guardGeoKey(), &redis.GeoLocation{
		Name:      guardID.String(),
		Longitude: 4.89,
		Latitude:  52.37,
	}).SetVal(1)

	assert.NoError(t, c.UpdateGuardPosition(context.Background(), guardID, 52.37, 4.89))
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestNearbyGuards_SkipsUnparseableMembers(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCacheWithClient(db)
	guardID := uuid.New()

	mockRedis.ExpectGeoSearchLocation(guardGeoKey(), &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  4.89,
			Latitude:   52.37,
			Radius:     5,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      10,
		},
		WithDist: true,
	}).SetVal([]redis.GeoLocation{
		{Name: guardID.String(), Dist: 1.2},
		{Name: "not-a-uuid", Dist: 0.3},
	})

	guards, err := c.NearbyGuards(context.Background(), 52.37, 4.89, 5, 10)
	assert.NoError(t, err)
	if assert.Len(t, guards, 1) {
		assert.Equal(t, guardID, guards[0].GuardID)
		assert.Equal(t, 1.2, guards[0].DistanceKm)
	}
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}
