package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aegisguard/aegis/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// GuardDistance is a raw geo-index hit before availability filtering.
type GuardDistance struct {
	GuardID    uuid.UUID
	DistanceKm float64
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// UpdateGuardPosition keeps the geo index in step with the guard's last
// reported location.
func (c *RedisCache) UpdateGuardPosition(ctx context.Context, guardID uuid.UUID, lat, lng float64) error {
	return c.client.GeoAdd(ctx, guardGeoKey(), &redis.GeoLocation{
		Name:      guardID.String(),
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

func (c *RedisCache) RemoveGuardPosition(ctx context.Context, guardID uuid.UUID) error {
	return c.client.ZRem(ctx, guardGeoKey(), guardID.String()).Err()
}

// NearbyGuards returns guards within radiusKm of the service location,
// nearest first. An empty index yields an empty result, not an error.
func (c *RedisCache) NearbyGuards(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]GuardDistance, error) {
	hits, err := c.client.GeoSearchLocation(ctx, guardGeoKey(), &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, err
	}

	guards := make([]GuardDistance, 0, len(hits))
	for _, hit := range hits {
		id, err := uuid.Parse(hit.Name)
		if err != nil {
			// Stale or foreign member in the index; skip it.
			continue
		}
		guards = append(guards, GuardDistance{GuardID: id, DistanceKm: hit.Dist})
	}
	return guards, nil
}

// AcquireAcceptLock serializes the accept critical section across engine
// instances. The database compare-and-swap is still the source of truth;
// the lock just keeps losing guards from doing redundant work.
func (c *RedisCache) AcquireAcceptLock(ctx context.Context, bookingID uuid.UUID, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, acceptLockKey(bookingID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseAcceptLock(ctx context.Context, bookingID uuid.UUID) error {
	return c.client.Del(ctx, acceptLockKey(bookingID)).Err()
}

func guardGeoKey() string {
	return "geo:guards"
}

func acceptLockKey(bookingID uuid.UUID) string {
	return fmt.Sprintf("lock:booking:%s:accept", bookingID)
}
