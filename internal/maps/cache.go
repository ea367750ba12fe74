// README: Redis-backed cache for routed distances.
package maps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetops/internal/types"
)

// DistanceCache keys routed distances on endpoints rounded to ~100m so
// repeated quotes for the same pair skip the Maps API. Misses and Redis
// errors both fall through to the live lookup.
type DistanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDistanceCache(client *redis.Client, ttl time.Duration) *DistanceCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DistanceCache{client: client, ttl: ttl}
}

func (c *DistanceCache) Get(ctx context.Context, from, to types.Point) (float64, bool) {
	v, err := c.client.Get(ctx, key(from, to)).Result()
	if err != nil {
		return 0, false
	}
	km, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return km, true
}

func (c *DistanceCache) Put(ctx context.Context, from, to types.Point, km float64) {
	_ = c.client.Set(ctx, key(from, to), strconv.FormatFloat(km, 'f', 3, 64), c.ttl).Err()
}

func key(from, to types.Point) string {
	return fmt.Sprintf("route:%.3f,%.3f:%.3f,%.3f", from.Lat, from.Lng, to.Lat, to.Lng)
}
