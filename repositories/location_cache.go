package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rescuereach/models"
	"rescuereach/utils"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// freshFixWindow is how recent a cached fix must be to count as "current".
const freshFixWindow = 30 * time.Second

// LocationCache holds the latest reported position per user in Redis.
// Clients stream pings into it; the SOS collector reads from it.
type LocationCache struct {
	redis *redis.Client
}

func NewLocationCache(redisClient *redis.Client) *LocationCache {
	return &LocationCache{redis: redisClient}
}

func locationKey(userID string) string {
	return fmt.Sprintf("loc:last:%s", userID)
}

// Store records a position ping. Kept for 24h so a long-offline user does
// not resurface with a days-old fix.
func (lc *LocationCache) Store(ctx context.Context, userID string, fix *models.LocationFix) error {
	if fix.Timestamp.IsZero() {
		fix.Timestamp = time.Now()
	}
	payload, err := json.Marshal(fix)
	if err != nil {
		return utils.WrapError(err, "LOCATION_ENCODE", "Failed to encode location fix")
	}
	if err := lc.redis.Set(ctx, locationKey(userID), payload, 24*time.Hour).Err(); err != nil {
		return utils.WrapError(err, "LOCATION_WRITE", "Failed to store location fix")
	}
	return nil
}

// GetCurrentLocation waits up to timeout for a fix fresh enough to act on,
// polling the cache. Returns an error when the window closes without one.
func (lc *LocationCache) GetCurrentLocation(ctx context.Context, userID string, timeout time.Duration) (*models.LocationFix, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		fix, err := lc.GetLastKnown(ctx, userID)
		if err == nil && fix != nil && time.Since(fix.Timestamp) <= freshFixWindow {
			return fix, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("no fresh location fix for user %s within %s", userID, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetLastKnown returns the cached fix regardless of age, or nil when none
// was ever recorded.
func (lc *LocationCache) GetLastKnown(ctx context.Context, userID string) (*models.LocationFix, error) {
	payload, err := lc.redis.Get(ctx, locationKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, utils.WrapError(err, "LOCATION_READ", "Failed to read location fix")
	}

	var fix models.LocationFix
	if err := json.Unmarshal(payload, &fix); err != nil {
		logrus.Warnf("Corrupt cached location for user %s: %v", userID, err)
		return nil, nil
	}
	return &fix, nil
}
