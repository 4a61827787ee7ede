package repositories

import (
	"context"
	"fmt"
	"time"

	"rescuereach/utils"

	"github.com/go-redis/redis/v8"
)

// ActivePointerStore tracks the single in-flight SOS per user. The pointer is
// acquired with SETNX so two concurrent triggers cannot both win; it carries a
// TTL as a safety net against a crashed client that never resolves.
type ActivePointerStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewActivePointerStore(redisClient *redis.Client) *ActivePointerStore {
	return &ActivePointerStore{
		redis: redisClient,
		ttl:   24 * time.Hour,
	}
}

func pointerKey(userID string) string {
	return fmt.Sprintf("sos:active:%s", userID)
}

// Acquire claims the pointer for reportID. Returns false plus the existing
// report id when the user already has an active report.
func (ps *ActivePointerStore) Acquire(ctx context.Context, userID, reportID string) (bool, string, error) {
	ok, err := ps.redis.SetNX(ctx, pointerKey(userID), reportID, ps.ttl).Result()
	if err != nil {
		return false, "", utils.WrapError(err, "POINTER_WRITE", "Failed to claim active SOS pointer")
	}
	if ok {
		return true, reportID, nil
	}

	existing, err := ps.redis.Get(ctx, pointerKey(userID)).Result()
	if err == redis.Nil {
		// The holder resolved between our SETNX and GET; retry once.
		ok, err = ps.redis.SetNX(ctx, pointerKey(userID), reportID, ps.ttl).Result()
		if err != nil {
			return false, "", utils.WrapError(err, "POINTER_WRITE", "Failed to claim active SOS pointer")
		}
		return ok, reportID, nil
	}
	if err != nil {
		return false, "", utils.WrapError(err, "POINTER_READ", "Failed to read active SOS pointer")
	}
	return false, existing, nil
}

// Get returns the active report id for a user, or empty when none.
func (ps *ActivePointerStore) Get(ctx context.Context, userID string) (string, error) {
	reportID, err := ps.redis.Get(ctx, pointerKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", utils.WrapError(err, "POINTER_READ", "Failed to read active SOS pointer")
	}
	return reportID, nil
}

// Clear drops the pointer. Clearing an absent pointer is a no-op.
func (ps *ActivePointerStore) Clear(ctx context.Context, userID string) error {
	if err := ps.redis.Del(ctx, pointerKey(userID)).Err(); err != nil {
		return utils.WrapError(err, "POINTER_DELETE", "Failed to clear active SOS pointer")
	}
	return nil
}
