package repositories

import (
	"context"
	"encoding/json"

	"rescuereach/models"
	"rescuereach/utils"

	"github.com/go-redis/redis/v8"
)

const syncQueueKey = "sos:sync:pending"

// OfflineSyncQueue buffers reports that went out on the SMS-only path so the
// sync worker can replay them into the cloud stores once connectivity is back.
type OfflineSyncQueue struct {
	redis *redis.Client
}

func NewOfflineSyncQueue(redisClient *redis.Client) *OfflineSyncQueue {
	return &OfflineSyncQueue{redis: redisClient}
}

func (q *OfflineSyncQueue) Enqueue(ctx context.Context, report *models.SOSReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return utils.WrapError(err, "SYNC_ENCODE", "Failed to encode report for sync")
	}
	if err := q.redis.RPush(ctx, syncQueueKey, payload).Err(); err != nil {
		return utils.WrapError(err, "SYNC_ENQUEUE", "Failed to enqueue report for sync")
	}
	return nil
}

// Dequeue pops the oldest pending report. Returns (nil, nil) when the queue
// is empty.
func (q *OfflineSyncQueue) Dequeue(ctx context.Context) (*models.SOSReport, error) {
	payload, err := q.redis.LPop(ctx, syncQueueKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, utils.WrapError(err, "SYNC_DEQUEUE", "Failed to dequeue report for sync")
	}

	var report models.SOSReport
	if err := json.Unmarshal(payload, &report); err != nil {
		// Malformed entries are dropped, not requeued.
		return nil, utils.WrapError(err, "SYNC_DECODE", "Corrupt report in sync queue")
	}
	return &report, nil
}

// Find returns the queued report with the given id, or (nil, nil) when it is
// not in the queue. The queue stays small (it only holds reports awaiting
// connectivity), so a full scan is fine.
func (q *OfflineSyncQueue) Find(ctx context.Context, reportID string) (*models.SOSReport, error) {
	entry, _, err := q.scan(ctx, reportID)
	return entry, err
}

// Remove drops the queued report with the given id. A miss is not an error.
func (q *OfflineSyncQueue) Remove(ctx context.Context, reportID string) error {
	entry, raw, err := q.scan(ctx, reportID)
	if err != nil || entry == nil {
		return err
	}
	if err := q.redis.LRem(ctx, syncQueueKey, 1, raw).Err(); err != nil {
		return utils.WrapError(err, "SYNC_REMOVE", "Failed to remove report from sync queue")
	}
	return nil
}

// scan walks the queue for one report id, returning the decoded report and
// the raw list element (the LRem handle).
func (q *OfflineSyncQueue) scan(ctx context.Context, reportID string) (*models.SOSReport, string, error) {
	payloads, err := q.redis.LRange(ctx, syncQueueKey, 0, -1).Result()
	if err != nil {
		return nil, "", utils.WrapError(err, "SYNC_SCAN", "Failed to scan sync queue")
	}

	for _, payload := range payloads {
		var report models.SOSReport
		if err := json.Unmarshal([]byte(payload), &report); err != nil {
			continue
		}
		if report.ReportID == reportID {
			return &report, payload, nil
		}
	}
	return nil, "", nil
}
