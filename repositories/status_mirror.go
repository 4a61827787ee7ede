package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"rescuereach/models"
	"rescuereach/utils"

	"firebase.google.com/go/v4/db"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// LiveStatusMirror keeps the low-latency status projection. Every write goes
// to two places: the Firebase Realtime Database paths the mobile clients read
// (`sos/<id>` and `active_emergencies/<id>`), and a Redis pub/sub channel the
// in-process status watcher subscribes to. The Redis publish is what makes
// push-on-write work server-side; the RTDB paths serve the client fleet.
type LiveStatusMirror struct {
	rtdb  *db.Client
	redis *redis.Client
}

func NewLiveStatusMirror(rtdb *db.Client, redisClient *redis.Client) *LiveStatusMirror {
	return &LiveStatusMirror{
		rtdb:  rtdb,
		redis: redisClient,
	}
}

func statusChannel(reportID string) string {
	return fmt.Sprintf("sos:status:%s", reportID)
}

// Put writes the projection and publishes the update. Both writes are
// attempted even if the first fails; the mirror reports an error only when
// neither side took the update.
func (m *LiveStatusMirror) Put(ctx context.Context, entry models.LiveStatusEntry) error {
	var rtdbErr error
	if m.rtdb != nil {
		if err := m.rtdb.NewRef("sos/"+entry.ReportID).Set(ctx, entry); err != nil {
			rtdbErr = err
			logrus.Warnf("RTDB mirror write failed for report %s: %v", entry.ReportID, err)
		}
		if entry.Status.Terminal() {
			if err := m.rtdb.NewRef("active_emergencies/" + entry.ReportID).Delete(ctx); err != nil {
				logrus.Warnf("RTDB active-emergency cleanup failed for report %s: %v", entry.ReportID, err)
			}
		} else {
			if err := m.rtdb.NewRef("active_emergencies/"+entry.ReportID).Set(ctx, entry); err != nil {
				logrus.Warnf("RTDB active-emergency write failed for report %s: %v", entry.ReportID, err)
			}
		}
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return utils.WrapError(err, "MIRROR_ENCODE", "Failed to encode live status entry")
	}

	pipe := m.redis.Pipeline()
	pipe.Set(ctx, "sos:live:"+entry.ReportID, payload, 0)
	pipe.Publish(ctx, statusChannel(entry.ReportID), payload)
	if _, redisErr := pipe.Exec(ctx); redisErr != nil {
		logrus.Warnf("Redis mirror write failed for report %s: %v", entry.ReportID, redisErr)
		if rtdbErr != nil {
			return utils.WrapError(redisErr, "MIRROR_WRITE", "Live status mirror unavailable")
		}
	}

	return nil
}

// Remove clears the projection for a finished or deleted report.
func (m *LiveStatusMirror) Remove(ctx context.Context, reportID string) error {
	if m.rtdb != nil {
		if err := m.rtdb.NewRef("sos/" + reportID).Delete(ctx); err != nil {
			logrus.Warnf("RTDB mirror delete failed for report %s: %v", reportID, err)
		}
		if err := m.rtdb.NewRef("active_emergencies/" + reportID).Delete(ctx); err != nil {
			logrus.Warnf("RTDB active-emergency delete failed for report %s: %v", reportID, err)
		}
	}

	if err := m.redis.Del(ctx, "sos:live:"+reportID).Err(); err != nil {
		logrus.Warnf("Redis mirror delete failed for report %s: %v", reportID, err)
	}
	return nil
}

// Get reads the current projection from Redis.
func (m *LiveStatusMirror) Get(ctx context.Context, reportID string) (*models.LiveStatusEntry, error) {
	data, err := m.redis.Get(ctx, "sos:live:"+reportID).Bytes()
	if err == redis.Nil {
		return nil, utils.NewReportNotFoundError(reportID)
	}
	if err != nil {
		return nil, utils.WrapError(err, "MIRROR_READ", "Failed to read live status")
	}

	var entry models.LiveStatusEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, utils.WrapError(err, "MIRROR_DECODE", "Corrupt live status entry")
	}
	return &entry, nil
}

// Subscribe streams projection updates for one report. The stop function
// closes the subscription and the channel; callers must invoke it.
func (m *LiveStatusMirror) Subscribe(ctx context.Context, reportID string) (<-chan models.LiveStatusEntry, func(), error) {
	pubsub := m.redis.Subscribe(ctx, statusChannel(reportID))

	// Confirm the subscription before handing the channel out.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, utils.WrapError(err, "MIRROR_SUBSCRIBE", "Failed to subscribe to status updates")
	}

	out := make(chan models.LiveStatusEntry, 8)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var entry models.LiveStatusEntry
			if err := json.Unmarshal([]byte(msg.Payload), &entry); err != nil {
				logrus.Warnf("Dropping malformed status update on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case out <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() {
		if err := pubsub.Close(); err != nil {
			logrus.Debugf("Status subscription close for report %s: %v", reportID, err)
		}
	}
	return out, stop, nil
}
