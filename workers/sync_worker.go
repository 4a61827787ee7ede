package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"rescuereach/interfaces"
	"rescuereach/models"
	"rescuereach/services"

	"github.com/sirupsen/logrus"
)

type SyncWorkerConfig struct {
	PollInterval time.Duration `json:"pollInterval"`
	DrainBatch   int           `json:"drainBatch"`
}

func DefaultSyncWorkerConfig() SyncWorkerConfig {
	return SyncWorkerConfig{
		PollInterval: 30 * time.Second,
		DrainBatch:   25,
	}
}

// SyncWorker drains the offline delivery queue once connectivity returns:
// each queued report is persisted, mirrored, and announced to responders.
// Contact SMS is not repeated; it already went out on the offline path.
type SyncWorker struct {
	store        interfaces.ReportStore
	mirror       interfaces.StatusMirror
	queue        interfaces.SyncQueue
	connectivity interfaces.ConnectivityChecker
	notifier     *services.NotificationService

	config SyncWorkerConfig

	isRunning bool
	mutex     sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	synced int64
	failed int64
}

func NewSyncWorker(
	store interfaces.ReportStore,
	mirror interfaces.StatusMirror,
	queue interfaces.SyncQueue,
	connectivity interfaces.ConnectivityChecker,
	notifier *services.NotificationService,
	config SyncWorkerConfig,
) *SyncWorker {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncWorkerConfig().PollInterval
	}
	if config.DrainBatch <= 0 {
		config.DrainBatch = DefaultSyncWorkerConfig().DrainBatch
	}
	return &SyncWorker{
		store:        store,
		mirror:       mirror,
		queue:        queue,
		connectivity: connectivity,
		notifier:     notifier,
		config:       config,
	}
}

func (sw *SyncWorker) Start() {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()
	if sw.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sw.cancel = cancel
	sw.isRunning = true

	sw.wg.Add(1)
	go sw.run(ctx)

	logrus.Infof("Sync worker started, polling every %s", sw.config.PollInterval)
}

func (sw *SyncWorker) Stop() {
	sw.mutex.Lock()
	if !sw.isRunning {
		sw.mutex.Unlock()
		return
	}
	sw.isRunning = false
	sw.cancel()
	sw.mutex.Unlock()

	sw.wg.Wait()
	logrus.Info("Sync worker stopped")
}

func (sw *SyncWorker) run(ctx context.Context) {
	defer sw.wg.Done()

	ticker := time.NewTicker(sw.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !sw.connectivity.IsOnline(ctx) {
				continue
			}
			sw.drain(ctx)
		}
	}
}

// drain replays queued reports until the queue is empty or the batch cap is
// hit. A report that fails to persist goes back on the queue for the next
// cycle.
func (sw *SyncWorker) drain(ctx context.Context) {
	for i := 0; i < sw.config.DrainBatch; i++ {
		report, err := sw.queue.Dequeue(ctx)
		if err != nil {
			logrus.Errorf("Sync dequeue failed: %v", err)
			return
		}
		if report == nil {
			return
		}

		if err := sw.replay(ctx, report); err != nil {
			atomic.AddInt64(&sw.failed, 1)
			logrus.Errorf("Sync of report %s failed, requeueing: %v", report.ReportID, err)
			if qerr := sw.queue.Enqueue(ctx, report); qerr != nil {
				logrus.Errorf("Requeue of report %s failed, report only reachable via SMS trail: %v", report.ReportID, qerr)
			}
			return
		}

		atomic.AddInt64(&sw.synced, 1)
		logrus.WithFields(logrus.Fields{
			"reportId": report.ReportID,
			"userId":   report.UserID,
		}).Info("Offline report synced")
	}
}

func (sw *SyncWorker) replay(ctx context.Context, report *models.SOSReport) error {
	// IsOnline keeps recording that delivery ran on the SMS path; the
	// replay is stamped separately.
	now := time.Now()
	report.SyncedAt = &now

	saved, err := sw.store.SaveReport(ctx, report)
	if err != nil {
		return err
	}

	if err := sw.mirror.Put(ctx, saved.Projection()); err != nil {
		logrus.Warnf("Mirror write failed for synced report %s: %v", saved.ReportID, err)
	}

	sw.notifier.NotifyResponders(ctx, saved)

	// Move the lifecycle forward now that the report reached the primary
	// store. A regression guard in the store keeps later statuses intact.
	if err := sw.store.UpdateStatus(ctx, saved.ReportID, models.StatusReceived, nil, nil); err != nil {
		logrus.Warnf("Status advance failed for synced report %s: %v", saved.ReportID, err)
	}

	return nil
}

// Stats reports lifetime counters for the health surface.
func (sw *SyncWorker) Stats() (synced, failed int64) {
	return atomic.LoadInt64(&sw.synced), atomic.LoadInt64(&sw.failed)
}
