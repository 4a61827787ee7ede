package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rescuereach/models"
	"rescuereach/services"
	"rescuereach/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	reports  map[string]*models.SOSReport
	failSave bool
}

func newMemStore() *memStore {
	return &memStore{reports: map[string]*models.SOSReport{}}
}

func (ms *memStore) SaveReport(ctx context.Context, report *models.SOSReport) (*models.SOSReport, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.failSave {
		return nil, errors.New("store unavailable")
	}
	clone := *report
	ms.reports[report.ReportID] = &clone
	return &clone, nil
}

func (ms *memStore) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus, responderInfo map[string]string, cancellation *models.CancellationInfo) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	report, ok := ms.reports[reportID]
	if !ok {
		return utils.NewReportNotFoundError(reportID)
	}
	if !report.Status.CanTransitionTo(status) {
		return utils.NewStatusRegressionError(string(report.Status), string(status))
	}
	report.Status = status
	return nil
}

func (ms *memStore) GetReportByID(ctx context.Context, reportID string) (*models.SOSReport, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	report, ok := ms.reports[reportID]
	if !ok {
		return nil, utils.NewReportNotFoundError(reportID)
	}
	clone := *report
	return &clone, nil
}

func (ms *memStore) GetUserReports(ctx context.Context, userID string, limit int) ([]models.SOSReport, error) {
	return nil, nil
}

func (ms *memStore) GetActiveReportsByRegion(ctx context.Context, state string, limit int) ([]models.SOSReport, error) {
	return nil, nil
}

func (ms *memStore) DeleteReport(ctx context.Context, reportID string) error { return nil }

func (ms *memStore) AddComment(ctx context.Context, comment *models.ReportComment) error { return nil }

func (ms *memStore) GetComments(ctx context.Context, reportID string) ([]models.ReportComment, error) {
	return nil, nil
}

type memMirror struct {
	mu      sync.Mutex
	entries map[string]models.LiveStatusEntry
}

func newMemMirror() *memMirror {
	return &memMirror{entries: map[string]models.LiveStatusEntry{}}
}

func (mm *memMirror) Put(ctx context.Context, entry models.LiveStatusEntry) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.entries[entry.ReportID] = entry
	return nil
}

func (mm *memMirror) Remove(ctx context.Context, reportID string) error { return nil }

func (mm *memMirror) Get(ctx context.Context, reportID string) (*models.LiveStatusEntry, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	entry, ok := mm.entries[reportID]
	if !ok {
		return nil, utils.NewReportNotFoundError(reportID)
	}
	return &entry, nil
}

func (mm *memMirror) Subscribe(ctx context.Context, reportID string) (<-chan models.LiveStatusEntry, func(), error) {
	ch := make(chan models.LiveStatusEntry)
	return ch, func() {}, nil
}

type memQueue struct {
	mu      sync.Mutex
	reports []*models.SOSReport
}

func (mq *memQueue) Enqueue(ctx context.Context, report *models.SOSReport) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	mq.reports = append(mq.reports, report)
	return nil
}

func (mq *memQueue) Dequeue(ctx context.Context) (*models.SOSReport, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	if len(mq.reports) == 0 {
		return nil, nil
	}
	report := mq.reports[0]
	mq.reports = mq.reports[1:]
	return report, nil
}

func (mq *memQueue) Find(ctx context.Context, reportID string) (*models.SOSReport, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	for _, report := range mq.reports {
		if report.ReportID == reportID {
			return report, nil
		}
	}
	return nil, nil
}

func (mq *memQueue) Remove(ctx context.Context, reportID string) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	for i, report := range mq.reports {
		if report.ReportID == reportID {
			mq.reports = append(mq.reports[:i], mq.reports[i+1:]...)
			return nil
		}
	}
	return nil
}

func (mq *memQueue) len() int {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return len(mq.reports)
}

type memConnectivity struct{ online bool }

func (mc *memConnectivity) IsOnline(ctx context.Context) bool { return mc.online }

type memPush struct {
	mu       sync.Mutex
	segments int
}

func (mp *memPush) SendToSegment(ctx context.Context, filter models.SegmentFilter, payload models.PushPayload) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.segments++
	return nil
}

func (mp *memPush) SendToExternalID(ctx context.Context, externalID string, payload models.PushPayload) error {
	return nil
}

type memSMS struct{}

func (memSMS) Send(ctx context.Context, phoneNumber, body string) error { return nil }

func queuedReport(id string) *models.SOSReport {
	return &models.SOSReport{
		ReportID:      id,
		EmergencyType: models.EmergencyTypeFire,
		UserID:        "user-1",
		State:         "karnataka",
		IsOnline:      false,
		Status:        models.StatusPending,
		SMSStatus:     models.SMSStatusSent,
		SMSSent:       true,
		Timestamp:     time.Now(),
	}
}

func TestDrainReplaysQueuedReports(t *testing.T) {
	store := newMemStore()
	mirror := newMemMirror()
	queue := &memQueue{}
	push := &memPush{}
	notifier := services.NewNotificationService(push, memSMS{})
	worker := NewSyncWorker(store, mirror, queue, &memConnectivity{online: true}, notifier, DefaultSyncWorkerConfig())

	queue.Enqueue(context.Background(), queuedReport("sos_q1"))
	queue.Enqueue(context.Background(), queuedReport("sos_q2"))

	worker.drain(context.Background())

	// Both reports reached the primary store and advanced; the record of
	// the SMS-path delivery stays intact, with the replay stamped on top.
	for _, id := range []string{"sos_q1", "sos_q2"} {
		stored, err := store.GetReportByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, stored.IsOnline)
		assert.NotNil(t, stored.SyncedAt)
		assert.Equal(t, models.StatusReceived, stored.Status)

		_, err = mirror.Get(context.Background(), id)
		assert.NoError(t, err)
	}

	// Responders were notified for each replay.
	assert.Equal(t, 2, push.segments)
	assert.Zero(t, queue.len())

	synced, failed := worker.Stats()
	assert.EqualValues(t, 2, synced)
	assert.Zero(t, failed)
}

func TestDrainRequeuesOnStoreFailure(t *testing.T) {
	store := newMemStore()
	store.failSave = true
	queue := &memQueue{}
	notifier := services.NewNotificationService(&memPush{}, memSMS{})
	worker := NewSyncWorker(store, newMemMirror(), queue, &memConnectivity{online: true}, notifier, DefaultSyncWorkerConfig())

	queue.Enqueue(context.Background(), queuedReport("sos_q1"))

	worker.drain(context.Background())

	// The report went back on the queue for the next cycle.
	assert.Equal(t, 1, queue.len())

	synced, failed := worker.Stats()
	assert.Zero(t, synced)
	assert.EqualValues(t, 1, failed)
}

func TestDrainEmptyQueueNoOp(t *testing.T) {
	notifier := services.NewNotificationService(&memPush{}, memSMS{})
	worker := NewSyncWorker(newMemStore(), newMemMirror(), &memQueue{}, &memConnectivity{online: true}, notifier, DefaultSyncWorkerConfig())

	worker.drain(context.Background())

	synced, failed := worker.Stats()
	assert.Zero(t, synced)
	assert.Zero(t, failed)
}

func TestWorkerSkipsDrainWhileOffline(t *testing.T) {
	queue := &memQueue{}
	queue.Enqueue(context.Background(), queuedReport("sos_q1"))
	notifier := services.NewNotificationService(&memPush{}, memSMS{})

	config := SyncWorkerConfig{PollInterval: 10 * time.Millisecond, DrainBatch: 5}
	worker := NewSyncWorker(newMemStore(), newMemMirror(), queue, &memConnectivity{online: false}, notifier, config)

	worker.Start()
	time.Sleep(60 * time.Millisecond)
	worker.Stop()

	// Nothing was drained without connectivity.
	assert.Equal(t, 1, queue.len())
}
