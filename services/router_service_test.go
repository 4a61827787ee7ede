package services

import (
	"context"
	"testing"
	"time"

	"rescuereach/models"
	"rescuereach/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(online bool) *models.SOSReport {
	return &models.SOSReport{
		ReportID:      "sos_test1",
		EmergencyType: models.EmergencyTypeMedical,
		UserID:        "user-1",
		UserInfo:      models.UserSnapshot{FullName: "Asha Rao", PhoneNumber: "+919876543210"},
		Location:      &models.LocationFix{Latitude: 12.97, Longitude: 77.59},
		State:         "karnataka",
		EmergencyContacts: []models.EmergencyContact{
			{Name: "Ravi", Phone: "+919812345678", IsPrimary: true},
		},
		IsOnline:  online,
		Status:    models.StatusPending,
		SMSStatus: models.SMSStatusPending,
		Timestamp: time.Now(),
	}
}

func newTestRouter(store *fakeStore, mirror *fakeMirror, queue *fakeQueue, sms *fakeSMS, push *fakePush) *RouterService {
	notifier := NewNotificationService(push, sms)
	return NewRouterService(store, mirror, notifier, queue, testConfig())
}

func TestRouteOnlinePersistsMirrorsAndAdvances(t *testing.T) {
	store := newFakeStore()
	mirror := newFakeMirror()
	queue := &fakeQueue{}
	sms := newFakeSMS()
	push := &fakePush{}
	router := newTestRouter(store, mirror, queue, sms, push)

	outcome, err := router.Route(context.Background(), testReport(true))

	require.NoError(t, err)
	assert.Equal(t, "online", outcome.Channel)
	assert.True(t, outcome.Delivered)

	// Persisted and auto-advanced past PENDING.
	stored, err := store.GetReportByID(context.Background(), "sos_test1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReceived, stored.Status)

	// Mirror carries the advanced status.
	entry, err := mirror.Get(context.Background(), "sos_test1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReceived, entry.Status)

	// Responders notified in the report's state, contacts texted.
	require.Len(t, push.segments, 1)
	assert.Equal(t, "karnataka", push.segments[0].State)
	assert.NotEmpty(t, sms.sent["+919812345678"])

	// Nothing queued on the online path.
	queued, _ := queue.Dequeue(context.Background())
	assert.Nil(t, queued)
}

func TestRouteOnlineSMSAttemptedEvenWhenPushSucceeds(t *testing.T) {
	store := newFakeStore()
	sms := newFakeSMS()
	router := newTestRouter(store, newFakeMirror(), &fakeQueue{}, sms, &fakePush{})

	outcome, err := router.Route(context.Background(), testReport(true))

	require.NoError(t, err)
	assert.Equal(t, models.SMSStatusSent, outcome.Report.SMSStatus)
	assert.True(t, outcome.Report.SMSSent)
}

func TestRouteOnlineNoContactsPersistsFailedSMSStatus(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store, newFakeMirror(), &fakeQueue{}, newFakeSMS(), &fakePush{})

	report := testReport(true)
	report.EmergencyContacts = nil

	outcome, err := router.Route(context.Background(), report)

	require.NoError(t, err)
	assert.Equal(t, "online", outcome.Channel)

	// The stored document carries the SMS outcome, not a stuck PENDING.
	stored, err := store.GetReportByID(context.Background(), "sos_test1")
	require.NoError(t, err)
	assert.Equal(t, models.SMSStatusFailed, stored.SMSStatus)
	assert.False(t, stored.SMSSent)
}

func TestRouteOnlineStoreFailureFallsBackToOffline(t *testing.T) {
	store := newFakeStore()
	store.failSave = true
	queue := &fakeQueue{}
	sms := newFakeSMS()
	router := newTestRouter(store, newFakeMirror(), queue, sms, &fakePush{})

	outcome, err := router.Route(context.Background(), testReport(true))

	require.NoError(t, err)
	assert.Equal(t, "offline", outcome.Channel)
	assert.False(t, outcome.Report.IsOnline)
	assert.NotEmpty(t, sms.sent["+919812345678"])

	// Queued for sync once connectivity returns.
	queued, _ := queue.Dequeue(context.Background())
	require.NotNil(t, queued)
	assert.Equal(t, "sos_test1", queued.ReportID)
}

func TestRouteOfflineDeliversBySMSAndQueues(t *testing.T) {
	queue := &fakeQueue{}
	sms := newFakeSMS()
	push := &fakePush{}
	router := newTestRouter(newFakeStore(), newFakeMirror(), queue, sms, push)

	outcome, err := router.Route(context.Background(), testReport(false))

	require.NoError(t, err)
	assert.Equal(t, "offline", outcome.Channel)
	assert.Equal(t, models.SMSStatusSent, outcome.Report.SMSStatus)

	// No push fan-out on the offline path.
	assert.Empty(t, push.segments)

	queued, _ := queue.Dequeue(context.Background())
	require.NotNil(t, queued)
}

func TestRouteOfflineNoContactsFails(t *testing.T) {
	router := newTestRouter(newFakeStore(), newFakeMirror(), &fakeQueue{}, newFakeSMS(), &fakePush{})

	report := testReport(false)
	report.EmergencyContacts = nil

	_, err := router.Route(context.Background(), report)

	require.Error(t, err)
	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "DELIVERY_FAILED", serviceErr.Code)
}

func TestRouteOfflineAllSMSFailedFails(t *testing.T) {
	sms := newFakeSMS()
	sms.failAll = true
	router := newTestRouter(newFakeStore(), newFakeMirror(), &fakeQueue{}, sms, &fakePush{})

	_, err := router.Route(context.Background(), testReport(false))

	require.Error(t, err)
	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "DELIVERY_FAILED", serviceErr.Code)
}

func TestRouteOfflinePartialSMSStillDelivers(t *testing.T) {
	sms := newFakeSMS()
	sms.failNums["+919812345678"] = true
	queue := &fakeQueue{}
	router := newTestRouter(newFakeStore(), newFakeMirror(), queue, sms, &fakePush{})

	report := testReport(false)
	report.EmergencyContacts = append(report.EmergencyContacts,
		models.EmergencyContact{Name: "Meena", Phone: "+919800000000"})

	outcome, err := router.Route(context.Background(), report)

	require.NoError(t, err)
	assert.Equal(t, models.SMSStatusPartial, outcome.Report.SMSStatus)
	assert.True(t, outcome.Report.SMSSent)
}
