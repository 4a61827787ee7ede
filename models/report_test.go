package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmergencyTypeValidate(t *testing.T) {
	assert.NoError(t, EmergencyTypePolice.Validate())
	assert.NoError(t, EmergencyTypeFire.Validate())
	assert.NoError(t, EmergencyTypeMedical.Validate())
	assert.Error(t, EmergencyType("EARTHQUAKE").Validate())
	assert.Error(t, EmergencyType("").Validate())
}

func TestStatusOrdering(t *testing.T) {
	assert.True(t, StatusPending.Rank() < StatusReceived.Rank())
	assert.True(t, StatusReceived.Rank() < StatusResponding.Rank())
	assert.True(t, StatusResponding.Rank() < StatusResolved.Rank())
}

func TestStatusTransitions(t *testing.T) {
	// Forward moves and idempotent re-application are allowed.
	assert.True(t, StatusPending.CanTransitionTo(StatusReceived))
	assert.True(t, StatusPending.CanTransitionTo(StatusResolved))
	assert.True(t, StatusReceived.CanTransitionTo(StatusReceived))

	// Backward moves are not.
	assert.False(t, StatusResolved.CanTransitionTo(StatusResponding))
	assert.False(t, StatusResponding.CanTransitionTo(StatusPending))

	// Unknown statuses never transition.
	assert.False(t, ReportStatus("UNKNOWN").CanTransitionTo(StatusResolved))
	assert.False(t, StatusPending.CanTransitionTo(ReportStatus("UNKNOWN")))
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusResolved.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusReceived.Terminal())
	assert.False(t, StatusResponding.Terminal())
}

func TestStatusesBelow(t *testing.T) {
	below := StatusesBelow(StatusResponding)
	assert.ElementsMatch(t, []ReportStatus{StatusPending, StatusReceived, StatusResponding}, below)

	assert.ElementsMatch(t, []ReportStatus{StatusPending}, StatusesBelow(StatusPending))
	assert.Len(t, StatusesBelow(StatusResolved), 4)
}

func TestCanceled(t *testing.T) {
	report := &SOSReport{Status: StatusResolved}
	assert.False(t, report.Canceled(), "resolution without cancellation info is a responder resolution")

	report.Cancellation = &CancellationInfo{CancelledBy: "user-1", CancelledAt: time.Now()}
	assert.True(t, report.Canceled())

	report.Status = StatusResponding
	assert.False(t, report.Canceled(), "cancellation info only counts on a resolved report")
}

func TestProjection(t *testing.T) {
	now := time.Now()
	report := &SOSReport{
		ReportID:      "sos_abc",
		UserID:        "user-1",
		EmergencyType: EmergencyTypeFire,
		Status:        StatusReceived,
		State:         "karnataka",
		Location:      &LocationFix{Latitude: 12.97, Longitude: 77.59},
		Timestamp:     now,
	}

	entry := report.Projection()

	assert.Equal(t, "sos_abc", entry.ReportID)
	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, EmergencyTypeFire, entry.EmergencyType)
	assert.Equal(t, StatusReceived, entry.Status)
	assert.Equal(t, 12.97, entry.Latitude)
	assert.Equal(t, 77.59, entry.Longitude)
	assert.Equal(t, now, entry.Timestamp)
	require.False(t, entry.UpdatedAt.IsZero())
}

func TestProjectionWithoutLocation(t *testing.T) {
	report := &SOSReport{ReportID: "sos_abc", Status: StatusPending}

	entry := report.Projection()

	assert.Zero(t, entry.Latitude)
	assert.Zero(t, entry.Longitude)
}
