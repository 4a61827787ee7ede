package services

import (
	"context"
	"testing"

	"rescuereach/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector(location *fakeLocation) *CollectorService {
	device := &fakeDevice{online: true}
	session := &fakeSession{
		user: &models.UserSnapshot{FullName: "Asha Rao", PhoneNumber: "+919876543210", State: "karnataka"},
	}
	return NewCollectorService(location, &fakeGeocoder{}, device, device, session, testConfig())
}

func TestCollectPrefersClientLocation(t *testing.T) {
	collector := newTestCollector(&fakeLocation{fix: &models.LocationFix{Latitude: 1, Longitude: 1}})

	out := collector.Collect(context.Background(), "user-1", &models.TriggerSOSRequest{
		EmergencyType: "MEDICAL",
		Location:      &models.LocationFix{Latitude: 12.97, Longitude: 77.59},
	})

	require.NotNil(t, out.Location)
	assert.Equal(t, 12.97, out.Location.Latitude)
}

func TestCollectRejectsOutOfRangeCoordinates(t *testing.T) {
	// Both the client-supplied fix and the provider fixes are garbage; the
	// report goes out without a location rather than with a bogus one.
	collector := newTestCollector(&fakeLocation{fix: &models.LocationFix{Latitude: 95, Longitude: 200}})

	out := collector.Collect(context.Background(), "user-1", &models.TriggerSOSRequest{
		EmergencyType: "MEDICAL",
		Location:      &models.LocationFix{Latitude: 91, Longitude: 0},
	})

	assert.Nil(t, out.Location)
}

func TestCollectNoLocationAtAll(t *testing.T) {
	collector := newTestCollector(&fakeLocation{})

	out := collector.Collect(context.Background(), "user-1", &models.TriggerSOSRequest{EmergencyType: "FIRE"})

	assert.Nil(t, out.Location)
	assert.Equal(t, "Asha Rao", out.User.FullName)
}
