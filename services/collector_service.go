package services

import (
	"context"

	"rescuereach/config"
	"rescuereach/interfaces"
	"rescuereach/models"
	"rescuereach/utils"

	"github.com/sirupsen/logrus"
)

// CollectorService assembles the ephemeral context a report needs: user
// snapshot, contacts, location, address, device state, connectivity. Every
// step degrades to an empty field instead of failing; an SOS is never
// blocked by a missing input.
type CollectorService struct {
	location     interfaces.LocationProvider
	geocoder     interfaces.Geocoder
	device       interfaces.DeviceProbe
	connectivity interfaces.ConnectivityChecker
	session      interfaces.SessionStore
	cfg          *config.Config
}

func NewCollectorService(
	location interfaces.LocationProvider,
	geocoder interfaces.Geocoder,
	device interfaces.DeviceProbe,
	connectivity interfaces.ConnectivityChecker,
	session interfaces.SessionStore,
	cfg *config.Config,
) *CollectorService {
	return &CollectorService{
		location:     location,
		geocoder:     geocoder,
		device:       device,
		connectivity: connectivity,
		session:      session,
		cfg:          cfg,
	}
}

// Collect gathers report context for a user. Total: always returns a
// context, possibly with empty fields.
func (cs *CollectorService) Collect(ctx context.Context, userID string, req *models.TriggerSOSRequest) *models.ReportContext {
	out := &models.ReportContext{}

	if user, err := cs.session.CurrentUser(ctx, userID); err != nil {
		logrus.Warnf("SOS collect: user snapshot unavailable for %s: %v", userID, err)
	} else {
		out.User = *user
	}

	if contacts, err := cs.session.EmergencyContacts(ctx, userID); err != nil {
		// Missing contacts only affect SMS viability downstream.
		logrus.Warnf("SOS collect: emergency contacts unavailable for %s: %v", userID, err)
	} else {
		out.Contacts = contacts
	}

	out.Location = cs.collectLocation(ctx, userID, req)

	if out.Location != nil {
		out.Address = cs.resolveAddress(ctx, out.Location)
	}

	if req != nil && req.Device != nil {
		out.Device = *req.Device
	} else {
		out.Device = cs.device.Snapshot()
	}

	if req != nil && req.IsOnline != nil {
		out.IsOnline = *req.IsOnline
	} else {
		out.IsOnline = cs.connectivity.IsOnline(ctx)
	}

	return out
}

// collectLocation prefers the device-reported fix, then waits briefly for a
// fresh one, then takes whatever stale fix is cached. A nil result is valid;
// a fix with out-of-range coordinates counts as no fix.
func (cs *CollectorService) collectLocation(ctx context.Context, userID string, req *models.TriggerSOSRequest) *models.LocationFix {
	if req != nil && req.Location != nil {
		if utils.IsValidCoordinate(req.Location.Latitude, req.Location.Longitude) {
			return req.Location
		}
		logrus.Warnf("SOS collect: rejecting invalid client coordinates for %s", userID)
	}

	fix, err := cs.location.GetCurrentLocation(ctx, userID, cs.cfg.LocationTimeout)
	if err == nil && validFix(fix) {
		return fix
	}
	if err != nil {
		logrus.Warnf("SOS collect: no fresh location for %s: %v", userID, err)
	}

	fix, err = cs.location.GetLastKnown(ctx, userID)
	if err != nil {
		logrus.Warnf("SOS collect: last-known location failed for %s: %v", userID, err)
		return nil
	}
	if !validFix(fix) {
		return nil
	}
	return fix
}

func validFix(fix *models.LocationFix) bool {
	return fix != nil && utils.IsValidCoordinate(fix.Latitude, fix.Longitude)
}

func (cs *CollectorService) resolveAddress(ctx context.Context, fix *models.LocationFix) *models.ResolvedAddress {
	gctx, cancel := context.WithTimeout(ctx, cs.cfg.GeocodeTimeout)
	defer cancel()

	address, err := cs.geocoder.ReverseGeocode(gctx, fix.Latitude, fix.Longitude)
	if err != nil {
		logrus.Debugf("SOS collect: reverse geocode failed: %v", err)
		return nil
	}
	return address
}
