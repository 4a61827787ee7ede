package interfaces

import (
	"context"
	"rescuereach/models"
	"time"
)

// Contracts the SOS pipeline consumes from collaborators that live outside
// this service (device platform, cloud stores, push/SMS gateways). Concrete
// implementations are wired in main; tests substitute fakes.

// LocationProvider yields the freshest known position for a user.
// GetCurrentLocation waits up to timeout for a recent fix; GetLastKnown
// never blocks and returns whatever is cached, however stale.
type LocationProvider interface {
	GetCurrentLocation(ctx context.Context, userID string, timeout time.Duration) (*models.LocationFix, error)
	GetLastKnown(ctx context.Context, userID string) (*models.LocationFix, error)
}

// Geocoder resolves coordinates to a postal address. Best effort only.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*models.ResolvedAddress, error)
}

// PlacesIndex finds nearby emergency services by category.
type PlacesIndex interface {
	FindNearby(ctx context.Context, category string, lat, lng float64, radiusMeters, limit int) ([]models.EmergencyService, error)
}

// DeviceProbe reports local device state. No network calls, no error path
// beyond zero-valued fields.
type DeviceProbe interface {
	Snapshot() models.DeviceSnapshot
}

// ConnectivityChecker answers whether the online delivery path is worth
// attempting. Evaluated once per report, at creation.
type ConnectivityChecker interface {
	IsOnline(ctx context.Context) bool
}

// SessionStore is a read-only snapshot of the current user: identity,
// profile fields and the stored emergency contacts.
type SessionStore interface {
	CurrentUser(ctx context.Context, userID string) (*models.UserSnapshot, error)
	EmergencyContacts(ctx context.Context, userID string) ([]models.EmergencyContact, error)
}

// PushSender dispatches responder-facing and reporter-facing notifications.
type PushSender interface {
	SendToSegment(ctx context.Context, filter models.SegmentFilter, payload models.PushPayload) error
	SendToExternalID(ctx context.Context, externalID string, payload models.PushPayload) error
}

// SMSSender sends a single message to one number. Long bodies are split by
// the caller via utils.SplitSMS.
type SMSSender interface {
	Send(ctx context.Context, phoneNumber, body string) error
}

// ReportStore is the durable primary store for SOS reports plus the
// per-user historical index.
type ReportStore interface {
	SaveReport(ctx context.Context, report *models.SOSReport) (*models.SOSReport, error)
	UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus, responderInfo map[string]string, cancellation *models.CancellationInfo) error
	GetReportByID(ctx context.Context, reportID string) (*models.SOSReport, error)
	GetUserReports(ctx context.Context, userID string, limit int) ([]models.SOSReport, error)
	GetActiveReportsByRegion(ctx context.Context, state string, limit int) ([]models.SOSReport, error)
	DeleteReport(ctx context.Context, reportID string) error
	AddComment(ctx context.Context, comment *models.ReportComment) error
	GetComments(ctx context.Context, reportID string) ([]models.ReportComment, error)
}

// StatusMirror is the low-latency live-status projection. Writes are best
// effort: a mirror failure never fails the primary operation.
type StatusMirror interface {
	Put(ctx context.Context, entry models.LiveStatusEntry) error
	Remove(ctx context.Context, reportID string) error
	Get(ctx context.Context, reportID string) (*models.LiveStatusEntry, error)
	// Subscribe delivers projection updates for one report until the
	// returned stop function is called. Teardown is mandatory.
	Subscribe(ctx context.Context, reportID string) (<-chan models.LiveStatusEntry, func(), error)
}

// PointerStore holds the per-user "active SOS" pointer so a relaunched
// client can resume watching its in-flight report.
type PointerStore interface {
	// Acquire sets the pointer iff none exists; returns false when the
	// user already has an active report (its id is returned).
	Acquire(ctx context.Context, userID, reportID string) (bool, string, error)
	Get(ctx context.Context, userID string) (string, error)
	Clear(ctx context.Context, userID string) error
}

// SyncQueue buffers offline-path reports for automatic re-delivery once
// connectivity returns. A queued report is the only record of an offline
// emergency until the sync worker replays it, so it must stay addressable:
// Find answers active-report lookups and Remove services pre-sync
// cancellation. Both return nil when the report is not queued.
type SyncQueue interface {
	Enqueue(ctx context.Context, report *models.SOSReport) error
	Dequeue(ctx context.Context) (*models.SOSReport, error)
	Find(ctx context.Context, reportID string) (*models.SOSReport, error)
	Remove(ctx context.Context, reportID string) error
}
