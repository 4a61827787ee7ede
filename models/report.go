package models

import (
	"fmt"
	"time"
)

// EmergencyType classifies an SOS report. The set is closed; anything else
// is rejected at construction time.
type EmergencyType string

const (
	EmergencyTypePolice  EmergencyType = "POLICE"
	EmergencyTypeFire    EmergencyType = "FIRE"
	EmergencyTypeMedical EmergencyType = "MEDICAL"
)

func (t EmergencyType) Validate() error {
	switch t {
	case EmergencyTypePolice, EmergencyTypeFire, EmergencyTypeMedical:
		return nil
	}
	return fmt.Errorf("invalid emergency type: %q", string(t))
}

// ReportStatus is the lifecycle state of a report. Transitions are strictly
// forward: PENDING < RECEIVED < RESPONDING < RESOLVED.
type ReportStatus string

const (
	StatusPending    ReportStatus = "PENDING"
	StatusReceived   ReportStatus = "RECEIVED"
	StatusResponding ReportStatus = "RESPONDING"
	StatusResolved   ReportStatus = "RESOLVED"
)

// statusRank orders lifecycle states for the monotonicity check.
var statusRank = map[ReportStatus]int{
	StatusPending:    0,
	StatusReceived:   1,
	StatusResponding: 2,
	StatusResolved:   3,
}

func (s ReportStatus) Validate() error {
	if _, ok := statusRank[s]; !ok {
		return fmt.Errorf("invalid report status: %q", string(s))
	}
	return nil
}

// Rank returns the position of the status in the lifecycle ordering.
func (s ReportStatus) Rank() int {
	return statusRank[s]
}

// CanTransitionTo reports whether moving from s to next preserves the
// forward-only lifecycle. Idempotent re-application of the same status is
// allowed so retried updates do not fail.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	sr, ok1 := statusRank[s]
	nr, ok2 := statusRank[next]
	if !ok1 || !ok2 {
		return false
	}
	return nr >= sr
}

// Terminal reports whether the status ends the report lifecycle.
func (s ReportStatus) Terminal() bool {
	return s == StatusResolved
}

// StatusesBelow returns every status ranked lower than or equal to s.
// Used to build conditional-update filters that enforce monotonicity.
func StatusesBelow(s ReportStatus) []ReportStatus {
	out := make([]ReportStatus, 0, len(statusRank))
	for st, rank := range statusRank {
		if rank <= statusRank[s] {
			out = append(out, st)
		}
	}
	return out
}

// SMSStatus is the aggregate outcome of the emergency-contact SMS step.
type SMSStatus string

const (
	SMSStatusPending   SMSStatus = "PENDING"
	SMSStatusSent      SMSStatus = "SENT"
	SMSStatusDelivered SMSStatus = "DELIVERED"
	SMSStatusFailed    SMSStatus = "FAILED"
	SMSStatusPartial   SMSStatus = "PARTIAL"
)

// SOSReport is the record representing one emergency trigger event. Built
// once by the report builder; only the persistence, notification and status
// layers mutate it afterwards.
type SOSReport struct {
	ReportID string `json:"reportId" bson:"_id"`

	EmergencyType EmergencyType `json:"emergencyType" bson:"emergencyType"`

	// Reporter identity and a point-in-time snapshot of profile fields.
	// Deliberately a copy: later profile edits must not rewrite history.
	UserID   string       `json:"userId" bson:"userId"`
	UserInfo UserSnapshot `json:"userInfo" bson:"userInfo"`

	Location *LocationFix `json:"location,omitempty" bson:"location,omitempty"`
	Address  string       `json:"address,omitempty" bson:"address,omitempty"`
	City     string       `json:"city,omitempty" bson:"city,omitempty"`
	State    string       `json:"state,omitempty" bson:"state,omitempty"`

	Device DeviceSnapshot `json:"device" bson:"device"`

	// Copied by value at collection time, ordered, primary first.
	EmergencyContacts []EmergencyContact `json:"emergencyContacts,omitempty" bson:"emergencyContacts,omitempty"`

	// Never empty once the report is built: the resolver guarantees at
	// least a synthetic fallback entry.
	NearbyServices []EmergencyService `json:"nearbyServices,omitempty" bson:"nearbyServices,omitempty"`

	// Delivery channel, decided once at creation and never re-evaluated
	// mid-flight. SyncedAt is set when an offline-path report is replayed
	// into the cloud stores; IsOnline keeps recording the original path.
	IsOnline  bool       `json:"isOnline" bson:"isOnline"`
	SMSSent   bool       `json:"smsSent" bson:"smsSent"`
	SMSStatus SMSStatus  `json:"smsStatus" bson:"smsStatus"`
	SyncedAt  *time.Time `json:"syncedAt,omitempty" bson:"syncedAt,omitempty"`

	Status          ReportStatus      `json:"status" bson:"status"`
	ResponderInfo   map[string]string `json:"responderInfo,omitempty" bson:"responderInfo,omitempty"`
	Cancellation    *CancellationInfo `json:"cancellationInfo,omitempty" bson:"cancellationInfo,omitempty"`
	Timestamp       time.Time         `json:"timestamp" bson:"timestamp"`
	StatusUpdatedAt time.Time         `json:"statusUpdatedAt" bson:"statusUpdatedAt"`
	UpdatedAt       time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Canceled reports whether the report was resolved by user cancellation
// rather than by a responder.
func (r *SOSReport) Canceled() bool {
	return r.Status == StatusResolved && r.Cancellation != nil
}

// UserSnapshot is the reporter profile captured at report time.
type UserSnapshot struct {
	FirstName   string `json:"firstName" bson:"firstName"`
	LastName    string `json:"lastName" bson:"lastName"`
	FullName    string `json:"fullName" bson:"fullName"`
	PhoneNumber string `json:"phoneNumber" bson:"phoneNumber"`
	State       string `json:"state,omitempty" bson:"state,omitempty"`
}

// LocationFix is a geographic point with accuracy, as produced by the
// location provider. Address fields live on the report itself because
// geocoding is a separate best-effort step.
type LocationFix struct {
	Latitude  float64   `json:"latitude" bson:"latitude"`
	Longitude float64   `json:"longitude" bson:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
}

// DeviceSnapshot carries responder context only; nothing in the pipeline
// branches on these fields.
type DeviceSnapshot struct {
	BatteryLevel    int     `json:"batteryLevel,omitempty" bson:"batteryLevel,omitempty"`
	BatteryCharging bool    `json:"batteryCharging,omitempty" bson:"batteryCharging,omitempty"`
	NetworkType     string  `json:"networkType,omitempty" bson:"networkType,omitempty"`
	LowMemory       bool    `json:"lowMemory,omitempty" bson:"lowMemory,omitempty"`
	MemoryUsedPct   float64 `json:"memoryUsedPct,omitempty" bson:"memoryUsedPct,omitempty"`
	UptimeSeconds   uint64  `json:"uptimeSeconds,omitempty" bson:"uptimeSeconds,omitempty"`
	Metadata        string  `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// EmergencyContact is a value record embedded into a report at collection
// time. Copy semantics: editing a stored contact never mutates past reports.
type EmergencyContact struct {
	Name         string `json:"name" bson:"name"`
	Phone        string `json:"phone" bson:"phone"`
	Relationship string `json:"relationship,omitempty" bson:"relationship,omitempty"`
	IsPrimary    bool   `json:"isPrimary" bson:"isPrimary"`
}

// EmergencyService is a resolved nearby service, or the synthetic fallback
// entry carrying the regional toll-free number.
type EmergencyService struct {
	Name         string  `json:"name" bson:"name"`
	Phone        string  `json:"phone,omitempty" bson:"phone,omitempty"`
	TollFree     string  `json:"tollFree,omitempty" bson:"tollFree,omitempty"`
	Address      string  `json:"address,omitempty" bson:"address,omitempty"`
	DistanceKM   float64 `json:"distanceKm,omitempty" bson:"distanceKm,omitempty"`
	IsFallback   bool    `json:"isFallback,omitempty" bson:"isFallback,omitempty"`
}

// CancellationInfo records a user-initiated cancellation. Cancellation is a
// transition into RESOLVED carrying this metadata, not a separate status.
type CancellationInfo struct {
	CancelledBy string    `json:"cancelledBy" bson:"cancelledBy"`
	CancelledAt time.Time `json:"cancelledAt" bson:"cancelledAt"`
	Reason      string    `json:"reason,omitempty" bson:"reason,omitempty"`
}

// LiveStatusEntry is the reduced projection mirrored into the low-latency
// store for real-time status watching.
type LiveStatusEntry struct {
	ReportID      string        `json:"reportId"`
	UserID        string        `json:"userId"`
	EmergencyType EmergencyType `json:"emergencyType"`
	Status        ReportStatus  `json:"status"`
	Latitude      float64       `json:"latitude,omitempty"`
	Longitude     float64       `json:"longitude,omitempty"`
	State         string        `json:"state,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Projection builds the live-status entry for a report.
func (r *SOSReport) Projection() LiveStatusEntry {
	entry := LiveStatusEntry{
		ReportID:      r.ReportID,
		UserID:        r.UserID,
		EmergencyType: r.EmergencyType,
		Status:        r.Status,
		State:         r.State,
		Timestamp:     r.Timestamp,
		UpdatedAt:     time.Now(),
	}
	if r.Location != nil {
		entry.Latitude = r.Location.Latitude
		entry.Longitude = r.Location.Longitude
	}
	return entry
}

// HistoryEntry is one record in the per-user historical index.
type HistoryEntry struct {
	ReportID      string        `json:"reportId" bson:"reportId"`
	EmergencyType EmergencyType `json:"emergencyType" bson:"emergencyType"`
	Status        ReportStatus  `json:"status" bson:"status"`
	Timestamp     time.Time     `json:"timestamp" bson:"timestamp"`
}

// ReportComment is a responder or citizen comment attached to a report.
type ReportComment struct {
	ID        string    `json:"id" bson:"_id"`
	ReportID  string    `json:"reportId" bson:"reportId"`
	AuthorID  string    `json:"authorId" bson:"authorId"`
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// =================== REQUEST/RESPONSE MODELS ===================

type TriggerSOSRequest struct {
	EmergencyType string `json:"emergencyType" validate:"required,emergency_type"`
	Message       string `json:"message,omitempty"`

	// Device-reported context. Every field is optional: when absent the
	// collector falls back to the server-side caches and probes.
	Location *LocationFix    `json:"location,omitempty"`
	Device   *DeviceSnapshot `json:"device,omitempty"`
	IsOnline *bool           `json:"isOnline,omitempty"`
}

type CancelSOSRequest struct {
	Reason string `json:"reason,omitempty"`
}

type AddCommentRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=1000"`
}

type UpdateStatusRequest struct {
	Status        string            `json:"status" validate:"required,report_status"`
	ResponderInfo map[string]string `json:"responderInfo,omitempty"`
}

// ProcessingOutcome is what the delivery router reports back to the caller.
type ProcessingOutcome struct {
	Report    *SOSReport `json:"report"`
	Delivered bool       `json:"delivered"`
	Channel   string     `json:"channel"` // "online" or "offline"
	Message   string     `json:"message,omitempty"`
}
