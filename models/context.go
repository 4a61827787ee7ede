package models

// ResolvedAddress is the best-effort output of reverse geocoding.
type ResolvedAddress struct {
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// ReportContext is the partial context the collector hands to the report
// builder. Every field may be empty; collection never fails outright.
type ReportContext struct {
	User     UserSnapshot
	Contacts []EmergencyContact
	Location *LocationFix
	Address  *ResolvedAddress
	Device   DeviceSnapshot
	IsOnline bool
}

// SegmentFilter targets responder/volunteer audiences by role and region
// tags.
type SegmentFilter struct {
	Role  string `json:"role,omitempty"`
	State string `json:"state,omitempty"`
}

// PushPayload is one notification as handed to the push sender.
type PushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}
