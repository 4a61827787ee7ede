package models

// WatchPhase is the client-observable phase of an SOS session: the
// pre-send countdown, the submit step, the active lifecycle and the
// terminal state.
type WatchPhase string

const (
	PhaseConfirming WatchPhase = "CONFIRMING"
	PhaseSubmitting WatchPhase = "SUBMITTING"
	PhaseActive     WatchPhase = "ACTIVE"
	PhaseResolved   WatchPhase = "RESOLVED"
	PhaseFailed     WatchPhase = "FAILED"
	PhaseIdle       WatchPhase = "IDLE"
)

// WatchEvent is one update pushed to a watching client.
type WatchEvent struct {
	Phase     WatchPhase       `json:"phase"`
	Status    ReportStatus     `json:"status,omitempty"`
	Countdown int              `json:"countdown,omitempty"`
	Message   string           `json:"message,omitempty"`
	Entry     *LiveStatusEntry `json:"entry,omitempty"`
	Canceled  bool             `json:"canceled,omitempty"`
}
