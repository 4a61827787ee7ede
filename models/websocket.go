package models

import (
	"encoding/json"
	"time"
)

// WebSocket message types, client → server.
const (
	WSRequestAuth           = "auth"
	WSRequestTriggerSOS     = "sos_trigger"
	WSRequestCancelSOS      = "sos_cancel"
	WSRequestWatchSOS       = "sos_watch"
	WSRequestLocationUpdate = "location_update"
	WSRequestPing           = "ping"
)

// WebSocket message types, server → client.
const (
	WSTypeAuthResult = "auth_result"
	WSTypeSOSEvent   = "sos_event"
	WSTypeError      = "error"
	WSTypePong       = "pong"
)

// WebSocket error codes.
const (
	WSErrorInvalidMessage = "INVALID_MESSAGE"
	WSErrorUnauthorized   = "UNAUTHORIZED"
	WSErrorSOSFailed      = "SOS_FAILED"
)

// WSRequest is one inbound client frame.
type WSRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WSMessage is one outbound server frame.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// WSError is the payload of an error frame.
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WSAuthRequest carries the JWT on the auth frame.
type WSAuthRequest struct {
	Token string `json:"token"`
}

// WSLocationUpdate is a position ping from the client.
type WSLocationUpdate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}
