package domain

import "encoding/json"

// EventName realtime channel event
type EventName string

const (
	// EventJoin outbound, register presence after connect
	EventJoin EventName = "join"
	// EventPresenceUpdate inbound, wholesale replace of the online user set
	EventPresenceUpdate EventName = "presence-update"
	// EventSendMessage outbound, best-effort fan-out after a successful REST send
	EventSendMessage EventName = "send-message"
	// EventMessageReceived inbound, new message pushed by the server
	EventMessageReceived EventName = "message-received"
)

// Envelope realtime wire frame
type Envelope struct {
	Event   EventName       `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload join event payload
type JoinPayload struct {
	UserID   string `json:"userId"`
	UserType Role   `json:"userType"`
}

// PresenceUser presence-update event entry
type PresenceUser struct {
	UserID string `json:"userId"`
}
