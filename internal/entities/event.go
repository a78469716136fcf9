package entities

import "encoding/json"

// EventType enumerates every broadcast event kind. The set is closed: the hub
// and its observers switch exhaustively on it instead of sniffing raw JSON.
type EventType string

const (
	EventQR            EventType = "qr"
	EventStatus        EventType = "status"
	EventAuthenticated EventType = "authenticated"
	EventDisconnected  EventType = "disconnected"
	EventUserMessage   EventType = "user-message"
	EventBotReply      EventType = "bot-reply"
	EventProfileUpdate EventType = "user-profile-update"
)

// AuthenticatedData carries the connected identity.
type AuthenticatedData struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// MessageData is the payload for user-message and bot-reply events.
// SessionID identifies the remote conversation partner so observers can
// filter; delivery itself is not tenant-scoped.
type MessageData struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	From      string `json:"from"`
}

// ProfileData is the payload of a user-profile-update event.
type ProfileData struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
}

// BroadcastEvent is the tagged union delivered to observers. Exactly one
// payload field is set, selected by Type. Events are ephemeral: never
// persisted, delivered at most once per currently connected observer.
type BroadcastEvent struct {
	Type          EventType
	QR            string
	Status        string
	Reason        string
	Authenticated *AuthenticatedData
	Message       *MessageData
	Profile       *ProfileData
}

// wireEvent is the on-the-wire envelope: { "type": ..., "data": ... }.
type wireEvent struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// MarshalJSON serializes the union into the {type, data} envelope the
// dashboards consume.
func (e BroadcastEvent) MarshalJSON() ([]byte, error) {
	w := wireEvent{Type: e.Type}
	switch e.Type {
	case EventQR:
		w.Data = e.QR
	case EventStatus:
		w.Data = e.Status
	case EventAuthenticated:
		w.Data = e.Authenticated
	case EventDisconnected:
		w.Data = e.Reason
	case EventUserMessage, EventBotReply:
		w.Data = e.Message
	case EventProfileUpdate:
		w.Data = e.Profile
	}
	return json.Marshal(w)
}

// NewQREvent wraps a pairing code.
func NewQREvent(code string) BroadcastEvent {
	return BroadcastEvent{Type: EventQR, QR: code}
}

// NewStatusEvent wraps a connection status string ("connected", ...).
func NewStatusEvent(status string) BroadcastEvent {
	return BroadcastEvent{Type: EventStatus, Status: status}
}

// NewAuthenticatedEvent wraps the connected identity.
func NewAuthenticatedEvent(name, number string) BroadcastEvent {
	return BroadcastEvent{Type: EventAuthenticated, Authenticated: &AuthenticatedData{Name: name, Number: number}}
}

// NewDisconnectedEvent wraps the disconnect reason.
func NewDisconnectedEvent(reason string) BroadcastEvent {
	return BroadcastEvent{Type: EventDisconnected, Reason: reason}
}

// NewUserMessageEvent wraps an inbound message from a remote party.
func NewUserMessageEvent(sessionID, text string) BroadcastEvent {
	return BroadcastEvent{Type: EventUserMessage, Message: &MessageData{SessionID: sessionID, Text: text, From: "user"}}
}

// NewBotReplyEvent wraps an outbound reply sent back over the session.
func NewBotReplyEvent(sessionID, text string) BroadcastEvent {
	return BroadcastEvent{Type: EventBotReply, Message: &MessageData{SessionID: sessionID, Text: text, From: "bot"}}
}

// NewProfileUpdateEvent wraps a push-name change for a remote party.
func NewProfileUpdateEvent(sessionID, name string) BroadcastEvent {
	return BroadcastEvent{Type: EventProfileUpdate, Profile: &ProfileData{SessionID: sessionID, Name: name}}
}

// ControlType enumerates control commands observers may send to the hub.
type ControlType string

const (
	ControlLogout        ControlType = "logout"
	ControlRequestStatus ControlType = "request_status"
)

// ControlMessage is the observer-to-hub wire shape. Unknown types are
// ignored, not errored.
type ControlMessage struct {
	Type ControlType `json:"type"`
}
