package entities

import "time"

// Turn is one entry of a conversation history, keyed by the remote party's
// address. History is supplied by the caller per request; the orchestrator is
// stateless between invocations.
type Turn struct {
	From      string    `json:"from"` // "bot" maps to the model role, anything else to user
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// ChatRequest is the orchestrator invocation contract.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
	History   []Turn `json:"history"`
}

// Intent is the classification of an inbound message, used to skip the
// retrieval branch when it is not needed.
type Intent string

const (
	IntentProduct  Intent = "PRODUCT_QUERY"
	IntentBusiness Intent = "BUSINESS_QUERY"
	IntentGreeting Intent = "GREETING"
)
