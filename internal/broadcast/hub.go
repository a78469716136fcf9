// Package broadcast fans connection events out to dashboard observers and
// routes their control commands back to the session lifecycle.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"agente_gateway/internal/entities"
)

// Observer receives serialized events. Implementations must tolerate being
// called from the broadcasting goroutine.
type Observer interface {
	Deliver(data []byte) error
}

// Lifecycle is the slice of the connection manager the hub needs for control
// commands.
type Lifecycle interface {
	Logout(ctx context.Context) error
	LastQR() string
}

// Hub maintains the observer set. Events are serialized once and delivered to
// every observer in subscription order; a failing observer is dropped.
type Hub struct {
	mu        sync.Mutex
	observers []Observer
	lifecycle Lifecycle
	logger    *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{logger: logger}
}

// SetLifecycle wires the connection manager in after construction, since the
// connection also needs the hub as its event sink.
func (h *Hub) SetLifecycle(l Lifecycle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lifecycle = l
}

// Subscribe adds an observer. Events emitted before subscription are not
// replayed; a pending pairing code must be requested with request_status.
func (h *Hub) Subscribe(obs Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, obs)
}

// Unsubscribe removes an observer. Safe to call for an already removed one.
func (h *Hub) Unsubscribe(obs Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, o := range h.observers {
		if o == obs {
			h.observers = append(h.observers[:i], h.observers[i+1:]...)
			return
		}
	}
}

// Broadcast serializes the event once and delivers it to all observers.
func (h *Hub) Broadcast(evt entities.BroadcastEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("failed to serialize broadcast event", "type", evt.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	var failed []Observer
	for _, obs := range h.observers {
		if err := obs.Deliver(data); err != nil {
			failed = append(failed, obs)
		}
	}
	for _, obs := range failed {
		for i, o := range h.observers {
			if o == obs {
				h.observers = append(h.observers[:i], h.observers[i+1:]...)
				break
			}
		}
	}
}

// HandleControl processes one observer-to-hub command. Unknown command types
// are ignored.
func (h *Hub) HandleControl(ctx context.Context, obs Observer, raw []byte) {
	var msg entities.ControlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Warn("unparseable control message", "error", err)
		return
	}

	h.mu.Lock()
	lifecycle := h.lifecycle
	h.mu.Unlock()
	if lifecycle == nil {
		return
	}

	switch msg.Type {
	case entities.ControlLogout:
		h.logger.Info("logout requested by observer")
		if err := lifecycle.Logout(ctx); err != nil {
			h.logger.Error("logout failed", "error", err)
		}
	case entities.ControlRequestStatus:
		// Resend only to the requester, and only while the code is current.
		if qr := lifecycle.LastQR(); qr != "" {
			h.deliverTo(obs, entities.NewQREvent(qr))
		}
	default:
		h.logger.Debug("ignoring unknown control type", "type", msg.Type)
	}
}

func (h *Hub) deliverTo(obs Observer, evt entities.BroadcastEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := obs.Deliver(data); err != nil {
		h.Unsubscribe(obs)
	}
}
