package usecases

import (
	"context"
	"log/slog"
	"time"

	"agente_gateway/internal/entities"
	"agente_gateway/internal/interfaces"
)

// Transport delivers replies back over the messaging channel.
type Transport interface {
	Send(ctx context.Context, to, text string) error
	Typing(ctx context.Context, to string)
}

// Limiter throttles inbound traffic per sender.
type Limiter interface {
	Allow(sender string) bool
}

// ChatService glues the messaging channel to the reply pipeline: rate
// limiting, per-session ordering, history bookkeeping and event fan-out.
type ChatService struct {
	orchestrator *Orchestrator
	history      *HistoryStore
	locks        *SessionLocks
	limiter      Limiter
	transport    Transport
	hub          interfaces.Broadcaster
	clientID     func() string
	logger       *slog.Logger
}

// NewChatService wires the message path. clientID yields the tenant key of
// the authenticated session and may return empty before authentication.
func NewChatService(
	orchestrator *Orchestrator,
	history *HistoryStore,
	locks *SessionLocks,
	limiter Limiter,
	transport Transport,
	hub interfaces.Broadcaster,
	clientID func() string,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		orchestrator: orchestrator,
		history:      history,
		locks:        locks,
		limiter:      limiter,
		transport:    transport,
		hub:          hub,
		clientID:     clientID,
		logger:       logger,
	}
}

// HandleMessage processes one inbound message end to end. Turns from the
// same sender are serialized; different senders run concurrently.
func (s *ChatService) HandleMessage(ctx context.Context, sender, text string) {
	if !s.limiter.Allow(sender) {
		s.logger.Warn("sender rate limited, dropping message", "sender", sender)
		return
	}

	tenantID := s.clientID()
	if tenantID == "" {
		s.logger.Warn("message received before authentication, dropping", "sender", sender)
		return
	}

	unlock := s.locks.Lock(sender)
	defer unlock()

	s.hub.Broadcast(entities.NewUserMessageEvent(sender, text))
	s.transport.Typing(ctx, sender)

	reply := s.orchestrator.Reply(ctx, entities.ChatRequest{
		Message:   text,
		SessionID: sender,
		ClientID:  tenantID,
		History:   s.history.Turns(sender),
	})

	if err := s.transport.Send(ctx, sender, reply); err != nil {
		s.logger.Error("failed to deliver reply", "sender", sender, "error", err)
		return
	}

	now := time.Now()
	s.history.Append(sender, entities.Turn{From: "user", Text: text, Timestamp: now})
	s.history.Append(sender, entities.Turn{From: "bot", Text: reply, Timestamp: now})
	s.hub.Broadcast(entities.NewBotReplyEvent(sender, reply))
}
