package infrastructure

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"

	"agente_gateway/internal/entities"
)

// EventSink receives lifecycle and traffic events for fan-out to observers.
type EventSink interface {
	Broadcast(evt entities.BroadcastEvent)
}

// MessageHandler is invoked for every inbound text message.
type MessageHandler func(ctx context.Context, sender, text string)

// socketEvent classifies what the underlying socket just reported.
type socketEvent int

const (
	evQR socketEvent = iota
	evOpen
	evClose
	evLoggedOut
)

// nextState is the lifecycle transition table. It is pure so the reconnect
// policy can be checked without a live socket.
func nextState(current entities.ConnectionState, evt socketEvent, retryCount, maxRetries int) entities.ConnectionState {
	// Terminal states only move on an explicit restart.
	if current == entities.StateClosedTerminal {
		return current
	}

	switch evt {
	case evQR:
		return entities.StateQRPending
	case evOpen:
		return entities.StateAuthenticated
	case evClose:
		if retryCount >= maxRetries {
			return entities.StateClosedTerminal
		}
		return entities.StateClosedRecoverable
	case evLoggedOut:
		return entities.StateClosedTerminal
	}
	return current
}

// Connection owns a single WhatsApp session: its state machine, the last
// pairing code, and the bounded reconnect loop. All mutable fields are
// guarded by mu; reconnect attempts are sequential, never concurrent.
type Connection struct {
	client     *WhatsAppClient
	sink       EventSink
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
	onMessage  MessageHandler
	dial       func(ctx context.Context) error

	mu         sync.Mutex
	state      entities.ConnectionState
	lastQR     string
	retryCount int
	number     string
	name       string
	retrying   bool
}

func NewConnection(client *WhatsAppClient, sink EventSink, logger *slog.Logger, maxRetries int, retryDelay time.Duration) *Connection {
	c := &Connection{
		client:     client,
		sink:       sink,
		logger:     logger,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		state:      entities.StateUninitialized,
	}
	c.dial = c.connect
	return c
}

// SetMessageHandler registers the inbound-message callback. Must be called
// before Start.
func (c *Connection) SetMessageHandler(h MessageHandler) {
	c.onMessage = h
}

// Start registers the event handler and opens the socket.
func (c *Connection) Start(ctx context.Context) error {
	c.client.AddHandler(func(evt interface{}) {
		c.handleEvent(ctx, evt)
	})
	return c.connect(ctx)
}

func (c *Connection) connect(ctx context.Context) error {
	c.mu.Lock()
	if c.client.IsLoggedIn() {
		c.state = entities.StateAuthenticating
	} else {
		c.state = entities.StateQRPending
	}
	c.mu.Unlock()

	qrChan, err := c.client.Connect(ctx)
	if err != nil {
		return err
	}
	if qrChan != nil {
		go c.drainQR(qrChan)
	}
	return nil
}

func (c *Connection) drainQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			c.mu.Lock()
			c.state = nextState(c.state, evQR, c.retryCount, c.maxRetries)
			c.lastQR = evt.Code
			c.mu.Unlock()
			c.logger.Info("pairing code issued")
			c.sink.Broadcast(entities.NewQREvent(evt.Code))
		case "success":
			// Connected event carries the authenticated transition.
		default:
			c.logger.Info("pairing channel event", "event", evt.Event)
		}
	}
}

func (c *Connection) handleEvent(ctx context.Context, rawEvt interface{}) {
	switch evt := rawEvt.(type) {
	case *events.Connected:
		c.handleConnected()
	case *events.Disconnected:
		c.handleDisconnected(ctx)
	case *events.LoggedOut:
		c.handleLoggedOut()
	case *events.PushName:
		c.handlePushName(evt)
	case *events.Message:
		c.handleMessage(ctx, evt)
	}
}

func (c *Connection) handleConnected() {
	number, name := c.client.Identity()

	c.mu.Lock()
	c.state = nextState(c.state, evOpen, c.retryCount, c.maxRetries)
	c.retryCount = 0
	c.lastQR = "" // pairing code is superseded once authenticated
	c.number = number
	c.name = name
	c.mu.Unlock()

	c.logger.Info("session authenticated", "number", number, "name", name)
	c.sink.Broadcast(entities.NewStatusEvent("connected"))
	c.sink.Broadcast(entities.NewAuthenticatedEvent(name, number))
}

func (c *Connection) handleDisconnected(ctx context.Context) {
	c.mu.Lock()
	if c.state == entities.StateClosedTerminal {
		c.mu.Unlock()
		return
	}
	c.state = nextState(c.state, evClose, c.retryCount, c.maxRetries)
	if c.state == entities.StateClosedTerminal {
		c.mu.Unlock()
		c.logger.Warn("reconnect budget exhausted", "attempts", c.retryCount)
		c.sink.Broadcast(entities.NewDisconnectedEvent("terminal"))
		return
	}
	if c.retrying {
		c.mu.Unlock()
		return
	}
	c.retryCount++
	c.retrying = true
	attempt := c.retryCount
	c.mu.Unlock()

	c.logger.Warn("connection lost, scheduling reconnect", "attempt", attempt, "max", c.maxRetries)
	c.sink.Broadcast(entities.NewDisconnectedEvent("recoverable"))

	go func() {
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			c.mu.Lock()
			c.retrying = false
			c.mu.Unlock()
			return
		}
		c.mu.Lock()
		c.retrying = false
		terminal := c.state == entities.StateClosedTerminal
		c.mu.Unlock()
		if terminal {
			return
		}
		if err := c.dial(ctx); err != nil {
			// A failed dial consumes the attempt and re-enters the close
			// path, so retries continue until the budget is spent.
			c.logger.Error("reconnect failed", "attempt", attempt, "error", err)
			c.handleDisconnected(ctx)
		}
	}()
}

func (c *Connection) handleLoggedOut() {
	c.mu.Lock()
	c.state = nextState(c.state, evLoggedOut, c.retryCount, c.maxRetries)
	c.lastQR = ""
	c.number = ""
	c.name = ""
	c.mu.Unlock()

	c.logger.Warn("session logged out remotely")
	c.sink.Broadcast(entities.NewDisconnectedEvent("logged_out"))
}

func (c *Connection) handlePushName(evt *events.PushName) {
	number, name := c.client.Identity()
	if name == "" {
		name = evt.NewPushName
	}
	c.mu.Lock()
	c.name = name
	sessionID := c.number
	if sessionID == "" {
		sessionID = number
	}
	c.mu.Unlock()
	c.sink.Broadcast(entities.NewProfileUpdateEvent(sessionID, name))
}

func (c *Connection) handleMessage(ctx context.Context, evt *events.Message) {
	if evt.Info.IsFromMe || evt.Info.IsGroup {
		return
	}
	sender, text := c.client.ParseMessage(evt)
	if text == "" || c.onMessage == nil {
		return
	}
	go c.onMessage(ctx, sender, text)
}

// Logout tears down the current credentials and begins a fresh pairing.
func (c *Connection) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.state = entities.StateClosedTerminal
	c.lastQR = ""
	c.number = ""
	c.name = ""
	c.mu.Unlock()

	c.sink.Broadcast(entities.NewDisconnectedEvent("logged_out"))

	if err := c.client.Logout(ctx); err != nil {
		c.logger.Error("logout failed", "error", err)
	}
	c.client.Disconnect()

	// Restart from a clean slate so a new QR can be issued.
	c.mu.Lock()
	c.state = entities.StateUninitialized
	c.retryCount = 0
	c.mu.Unlock()
	return c.connect(ctx)
}

// LastQR returns the current pairing code, or empty once authenticated.
func (c *Connection) LastQR() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQR
}

// RetryCount reports reconnect attempts consumed since the socket last opened.
func (c *Connection) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryCount
}

// Status reports the lifecycle state with the authenticated identity, if any.
func (c *Connection) Status() (entities.ConnectionState, string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.number, c.name
}

// Send delivers a text message over the active session.
func (c *Connection) Send(ctx context.Context, to, text string) error {
	return c.client.SendText(ctx, to, text)
}

// Typing pushes a composing indicator before the reply is ready.
func (c *Connection) Typing(ctx context.Context, to string) {
	c.client.SendTyping(ctx, to)
}
