package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// WhatsAppClient wraps the whatsmeow client around a file-backed credential
// store. Reconnection is driven externally, so automatic reconnect stays off.
type WhatsAppClient struct {
	Client *whatsmeow.Client
	logger *slog.Logger
}

func NewWhatsAppClient(ctx context.Context, sessionDir string, logger *slog.Logger) (*WhatsAppClient, error) {
	dbPath := filepath.Join(sessionDir, "session.db")
	dbLog := waLog.Stdout("Database", "WARN", true)
	container, err := sqlstore.New(ctx, "sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)", dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	// Single tenant per process, so the first device is the device.
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	clientLog := waLog.Stdout("Client", "WARN", true)
	client := whatsmeow.NewClient(deviceStore, clientLog)
	client.EnableAutoReconnect = false

	return &WhatsAppClient{Client: client, logger: logger}, nil
}

// Connect opens the socket. When no credentials exist yet it returns the QR
// channel the caller must drain; on a silent resume the channel is nil.
func (w *WhatsAppClient) Connect(ctx context.Context) (<-chan whatsmeow.QRChannelItem, error) {
	if w.Client.Store.ID == nil {
		qrChan, err := w.Client.GetQRChannel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open QR channel: %w", err)
		}
		if err := w.Client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		return qrChan, nil
	}

	if err := w.Client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	w.logger.Info("resuming existing session", "number", w.Client.Store.ID.User)
	return nil, nil
}

func (w *WhatsAppClient) Disconnect() {
	w.Client.Disconnect()
}

// Logout destroys the stored credentials on both ends.
func (w *WhatsAppClient) Logout(ctx context.Context) error {
	if err := w.Client.Logout(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

func (w *WhatsAppClient) IsLoggedIn() bool {
	return w.Client.Store.ID != nil
}

func (w *WhatsAppClient) IsConnected() bool {
	return w.Client.IsConnected() && w.Client.Store.ID != nil
}

// Identity returns the authenticated phone number and push name.
func (w *WhatsAppClient) Identity() (number, name string) {
	if w.Client.Store.ID == nil {
		return "", ""
	}
	return w.Client.Store.ID.User, w.Client.Store.PushName
}

func (w *WhatsAppClient) AddHandler(handler func(interface{})) {
	w.Client.AddEventHandler(handler)
}

func (w *WhatsAppClient) SendText(ctx context.Context, to, content string) error {
	jid, err := types.ParseJID(to + "@s.whatsapp.net")
	if err != nil {
		return fmt.Errorf("invalid number format: %w", err)
	}

	_, err = w.Client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: &content,
	})
	return err
}

// SendTyping pushes a composing indicator to the chat. Best effort.
func (w *WhatsAppClient) SendTyping(ctx context.Context, to string) {
	jid, err := types.ParseJID(to + "@s.whatsapp.net")
	if err != nil {
		return
	}
	w.Client.SendPresence(ctx, types.PresenceAvailable)
	w.Client.SendChatPresence(ctx, jid, types.ChatPresenceComposing, types.ChatPresenceMediaText)
}

// ParseMessage extracts the sender number and text body of an inbound message.
func (w *WhatsAppClient) ParseMessage(evt *events.Message) (sender, content string) {
	sender = evt.Info.Sender.User
	if evt.Message.Conversation != nil {
		content = *evt.Message.Conversation
	} else if evt.Message.ExtendedTextMessage != nil {
		content = *evt.Message.ExtendedTextMessage.Text
	}
	return sender, content
}
