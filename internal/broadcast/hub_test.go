package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"agente_gateway/internal/entities"
)

type fakeObserver struct {
	delivered [][]byte
	fail      bool
}

func (f *fakeObserver) Deliver(data []byte) error {
	if f.fail {
		return errors.New("gone")
	}
	f.delivered = append(f.delivered, data)
	return nil
}

type fakeLifecycle struct {
	qr          string
	logoutCalls int
}

func (f *fakeLifecycle) Logout(ctx context.Context) error {
	f.logoutCalls++
	return nil
}

func (f *fakeLifecycle) LastQR() string { return f.qr }

func newTestHub(lifecycle Lifecycle) *Hub {
	h := NewHub(slog.Default())
	if lifecycle != nil {
		h.SetLifecycle(lifecycle)
	}
	return h
}

func TestBroadcastDeliversInOrder(t *testing.T) {
	h := newTestHub(&fakeLifecycle{})
	obs := &fakeObserver{}
	h.Subscribe(obs)

	h.Broadcast(entities.NewStatusEvent("connected"))
	h.Broadcast(entities.NewBotReplyEvent("123", "hola"))

	if len(obs.delivered) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(obs.delivered))
	}

	var first struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}
	if err := json.Unmarshal(obs.delivered[0], &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.Type != "status" || first.Data != "connected" {
		t.Errorf("unexpected first event: %+v", first)
	}
}

func TestSubscribeDoesNotReplay(t *testing.T) {
	h := newTestHub(&fakeLifecycle{qr: "pairing-code"})
	obs := &fakeObserver{}
	h.Subscribe(obs)

	if len(obs.delivered) != 0 {
		t.Fatalf("no replay may happen at subscribe, got %d deliveries", len(obs.delivered))
	}
}

func TestControlRequestStatusResendsPendingQR(t *testing.T) {
	h := newTestHub(&fakeLifecycle{qr: "pairing-code"})
	obs := &fakeObserver{}
	h.Subscribe(obs)

	h.HandleControl(context.Background(), obs, []byte(`{"type":"request_status"}`))

	if len(obs.delivered) != 1 {
		t.Fatalf("expected QR resend on request_status, got %d deliveries", len(obs.delivered))
	}
	var evt struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}
	if err := json.Unmarshal(obs.delivered[0], &evt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if evt.Type != "qr" || evt.Data != "pairing-code" {
		t.Errorf("unexpected resend: %+v", evt)
	}
}

func TestControlRequestStatusSilentWhenAuthenticated(t *testing.T) {
	h := newTestHub(&fakeLifecycle{qr: ""})
	obs := &fakeObserver{}
	h.Subscribe(obs)

	h.HandleControl(context.Background(), obs, []byte(`{"type":"request_status"}`))

	if len(obs.delivered) != 0 {
		t.Errorf("no QR pending, expected no resend, got %d", len(obs.delivered))
	}
}

func TestControlLogout(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	h := newTestHub(lifecycle)
	obs := &fakeObserver{}
	h.Subscribe(obs)

	h.HandleControl(context.Background(), obs, []byte(`{"type":"logout"}`))
	if lifecycle.logoutCalls != 1 {
		t.Errorf("expected 1 logout call, got %d", lifecycle.logoutCalls)
	}
}

func TestControlRequestStatusRepliesOnlyToRequester(t *testing.T) {
	h := newTestHub(&fakeLifecycle{qr: "code"})
	requester := &fakeObserver{}
	bystander := &fakeObserver{}
	h.Subscribe(requester)
	h.Subscribe(bystander)

	before := len(bystander.delivered)
	h.HandleControl(context.Background(), requester, []byte(`{"type":"request_status"}`))

	if len(requester.delivered) != before+1 {
		t.Errorf("requester should receive the QR resend")
	}
	if len(bystander.delivered) != before {
		t.Errorf("bystander must not receive the resend")
	}
}

func TestControlUnknownTypeIgnored(t *testing.T) {
	lifecycle := &fakeLifecycle{qr: "code"}
	h := newTestHub(lifecycle)
	obs := &fakeObserver{}
	h.Subscribe(obs)
	before := len(obs.delivered)

	h.HandleControl(context.Background(), obs, []byte(`{"type":"selfdestruct"}`))
	h.HandleControl(context.Background(), obs, []byte(`not json`))

	if lifecycle.logoutCalls != 0 || len(obs.delivered) != before {
		t.Error("unknown or malformed control messages must be ignored")
	}
}

func TestFailingObserverIsDropped(t *testing.T) {
	h := newTestHub(&fakeLifecycle{})
	healthy := &fakeObserver{}
	broken := &fakeObserver{fail: true}
	h.Subscribe(broken)
	h.Subscribe(healthy)

	h.Broadcast(entities.NewStatusEvent("connected"))
	h.Broadcast(entities.NewStatusEvent("connected"))

	if len(healthy.delivered) != 2 {
		t.Errorf("healthy observer missed events: %d", len(healthy.delivered))
	}

	h.mu.Lock()
	count := len(h.observers)
	h.mu.Unlock()
	if count != 1 {
		t.Errorf("broken observer should have been dropped, %d observers remain", count)
	}
}
