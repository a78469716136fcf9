package entities

import (
	"encoding/json"
	"testing"
)

func TestBroadcastEventWireShape(t *testing.T) {
	cases := []struct {
		name string
		evt  BroadcastEvent
		want string
	}{
		{"qr", NewQREvent("abc"), `{"type":"qr","data":"abc"}`},
		{"status", NewStatusEvent("connected"), `{"type":"status","data":"connected"}`},
		{"disconnected", NewDisconnectedEvent("terminal"), `{"type":"disconnected","data":"terminal"}`},
		{
			"authenticated",
			NewAuthenticatedEvent("Tienda", "549110000"),
			`{"type":"authenticated","data":{"name":"Tienda","number":"549110000"}}`,
		},
		{
			"user-message",
			NewUserMessageEvent("549111111", "hola"),
			`{"type":"user-message","data":{"sessionId":"549111111","text":"hola","from":"user"}}`,
		},
		{
			"bot-reply",
			NewBotReplyEvent("549111111", "buenas"),
			`{"type":"bot-reply","data":{"sessionId":"549111111","text":"buenas","from":"bot"}}`,
		},
		{
			"profile-update",
			NewProfileUpdateEvent("549111111", "Juan"),
			`{"type":"user-profile-update","data":{"sessionId":"549111111","name":"Juan"}}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.evt)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestControlMessageParsing(t *testing.T) {
	var msg ControlMessage
	if err := json.Unmarshal([]byte(`{"type":"logout"}`), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != ControlLogout {
		t.Errorf("got %q", msg.Type)
	}
}
