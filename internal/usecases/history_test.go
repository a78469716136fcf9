package usecases

import (
	"fmt"
	"testing"

	"agente_gateway/internal/entities"
)

func TestHistoryStoreAppendAndCap(t *testing.T) {
	h := NewHistoryStore()
	for i := 0; i < maxHistoryTurns+6; i++ {
		h.Append("s1", entities.Turn{From: "user", Text: fmt.Sprintf("msg %d", i)})
	}

	turns := h.Turns("s1")
	if len(turns) != maxHistoryTurns {
		t.Fatalf("expected cap at %d turns, got %d", maxHistoryTurns, len(turns))
	}
	if turns[len(turns)-1].Text != fmt.Sprintf("msg %d", maxHistoryTurns+5) {
		t.Errorf("newest turn missing: %q", turns[len(turns)-1].Text)
	}
}

func TestHistoryStoreIsolatesSessions(t *testing.T) {
	h := NewHistoryStore()
	h.Append("a", entities.Turn{From: "user", Text: "hola"})

	if got := h.Turns("b"); len(got) != 0 {
		t.Errorf("sessions must be isolated, got %d turns", len(got))
	}

	h.Clear("a")
	if got := h.Turns("a"); len(got) != 0 {
		t.Errorf("clear must drop the session, got %d turns", len(got))
	}
}
