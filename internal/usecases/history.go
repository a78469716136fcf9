package usecases

import (
	"sync"

	"agente_gateway/internal/entities"
)

// maxHistoryTurns caps how much context is kept per conversation.
const maxHistoryTurns = 20

// HistoryStore keeps recent conversation turns per session in memory.
// History is ephemeral: a restart starts every conversation fresh.
type HistoryStore struct {
	mu    sync.Mutex
	turns map[string][]entities.Turn
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{turns: make(map[string][]entities.Turn)}
}

// Turns returns a copy of the stored history for a session.
func (h *HistoryStore) Turns(sessionID string) []entities.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	stored := h.turns[sessionID]
	out := make([]entities.Turn, len(stored))
	copy(out, stored)
	return out
}

// Append records a turn, evicting the oldest once the cap is reached.
func (h *HistoryStore) Append(sessionID string, turn entities.Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	turns := append(h.turns[sessionID], turn)
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}
	h.turns[sessionID] = turns
}

// Clear drops a session's history.
func (h *HistoryStore) Clear(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, sessionID)
}
