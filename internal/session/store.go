package session

import (
	"context"
	"sync"

	"lina/internal/logging"
)

// Store persists session state across invocations, keyed by session
// id. Load creates a fresh state on first use of an id; sessions are
// never explicitly deleted (expiry is a backend property).
type Store interface {
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, state *State) error
	Close() error
}

// MemoryStore keeps sessions in memory. The default for one-shot CLI
// use and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*State)}
}

// Load returns a deep copy of the stored state, or a fresh state if
// the id is unknown.
func (m *MemoryStore) Load(ctx context.Context, id string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if state, ok := m.sessions[id]; ok {
		logging.SessionDebug("Loaded session %s: %d turns", id, len(state.Turns))
		return state.Clone(), nil
	}
	logging.Session("Created new session: %s", id)
	return NewState(id), nil
}

// Save stores a deep copy of the state.
func (m *MemoryStore) Save(ctx context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[state.ID] = state.Clone()
	logging.SessionDebug("Saved session %s: %d turns", state.ID, len(state.Turns))
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }
