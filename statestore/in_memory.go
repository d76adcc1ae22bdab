package statestore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hupe1980/automesh/core"
)

// InMemoryStore is a volatile StateStore keeping the serialized aggregate in
// memory. It is safe for concurrent access and best suited for tests or
// ephemeral demo setups. State survives a round trip through JSON so loads
// observe the same shapes a durable backend would produce.
type InMemoryStore struct {
	mu  sync.RWMutex
	doc []byte
}

// NewInMemoryStore constructs an empty in-memory state store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Load returns the previously saved state, or nil if nothing was saved yet.
func (s *InMemoryStore) Load(_ context.Context) (*core.EngineState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, nil
	}
	var state core.EngineState
	if err := json.Unmarshal(s.doc, &state); err != nil {
		return nil, err
	}
	sanitizeState(&state, nil)
	return &state, nil
}

// Save overwrites the stored state.
func (s *InMemoryStore) Save(_ context.Context, state core.EngineState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}
