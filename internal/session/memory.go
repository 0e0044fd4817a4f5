package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and single-process development.
// It does not survive restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	states   map[Key]State
	payloads map[Key]Payload
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:   make(map[Key]State),
		payloads: make(map[Key]Payload),
	}
}

func (s *MemoryStore) GetState(_ context.Context, key Key) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[key], nil
}

func (s *MemoryStore) SetState(_ context.Context, key Key, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state
	return nil
}

func (s *MemoryStore) GetPayload(_ context.Context, key Key) (Payload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePayload(s.payloads[key]), nil
}

func (s *MemoryStore) MergePayload(_ context.Context, key Key, partial Payload) (Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := clonePayload(s.payloads[key])
	for k, v := range partial {
		merged[k] = v
	}
	s.payloads[key] = merged
	return clonePayload(merged), nil
}

func (s *MemoryStore) Clear(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	delete(s.payloads, key)
	return nil
}

func clonePayload(p Payload) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
