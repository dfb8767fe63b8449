// Package runstate tracks the last fetch run per source. The state is
// ephemeral operational data, kept out of the settings and digest stores so a
// Redis deployment can share it across replicas.
package runstate

import (
	"context"
	"sync"
	"time"
)

// Run statuses.
const (
	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusError   = "error"
)

// RunState is the outcome of the most recent fetch run for one source.
type RunState struct {
	SourceID  string    `json:"source_id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Items     int       `json:"items"`
	Stored    int       `json:"stored"`
	LastError string    `json:"last_error,omitempty"`
}

// Store persists run states.
type Store interface {
	Get(ctx context.Context, sourceID string) (RunState, bool, error)
	Set(ctx context.Context, st RunState) error
	All(ctx context.Context) ([]RunState, error)
	Delete(ctx context.Context, sourceID string) error
}

// memoryStore is the default single-process store.
type memoryStore struct {
	mu     sync.RWMutex
	states map[string]RunState
}

// NewMemoryStore returns an in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{states: make(map[string]RunState)}
}

func (m *memoryStore) Get(_ context.Context, sourceID string) (RunState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[sourceID]
	return st, ok, nil
}

func (m *memoryStore) Set(_ context.Context, st RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.SourceID] = st
	return nil
}

func (m *memoryStore) All(_ context.Context) ([]RunState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RunState, 0, len(m.states))
	for _, st := range m.states {
		out = append(out, st)
	}
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sourceID)
	return nil
}
