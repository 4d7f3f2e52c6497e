package inbox

import (
	"context"
	"sync"
)

type Memory struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func NewMemory() *Memory {
	return &Memory{outcomes: make(map[string]string)}
}

func (m *Memory) Seen(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.outcomes[eventID]
	return ok, nil
}

func (m *Memory) Mark(_ context.Context, eventID string, _ string, outcome string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.outcomes[eventID]; !ok {
		m.outcomes[eventID] = outcome
	}
	return nil
}

// Outcome reports the recorded terminal outcome, for tests.
func (m *Memory) Outcome(eventID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out, ok := m.outcomes[eventID]
	return out, ok
}
