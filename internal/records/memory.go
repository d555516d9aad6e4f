package records

import (
	"context"
	"slices"
	"sync"
)

type Memory struct {
	mu       sync.Mutex
	best     map[string]int
	sessions map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		best:     make(map[string]int),
		sessions: make(map[string][]byte),
	}
}

func (m *Memory) GetBest(_ context.Context, key string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seconds, ok := m.best[key]
	return seconds, ok, nil
}

func (m *Memory) SetBestIfBetter(_ context.Context, key string, seconds int) (bool, error) {
	if err := checkTime(seconds); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if best, ok := m.best[key]; ok && seconds >= best {
		return false, nil
	}
	m.best[key] = seconds
	return true, nil
}

func (m *Memory) SaveSession(_ context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[id] = slices.Clone(data)
	return nil
}

func (m *Memory) LoadSession(_ context.Context, id string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.sessions[id]
	return slices.Clone(data), ok, nil
}

func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
