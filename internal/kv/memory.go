package kv

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-memory Store used by tests and as the default engine
// backing when no durable path is configured.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
	bus   *Bus
}

// NewMemory creates an empty in-memory store. bus may be nil when change
// notification is not needed.
func NewMemory(bus *Bus) *Memory {
	return &Memory{items: make(map[string]string), bus: bus}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	m.items[key] = value
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(Event{Key: key})
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	_, existed := m.items[key]
	delete(m.items, key)
	m.mu.Unlock()

	if existed && m.bus != nil {
		m.bus.Publish(Event{Key: key})
	}
	return nil
}

func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
