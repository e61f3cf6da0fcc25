package cache

import (
	"context"
	"sync"
)

const (
	// InputsKey holds the full calculator record as JSON. Rewritten on every
	// save.
	InputsKey = "calculatorInputs"
	// SettingsKey is the legacy camelCase settings blob. Read for initial
	// hydration and change detection only, never written by this service.
	SettingsKey = "calculatorSettings"
)

// Publisher receives a change notification for every successful Set.
// notify.Hub satisfies this.
type Publisher interface {
	PublishStorage(key, newValue string)
}

// Store is the local key-value persistence collaborator. Implementations
// must make Set visible to a subsequent Get before returning.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Memory is an in-process Store, used in tests and as the fallback when no
// cache file is configured.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
	pub  Publisher
}

func NewMemory(pub Publisher) *Memory {
	return &Memory{
		data: map[string]string{},
		pub:  pub,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()

	if m.pub != nil {
		m.pub.PublishStorage(key, value)
	}
	return nil
}
