package favorites

import "sync"

// Storage is a durable string key/value store
type Storage interface {
	// Get returns the value for key and whether it exists
	Get(key string) (string, bool, error)
	// Set overwrites the value for key
	Set(key, value string) error
}

// MemoryStorage keeps values in memory only
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
