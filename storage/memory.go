package storage

import (
	"sort"
	"strings"
	"sync"

	"github.com/pixelfan/pixelfan/errors"
)

// MemoryKV is an in-memory KV implementation for tests and ephemeral runs.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Put stores value under key, overwriting any existing value.
func (m *MemoryKV) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy so callers can reuse their buffer.
	buf := make([]byte, len(value))
	copy(buf, value)
	m.data[key] = buf
	return nil
}

// Get returns the value stored under key, or ErrNotFound.
func (m *MemoryKV) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s", key)
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	return buf, nil
}

// ListPrefix returns all keys with the given prefix, in ascending order.
func (m *MemoryKV) ListPrefix(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

var _ KV = (*MemoryKV)(nil)
var _ KV = (*SQLiteKV)(nil)
