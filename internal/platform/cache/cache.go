// Package cache holds the write-through entity cache sitting in front
// of the store. It is correctness-critical, not a performance knob:
// every persist must overwrite the entry and every delete must evict
// it, so entries carry no TTL and there is no eviction policy beyond
// explicit invalidation.
package cache

import (
	"context"
	"strconv"
	"sync"
)

// Cache stores JSON-encoded entities under string keys.
type Cache interface {
	// Get unmarshals the entry into dest and reports whether the key
	// was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set overwrites the entry for key.
	Set(ctx context.Context, key string, value any) error
	// Delete evicts the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

func UserKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}

func ArticleKey(id int64) string {
	return "article:" + strconv.FormatInt(id, 10)
}

// Memory is a process-local Cache. It backs tests and cacheless dev
// setups.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, unmarshal(raw, dest)
}

func (m *Memory) Set(ctx context.Context, key string, value any) error {
	raw, err := marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil
}

// Contains reports whether a key is cached without decoding it.
func (m *Memory) Contains(key string) bool {
	m.mu.RLock()
	_, ok := m.entries[key]
	m.mu.RUnlock()
	return ok
}
