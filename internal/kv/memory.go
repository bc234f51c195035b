// ABOUTME: In-memory Store
// ABOUTME: Map-backed store used when the disk cache is disabled and in tests
package kv

import (
	"bytes"
	"context"
	"iter"
	"slices"
	"sync"
)

// Memory is a concurrency-safe map-backed Store
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	m.mu.RLock()
	v, ok := m.data[key.String()]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	m.mu.Lock()
	m.data[key.String()] = bytes.Clone(value)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.data, key.String())
	m.mu.Unlock()
	return nil
}

// matching returns the sorted keys under prefix. Callers hold the lock.
func (m *Memory) matching(prefix Key) []string {
	p := string(prefix.prefixBytes())
	var keys []string
	for k := range m.data {
		if len(p) == 0 || (len(k) >= len(p) && k[:len(p)] == p) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	m.mu.RLock()
	keys := m.matching(prefix)
	entries := make([]Entry, len(keys))
	for i, k := range keys {
		entries[i] = Entry{Key: ParseKey(k), Value: bytes.Clone(m.data[k])}
	}
	m.mu.RUnlock()

	return func(yield func(Entry, error) bool) {
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (m *Memory) DeletePrefix(_ context.Context, prefix Key) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.matching(prefix)
	for _, k := range keys {
		delete(m.data, k)
	}
	return len(keys), nil
}

func (m *Memory) Close() error {
	return nil
}
