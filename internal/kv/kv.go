// ABOUTME: Key-value store interface for the chunk cache
// ABOUTME: Defines hierarchical keys and the Store contract
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("kv: not found")

// Separator joins key segments in storage
const Separator = ":"

// Key is a hierarchical path such as {"chunks", "3fa2b1c0", "0", "1"}.
// Segments must not contain Separator.
type Key []string

func (k Key) String() string {
	return strings.Join(k, Separator)
}

// ParseKey splits a stored key back into segments
func ParseKey(s string) Key {
	return Key(strings.Split(s, Separator))
}

// prefixBytes returns the scan prefix for k. The trailing separator keeps
// "chunks:ab" from matching "chunks:abc". An empty key matches everything.
func (k Key) prefixBytes() []byte {
	if len(k) == 0 {
		return nil
	}
	return []byte(k.String() + Separator)
}

// Entry is a stored key and value
type Entry struct {
	Key   Key
	Value []byte
}

// Store persists byte values under hierarchical keys
type Store interface {
	// Get returns ErrNotFound if the key is absent
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set overwrites any existing value
	Set(ctx context.Context, key Key, value []byte) error

	// Delete is a no-op for absent keys
	Delete(ctx context.Context, key Key) error

	// List yields entries under prefix in lexicographic key order
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// DeletePrefix removes every entry under prefix and returns the count
	DeletePrefix(ctx context.Context, prefix Key) (int, error)

	Close() error
}
