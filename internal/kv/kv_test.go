// ABOUTME: Tests for the key-value stores
// ABOUTME: Runs the same contract checks against memory and in-memory badger
package kv

import (
	"context"
	"errors"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := NewBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"badger": b,
	}
}

func TestStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			key := Key{"chunks", "abcd", "0", "1"}

			if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}

			if err := s.Set(ctx, key, []byte("hello")); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			got, err := s.Get(ctx, key)
			if err != nil {
				t.Fatalf("get failed: %v", err)
			}
			if string(got) != "hello" {
				t.Errorf("expected hello, got %q", got)
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
			if err := s.Delete(ctx, key); err != nil {
				t.Errorf("deleting a missing key should succeed: %v", err)
			}
		})
	}
}

func TestStoreListAndDeletePrefix(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Set(ctx, Key{"chunks", "ab", "1", "1"}, []byte("b"))
			s.Set(ctx, Key{"chunks", "ab", "0", "0"}, []byte("a"))
			s.Set(ctx, Key{"chunks", "abc", "0", "0"}, []byte("c"))
			s.Set(ctx, Key{"meta", "ab"}, []byte("m"))

			var keys []string
			for e, err := range s.List(ctx, Key{"chunks", "ab"}) {
				if err != nil {
					t.Fatalf("list failed: %v", err)
				}
				keys = append(keys, e.Key.String())
			}
			if len(keys) != 2 || keys[0] != "chunks:ab:0:0" || keys[1] != "chunks:ab:1:1" {
				t.Errorf("unexpected keys %v", keys)
			}

			n, err := s.DeletePrefix(ctx, Key{"chunks"})
			if err != nil {
				t.Fatalf("delete prefix failed: %v", err)
			}
			if n != 3 {
				t.Errorf("expected 3 deleted, got %d", n)
			}
			if _, err := s.Get(ctx, Key{"meta", "ab"}); err != nil {
				t.Errorf("delete prefix removed an unrelated key: %v", err)
			}
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	m.Set(ctx, Key{"k"}, value)
	value[0] = 'x'

	got, _ := m.Get(ctx, Key{"k"})
	if string(got) != "abc" {
		t.Errorf("store kept a reference to the caller's slice: %q", got)
	}
}

func TestBadgerRequiresDir(t *testing.T) {
	if _, err := NewBadger(BadgerOptions{}); err == nil {
		t.Error("expected error without a directory")
	}
}

func TestBadgerPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := NewBadger(BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	b.Set(ctx, Key{"chunks", "x"}, []byte("persisted"))
	b.Close()

	b, err = NewBadger(BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("failed to reopen badger: %v", err)
	}
	defer b.Close()

	got, err := b.Get(ctx, Key{"chunks", "x"})
	if err != nil || string(got) != "persisted" {
		t.Errorf("expected persisted value, got %q, %v", got, err)
	}
}
