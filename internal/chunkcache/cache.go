// ABOUTME: Memoizing chunk fetcher
// ABOUTME: Stores downloaded chunks in a key-value store encoded with msgpack
package chunkcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Resonate-Protocol/rawview/internal/kv"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
)

// Prefix is the first key segment of every cached chunk
const Prefix = "chunks"

// Stats counts cache lookups since creation
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
	Bytes   int64
}

// Fetcher wraps another Fetcher and remembers its results
type Fetcher struct {
	next  source.Fetcher
	store kv.Store

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a caching fetcher over next
func New(next source.Fetcher, store kv.Store) *Fetcher {
	return &Fetcher{next: next, store: store}
}

// Key returns the store key of a chunk range
func Key(urls source.URLPair, i0, i1 int) kv.Key {
	return kv.Key{Prefix, recordingID(urls), strconv.Itoa(i0), strconv.Itoa(i1)}
}

func recordingID(urls source.URLPair) string {
	hash := sha256.Sum256([]byte(urls.CBin + "|" + urls.Ch))
	return hex.EncodeToString(hash[:])[:8]
}

// Fetch returns the cached chunk or downloads and stores it.
// Storage failures are logged and do not fail the fetch.
func (f *Fetcher) Fetch(ctx context.Context, urls source.URLPair, i0, i1 int) (source.Chunk, error) {
	key := Key(urls, i0, i1)

	data, err := f.store.Get(ctx, key)
	switch {
	case err == nil:
		var chunk source.Chunk
		decodeErr := msgpack.Unmarshal(data, &chunk)
		if decodeErr == nil {
			f.hits.Add(1)
			return chunk, nil
		}
		log.Printf("Discarding corrupt cache entry %s: %v", key, decodeErr)
	case !errors.Is(err, kv.ErrNotFound):
		log.Printf("Cache lookup failed for %s: %v", key, err)
	}

	f.misses.Add(1)
	chunk, err := f.next.Fetch(ctx, urls, i0, i1)
	if err != nil {
		return source.Chunk{}, err
	}

	data, err = msgpack.Marshal(&chunk)
	if err != nil {
		log.Printf("Failed to encode chunk %s: %v", key, err)
		return chunk, nil
	}
	if err := f.store.Set(ctx, key, data); err != nil {
		log.Printf("Failed to cache chunk %s: %v", key, err)
	}
	return chunk, nil
}

// Stats reports hit counts and the size of the cache
func (f *Fetcher) Stats(ctx context.Context) (Stats, error) {
	s, err := Usage(ctx, f.store)
	s.Hits = f.hits.Load()
	s.Misses = f.misses.Load()
	return s, err
}

// Usage counts the cached chunks in store
func Usage(ctx context.Context, store kv.Store) (Stats, error) {
	var s Stats
	for e, err := range store.List(ctx, kv.Key{Prefix}) {
		if err != nil {
			return s, fmt.Errorf("failed to scan cache: %w", err)
		}
		s.Entries++
		s.Bytes += int64(len(e.Value))
	}
	return s, nil
}

// Clear removes every cached chunk from store
func Clear(ctx context.Context, store kv.Store) (int, error) {
	n, err := store.DeletePrefix(ctx, kv.Key{Prefix})
	if err != nil {
		return n, fmt.Errorf("failed to clear cache: %w", err)
	}
	log.Printf("Cleared %d cached chunks", n)
	return n, nil
}
