// ABOUTME: Tests for remote chunked source
// ABOUTME: Tests chunk arithmetic, lazy length discovery and failure modes
package source

import (
	"context"
	"errors"
	"testing"
)

// chunkServer fakes a chunk downloader over frames where sample (i, j) = i*10 + j
type chunkServer struct {
	total    int
	channels int
	rate     int
	calls    [][2]int
	shortBy  int
}

func (c *chunkServer) Fetch(_ context.Context, _ URLPair, i0, i1 int) (Chunk, error) {
	c.calls = append(c.calls, [2]int{i0, i1})

	from := i0 * c.rate
	to := (i1 + 1) * c.rate
	if to > c.total {
		to = c.total
	}
	to -= c.shortBy

	samples := make([]int32, 0, (to-from)*c.channels)
	for i := from; i < to; i++ {
		for j := 0; j < c.channels; j++ {
			samples = append(samples, int32(i*10+j))
		}
	}
	return Chunk{Total: c.total, Channels: c.channels, Samples: samples}, nil
}

func newTestRemote(t *testing.T, srv *chunkServer) *RemoteSource {
	t.Helper()
	src, err := NewRemote(testFormat(srv.channels, float64(srv.rate)), URLPair{CBin: "a.cbin", Ch: "a.ch"}, srv)
	if err != nil {
		t.Fatalf("failed to create remote source: %v", err)
	}
	return src
}

func TestRemoteLearnsLengthOnFirstFetch(t *testing.T) {
	srv := &chunkServer{total: 3500, channels: 2, rate: 1000}
	src := newTestRemote(t, srv)

	if src.NSamples() != 0 {
		t.Fatalf("expected unknown length, got %d", src.NSamples())
	}

	w, err := src.Load(context.Background(), 0, 300)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if src.NSamples() != 3500 {
		t.Errorf("expected learned length 3500, got %d", src.NSamples())
	}
	if srv.calls[0] != [2]int{0, 0} {
		t.Errorf("expected first fetch of chunk [0,0], got %v", srv.calls[0])
	}
	if w.At(299, 1) != 2991 {
		t.Errorf("unexpected last sample: %d", w.At(299, 1))
	}
}

func TestRemoteSlicesAcrossChunks(t *testing.T) {
	srv := &chunkServer{total: 3500, channels: 2, rate: 1000}
	src := newTestRemote(t, srv)
	ctx := context.Background()

	if _, err := src.Load(ctx, 0, 300); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}

	w, err := src.Load(ctx, 1900, 300)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := srv.calls[len(srv.calls)-1]; got != [2]int{1, 2} {
		t.Errorf("expected chunks [1,2], got %v", got)
	}
	if w.Start != 1900 || w.At(0, 0) != 19000 || w.At(299, 1) != 21991 {
		t.Errorf("unexpected window: start=%d first=%d last=%d", w.Start, w.At(0, 0), w.At(299, 1))
	}
}

func TestRemoteLastWindow(t *testing.T) {
	srv := &chunkServer{total: 3500, channels: 1, rate: 1000}
	src := newTestRemote(t, srv)
	ctx := context.Background()
	src.Load(ctx, 0, 300)

	w, err := src.Load(ctx, 3200, 300)
	if err != nil {
		t.Fatalf("load of final window failed: %v", err)
	}
	if w.At(299, 0) != 34990 {
		t.Errorf("expected final sample 34990, got %d", w.At(299, 0))
	}
}

func TestRemotePastEnd(t *testing.T) {
	srv := &chunkServer{total: 3500, channels: 1, rate: 1000}
	src := newTestRemote(t, srv)
	ctx := context.Background()
	src.Load(ctx, 0, 300)

	_, err := src.Load(ctx, 3300, 300)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestRemoteShortChunk(t *testing.T) {
	srv := &chunkServer{total: 3500, channels: 1, rate: 1000, shortBy: 900}
	src := newTestRemote(t, srv)

	_, err := src.Load(context.Background(), 0, 300)
	if !errors.Is(err, ErrShortChunk) {
		t.Errorf("expected ErrShortChunk, got %v", err)
	}
}

func TestRemoteLengthChanged(t *testing.T) {
	srv := &chunkServer{total: 3500, channels: 1, rate: 1000}
	src := newTestRemote(t, srv)
	ctx := context.Background()

	if _, err := src.Load(ctx, 0, 300); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}

	srv.total = 4000
	_, err := src.Load(ctx, 500, 300)
	if !errors.Is(err, ErrLengthChanged) {
		t.Errorf("expected ErrLengthChanged, got %v", err)
	}
}

func TestRemoteChannelMismatch(t *testing.T) {
	fetch := FetcherFunc(func(ctx context.Context, urls URLPair, i0, i1 int) (Chunk, error) {
		return Chunk{Total: 1000, Channels: 3, Samples: make([]int32, 3000)}, nil
	})
	src, _ := NewRemote(testFormat(2, 1000), URLPair{}, fetch)

	_, err := src.Load(context.Background(), 0, 100)
	if !errors.Is(err, ErrChunkMismatch) {
		t.Errorf("expected ErrChunkMismatch, got %v", err)
	}
}

func TestRemoteFetchError(t *testing.T) {
	boom := errors.New("network down")
	fetch := FetcherFunc(func(ctx context.Context, urls URLPair, i0, i1 int) (Chunk, error) {
		return Chunk{}, boom
	})
	src, _ := NewRemote(testFormat(1, 1000), URLPair{}, fetch)

	_, err := src.Load(context.Background(), 0, 100)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}
	if src.NSamples() != 0 {
		t.Error("length should stay unknown after a failed fetch")
	}
}
