// ABOUTME: Remote chunked source
// ABOUTME: Converts windows to whole-second chunk requests against an injected Fetcher
package source

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

// URLPair locates a remote recording: compressed samples plus channel metadata
type URLPair struct {
	CBin string `json:"cbin" msgpack:"cbin"`
	Ch   string `json:"ch" msgpack:"ch"`
}

// Chunk is a whole-second-aligned range of frames returned by a Fetcher
type Chunk struct {
	// Total is the number of frames in the whole recording
	Total int `msgpack:"total"`

	// Channels is the number of channels per frame
	Channels int `msgpack:"channels"`

	// Samples holds frames [i0*rate, (i1+1)*rate) interleaved by channel,
	// truncated at the end of the recording
	Samples []int32 `msgpack:"samples"`
}

// Frames returns the number of frames in the chunk
func (c Chunk) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Fetcher downloads seconds i0..i1 (inclusive) of a remote recording.
// Implementations must be idempotent: the same arguments yield the same chunk.
type Fetcher interface {
	Fetch(ctx context.Context, urls URLPair, i0, i1 int) (Chunk, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, urls URLPair, i0, i1 int) (Chunk, error)

func (f FetcherFunc) Fetch(ctx context.Context, urls URLPair, i0, i1 int) (Chunk, error) {
	return f(ctx, urls, i0, i1)
}

// RemoteSource serves windows out of whole-second chunks.
// The total length is unknown until the first fetch and fixed afterwards.
type RemoteSource struct {
	format  ephys.Format
	urls    URLPair
	fetcher Fetcher

	mu       sync.Mutex
	nSamples int
}

// NewRemote creates a source over a remote recording
func NewRemote(format ephys.Format, urls URLPair, fetcher Fetcher) (*RemoteSource, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, fmt.Errorf("remote source requires a fetcher")
	}
	return &RemoteSource{format: format, urls: urls, fetcher: fetcher}, nil
}

func (s *RemoteSource) Format() ephys.Format { return s.format }
func (s *RemoteSource) URLs() URLPair        { return s.urls }
func (s *RemoteSource) Close() error         { return nil }

func (s *RemoteSource) NSamples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nSamples
}

// Load fetches the chunks covering [start, start+n) and slices the window out.
// While the length is unknown, the first second is fetched to learn it.
func (s *RemoteSource) Load(ctx context.Context, start, n int) (*ephys.Window, error) {
	rate := s.format.SampleRate
	total := s.NSamples()

	i0, i1 := 0, 0
	if total > 0 {
		t0 := float64(start) / rate
		t1 := t0 + float64(n-1)/rate
		duration := s.format.Duration(total)
		if t0 < 0 || t1 > duration || t0 >= t1 {
			return nil, fmt.Errorf("interval [%.4f, %.4f] of %.4fs: %w", t0, t1, duration, ErrOutOfRange)
		}
		i0 = int(t0)
		i1 = int(t1)
	}

	chunk, err := s.fetcher.Fetch(ctx, s.urls, i0, i1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks %d-%d: %w", i0, i1, err)
	}

	if err := s.learnLength(chunk.Total); err != nil {
		return nil, err
	}
	if chunk.Channels != s.format.NChannels {
		return nil, fmt.Errorf("chunk has %d channels, expected %d: %w",
			chunk.Channels, s.format.NChannels, ErrChunkMismatch)
	}
	if maxFrames := int(math.Round(float64(i1+1-i0) * rate)); chunk.Frames() > maxFrames {
		return nil, fmt.Errorf("chunk has %d frames, at most %d expected: %w",
			chunk.Frames(), maxFrames, ErrChunkMismatch)
	}

	s0 := start - int(math.Round(float64(i0)*rate))
	s1 := s0 + n
	if s0 < 0 || s1 > chunk.Frames() {
		return nil, fmt.Errorf("frames [%d, %d) of %d-frame chunk: %w", s0, s1, chunk.Frames(), ErrShortChunk)
	}

	nc := s.format.NChannels
	w := ephys.NewWindow(start, n, nc)
	copy(w.Samples, chunk.Samples[s0*nc:s1*nc])
	return w, nil
}

func (s *RemoteSource) learnLength(total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if total <= 0 {
		return fmt.Errorf("chunk reports total length %d: %w", total, ErrChunkMismatch)
	}
	if s.nSamples == 0 {
		s.nSamples = total
		log.Printf("Remote recording length: %d samples (%.1fs)", total, s.format.Duration(total))
		return nil
	}
	if s.nSamples != total {
		return fmt.Errorf("had %d samples, chunk reports %d: %w", s.nSamples, total, ErrLengthChanged)
	}
	return nil
}
