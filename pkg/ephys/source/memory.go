// ABOUTME: In-memory sample source
// ABOUTME: Serves windows from samples already held in memory
package source

import (
	"context"
	"fmt"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

// MemorySource serves windows from interleaved in-memory samples
type MemorySource struct {
	format  ephys.Format
	samples []int32
}

// NewMemory wraps interleaved samples; len(samples) must be a whole number of frames
func NewMemory(format ephys.Format, samples []int32) (*MemorySource, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if len(samples)%format.NChannels != 0 {
		return nil, ErrTruncated
	}
	return &MemorySource{format: format, samples: samples}, nil
}

func (s *MemorySource) Format() ephys.Format { return s.format }
func (s *MemorySource) NSamples() int        { return len(s.samples) / s.format.NChannels }
func (s *MemorySource) Close() error         { return nil }

func (s *MemorySource) Load(ctx context.Context, start, n int) (*ephys.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRange(start, n, s.NSamples()); err != nil {
		return nil, fmt.Errorf("load [%d, %d): %w", start, start+n, err)
	}

	nc := s.format.NChannels
	w := ephys.NewWindow(start, n, nc)
	copy(w.Samples, s.samples[start*nc:(start+n)*nc])
	return w, nil
}
