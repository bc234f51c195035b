// ABOUTME: Synthetic recording generator
// ABOUTME: Generates deterministic per-channel sine waves with baseline offsets
package source

import (
	"context"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

const (
	// DefaultSyntheticAmplitude is the peak amplitude in raw units
	DefaultSyntheticAmplitude = 200.0

	// DefaultSyntheticFrequency is the base frequency of channel 0 in Hz
	DefaultSyntheticFrequency = 7.0
)

// SyntheticSource generates a deterministic recording.
// Channel j carries a sine of frequency base*(1+j%8) on a baseline of 10*j.
type SyntheticSource struct {
	format    ephys.Format
	nSamples  int
	amplitude float64
	frequency float64
}

// NewSynthetic creates a generator of nSamples frames
func NewSynthetic(format ephys.Format, nSamples int) (*SyntheticSource, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if nSamples <= 0 {
		return nil, fmt.Errorf("invalid sample count: %d", nSamples)
	}
	return &SyntheticSource{
		format:    format,
		nSamples:  nSamples,
		amplitude: DefaultSyntheticAmplitude,
		frequency: DefaultSyntheticFrequency,
	}, nil
}

func (s *SyntheticSource) Format() ephys.Format { return s.format }
func (s *SyntheticSource) NSamples() int        { return s.nSamples }
func (s *SyntheticSource) Close() error         { return nil }

// Value returns the generated sample of frame i on channel j
func (s *SyntheticSource) Value(i, j int) int32 {
	t := float64(i) / s.format.SampleRate
	f := s.frequency * float64(1+j%8)
	v := s.amplitude*math.Sin(2*math.Pi*f*t) + 10*float64(j)
	return int32(math.Round(v))
}

func (s *SyntheticSource) Load(ctx context.Context, start, n int) (*ephys.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRange(start, n, s.nSamples); err != nil {
		return nil, fmt.Errorf("load [%d, %d): %w", start, start+n, err)
	}

	w := ephys.NewWindow(start, n, s.format.NChannels)
	for i := 0; i < n; i++ {
		for j := 0; j < s.format.NChannels; j++ {
			w.Set(i, j, s.Value(start+i, j))
		}
	}
	return w, nil
}
