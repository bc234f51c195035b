// ABOUTME: Raw sample decoder
// ABOUTME: Decodes little-endian int16/int32 interleaved frames to int32 samples
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

// RawDecoder decodes headerless interleaved frames
type RawDecoder struct {
	dtype     ephys.DType
	nChannels int
}

// NewRaw creates a new raw decoder
func NewRaw(format ephys.Format) (*RawDecoder, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid format for raw decoder: %w", err)
	}

	return &RawDecoder{
		dtype:     format.DType,
		nChannels: format.NChannels,
	}, nil
}

// Decode converts raw bytes to int32 samples. The input must hold whole frames.
func (d *RawDecoder) Decode(data []byte) ([]int32, error) {
	frameSize := d.dtype.Size() * d.nChannels
	if len(data)%frameSize != 0 {
		return nil, fmt.Errorf("raw data length %d is not a multiple of frame size %d", len(data), frameSize)
	}

	size := d.dtype.Size()
	numSamples := len(data) / size
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		samples[i] = d.dtype.Decode(data[i*size:])
	}
	return samples, nil
}
