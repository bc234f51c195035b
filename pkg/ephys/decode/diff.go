// ABOUTME: Diff-encoded sample decoder
// ABOUTME: Undoes time and channel first-difference encoding of raw frames
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

// DiffDecoder decodes frames stored as first differences.
// Time differences are undone before channel differences, and sums wrap at
// the sample type's width exactly like the encoder's arithmetic.
type DiffDecoder struct {
	raw         *RawDecoder
	timeDiff    bool
	spatialDiff bool
}

// NewDiff creates a decoder for diff-encoded frames
func NewDiff(format ephys.Format, timeDiff, spatialDiff bool) (*DiffDecoder, error) {
	raw, err := NewRaw(format)
	if err != nil {
		return nil, err
	}
	return &DiffDecoder{raw: raw, timeDiff: timeDiff, spatialDiff: spatialDiff}, nil
}

// Decode converts diff-encoded bytes to int32 samples
func (d *DiffDecoder) Decode(data []byte) ([]int32, error) {
	samples, err := d.raw.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode diff frames: %w", err)
	}

	nc := d.raw.nChannels
	frames := len(samples) / nc
	wrap := wrapper(d.raw.dtype)

	if d.timeDiff {
		for i := 1; i < frames; i++ {
			row, prev := samples[i*nc:(i+1)*nc], samples[(i-1)*nc:i*nc]
			for j := range row {
				row[j] = wrap(row[j] + prev[j])
			}
		}
	}
	if d.spatialDiff {
		for i := 0; i < frames; i++ {
			row := samples[i*nc : (i+1)*nc]
			for j := 1; j < nc; j++ {
				row[j] = wrap(row[j] + row[j-1])
			}
		}
	}
	return samples, nil
}

func wrapper(dtype ephys.DType) func(int32) int32 {
	if dtype == ephys.Int16 {
		return func(v int32) int32 { return int32(int16(v)) }
	}
	return func(v int32) int32 { return v }
}
