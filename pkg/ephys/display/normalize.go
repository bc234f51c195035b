// ABOUTME: Window normalization to display bytes
// ABOUTME: Linear rescale around per-channel medians with clipping
package display

import (
	"fmt"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

// Normalize maps every sample of w to a byte, keeping w's frames x channels layout.
// A zero spread is treated as 1 so constant windows map to mid-grey.
func Normalize(w *ephys.Window, s Scale) ([]uint8, error) {
	if len(s.Median) != w.Channels {
		return nil, fmt.Errorf("scale has %d channel medians, window has %d channels", len(s.Median), w.Channels)
	}

	std := s.Std
	if std == 0 {
		std = 1
	}
	inv := 1.0 / std

	out := make([]uint8, len(w.Samples))
	for i := 0; i < w.Frames; i++ {
		row := w.Samples[i*w.Channels : (i+1)*w.Channels]
		for j, x := range row {
			v := ((float64(x)-s.Median[j])*inv + 1) * 255 * 0.5
			switch {
			case v < 0:
				v = 0
			case v > 255:
				v = 255
			}
			out[i*w.Channels+j] = uint8(v)
		}
	}
	return out, nil
}

// SubtractMedian removes each channel's median from w in place
func SubtractMedian(w *ephys.Window) {
	col := make([]float64, w.Frames)
	for j := 0; j < w.Channels; j++ {
		col = w.Channel(j, col)
		m := int32(medianOf(col))
		for i := 0; i < w.Frames; i++ {
			w.Samples[i*w.Channels+j] -= m
		}
	}
}
