// ABOUTME: Scale computation and zoom transitions
// ABOUTME: Computes per-channel medians and global spread of a window
package display

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

// ZoomFactor is the spread multiplier applied by one zoom step
const ZoomFactor = 1.1

// Scale maps raw samples to the display range
type Scale struct {
	// Median is the per-channel baseline
	Median []float64

	// Std is the spread of the whole window
	Std float64
}

// ComputeScale returns the per-channel median along time and the
// population standard deviation of all samples in the window.
func ComputeScale(w *ephys.Window) Scale {
	median := make([]float64, w.Channels)
	col := make([]float64, w.Frames)
	for j := 0; j < w.Channels; j++ {
		col = w.Channel(j, col)
		median[j] = medianOf(col)
	}

	all := make([]float64, len(w.Samples))
	for i, v := range w.Samples {
		all[i] = float64(v)
	}

	return Scale{
		Median: median,
		Std:    stat.PopStdDev(all, nil),
	}
}

// ZoomIn increases contrast: the spread is divided by ZoomFactor
func (s Scale) ZoomIn() Scale {
	s.Std /= ZoomFactor
	return s
}

// ZoomOut decreases contrast: the spread is multiplied by ZoomFactor
func (s Scale) ZoomOut() Scale {
	s.Std *= ZoomFactor
	return s
}

// IsZero reports whether the scale has not been computed
func (s Scale) IsZero() bool {
	return s.Median == nil
}

// medianOf sorts x in place. Even counts average the middle pair.
func medianOf(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	slices.Sort(x)
	if n%2 == 1 {
		return x[n/2]
	}
	return (x[n/2-1] + x[n/2]) / 2
}
