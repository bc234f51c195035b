// ABOUTME: Ephys type definitions
// ABOUTME: Defines recording formats, sample types and sample windows
package ephys

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DType is the integer encoding of one sample on disk or on the wire
type DType string

const (
	Int16 DType = "int16"
	Int32 DType = "int32"
)

// ParseDType accepts Go-style names and numpy-style codes ("<i2", "int16")
func ParseDType(s string) (DType, error) {
	switch s {
	case "int16", "<i2", "i2":
		return Int16, nil
	case "int32", "<i4", "i4":
		return Int32, nil
	}
	return "", fmt.Errorf("unsupported dtype: %q (supported: int16, int32)", s)
}

// Size returns the number of bytes per sample
func (d DType) Size() int {
	switch d {
	case Int32:
		return 4
	default:
		return 2
	}
}

// Decode reads one little-endian sample of this type from b
func (d DType) Decode(b []byte) int32 {
	if d == Int32 {
		return int32(binary.LittleEndian.Uint32(b))
	}
	return int32(int16(binary.LittleEndian.Uint16(b)))
}

// Format describes a multi-channel recording
type Format struct {
	NChannels  int
	SampleRate float64
	DType      DType
}

// Validate checks that the format can describe a recording
func (f Format) Validate() error {
	if f.NChannels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.NChannels)
	}
	if f.SampleRate <= 0 || math.IsNaN(f.SampleRate) || math.IsInf(f.SampleRate, 0) {
		return fmt.Errorf("invalid sample rate: %v", f.SampleRate)
	}
	if f.DType != Int16 && f.DType != Int32 {
		return fmt.Errorf("unsupported dtype: %q", f.DType)
	}
	return nil
}

// FrameSize returns the number of bytes of one frame (all channels)
func (f Format) FrameSize() int {
	return f.NChannels * f.DType.Size()
}

// Duration converts a frame count to seconds
func (f Format) Duration(frames int) float64 {
	return float64(frames) / f.SampleRate
}

// SampleAt converts seconds to the nearest frame index, saturating at the
// int range
func (f Format) SampleAt(seconds float64) int {
	x := math.Round(seconds * f.SampleRate)
	switch {
	case x >= math.MaxInt:
		return math.MaxInt
	case x <= math.MinInt:
		return math.MinInt
	}
	return int(x)
}

// Window is a contiguous block of frames across all channels.
// Samples are row-major: frame i, channel j is Samples[i*Channels+j].
type Window struct {
	Start    int
	Frames   int
	Channels int
	Samples  []int32
}

// NewWindow allocates a zeroed window
func NewWindow(start, frames, channels int) *Window {
	return &Window{
		Start:    start,
		Frames:   frames,
		Channels: channels,
		Samples:  make([]int32, frames*channels),
	}
}

// At returns the sample of frame i on channel j
func (w *Window) At(i, j int) int32 {
	return w.Samples[i*w.Channels+j]
}

// Set stores the sample of frame i on channel j
func (w *Window) Set(i, j int, v int32) {
	w.Samples[i*w.Channels+j] = v
}

// Channel copies one channel's samples out as float64
func (w *Window) Channel(j int, dst []float64) []float64 {
	if cap(dst) < w.Frames {
		dst = make([]float64, w.Frames)
	}
	dst = dst[:w.Frames]
	for i := 0; i < w.Frames; i++ {
		dst[i] = float64(w.Samples[i*w.Channels+j])
	}
	return dst
}

// Clone returns a deep copy of the window
func (w *Window) Clone() *Window {
	c := *w
	c.Samples = append([]int32(nil), w.Samples...)
	return &c
}
