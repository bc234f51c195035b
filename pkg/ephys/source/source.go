// ABOUTME: Source interface and window clamping
// ABOUTME: Defines the windowed fetch contract shared by all sample sources
package source

import (
	"context"
	"errors"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

// Sentinel errors.
var (
	// ErrTruncated is returned when a file size is not a whole number of frames.
	ErrTruncated = errors.New("source: n_channels incorrect or binary file truncated")

	// ErrOutOfRange is returned when a requested window exceeds the recording.
	ErrOutOfRange = errors.New("source: window out of range")

	// ErrShortChunk is returned when a fetched chunk does not cover the window.
	ErrShortChunk = errors.New("source: chunk does not cover requested window")

	// ErrLengthChanged is returned when a remote recording reports a new total length.
	ErrLengthChanged = errors.New("source: recording length changed")

	// ErrChunkMismatch is returned when a chunk's shape disagrees with the format.
	ErrChunkMismatch = errors.New("source: chunk shape mismatch")
)

// Source provides windowed access to a multi-channel recording
type Source interface {
	// Format returns the recording format
	Format() ephys.Format

	// NSamples returns the total number of frames, or 0 while unknown
	NSamples() int

	// Load returns exactly n frames starting at frame start
	Load(ctx context.Context, start, n int) (*ephys.Window, error)

	// Close releases resources
	Close() error
}

// Clamp clips sample into [0, max(0, nSamples-bufferSize)].
// While nSamples is unknown (0) only the lower bound applies.
func Clamp(sample, nSamples, bufferSize int) int {
	if sample < 0 {
		sample = 0
	}
	if nSamples == 0 {
		return sample
	}
	upper := nSamples - bufferSize
	if upper < 0 {
		upper = 0
	}
	if sample > upper {
		sample = upper
	}
	return sample
}

// Duration returns the length of the recording in seconds
func Duration(s Source) float64 {
	return s.Format().Duration(s.NSamples())
}

func checkRange(start, n, nSamples int) error {
	if start < 0 || n <= 0 || start+n > nSamples {
		return ErrOutOfRange
	}
	return nil
}
