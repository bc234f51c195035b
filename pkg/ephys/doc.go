// ABOUTME: Electrophysiology fundamentals package providing core types
// ABOUTME: Defines Format, DType and Window used by sources and viewers
// Package ephys provides fundamental types for multi-channel raw
// electrophysiology recordings.
//
// This package defines core types used throughout the rawview library:
//   - Format: Describes a recording (channel count, sample rate, sample type)
//   - DType: The on-disk integer encoding of one sample
//   - Window: A contiguous block of frames across all channels
//
// Samples are held as int32 regardless of the on-disk type so that 16-bit
// and 32-bit recordings share one code path.
//
// Example:
//
//	format := ephys.Format{
//	    NChannels:  385,
//	    SampleRate: 30000,
//	    DType:      ephys.Int16,
//	}
//
//	// Duration of a recording of n frames
//	seconds := format.Duration(n)
package ephys
