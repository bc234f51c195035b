// ABOUTME: Sample decoders package
// ABOUTME: Converts raw interleaved bytes into int32 sample frames
// Package decode converts raw interleaved recordings to int32 samples.
//
// Supported encodings:
//   - Raw: little-endian int16 or int32, frames x channels, no header
//   - Diff: raw frames stored as first differences along time and/or channels
//
// Example:
//
//	decoder, err := decode.NewRaw(format)
//	samples, err := decoder.Decode(data)
package decode
