// ABOUTME: Sample source package for windowed fetches
// ABOUTME: Provides Source interface plus file, remote, memory and synthetic sources
// Package source provides windowed access to multi-channel recordings.
//
// Every Source answers one question: give me exactly n consecutive frames
// starting at an absolute sample offset. Implementations:
//   - FileSource: memory-mapped flat binary file
//   - RemoteSource: whole-second chunks from an injected Fetcher
//   - MemorySource: samples held in memory
//   - SyntheticSource: deterministic generated signal
//
// Callers clamp offsets with Clamp before loading; sources report
// out-of-range requests instead of silently shifting them.
package source
