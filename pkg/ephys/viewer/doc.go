// ABOUTME: Package documentation for the navigation state machine
// ABOUTME: Describes the viewer lifecycle and command dispatch
// Package viewer drives a sliding window over a Source.
//
// A Viewer is always idle at a sample offset. Every command runs the same
// sequence synchronously: recompute the offset, clamp it, fetch the window,
// normalize it and produce a Frame. Zoom commands only change the scale and
// re-render the current window without fetching.
//
// Render is the pure form of the pipeline and needs no Viewer.
package viewer
