// ABOUTME: Display normalization package
// ABOUTME: Maps raw sample windows to 8-bit display images
// Package display turns raw sample windows into displayable byte images.
//
// The mapping is linear: every sample has its channel's median removed, is
// divided by the window's standard deviation and lands on [0, 255] with the
// baseline at mid-grey:
//
//	out = clip(((x - median) / std + 1) * 255 * 0.5, 0, 255)
//
// A Scale is computed once and then carried explicitly; zooming changes only
// its spread term.
package display
