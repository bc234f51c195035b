// ABOUTME: Pure windowed fetch and normalize pipeline
// ABOUTME: Loads a clamped window and renders it into a display image
package viewer

import (
	"context"
	"fmt"
	"image/color"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/display"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
)

// Params selects the window and scale for Render
type Params struct {
	Sample     int
	BufferSize int

	// Scale is computed from the loaded window when zero
	Scale display.Scale

	// LUT colours the normalized bytes; nil renders grayscale
	LUT *[256]color.RGBA

	// Baseline removes each channel's median from the loaded window
	Baseline bool
}

// AxesRange is the data extent of a frame: time on x, channel index on y
type AxesRange struct {
	T0, T1 float64
	Y0, Y1 float64
}

// Frame is one rendered view. It shares nothing with the Viewer.
type Frame struct {
	Image  *display.Image
	Window *ephys.Window
	Sample int
	Scale  display.Scale
	Range  AxesRange
}

// Render clamps p.Sample, loads the window from src and normalizes it
func Render(ctx context.Context, src source.Source, p Params) (Frame, error) {
	if p.BufferSize <= 0 {
		return Frame{}, fmt.Errorf("invalid buffer size %d", p.BufferSize)
	}

	sample := source.Clamp(p.Sample, src.NSamples(), p.BufferSize)
	w, err := src.Load(ctx, sample, p.BufferSize)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to load window at sample %d: %w", sample, err)
	}
	if w.Frames != p.BufferSize {
		return Frame{}, fmt.Errorf("source returned %d frames, expected %d", w.Frames, p.BufferSize)
	}
	if p.Baseline {
		display.SubtractMedian(w)
	}

	scale := p.Scale
	if scale.IsZero() {
		scale = display.ComputeScale(w)
	}
	return draw(w, src.Format().SampleRate, scale, p.LUT)
}

// draw normalizes an already loaded window
func draw(w *ephys.Window, rate float64, scale display.Scale, lut *[256]color.RGBA) (Frame, error) {
	norm, err := display.Normalize(w, scale)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to normalize window: %w", err)
	}

	img := display.NewImage(w.Channels, w.Frames)
	if lut != nil {
		err = img.FillLUT(norm, lut)
	} else {
		err = img.Fill(norm)
	}
	if err != nil {
		return Frame{}, err
	}

	return Frame{
		Image:  img,
		Window: w,
		Sample: w.Start,
		Scale:  scale,
		Range: AxesRange{
			T0: float64(w.Start) / rate,
			T1: float64(w.Start+w.Frames) / rate,
			Y0: 0,
			Y1: float64(w.Channels),
		},
	}, nil
}
