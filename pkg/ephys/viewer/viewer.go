// ABOUTME: Interactive ephys viewer state machine
// ABOUTME: Owns window offset, scale and image and applies navigation commands
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/Resonate-Protocol/rawview/pkg/colormap"
	"github.com/Resonate-Protocol/rawview/pkg/ephys"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/display"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
)

// DefaultBufferSize is the window length in frames
const DefaultBufferSize = 3000

// StepFraction is the part of the window moved by one step
const StepFraction = 0.25

// ErrInvalidTime is returned when goto text is not a number
var ErrInvalidTime = errors.New("viewer: invalid time")

// Options configures a Viewer
type Options struct {
	BufferSize int

	// Colormap colours the image; nil renders grayscale
	Colormap *colormap.Colormap

	// Baseline subtracts each channel's median from every loaded window,
	// so picked values are relative to the window baseline
	Baseline bool
}

// PickResult identifies the sample under a display position
type PickResult struct {
	Sample  int     `json:"sample"`
	Channel int     `json:"channel"`
	Time    float64 `json:"time"`
	Value   int32   `json:"value"`
}

// Viewer is a single-threaded navigation state machine over a Source
type Viewer struct {
	src        source.Source
	bufferSize int
	lut        *[256]color.RGBA
	baseline   bool

	sample int
	scale  display.Scale
	frame  Frame
	loaded bool
}

// New creates a viewer positioned at sample 0. Nothing is fetched until Load.
func New(src source.Source, opts Options) (*Viewer, error) {
	if src == nil {
		return nil, fmt.Errorf("viewer requires a source")
	}
	if opts.BufferSize == 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.BufferSize < 0 {
		return nil, fmt.Errorf("invalid buffer size %d", opts.BufferSize)
	}

	v := &Viewer{src: src, bufferSize: opts.BufferSize, baseline: opts.Baseline}
	if opts.Colormap != nil {
		v.lut = opts.Colormap.LUT()
	}
	return v, nil
}

// Source returns the underlying source
func (v *Viewer) Source() source.Source { return v.src }

// BufferSize returns the window length in frames
func (v *Viewer) BufferSize() int { return v.bufferSize }

// Sample returns the current window offset
func (v *Viewer) Sample() int { return v.sample }

// Time returns the current window offset in seconds
func (v *Viewer) Time() float64 {
	return float64(v.sample) / v.src.Format().SampleRate
}

// Duration returns the recording length in seconds, 0 while unknown
func (v *Viewer) Duration() float64 {
	return source.Duration(v.src)
}

// Scale returns the current scale
func (v *Viewer) Scale() display.Scale { return v.scale }

// Loaded reports whether a window has been rendered
func (v *Viewer) Loaded() bool { return v.loaded }

// Frame returns a copy of the last rendered frame
func (v *Viewer) Frame() Frame {
	f := v.frame
	if f.Image != nil {
		f.Image = f.Image.Clone()
	}
	if f.Window != nil {
		f.Window = f.Window.Clone()
	}
	f.Scale.Median = append([]float64(nil), f.Scale.Median...)
	return f
}

// Load fetches and renders the window at the current offset
func (v *Viewer) Load(ctx context.Context) error {
	return v.load(ctx, v.sample)
}

func (v *Viewer) load(ctx context.Context, sample int) error {
	f, err := Render(ctx, v.src, Params{
		Sample:     sample,
		BufferSize: v.bufferSize,
		Scale:      v.scale,
		LUT:        v.lut,
		Baseline:   v.baseline,
	})
	if err != nil {
		return err
	}

	v.sample = f.Sample
	v.scale = f.Scale
	v.frame = f
	v.loaded = true
	return nil
}

// Goto moves the window to start at the given time
func (v *Viewer) Goto(ctx context.Context, seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("%v: %w", seconds, ErrInvalidTime)
	}
	return v.load(ctx, v.src.Format().SampleAt(seconds))
}

// GotoText parses a time in seconds and moves there.
// Unparseable text leaves the state unchanged.
func (v *Viewer) GotoText(ctx context.Context, text string) error {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		log.Printf("Invalid time %s", text)
		return fmt.Errorf("%q: %w", text, ErrInvalidTime)
	}
	return v.Goto(ctx, seconds)
}

// Step moves by a quarter window: dir > 0 forward, dir < 0 back
func (v *Viewer) Step(ctx context.Context, dir int) error {
	delta := StepFraction * float64(v.bufferSize) / v.src.Format().SampleRate
	switch {
	case dir > 0:
		return v.Goto(ctx, v.Time()+delta)
	case dir < 0:
		return v.Goto(ctx, v.Time()-delta)
	}
	return nil
}

// Home moves to the start of the recording
func (v *Viewer) Home(ctx context.Context) error {
	return v.Goto(ctx, 0)
}

// End moves to the last full window of the recording
func (v *Viewer) End(ctx context.Context) error {
	return v.Goto(ctx, v.Duration())
}

// ZoomIn increases contrast and re-renders the current window
func (v *Viewer) ZoomIn() error {
	return v.rescale(v.scale.ZoomIn())
}

// ZoomOut decreases contrast and re-renders the current window
func (v *Viewer) ZoomOut() error {
	return v.rescale(v.scale.ZoomOut())
}

// ResetScale recomputes the scale from the current window
func (v *Viewer) ResetScale() error {
	if !v.loaded {
		return fmt.Errorf("no window loaded")
	}
	return v.rescale(display.ComputeScale(v.frame.Window))
}

func (v *Viewer) rescale(s display.Scale) error {
	if !v.loaded {
		return fmt.Errorf("no window loaded")
	}
	f, err := draw(v.frame.Window, v.src.Format().SampleRate, s, v.lut)
	if err != nil {
		return err
	}
	v.scale = s
	v.frame = f
	return nil
}

// Pick maps a display position to the sample under it. The display is
// width x height pixels with time on x and the highest channel at the top.
// Out-of-range positions are clamped.
func (v *Viewer) Pick(x, y, width, height float64) (PickResult, error) {
	if !v.loaded {
		return PickResult{}, fmt.Errorf("no window loaded")
	}
	if width <= 0 || height <= 0 {
		return PickResult{}, fmt.Errorf("invalid display size %gx%g", width, height)
	}

	w := v.frame.Window
	i := clampIndex(math.Floor(x*float64(v.bufferSize)/width), v.bufferSize)
	j := clampIndex(math.Floor(y*float64(w.Channels)/height), w.Channels)
	channel := w.Channels - 1 - j

	sample := v.sample + i
	res := PickResult{
		Sample:  sample,
		Channel: channel,
		Time:    float64(sample) / v.src.Format().SampleRate,
		Value:   w.At(i, channel),
	}
	log.Printf("Picked sample %d channel %d : %d", res.Sample, res.Channel, res.Value)
	return res, nil
}

func clampIndex(f float64, n int) int {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > float64(n-1) {
		return n - 1
	}
	return int(f)
}

// Apply dispatches one command
func (v *Viewer) Apply(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case StepLeft:
		return v.Step(ctx, -1)
	case StepRight:
		return v.Step(ctx, 1)
	case ZoomIn:
		return v.ZoomIn()
	case ZoomOut:
		return v.ZoomOut()
	case Home:
		return v.Home(ctx)
	case End:
		return v.End(ctx)
	case Goto:
		return v.GotoText(ctx, cmd.Text)
	case Reset:
		return v.ResetScale()
	}
	return fmt.Errorf("unknown command %q", cmd.Kind)
}

// Format returns the source format
func (v *Viewer) Format() ephys.Format {
	return v.src.Format()
}
