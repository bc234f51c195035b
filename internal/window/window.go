// ABOUTME: Desktop window front end for the ephys viewer
// ABOUTME: Holds the input controller shared by the ebiten backend and the stub
package window

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Resonate-Protocol/rawview/pkg/ephys/viewer"
)

// ErrUnavailable is returned by Run when the binary was built without cgo
var ErrUnavailable = errors.New("window: not available in this build")

// Options configures the window
type Options struct {
	Title  string
	Width  int
	Height int
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "rawview"
	}
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.Height <= 0 {
		o.Height = 770
	}
	return o
}

// controller turns input events into viewer operations. It runs on the
// game loop goroutine only.
type controller struct {
	ctx    context.Context
	viewer *viewer.Viewer

	prompt bool
	input  []rune
	status string

	// version increments whenever the displayed frame changes
	version int
}

func newController(ctx context.Context, v *viewer.Viewer) *controller {
	return &controller{ctx: ctx, viewer: v}
}

func (c *controller) load() error {
	if err := c.viewer.Load(c.ctx); err != nil {
		return fmt.Errorf("failed to load first window: %w", err)
	}
	c.refreshed()
	return nil
}

// command applies one navigation or zoom command
func (c *controller) command(kind viewer.Kind, text string) {
	if err := c.viewer.Apply(c.ctx, viewer.Command{Kind: kind, Text: text}); err != nil {
		log.Printf("Command %s failed: %v", kind, err)
		if errors.Is(err, viewer.ErrInvalidTime) {
			c.status = "Invalid time " + text
		} else {
			c.status = err.Error()
		}
		return
	}
	c.refreshed()
}

func (c *controller) refreshed() {
	c.version++
	f := c.viewer.Frame()
	c.status = fmt.Sprintf("%.3fs - %.3fs  std %.1f", f.Range.T0, f.Range.T1, f.Scale.Std)
}

func (c *controller) openPrompt() {
	c.prompt = true
	c.input = c.input[:0]
}

func (c *controller) typed(rs []rune) {
	if c.prompt {
		c.input = append(c.input, rs...)
	}
}

func (c *controller) backspace() {
	if c.prompt && len(c.input) > 0 {
		c.input = c.input[:len(c.input)-1]
	}
}

func (c *controller) cancel() {
	c.prompt = false
	c.input = c.input[:0]
}

func (c *controller) commit() {
	if !c.prompt {
		return
	}
	text := string(c.input)
	c.cancel()
	if text == "" {
		return
	}
	c.command(viewer.Goto, text)
}

// click picks the sample under a position of a width x height view
func (c *controller) click(x, y, width, height float64) {
	res, err := c.viewer.Pick(x, y, width, height)
	if err != nil {
		c.status = err.Error()
		return
	}
	log.Printf("Picked sample %d channel %d value %d", res.Sample, res.Channel, res.Value)
	c.status = fmt.Sprintf("Picked sample %d (%.4fs) channel %d : %d", res.Sample, res.Time, res.Channel, res.Value)
}

// overlay returns the text drawn over the image
func (c *controller) overlay() string {
	if c.prompt {
		return "Go to time (s): " + string(c.input) + "_"
	}
	return c.status
}
