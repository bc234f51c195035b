//go:build cgo

// ABOUTME: Ebiten backend for the desktop window
// ABOUTME: Draws the display image scaled to the window and polls keys and mouse
package window

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Resonate-Protocol/rawview/pkg/ephys/viewer"
)

// keyCommands maps keys to viewer commands outside the goto prompt
var keyCommands = map[ebiten.Key]viewer.Kind{
	ebiten.KeyArrowLeft:      viewer.StepLeft,
	ebiten.KeyArrowRight:     viewer.StepRight,
	ebiten.KeyEqual:          viewer.ZoomIn,
	ebiten.KeyNumpadAdd:      viewer.ZoomIn,
	ebiten.KeyMinus:          viewer.ZoomOut,
	ebiten.KeyNumpadSubtract: viewer.ZoomOut,
	ebiten.KeyHome:           viewer.Home,
	ebiten.KeyEnd:            viewer.End,
	ebiten.KeyR:              viewer.Reset,
}

// Run opens a window over the viewer and blocks until it closes
func Run(ctx context.Context, v *viewer.Viewer, opts Options) error {
	opts = opts.withDefaults()

	c := newController(ctx, v)
	if err := c.load(); err != nil {
		return err
	}

	g := &game{c: c}
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run window: %w", err)
	}
	return nil
}

type game struct {
	c       *controller
	img     *ebiten.Image
	version int
	width   int
	height  int
}

func (g *game) Update() error {
	if err := g.c.ctx.Err(); err != nil {
		return ebiten.Termination
	}

	if g.c.prompt {
		g.c.typed(ebiten.AppendInputChars(nil))
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyEnter), inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter):
			g.c.commit()
		case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
			g.c.cancel()
		case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
			g.c.backspace()
		}
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.c.openPrompt()
		return nil
	}
	for key, kind := range keyCommands {
		if inpututil.IsKeyJustPressed(key) {
			g.c.command(kind, "")
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && g.width > 0 && g.height > 0 {
		x, y := ebiten.CursorPosition()
		if x >= 0 && y >= 0 && x < g.width && y < g.height {
			g.c.click(float64(x), float64(y), float64(g.width), float64(g.height))
		}
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	f := g.c.viewer.Frame()
	if f.Image == nil {
		ebitenutil.DebugPrint(screen, g.c.overlay())
		return
	}

	w, h := f.Image.Frames, f.Image.Channels
	if g.img == nil || g.img.Bounds().Dx() != w || g.img.Bounds().Dy() != h {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(w, h)
		g.version = -1
	}
	if g.version != g.c.version {
		g.img.WritePixels(f.Image.Screen().Pix)
		g.version = g.c.version
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.width)/float64(w), float64(g.height)/float64(h))
	screen.DrawImage(g.img, op)
	ebitenutil.DebugPrint(screen, g.c.overlay())
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
