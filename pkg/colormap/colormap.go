// ABOUTME: Scalar colormaps for polygons and display images
// ABOUTME: Interpolates colour stops in CIE-Lab space
package colormap

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Colormap maps scalars in [0, 1] to colours along evenly spaced stops
type Colormap struct {
	Name  string
	stops []colorful.Color
}

// Viridis is the perceptually uniform default
var Viridis = mustNew("viridis",
	"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725")

// Gray maps 0 to black and 1 to white
var Gray = mustNew("gray", "#000000", "#ffffff")

var registry = map[string]*Colormap{
	Viridis.Name: Viridis,
	Gray.Name:    Gray,
}

// New builds a colormap from two or more hex stops
func New(name string, hex ...string) (*Colormap, error) {
	if len(hex) < 2 {
		return nil, fmt.Errorf("colormap %s needs at least 2 stops, got %d", name, len(hex))
	}
	stops := make([]colorful.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("colormap %s stop %d: %w", name, i, err)
		}
		stops[i] = c
	}
	return &Colormap{Name: name, stops: stops}, nil
}

func mustNew(name string, hex ...string) *Colormap {
	c, err := New(name, hex...)
	if err != nil {
		panic(err)
	}
	return c
}

// ByName looks up a registered colormap
func ByName(name string) (*Colormap, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown colormap: %q (available: %v)", name, Names())
	}
	return c, nil
}

// Names lists registered colormaps
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// At returns the colour at t, clamped into [0, 1]. NaN maps to the first stop.
func (c *Colormap) At(t float64) color.RGBA {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	pos := t * float64(len(c.stops)-1)
	i := int(pos)
	if i >= len(c.stops)-1 {
		i = len(c.stops) - 2
	}
	blended := c.stops[i].BlendLab(c.stops[i+1], pos-float64(i)).Clamped()

	r, g, b := blended.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Map normalizes v over [vmin, vmax] and returns its colour
func (c *Colormap) Map(v, vmin, vmax float64) color.RGBA {
	if vmax == vmin {
		return c.At(0)
	}
	return c.At((v - vmin) / (vmax - vmin))
}

// MapAll maps every value
func (c *Colormap) MapAll(values []float64, vmin, vmax float64) []color.RGBA {
	out := make([]color.RGBA, len(values))
	for i, v := range values {
		out[i] = c.Map(v, vmin, vmax)
	}
	return out
}

// LUT samples the colormap at 256 evenly spaced points for byte images
func (c *Colormap) LUT() *[256]color.RGBA {
	var lut [256]color.RGBA
	for i := range lut {
		lut[i] = c.At(float64(i) / 255)
	}
	return &lut
}
