// ABOUTME: Polygon rasterizer visual
// ABOUTME: Fills uploaded polygons into an RGBA image and writes PNG files
package polygon

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/vector"
)

// Raster is a Visual that fills polygons into a fixed-size image.
// The data bounding box is fitted into the image with a margin, north up.
type Raster struct {
	Width      int
	Height     int
	Margin     int
	Background color.RGBA

	pos    [][3]float64
	length []uint32
	colors []color.RGBA
}

// NewRaster creates a rasterizer with a white background
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:      width,
		Height:     height,
		Margin:     8,
		Background: color.RGBA{255, 255, 255, 255},
	}
}

// Data stores one slot
func (r *Raster) Data(slot string, value any) error {
	switch slot {
	case SlotPos:
		v, ok := value.([][3]float64)
		if !ok {
			return fmt.Errorf("slot %s expects [][3]float64, got %T", slot, value)
		}
		r.pos = v
	case SlotLength:
		v, ok := value.([]uint32)
		if !ok {
			return fmt.Errorf("slot %s expects []uint32, got %T", slot, value)
		}
		r.length = v
	case SlotColor:
		v, ok := value.([]color.RGBA)
		if !ok {
			return fmt.Errorf("slot %s expects []color.RGBA, got %T", slot, value)
		}
		r.colors = v
	default:
		return fmt.Errorf("unknown slot: %s", slot)
	}
	return nil
}

// Render fills every polygon and returns the image
func (r *Raster) Render() (*image.RGBA, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", r.Width, r.Height)
	}
	var total uint64
	for _, n := range r.length {
		total += uint64(n)
	}
	if total != uint64(len(r.pos)) {
		return nil, fmt.Errorf("%d vertices declared, %d uploaded: %w", total, len(r.pos), ErrLengthMismatch)
	}
	if len(r.colors) != len(r.length) {
		return nil, fmt.Errorf("%d colours for %d polygons", len(r.colors), len(r.length))
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)

	toPixel := r.fit()
	z := vector.NewRasterizer(r.Width, r.Height)

	start := 0
	for k, n := range r.length {
		verts := r.pos[start : start+int(n)]
		start += int(n)
		if len(verts) < 3 {
			continue
		}

		z.Reset(r.Width, r.Height)
		x, y := toPixel(verts[0])
		z.MoveTo(x, y)
		for _, v := range verts[1:] {
			x, y = toPixel(v)
			z.LineTo(x, y)
		}
		z.ClosePath()
		z.Draw(dst, dst.Bounds(), image.NewUniform(r.colors[k]), image.Point{})
	}
	return dst, nil
}

// fit returns the data-to-pixel transform for the current positions
func (r *Raster) fit() func(p [3]float64) (float32, float32) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range r.pos {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}

	w := float64(r.Width - 2*r.Margin)
	h := float64(r.Height - 2*r.Margin)
	spanX, spanY := maxX-minX, maxY-minY
	scale := 1.0
	switch {
	case spanX > 0 && spanY > 0:
		scale = math.Min(w/spanX, h/spanY)
	case spanX > 0:
		scale = w / spanX
	case spanY > 0:
		scale = h / spanY
	}

	offX := float64(r.Margin) + (w-spanX*scale)/2
	offY := float64(r.Margin) + (h-spanY*scale)/2
	return func(p [3]float64) (float32, float32) {
		x := offX + (p[0]-minX)*scale
		y := offY + (maxY-p[1])*scale
		return float32(x), float32(y)
	}
}

// WritePNG renders and encodes the image to w
func (r *Raster) WritePNG(w io.Writer) error {
	img, err := r.Render()
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// SavePNG renders to a PNG file
func (r *Raster) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := r.WritePNG(f); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}
