// ABOUTME: Polygon dataset construction and upload
// ABOUTME: Reorders coordinates, projects them and assigns per-polygon colours
package polygon

import (
	"errors"
	"fmt"
	"image/color"
	"math/rand/v2"

	"github.com/Resonate-Protocol/rawview/pkg/colormap"
)

// Slot names understood by polygon visuals
const (
	SlotPos    = "pos"
	SlotLength = "length"
	SlotColor  = "color"
)

// ErrLengthMismatch is returned when vertex counts do not add up to the point count
var ErrLengthMismatch = errors.New("polygon: lengths do not sum to point count")

// Projector maps latitude/longitude in degrees to plane coordinates
type Projector func(lat, lon float64) (x, y float64)

// Equirectangular plots longitude on x and latitude on y unchanged
func Equirectangular(lat, lon float64) (float64, float64) {
	return lon, lat
}

// Options configures Build
type Options struct {
	// Project maps (lat, lon) to (x, y). Default: Equirectangular.
	Project Projector

	// Colormap colours the per-polygon values. Default: colormap.Viridis.
	Colormap *colormap.Colormap

	// Rand draws one value in [0, 1) per polygon. Default: seeded with 0.
	Rand *rand.Rand

	// VMin and VMax bound the colormap range. Default: [0, 1].
	VMin, VMax float64
}

// Polygons holds the arrays a polygon visual consumes
type Polygons struct {
	Pos    [][3]float64
	Length []uint32
	Color  []color.RGBA
}

// Build reorders each stored pair (a, b) to (lat=b, lon=a), projects it and
// colours each polygon from a random scalar.
func Build(points [][2]float64, lengths []uint32, opts Options) (*Polygons, error) {
	var total uint64
	for _, n := range lengths {
		total += uint64(n)
	}
	if total != uint64(len(points)) {
		return nil, fmt.Errorf("%d vertices declared, %d points read: %w", total, len(points), ErrLengthMismatch)
	}

	if opts.Project == nil {
		opts.Project = Equirectangular
	}
	if opts.Colormap == nil {
		opts.Colormap = colormap.Viridis
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(0, 0))
	}
	if opts.VMin == 0 && opts.VMax == 0 {
		opts.VMax = 1
	}

	pos := make([][3]float64, len(points))
	for i, p := range points {
		lat, lon := p[1], p[0]
		x, y := opts.Project(lat, lon)
		pos[i] = [3]float64{x, y, 0}
	}

	values := make([]float64, len(lengths))
	for i := range values {
		values[i] = opts.Rand.Float64()
	}

	return &Polygons{
		Pos:    pos,
		Length: append([]uint32(nil), lengths...),
		Color:  opts.Colormap.MapAll(values, opts.VMin, opts.VMax),
	}, nil
}

// Visual receives named data slots
type Visual interface {
	Data(slot string, value any) error
}

// Upload sends pos, length and color to v
func Upload(v Visual, p *Polygons) error {
	if err := v.Data(SlotPos, p.Pos); err != nil {
		return fmt.Errorf("failed to upload %s: %w", SlotPos, err)
	}
	if err := v.Data(SlotLength, p.Length); err != nil {
		return fmt.Errorf("failed to upload %s: %w", SlotLength, err)
	}
	if err := v.Data(SlotColor, p.Color); err != nil {
		return fmt.Errorf("failed to upload %s: %w", SlotColor, err)
	}
	return nil
}
