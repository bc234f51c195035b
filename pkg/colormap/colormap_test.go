// ABOUTME: Tests for scalar colormaps
// ABOUTME: Tests endpoints, clamping, registry lookup and lookup tables
package colormap

import (
	"image/color"
	"math"
	"testing"
)

func TestViridisEndpoints(t *testing.T) {
	lo := Viridis.At(0)
	hi := Viridis.At(1)

	if lo != (color.RGBA{0x44, 0x01, 0x54, 255}) {
		t.Errorf("expected viridis start #440154, got %+v", lo)
	}
	if hi != (color.RGBA{0xfd, 0xe7, 0x25, 255}) {
		t.Errorf("expected viridis end #fde725, got %+v", hi)
	}
}

func TestAtClamps(t *testing.T) {
	if Gray.At(-3) != Gray.At(0) {
		t.Error("values below 0 should clamp to the first stop")
	}
	if Gray.At(7) != Gray.At(1) {
		t.Error("values above 1 should clamp to the last stop")
	}
	if Gray.At(math.NaN()) != Gray.At(0) {
		t.Error("NaN should map to the first stop")
	}
}

func TestGrayIsMonotonic(t *testing.T) {
	prev := -1
	for i := 0; i <= 10; i++ {
		c := Gray.At(float64(i) / 10)
		if int(c.R) < prev {
			t.Fatalf("gray not monotonic at step %d: %d < %d", i, c.R, prev)
		}
		prev = int(c.R)
	}
	if Gray.At(1).R != 255 {
		t.Errorf("expected white at 1, got %d", Gray.At(1).R)
	}
}

func TestMapRange(t *testing.T) {
	if Viridis.Map(5, 0, 10) != Viridis.At(0.5) {
		t.Error("expected Map to normalize over [vmin, vmax]")
	}
	if Viridis.Map(3, 3, 3) != Viridis.At(0) {
		t.Error("degenerate range should map to the first stop")
	}

	colors := Viridis.MapAll([]float64{0, 1}, 0, 1)
	if len(colors) != 2 || colors[0] != Viridis.At(0) || colors[1] != Viridis.At(1) {
		t.Errorf("unexpected MapAll result: %v", colors)
	}
}

func TestByName(t *testing.T) {
	c, err := ByName("viridis")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if c != Viridis {
		t.Error("expected the registered viridis colormap")
	}

	if _, err := ByName("jet"); err == nil {
		t.Error("expected error for unknown colormap")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("one", "#000000"); err == nil {
		t.Error("expected error for a single stop")
	}
	if _, err := New("bad", "#000000", "not-a-colour"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestLUT(t *testing.T) {
	lut := Gray.LUT()
	if lut[0] != Gray.At(0) || lut[255] != Gray.At(1) {
		t.Error("LUT endpoints should match the colormap endpoints")
	}
	for i, c := range lut {
		if c.A != 255 {
			t.Fatalf("LUT entry %d not opaque", i)
		}
	}
}
