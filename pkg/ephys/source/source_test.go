// ABOUTME: Tests for window clamping and in-memory sources
// ABOUTME: Tests clamp bounds, memory windows and synthetic generation
package source

import (
	"context"
	"errors"
	"testing"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

func testFormat(channels int, rate float64) ephys.Format {
	return ephys.Format{NChannels: channels, SampleRate: rate, DType: ephys.Int16}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name       string
		sample     int
		nSamples   int
		bufferSize int
		expected   int
	}{
		{"inside", 500, 10000, 3000, 500},
		{"negative", -750, 10000, 3000, 0},
		{"past end", 9000, 10000, 3000, 7000},
		{"exact end", 7000, 10000, 3000, 7000},
		{"unknown length", 123456, 0, 3000, 123456},
		{"unknown length negative", -5, 0, 3000, 0},
		{"shorter than buffer", 50, 1000, 3000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.sample, tt.nSamples, tt.bufferSize)
			if got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestClampBoundsProperty(t *testing.T) {
	for _, nSamples := range []int{1, 2999, 3000, 3001, 90000} {
		upper := nSamples - 3000
		if upper < 0 {
			upper = 0
		}
		for s := -10000; s <= 100000; s += 997 {
			got := Clamp(s, nSamples, 3000)
			if got < 0 || got > upper {
				t.Fatalf("Clamp(%d, %d, 3000) = %d outside [0, %d]", s, nSamples, got, upper)
			}
		}
	}
}

func TestMemorySourceLoad(t *testing.T) {
	samples := []int32{0, 1, 10, 11, 20, 21, 30, 31}
	src, err := NewMemory(testFormat(2, 1000), samples)
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}

	if src.NSamples() != 4 {
		t.Errorf("expected 4 samples, got %d", src.NSamples())
	}

	w, err := src.Load(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if w.Start != 1 || w.Frames != 2 || w.Channels != 2 {
		t.Errorf("unexpected window shape: %+v", w)
	}
	if w.At(0, 0) != 10 || w.At(1, 1) != 21 {
		t.Errorf("unexpected window samples: %v", w.Samples)
	}

	// Mutating the window must not touch the source
	w.Set(0, 0, -1)
	again, _ := src.Load(context.Background(), 1, 2)
	if again.At(0, 0) != 10 {
		t.Error("window should be a copy of the source samples")
	}
}

func TestMemorySourceOutOfRange(t *testing.T) {
	src, _ := NewMemory(testFormat(1, 1000), make([]int32, 10))

	_, err := src.Load(context.Background(), 8, 3)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestNewMemoryPartialFrame(t *testing.T) {
	_, err := NewMemory(testFormat(3, 1000), make([]int32, 7))
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestSyntheticDeterministic(t *testing.T) {
	src, err := NewSynthetic(testFormat(4, 30000), 60000)
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}

	a, err := src.Load(context.Background(), 1000, 300)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	b, _ := src.Load(context.Background(), 1000, 300)

	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("sample %d differs between loads", i)
		}
	}

	// Frame 0 is the pure baseline: sin(0) = 0
	first, _ := src.Load(context.Background(), 0, 1)
	for j := 0; j < 4; j++ {
		if first.At(0, j) != int32(10*j) {
			t.Errorf("channel %d: expected baseline %d, got %d", j, 10*j, first.At(0, j))
		}
	}
}

func TestDuration(t *testing.T) {
	src, _ := NewSynthetic(testFormat(1, 30000), 90000)
	if d := Duration(src); d != 3 {
		t.Errorf("expected 3s, got %v", d)
	}
}
