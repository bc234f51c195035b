// ABOUTME: Tests for memory-mapped file source
// ABOUTME: Tests sample counting, truncation detection and window slicing
package source

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeRecording writes frames x channels int16 samples where sample (i, j) = i*100 + j
func writeRecording(t *testing.T, frames, channels int, header []byte) string {
	t.Helper()

	data := append([]byte(nil), header...)
	buf := make([]byte, 2)
	for i := 0; i < frames; i++ {
		for j := 0; j < channels; j++ {
			binary.LittleEndian.PutUint16(buf, uint16(int16(i*100+j)))
			data = append(data, buf...)
		}
	}

	path := filepath.Join(t.TempDir(), "raw_ephys.bin")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write recording: %v", err)
	}
	return path
}

func TestOpenFile(t *testing.T) {
	path := writeRecording(t, 50, 3, nil)

	src, err := OpenFile(path, testFormat(3, 1000), 0)
	if err != nil {
		t.Fatalf("failed to open file: %v", err)
	}
	defer src.Close()

	if src.NSamples() != 50 {
		t.Errorf("expected 50 samples, got %d", src.NSamples())
	}

	w, err := src.Load(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if w.Frames != 5 || w.Channels != 3 {
		t.Fatalf("unexpected window shape: %d x %d", w.Frames, w.Channels)
	}
	if w.At(0, 0) != 1000 || w.At(4, 2) != 1402 {
		t.Errorf("unexpected samples: first=%d last=%d", w.At(0, 0), w.At(4, 2))
	}
}

func TestOpenFileWithOffset(t *testing.T) {
	path := writeRecording(t, 10, 2, []byte{0xAA, 0xBB, 0xCC, 0xDD})

	src, err := OpenFile(path, testFormat(2, 1000), 4)
	if err != nil {
		t.Fatalf("failed to open file: %v", err)
	}
	defer src.Close()

	w, err := src.Load(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if w.At(0, 0) != 0 || w.At(0, 1) != 1 {
		t.Errorf("header bytes leaked into samples: %v", w.Samples)
	}
}

func TestOpenFileTruncated(t *testing.T) {
	path := writeRecording(t, 10, 3, nil)

	// 10 frames of 3 channels do not divide into 4-channel frames
	_, err := OpenFile(path, testFormat(4, 1000), 0)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.bin"), testFormat(1, 1000), 0)
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileLoadOutOfRange(t *testing.T) {
	path := writeRecording(t, 20, 1, nil)
	src, err := OpenFile(path, testFormat(1, 1000), 0)
	if err != nil {
		t.Fatalf("failed to open file: %v", err)
	}
	defer src.Close()

	_, err = src.Load(context.Background(), 15, 10)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}
