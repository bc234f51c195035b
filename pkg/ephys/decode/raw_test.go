// ABOUTME: Tests for raw and diff decoders
// ABOUTME: Tests little-endian decoding, frame validation and diff undoing
package decode

import (
	"encoding/binary"
	"testing"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

func encodeInt16(values ...int16) []byte {
	b := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func TestNewRawInvalidFormat(t *testing.T) {
	_, err := NewRaw(ephys.Format{NChannels: 0, SampleRate: 30000, DType: ephys.Int16})
	if err == nil {
		t.Error("expected error for zero channels")
	}
}

func TestRawDecodeInt16(t *testing.T) {
	dec, err := NewRaw(ephys.Format{NChannels: 2, SampleRate: 30000, DType: ephys.Int16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	samples, err := dec.Decode(encodeInt16(1, -1, 32767, -32768))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	expected := []int32{1, -1, 32767, -32768}
	if len(samples) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(samples))
	}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], samples[i])
		}
	}
}

func TestRawDecodeInt32(t *testing.T) {
	dec, err := NewRaw(ephys.Format{NChannels: 1, SampleRate: 1000, DType: ephys.Int32})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data, uint32(100000))
	binary.LittleEndian.PutUint32(data[4:], uint32(0xFFFFFFFF))

	samples, err := dec.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if samples[0] != 100000 || samples[1] != -1 {
		t.Errorf("unexpected samples: %v", samples)
	}
}

func TestRawDecodePartialFrame(t *testing.T) {
	dec, _ := NewRaw(ephys.Format{NChannels: 2, SampleRate: 30000, DType: ephys.Int16})

	if _, err := dec.Decode(encodeInt16(1, 2, 3)); err == nil {
		t.Error("expected error for partial frame")
	}
}

func TestDiffDecodeTime(t *testing.T) {
	format := ephys.Format{NChannels: 2, SampleRate: 30000, DType: ephys.Int16}
	dec, err := NewDiff(format, true, false)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// Decoded frames: (10, 20), (11, 18), (15, 18)
	samples, err := dec.Decode(encodeInt16(10, 20, 1, -2, 4, 0))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	expected := []int32{10, 20, 11, 18, 15, 18}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], samples[i])
		}
	}
}

func TestDiffDecodeTimeAndSpatial(t *testing.T) {
	format := ephys.Format{NChannels: 3, SampleRate: 30000, DType: ephys.Int16}
	dec, err := NewDiff(format, true, true)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// Decoded frames: (1, 2, 4), (2, 4, 8)
	// Spatial diff: (1, 1, 2), (2, 2, 4); then time diff: (1, 1, 2), (1, 1, 2)
	samples, err := dec.Decode(encodeInt16(1, 1, 2, 1, 1, 2))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	expected := []int32{1, 2, 4, 2, 4, 8}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], samples[i])
		}
	}
}

func TestDiffDecodeWraps(t *testing.T) {
	format := ephys.Format{NChannels: 1, SampleRate: 30000, DType: ephys.Int16}
	dec, _ := NewDiff(format, true, false)

	samples, err := dec.Decode(encodeInt16(32767, 1))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if samples[1] != -32768 {
		t.Errorf("expected int16 wraparound to -32768, got %d", samples[1])
	}
}
