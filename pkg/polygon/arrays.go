// ABOUTME: Raw binary array readers
// ABOUTME: Reads headerless float64 pair and uint32 arrays from disk
package polygon

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// ReadPoints reads little-endian float64 pairs
func ReadPoints(path string) ([][2]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read points: %w", err)
	}
	return DecodePoints(data)
}

// DecodePoints decodes little-endian float64 pairs
func DecodePoints(data []byte) ([][2]float64, error) {
	if len(data)%16 != 0 {
		return nil, fmt.Errorf("points data length %d is not a multiple of 16", len(data))
	}
	points := make([][2]float64, len(data)/16)
	for i := range points {
		points[i][0] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*16:]))
		points[i][1] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*16+8:]))
	}
	return points, nil
}

// ReadLengths reads little-endian uint32 values
func ReadLengths(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lengths: %w", err)
	}
	return DecodeLengths(data)
}

// DecodeLengths decodes little-endian uint32 values
func DecodeLengths(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("lengths data length %d is not a multiple of 4", len(data))
	}
	lengths := make([]uint32, len(data)/4)
	for i := range lengths {
		lengths[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return lengths, nil
}
