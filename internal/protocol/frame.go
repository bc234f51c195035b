// ABOUTME: Binary image frame encoding
// ABOUTME: Packs a rendered display image behind a fixed header
package protocol

import (
	"encoding/binary"
	"fmt"
)

// FrameMessageType is the first byte of a binary image frame
const FrameMessageType = 4

// FrameHeaderSize is type(1) + sample(8) + channels(2) + frames(4)
const FrameHeaderSize = 15

// ImageFrame is a decoded binary frame. Pix is channels x frames RGBA,
// row j holding channel j.
type ImageFrame struct {
	Sample   int64
	Channels int
	Frames   int
	Pix      []byte
}

// EncodeFrame builds a binary frame message
func EncodeFrame(sample int64, channels, frames int, pix []byte) ([]byte, error) {
	if channels <= 0 || channels > 0xFFFF {
		return nil, fmt.Errorf("channel count %d does not fit the frame header", channels)
	}
	if len(pix) != channels*frames*4 {
		return nil, fmt.Errorf("pixel buffer has %d bytes, expected %d", len(pix), channels*frames*4)
	}

	msg := make([]byte, FrameHeaderSize+len(pix))
	msg[0] = FrameMessageType
	binary.BigEndian.PutUint64(msg[1:9], uint64(sample))
	binary.BigEndian.PutUint16(msg[9:11], uint16(channels))
	binary.BigEndian.PutUint32(msg[11:15], uint32(frames))
	copy(msg[FrameHeaderSize:], pix)
	return msg, nil
}

// DecodeFrame parses a binary frame message
func DecodeFrame(msg []byte) (*ImageFrame, error) {
	if len(msg) < FrameHeaderSize {
		return nil, fmt.Errorf("frame too short: %d bytes", len(msg))
	}
	if msg[0] != FrameMessageType {
		return nil, fmt.Errorf("unexpected binary message type %d", msg[0])
	}

	f := &ImageFrame{
		Sample:   int64(binary.BigEndian.Uint64(msg[1:9])),
		Channels: int(binary.BigEndian.Uint16(msg[9:11])),
		Frames:   int(binary.BigEndian.Uint32(msg[11:15])),
	}
	if len(msg)-FrameHeaderSize != f.Channels*f.Frames*4 {
		return nil, fmt.Errorf("frame payload has %d bytes, header says %dx%d",
			len(msg)-FrameHeaderSize, f.Channels, f.Frames)
	}
	f.Pix = msg[FrameHeaderSize:]
	return f, nil
}
