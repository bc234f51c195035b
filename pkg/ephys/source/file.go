// ABOUTME: Memory-mapped file source
// ABOUTME: Slices windows directly out of a flat interleaved binary recording
package source

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/exp/mmap"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/decode"
)

// FileSource reads from a memory-mapped flat binary file
type FileSource struct {
	path     string
	format   ephys.Format
	offset   int64
	nSamples int
	reader   *mmap.ReaderAt
	decoder  *decode.RawDecoder
}

// OpenFile maps a headerless recording of frames x channels, skipping offset bytes
func OpenFile(path string, format ephys.Format, offset int64) (*FileSource, error) {
	decoder, err := decode.NewRaw(format)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("invalid offset: %d", offset)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat recording: %w", err)
	}

	payload := info.Size() - offset
	frameSize := int64(format.FrameSize())
	if payload < 0 || payload%frameSize != 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrTruncated)
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to map recording: %w", err)
	}

	nSamples := int(payload / frameSize)
	log.Printf("Mapped recording: %s (%d channels, %d samples, %.1fs)",
		path, format.NChannels, nSamples, format.Duration(nSamples))

	return &FileSource{
		path:     path,
		format:   format,
		offset:   offset,
		nSamples: nSamples,
		reader:   reader,
		decoder:  decoder,
	}, nil
}

func (s *FileSource) Format() ephys.Format { return s.format }
func (s *FileSource) NSamples() int        { return s.nSamples }
func (s *FileSource) Path() string         { return s.path }

// Load slices frames [start, start+n) out of the mapping
func (s *FileSource) Load(ctx context.Context, start, n int) (*ephys.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRange(start, n, s.nSamples); err != nil {
		return nil, fmt.Errorf("load [%d, %d) of %d samples: %w", start, start+n, s.nSamples, err)
	}

	frameSize := int64(s.format.FrameSize())
	buf := make([]byte, int64(n)*frameSize)
	if _, err := s.reader.ReadAt(buf, s.offset+int64(start)*frameSize); err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}

	samples, err := s.decoder.Decode(buf)
	if err != nil {
		return nil, err
	}

	return &ephys.Window{
		Start:    start,
		Frames:   n,
		Channels: s.format.NChannels,
		Samples:  samples,
	}, nil
}

// Close unmaps the file
func (s *FileSource) Close() error {
	return s.reader.Close()
}
