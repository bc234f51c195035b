// ABOUTME: Partial downloader for compressed recordings
// ABOUTME: Fetches whole-second chunks with HTTP range requests and decompresses them
package one

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/decode"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
)

// ErrBadMetadata is returned for inconsistent chunk metadata
var ErrBadMetadata = errors.New("one: invalid compression metadata")

// Meta is the JSON sidecar describing a compressed recording.
// Chunk k holds frames [ChunkBounds[k], ChunkBounds[k+1]) stored at bytes
// [ChunkOffsets[k], ChunkOffsets[k+1]) of the data file.
type Meta struct {
	Version       string  `json:"version"`
	Algorithm     string  `json:"algorithm"`
	DType         string  `json:"dtype"`
	NChannels     int     `json:"n_channels"`
	SampleRate    float64 `json:"sample_rate"`
	ChunkBounds   []int   `json:"chunk_bounds"`
	ChunkOffsets  []int64 `json:"chunk_offsets"`
	DoTimeDiff    bool    `json:"do_time_diff"`
	DoSpatialDiff bool    `json:"do_spatial_diff"`
}

// Format returns the sample format of the recording
func (m *Meta) Format() (ephys.Format, error) {
	dtype, err := ephys.ParseDType(m.DType)
	if err != nil {
		return ephys.Format{}, err
	}
	f := ephys.Format{NChannels: m.NChannels, SampleRate: m.SampleRate, DType: dtype}
	return f, f.Validate()
}

// NChunks returns the number of compressed chunks
func (m *Meta) NChunks() int {
	return len(m.ChunkBounds) - 1
}

// TotalSamples returns the number of frames in the recording
func (m *Meta) TotalSamples() int {
	return m.ChunkBounds[len(m.ChunkBounds)-1]
}

func (m *Meta) validate() error {
	if m.Algorithm != "" && m.Algorithm != "zlib" {
		return fmt.Errorf("algorithm %q: %w", m.Algorithm, ErrBadMetadata)
	}
	if len(m.ChunkBounds) < 2 || len(m.ChunkOffsets) != len(m.ChunkBounds) {
		return fmt.Errorf("%d bounds, %d offsets: %w", len(m.ChunkBounds), len(m.ChunkOffsets), ErrBadMetadata)
	}
	for k := 1; k < len(m.ChunkBounds); k++ {
		if m.ChunkBounds[k] < m.ChunkBounds[k-1] || m.ChunkOffsets[k] < m.ChunkOffsets[k-1] {
			return fmt.Errorf("chunk %d is not increasing: %w", k, ErrBadMetadata)
		}
	}
	if _, err := m.Format(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrBadMetadata)
	}
	return nil
}

// Downloader implements source.Fetcher over HTTP
type Downloader struct {
	client   *http.Client
	username string
	password string

	mu   sync.Mutex
	meta map[string]*Meta
}

// DownloaderOptions configures NewDownloader
type DownloaderOptions struct {
	// Username and Password enable basic auth on the data server
	Username string
	Password string

	Timeout time.Duration
}

// NewDownloader creates a downloader
func NewDownloader(opts DownloaderOptions) *Downloader {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Downloader{
		client:   &http.Client{Timeout: opts.Timeout},
		username: opts.Username,
		password: opts.Password,
		meta:     make(map[string]*Meta),
	}
}

// Meta returns the parsed metadata sidecar, fetched once per URL
func (d *Downloader) Meta(ctx context.Context, url string) (*Meta, error) {
	d.mu.Lock()
	m, ok := d.meta[url]
	d.mu.Unlock()
	if ok {
		return m, nil
	}

	log.Printf("Downloading metadata: %s", url)
	body, err := d.get(ctx, url, "")
	if err != nil {
		return nil, fmt.Errorf("failed to download metadata: %w", err)
	}

	m = &Meta{}
	if err := json.Unmarshal(body, m); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.meta[url] = m
	d.mu.Unlock()
	return m, nil
}

// Fetch downloads chunks i0..i1 inclusive and returns their decoded frames.
// Chunk indices past the end are clamped to the last chunk.
func (d *Downloader) Fetch(ctx context.Context, urls source.URLPair, i0, i1 int) (source.Chunk, error) {
	m, err := d.Meta(ctx, urls.Ch)
	if err != nil {
		return source.Chunk{}, err
	}

	last := m.NChunks() - 1
	if i1 > last {
		i1 = last
	}
	if i0 < 0 || i0 > i1 {
		return source.Chunk{}, fmt.Errorf("chunk range %d-%d of %d chunks: %w", i0, i1, m.NChunks(), source.ErrOutOfRange)
	}
	// Callers place chunk i at second i
	if want := int(math.Round(float64(i0) * m.SampleRate)); m.ChunkBounds[i0] != want {
		return source.Chunk{}, fmt.Errorf("chunk %d starts at frame %d, expected %d: %w",
			i0, m.ChunkBounds[i0], want, source.ErrChunkMismatch)
	}

	format, _ := m.Format()
	dec, err := decode.NewDiff(format, m.DoTimeDiff, m.DoSpatialDiff)
	if err != nil {
		return source.Chunk{}, err
	}

	start, end := m.ChunkOffsets[i0], m.ChunkOffsets[i1+1]
	log.Printf("Downloading chunks %d-%d (%d bytes)", i0, i1, end-start)
	data, err := d.get(ctx, urls.CBin, fmt.Sprintf("bytes=%d-%d", start, end-1))
	if err != nil {
		return source.Chunk{}, fmt.Errorf("failed to download chunks: %w", err)
	}
	if int64(len(data)) != end-start {
		return source.Chunk{}, fmt.Errorf("got %d bytes, expected %d: %w", len(data), end-start, source.ErrShortChunk)
	}

	samples := make([]int32, 0, (m.ChunkBounds[i1+1]-m.ChunkBounds[i0])*m.NChannels)
	for k := i0; k <= i1; k++ {
		raw, err := inflate(data[m.ChunkOffsets[k]-start : m.ChunkOffsets[k+1]-start])
		if err != nil {
			return source.Chunk{}, fmt.Errorf("failed to decompress chunk %d: %w", k, err)
		}
		decoded, err := dec.Decode(raw)
		if err != nil {
			return source.Chunk{}, fmt.Errorf("chunk %d: %w", k, err)
		}
		if frames := m.ChunkBounds[k+1] - m.ChunkBounds[k]; len(decoded) != frames*m.NChannels {
			return source.Chunk{}, fmt.Errorf("chunk %d has %d values, expected %d: %w",
				k, len(decoded), frames*m.NChannels, source.ErrChunkMismatch)
		}
		samples = append(samples, decoded...)
	}

	return source.Chunk{
		Total:    m.TotalSamples(),
		Channels: m.NChannels,
		Samples:  samples,
	}, nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (d *Downloader) get(ctx context.Context, url, byteRange string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if byteRange != "" {
		req.Header.Set("Range", byteRange)
	}
	if d.username != "" {
		req.SetBasicAuth(d.username, d.password)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case byteRange == "" && resp.StatusCode == http.StatusOK:
	case byteRange != "" && resp.StatusCode == http.StatusPartialContent:
	default:
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
