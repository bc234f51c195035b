// ABOUTME: Tests for the Alyx client and partial downloader
// ABOUTME: Serves fake datasets and a compressed recording over httptest
package one

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
)

const testEID = "aad23144-0e52-4eac-80c5-c4ee2decb198"

func datasetServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth-token":
			r.ParseForm()
			if r.Form.Get("password") != "secret" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"token": "tok123"})
		case "/datasets":
			if r.Header.Get("Authorization") != "Token tok123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if r.URL.Query().Get("session") != testEID {
				json.NewEncoder(w).Encode([]Dataset{})
				return
			}
			ext := strings.TrimPrefix(r.URL.Query().Get("django"), "name__icontains,")
			json.NewEncoder(w).Encode([]Dataset{
				{Name: "_spikeglx_ephysData_g0_t0.imec0." + ext, FileRecords: []FileRecord{
					{DataURL: "https://data.example.org/probe00." + ext, Exists: true},
					{DataURL: ""},
				}},
				{Name: "_spikeglx_ephysData_g0_t0.imec1." + ext, FileRecords: []FileRecord{
					{DataURL: "https://data.example.org/probe01." + ext, Exists: true},
				}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestResolveProbe(t *testing.T) {
	srv := datasetServer(t)
	defer srv.Close()
	ctx := context.Background()

	c := NewClient(srv.URL, "")
	if _, err := c.Datasets(ctx, testEID, FilterCBin); err == nil {
		t.Error("expected unauthenticated request to fail")
	}

	if err := c.Authenticate(ctx, "user", "wrong"); err == nil {
		t.Error("expected bad credentials to fail")
	}
	if err := c.Authenticate(ctx, "user", "secret"); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if c.Token() != "tok123" {
		t.Errorf("expected token tok123, got %s", c.Token())
	}

	urls, err := c.ResolveProbe(ctx, testEID, 1)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if urls.CBin != "https://data.example.org/probe01.ap.cbin" {
		t.Errorf("unexpected cbin url %s", urls.CBin)
	}
	if urls.Ch != "https://data.example.org/probe01.ap.ch" {
		t.Errorf("unexpected ch url %s", urls.Ch)
	}
}

func TestResolveProbeErrors(t *testing.T) {
	srv := datasetServer(t)
	defer srv.Close()
	ctx := context.Background()
	c := NewClient(srv.URL, "tok123")

	if _, err := c.ResolveProbe(ctx, "not-a-uuid", 0); err == nil {
		t.Error("expected error for invalid session id")
	}
	if _, err := c.ResolveProbe(ctx, testEID, 2); !errors.Is(err, ErrNoDataset) {
		t.Errorf("expected ErrNoDataset, got %v", err)
	}
	if _, err := c.ResolveProbe(ctx, "00000000-0000-0000-0000-000000000000", 0); !errors.Is(err, ErrNoDataset) {
		t.Errorf("expected ErrNoDataset for empty session, got %v", err)
	}
}

// recording builds a compressed time-diff recording of nChunks chunks of
// rate frames each, where frame i channel j holds i*10+j.
func recording(t *testing.T, nChannels, rate, nChunks, lastChunk int) ([]byte, Meta) {
	t.Helper()
	m := Meta{
		Version:      "1.0",
		Algorithm:    "zlib",
		DType:        "int16",
		NChannels:    nChannels,
		SampleRate:   float64(rate),
		ChunkBounds:  []int{0},
		ChunkOffsets: []int64{0},
		DoTimeDiff:   true,
	}

	var cbin bytes.Buffer
	frame := 0
	for k := 0; k < nChunks; k++ {
		n := rate
		if k == nChunks-1 {
			n = lastChunk
		}
		raw := make([]byte, 0, n*nChannels*2)
		for i := 0; i < n; i++ {
			for j := 0; j < nChannels; j++ {
				v := int16((frame+i)*10 + j)
				if i > 0 {
					v -= int16((frame+i-1)*10 + j)
				}
				raw = binary.LittleEndian.AppendUint16(raw, uint16(v))
			}
		}
		frame += n

		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		zw.Write(raw)
		zw.Close()
		cbin.Write(z.Bytes())

		m.ChunkBounds = append(m.ChunkBounds, frame)
		m.ChunkOffsets = append(m.ChunkOffsets, int64(cbin.Len()))
	}
	return cbin.Bytes(), m
}

func recordingServer(t *testing.T, cbin []byte, m Meta) (*httptest.Server, *int) {
	t.Helper()
	metaRequests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rec.ap.ch":
			metaRequests++
			json.NewEncoder(w).Encode(m)
		case "/rec.ap.cbin":
			http.ServeContent(w, r, "rec.ap.cbin", time.Time{}, bytes.NewReader(cbin))
		default:
			http.NotFound(w, r)
		}
	}))
	return srv, &metaRequests
}

func TestDownloaderFetch(t *testing.T) {
	cbin, m := recording(t, 3, 100, 4, 50)
	srv, metaRequests := recordingServer(t, cbin, m)
	defer srv.Close()

	d := NewDownloader(DownloaderOptions{})
	urls := source.URLPair{CBin: srv.URL + "/rec.ap.cbin", Ch: srv.URL + "/rec.ap.ch"}
	ctx := context.Background()

	chunk, err := d.Fetch(ctx, urls, 1, 2)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if chunk.Total != 350 || chunk.Channels != 3 {
		t.Errorf("unexpected chunk header: total %d channels %d", chunk.Total, chunk.Channels)
	}
	if chunk.Frames() != 200 {
		t.Fatalf("expected 200 frames, got %d", chunk.Frames())
	}
	// First frame of chunk 1 is recording frame 100
	if chunk.Samples[0] != int32(int16(1000)) || chunk.Samples[2] != int32(int16(1002)) {
		t.Errorf("unexpected first frame %v", chunk.Samples[:3])
	}
	if got := chunk.Samples[199*3+1]; got != int32(int16(299*10+1)) {
		t.Errorf("unexpected last frame value %d", got)
	}

	last, err := d.Fetch(ctx, urls, 3, 5)
	if err != nil {
		t.Fatalf("fetch of last chunk failed: %v", err)
	}
	if last.Frames() != 50 {
		t.Errorf("expected truncated last chunk of 50 frames, got %d", last.Frames())
	}

	if *metaRequests != 1 {
		t.Errorf("expected metadata to be fetched once, got %d", *metaRequests)
	}
}

func TestDownloaderBehindRemoteSource(t *testing.T) {
	cbin, m := recording(t, 2, 1000, 3, 1000)
	srv, _ := recordingServer(t, cbin, m)
	defer srv.Close()

	d := NewDownloader(DownloaderOptions{})
	urls := source.URLPair{CBin: srv.URL + "/rec.ap.cbin", Ch: srv.URL + "/rec.ap.ch"}

	meta, err := d.Meta(context.Background(), urls.Ch)
	if err != nil {
		t.Fatalf("meta failed: %v", err)
	}
	format, err := meta.Format()
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if format.DType != ephys.Int16 || format.NChannels != 2 {
		t.Errorf("unexpected format %+v", format)
	}

	remote, _ := source.NewRemote(format, urls, d)
	if _, err := remote.Load(context.Background(), 0, 300); err != nil {
		t.Fatalf("first load failed: %v", err)
	}

	w, err := remote.Load(context.Background(), 900, 300)
	if err != nil {
		t.Fatalf("load across chunks failed: %v", err)
	}
	if w.At(0, 0) != int32(int16(9000)) || w.At(150, 1) != int32(int16(10501)) {
		t.Errorf("unexpected window values %d %d", w.At(0, 0), w.At(150, 1))
	}
}

func TestDownloaderMisalignedChunks(t *testing.T) {
	// 100-frame chunks in a 150 Hz recording do not start on whole seconds
	cbin, m := recording(t, 2, 100, 3, 100)
	m.SampleRate = 150
	srv, _ := recordingServer(t, cbin, m)
	defer srv.Close()

	d := NewDownloader(DownloaderOptions{})
	urls := source.URLPair{CBin: srv.URL + "/rec.ap.cbin", Ch: srv.URL + "/rec.ap.ch"}
	ctx := context.Background()

	if _, err := d.Fetch(ctx, urls, 0, 0); err != nil {
		t.Errorf("expected chunk 0 to fetch, got %v", err)
	}
	if _, err := d.Fetch(ctx, urls, 1, 2); !errors.Is(err, source.ErrChunkMismatch) {
		t.Errorf("expected ErrChunkMismatch, got %v", err)
	}
}

func TestDownloaderBadMetadata(t *testing.T) {
	cbin, m := recording(t, 2, 10, 2, 10)
	m.ChunkOffsets = m.ChunkOffsets[:2]
	srv, _ := recordingServer(t, cbin, m)
	defer srv.Close()

	d := NewDownloader(DownloaderOptions{})
	_, err := d.Fetch(context.Background(), source.URLPair{CBin: srv.URL + "/rec.ap.cbin", Ch: srv.URL + "/rec.ap.ch"}, 0, 0)
	if !errors.Is(err, ErrBadMetadata) {
		t.Errorf("expected ErrBadMetadata, got %v", err)
	}
}

func TestDownloaderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(DownloaderOptions{})
	if _, err := d.Fetch(context.Background(), source.URLPair{CBin: srv.URL, Ch: srv.URL}, 0, 0); err == nil {
		t.Error("expected error for missing metadata")
	}
}
