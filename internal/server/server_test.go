// ABOUTME: Tests for the frame server
// ABOUTME: Drives per-connection viewers over a real WebSocket with the client package
package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/rawview/internal/client"
	"github.com/Resonate-Protocol/rawview/internal/protocol"
	"github.com/Resonate-Protocol/rawview/pkg/ephys"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
)

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	src, err := source.NewSynthetic(ephys.Format{NChannels: 8, SampleRate: 1000, DType: ephys.Int16}, 10000)
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}

	srv := New(Config{Name: "test-server", SourceName: "synthetic", BufferSize: 400}, src)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return srv, strings.TrimPrefix(hs.URL, "http://")
}

// brokenSource fails every load
type brokenSource struct {
	source.Source
}

func (brokenSource) Load(ctx context.Context, start, n int) (*ephys.Window, error) {
	return nil, errors.New("disk unplugged")
}

func dial(t *testing.T, addr, id string) *client.Client {
	t.Helper()
	c := client.NewClient(client.Config{ServerAddr: addr, ClientID: id, Name: "viewer-" + id})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func nextFrame(t *testing.T, c *client.Client) client.Frame {
	t.Helper()
	select {
	case f := <-c.Frames:
		return f
	case e := <-c.Errors:
		t.Fatalf("unexpected server error: %+v", e)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return client.Frame{}
}

func TestHelloDescribesRecording(t *testing.T) {
	srv, addr := startServer(t)
	c := dial(t, addr, "a")

	hello := c.Hello()
	if hello.ServerID != srv.ID() || hello.Name != "test-server" {
		t.Errorf("unexpected hello %+v", hello)
	}
	rec := hello.Recording
	if rec.NChannels != 8 || rec.SampleRate != 1000 || rec.NSamples != 10000 || rec.BufferSize != 400 {
		t.Errorf("unexpected recording %+v", rec)
	}

	f := nextFrame(t, c)
	if f.Meta.Sample != 0 || f.Image.Channels != 8 || f.Image.Frames != 400 {
		t.Errorf("unexpected initial frame %+v", f.Meta)
	}
	if len(f.Image.Pix) != 8*400*4 {
		t.Errorf("unexpected pixel count %d", len(f.Image.Pix))
	}
}

func TestNavigationCommands(t *testing.T) {
	_, addr := startServer(t)
	c := dial(t, addr, "a")
	nextFrame(t, c)

	steps := []struct {
		command, text string
		sample        int
	}{
		{"right", "", 100},
		{"right", "", 200},
		{"end", "", 9600},
		{"left", "", 9500},
		{"goto", "2.5", 2500},
		{"+", "", 2500},
		{"home", "", 0},
	}
	for _, s := range steps {
		if err := c.Command(s.command, s.text); err != nil {
			t.Fatalf("send failed: %v", err)
		}
		f := nextFrame(t, c)
		if f.Meta.Sample != s.sample {
			t.Errorf("after %s expected sample %d, got %d", s.command, s.sample, f.Meta.Sample)
		}
	}
}

func TestZoomChangesStd(t *testing.T) {
	_, addr := startServer(t)
	c := dial(t, addr, "a")
	first := nextFrame(t, c)

	c.Command("zoom_in", "")
	zoomed := nextFrame(t, c)
	if zoomed.Meta.Std >= first.Meta.Std {
		t.Errorf("zoom in should shrink std: %v -> %v", first.Meta.Std, zoomed.Meta.Std)
	}
}

func TestInvalidGotoReportsError(t *testing.T) {
	_, addr := startServer(t)
	c := dial(t, addr, "a")
	nextFrame(t, c)

	c.Command("goto", "soon")
	select {
	case e := <-c.Errors:
		if e.Command != "goto" || e.Fatal {
			t.Errorf("unexpected error %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error")
	}

	c.Command("right", "")
	if f := nextFrame(t, c); f.Meta.Sample != 100 {
		t.Errorf("connection should survive invalid goto, got sample %d", f.Meta.Sample)
	}
}

func TestPick(t *testing.T) {
	_, addr := startServer(t)
	c := dial(t, addr, "a")
	nextFrame(t, c)

	c.Pick(10, 0, 400, 8)
	select {
	case p := <-c.Picks:
		if p.Sample != 10 || p.Channel != 7 {
			t.Errorf("expected sample 10 channel 7, got %+v", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pick")
	}
}

func TestViewersAreIndependent(t *testing.T) {
	srv, addr := startServer(t)
	a := dial(t, addr, "a")
	b := dial(t, addr, "b")
	nextFrame(t, a)
	nextFrame(t, b)

	a.Command("end", "")
	if f := nextFrame(t, a); f.Meta.Sample != 9600 {
		t.Errorf("expected a at 9600, got %d", f.Meta.Sample)
	}
	b.Command("right", "")
	if f := nextFrame(t, b); f.Meta.Sample != 100 {
		t.Errorf("expected b at 100, got %d", f.Meta.Sample)
	}

	if srv.ClientCount() != 2 {
		t.Errorf("expected 2 clients, got %d", srv.ClientCount())
	}
	status := srv.status()
	if len(status.Clients) != 2 || status.Clients[0].Name != "viewer-a" {
		t.Errorf("unexpected status %+v", status)
	}
	if status.Clients[0].Time != 9.6 {
		t.Errorf("expected viewer-a at 9.6s, got %v", status.Clients[0].Time)
	}
}

func TestDuplicateClientRejected(t *testing.T) {
	_, addr := startServer(t)
	dial(t, addr, "same")

	c := client.NewClient(client.Config{ServerAddr: addr, ClientID: "same", Name: "dup"})
	if err := c.Connect(); err == nil {
		c.Close()
		t.Error("expected duplicate client id to be rejected")
	}
}

func TestUnknownCommand(t *testing.T) {
	_, addr := startServer(t)
	c := dial(t, addr, "a")
	nextFrame(t, c)

	c.Send(protocol.ViewerCommand{Command: "warp"})
	select {
	case e := <-c.Errors:
		if e.Command != "warp" {
			t.Errorf("unexpected error %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestInitialLoadErrorReachesClient(t *testing.T) {
	synth, err := source.NewSynthetic(ephys.Format{NChannels: 8, SampleRate: 1000, DType: ephys.Int16}, 10000)
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}
	srv := New(Config{Name: "test-server", BufferSize: 400}, brokenSource{Source: synth})
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	c := client.NewClient(client.Config{ServerAddr: strings.TrimPrefix(hs.URL, "http://"), ClientID: "a", Name: "viewer-a"})
	err = c.Connect()
	if err == nil {
		c.Close()
		t.Fatal("expected connect to fail")
	}
	if !strings.Contains(err.Error(), "server error") || !strings.Contains(err.Error(), "disk unplugged") {
		t.Errorf("expected server error with load failure, got %v", err)
	}
}
