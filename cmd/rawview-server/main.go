// ABOUTME: Entry point for the rawview frame server
// ABOUTME: Parses CLI flags, opens the recording and serves it over WebSocket
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/rawview/internal/server"
	"github.com/Resonate-Protocol/rawview/pkg/colormap"
	"github.com/Resonate-Protocol/rawview/pkg/ephys"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
)

var (
	port       = flag.Int("port", 8928, "WebSocket server port")
	name       = flag.String("name", "", "Server friendly name (default: hostname-rawview-server)")
	logFile    = flag.String("log-file", "rawview-server.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	useTUI     = flag.Bool("tui", false, "Show connected viewers in a terminal UI")
	file       = flag.String("file", "", "Flat binary recording to serve. If not specified, serves a synthetic recording")
	synthetic  = flag.Float64("synthetic", 60, "Length in seconds of the synthetic recording")
	nChannels  = flag.Int("n-channels", 385, "Number of channels")
	sampleRate = flag.Float64("sample-rate", 30000, "Sample rate in Hz")
	dtype      = flag.String("dtype", "int16", "Sample type: int16, int32")
	offset     = flag.Int64("offset", 0, "Header bytes to skip in -file")
	bufferSize = flag.Int("buffer-size", 3000, "Window length in samples")
	cmapName   = flag.String("colormap", "", "Colormap for frames (gray when empty)")
)

func main() {
	flag.Parse()

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if *useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	// Determine server name
	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-rawview-server", hostname)
	}

	src, sourceName, err := openSource()
	if err != nil {
		log.Fatalf("Failed to open recording: %v", err)
	}
	defer src.Close()

	var cmap *colormap.Colormap
	if *cmapName != "" {
		if cmap, err = colormap.ByName(*cmapName); err != nil {
			log.Fatalf("Invalid colormap: %v", err)
		}
	}

	log.Printf("Starting rawview server: %s on port %d", serverName, *port)
	log.Printf("Serving %s (%.1fs)", sourceName, source.Duration(src))
	if *debug {
		log.Printf("Debug logging enabled")
	}
	log.Printf("Logging to: %s", *logFile)
	log.Printf("Press Ctrl-C to stop")

	srv := server.New(server.Config{
		Port:       *port,
		Name:       serverName,
		EnableMDNS: !*noMDNS,
		Debug:      *debug,
		UseTUI:     *useTUI,
		SourceName: sourceName,
		BufferSize: *bufferSize,
		Colormap:   cmap,
	}, src)

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}

// openSource opens -file, or a synthetic recording when no file is given
func openSource() (source.Source, string, error) {
	dt, err := ephys.ParseDType(*dtype)
	if err != nil {
		return nil, "", err
	}
	format := ephys.Format{NChannels: *nChannels, SampleRate: *sampleRate, DType: dt}

	if *file != "" {
		src, err := source.OpenFile(*file, format, *offset)
		if err != nil {
			return nil, "", err
		}
		return src, *file, nil
	}

	src, err := source.NewSynthetic(format, format.SampleAt(*synthetic))
	if err != nil {
		return nil, "", err
	}
	return src, fmt.Sprintf("synthetic %.0fs", *synthetic), nil
}
