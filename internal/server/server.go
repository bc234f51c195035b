// ABOUTME: WebSocket frame server for remote ephys viewing
// ABOUTME: Runs one viewer per connection and streams rendered frames to clients
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/rawview/internal/discovery"
	"github.com/Resonate-Protocol/rawview/internal/protocol"
	"github.com/Resonate-Protocol/rawview/internal/version"
	"github.com/Resonate-Protocol/rawview/pkg/colormap"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/viewer"
)

// Path is the WebSocket endpoint
const Path = "/rawview"

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Debug      bool
	UseTUI     bool

	// SourceName describes the recording in hellos and the TUI
	SourceName string
	BufferSize int
	Colormap   *colormap.Colormap
}

// Server serves one recording to any number of viewer clients
type Server struct {
	config   Config
	serverID string
	src      source.Source

	upgrader   websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*Client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager
	tui         *ServerTUI

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client is a connected viewer
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	viewer *viewer.Viewer

	// Sample is the window offset last sent to the client
	Sample int

	sendChan chan interface{}
	// done is closed when the writer has stopped
	done chan struct{}
	mu   sync.RWMutex
}

// New creates a server over src. The source is shared by all connections.
func New(config Config, src source.Source) *Server {
	if config.BufferSize == 0 {
		config.BufferSize = viewer.DefaultBufferSize
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		src:      src,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin != "" && config.Debug {
					log.Printf("[DEBUG] WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the WebSocket endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ID returns the server's unique id
func (s *Server) ID() string {
	return s.serverID
}

// Start runs the server until Stop is called, the TUI quits or the listener fails
func (s *Server) Start() error {
	if s.config.UseTUI {
		s.tui = NewServerTUI()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tui.Start(s.status())
		}()

		time.Sleep(100 * time.Millisecond)
	}

	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, Path)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case <-tuiQuitChan:
		log.Printf("TUI quit requested, shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.tui != nil {
		s.tui.Stop()
	}
	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(r.Context(), conn)
}

// handleConnection runs the handshake and then serves commands until the
// client disconnects. The connection's viewer is only touched here.
func (s *Server) handleConnection(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	hello, err := readHello(conn)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		return
	}
	log.Printf("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	v, err := viewer.New(s.src, viewer.Options{
		BufferSize: s.config.BufferSize,
		Colormap:   s.config.Colormap,
	})
	if err != nil {
		log.Printf("Failed to create viewer: %v", err)
		return
	}

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		viewer:   v,
		sendChan: make(chan interface{}, 16),
		done:     make(chan struct{}),
	}

	s.clientsMu.Lock()
	if existing, exists := s.clients[client.ID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", client.ID, existing.Name)
		writeError(conn, protocol.ServerError{Message: "client id already connected", Fatal: true})
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()
	s.updateTUI()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(client.sendChan)
		// Let queued messages reach the client before the conn closes
		select {
		case <-client.done:
		case <-time.After(flushTimeout):
			log.Printf("Timed out flushing messages to %s", client.Name)
		}
		log.Printf("Client disconnected: %s", client.Name)
		s.updateTUI()
	}()

	if err := v.Load(ctx); err != nil {
		log.Printf("Initial load for %s failed: %v", client.Name, err)
		s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{Message: err.Error(), Fatal: true})
		return
	}

	if err := s.sendMessage(client, protocol.TypeServerHello, s.hello(v)); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}
	if err := s.sendFrame(client); err != nil {
		log.Printf("Error sending frame: %v", err)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		if err := s.handleClientMessage(ctx, client, data); err != nil {
			log.Printf("Error sending to %s: %v", client.Name, err)
			return
		}
	}
}

func readHello(conn *websocket.Conn) (*protocol.ClientHello, error) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read hello: %w", err)
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type != protocol.TypeClientHello {
		return nil, fmt.Errorf("expected %s, got %s", protocol.TypeClientHello, msg.Type)
	}

	var hello protocol.ClientHello
	if err := decodePayload(msg.Payload, &hello); err != nil {
		return nil, fmt.Errorf("failed to parse client hello: %w", err)
	}
	if hello.ClientID == "" {
		return nil, errors.New("client hello missing client_id")
	}
	if hello.Name == "" {
		return nil, errors.New("client hello missing name")
	}
	return &hello, nil
}

func (s *Server) hello(v *viewer.Viewer) protocol.ServerHello {
	f := s.src.Format()
	return protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.ProtocolVersion,
		Recording: protocol.Recording{
			Source:     s.config.SourceName,
			NChannels:  f.NChannels,
			SampleRate: f.SampleRate,
			DType:      string(f.DType),
			NSamples:   s.src.NSamples(),
			BufferSize: v.BufferSize(),
		},
		Device: &protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	}
}

// handleClientMessage applies one command. Command failures are reported to
// the client; only send failures end the connection.
func (s *Server) handleClientMessage(ctx context.Context, client *Client, data []byte) error {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return nil
	}
	if msg.Type != protocol.TypeViewerCommand {
		log.Printf("Unknown message type: %s", msg.Type)
		return nil
	}

	var cmd protocol.ViewerCommand
	if err := decodePayload(msg.Payload, &cmd); err != nil {
		return s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{Message: err.Error()})
	}
	if s.config.Debug {
		log.Printf("[DEBUG] %s: %+v", client.Name, cmd)
	}

	switch cmd.Command {
	case protocol.CommandPick:
		res, err := client.viewer.Pick(cmd.X, cmd.Y, cmd.Width, cmd.Height)
		if err != nil {
			return s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{Command: cmd.Command, Message: err.Error()})
		}
		return s.sendMessage(client, protocol.TypeViewerPick, protocol.ViewerPick(res))
	case protocol.CommandRefresh:
		return s.sendFrame(client)
	}

	kind, err := viewer.ParseKey(cmd.Command)
	if err != nil {
		return s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{Command: cmd.Command, Message: err.Error()})
	}
	if err := client.viewer.Apply(ctx, viewer.Command{Kind: kind, Text: cmd.Text}); err != nil {
		log.Printf("Command %s from %s failed: %v", cmd.Command, client.Name, err)
		return s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{Command: cmd.Command, Message: err.Error()})
	}
	return s.sendFrame(client)
}

// sendFrame queues the frame announcement and its binary image
func (s *Server) sendFrame(client *Client) error {
	f := client.viewer.Frame()
	meta := protocol.ViewerFrame{
		Sample:   f.Sample,
		Time:     f.Range.T0,
		T0:       f.Range.T0,
		T1:       f.Range.T1,
		Channels: f.Image.Channels,
		Frames:   f.Image.Frames,
		Std:      f.Scale.Std,
		NSamples: s.src.NSamples(),
	}

	bin, err := protocol.EncodeFrame(int64(f.Sample), f.Image.Channels, f.Image.Frames, f.Image.Pix)
	if err != nil {
		return err
	}

	client.mu.Lock()
	client.Sample = f.Sample
	client.mu.Unlock()
	s.updateTUI()

	if err := s.sendMessage(client, protocol.TypeViewerFrame, meta); err != nil {
		return err
	}
	return s.sendBinary(client, bin)
}

// flushTimeout bounds how long a closing connection waits for its writer
const flushTimeout = 5 * time.Second

// clientWriter sends queued messages to the client
func (s *Server) clientWriter(client *Client) {
	defer close(client.done)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing binary message: %v", err)
					return
				}
			default:
				data, err := json.Marshal(v)
				if err != nil {
					log.Printf("Error marshaling message: %v", err)
					continue
				}
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Printf("Error writing text message: %v", err)
					return
				}
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

// sendMessage queues a JSON message for the client
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// sendBinary queues binary data for the client
func (s *Server) sendBinary(client *Client, data []byte) error {
	select {
	case client.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

func writeError(conn *websocket.Conn, e protocol.ServerError) {
	data, err := json.Marshal(protocol.Message{Type: protocol.TypeServerError, Payload: e})
	if err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// decodePayload converts a generic JSON payload into a typed struct
func decodePayload(payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
