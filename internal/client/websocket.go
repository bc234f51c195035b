// ABOUTME: WebSocket client for the rawview frame server
// ABOUTME: Handles connection, handshake, commands and frame reassembly
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/rawview/internal/protocol"
	"github.com/Resonate-Protocol/rawview/internal/version"
)

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string

	// HandshakeTimeout bounds the wait for server/hello, which is sent
	// after the server has loaded the first window
	HandshakeTimeout time.Duration
}

// Frame is a rendered window: its announcement and its pixels
type Frame struct {
	Meta  protocol.ViewerFrame
	Image *protocol.ImageFrame
}

// Client is a connection to a frame server
type Client struct {
	config  Config
	conn    *websocket.Conn
	mu      sync.RWMutex
	writeMu sync.Mutex

	Frames chan Frame
	Picks  chan protocol.ViewerPick
	Errors chan protocol.ServerError

	hello     protocol.ServerHello
	pending   *protocol.ViewerFrame
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new client. An empty ClientID gets a random one.
func NewClient(config Config) *Client {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		Frames: make(chan Frame, 4),
		Picks:  make(chan protocol.ViewerPick, 4),
		Errors: make(chan protocol.ServerError, 4),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect dials the server, performs the handshake and starts the reader
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: "/rawview"}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()
	return nil
}

func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  protocol.ProtocolVersion,
		Device: &protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	}
	if err := c.sendJSON(protocol.Message{Type: protocol.TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(c.config.HandshakeTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	payload, _ := json.Marshal(msg.Payload)

	switch msg.Type {
	case protocol.TypeServerHello:
	case protocol.TypeServerError:
		var e protocol.ServerError
		json.Unmarshal(payload, &e)
		return fmt.Errorf("server error: %s", e.Message)
	default:
		return fmt.Errorf("expected server/hello, got %s", msg.Type)
	}

	var sh protocol.ServerHello
	if err := json.Unmarshal(payload, &sh); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	c.mu.Lock()
	c.hello = sh
	c.mu.Unlock()

	log.Printf("Handshake complete with %s (%d channels at %.0f Hz)",
		sh.Name, sh.Recording.NChannels, sh.Recording.SampleRate)
	return nil
}

// Hello returns the server's hello
func (c *Client) Hello() protocol.ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello
}

func (c *Client) sendJSON(msg protocol.Message) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()
	if !connected {
		return fmt.Errorf("not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// Send sends a viewer command
func (c *Client) Send(cmd protocol.ViewerCommand) error {
	return c.sendJSON(protocol.Message{Type: protocol.TypeViewerCommand, Payload: cmd})
}

// Command sends a navigation command such as "right" or "goto"
func (c *Client) Command(command, text string) error {
	return c.Send(protocol.ViewerCommand{Command: command, Text: text})
}

// Pick asks for the sample under a display position
func (c *Client) Pick(x, y, width, height float64) error {
	return c.Send(protocol.ViewerCommand{Command: protocol.CommandPick, X: x, Y: y, Width: width, Height: height})
}

func (c *Client) readMessages() {
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Printf("Read error: %v", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinaryMessage(data)
		case websocket.TextMessage:
			c.handleJSONMessage(data)
		}
	}
}

// handleBinaryMessage pairs an image with the preceding viewer/frame
func (c *Client) handleBinaryMessage(data []byte) {
	img, err := protocol.DecodeFrame(data)
	if err != nil {
		log.Printf("Invalid binary message: %v", err)
		return
	}
	if c.pending == nil {
		log.Printf("Binary frame without announcement, dropping")
		return
	}

	frame := Frame{Meta: *c.pending, Image: img}
	c.pending = nil

	select {
	case c.Frames <- frame:
	case <-c.ctx.Done():
	}
}

func (c *Client) handleJSONMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}
	payload, _ := json.Marshal(msg.Payload)

	switch msg.Type {
	case protocol.TypeViewerFrame:
		var meta protocol.ViewerFrame
		if err := json.Unmarshal(payload, &meta); err != nil {
			log.Printf("Failed to parse frame: %v", err)
			return
		}
		c.pending = &meta

	case protocol.TypeViewerPick:
		var pick protocol.ViewerPick
		json.Unmarshal(payload, &pick)
		select {
		case c.Picks <- pick:
		case <-c.ctx.Done():
		}

	case protocol.TypeServerError:
		var e protocol.ServerError
		json.Unmarshal(payload, &e)
		select {
		case c.Errors <- e:
		case <-c.ctx.Done():
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
