// ABOUTME: Frame server protocol message type definitions
// ABOUTME: Defines the JSON control messages exchanged with viewer clients
package protocol

// ProtocolVersion is sent in both hellos
const ProtocolVersion = 1

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeServerHello   = "server/hello"
	TypeViewerCommand = "viewer/command"
	TypeViewerFrame   = "viewer/frame"
	TypeViewerPick    = "viewer/pick"
	TypeServerError   = "server/error"
)

// Commands accepted in viewer/command besides the navigation kinds
const (
	CommandPick    = "pick"
	CommandRefresh = "refresh"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID string      `json:"client_id"`
	Name     string      `json:"name"`
	Version  int         `json:"version"`
	Device   *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains software identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the server's response to client/hello and describes the recording
type ServerHello struct {
	ServerID   string      `json:"server_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	Recording  Recording   `json:"recording"`
	Device     *DeviceInfo `json:"device_info,omitempty"`
}

// Recording describes the served recording
type Recording struct {
	Source     string  `json:"source"`
	NChannels  int     `json:"n_channels"`
	SampleRate float64 `json:"sample_rate"`
	DType      string  `json:"dtype"`
	NSamples   int     `json:"n_samples"`
	BufferSize int     `json:"buffer_size"`
}

// ViewerCommand asks the server's viewer to act.
// Command is a navigation kind, "pick" or "refresh".
type ViewerCommand struct {
	Command string  `json:"command"`
	Text    string  `json:"text,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
}

// ViewerFrame announces the binary frame that follows it
type ViewerFrame struct {
	Sample   int     `json:"sample"`
	Time     float64 `json:"time"`
	T0       float64 `json:"t0"`
	T1       float64 `json:"t1"`
	Channels int     `json:"channels"`
	Frames   int     `json:"frames"`
	Std      float64 `json:"std"`
	NSamples int     `json:"n_samples"`
}

// ViewerPick reports the sample under a picked position
type ViewerPick struct {
	Sample  int     `json:"sample"`
	Channel int     `json:"channel"`
	Time    float64 `json:"time"`
	Value   int32   `json:"value"`
}

// ServerError reports a failed command. Fatal errors close the connection.
type ServerError struct {
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}
