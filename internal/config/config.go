// ABOUTME: YAML configuration for rawview
// ABOUTME: Loads and saves ~/.rawview/config.yaml with per-section defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/Resonate-Protocol/rawview/pkg/ephys"
)

const (
	// DefaultBaseDir is the configuration directory under the home directory
	DefaultBaseDir = ".rawview"
	// DefaultConfigFile is the configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config is the whole configuration file
type Config struct {
	Alyx   Alyx   `yaml:"alyx,omitempty"`
	Viewer Viewer `yaml:"viewer,omitempty"`
	Cache  Cache  `yaml:"cache,omitempty"`
	Server Server `yaml:"server,omitempty"`

	path string
}

// Alyx holds data server credentials
type Alyx struct {
	BaseURL  string `yaml:"base_url,omitempty"`
	Token    string `yaml:"token,omitempty"`
	Username string `yaml:"username,omitempty"`

	// HTTPUser and HTTPPassword authenticate downloads from the file server
	HTTPUser     string `yaml:"http_user,omitempty"`
	HTTPPassword string `yaml:"http_password,omitempty"`
}

// Viewer holds recording format and window defaults
type Viewer struct {
	NChannels  int     `yaml:"n_channels,omitempty"`
	SampleRate float64 `yaml:"sample_rate,omitempty"`
	DType      string  `yaml:"dtype,omitempty"`
	BufferSize int     `yaml:"buffer_size,omitempty"`
	Colormap   string  `yaml:"colormap,omitempty"`
}

// Cache configures the chunk cache
type Cache struct {
	Dir      string `yaml:"dir,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Server configures the frame server
type Server struct {
	Port int    `yaml:"port,omitempty"`
	Name string `yaml:"name,omitempty"`
	MDNS *bool  `yaml:"mdns,omitempty"`
}

// Defaults matching a Neuropixels 1.0 action-potential band recording
const (
	DefaultNChannels  = 385
	DefaultSampleRate = 30000
	DefaultDType      = "int16"
	DefaultBufferSize = 3000
	DefaultPort       = 8928
)

// Load reads the config at path, or ~/.rawview/config.yaml when path is
// empty. A missing file is created empty.
func Load(path string) (*Config, error) {
	if path == "" {
		paths, err := NewPaths()
		if err != nil {
			return nil, err
		}
		path = paths.ConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = path
	return cfg, nil
}

// Save writes the configuration back to its file
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.path
}

// Format returns the configured recording format with defaults filled in
func (v Viewer) Format() (ephys.Format, error) {
	f := ephys.Format{NChannels: v.NChannels, SampleRate: v.SampleRate}
	if f.NChannels == 0 {
		f.NChannels = DefaultNChannels
	}
	if f.SampleRate == 0 {
		f.SampleRate = DefaultSampleRate
	}

	dtype := v.DType
	if dtype == "" {
		dtype = DefaultDType
	}
	var err error
	if f.DType, err = ephys.ParseDType(dtype); err != nil {
		return ephys.Format{}, err
	}
	return f, f.Validate()
}

// Buffer returns the window length with the default filled in
func (v Viewer) Buffer() int {
	if v.BufferSize > 0 {
		return v.BufferSize
	}
	return DefaultBufferSize
}

// PortOrDefault returns the configured port or DefaultPort
func (s Server) PortOrDefault() int {
	if s.Port > 0 {
		return s.Port
	}
	return DefaultPort
}

// MDNSEnabled reports whether the server should advertise itself
func (s Server) MDNSEnabled() bool {
	return s.MDNS == nil || *s.MDNS
}
