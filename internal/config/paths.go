// ABOUTME: Standard rawview directory layout
// ABOUTME: Resolves config, cache and log locations under ~/.rawview
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths locates rawview's files under a home directory
type Paths struct {
	HomeDir string
}

// NewPaths uses the current user's home directory
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns ~/.rawview
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns ~/.rawview/config.yaml
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// CacheDir returns ~/.rawview/cache
func (p *Paths) CacheDir() string {
	return filepath.Join(p.BaseDir(), "cache")
}

// LogDir returns ~/.rawview/logs
func (p *Paths) LogDir() string {
	return filepath.Join(p.BaseDir(), "logs")
}

// EnsureCacheDir creates the cache directory if needed
func (p *Paths) EnsureCacheDir() error {
	return os.MkdirAll(p.CacheDir(), 0755)
}

// EnsureLogDir creates the log directory if needed
func (p *Paths) EnsureLogDir() error {
	return os.MkdirAll(p.LogDir(), 0755)
}

// CacheDirFor returns the configured cache directory or the default one
func (p *Paths) CacheDirFor(c Cache) string {
	if c.Dir != "" {
		return c.Dir
	}
	return p.CacheDir()
}
