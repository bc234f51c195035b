// ABOUTME: mDNS service discovery for rawview frame servers
// ABOUTME: Handles advertisement by servers and browsing by clients
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the DNS-SD type advertised by frame servers
const ServiceType = "_rawview._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name string
	Host string
	Port int
	Path string
}

// Addr returns host:port
func (s *ServerInfo) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = "/rawview"
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
	}
}

// Advertise announces this server via mDNS until Stop
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=" + m.config.Path},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for servers in the background until Stop
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		if err := query(m.ctx, 3*time.Second, m.servers); err != nil {
			log.Printf("mDNS query failed: %v", err)
			select {
			case <-time.After(time.Second):
			case <-m.ctx.Done():
				return
			}
		}
	}
}

// Lookup runs one query and returns the servers that answered within timeout
func Lookup(ctx context.Context, timeout time.Duration) ([]*ServerInfo, error) {
	found := make(chan *ServerInfo, 32)
	errc := make(chan error, 1)
	go func() {
		errc <- query(ctx, timeout, found)
		close(found)
	}()

	seen := make(map[string]bool)
	var servers []*ServerInfo
	for s := range found {
		if seen[s.Addr()] {
			continue
		}
		seen[s.Addr()] = true
		servers = append(servers, s)
	}
	return servers, <-errc
}

// query sends one mDNS query and forwards every answer to out
func query(ctx context.Context, timeout time.Duration, out chan<- *ServerInfo) error {
	entries := make(chan *mdns.ServiceEntry, 10)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			server := toServerInfo(entry)
			log.Printf("Discovered server: %s at %s", server.Name, server.Addr())

			select {
			case out <- server:
			case <-ctx.Done():
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	err := mdns.QueryContext(ctx, params)
	close(entries)
	<-done
	return err
}

func toServerInfo(entry *mdns.ServiceEntry) *ServerInfo {
	info := &ServerInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Port: entry.Port,
		Path: "/rawview",
	}
	if entry.AddrV4 != nil {
		info.Host = entry.AddrV4.String()
	} else {
		info.Host = strings.TrimSuffix(entry.Host, ".")
	}
	for _, field := range entry.InfoFields {
		if path, ok := strings.CutPrefix(field, "path="); ok {
			info.Path = path
		}
	}
	return info
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops advertising and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns non-loopback IPv4 addresses of up interfaces
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
