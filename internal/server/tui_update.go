// ABOUTME: TUI update helpers for server
// ABOUTME: Builds status snapshots of the connected viewers
package server

import (
	"sort"

	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
)

// status snapshots the server state
func (s *Server) status() ServerStatus {
	rate := s.src.Format().SampleRate

	s.clientsMu.RLock()
	clients := make([]ClientInfo, 0, len(s.clients))
	for _, client := range s.clients {
		client.mu.RLock()
		sample := client.Sample
		client.mu.RUnlock()

		clients = append(clients, ClientInfo{
			Name: client.Name,
			ID:   client.ID,
			Time: float64(sample) / rate,
		})
	}
	s.clientsMu.RUnlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })

	return ServerStatus{
		Name:      s.config.Name,
		Port:      s.config.Port,
		Recording: s.config.SourceName,
		Duration:  source.Duration(s.src),
		Clients:   clients,
	}
}

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}
	s.tui.Update(s.status())
}
