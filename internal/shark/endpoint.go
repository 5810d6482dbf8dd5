// Package shark talks to a running MCP Shark server: reachability probes,
// the settings document and the setup-status document.
package shark

import (
	"fmt"
	"net"
	"strconv"

	"github.com/mcp-shark/sharkctl/internal/config"
)

// Endpoint identifies the MCP Shark server. It is an immutable value.
type Endpoint struct {
	host         string
	port         int
	probePath    string
	settingsPath string
	statusPath   string
}

// NewEndpoint builds an endpoint from server configuration
func NewEndpoint(cfg config.ServerConfig) Endpoint {
	return Endpoint{
		host:         cfg.Host,
		port:         cfg.Port,
		probePath:    cfg.ProbePath,
		settingsPath: cfg.SettingsPath,
		statusPath:   cfg.StatusPath,
	}
}

// DefaultEndpoint is http://localhost:9853 with the standard API paths
func DefaultEndpoint() Endpoint {
	return NewEndpoint(config.DefaultConfig().Server)
}

func (e Endpoint) Host() string { return e.host }
func (e Endpoint) Port() int    { return e.port }

// BaseURL returns e.g. http://localhost:9853
func (e Endpoint) BaseURL() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(e.host, strconv.Itoa(e.port)))
}

// ProbeURL is the URL whose 200 response means "reachable"
func (e Endpoint) ProbeURL() string { return e.BaseURL() + e.probePath }

func (e Endpoint) SettingsURL() string { return e.BaseURL() + e.settingsPath }

func (e Endpoint) StatusURL() string { return e.BaseURL() + e.statusPath }

func (e Endpoint) String() string { return e.BaseURL() }
