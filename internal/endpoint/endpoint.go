// Package endpoint turns user-entered addresses into canonical WebSocket endpoints.
//
// Accepted input forms:
//   - a bare host or IP ("192.168.1.50", "studio.local", "[::1]")
//   - an HTTP URL pointing at the host's web page ("http://192.168.1.50:8080/page?x=1")
//   - an already-canonical wire URL ("ws://192.168.1.50:8765")
//
// Normalization never fails: malformed input is coerced, not rejected.
package endpoint

import (
	"net"
	"strconv"
	"strings"

	"github.com/studiowebux/clicker/internal/config"
)

// Endpoint is a fully qualified wire address
type Endpoint struct {
	Scheme string // "ws" or "wss"
	Host   string // hostname or IP, IPv6 without brackets
	Port   int
}

// String returns the canonical scheme://host:port form
func (e Endpoint) String() string {
	return e.Scheme + "://" + net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Label returns the display name used for history entries
func (e Endpoint) Label() string {
	return e.Host
}

// Normalizer holds the port pair used during normalization
type Normalizer struct {
	// WirePort is appended when no port is given
	WirePort int
	// ControlPort is the web-facing port rewritten to WirePort for http(s) input
	ControlPort int
}

// Default is the normalizer using the product's fixed ports
var Default = Normalizer{
	WirePort:    config.DefaultWirePort,
	ControlPort: config.DefaultControlPort,
}

// Normalize normalizes input with the default ports
func Normalize(input string) Endpoint {
	return Default.Normalize(input)
}

// Normalize converts input into a canonical Endpoint
func (n Normalizer) Normalize(input string) Endpoint {
	s := strings.TrimSpace(input)
	lower := strings.ToLower(s)

	scheme := "ws"
	fromHTTP := false
	switch {
	case strings.HasPrefix(lower, "https://"):
		scheme, s, fromHTTP = "wss", s[len("https://"):], true
	case strings.HasPrefix(lower, "http://"):
		scheme, s, fromHTTP = "ws", s[len("http://"):], true
	case strings.HasPrefix(lower, "wss://"):
		scheme, s = "wss", s[len("wss://"):]
	case strings.HasPrefix(lower, "ws://"):
		s = s[len("ws://"):]
	}

	// An endpoint has no path, so path, query and fragment go for every scheme
	authority := s
	if i := strings.IndexAny(authority, "/?#"); i >= 0 {
		authority = authority[:i]
	}
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		authority = authority[i+1:]
	}

	host, rawPort := splitHostPort(authority)
	if host == "" {
		host = "localhost"
	}

	port := n.wirePort()
	if rawPort != "" {
		if p, err := strconv.Atoi(rawPort); err == nil && p > 0 && p <= 65535 {
			port = p
		}
		if fromHTTP && port == n.controlPort() {
			port = n.wirePort()
		}
	}

	return Endpoint{Scheme: scheme, Host: host, Port: port}
}

func (n Normalizer) wirePort() int {
	if n.WirePort <= 0 {
		return config.DefaultWirePort
	}
	return n.WirePort
}

func (n Normalizer) controlPort() int {
	if n.ControlPort <= 0 {
		return config.DefaultControlPort
	}
	return n.ControlPort
}

// splitHostPort splits an authority into host and port without failing.
// Bracketed IPv6 keeps its port; an unbracketed IPv6 literal has none.
func splitHostPort(authority string) (host, port string) {
	if strings.HasPrefix(authority, "[") {
		end := strings.Index(authority, "]")
		if end < 0 {
			return strings.TrimPrefix(authority, "["), ""
		}
		host = authority[1:end]
		rest := authority[end+1:]
		if strings.HasPrefix(rest, ":") {
			port = rest[1:]
		}
		return host, port
	}

	switch strings.Count(authority, ":") {
	case 0:
		return authority, ""
	case 1:
		i := strings.Index(authority, ":")
		return authority[:i], authority[i+1:]
	default:
		return authority, ""
	}
}
