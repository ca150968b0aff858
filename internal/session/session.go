package session

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/studiowebux/clicker/internal/endpoint"
	"github.com/studiowebux/clicker/internal/kv"
)

// Persisted keys
const (
	KeyServerURL   = "clicker_server_url"
	KeySeenWelcome = "clicker_seen_welcome"
)

// View is the screen shown at startup
type View int

const (
	ViewWelcome View = iota
	ViewConnect
	ViewMain
)

func (v View) String() string {
	switch v {
	case ViewWelcome:
		return "welcome"
	case ViewConnect:
		return "connect"
	case ViewMain:
		return "main"
	default:
		return "unknown"
	}
}

// Manager handles the persisted session address and first-run flag
type Manager struct {
	store kv.Store
}

// NewManager creates a new session manager
func NewManager(store kv.Store) *Manager {
	return &Manager{store: store}
}

// ServerURL returns the last session address, or "" when none is saved
func (m *Manager) ServerURL() string {
	value, ok, err := m.store.Get(KeyServerURL)
	if err != nil || !ok {
		return ""
	}
	return value
}

// SetServerURL persists the session address
func (m *Manager) SetServerURL(address string) error {
	if err := m.store.Set(KeyServerURL, address); err != nil {
		return fmt.Errorf("failed to save server url: %w", err)
	}
	return nil
}

// ClearServerURL forgets the session address
func (m *Manager) ClearServerURL() error {
	if err := m.store.Delete(KeyServerURL); err != nil {
		return fmt.Errorf("failed to clear server url: %w", err)
	}
	return nil
}

// HasSeenWelcome reports whether the introduction was dismissed
func (m *Manager) HasSeenWelcome() bool {
	value, ok, err := m.store.Get(KeySeenWelcome)
	return err == nil && ok && value == "true"
}

// MarkWelcomeSeen records that the introduction was dismissed
func (m *Manager) MarkWelcomeSeen() error {
	if err := m.store.Set(KeySeenWelcome, "true"); err != nil {
		return fmt.Errorf("failed to save welcome flag: %w", err)
	}
	return nil
}

// SeedFromLaunch stores the server= parameter of a launch URL (as encoded in
// the host's QR code) as the session address, in the canonical form n
// produces. It reports whether a value was found.
func (m *Manager) SeedFromLaunch(launch string, n endpoint.Normalizer) (bool, error) {
	server, ok := LaunchServerParam(launch)
	if !ok {
		return false, nil
	}
	if err := m.SetServerURL(n.Normalize(server).String()); err != nil {
		return false, err
	}
	return true, nil
}

// InitialView picks the startup screen: connect right away when an address
// is saved, otherwise the introduction for first-time users, otherwise the
// address entry.
func (m *Manager) InitialView() View {
	if m.ServerURL() != "" {
		return ViewMain
	}
	if !m.HasSeenWelcome() {
		return ViewWelcome
	}
	return ViewConnect
}

// LaunchServerParam extracts server=<value> from a launch URL or a bare
// query string.
func LaunchServerParam(launch string) (string, bool) {
	launch = strings.TrimSpace(launch)
	if launch == "" {
		return "", false
	}

	query := launch
	if u, err := url.Parse(launch); err == nil && (u.Scheme != "" || strings.HasPrefix(launch, "?")) {
		query = u.RawQuery
	}
	query = strings.TrimPrefix(query, "?")

	values, err := url.ParseQuery(query)
	if err != nil {
		return "", false
	}
	server := strings.TrimSpace(values.Get("server"))
	if server == "" {
		return "", false
	}
	return server, true
}
