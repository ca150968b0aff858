package session

import (
	"testing"

	"github.com/studiowebux/clicker/internal/endpoint"
	"github.com/studiowebux/clicker/internal/kv"
)

func TestManager_ServerURL(t *testing.T) {
	m := NewManager(kv.NewMemoryStore())

	if m.ServerURL() != "" {
		t.Fatal("expected no saved address")
	}
	if err := m.SetServerURL("ws://a:8765"); err != nil {
		t.Fatal(err)
	}
	if m.ServerURL() != "ws://a:8765" {
		t.Errorf("unexpected address %q", m.ServerURL())
	}
	if err := m.ClearServerURL(); err != nil {
		t.Fatal(err)
	}
	if m.ServerURL() != "" {
		t.Error("expected address to be cleared")
	}
}

func TestManager_InitialView(t *testing.T) {
	m := NewManager(kv.NewMemoryStore())

	if v := m.InitialView(); v != ViewWelcome {
		t.Errorf("first run should show welcome, got %s", v)
	}

	m.MarkWelcomeSeen()
	if v := m.InitialView(); v != ViewConnect {
		t.Errorf("returning user without address should see connect, got %s", v)
	}

	m.SetServerURL("ws://a:8765")
	if v := m.InitialView(); v != ViewMain {
		t.Errorf("saved address should go straight to main, got %s", v)
	}
}

func TestManager_InitialViewSavedAddressWinsOverWelcome(t *testing.T) {
	m := NewManager(kv.NewMemoryStore())
	m.SetServerURL("ws://a:8765")

	if v := m.InitialView(); v != ViewMain {
		t.Errorf("expected main, got %s", v)
	}
}

func TestLaunchServerParam(t *testing.T) {
	tests := []struct {
		name   string
		launch string
		want   string
		ok     bool
	}{
		{"full launch url", "http://192.168.1.50:8080/?server=ws://192.168.1.50:8765", "ws://192.168.1.50:8765", true},
		{"encoded value", "http://host:8080/index.html?server=ws%3A%2F%2Fhost%3A8765&x=1", "ws://host:8765", true},
		{"bare query", "?server=10.0.0.2", "10.0.0.2", true},
		{"query without question mark", "server=10.0.0.3", "10.0.0.3", true},
		{"no param", "http://host:8080/?other=1", "", false},
		{"empty param", "http://host:8080/?server=", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LaunchServerParam(tt.launch)
			if ok != tt.ok || got != tt.want {
				t.Errorf("LaunchServerParam(%q) = (%q, %v), want (%q, %v)", tt.launch, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestManager_SeedFromLaunch(t *testing.T) {
	m := NewManager(kv.NewMemoryStore())

	seeded, err := m.SeedFromLaunch("http://host:8080/?server=ws://host:8765", endpoint.Default)
	if err != nil || !seeded {
		t.Fatalf("expected seed, got seeded=%v err=%v", seeded, err)
	}
	if m.ServerURL() != "ws://host:8765" {
		t.Errorf("unexpected address %q", m.ServerURL())
	}

	seeded, _ = m.SeedFromLaunch("http://host:8080/", endpoint.Default)
	if seeded {
		t.Error("expected no seed without server param")
	}
	if m.ServerURL() != "ws://host:8765" {
		t.Error("missing param must not clear the saved address")
	}
}

func TestManager_SeedFromLaunchStoresCanonicalAddress(t *testing.T) {
	tests := []struct {
		launch string
		wire   int
		want   string
	}{
		{"http://host:8080/?server=192.168.1.50", 0, "ws://192.168.1.50:8765"},
		{"http://host:8080/?server=192.168.1.50", 9000, "ws://192.168.1.50:9000"},
		{"?server=http://studio.local:8080/page", 0, "ws://studio.local:8765"},
	}

	for _, tt := range tests {
		m := NewManager(kv.NewMemoryStore())
		if _, err := m.SeedFromLaunch(tt.launch, endpoint.Normalizer{WirePort: tt.wire}); err != nil {
			t.Fatal(err)
		}
		if got := m.ServerURL(); got != tt.want {
			t.Errorf("SeedFromLaunch(%q) saved %q, want %q", tt.launch, got, tt.want)
		}
	}
}
