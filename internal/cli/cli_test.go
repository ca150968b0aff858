package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/studiowebux/clicker/internal/analytics"
	"github.com/studiowebux/clicker/internal/connection"
	"github.com/studiowebux/clicker/internal/endpoint"
	"github.com/studiowebux/clicker/internal/history"
	"github.com/studiowebux/clicker/internal/kv"
	"github.com/studiowebux/clicker/internal/session"
	"github.com/studiowebux/clicker/internal/stresstest"
	"github.com/studiowebux/clicker/internal/toggle"
)

type fakeClient struct {
	mu          sync.Mutex
	connects    []endpoint.Endpoint
	disconnects int
	observers   []connection.Observer
}

func (f *fakeClient) Connect(ep endpoint.Endpoint) {
	f.mu.Lock()
	f.connects = append(f.connects, ep)
	observers := f.observers
	f.mu.Unlock()

	for _, o := range observers {
		o.Observe(connection.Event{Kind: connection.EventOpen, State: connection.Open, Address: ep.String(), At: time.Now()})
	}
}

func (f *fakeClient) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *fakeClient) AddObserver(o connection.Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, o)
}

func newOptions(input string, out *bytes.Buffer) (ConnectOptions, *fakeClient) {
	store := kv.NewMemoryStore()
	client := &fakeClient{}
	return ConnectOptions{
		Client:  client,
		Toggle:  toggle.New(nil, nil, nil),
		Session: session.NewManager(store),
		History: history.NewStore(store),
		Logger:  zerolog.Nop(),
		In:      strings.NewReader(input),
		Out:     out,
	}, client
}

func TestConnect_TogglesAndQuits(t *testing.T) {
	var out bytes.Buffer
	opts, client := newOptions("\nt\nq\n", &out)
	opts.Address = "192.168.1.50"

	if err := Connect(context.Background(), opts); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if len(client.connects) != 1 || client.connects[0].String() != "ws://192.168.1.50:8765" {
		t.Fatalf("unexpected connects: %v", client.connects)
	}
	if client.disconnects != 0 {
		t.Error("quit must keep the session")
	}

	got := out.String()
	if !strings.Contains(got, "open") {
		t.Errorf("expected open event in output, got %q", got)
	}
	on := strings.Index(got, "ON")
	off := strings.Index(got, "OFF")
	if on < 0 || off < 0 || off < on {
		t.Errorf("expected ON then OFF, got %q", got)
	}
}

func TestConnect_Disconnect(t *testing.T) {
	var out bytes.Buffer
	opts, client := newOptions("d\n", &out)
	opts.Address = "ws://10.0.0.1:8765"

	if err := Connect(context.Background(), opts); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if client.disconnects != 1 {
		t.Errorf("expected one disconnect, got %d", client.disconnects)
	}
}

func TestConnect_JSONOutput(t *testing.T) {
	var out bytes.Buffer
	opts, _ := newOptions("toggle\n", &out)
	opts.Address = "10.0.0.1"
	opts.OutputFormat = "json"

	if err := Connect(context.Background(), opts); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 json lines, got %d: %q", len(lines), out.String())
	}

	var event map[string]string
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if event["event"] != "open" || event["address"] != "ws://10.0.0.1:8765" {
		t.Errorf("unexpected event: %v", event)
	}

	var button map[string]string
	if err := json.Unmarshal([]byte(lines[1]), &button); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if button["button"] != "on" {
		t.Errorf("expected button on, got %v", button)
	}
}

func TestConnect_UnknownFormat(t *testing.T) {
	var out bytes.Buffer
	opts, _ := newOptions("", &out)
	opts.Address = "10.0.0.1"
	opts.OutputFormat = "xml"

	if err := Connect(context.Background(), opts); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestResolveAddress(t *testing.T) {
	var out bytes.Buffer

	t.Run("typed wins", func(t *testing.T) {
		opts, _ := newOptions("", &out)
		opts.Address = " 10.0.0.9 "
		opts.Session.SetServerURL("ws://10.0.0.1:8765")

		got, err := resolveAddress(opts)
		if err != nil || got != "10.0.0.9" {
			t.Errorf("expected typed address, got %q, %v", got, err)
		}
	})

	t.Run("saved session", func(t *testing.T) {
		opts, _ := newOptions("", &out)
		opts.Session.SetServerURL("ws://10.0.0.1:8765")

		got, err := resolveAddress(opts)
		if err != nil || got != "ws://10.0.0.1:8765" {
			t.Errorf("expected session address, got %q, %v", got, err)
		}
	})

	t.Run("picked from history", func(t *testing.T) {
		opts, _ := newOptions("", &out)
		opts.History.Record("ws://10.0.0.2:8765", "10.0.0.2")
		opts.Pick = func(entries []history.Entry) (string, error) {
			return entries[0].URL, nil
		}

		got, err := resolveAddress(opts)
		if err != nil || got != "ws://10.0.0.2:8765" {
			t.Errorf("expected picked address, got %q, %v", got, err)
		}
	})

	t.Run("nothing known", func(t *testing.T) {
		opts, _ := newOptions("", &out)

		if _, err := resolveAddress(opts); !errors.Is(err, ErrNoAddress) {
			t.Errorf("expected ErrNoAddress, got %v", err)
		}
	})
}

func TestPromptForAddress(t *testing.T) {
	var out bytes.Buffer

	got, err := promptForAddress(strings.NewReader("  studio.local \n"), &out)
	if err != nil || got != "studio.local" {
		t.Errorf("expected studio.local, got %q, %v", got, err)
	}

	if _, err := promptForAddress(strings.NewReader("\n"), &out); !errors.Is(err, ErrNoAddress) {
		t.Errorf("expected ErrNoAddress for blank line, got %v", err)
	}
}

func TestFormatEvent(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		event  connection.Event
		format string
		want   string
	}{
		{
			name:   "text reconnect",
			event:  connection.Event{Kind: connection.EventReconnectScheduled, State: connection.Closed, Address: "ws://h:8765", Delay: 3 * time.Second, At: at},
			format: "text",
			want:   "(in 3s)",
		},
		{
			name:   "text message",
			event:  connection.Event{Kind: connection.EventMessage, State: connection.Open, Data: []byte(`{"action":"key_up","status":"ok"}`), At: at},
			format: "text",
			want:   "key_up",
		},
		{
			name:   "yaml error",
			event:  connection.Event{Kind: connection.EventError, State: connection.Connecting, Err: errors.New("refused"), At: at},
			format: "yaml",
			want:   "detail: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatEvent(tt.event, tt.format)
			if err != nil {
				t.Fatalf("formatEvent failed: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("expected %q in %q", tt.want, got)
			}
		})
	}
}

func TestWriteHistory(t *testing.T) {
	entries := []history.Entry{
		{URL: "ws://10.0.0.2:8765", Name: "10.0.0.2", LastConnected: 1700000000000},
		{URL: "ws://10.0.0.1:8765", Name: "10.0.0.1", LastConnected: 1600000000000},
	}

	var text bytes.Buffer
	if err := WriteHistory(&text, entries, "text"); err != nil {
		t.Fatalf("WriteHistory failed: %v", err)
	}
	if !strings.Contains(text.String(), "ws://10.0.0.2:8765") {
		t.Errorf("expected address in output, got %q", text.String())
	}

	var data bytes.Buffer
	if err := WriteHistory(&data, entries, "json"); err != nil {
		t.Fatalf("WriteHistory failed: %v", err)
	}
	var records []historyRecord
	if err := json.Unmarshal(data.Bytes(), &records); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(records) != 2 || records[0].Name != "10.0.0.2" {
		t.Errorf("unexpected records: %+v", records)
	}

	var empty bytes.Buffer
	WriteHistory(&empty, nil, "text")
	if !strings.Contains(empty.String(), "No recent hosts") {
		t.Errorf("expected empty notice, got %q", empty.String())
	}
}

func TestWriteStats(t *testing.T) {
	stats := []analytics.Stats{{
		Address:     "ws://10.0.0.1:8765",
		Attempts:    4,
		Opens:       3,
		Errors:      1,
		TotalUptime: 90 * time.Second,
	}}

	var out bytes.Buffer
	if err := WriteStats(&out, stats, "text"); err != nil {
		t.Fatalf("WriteStats failed: %v", err)
	}
	if !strings.Contains(out.String(), "75%") {
		t.Errorf("expected success rate in output, got %q", out.String())
	}

	if err := WriteStats(&out, stats, "csv"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteStressStats(t *testing.T) {
	stats := stresstest.NewStats(4)
	stats.AddAck(10, false)
	stats.AddAck(30, false)
	stats.AddError(true)

	var out bytes.Buffer
	if err := WriteStressStats(&out, *stats, "json"); err != nil {
		t.Fatalf("WriteStressStats failed: %v", err)
	}

	var record stressRecord
	if err := json.Unmarshal(out.Bytes(), &record); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if record.Sent != 3 || record.Acked != 2 || record.Errors != 1 || record.AvgMs != 20 {
		t.Errorf("unexpected record %+v", record)
	}
}
