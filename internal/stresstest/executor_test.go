package stresstest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/studiowebux/clicker/internal/mock"
)

func startHost(t *testing.T, cfg *mock.Config) (*mock.Server, string) {
	t.Helper()

	if cfg == nil {
		cfg = mock.DefaultConfig()
	}
	host := mock.NewServer(cfg, zerolog.Nop())
	ts := httptest.NewServer(host.WireHandler())
	t.Cleanup(ts.Close)

	return host, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestExecutor_AllAcked(t *testing.T) {
	host, address := startHost(t, nil)

	e, err := NewExecutor(&Config{Address: address, Clients: 3, Toggles: 10}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	var progress atomic.Int32
	e.OnProgress = func(Stats) { progress.Add(1) }

	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Sent != 30 || stats.Acked != 30 {
		t.Errorf("expected 30 sent and acked, got sent=%d acked=%d", stats.Sent, stats.Acked)
	}
	if stats.Errors != 0 || stats.Rejected != 0 {
		t.Errorf("expected no failures, got errors=%d rejected=%d", stats.Errors, stats.Rejected)
	}
	if stats.Progress() != 100 {
		t.Errorf("expected 100%% progress, got %.1f", stats.Progress())
	}
	if stats.ActiveClients != 0 {
		t.Errorf("expected all clients to finish, got %d active", stats.ActiveClients)
	}
	if progress.Load() == 0 {
		t.Error("expected progress callbacks")
	}

	// Each client ends on key_up
	if host.Pressed() {
		t.Error("expected key to be released at the end")
	}
	if len(host.GetLogs()) != 30 {
		t.Errorf("expected host to log 30 commands, got %d", len(host.GetLogs()))
	}
}

func TestExecutor_NoReplyIsAnError(t *testing.T) {
	cfg := mock.DefaultConfig()
	cfg.Reply = false
	_, address := startHost(t, cfg)

	e, err := NewExecutor(&Config{Address: address, Clients: 2, Toggles: 5, ReplyTimeout: 100 * time.Millisecond}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	stats, _ := e.Run(context.Background())

	// The first command of each client times out and the client stops
	if stats.Errors != 2 {
		t.Errorf("expected 2 errors, got %d", stats.Errors)
	}
	if stats.Acked != 0 {
		t.Errorf("expected no acks, got %d", stats.Acked)
	}
}

func TestExecutor_RejectedReplies(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"error: busy"}`))
		}
	}))
	defer ts.Close()

	e, err := NewExecutor(&Config{Address: "ws" + strings.TrimPrefix(ts.URL, "http"), Toggles: 4}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	stats, _ := e.Run(context.Background())
	if stats.Rejected != 4 {
		t.Errorf("expected 4 rejected, got %d", stats.Rejected)
	}
	if stats.AckRate() != 0 {
		t.Errorf("expected 0%% ack rate, got %.1f", stats.AckRate())
	}
}

func TestExecutor_DialFailure(t *testing.T) {
	e, err := NewExecutor(&Config{Address: "ws://127.0.0.1:1", Clients: 2, Toggles: 3}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	stats, _ := e.Run(context.Background())
	if stats.Errors != 2 || stats.Sent != 0 {
		t.Errorf("expected 2 dial errors and nothing sent, got errors=%d sent=%d", stats.Errors, stats.Sent)
	}
}

func TestExecutor_Cancellation(t *testing.T) {
	_, address := startHost(t, nil)

	e, err := NewExecutor(&Config{Address: address, Toggles: 1000, Interval: 10 * time.Millisecond}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	stats, err := e.Run(ctx)
	if err == nil {
		t.Error("expected context error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("run did not stop promptly")
	}
	if stats.Sent >= 1000 {
		t.Errorf("expected the run to be cut short, sent %d", stats.Sent)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"defaults filled", Config{Address: "ws://h:8765"}, false},
		{"missing address", Config{}, true},
		{"too many clients", Config{Address: "ws://h:8765", Clients: maxClients + 1}, true},
		{"negative toggles", Config{Address: "ws://h:8765", Toggles: -1}, true},
		{"negative interval", Config{Address: "ws://h:8765", Interval: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	c := Config{Address: "ws://h:8765"}
	c.Validate()
	if c.Clients != DefaultClients || c.Toggles != DefaultToggles || c.ReplyTimeout != DefaultReplyTimeout {
		t.Errorf("defaults not applied: %+v", c)
	}
}

func TestStats_Percentiles(t *testing.T) {
	s := NewStats(5)
	for _, d := range []int64{10, 20, 30, 40, 50} {
		s.AddAck(d, false)
	}

	if s.P50() != 30 {
		t.Errorf("expected p50 30, got %d", s.P50())
	}
	if s.Min() != 10 || s.Max() != 50 {
		t.Errorf("expected min 10 max 50, got %d %d", s.Min(), s.Max())
	}
	if s.AvgMs() != 30 {
		t.Errorf("expected avg 30, got %f", s.AvgMs())
	}
	if s.P99() != 49 {
		t.Errorf("expected interpolated p99 49, got %d", s.P99())
	}
}
