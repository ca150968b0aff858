// Package mock is a stand-in remote host for trying the client without the
// real key-pressing application.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/clicker/internal/protocol"
)

const maxLogs = 1000

// Server represents the mock host: a command channel on the wire port and a
// launch page on the control port
type Server struct {
	config   *Config
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	logs      []CommandLog
	logsMutex sync.RWMutex

	stateMu sync.Mutex
	pressed bool
	clients int
}

// NewServer creates a new mock host
func NewServer(cfg *Config, logger zerolog.Logger) *Server {
	defaults := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = defaults.Host
	}
	if cfg.WirePort == 0 {
		cfg.WirePort = defaults.WirePort
	}
	if cfg.ControlPort == 0 {
		cfg.ControlPort = defaults.ControlPort
	}

	return &Server{
		config: cfg,
		logger: logger.With().Str("component", "mock-host").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logs: make([]CommandLog, 0),
	}
}

// Run serves both ports until ctx is done
func (s *Server) Run(ctx context.Context) error {
	wire := &http.Server{
		Addr:    net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.WirePort)),
		Handler: s.WireHandler(),
	}
	control := &http.Server{
		Addr:    net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.ControlPort)),
		Handler: s.ControlHandler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{wire, control} {
		srv := srv
		g.Go(func() error {
			s.logger.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("mock host %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Join(wire.Shutdown(shutdownCtx), control.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

// WireHandler accepts the command channel
func (s *Server) WireHandler() http.Handler {
	r := mux.NewRouter()
	r.PathPrefix("/").HandlerFunc(s.handleWire)
	return r
}

// ControlHandler serves the launch page and health
func (s *Server) ControlHandler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleLaunchPage).Methods(http.MethodGet)
	r.HandleFunc("/launch", s.handleLaunchURL).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/logs", s.handleLogs).Methods(http.MethodGet)
	r.HandleFunc("/logs", s.handleClearLogs).Methods(http.MethodDelete)
	return r
}

// WireAddress returns the canonical address clients connect to
func (s *Server) WireAddress() string {
	return "ws://" + net.JoinHostPort(s.advertised(), strconv.Itoa(s.config.WirePort))
}

// LaunchURL returns the control-page URL carrying the server parameter
func (s *Server) LaunchURL() string {
	return fmt.Sprintf("http://%s/?server=%s",
		net.JoinHostPort(s.advertised(), strconv.Itoa(s.config.ControlPort)), s.WireAddress())
}

func (s *Server) advertised() string {
	if s.config.Advertise != "" {
		return s.config.Advertise
	}
	return s.config.Host
}

func (s *Server) handleWire(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	s.stateMu.Lock()
	s.clients++
	s.stateMu.Unlock()
	defer func() {
		s.stateMu.Lock()
		s.clients--
		s.stateMu.Unlock()
	}()

	s.logger.Info().Str("remote", r.RemoteAddr).Msg("client connected")

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info().Str("remote", r.RemoteAddr).Msg("client disconnected")
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		entry := s.apply(r.RemoteAddr, data)
		if s.config.Logging {
			s.logCommand(entry)
		}

		if !s.config.Reply {
			continue
		}
		if s.config.Delay > 0 {
			time.Sleep(time.Duration(s.config.Delay) * time.Millisecond)
		}
		if err := conn.WriteMessage(websocket.TextMessage, reply(entry)); err != nil {
			s.logger.Warn().Err(err).Msg("reply failed")
			return
		}
	}
}

// apply decodes a frame and updates the simulated key state
func (s *Server) apply(remote string, data []byte) CommandLog {
	entry := CommandLog{
		Timestamp: time.Now(),
		Remote:    remote,
		Raw:       string(data),
	}

	cmd, err := protocol.Decode(data)
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if err != nil {
		s.logger.Warn().Err(err).Str("raw", entry.Raw).Msg("ignored frame")
		entry.Pressed = s.pressed
		return entry
	}

	entry.Action = string(cmd.Action)
	entry.Valid = true
	s.pressed = cmd.Action == protocol.ActionKeyDown
	entry.Pressed = s.pressed

	s.logger.Info().Str("action", entry.Action).Bool("pressed", s.pressed).Msg("command")
	return entry
}

func reply(entry CommandLog) []byte {
	ack := map[string]string{"status": "ok"}
	if entry.Valid {
		ack["action"] = entry.Action
	} else {
		ack["status"] = "error: unrecognized command"
	}
	data, _ := json.Marshal(ack)
	return data
}

var launchPage = template.Must(template.New("launch").Parse(`<!DOCTYPE html>
<html>
<head><title>Clicker host</title></head>
<body>
<h1>Clicker host</h1>
<p>Open this page's link on your device, or enter <code>{{.Wire}}</code> in the client.</p>
<p><a href="{{.Launch}}">{{.Launch}}</a></p>
</body>
</html>
`))

func (s *Server) handleLaunchPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	launchPage.Execute(w, struct{ Wire, Launch string }{s.WireAddress(), s.LaunchURL()})
}

func (s *Server) handleLaunchURL(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, s.LaunchURL())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.stateMu.Lock()
	health := Health{Status: "ok", Clients: s.clients, Pressed: s.pressed, Wire: s.WireAddress()}
	s.stateMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.GetLogs())
}

func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	s.ClearLogs()
	w.WriteHeader(http.StatusNoContent)
}

// Pressed reports the simulated key state
func (s *Server) Pressed() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.pressed
}

// logCommand adds a frame to the log
func (s *Server) logCommand(entry CommandLog) {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = append(s.logs, entry)

	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}
}

// GetLogs returns a copy of the command log
func (s *Server) GetLogs() []CommandLog {
	s.logsMutex.RLock()
	defer s.logsMutex.RUnlock()

	logs := make([]CommandLog, len(s.logs))
	copy(logs, s.logs)
	return logs
}

// ClearLogs clears the command log
func (s *Server) ClearLogs() {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = make([]CommandLog, 0)
}
