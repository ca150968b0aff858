package stresstest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/clicker/internal/protocol"
)

const (
	// HandshakeTimeout bounds each client's dial
	HandshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

// ack is the host's reply to a command
type ack struct {
	Action string `json:"action"`
	Status string `json:"status"`
}

// Executor runs one stress test
type Executor struct {
	config *Config
	logger zerolog.Logger
	dialer *websocket.Dialer

	statsMu sync.Mutex
	stats   *Stats

	// OnProgress, when set, receives a snapshot after every outcome
	OnProgress func(Stats)
}

// NewExecutor validates config and prepares an executor
func NewExecutor(config *Config, logger zerolog.Logger) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Executor{
		config: config,
		logger: logger.With().Str("component", "stresstest").Logger(),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: HandshakeTimeout,
		},
		stats: NewStats(config.Total()),
	}, nil
}

// Run executes the test and returns the final statistics. Channel failures
// are counted, not returned; the error is only ctx's.
func (e *Executor) Run(ctx context.Context) (Stats, error) {
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < e.config.Clients; i++ {
		client := i
		g.Go(func() error {
			if delay := e.startDelay(client); delay > 0 {
				select {
				case <-time.After(delay):
				case <-gctx.Done():
					return nil
				}
			}
			e.client(gctx, client)
			return nil
		})
	}

	g.Wait()
	return e.GetStats(), ctx.Err()
}

// GetStats returns a snapshot of the current statistics
func (e *Executor) GetStats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats.clone()
}

// startDelay spreads client starts evenly across the ramp-up window
func (e *Executor) startDelay(client int) time.Duration {
	if e.config.RampUp <= 0 || e.config.Clients <= 1 {
		return 0
	}
	return e.config.RampUp * time.Duration(client) / time.Duration(e.config.Clients)
}

func (e *Executor) client(ctx context.Context, id int) {
	log := e.logger.With().Int("client", id).Logger()

	conn, _, err := e.dialer.DialContext(ctx, e.config.Address, nil)
	if err != nil {
		log.Debug().Err(err).Msg("dial failed")
		e.record(func(s *Stats) { s.AddError(false) })
		return
	}
	defer conn.Close()

	e.record(func(s *Stats) { s.ActiveClients++ })
	defer e.record(func(s *Stats) { s.ActiveClients-- })

	// Unblock a pending read when the run is cancelled
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for i := 0; i < e.config.Toggles; i++ {
		if ctx.Err() != nil {
			return
		}

		action := protocol.ActionFor(i%2 == 0)
		duration, rejected, err := e.roundTrip(conn, action)
		if err != nil {
			log.Debug().Err(err).Str("action", string(action)).Msg("channel failed")
			e.record(func(s *Stats) { s.AddError(true) })
			return
		}
		e.record(func(s *Stats) { s.AddAck(duration.Milliseconds(), rejected) })

		if e.config.Interval > 0 && i < e.config.Toggles-1 {
			select {
			case <-time.After(e.config.Interval):
			case <-ctx.Done():
				return
			}
		}
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// roundTrip sends action and waits for the matching acknowledgement
func (e *Executor) roundTrip(conn *websocket.Conn, action protocol.Action) (time.Duration, bool, error) {
	data, err := protocol.Encode(action)
	if err != nil {
		return 0, false, err
	}

	start := time.Now()
	conn.SetWriteDeadline(start.Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return 0, false, fmt.Errorf("write failed: %w", err)
	}

	conn.SetReadDeadline(start.Add(e.config.ReplyTimeout))
	_, reply, err := conn.ReadMessage()
	if err != nil {
		return 0, false, fmt.Errorf("no acknowledgement: %w", err)
	}
	elapsed := time.Since(start)

	var a ack
	if err := json.Unmarshal(reply, &a); err != nil {
		return elapsed, true, nil
	}
	return elapsed, a.Status != "ok" || a.Action != string(action), nil
}

func (e *Executor) record(update func(*Stats)) {
	e.statsMu.Lock()
	update(e.stats)
	snapshot := e.stats.clone()
	e.statsMu.Unlock()

	if e.OnProgress != nil {
		e.OnProgress(snapshot)
	}
}
