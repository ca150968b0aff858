package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/studiowebux/clicker/internal/connection"
	"github.com/studiowebux/clicker/internal/endpoint"
	"github.com/studiowebux/clicker/internal/history"
	"github.com/studiowebux/clicker/internal/session"
	"github.com/studiowebux/clicker/internal/toggle"
)

// ErrNoAddress is returned when no address was given, saved or picked
var ErrNoAddress = errors.New("no server address: pass one, use --server, or connect once from the TUI")

// isInteractive checks if stdin is a terminal (not piped)
func isInteractive() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// Client is the connection surface the line-mode client drives
type Client interface {
	Connect(ep endpoint.Endpoint)
	Disconnect()
	AddObserver(o connection.Observer)
}

// Toggler flips the button
type Toggler interface {
	Toggle() toggle.State
}

// ConnectOptions contains options for the line-mode client
type ConnectOptions struct {
	Address      string // typed address; falls back to the saved session, then a picker
	OutputFormat string // text, json, yaml

	Client     Client
	Toggle     Toggler
	Session    *session.Manager
	History    *history.Store
	Normalizer endpoint.Normalizer
	Logger     zerolog.Logger

	In  io.Reader
	Out io.Writer

	// Pick chooses from recent hosts when no address is known. Defaults to
	// the interactive list when stdin is a terminal.
	Pick func([]history.Entry) (string, error)
}

// Connect runs the line-mode client. Each input line is a command:
//
//	(empty), t, toggle  flip the button
//	d, disconnect       close the channel, forget the session and exit
//	q, quit             exit, keeping the session for next time
//
// It returns when ctx is done, on quit or disconnect, or at end of input.
func Connect(ctx context.Context, opts ConnectOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Normalizer == (endpoint.Normalizer{}) {
		opts.Normalizer = endpoint.Default
	}
	if opts.OutputFormat == "" {
		opts.OutputFormat = "text"
	}
	if !isValidFormat(opts.OutputFormat) {
		return fmt.Errorf("unknown output format %q (text, json, yaml)", opts.OutputFormat)
	}

	address, err := resolveAddress(opts)
	if err != nil {
		return err
	}

	out := &lockedWriter{w: opts.Out}
	opts.Client.AddObserver(connection.ObserverFunc(func(e connection.Event) {
		if e.Kind == connection.EventState {
			return
		}
		line, err := formatEvent(e, opts.OutputFormat)
		if err != nil {
			opts.Logger.Warn().Err(err).Msg("failed to format event")
			return
		}
		out.WriteString(line)
	}))

	ep := opts.Normalizer.Normalize(address)
	opts.Logger.Info().Str("address", ep.String()).Msg("line-mode connect")
	opts.Client.Connect(ep)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(opts.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}

			switch strings.ToLower(strings.TrimSpace(line)) {
			case "", "t", "toggle":
				state := opts.Toggle.Toggle()
				text, err := formatToggle(state, opts.OutputFormat)
				if err != nil {
					return err
				}
				out.WriteString(text)
			case "d", "disconnect":
				opts.Client.Disconnect()
				return nil
			case "q", "quit":
				return nil
			default:
				out.WriteString(fmt.Sprintf("unknown command %q (enter: toggle, d: disconnect, q: quit)\n", line))
			}
		}
	}
}

// resolveAddress picks the typed address, the saved session or a recent host
func resolveAddress(opts ConnectOptions) (string, error) {
	if address := strings.TrimSpace(opts.Address); address != "" {
		return address, nil
	}
	if opts.Session != nil {
		if address := opts.Session.ServerURL(); address != "" {
			return address, nil
		}
	}
	if opts.History == nil {
		return "", ErrNoAddress
	}

	entries := opts.History.List()
	if len(entries) == 0 {
		return "", ErrNoAddress
	}

	pick := opts.Pick
	if pick == nil {
		if !isInteractive() {
			return "", ErrNoAddress
		}
		pick = promptForRecentHost
	}
	return pick(entries)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) WriteString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, s)
}
