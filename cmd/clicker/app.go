package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/studiowebux/clicker/internal/analytics"
	"github.com/studiowebux/clicker/internal/config"
	"github.com/studiowebux/clicker/internal/connection"
	"github.com/studiowebux/clicker/internal/endpoint"
	"github.com/studiowebux/clicker/internal/feedback"
	"github.com/studiowebux/clicker/internal/history"
	"github.com/studiowebux/clicker/internal/kv"
	"github.com/studiowebux/clicker/internal/logging"
	"github.com/studiowebux/clicker/internal/session"
	"github.com/studiowebux/clicker/internal/toggle"
)

// app holds the wired components shared by the commands
type app struct {
	settings   config.Settings
	logger     zerolog.Logger
	normalizer endpoint.Normalizer

	store     kv.Store
	sqlite    *kv.SQLiteStore // nil when running on the in-memory fallback
	session   *session.Manager
	history   *history.Store
	analytics *analytics.Manager
}

// appOptions are the global flags
type appOptions struct {
	configPath string
	logLevel   string
	console    bool // also log to stderr (headless commands)
}

// newApp loads settings, opens storage and builds the logger
func newApp(opts appOptions) (*app, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	path := opts.configPath
	if path == "" {
		path = config.GetSettingsFilePath()
	}
	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		settings.LogLevel = opts.logLevel
	}

	logger := logging.New(logging.Options{
		File:    config.LogFile,
		Level:   settings.LogLevel,
		Console: opts.console,
	})

	a := &app{
		settings: settings,
		logger:   logger,
		normalizer: endpoint.Normalizer{
			WirePort:    settings.WirePort,
			ControlPort: settings.ControlPort,
		},
	}

	store, err := kv.Open(settings.Storage.Driver, config.DatabasePath)
	if err != nil {
		// Session state still works for this run; it is just not persisted
		logger.Warn().Err(err).Str("driver", settings.Storage.Driver).Msg("storage unavailable, using memory")
		a.store = kv.NewMemoryStore()
	} else {
		a.store = store
		a.sqlite = store

		if a.analytics, err = analytics.NewManager(store.DB()); err != nil {
			logger.Warn().Err(err).Msg("analytics disabled")
			a.analytics = nil
		}
	}

	a.session = session.NewManager(a.store)
	a.history = history.NewStore(a.store)
	return a, nil
}

// seed stores a --server address or a launch URL as the session address
func (a *app) seed(server, launch string) error {
	if launch != "" {
		found, err := a.session.SeedFromLaunch(launch, a.normalizer)
		if err != nil {
			return fmt.Errorf("failed to save launch address: %w", err)
		}
		if !found {
			return fmt.Errorf("launch URL has no server parameter: %s", launch)
		}
		a.logger.Info().Str("launch", launch).Msg("session seeded from launch URL")
	}

	if server = strings.TrimSpace(server); server != "" {
		address := a.normalizer.Normalize(server).String()
		if err := a.session.SetServerURL(address); err != nil {
			return fmt.Errorf("failed to save server address: %w", err)
		}
		a.logger.Info().Str("address", address).Msg("session seeded from flag")
	}
	return nil
}

// runtime is a running connection manager with its toggle and feedback
type runtime struct {
	manager  *connection.Manager
	toggle   *toggle.Machine
	feedback *feedback.Dispatcher
	done     chan struct{}
}

// start wires the toggle, feedback and analytics to a new connection manager
// and runs it until ctx is done. presenter may be nil.
func (a *app) start(ctx context.Context, presenter toggle.Presenter, observers ...connection.Observer) *runtime {
	dispatcher := feedback.FromSettings(a.settings.Feedback, a.logger)
	machine := toggle.New(presenter, nil, dispatcher)

	if a.analytics != nil {
		observers = append(observers, analytics.NewRecorder(a.analytics, a.logger))
	}

	manager := connection.NewManager(connection.Options{
		Session:        a.session,
		History:        a.history,
		Toggle:         machine,
		Normalizer:     a.normalizer,
		Logger:         a.logger,
		ReconnectDelay: a.settings.ReconnectDelay,
		Observers:      observers,
	})
	machine.SetTransmitter(manager)

	rt := &runtime{
		manager:  manager,
		toggle:   machine,
		feedback: dispatcher,
		done:     make(chan struct{}),
	}
	go func() {
		defer close(rt.done)
		manager.Run(ctx)
	}()

	a.logger.Debug().Strs("feedback", dispatcher.Sinks()).Msg("connection manager started")
	return rt
}

// wait blocks until the manager has torn its channel down
func (rt *runtime) wait() {
	<-rt.done
	rt.feedback.Wait()
}

func (a *app) close() {
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
}
