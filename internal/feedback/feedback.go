// Package feedback plays the audio and haptic cues that confirm a toggle.
//
// Every cue is best effort: sinks run off the caller's goroutine and their
// failures are logged, never returned.
package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/clicker/internal/config"
	"github.com/studiowebux/clicker/internal/toggle"
)

const defaultTimeout = 2 * time.Second

// Sink produces one kind of cue
type Sink interface {
	Name() string
	Play(ctx context.Context, state toggle.State) error
}

// Dispatcher fans a toggle out to every enabled sink
type Dispatcher struct {
	sinks   []Sink
	logger  zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher over sinks
func NewDispatcher(logger zerolog.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		logger:  logger.With().Str("component", "feedback").Logger(),
		timeout: defaultTimeout,
	}
}

// FromSettings builds the sinks switched on in settings
func FromSettings(settings config.Feedback, logger zerolog.Logger) *Dispatcher {
	var sinks []Sink
	if settings.Audio {
		sinks = append(sinks, NewBell(nil))
	}
	if settings.Haptic {
		sinks = append(sinks, NewHaptic(AppID))
	}
	return NewDispatcher(logger, sinks...)
}

// Sinks returns the configured sink names
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Fire plays state on every sink without blocking the caller
func (d *Dispatcher) Fire(state toggle.State) {
	if len(d.sinks) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		var g errgroup.Group
		for _, sink := range d.sinks {
			sink := sink
			g.Go(func() error {
				if err := sink.Play(ctx, state); err != nil {
					d.logger.Debug().Err(err).Str("sink", sink.Name()).Msg("feedback unavailable")
				}
				return nil
			})
		}
		g.Wait()
	}()
}

// Wait blocks until every in-flight Fire has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
