package analytics

import (
	"github.com/rs/zerolog"

	"github.com/studiowebux/clicker/internal/connection"
)

// Recorder persists connection lifecycle events as they happen
type Recorder struct {
	manager *Manager
	logger  zerolog.Logger
}

// NewRecorder returns an observer writing into manager
func NewRecorder(manager *Manager, logger zerolog.Logger) *Recorder {
	return &Recorder{manager: manager, logger: logger.With().Str("component", "analytics").Logger()}
}

// Observe implements connection.Observer
func (r *Recorder) Observe(e connection.Event) {
	entry, ok := entryFor(e)
	if !ok {
		return
	}
	if err := r.manager.Save(entry); err != nil {
		r.logger.Warn().Err(err).Str("kind", entry.Kind).Msg("failed to record connection event")
	}
}

func entryFor(e connection.Event) (Entry, bool) {
	entry := Entry{
		AttemptID: e.AttemptID,
		Address:   e.Address,
		Timestamp: e.At,
	}

	switch e.Kind {
	case connection.EventOpen:
		entry.Kind = KindOpen
	case connection.EventClose:
		entry.Kind = KindClose
		entry.Duration = e.Uptime
		if e.Err != nil {
			entry.Detail = e.Err.Error()
		}
	case connection.EventError:
		entry.Kind = KindError
		if e.Err != nil {
			entry.Detail = e.Err.Error()
		}
	case connection.EventReconnectScheduled:
		entry.Kind = KindReconnect
		entry.Duration = e.Delay
	default:
		return Entry{}, false
	}

	if entry.Address == "" {
		return Entry{}, false
	}
	return entry, true
}
