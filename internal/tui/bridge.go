package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/clicker/internal/connection"
	"github.com/studiowebux/clicker/internal/toggle"
)

// toggledMsg reports a toggle state change; the model rereads the machine
type toggledMsg struct {
	state toggle.State
}

// connEventMsg carries a connection lifecycle event
type connEventMsg connection.Event

// Bridge queues messages from other goroutines and forwards them to the
// program in order. Producers never block.
type Bridge struct {
	mu    sync.Mutex
	queue []tea.Msg
	wake  chan struct{}
}

// NewBridge creates an idle bridge; messages queue until Run starts
func NewBridge() *Bridge {
	return &Bridge{wake: make(chan struct{}, 1)}
}

// Toggled implements toggle.Presenter
func (b *Bridge) Toggled(state toggle.State) {
	b.push(toggledMsg{state: state})
}

// Observe implements connection.Observer
func (b *Bridge) Observe(e connection.Event) {
	b.push(connEventMsg(e))
}

func (b *Bridge) push(msg tea.Msg) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run delivers queued messages to send until ctx is done
func (b *Bridge) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		b.mu.Lock()
		pending := b.queue
		b.queue = nil
		b.mu.Unlock()

		for _, msg := range pending {
			send(msg)
		}

		select {
		case <-ctx.Done():
			return
		case <-b.wake:
		}
	}
}
