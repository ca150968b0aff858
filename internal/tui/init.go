package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/clicker/internal/endpoint"
	"github.com/studiowebux/clicker/internal/keybinds"
	"github.com/studiowebux/clicker/internal/session"
)

// New creates a new TUI model
func New(deps Deps) Model {
	if deps.Keys == nil {
		deps.Keys = keybinds.NewDefaultRegistry()
	}
	if deps.Normalizer == (endpoint.Normalizer{}) {
		deps.Normalizer = endpoint.Default
	}

	input := textinput.New()
	input.Placeholder = "192.168.1.50 or http://host:8080"
	input.CharLimit = AddressCharLimit
	input.Width = 40

	m := Model{
		deps:        deps,
		view:        deps.Session.InitialView(),
		input:       input,
		recentIndex: -1,
		button:      deps.Toggle.State(),
		connState:   deps.Connection.State(),
	}

	if m.view == session.ViewConnect {
		m.openConnect()
	} else {
		m.reloadRecent()
	}

	return m
}

// Run starts the TUI. The bridge must already be registered as the toggle
// presenter and as a connection observer.
func Run(ctx context.Context, deps Deps, bridge *Bridge) error {
	m := New(deps)

	// Pass pointer since Update uses pointer receiver
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithContext(ctx))

	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go bridge.Run(pumpCtx, p.Send)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
