package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/studiowebux/clicker/internal/connection"
	"github.com/studiowebux/clicker/internal/endpoint"
	"github.com/studiowebux/clicker/internal/history"
	"github.com/studiowebux/clicker/internal/keybinds"
	"github.com/studiowebux/clicker/internal/protocol"
	"github.com/studiowebux/clicker/internal/session"
	"github.com/studiowebux/clicker/internal/toggle"
)

// Connector is the part of the connection manager the UI drives
type Connector interface {
	Connect(ep endpoint.Endpoint)
	Disconnect()
	State() connection.State
	SessionAddress() string
	ReconnectPending() bool
}

// Toggler is the toggle machine as seen by the UI
type Toggler interface {
	Toggle() toggle.State
	State() toggle.State
}

// Deps are the collaborators of the model
type Deps struct {
	Session    *session.Manager
	History    *history.Store
	Connection Connector
	Toggle     Toggler
	Keys       *keybinds.Registry
	Normalizer endpoint.Normalizer
	Logger     zerolog.Logger

	// Clipboard defaults to the system clipboard
	Clipboard func(string) error
}

// Model represents the TUI state
type Model struct {
	deps Deps
	view session.View

	// Connect view
	input        textinput.Model
	recent       []history.Entry // full list, newest first
	matches      []history.Entry // recent filtered by the input
	recentIndex  int             // -1 means the typed address
	connectingTo string

	// Main view
	button      toggle.State
	connState   connection.State
	lastMessage string
	lastAddress string

	showHelp bool
	width    int
	height   int

	statusMsg    string
	errorMsg     string
	fullErrorMsg string
}

func (m *Model) Init() tea.Cmd {
	if m.view != session.ViewMain {
		return textinput.Blink
	}
	address := m.deps.Session.ServerURL()
	if address == "" {
		return nil
	}
	conn := m.deps.Connection
	ep := m.deps.Normalizer.Normalize(address)
	return func() tea.Msg {
		conn.Connect(ep)
		return nil
	}
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = min(msg.Width-8, 60)

	case toggledMsg:
		// The machine is authoritative; messages may interleave with resets
		m.button = m.deps.Toggle.State()

	case connEventMsg:
		cmd = m.handleConnectionEvent(connection.Event(msg))

	case clearStatusMsg:
		m.statusMsg = ""

	case clearErrorMsg:
		m.errorMsg = ""
		m.fullErrorMsg = ""

	default:
		if m.view == session.ViewConnect {
			m.input, cmd = m.input.Update(msg)
		}
	}

	return m, cmd
}

func (m *Model) handleConnectionEvent(e connection.Event) tea.Cmd {
	m.connState = m.deps.Connection.State()

	switch e.Kind {
	case connection.EventOpen:
		m.connectingTo = ""
		m.lastAddress = e.Address
		m.lastMessage = ""
		m.errorMsg = ""
		m.fullErrorMsg = ""
		m.reloadRecent()
		m.view = session.ViewMain
		m.input.Blur()
		return m.setStatusMessage(fmt.Sprintf("Connected to %s", e.Address))

	case connection.EventClose:
		if e.State == connection.Idle {
			m.lastAddress = ""
			m.openConnect()
			return m.setStatusMessage("Disconnected")
		}
		return m.setStatusMessage("Disconnected")

	case connection.EventReconnectScheduled:
		return m.setStatusMessage(fmt.Sprintf("Reconnecting in %s...", e.Delay.Round(time.Second)))

	case connection.EventError:
		if errors.Is(e.Err, connection.ErrChannelConstruction) {
			m.connectingTo = ""
			m.openConnect()
		}
		if e.Err != nil {
			m.deps.Logger.Debug().Err(e.Err).Str("address", e.Address).Msg("connection error shown")
			return m.setErrorMessage(fmt.Sprintf("Connection error: %v", e.Err))
		}

	case connection.EventMessage:
		m.lastMessage = protocol.Describe(e.Data)
	}

	return nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	switch m.view {
	case session.ViewWelcome:
		return m.renderWelcome()
	case session.ViewConnect:
		return m.renderConnect()
	default:
		return m.renderMain()
	}
}

// CurrentView returns the visible view
func (m *Model) CurrentView() session.View {
	return m.view
}

func (m *Model) openConnect() {
	m.view = session.ViewConnect
	m.reloadRecent()
	m.input.Focus()
}

func (m *Model) reloadRecent() {
	if m.deps.History == nil {
		m.recent = nil
	} else {
		m.recent = m.deps.History.List()
	}
	m.filterRecent()
}

func (m *Model) copyAddress() tea.Cmd {
	address := m.deps.Connection.SessionAddress()
	if address == "" {
		return m.setErrorMessage("No server address to copy")
	}
	write := m.deps.Clipboard
	if write == nil {
		write = clipboard.WriteAll
	}
	if err := write(address); err != nil {
		return m.setErrorMessage(fmt.Sprintf("Failed to copy: %v", err))
	}
	return m.setStatusMessage("Copied " + address)
}

type clearStatusMsg struct{}
type clearErrorMsg struct{}

// Helper methods for setting messages with timeout
func (m *Model) setStatusMessage(msg string) tea.Cmd {
	m.statusMsg = truncate(msg, StatusMaxLength)
	return tea.Tick(MessageTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m *Model) setErrorMessage(msg string) tea.Cmd {
	m.fullErrorMsg = msg
	m.errorMsg = truncate(msg, StatusMaxLength)
	return tea.Tick(MessageTimeout, func(time.Time) tea.Msg {
		return clearErrorMsg{}
	})
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
