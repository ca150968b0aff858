package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/studiowebux/clicker/internal/history"
	"github.com/studiowebux/clicker/internal/keybinds"
	"github.com/studiowebux/clicker/internal/session"
)

// handleKeyPress routes key presses based on the current view
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch m.view {
	case session.ViewWelcome:
		return m.handleWelcomeKeys(msg)
	case session.ViewConnect:
		return m.handleConnectKeys(msg)
	default:
		return m.handleMainKeys(msg)
	}
}

// handleGlobalAction handles actions shared by every view
func (m *Model) handleGlobalAction(action keybinds.Action) (tea.Cmd, bool) {
	switch action {
	case keybinds.ActionQuit, keybinds.ActionQuitForce:
		return tea.Quit, true
	case keybinds.ActionShowHelp:
		m.showHelp = !m.showHelp
		return nil, true
	}
	return nil, false
}

func (m *Model) handleWelcomeKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.deps.Keys.Match(keybinds.ContextWelcome, msg.String())
	if !ok {
		return nil
	}

	if action == keybinds.ActionContinue {
		if err := m.deps.Session.MarkWelcomeSeen(); err != nil {
			m.deps.Logger.Warn().Err(err).Msg("failed to persist welcome flag")
		}
		m.openConnect()
		return nil
	}

	cmd, _ := m.handleGlobalAction(action)
	return cmd
}

func (m *Model) handleConnectKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.deps.Keys.Match(keybinds.ContextConnect, msg.String())
	if !ok || action == keybinds.ActionNoOp {
		return m.updateInput(msg)
	}

	switch action {
	case keybinds.ActionConnect:
		return m.connectSelected()

	case keybinds.ActionHistoryUp:
		if m.recentIndex >= 0 {
			m.recentIndex--
		}
		return nil

	case keybinds.ActionHistoryDown:
		if m.recentIndex < len(m.matches)-1 {
			m.recentIndex++
		}
		return nil

	case keybinds.ActionHistoryForget:
		entry, ok := m.selectedRecent()
		if !ok {
			return nil
		}
		if err := m.deps.History.Remove(entry.URL); err != nil {
			return m.setErrorMessage(fmt.Sprintf("Failed to forget host: %v", err))
		}
		m.reloadRecent()
		return m.setStatusMessage("Forgot " + entry.Name)

	case keybinds.ActionHistoryClear:
		if len(m.recent) == 0 {
			return nil
		}
		if err := m.deps.History.Clear(); err != nil {
			return m.setErrorMessage(fmt.Sprintf("Failed to clear recent hosts: %v", err))
		}
		m.reloadRecent()
		return m.setStatusMessage("Recent hosts cleared")

	case keybinds.ActionCancel:
		// Only meaningful while a session is alive
		if m.deps.Connection.SessionAddress() == "" {
			return nil
		}
		m.view = session.ViewMain
		m.input.Blur()
		return nil
	}

	cmd, _ := m.handleGlobalAction(action)
	return cmd
}

func (m *Model) handleMainKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.deps.Keys.Match(keybinds.ContextMain, msg.String())
	if !ok {
		return nil
	}

	switch action {
	case keybinds.ActionToggle:
		m.button = m.deps.Toggle.Toggle()
		return nil

	case keybinds.ActionDisconnect:
		m.deps.Connection.Disconnect()
		m.lastAddress = ""
		m.openConnect()
		return nil

	case keybinds.ActionChangeServer:
		m.input.SetValue("")
		m.openConnect()
		return nil

	case keybinds.ActionCopyAddress:
		return m.copyAddress()
	}

	cmd, _ := m.handleGlobalAction(action)
	return cmd
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.filterRecent()
	}
	return cmd
}

// connectSelected connects to the highlighted recent host, or to the typed
// address when nothing is highlighted. Empty input is ignored.
func (m *Model) connectSelected() tea.Cmd {
	address := strings.TrimSpace(m.input.Value())
	if entry, ok := m.selectedRecent(); ok {
		address = entry.URL
	}
	if address == "" {
		return nil
	}

	ep := m.deps.Normalizer.Normalize(address)
	m.connectingTo = ep.String()
	m.deps.Connection.Connect(ep)
	return m.setStatusMessage("Connecting to " + m.connectingTo + "...")
}

func (m *Model) selectedRecent() (history.Entry, bool) {
	if m.recentIndex < 0 || m.recentIndex >= len(m.matches) {
		return history.Entry{}, false
	}
	return m.matches[m.recentIndex], true
}

// filterRecent narrows the recent list to fuzzy matches of the input
func (m *Model) filterRecent() {
	m.recentIndex = -1

	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		m.matches = m.recent
		return
	}

	m.matches = nil
	for _, match := range fuzzy.FindFrom(query, recentSource(m.recent)) {
		m.matches = append(m.matches, m.recent[match.Index])
	}
}

// recentSource adapts history entries to fuzzy.Source
type recentSource []history.Entry

func (s recentSource) String(i int) string {
	return s[i].URL
}

func (s recentSource) Len() int {
	return len(s)
}

// context maps the current view to its keybinding context
func (m *Model) context() keybinds.Context {
	switch m.view {
	case session.ViewWelcome:
		return keybinds.ContextWelcome
	case session.ViewConnect:
		return keybinds.ContextConnect
	default:
		return keybinds.ContextMain
	}
}
