package tui

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/studiowebux/clicker/internal/connection"
	"github.com/studiowebux/clicker/internal/endpoint"
	"github.com/studiowebux/clicker/internal/history"
	"github.com/studiowebux/clicker/internal/kv"
	"github.com/studiowebux/clicker/internal/protocol"
	"github.com/studiowebux/clicker/internal/session"
	"github.com/studiowebux/clicker/internal/toggle"
)

// fakeConnector records calls made by the model
type fakeConnector struct {
	mu          sync.Mutex
	state       connection.State
	address     string
	pending     bool
	connects    []endpoint.Endpoint
	disconnects int
}

func (f *fakeConnector) Connect(ep endpoint.Endpoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects = append(f.connects, ep)
	f.state = connection.Connecting
}

func (f *fakeConnector) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.state = connection.Idle
	f.address = ""
}

func (f *fakeConnector) State() connection.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeConnector) SessionAddress() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.address
}

func (f *fakeConnector) ReconnectPending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

func (f *fakeConnector) open(address string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = connection.Open
	f.address = address
}

func (f *fakeConnector) lastConnect() (endpoint.Endpoint, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.connects) == 0 {
		return endpoint.Endpoint{}, false
	}
	return f.connects[len(f.connects)-1], true
}

// fakeTransmitter counts commands sent by the toggle machine
type fakeTransmitter struct {
	mu   sync.Mutex
	sent int
}

func (f *fakeTransmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

func (f *fakeTransmitter) Send(protocol.Action) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	return true
}

// testEnv bundles a model with its collaborators
type testEnv struct {
	model     *Model
	store     *kv.MemoryStore
	session   *session.Manager
	history   *history.Store
	conn      *fakeConnector
	toggle    *toggle.Machine
	tx        *fakeTransmitter
	clipboard []string
}

// CreateTestModel creates a Model backed by in-memory storage and a fake
// connection. seed runs against the stores before the model is built.
func CreateTestModel(t *testing.T, seed func(*session.Manager, *history.Store)) *testEnv {
	t.Helper()

	store := kv.NewMemoryStore()
	env := &testEnv{
		store:   store,
		session: session.NewManager(store),
		history: history.NewStore(store),
		conn:    &fakeConnector{},
		tx:      &fakeTransmitter{},
	}
	env.toggle = toggle.New(nil, env.tx, nil)
	if seed != nil {
		seed(env.session, env.history)
	}

	m := New(Deps{
		Session:    env.session,
		History:    env.history,
		Connection: env.conn,
		Toggle:     env.toggle,
		Logger:     zerolog.Nop(),
		Clipboard: func(s string) error {
			env.clipboard = append(env.clipboard, s)
			return nil
		},
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	env.model = &m

	return env
}

// press sends a key to the model by its string name
func (e *testEnv) press(key string) tea.Cmd {
	_, cmd := e.model.Update(keyMsg(key))
	return cmd
}

// typeText sends each rune as a key press
func (e *testEnv) typeText(s string) {
	for _, r := range s {
		e.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}
