// Package toggle tracks the ON/OFF button state and drives its side effects.
package toggle

import (
	"sync"

	"github.com/studiowebux/clicker/internal/protocol"
)

// State is the button state
type State bool

const (
	Off State = false
	On  State = true
)

func (s State) String() string {
	if s {
		return "on"
	}
	return "off"
}

// Presenter reflects the state visually
type Presenter interface {
	Toggled(state State)
}

// Transmitter sends a command to the remote host. Delivery is best effort;
// the connection layer drops commands while the channel is not open.
type Transmitter interface {
	Send(action protocol.Action) bool
}

// Feedback plays the audio/haptic cue for a user toggle
type Feedback interface {
	Fire(state State)
}

// Machine owns the toggle state. User toggles drive presentation, the
// command and feedback; resets only drive presentation.
type Machine struct {
	mu    sync.Mutex
	state State

	presenter   Presenter
	transmitter Transmitter
	feedback    Feedback
}

// New creates a machine in the Off state. Any collaborator may be nil.
func New(presenter Presenter, transmitter Transmitter, feedback Feedback) *Machine {
	return &Machine{
		state:       Off,
		presenter:   presenter,
		transmitter: transmitter,
		feedback:    feedback,
	}
}

// SetPresenter replaces the presentation collaborator
func (m *Machine) SetPresenter(p Presenter) {
	m.mu.Lock()
	m.presenter = p
	m.mu.Unlock()
}

// SetTransmitter replaces the transmitter
func (m *Machine) SetTransmitter(t Transmitter) {
	m.mu.Lock()
	m.transmitter = t
	m.mu.Unlock()
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Toggle flips the state unconditionally and returns the new state
func (m *Machine) Toggle() State {
	m.mu.Lock()
	m.state = !m.state
	state := m.state
	presenter, transmitter, feedback := m.presenter, m.transmitter, m.feedback
	m.mu.Unlock()

	if presenter != nil {
		presenter.Toggled(state)
	}
	if transmitter != nil {
		transmitter.Send(protocol.ActionFor(bool(state)))
	}
	if feedback != nil {
		feedback.Fire(state)
	}
	return state
}

// Reset forces the state to Off without sending a command or replaying
// feedback.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.state = Off
	presenter := m.presenter
	m.mu.Unlock()

	if presenter != nil {
		presenter.Toggled(Off)
	}
}
