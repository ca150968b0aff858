package connection

import (
	"fmt"
	"time"
)

// State is the lifecycle state of the single channel
type State int32

const (
	Idle State = iota
	Connecting
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// transitions lists the legal moves. Any state may also return to Idle
// (explicit disconnect or a channel that could not be constructed).
var transitions = map[State][]State{
	Idle:       {Connecting},
	Connecting: {Open, Closed, Connecting},
	Open:       {Closed, Connecting},
	Closed:     {Connecting},
}

// canTransition reports whether from -> to is legal
func canTransition(from, to State) bool {
	if to == Idle {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EventKind identifies a lifecycle event
type EventKind int

const (
	EventOpen EventKind = iota
	EventClose
	EventMessage
	EventError
	EventState
	EventReconnectScheduled
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventClose:
		return "close"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventState:
		return "state"
	case EventReconnectScheduled:
		return "reconnect_scheduled"
	default:
		return "unknown"
	}
}

// Event is delivered to observers from the manager's loop
type Event struct {
	Kind      EventKind
	State     State
	Address   string
	AttemptID string
	Data      []byte        // EventMessage payload
	Err       error         // EventError cause, or the close reason
	Delay     time.Duration // EventReconnectScheduled delay
	Uptime    time.Duration // EventClose: how long the channel was open
	At        time.Time
}

// Observer receives lifecycle events. Observe runs on the manager's loop
// and must not call back into the manager synchronously.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }
