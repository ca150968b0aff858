// Package protocol encodes the commands the clicker sends to the remote host.
//
// The wire format is a flat JSON object with a single field:
//
//	{"action":"key_down"}
//	{"action":"key_up"}
//
// The protocol is send-only from the client's side. Inbound frames are
// described for logging but never drive behavior.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is the command carried by a message
type Action string

const (
	ActionKeyDown Action = "key_down"
	ActionKeyUp   Action = "key_up"
)

// Valid reports whether a is a known action
func (a Action) Valid() bool {
	return a == ActionKeyDown || a == ActionKeyUp
}

// Command is the single client-to-host message type
type Command struct {
	Action Action `json:"action"`
}

// ActionFor maps a toggle state to the command announcing it
func ActionFor(on bool) Action {
	if on {
		return ActionKeyDown
	}
	return ActionKeyUp
}

// Encode serializes an action into a wire message
func Encode(action Action) ([]byte, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	return json.Marshal(Command{Action: action})
}

// Decode parses a wire message; used by the mock host and for logging
func Decode(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("invalid command: %w", err)
	}
	if !cmd.Action.Valid() {
		return Command{}, fmt.Errorf("unknown action %q", cmd.Action)
	}
	return cmd, nil
}

// Describe renders an inbound frame for the activity log
func Describe(data []byte) string {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "(empty)"
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil || len(fields) == 0 {
		return text
	}
	if status, ok := fields["status"].(string); ok {
		if action, ok := fields["action"].(string); ok {
			return fmt.Sprintf("%s: %s", action, status)
		}
		return status
	}
	return text
}
