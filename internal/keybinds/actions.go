package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the view in which keybindings are active
type Context string

const (
	ContextGlobal  Context = "global"  // Available everywhere
	ContextWelcome Context = "welcome" // First-run screen
	ContextConnect Context = "connect" // Address input and recent hosts
	ContextMain    Context = "main"    // Toggle button screen
)

// Contexts lists every configurable context
var Contexts = []Context{ContextGlobal, ContextWelcome, ContextConnect, ContextMain}

const (
	// Global actions
	ActionQuit      Action = "quit"       // Quit application
	ActionQuitForce Action = "quit_force" // Force quit (ctrl+c)
	ActionShowHelp  Action = "show_help"  // Toggle the key help line

	// Welcome
	ActionContinue Action = "continue" // Dismiss the welcome screen

	// Connect view
	ActionConnect       Action = "connect"        // Connect to the typed or selected address
	ActionHistoryUp     Action = "history_up"     // Select the previous recent host
	ActionHistoryDown   Action = "history_down"   // Select the next recent host
	ActionHistoryForget Action = "history_forget" // Remove the selected recent host
	ActionHistoryClear  Action = "history_clear"  // Remove all recent hosts
	ActionCancel        Action = "cancel"         // Back to the main view

	// Main view
	ActionToggle       Action = "toggle"        // Flip the button
	ActionDisconnect   Action = "disconnect"    // Close the channel and forget the session
	ActionChangeServer Action = "change_server" // Open the connect view
	ActionCopyAddress  Action = "copy_address"  // Copy the session address

	ActionNoOp Action = "noop" // No operation (ignore key)
)

// ActionInfo contains metadata about an action
type ActionInfo struct {
	Action      Action
	Description string
	Category    string
}

var actionInfos = map[Action]ActionInfo{
	ActionQuit:          {ActionQuit, "Quit", "Global"},
	ActionQuitForce:     {ActionQuitForce, "Force quit", "Global"},
	ActionShowHelp:      {ActionShowHelp, "Help", "Global"},
	ActionContinue:      {ActionContinue, "Continue", "Welcome"},
	ActionConnect:       {ActionConnect, "Connect", "Connect"},
	ActionHistoryUp:     {ActionHistoryUp, "Previous host", "Connect"},
	ActionHistoryDown:   {ActionHistoryDown, "Next host", "Connect"},
	ActionHistoryForget: {ActionHistoryForget, "Forget host", "Connect"},
	ActionHistoryClear:  {ActionHistoryClear, "Clear recent", "Connect"},
	ActionCancel:        {ActionCancel, "Back", "Connect"},
	ActionToggle:        {ActionToggle, "Toggle", "Main"},
	ActionDisconnect:    {ActionDisconnect, "Disconnect", "Main"},
	ActionChangeServer:  {ActionChangeServer, "Change server", "Main"},
	ActionCopyAddress:   {ActionCopyAddress, "Copy address", "Main"},
	ActionNoOp:          {ActionNoOp, "Ignore key", "Other"},
}

// GetActionInfo returns human-readable information about an action
func GetActionInfo(action Action) ActionInfo {
	if info, ok := actionInfos[action]; ok {
		return info
	}
	return ActionInfo{action, string(action), "Unknown"}
}

// IsKnownAction reports whether action is defined
func IsKnownAction(action Action) bool {
	_, ok := actionInfos[action]
	return ok
}

// IsGlobalAction returns true if the action is available in all contexts
func IsGlobalAction(action Action) bool {
	return action == ActionQuit || action == ActionQuitForce || action == ActionShowHelp
}
