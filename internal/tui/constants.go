package tui

import "time"

const (
	// StatusMaxLength truncates footer messages
	StatusMaxLength = 100

	// MessageTimeout clears transient status and error messages
	MessageTimeout = 4 * time.Second

	// AddressCharLimit bounds the address input
	AddressCharLimit = 256

	// ButtonWidth and ButtonHeight size the toggle button
	ButtonWidth  = 24
	ButtonHeight = 7
)
