package mock

import "time"

// Config represents the mock host configuration
type Config struct {
	Host        string `json:"host" yaml:"host"`                       // Listen host (default: localhost)
	Advertise   string `json:"advertise" yaml:"advertise"`             // Host placed in the launch URL (default: Host)
	WirePort    int    `json:"wirePort" yaml:"wirePort"`               // Command channel port (default: 8765)
	ControlPort int    `json:"controlPort" yaml:"controlPort"`         // Launch page port (default: 8080)
	Reply       bool   `json:"reply" yaml:"reply"`                     // Acknowledge every command
	Delay       int    `json:"delay,omitempty" yaml:"delay,omitempty"` // Reply delay in milliseconds
	Logging     bool   `json:"logging" yaml:"logging"`                 // Keep a command log (default: true)
}

// CommandLog represents one received frame
type CommandLog struct {
	Timestamp time.Time `json:"timestamp"`
	Remote    string    `json:"remote"`
	Action    string    `json:"action"`
	Raw       string    `json:"raw"`
	Valid     bool      `json:"valid"`
	Pressed   bool      `json:"pressed"` // key state after applying the frame
}

// Health is served on the control port
type Health struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Pressed bool   `json:"pressed"`
	Wire    string `json:"wire"`
}
