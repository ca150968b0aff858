package stresstest

import (
	"fmt"
	"time"
)

const (
	DefaultClients      = 1
	DefaultToggles      = 100
	DefaultReplyTimeout = 2 * time.Second
	maxClients          = 1000
)

// Config describes one stress run
type Config struct {
	Address      string        // canonical wire address
	Clients      int           // concurrent channels
	Toggles      int           // toggles per client
	Interval     time.Duration // pause between toggles of one client
	RampUp       time.Duration // window over which clients start
	ReplyTimeout time.Duration // wait for each acknowledgement
}

// Validate fills defaults and rejects impossible values
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	if c.Clients == 0 {
		c.Clients = DefaultClients
	}
	if c.Clients < 0 || c.Clients > maxClients {
		return fmt.Errorf("clients must be between 1 and %d", maxClients)
	}
	if c.Toggles == 0 {
		c.Toggles = DefaultToggles
	}
	if c.Toggles < 0 {
		return fmt.Errorf("toggles must be positive")
	}
	if c.Interval < 0 || c.RampUp < 0 {
		return fmt.Errorf("interval and ramp-up cannot be negative")
	}
	if c.ReplyTimeout <= 0 {
		c.ReplyTimeout = DefaultReplyTimeout
	}
	return nil
}

// Total is the number of commands the run would send without errors
func (c *Config) Total() int {
	return c.Clients * c.Toggles
}

// Run is the stored summary of one execution
type Run struct {
	ID          int64
	Address     string
	Clients     int
	Toggles     int
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string // "running", "completed", "cancelled", "failed"
	Sent        int
	Acked       int
	Errors      int
	Rejected    int
	AvgMs       float64
	P50Ms       int64
	P95Ms       int64
	P99Ms       int64
}

// IsRunning returns true if the run is still in progress
func (r *Run) IsRunning() bool {
	return r.Status == "running"
}

// IsCompleted returns true if every command was sent
func (r *Run) IsCompleted() bool {
	return r.Status == "completed"
}
