package stresstest

import (
	"sort"
)

// Stats holds runtime statistics for a stress run
type Stats struct {
	Total         int // commands planned
	Sent          int
	Acked         int
	Rejected      int // host answered, but not with an ok for the same action
	Errors        int // channel failures
	ActiveClients int
	Durations     []int64 // acknowledgement round trips, for percentiles
	TotalMs       int64
	MinMs         int64
	MaxMs         int64
}

// NewStats creates a new Stats instance
func NewStats(total int) *Stats {
	return &Stats{
		Total:     total,
		Durations: make([]int64, 0, total),
		MinMs:     -1,
		MaxMs:     -1,
	}
}

// AddAck records an acknowledged or rejected command
func (s *Stats) AddAck(durationMs int64, rejected bool) {
	s.Sent++
	if rejected {
		s.Rejected++
	} else {
		s.Acked++
	}

	s.TotalMs += durationMs
	s.Durations = append(s.Durations, durationMs)
	if s.MinMs == -1 || durationMs < s.MinMs {
		s.MinMs = durationMs
	}
	if s.MaxMs == -1 || durationMs > s.MaxMs {
		s.MaxMs = durationMs
	}
}

// AddError records a channel failure. sent tells whether the command left
// the client before the failure.
func (s *Stats) AddError(sent bool) {
	if sent {
		s.Sent++
	}
	s.Errors++
}

// Completed is the number of commands with an outcome
func (s *Stats) Completed() int {
	return s.Acked + s.Rejected + s.Errors
}

// AvgMs returns the average round trip in milliseconds
func (s *Stats) AvgMs() float64 {
	if len(s.Durations) == 0 {
		return 0
	}
	return float64(s.TotalMs) / float64(len(s.Durations))
}

// Min returns the fastest round trip, or 0 if none
func (s *Stats) Min() int64 {
	if s.MinMs == -1 {
		return 0
	}
	return s.MinMs
}

// Max returns the slowest round trip, or 0 if none
func (s *Stats) Max() int64 {
	if s.MaxMs == -1 {
		return 0
	}
	return s.MaxMs
}

// Percentile calculates the percentile value (p should be between 0 and 100)
func (s *Stats) Percentile(p float64) int64 {
	if len(s.Durations) == 0 {
		return 0
	}

	sorted := make([]int64, len(s.Durations))
	copy(sorted, s.Durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation between lower and upper
	weight := index - float64(lower)
	return int64(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}

// P50 returns the 50th percentile (median)
func (s *Stats) P50() int64 {
	return s.Percentile(50)
}

// P95 returns the 95th percentile
func (s *Stats) P95() int64 {
	return s.Percentile(95)
}

// P99 returns the 99th percentile
func (s *Stats) P99() int64 {
	return s.Percentile(99)
}

// AckRate returns the acknowledged share of completed commands as a percentage
func (s *Stats) AckRate() float64 {
	if s.Completed() == 0 {
		return 0
	}
	return float64(s.Acked) / float64(s.Completed()) * 100
}

// Progress returns the completion progress as a percentage
func (s *Stats) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed()) / float64(s.Total) * 100
}

// clone copies s for handing to callbacks
func (s *Stats) clone() Stats {
	c := *s
	c.Durations = append([]int64(nil), s.Durations...)
	return c
}
