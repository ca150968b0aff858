// Package analytics records connection lifecycle events and summarizes them
// per remote host.
package analytics

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/studiowebux/clicker/internal/migrations"
)

// Kinds stored in connection_events.kind
const (
	KindOpen      = "open"
	KindClose     = "close"
	KindError     = "error"
	KindReconnect = "reconnect_scheduled"
)

type Entry struct {
	ID        int64
	AttemptID string
	Address   string
	Kind      string
	Detail    string
	Timestamp time.Time
	// Duration is the uptime for close events and the delay for reconnects
	Duration time.Duration
}

type Stats struct {
	Address       string
	Attempts      int
	Opens         int
	Closes        int
	Errors        int
	Reconnects    int
	TotalUptime   time.Duration
	LongestUptime time.Duration
	LastSeen      time.Time
	LastError     string
}

// SuccessRate is the share of attempts that reached the open state
func (s Stats) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Opens) / float64(s.Attempts)
}

type Manager struct {
	db    *sql.DB
	cache *statsCache
}

// NewManager uses db, creating the schema if needed. The caller owns db.
func NewManager(db *sql.DB) (*Manager, error) {
	if err := migrations.Run(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Manager{db: db, cache: newStatsCache(5 * time.Second)}, nil
}

func (m *Manager) Save(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	query := `
		INSERT INTO connection_events (attempt_id, address, kind, detail, timestamp, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := m.db.Exec(query,
		entry.AttemptID,
		entry.Address,
		entry.Kind,
		entry.Detail,
		entry.Timestamp.UnixMilli(),
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save connection event: %w", err)
	}

	m.cache.invalidate()
	return nil
}

// LoadForAddress returns the newest events for address
func (m *Manager) LoadForAddress(address string, limit int) ([]Entry, error) {
	query := `
		SELECT id, attempt_id, address, kind, COALESCE(detail, ''), timestamp, duration_ms
		FROM connection_events
		WHERE address = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for address: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (m *Manager) LoadAll(limit int) ([]Entry, error) {
	query := `
		SELECT id, attempt_id, address, kind, COALESCE(detail, ''), timestamp, duration_ms
		FROM connection_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry

	for rows.Next() {
		var e Entry
		var ts, durationMs int64

		if err := rows.Scan(&e.ID, &e.AttemptID, &e.Address, &e.Kind, &e.Detail, &ts, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan connection event: %w", err)
		}

		e.Timestamp = time.UnixMilli(ts)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// GetStatsPerAddress summarizes events per address, most recently seen first
func (m *Manager) GetStatsPerAddress() ([]Stats, error) {
	if cached, ok := m.cache.get(); ok {
		return cached, nil
	}

	query := `
		SELECT
			e.address,
			COUNT(DISTINCT CASE WHEN e.attempt_id != '' THEN e.attempt_id END) as attempts,
			SUM(CASE WHEN e.kind = 'open' THEN 1 ELSE 0 END) as opens,
			SUM(CASE WHEN e.kind = 'close' THEN 1 ELSE 0 END) as closes,
			SUM(CASE WHEN e.kind = 'error' THEN 1 ELSE 0 END) as errors,
			SUM(CASE WHEN e.kind = 'reconnect_scheduled' THEN 1 ELSE 0 END) as reconnects,
			SUM(CASE WHEN e.kind = 'close' THEN e.duration_ms ELSE 0 END) as total_uptime,
			MAX(CASE WHEN e.kind = 'close' THEN e.duration_ms ELSE 0 END) as longest_uptime,
			MAX(e.timestamp) as last_seen,
			COALESCE((
				SELECT x.detail FROM connection_events x
				WHERE x.address = e.address AND x.kind = 'error'
				ORDER BY x.timestamp DESC, x.id DESC
				LIMIT 1
			), '') as last_error
		FROM connection_events e
		GROUP BY e.address
		ORDER BY last_seen DESC
	`

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats per address: %w", err)
	}
	defer rows.Close()

	var statsList []Stats
	for rows.Next() {
		var s Stats
		var totalMs, longestMs, lastSeen int64

		err := rows.Scan(
			&s.Address,
			&s.Attempts,
			&s.Opens,
			&s.Closes,
			&s.Errors,
			&s.Reconnects,
			&totalMs,
			&longestMs,
			&lastSeen,
			&s.LastError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}

		s.TotalUptime = time.Duration(totalMs) * time.Millisecond
		s.LongestUptime = time.Duration(longestMs) * time.Millisecond
		s.LastSeen = time.UnixMilli(lastSeen)
		statsList = append(statsList, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	m.cache.set(statsList)
	return statsList, nil
}

func (m *Manager) Clear() error {
	_, err := m.db.Exec("DELETE FROM connection_events")
	if err != nil {
		return fmt.Errorf("failed to clear connection events: %w", err)
	}
	m.cache.invalidate()
	return nil
}

func (m *Manager) ClearForAddress(address string) error {
	_, err := m.db.Exec("DELETE FROM connection_events WHERE address = ?", address)
	if err != nil {
		return fmt.Errorf("failed to clear connection events for address: %w", err)
	}
	m.cache.invalidate()
	return nil
}
