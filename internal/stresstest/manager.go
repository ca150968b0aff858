package stresstest

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/studiowebux/clicker/internal/migrations"
)

// Manager handles stress run persistence
type Manager struct {
	db *sql.DB
}

// NewManager uses db, creating the schema if needed. The caller owns db.
func NewManager(db *sql.DB) (*Manager, error) {
	if err := migrations.Run(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Manager{db: db}, nil
}

// CreateRun stores a new run in the running state
func (m *Manager) CreateRun(config *Config) (*Run, error) {
	run := &Run{
		Address:   config.Address,
		Clients:   config.Clients,
		Toggles:   config.Toggles,
		StartedAt: time.Now(),
		Status:    "running",
	}

	result, err := m.db.Exec(`
		INSERT INTO stress_runs (address, clients, toggles, started_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, run.Address, run.Clients, run.Toggles, run.StartedAt.UnixMilli(), run.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	run.ID = id
	return run, nil
}

// FinishRun stores the final statistics of run
func (m *Manager) FinishRun(run *Run, stats Stats, status string) error {
	completed := time.Now()
	run.CompletedAt = &completed
	run.Status = status
	run.Sent = stats.Sent
	run.Acked = stats.Acked
	run.Errors = stats.Errors
	run.Rejected = stats.Rejected
	run.AvgMs = stats.AvgMs()
	run.P50Ms = stats.P50()
	run.P95Ms = stats.P95()
	run.P99Ms = stats.P99()

	_, err := m.db.Exec(`
		UPDATE stress_runs
		SET completed_at = ?, status = ?, sent = ?, acked = ?, errors = ?, rejected = ?,
		    avg_ms = ?, p50_ms = ?, p95_ms = ?, p99_ms = ?
		WHERE id = ?
	`, completed.UnixMilli(), run.Status, run.Sent, run.Acked, run.Errors, run.Rejected,
		run.AvgMs, run.P50Ms, run.P95Ms, run.P99Ms, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (m *Manager) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, address, clients, toggles, started_at, completed_at, status,
		       sent, acked, errors, rejected, avg_ms, p50_ms, p95_ms, p99_ms
		FROM stress_runs
		ORDER BY started_at DESC, id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var startedAt int64
		var completedAt sql.NullInt64

		err := rows.Scan(&run.ID, &run.Address, &run.Clients, &run.Toggles, &startedAt, &completedAt, &run.Status,
			&run.Sent, &run.Acked, &run.Errors, &run.Rejected, &run.AvgMs, &run.P50Ms, &run.P95Ms, &run.P99Ms)
		if err != nil {
			return nil, err
		}

		run.StartedAt = time.UnixMilli(startedAt)
		if completedAt.Valid {
			t := time.UnixMilli(completedAt.Int64)
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun deletes a stored run
func (m *Manager) DeleteRun(id int64) error {
	_, err := m.db.Exec("DELETE FROM stress_runs WHERE id = ?", id)
	return err
}

// Clear deletes every stored run
func (m *Manager) Clear() error {
	_, err := m.db.Exec("DELETE FROM stress_runs")
	return err
}
