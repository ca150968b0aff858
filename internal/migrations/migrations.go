package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add address/timestamp index for connection analytics",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_connection_events_address_ts ON connection_events(address, timestamp DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_connection_events_address_ts;
		`,
	},
	{
		Version: 2,
		Name:    "Index connection events by attempt",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_connection_events_attempt ON connection_events(attempt_id);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_connection_events_attempt;
		`,
	},
	{
		Version: 3,
		Name:    "Add stress test runs",
		Up: `
			CREATE TABLE IF NOT EXISTS stress_runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				address TEXT NOT NULL,
				clients INTEGER NOT NULL,
				toggles INTEGER NOT NULL,
				started_at INTEGER NOT NULL, -- unix milliseconds
				completed_at INTEGER,
				status TEXT NOT NULL,
				sent INTEGER NOT NULL DEFAULT 0,
				acked INTEGER NOT NULL DEFAULT 0,
				errors INTEGER NOT NULL DEFAULT 0,
				rejected INTEGER NOT NULL DEFAULT 0,
				avg_ms REAL NOT NULL DEFAULT 0,
				p50_ms INTEGER NOT NULL DEFAULT 0,
				p95_ms INTEGER NOT NULL DEFAULT 0,
				p99_ms INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_stress_runs_started ON stress_runs(started_at DESC);
		`,
		Down: `
			DROP TABLE IF EXISTS stress_runs;
		`,
	},
}

// InitSchema creates all tables required across all modules
// This must be called before running migrations to ensure all tables exist
func InitSchema(db *sql.DB) error {
	schema := `
	-- Durable string-keyed blobs (session address, welcome flag, history list)
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Connection lifecycle events
	CREATE TABLE IF NOT EXISTS connection_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attempt_id TEXT NOT NULL,
		address TEXT NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT,
		timestamp INTEGER NOT NULL, -- unix milliseconds
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_connection_events_kind ON connection_events(kind);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	// Initialize schema first to ensure all tables exist
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Create migrations tracking table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	// Apply pending migrations
	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		if _, err := db.Exec(migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		_, err = db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
