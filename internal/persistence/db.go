// Package persistence records simulation runs in SQLite: one row per run,
// the statistics of every finished day and the events behind them.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/vcity/internal/engine"
)

// DB wraps a SQLite connection for run recording.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		population INTEGER NOT NULL,
		settings_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		run_id TEXT NOT NULL REFERENCES runs(id),
		day INTEGER NOT NULL,
		ticks INTEGER NOT NULL,
		population INTEGER NOT NULL,
		infected INTEGER NOT NULL,
		new_infections INTEGER NOT NULL,
		arrivals INTEGER NOT NULL,
		peak_in_transit INTEGER NOT NULL,
		PRIMARY KEY (run_id, day)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		day INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one recorded simulation run.
type Run struct {
	ID string
	db *DB
}

// StartRun registers a new run and remembers it as the latest one. settings
// is stored as JSON for later inspection.
func (db *DB) StartRun(seed int64, population int, settings any) (*Run, error) {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	run := &Run{ID: uuid.NewString(), db: db}
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, started_at, seed, population, settings_json) VALUES (?, ?, ?, ?, ?)",
		run.ID, time.Now().UTC().Format(time.RFC3339), seed, population, string(settingsJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	if err := db.SaveMeta("last_run", run.ID); err != nil {
		return nil, fmt.Errorf("save meta: %w", err)
	}

	slog.Info("run recording started", "run", run.ID)
	return run, nil
}

// SaveDay writes a finished day and its events in one transaction. Its
// signature matches Simulation.OnDayEnd.
func (r *Run) SaveDay(stats engine.DayStats, events []engine.Event) error {
	tx, err := r.db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("save day %d: %w", stats.Day, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT OR REPLACE INTO daily_stats
		(run_id, day, ticks, population, infected, new_infections, arrivals, peak_in_transit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, stats.Day, stats.Ticks, stats.Population, stats.Infected,
		stats.NewInfections, stats.Arrivals, stats.PeakInTransit,
	)
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}

	if len(events) > 0 {
		stmt, err := tx.Preparex(
			"INSERT INTO events (run_id, tick, day, description, category) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("save events: %w", err)
		}
		defer stmt.Close()

		for _, e := range events {
			if _, err := stmt.Exec(r.ID, e.Tick, e.Day, e.Description, e.Category); err != nil {
				return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
			}
		}
	}

	return tx.Commit()
}

// DayStats returns every recorded day of a run in order.
func (db *DB) DayStats(runID string) ([]engine.DayStats, error) {
	var stats []engine.DayStats
	err := db.conn.Select(&stats, `SELECT day, ticks, population, infected, new_infections,
		arrivals, peak_in_transit FROM daily_stats WHERE run_id = ? ORDER BY day`, runID)
	return stats, err
}

// RecentEvents returns the most recent N events of a run, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, day, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}
