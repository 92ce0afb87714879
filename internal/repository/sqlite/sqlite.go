// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary needs
// no C toolchain. It registers itself with database/sql under the driver name
// "sqlite".
//
// The pattern is always:
//  1. sql.Open(driverName, dataSourceName) → creates a pool
//  2. db.QueryContext / db.ExecContext     → runs queries
//  3. rows.Scan(&field1, &field2)          → reads results into Go variables
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. It implements every repository
// interface in internal/repository.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/codecoach.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is its own empty database, so the pool
	// must never open a second one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Ping reports whether the database is reachable. It backs /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates every table. CREATE TABLE IF NOT EXISTS makes it safe to
// run on each start.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"lessons", `
			CREATE TABLE IF NOT EXISTS lessons (
				id             TEXT PRIMARY KEY,
				title          TEXT NOT NULL,
				description    TEXT NOT NULL DEFAULT '',
				difficulty     TEXT NOT NULL DEFAULT 'beginner',
				sort_order     INTEGER NOT NULL DEFAULT 0,
				estimated_time INTEGER NOT NULL DEFAULT 0,
				content        TEXT NOT NULL DEFAULT '',
				example        TEXT NOT NULL DEFAULT '',
				next_lesson_id TEXT NOT NULL DEFAULT '',
				language       TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_lessons_language_order ON lessons(language, sort_order);
		`},
		{"exercises", `
			CREATE TABLE IF NOT EXISTS exercises (
				id              TEXT PRIMARY KEY,
				title           TEXT NOT NULL,
				prompt          TEXT NOT NULL DEFAULT '',
				starter_code    TEXT NOT NULL DEFAULT '',
				expected_output TEXT NOT NULL DEFAULT '',
				hints           TEXT NOT NULL DEFAULT '[]',
				language        TEXT NOT NULL
			);
		`},
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				github_id     INTEGER UNIQUE,
				login         TEXT NOT NULL,
				email         TEXT NOT NULL DEFAULT '',
				avatar_url    TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL DEFAULT '',
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_local_login ON users(login) WHERE password_hash <> '';
		`},
		{"user_progress", `
			CREATE TABLE IF NOT EXISTS user_progress (
				id           TEXT PRIMARY KEY,
				user_id      TEXT NOT NULL,
				lesson_id    TEXT NOT NULL,
				completed    INTEGER NOT NULL DEFAULT 0,
				score        INTEGER,
				completed_at DATETIME,
				time_spent   INTEGER NOT NULL DEFAULT 0,
				UNIQUE (user_id, lesson_id)
			);
		`},
		{"lesson_states", `
			CREATE TABLE IF NOT EXISTS lesson_states (
				user_id     TEXT NOT NULL,
				lesson_id   TEXT NOT NULL,
				last_page   INTEGER NOT NULL DEFAULT 0,
				quiz_passed INTEGER,
				PRIMARY KEY (user_id, lesson_id)
			);
		`},
		{"attempts", `
			CREATE TABLE IF NOT EXISTS attempts (
				id             TEXT PRIMARY KEY,
				user_id        TEXT NOT NULL,
				exercise_id    TEXT NOT NULL,
				code           TEXT NOT NULL,
				output         TEXT NOT NULL DEFAULT '',
				error          TEXT NOT NULL DEFAULT '',
				passed         INTEGER NOT NULL DEFAULT 0,
				execution_time INTEGER NOT NULL DEFAULT 0,
				created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_attempts_user_exercise ON attempts(user_id, exercise_id, created_at);
		`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}
	return nil
}
