// Package journal records client activity in an embedded SQLite database:
// login attempts, realm-list snapshots and world sessions. Journaling is
// optional; a nil *Journal is valid and records nothing, and a write failure
// is logged but never surfaced to protocol code.
package journal

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/udisondev/wowcli/internal/auth"
)

const schema = `
CREATE TABLE IF NOT EXISTS login_attempts (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	username  TEXT NOT NULL,
	auth_host TEXT NOT NULL,
	outcome   TEXT NOT NULL,
	error     TEXT NOT NULL DEFAULT '',
	at        TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS realm_snapshots (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	realm_id    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	host        TEXT NOT NULL,
	port        INTEGER NOT NULL,
	type        INTEGER NOT NULL,
	flags       INTEGER NOT NULL,
	population  REAL NOT NULL,
	characters  INTEGER NOT NULL,
	captured_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS world_sessions (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	realm           TEXT NOT NULL,
	connected_at    TIMESTAMP NOT NULL,
	disconnected_at TIMESTAMP,
	reason          TEXT NOT NULL DEFAULT ''
);
`

// Journal wraps a SQLite database with thread-safe access.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		slog.Warn("failed to enable WAL mode", "error", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	slog.Info("journal opened", "path", path)
	return &Journal{db: db}, nil
}

// Close closes the journal database. Safe on nil.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

// LoginAttempt records one login attempt. outcome is "ok" or "failed"; err
// carries the failure cause, if any.
func (j *Journal) LoginAttempt(username, authHost string, err error) {
	if j == nil {
		return
	}
	outcome, errText := "ok", ""
	if err != nil {
		outcome, errText = "failed", err.Error()
	}
	j.exec(
		`INSERT INTO login_attempts (username, auth_host, outcome, error, at) VALUES (?, ?, ?, ?, ?)`,
		username, authHost, outcome, errText, time.Now().UTC(),
	)
}

// RealmSnapshot records one realm-list response, one row per realm.
func (j *Journal) RealmSnapshot(realms []auth.Realm) {
	if j == nil {
		return
	}
	now := time.Now().UTC()
	for _, r := range realms {
		j.exec(
			`INSERT INTO realm_snapshots (realm_id, name, host, port, type, flags, population, characters, captured_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Host, r.Port, r.Type, r.Flags, r.Population, r.CharCount, now,
		)
	}
}

// SessionStart records a new world session and returns its row id for the
// matching SessionEnd. Returns 0 when journaling is disabled or the insert
// fails.
func (j *Journal) SessionStart(realm string) int64 {
	if j == nil {
		return 0
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	res, err := j.db.Exec(
		`INSERT INTO world_sessions (realm, connected_at) VALUES (?, ?)`,
		realm, time.Now().UTC(),
	)
	if err != nil {
		slog.Warn("journal write failed", "error", err)
		return 0
	}
	id, err := res.LastInsertId()
	if err != nil {
		slog.Warn("journal write failed", "error", err)
		return 0
	}
	return id
}

// SessionEnd closes a world session row. reason is empty for a graceful
// disconnect.
func (j *Journal) SessionEnd(id int64, reason error) {
	if j == nil || id == 0 {
		return
	}
	reasonText := ""
	if reason != nil {
		reasonText = reason.Error()
	}
	j.exec(
		`UPDATE world_sessions SET disconnected_at = ?, reason = ? WHERE id = ?`,
		time.Now().UTC(), reasonText, id,
	)
}

func (j *Journal) exec(query string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.db.Exec(query, args...); err != nil {
		slog.Warn("journal write failed", "error", err)
	}
}
