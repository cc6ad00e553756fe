// Package sqlite persists conversation history as an append-only turn log
// plus the latest validated document, keyed by session id.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a session has no stored document.
var ErrNotFound = errors.New("not found")

// Fixed-width so MAX() over the text column orders chronologically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Turn is one stored conversation turn.
type Turn struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary describes one recorded session.
type SessionSummary struct {
	ID        string    `json:"id"`
	TurnCount int       `json:"turn_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Timestamps are stored as RFC3339 text so they survive aggregate queries,
// where sqlite loses the declared column type.
const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id);

CREATE TABLE IF NOT EXISTS documents (
	session_id TEXT PRIMARY KEY,
	yaml       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Driver is a SQLite-backed turn log. Turns are only ever appended; the
// documents table holds one row per session with the latest validated YAML.
type Driver struct {
	db *sql.DB
}

// NewDriver opens (and if necessary initializes) the database at path.
// Use ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, path string) (*Driver, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// RecordTurn appends one turn to the log.
func (d *Driver) RecordTurn(ctx context.Context, turn Turn) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		turn.SessionID, turn.Role, turn.Text, turn.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("could not record turn: %w", err)
	}
	return nil
}

// RecordDocument stores the latest validated document for a session,
// replacing any previous one.
func (d *Driver) RecordDocument(ctx context.Context, sessionID, yamlText string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO documents (session_id, yaml, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET yaml = excluded.yaml, updated_at = excluded.updated_at`,
		sessionID, yamlText, time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("could not record document: %w", err)
	}
	return nil
}

// Document returns the latest stored document for a session, or ErrNotFound.
func (d *Driver) Document(ctx context.Context, sessionID string) (string, error) {
	var yamlText string
	err := d.db.QueryRowContext(ctx,
		`SELECT yaml FROM documents WHERE session_id = ?`, sessionID,
	).Scan(&yamlText)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("could not load document: %w", err)
	}
	return yamlText, nil
}

// Turns returns all turns for a session in append order.
func (d *Driver) Turns(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT session_id, role, text, created_at FROM turns WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("could not list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var createdAt string
		if err := rows.Scan(&t.SessionID, &t.Role, &t.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan turn: %w", err)
		}
		if t.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("could not parse turn timestamp: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Sessions returns a summary of every recorded session, most recent first.
func (d *Driver) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT session_id, COUNT(*), MAX(created_at) FROM turns GROUP BY session_id ORDER BY MAX(created_at) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("could not list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var updatedAt string
		if err := rows.Scan(&s.ID, &s.TurnCount, &updatedAt); err != nil {
			return nil, fmt.Errorf("could not scan session: %w", err)
		}
		if s.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
			return nil, fmt.Errorf("could not parse session timestamp: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}
