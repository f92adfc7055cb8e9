// Package sqlite provides a SQLite-backed storage.EventLog.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"

	"github.com/myrizq/rizq/internal/storage"
)

var _ storage.EventLog = (*Log)(nil)

// Log stores events in the ledger_events table.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer keeps append order identical to seq order.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	return &Log{db: db}, nil
}

// Append implements storage.EventLog.
func (l *Log) Append(ctx context.Context, e *storage.Event) error {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO ledger_events (user_id, kind, idempotency_key, payload_hash, payload, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Kind, e.IdempotencyKey, e.PayloadHash, string(e.Payload),
		e.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading event seq: %w", err)
	}
	e.Seq = seq
	return nil
}

// Load implements storage.EventLog.
func (l *Log) Load(ctx context.Context, userID string) ([]storage.Event, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, user_id, kind, idempotency_key, payload_hash, payload, recorded_at
		FROM ledger_events
		WHERE user_id = ?
		ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []storage.Event
	for rows.Next() {
		var (
			e        storage.Event
			payload  string
			recorded string
		)
		if err := rows.Scan(&e.Seq, &e.UserID, &e.Kind, &e.IdempotencyKey, &e.PayloadHash, &payload, &recorded); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Payload = []byte(payload)
		e.RecordedAt, err = time.Parse(time.RFC3339Nano, recorded)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at of event %d: %w", e.Seq, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// Users implements storage.EventLog.
func (l *Log) Users(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM ledger_events ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Close implements storage.EventLog.
func (l *Log) Close() error {
	return l.db.Close()
}
