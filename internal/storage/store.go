// Package storage provides the durable, append-only event log behind the
// ledger. The in-memory ledger state is always rebuilt from these events,
// so the log is the single source of truth.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a closed log.
var ErrClosed = errors.New("event log closed")

// Event is one applied ledger command.
type Event struct {
	// Seq is assigned by the log on append; it orders events globally.
	Seq int64

	// UserID owns the ledger the event belongs to.
	UserID string

	// Kind names the command, e.g. "transaction.recorded".
	Kind string

	// IdempotencyKey is the client-supplied retry key, if any.
	IdempotencyKey string

	// PayloadHash fingerprints the command parameters so a retried key can be
	// matched against its original payload.
	PayloadHash string

	// Payload is the JSON-encoded result of the command.
	Payload json.RawMessage

	// RecordedAt is when the command was applied.
	RecordedAt time.Time
}

// EventLog persists ledger events.
// This abstraction allows swapping storage backends (SQLite, in-memory)
// without changing the ledger.
type EventLog interface {
	// Append durably records e and sets e.Seq.
	Append(ctx context.Context, e *Event) error

	// Load returns every event for userID in append order.
	Load(ctx context.Context, userID string) ([]Event, error)

	// Users returns the IDs of all users with at least one event.
	Users(ctx context.Context) ([]string, error)

	// Close releases any resources held by the log.
	Close() error
}
