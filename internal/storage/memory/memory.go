// Package memory provides an in-process storage.EventLog for tests and
// ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/myrizq/rizq/internal/storage"
)

var _ storage.EventLog = (*Log)(nil)

// Log keeps events in memory.
type Log struct {
	mu     sync.Mutex
	seq    int64
	events map[string][]storage.Event
	closed bool

	// FailNext, when set, makes the next Append return this error. Used to
	// exercise all-or-nothing behavior.
	FailNext error
}

// New creates an empty Log.
func New() *Log {
	return &Log{events: make(map[string][]storage.Event)}
}

// Append implements storage.EventLog.
func (l *Log) Append(_ context.Context, e *storage.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return storage.ErrClosed
	}
	if l.FailNext != nil {
		err := l.FailNext
		l.FailNext = nil
		return err
	}
	l.seq++
	e.Seq = l.seq
	cp := *e
	cp.Payload = append([]byte(nil), e.Payload...)
	l.events[e.UserID] = append(l.events[e.UserID], cp)
	return nil
}

// Load implements storage.EventLog.
func (l *Log) Load(_ context.Context, userID string) ([]storage.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, storage.ErrClosed
	}
	out := make([]storage.Event, len(l.events[userID]))
	copy(out, l.events[userID])
	return out, nil
}

// Users implements storage.EventLog.
func (l *Log) Users(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	users := make([]string, 0, len(l.events))
	for u := range l.events {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

// Close implements storage.EventLog.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
