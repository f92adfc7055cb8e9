package events

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher delivers alerts. Implementations must be safe for concurrent
// use.
type Publisher interface {
	Publish(ctx context.Context, a Alert) error
	Close() error
}

// LogPublisher writes alerts to a logger. It is used when no broker is
// configured.
type LogPublisher struct {
	Logger *slog.Logger
}

// Publish logs a.
func (p LogPublisher) Publish(ctx context.Context, a Alert) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "alert",
		"kind", a.Kind,
		"user_id", a.UserID,
		"entity_id", a.EntityID,
		"message", a.Message)
	return nil
}

func (LogPublisher) Close() error { return nil }

// Memory keeps published alerts in order.
type Memory struct {
	mu     sync.Mutex
	alerts []Alert
	Err    error // returned by Publish when set
}

func (m *Memory) Publish(_ context.Context, a Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *Memory) Close() error { return nil }

// Alerts returns a copy of everything published so far.
func (m *Memory) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Alert(nil), m.alerts...)
}

// Kinds returns the kinds published so far, in order.
func (m *Memory) Kinds() []Kind {
	var out []Kind
	for _, a := range m.Alerts() {
		out = append(out, a.Kind)
	}
	return out
}
