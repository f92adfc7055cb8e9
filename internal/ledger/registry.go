package ledger

import (
	"context"
	"sync"

	"github.com/myrizq/rizq/internal/storage"
)

// Registry hands out one Ledger per user, opening it from the event log on
// first use.
type Registry struct {
	log  storage.EventLog
	opts Options

	mu      sync.Mutex
	ledgers map[string]*Ledger
	loading map[string]*sync.WaitGroup
}

// NewRegistry creates a Registry backed by log.
func NewRegistry(log storage.EventLog, opts Options) *Registry {
	return &Registry{
		log:     log,
		opts:    opts.withDefaults(),
		ledgers: make(map[string]*Ledger),
		loading: make(map[string]*sync.WaitGroup),
	}
}

// For returns userID's ledger. Concurrent first calls for the same user
// share one replay; other users are not blocked while it runs.
func (r *Registry) For(ctx context.Context, userID string) (*Ledger, error) {
	for {
		r.mu.Lock()
		if l, ok := r.ledgers[userID]; ok {
			r.mu.Unlock()
			return l, nil
		}
		if wg, ok := r.loading[userID]; ok {
			r.mu.Unlock()
			wg.Wait()
			continue
		}
		wg := &sync.WaitGroup{}
		wg.Add(1)
		r.loading[userID] = wg
		r.mu.Unlock()

		l, err := Open(ctx, userID, r.log, r.opts)

		r.mu.Lock()
		delete(r.loading, userID)
		if err == nil {
			r.ledgers[userID] = l
		}
		r.mu.Unlock()
		wg.Done()
		return l, err
	}
}

// Users lists every user with persisted events.
func (r *Registry) Users(ctx context.Context) ([]string, error) {
	return r.log.Users(ctx)
}
