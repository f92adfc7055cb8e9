package ledger

import "context"

// run executes fn under the write lock and notifies the observer once the
// lock is released. fn returns a nil Applied for idempotent replays.
func (l *Ledger) run(ctx context.Context, fn func() (*Applied, error)) error {
	applied, err := func() (*Applied, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn()
	}()
	if err != nil {
		return err
	}
	if applied != nil {
		l.notify(ctx, *applied)
	}
	return nil
}
