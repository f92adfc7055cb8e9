package service

import (
	"context"
	"fmt"
	"time"

	"github.com/myrizq/rizq/internal/aggregate"
	"github.com/myrizq/rizq/internal/events"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/session"
)

// SweepOverdue publishes a loan_overdue alert for every overdue loan of
// every user as of asOf. Each loan is reported once per process. It
// returns the alerts it published.
func (s *LedgerService) SweepOverdue(ctx context.Context, asOf time.Time) ([]events.Alert, error) {
	users, err := s.registry.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	var out []events.Alert
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		l, err := s.registry.For(ctx, userID)
		if err != nil {
			s.logger.WarnContext(ctx, "overdue sweep skipped user", "user_id", userID, "err", err)
			continue
		}
		snap := l.Snapshot()
		sess := session.Session{UserID: userID, AsOf: asOf}
		txns := snap.Transactions()
		for _, loan := range snap.Loans() {
			if loan.Status != model.StatusActive {
				continue
			}
			r := aggregate.ReportLoan(loan, txns, sess.Today())
			if !r.Overdue || !s.markOverdue(loan.ID) {
				continue
			}
			a := events.Alert{
				Kind:     events.KindLoanOverdue,
				UserID:   userID,
				EntityID: loan.ID,
				Message:  fmt.Sprintf("loan with %s was due %s", loan.Counterparty, loan.DueDate.Format(time.DateOnly)),
				Data: map[string]string{
					"remaining": r.Remaining.StringFixed(2),
					"currency":  loan.Currency,
					"direction": string(loan.Direction),
				},
			}
			s.publish(ctx, a)
			out = append(out, a)
		}
	}
	return out, nil
}

// RunOverdueSweeps calls SweepOverdue every interval until ctx is done.
func (s *LedgerService) RunOverdueSweeps(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOverdue(ctx, s.now()); err != nil && ctx.Err() == nil {
			s.logger.WarnContext(ctx, "overdue sweep failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *LedgerService) markOverdue(loanID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overdue[loanID] {
		return false
	}
	s.overdue[loanID] = true
	return true
}
