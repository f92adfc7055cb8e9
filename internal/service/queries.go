package service

import (
	"context"
	"errors"

	"github.com/myrizq/rizq/internal/activity"
	"github.com/myrizq/rizq/internal/aggregate"
	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/session"
)

func (s *LedgerService) snapshot(ctx context.Context) (session.Session, *ledger.Snapshot, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return session.Session{}, nil, err
	}
	l, err := s.Ledger(ctx)
	if err != nil {
		return session.Session{}, nil, err
	}
	return sess, l.Snapshot(), nil
}

// Summary returns the dashboard for the session's user.
func (s *LedgerService) Summary(ctx context.Context) (*aggregate.Summary, error) {
	sess, snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Summary(ctx, sess, snap)
}

// Accounts lists the user's accounts.
func (s *LedgerService) Accounts(ctx context.Context) ([]model.Account, error) {
	_, snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Accounts(), nil
}

// Account reports one account with its balance. A failed conversion still
// returns the report; the error wraps rates.ErrConversion.
func (s *LedgerService) Account(ctx context.Context, accountID string) (aggregate.AccountReport, error) {
	sess, snap, err := s.snapshot(ctx)
	if err != nil {
		return aggregate.AccountReport{}, err
	}
	return s.engine.Account(ctx, sess, snap, accountID)
}

// Transactions pages through the user's transactions, newest first.
func (s *LedgerService) Transactions(ctx context.Context, f ledger.TransactionFilter) (ledger.TransactionPage, error) {
	_, snap, err := s.snapshot(ctx)
	if err != nil {
		return ledger.TransactionPage{}, err
	}
	return snap.ListTransactions(f), nil
}

// Categories lists catalog and user categories.
func (s *LedgerService) Categories(ctx context.Context) ([]model.Category, error) {
	_, snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Categories(), nil
}

// Budgets reports every budget.
func (s *LedgerService) Budgets(ctx context.Context) ([]aggregate.BudgetReport, error) {
	sess, snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	txns, accounts := snap.Transactions(), snap.AccountMap()
	var out []aggregate.BudgetReport
	for _, b := range snap.Budgets() {
		out = append(out, aggregate.ReportBudget(b, txns, accounts, sess.Today()))
	}
	return out, nil
}

// Budget reports one budget's current window.
func (s *LedgerService) Budget(ctx context.Context, budgetID string) (aggregate.BudgetReport, error) {
	sess, snap, err := s.snapshot(ctx)
	if err != nil {
		return aggregate.BudgetReport{}, err
	}
	return s.engine.Budget(sess, snap, budgetID)
}

// Goals reports every goal, highest priority first.
func (s *LedgerService) Goals(ctx context.Context) ([]aggregate.GoalReport, error) {
	sess, snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	txns := snap.Transactions()
	var out []aggregate.GoalReport
	for _, g := range snap.Goals() {
		out = append(out, aggregate.ReportGoal(g, txns, sess.Today()))
	}
	return out, nil
}

// Goal reports progress on one goal.
func (s *LedgerService) Goal(ctx context.Context, goalID string) (aggregate.GoalReport, error) {
	sess, snap, err := s.snapshot(ctx)
	if err != nil {
		return aggregate.GoalReport{}, err
	}
	return s.engine.Goal(sess, snap, goalID)
}

// Loans reports every loan, earliest due first.
func (s *LedgerService) Loans(ctx context.Context) ([]aggregate.LoanReport, error) {
	sess, snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	txns := snap.Transactions()
	var out []aggregate.LoanReport
	for _, l := range snap.Loans() {
		out = append(out, aggregate.ReportLoan(l, txns, sess.Today()))
	}
	return out, nil
}

// Loan reports what remains on one loan.
func (s *LedgerService) Loan(ctx context.Context, loanID string) (aggregate.LoanReport, error) {
	sess, snap, err := s.snapshot(ctx)
	if err != nil {
		return aggregate.LoanReport{}, err
	}
	return s.engine.Loan(sess, snap, loanID)
}

// ErrNoActivityLog is returned by Activity when the log is disabled.
var ErrNoActivityLog = errors.New("activity log is disabled")

// Activity returns the user's activity log entries, oldest first.
func (s *LedgerService) Activity(ctx context.Context) ([]activity.Entry, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	if s.activity == nil {
		return nil, ErrNoActivityLog
	}
	return s.activity.Read(sess.UserID)
}
