// Package service wires the ledger to everything around it: the activity
// log, alert publishing, metrics and the aggregation engine. The API and
// CLI talk only to a LedgerService.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/myrizq/rizq/internal/activity"
	"github.com/myrizq/rizq/internal/aggregate"
	"github.com/myrizq/rizq/internal/events"
	"github.com/myrizq/rizq/internal/importer"
	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/metrics"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/rates"
	"github.com/myrizq/rizq/internal/session"
	"github.com/myrizq/rizq/internal/storage"
)

// Options configure a LedgerService. Only Log is required.
type Options struct {
	Log          storage.EventLog
	Catalog      []model.Category
	BaseCurrency string

	// DefaultAlertThreshold applies to budgets created without one.
	DefaultAlertThreshold model.Money

	Rates     rates.Provider
	CacheSize int
	CacheTTL  time.Duration

	Publisher   events.Publisher // nil logs alerts
	Activity    *activity.Log    // nil disables the activity log
	Metrics     *metrics.Metrics
	ImportRules []importer.Rule
	Layouts     []importer.Layout // statement formats beyond the built-in ones

	Now    func() time.Time
	Logger *slog.Logger
}

// LedgerService is safe for concurrent use.
type LedgerService struct {
	registry  *ledger.Registry
	engine    *aggregate.Engine
	publisher events.Publisher
	activity  *activity.Log
	metrics   *metrics.Metrics
	parsers   *importer.Registry
	rules     []importer.Rule
	base      string
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	overdue map[string]bool // loan IDs already alerted
}

// New builds a LedgerService.
func New(opts Options) *LedgerService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = "USD"
	}
	if opts.Publisher == nil {
		opts.Publisher = events.LogPublisher{Logger: opts.Logger}
	}
	if opts.Rates == nil {
		opts.Rates = rates.NewStatic(opts.BaseCurrency, nil)
	}

	s := &LedgerService{
		publisher: opts.Publisher,
		activity:  opts.Activity,
		metrics:   opts.Metrics,
		parsers:   importer.NewRegistry(opts.Layouts...),
		rules:     opts.ImportRules,
		base:      opts.BaseCurrency,
		now:       opts.Now,
		logger:    opts.Logger.With("component", "service"),
		overdue:   make(map[string]bool),
	}
	s.registry = ledger.NewRegistry(opts.Log, ledger.Options{
		Now:                   opts.Now,
		Catalog:               opts.Catalog,
		Observer:              s.observe,
		DefaultAlertThreshold: opts.DefaultAlertThreshold,
		Logger:                opts.Logger.With("component", "ledger"),
	})
	s.engine = aggregate.New(aggregate.Options{
		Rates:     opts.Rates,
		CacheSize: opts.CacheSize,
		CacheTTL:  opts.CacheTTL,
		Metrics:   opts.Metrics,
		Logger:    opts.Logger,
	})
	return s
}

// Session returns the caller's session from ctx with defaults filled in.
func (s *LedgerService) Session(ctx context.Context) (session.Session, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return session.Session{}, session.ErrMissingUser
	}
	if err := sess.Validate(); err != nil {
		return session.Session{}, err
	}
	if sess.AsOf.IsZero() {
		sess.AsOf = s.now().UTC()
	}
	if sess.BaseCurrency == "" {
		sess.BaseCurrency = s.base
	}
	return sess, nil
}

// Ledger returns the ledger of the session's user.
func (s *LedgerService) Ledger(ctx context.Context) (*ledger.Ledger, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	l, err := s.registry.For(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("opening ledger for %s: %w", sess.UserID, err)
	}
	return l, nil
}

// Users lists every user with persisted events.
func (s *LedgerService) Users(ctx context.Context) ([]string, error) {
	return s.registry.Users(ctx)
}

// Metrics returns the service's metrics, which may be nil.
func (s *LedgerService) Metrics() *metrics.Metrics { return s.metrics }

// Outcome labels a command result for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ledger.ErrIdempotencyConflict):
		return "conflict"
	case errors.Is(err, ledger.ErrOverpayment):
		return "overpayment"
	case errors.Is(err, ledger.ErrInactiveAccount):
		return "inactive_account"
	case errors.Is(err, ledger.ErrNotFound):
		return "not_found"
	case errors.Is(err, ledger.ErrValidation):
		return "invalid"
	case errors.Is(err, session.ErrMissingUser):
		return "unauthenticated"
	default:
		return "error"
	}
}

// run executes one ledger command for the session's user and counts it.
func run[P, R any](ctx context.Context, s *LedgerService, name string, fn func(*ledger.Ledger, context.Context, P) (R, error), p P) (R, error) {
	var zero R
	l, err := s.Ledger(ctx)
	if err != nil {
		s.metrics.Command(name, Outcome(err))
		return zero, err
	}
	out, err := fn(l, ctx, p)
	s.metrics.Command(name, Outcome(err))
	if err != nil {
		s.logger.DebugContext(ctx, "command rejected", "command", name, "user_id", l.UserID(), "err", err)
		return zero, err
	}
	return out, nil
}

type cancelParams struct {
	key string
	id  string
}

func cancel[R any](fn func(*ledger.Ledger, context.Context, string, string) (R, error)) func(*ledger.Ledger, context.Context, cancelParams) (R, error) {
	return func(l *ledger.Ledger, ctx context.Context, p cancelParams) (R, error) {
		return fn(l, ctx, p.key, p.id)
	}
}

// CreateAccount opens an account for the session user, recording any
// opening balance as its first transaction.
func (s *LedgerService) CreateAccount(ctx context.Context, p ledger.CreateAccountParams) (model.Account, error) {
	return run(ctx, s, "create_account", (*ledger.Ledger).CreateAccount, p)
}

// UpdateAccount changes an account's name, details or active flag.
func (s *LedgerService) UpdateAccount(ctx context.Context, p ledger.UpdateAccountParams) (model.Account, error) {
	return run(ctx, s, "update_account", (*ledger.Ledger).UpdateAccount, p)
}

// CreateCategory adds a user category.
func (s *LedgerService) CreateCategory(ctx context.Context, p ledger.CreateCategoryParams) (model.Category, error) {
	return run(ctx, s, "create_category", (*ledger.Ledger).CreateCategory, p)
}

// RecordTransaction records one transaction. Budget, goal and loan alerts
// it triggers are published before it returns.
func (s *LedgerService) RecordTransaction(ctx context.Context, p ledger.TransactionParams) (model.Transaction, error) {
	res, err := s.record(ctx, p)
	return res.Transaction, err
}

// record counts newly recorded transactions; replays are not counted again.
func (s *LedgerService) record(ctx context.Context, p ledger.TransactionParams) (ledger.RecordResult, error) {
	res, err := run(ctx, s, "record_transaction", (*ledger.Ledger).Record, p)
	if err == nil && !res.Replayed {
		s.metrics.Transaction(string(res.Transaction.Type))
	}
	return res, err
}

// CreateBudget starts a spending budget.
func (s *LedgerService) CreateBudget(ctx context.Context, p ledger.CreateBudgetParams) (model.Budget, error) {
	return run(ctx, s, "create_budget", (*ledger.Ledger).CreateBudget, p)
}

// UpdateBudget edits an active budget.
func (s *LedgerService) UpdateBudget(ctx context.Context, p ledger.UpdateBudgetParams) (model.Budget, error) {
	return run(ctx, s, "update_budget", (*ledger.Ledger).UpdateBudget, p)
}

// CancelBudget ends an active budget.
func (s *LedgerService) CancelBudget(ctx context.Context, idempotencyKey, budgetID string) (model.Budget, error) {
	return run(ctx, s, "cancel_budget", cancel((*ledger.Ledger).CancelBudget), cancelParams{idempotencyKey, budgetID})
}

// CreateGoal starts a savings goal.
func (s *LedgerService) CreateGoal(ctx context.Context, p ledger.CreateGoalParams) (model.SavingsGoal, error) {
	return run(ctx, s, "create_goal", (*ledger.Ledger).CreateGoal, p)
}

// UpdateGoal edits an active goal.
func (s *LedgerService) UpdateGoal(ctx context.Context, p ledger.UpdateGoalParams) (model.SavingsGoal, error) {
	return run(ctx, s, "update_goal", (*ledger.Ledger).UpdateGoal, p)
}

// CancelGoal abandons an active goal.
func (s *LedgerService) CancelGoal(ctx context.Context, idempotencyKey, goalID string) (model.SavingsGoal, error) {
	return run(ctx, s, "cancel_goal", cancel((*ledger.Ledger).CancelGoal), cancelParams{idempotencyKey, goalID})
}

// CreateLoan records a loan taken or given.
func (s *LedgerService) CreateLoan(ctx context.Context, p ledger.CreateLoanParams) (model.Loan, error) {
	return run(ctx, s, "create_loan", (*ledger.Ledger).CreateLoan, p)
}

// UpdateLoan edits an active loan.
func (s *LedgerService) UpdateLoan(ctx context.Context, p ledger.UpdateLoanParams) (model.Loan, error) {
	return run(ctx, s, "update_loan", (*ledger.Ledger).UpdateLoan, p)
}

// CancelLoan writes off an active loan.
func (s *LedgerService) CancelLoan(ctx context.Context, idempotencyKey, loanID string) (model.Loan, error) {
	return run(ctx, s, "cancel_loan", cancel((*ledger.Ledger).CancelLoan), cancelParams{idempotencyKey, loanID})
}
