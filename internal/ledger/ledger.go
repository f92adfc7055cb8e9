// Package ledger is the single authority over a user's accounts,
// categories, budgets, goals, loans and transactions.
//
// Every command validates completely before it changes anything, persists
// one event to the storage.EventLog, and only then applies that event to
// the in-memory state. On open, the state is rebuilt by replaying the log.
// Commands for one user are serialized by a per-user lock; reads work on a
// Snapshot taken under the read lock.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/myrizq/rizq/internal/balance"
	"github.com/myrizq/rizq/internal/id"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/storage"
	"github.com/myrizq/rizq/internal/threshold"
)

var hundred = decimal.NewFromInt(100)

// Event kinds written to the log.
const (
	KindAccountCreated      = "account.created"
	KindAccountUpdated      = "account.updated"
	KindCategoryCreated     = "category.created"
	KindTransactionRecorded = "transaction.recorded"
	KindBudgetCreated       = "budget.created"
	KindBudgetUpdated       = "budget.updated"
	KindGoalCreated         = "goal.created"
	KindGoalUpdated         = "goal.updated"
	KindLoanCreated         = "loan.created"
	KindLoanUpdated         = "loan.updated"
)

// Transition records an automatic or explicit status change caused by an
// applied event.
type Transition struct {
	Kind string // "goal", "loan" or "budget"
	ID   string
	From model.Status
	To   model.Status
}

// Applied describes a freshly committed event. Idempotent replays of an
// earlier command do not produce one.
type Applied struct {
	Event       storage.Event
	EntityID    string
	Transitions []Transition
}

// Options configure a Ledger.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Catalog seeds every user's categories.
	Catalog []model.Category

	// Observer is called after each committed command, outside the lock.
	Observer func(context.Context, Applied)

	// DefaultAlertThreshold fills in budgets created without a threshold.
	// Defaults to threshold.DefaultAlertPercent.
	DefaultAlertThreshold model.Money

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.DefaultAlertThreshold.IsZero() {
		o.DefaultAlertThreshold = threshold.DefaultAlertPercent
	}
	return o
}

// Ledger holds one user's state.
type Ledger struct {
	userID string
	log    storage.EventLog
	opts   Options
	logger *slog.Logger

	mu      sync.RWMutex
	st      *state
	version uint64
}

type idemEntry struct {
	hash     string
	kind     string
	entityID string
}

type state struct {
	accounts   map[string]model.Account
	categories map[string]model.Category
	budgets    map[string]model.Budget
	goals      map[string]model.SavingsGoal
	loans      map[string]model.Loan

	txns     []model.Transaction
	txnIndex map[string]int
	seq      map[string]int // "YYYY-MM" -> highest sequence used

	// Running totals kept in step with balance.GoalSaved / balance.LoanPaid.
	saved map[string]model.Money
	paid  map[string]model.Money

	idem map[string]idemEntry
}

func newState(catalog []model.Category) *state {
	st := &state{
		accounts:   make(map[string]model.Account),
		categories: make(map[string]model.Category),
		budgets:    make(map[string]model.Budget),
		goals:      make(map[string]model.SavingsGoal),
		loans:      make(map[string]model.Loan),
		txnIndex:   make(map[string]int),
		seq:        make(map[string]int),
		saved:      make(map[string]model.Money),
		paid:       make(map[string]model.Money),
		idem:       make(map[string]idemEntry),
	}
	for _, c := range catalog {
		st.categories[c.ID] = c
	}
	return st
}

// Open rebuilds userID's ledger from log.
func Open(ctx context.Context, userID string, log storage.EventLog, opts Options) (*Ledger, error) {
	opts = opts.withDefaults()
	l := &Ledger{
		userID: userID,
		log:    log,
		opts:   opts,
		logger: opts.Logger.With("component", "ledger", "user", userID),
		st:     newState(opts.Catalog),
	}

	events, err := log.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading events for %s: %w", userID, err)
	}
	for _, e := range events {
		if _, err := l.apply(e); err != nil {
			return nil, fmt.Errorf("replaying event %d (%s): %w", e.Seq, e.Kind, err)
		}
		l.version++
	}
	l.logger.Debug("ledger opened", "events", len(events))
	return l, nil
}

// UserID returns the owner of the ledger.
func (l *Ledger) UserID() string { return l.userID }

// Version increases by one with every applied event.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// fingerprint hashes a command's parameters. Callers clear the idempotency
// key first so only the payload is compared.
func fingerprint(kind string, params any) (string, error) {
	b, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encoding %s params: %w", kind, err)
	}
	sum := sha256.Sum256(append([]byte(kind+"\n"), b...))
	return hex.EncodeToString(sum[:]), nil
}

// lookupIdempotent reports whether key was already used. A reused key with
// a different payload is a conflict.
func (l *Ledger) lookupIdempotent(key, hash string) (idemEntry, bool, error) {
	if key == "" {
		return idemEntry{}, false, nil
	}
	entry, ok := l.st.idem[key]
	if !ok {
		return idemEntry{}, false, nil
	}
	if entry.hash != hash {
		return idemEntry{}, false, conflictError(key)
	}
	return entry, true, nil
}

// commit persists an event and applies it. Must be called with mu held.
func (l *Ledger) commit(ctx context.Context, kind, key, hash string, payload any) (Applied, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Applied{}, fmt.Errorf("encoding %s: %w", kind, err)
	}
	e := storage.Event{
		UserID:         l.userID,
		Kind:           kind,
		IdempotencyKey: key,
		PayloadHash:    hash,
		Payload:        raw,
		RecordedAt:     l.opts.Now().UTC(),
	}
	if err := l.log.Append(ctx, &e); err != nil {
		l.logger.Warn("event not persisted", "kind", kind, "err", err)
		return Applied{}, fmt.Errorf("persisting %s: %w", kind, err)
	}

	applied, err := l.apply(e)
	if err != nil {
		return Applied{}, fmt.Errorf("applying %s: %w", kind, err)
	}
	l.version++
	l.logger.Debug("event applied", "kind", kind, "seq", e.Seq, "entity", applied.EntityID)
	return applied, nil
}

func (l *Ledger) notify(ctx context.Context, a Applied) {
	if l.opts.Observer != nil {
		l.opts.Observer(ctx, a)
	}
}

type accountCreated struct {
	Account model.Account      `json:"account"`
	Opening *model.Transaction `json:"opening,omitempty"`
}

// apply folds one event into the state. It is the only place state
// changes, and it is deterministic so replay reproduces every transition.
func (l *Ledger) apply(e storage.Event) (Applied, error) {
	st := l.st
	a := Applied{Event: e}

	switch e.Kind {
	case KindAccountCreated:
		var p accountCreated
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return a, err
		}
		st.accounts[p.Account.ID] = p.Account
		a.EntityID = p.Account.ID
		if p.Opening != nil {
			a.Transitions = st.applyTransaction(*p.Opening)
		}

	case KindAccountUpdated:
		var acct model.Account
		if err := json.Unmarshal(e.Payload, &acct); err != nil {
			return a, err
		}
		st.accounts[acct.ID] = acct
		a.EntityID = acct.ID

	case KindCategoryCreated:
		var c model.Category
		if err := json.Unmarshal(e.Payload, &c); err != nil {
			return a, err
		}
		st.categories[c.ID] = c
		a.EntityID = c.ID

	case KindTransactionRecorded:
		var t model.Transaction
		if err := json.Unmarshal(e.Payload, &t); err != nil {
			return a, err
		}
		a.Transitions = st.applyTransaction(t)
		a.EntityID = t.ID

	case KindBudgetCreated, KindBudgetUpdated:
		var b model.Budget
		if err := json.Unmarshal(e.Payload, &b); err != nil {
			return a, err
		}
		if prev, ok := st.budgets[b.ID]; ok && prev.Status != b.Status {
			a.Transitions = append(a.Transitions, Transition{Kind: "budget", ID: b.ID, From: prev.Status, To: b.Status})
		}
		st.budgets[b.ID] = b
		a.EntityID = b.ID

	case KindGoalCreated, KindGoalUpdated:
		var g model.SavingsGoal
		if err := json.Unmarshal(e.Payload, &g); err != nil {
			return a, err
		}
		if prev, ok := st.goals[g.ID]; ok && prev.Status != g.Status {
			a.Transitions = append(a.Transitions, Transition{Kind: "goal", ID: g.ID, From: prev.Status, To: g.Status})
		}
		st.goals[g.ID] = g
		a.EntityID = g.ID

	case KindLoanCreated, KindLoanUpdated:
		var ln model.Loan
		if err := json.Unmarshal(e.Payload, &ln); err != nil {
			return a, err
		}
		if prev, ok := st.loans[ln.ID]; ok && prev.Status != ln.Status {
			a.Transitions = append(a.Transitions, Transition{Kind: "loan", ID: ln.ID, From: prev.Status, To: ln.Status})
		}
		st.loans[ln.ID] = ln
		a.EntityID = ln.ID

	default:
		return a, fmt.Errorf("unknown event kind %q", e.Kind)
	}

	if e.IdempotencyKey != "" {
		st.idem[e.IdempotencyKey] = idemEntry{hash: e.PayloadHash, kind: e.Kind, entityID: a.EntityID}
	}
	return a, nil
}

// applyTransaction appends t and advances any goal or loan it completes.
func (st *state) applyTransaction(t model.Transaction) []Transition {
	st.txnIndex[t.ID] = len(st.txns)
	st.txns = append(st.txns, t)
	if y, m, seq, err := id.ParseTxnID(t.ID); err == nil {
		key := fmt.Sprintf("%04d-%02d", y, m)
		if seq > st.seq[key] {
			st.seq[key] = seq
		}
	}

	var out []Transition
	if g, ok := st.goals[t.GoalID]; ok {
		st.saved[g.ID] = st.saved[g.ID].Add(balance.Contribution(t))
		if next := balance.GoalStatus(g, st.saved[g.ID]); next != g.Status {
			out = append(out, Transition{Kind: "goal", ID: g.ID, From: g.Status, To: next})
			g.Status = next
			st.goals[g.ID] = g
		}
	}
	if ln, ok := st.loans[t.LoanID]; ok && t.Type == model.TxnLoanPayment {
		st.paid[ln.ID] = st.paid[ln.ID].Add(t.Amount().Abs())
		if next := balance.LoanStatus(ln, st.remaining(ln)); next != ln.Status {
			out = append(out, Transition{Kind: "loan", ID: ln.ID, From: ln.Status, To: next})
			ln.Status = next
			st.loans[ln.ID] = ln
		}
	}
	return out
}

func (st *state) remaining(ln model.Loan) model.Money {
	rem := ln.Principal.Sub(st.paid[ln.ID])
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// nextTxnID allocates the next per-month ID for date.
func (st *state) nextTxnID(date time.Time) string {
	key := date.Format("2006-01")
	return id.FormatTxnID(date.Year(), int(date.Month()), st.seq[key]+1)
}
