package ledger

import (
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/myrizq/rizq/internal/model"
)

// Snapshot is a consistent, read-only view of a ledger at one version.
// It shares the transaction backing array with the ledger; the slice is
// capped so later appends never show through.
type Snapshot struct {
	UserID  string
	Version uint64

	accounts   map[string]model.Account
	categories map[string]model.Category
	budgets    map[string]model.Budget
	goals      map[string]model.SavingsGoal
	loans      map[string]model.Loan
	txns       []model.Transaction
}

// Snapshot copies the current state under the read lock.
func (l *Ledger) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := len(l.st.txns)
	return &Snapshot{
		UserID:     l.userID,
		Version:    l.version,
		accounts:   maps.Clone(l.st.accounts),
		categories: maps.Clone(l.st.categories),
		budgets:    maps.Clone(l.st.budgets),
		goals:      maps.Clone(l.st.goals),
		loans:      maps.Clone(l.st.loans),
		txns:       l.st.txns[:n:n],
	}
}

// Account returns the account with id.
func (s *Snapshot) Account(id string) (model.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, &NotFoundError{Kind: "account", ID: id}
	}
	return a, nil
}

// AccountMap returns accounts keyed by ID. Callers must not modify it.
func (s *Snapshot) AccountMap() map[string]model.Account {
	return s.accounts
}

// Accounts returns every account in creation order.
func (s *Snapshot) Accounts() []model.Account {
	out := slices.Collect(maps.Values(s.accounts))
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Category returns the category with id.
func (s *Snapshot) Category(id string) (model.Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return model.Category{}, &NotFoundError{Kind: "category", ID: id}
	}
	return c, nil
}

// Categories returns every category sorted by name.
func (s *Snapshot) Categories() []model.Category {
	out := slices.Collect(maps.Values(s.categories))
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Budget returns the budget with id.
func (s *Snapshot) Budget(id string) (model.Budget, error) {
	b, ok := s.budgets[id]
	if !ok {
		return model.Budget{}, &NotFoundError{Kind: "budget", ID: id}
	}
	return b, nil
}

// Budgets returns every budget in creation order.
func (s *Snapshot) Budgets() []model.Budget {
	out := slices.Collect(maps.Values(s.budgets))
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Goal returns the goal with id.
func (s *Snapshot) Goal(id string) (model.SavingsGoal, error) {
	g, ok := s.goals[id]
	if !ok {
		return model.SavingsGoal{}, &NotFoundError{Kind: "goal", ID: id}
	}
	return g, nil
}

// Goals returns every goal, highest priority (lowest number) first.
func (s *Snapshot) Goals() []model.SavingsGoal {
	out := slices.Collect(maps.Values(s.goals))
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		if !out[i].TargetDate.Equal(out[j].TargetDate) {
			return out[i].TargetDate.Before(out[j].TargetDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Loan returns the loan with id.
func (s *Snapshot) Loan(id string) (model.Loan, error) {
	ln, ok := s.loans[id]
	if !ok {
		return model.Loan{}, &NotFoundError{Kind: "loan", ID: id}
	}
	return ln, nil
}

// Loans returns every loan ordered by due date, open-ended loans last.
func (s *Snapshot) Loans() []model.Loan {
	out := slices.Collect(maps.Values(s.loans))
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DueDate, out[j].DueDate
		switch {
		case di.IsZero() != dj.IsZero():
			return dj.IsZero()
		case !di.Equal(dj):
			return di.Before(dj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Transactions returns the log in append order. Callers must not modify it.
func (s *Snapshot) Transactions() []model.Transaction {
	return s.txns
}
