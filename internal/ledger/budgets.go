package ledger

import (
	"context"
	"time"

	"github.com/myrizq/rizq/internal/id"
	"github.com/myrizq/rizq/internal/model"
)

// CreateBudgetParams holds parameters for a new budget.
type CreateBudgetParams struct {
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Name           string            `json:"name"`
	Period         model.PeriodType  `json:"period"`
	Amount         model.Money       `json:"amount"`
	Currency       string            `json:"currency"`
	StartDate      time.Time         `json:"start_date"`
	EndDate        time.Time         `json:"end_date,omitzero"`
	AlertThreshold model.Money       `json:"alert_threshold"` // zero means the default
	Scope          model.BudgetScope `json:"scope"`
	Notes          string            `json:"notes,omitempty"`
}

// CreateBudget adds a budget.
func (l *Ledger) CreateBudget(ctx context.Context, p CreateBudgetParams) (model.Budget, error) {
	key := p.IdempotencyKey
	p.IdempotencyKey = ""
	hash, err := fingerprint(KindBudgetCreated, p)
	if err != nil {
		return model.Budget{}, err
	}

	var out model.Budget
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(key, hash); err != nil || ok {
			out = l.st.budgets[entry.entityID]
			return nil, err
		}

		b := model.Budget{
			ID:             id.New(),
			UserID:         l.userID,
			Name:           p.Name,
			Period:         p.Period,
			Amount:         p.Amount,
			Currency:       p.Currency,
			StartDate:      p.StartDate,
			EndDate:        p.EndDate,
			AlertThreshold: p.AlertThreshold,
			Scope:          p.Scope,
			Status:         model.StatusActive,
			Notes:          p.Notes,
			CreatedAt:      l.opts.Now().UTC(),
		}
		if b.AlertThreshold.IsZero() {
			b.AlertThreshold = l.opts.DefaultAlertThreshold
		}
		if err := l.checkBudget(b); err != nil {
			return nil, err
		}

		applied, err := l.commit(ctx, KindBudgetCreated, key, hash, b)
		if err != nil {
			return nil, err
		}
		out = b
		return &applied, nil
	})
	return out, err
}

// UpdateBudgetParams holds the mutable fields of a budget. The limit and
// period are fixed once created.
type UpdateBudgetParams struct {
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
	ID             string             `json:"id"`
	Name           *string            `json:"name,omitempty"`
	StartDate      *time.Time         `json:"start_date,omitempty"`
	EndDate        *time.Time         `json:"end_date,omitempty"`
	AlertThreshold *model.Money       `json:"alert_threshold,omitempty"`
	Scope          *model.BudgetScope `json:"scope,omitempty"`
	Notes          *string            `json:"notes,omitempty"`
}

// UpdateBudget changes a budget's metadata.
func (l *Ledger) UpdateBudget(ctx context.Context, p UpdateBudgetParams) (model.Budget, error) {
	key := p.IdempotencyKey
	p.IdempotencyKey = ""
	hash, err := fingerprint(KindBudgetUpdated, p)
	if err != nil {
		return model.Budget{}, err
	}

	var out model.Budget
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(key, hash); err != nil || ok {
			out = l.st.budgets[entry.entityID]
			return nil, err
		}

		b, ok := l.st.budgets[p.ID]
		if !ok {
			return nil, &NotFoundError{Kind: "budget", ID: p.ID}
		}
		if b.Status != model.StatusActive {
			return nil, &ValidationError{Violations: []Violation{{Field: "status", Message: "budget is " + string(b.Status)}}}
		}
		if p.Name != nil {
			b.Name = *p.Name
		}
		if p.StartDate != nil {
			b.StartDate = *p.StartDate
		}
		if p.EndDate != nil {
			b.EndDate = *p.EndDate
		}
		if p.AlertThreshold != nil {
			b.AlertThreshold = *p.AlertThreshold
		}
		if p.Scope != nil {
			b.Scope = *p.Scope
		}
		if p.Notes != nil {
			b.Notes = *p.Notes
		}
		if err := l.checkBudget(b); err != nil {
			return nil, err
		}

		applied, err := l.commit(ctx, KindBudgetUpdated, key, hash, b)
		if err != nil {
			return nil, err
		}
		out = b
		return &applied, nil
	})
	return out, err
}

// CancelBudget stops a budget from tracking spending.
func (l *Ledger) CancelBudget(ctx context.Context, idempotencyKey, budgetID string) (model.Budget, error) {
	hash, err := fingerprint(KindBudgetUpdated, cancelParams{ID: budgetID, Kind: "budget"})
	if err != nil {
		return model.Budget{}, err
	}

	var out model.Budget
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(idempotencyKey, hash); err != nil || ok {
			out = l.st.budgets[entry.entityID]
			return nil, err
		}

		b, ok := l.st.budgets[budgetID]
		if !ok {
			return nil, &NotFoundError{Kind: "budget", ID: budgetID}
		}
		if err := checkCancel("budget", b.Status); err != nil {
			return nil, err
		}
		b.Status = model.StatusCancelled

		applied, err := l.commit(ctx, KindBudgetUpdated, idempotencyKey, hash, b)
		if err != nil {
			return nil, err
		}
		out = b
		return &applied, nil
	})
	return out, err
}

func (l *Ledger) checkBudget(b model.Budget) error {
	var v validator
	v.budget(b)
	if err := v.err(); err != nil {
		return err
	}
	for _, catID := range b.Scope.CategoryIDs {
		if _, ok := l.st.categories[catID]; !ok {
			return &NotFoundError{Kind: "category", ID: catID, Reference: true}
		}
	}
	for _, acctID := range b.Scope.AccountIDs {
		acct, ok := l.st.accounts[acctID]
		if !ok {
			return &NotFoundError{Kind: "account", ID: acctID, Reference: true}
		}
		v.check(acct.Currency == b.Currency, "scope.account_ids",
			"account %s is in %s, budget is in %s", acct.Name, acct.Currency, b.Currency)
	}
	return v.err()
}

// cancelParams fingerprints a cancel command.
type cancelParams struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func checkCancel(kind string, s model.Status) error {
	if s.CanTransition(model.StatusCancelled) {
		return nil
	}
	return &ValidationError{Violations: []Violation{{Field: "status", Message: "cannot cancel a " + string(s) + " " + kind}}}
}
