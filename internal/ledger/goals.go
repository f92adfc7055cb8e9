package ledger

import (
	"context"
	"time"

	"github.com/myrizq/rizq/internal/id"
	"github.com/myrizq/rizq/internal/model"
)

// DefaultGoalPriority is used when a goal is created without one.
const DefaultGoalPriority = 5

// CreateGoalParams holds parameters for a new savings goal.
type CreateGoalParams struct {
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
	Name           string      `json:"name"`
	TargetAmount   model.Money `json:"target_amount"`
	Currency       string      `json:"currency"`
	StartDate      time.Time   `json:"start_date"`
	TargetDate     time.Time   `json:"target_date"`
	Priority       int         `json:"priority,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

// CreateGoal adds a savings goal.
func (l *Ledger) CreateGoal(ctx context.Context, p CreateGoalParams) (model.SavingsGoal, error) {
	key := p.IdempotencyKey
	p.IdempotencyKey = ""
	hash, err := fingerprint(KindGoalCreated, p)
	if err != nil {
		return model.SavingsGoal{}, err
	}

	var out model.SavingsGoal
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(key, hash); err != nil || ok {
			out = l.st.goals[entry.entityID]
			return nil, err
		}

		g := model.SavingsGoal{
			ID:           id.New(),
			UserID:       l.userID,
			Name:         p.Name,
			TargetAmount: p.TargetAmount,
			Currency:     p.Currency,
			StartDate:    p.StartDate,
			TargetDate:   p.TargetDate,
			Status:       model.StatusActive,
			Priority:     p.Priority,
			Notes:        p.Notes,
			CreatedAt:    l.opts.Now().UTC(),
		}
		if g.Priority == 0 {
			g.Priority = DefaultGoalPriority
		}
		var v validator
		v.goal(g)
		if err := v.err(); err != nil {
			return nil, err
		}

		applied, err := l.commit(ctx, KindGoalCreated, key, hash, g)
		if err != nil {
			return nil, err
		}
		out = g
		return &applied, nil
	})
	return out, err
}

// UpdateGoalParams holds the mutable fields of a goal. The target amount
// is fixed once created.
type UpdateGoalParams struct {
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	ID             string     `json:"id"`
	Name           *string    `json:"name,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	TargetDate     *time.Time `json:"target_date,omitempty"`
	Priority       *int       `json:"priority,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// UpdateGoal changes a goal's metadata.
func (l *Ledger) UpdateGoal(ctx context.Context, p UpdateGoalParams) (model.SavingsGoal, error) {
	key := p.IdempotencyKey
	p.IdempotencyKey = ""
	hash, err := fingerprint(KindGoalUpdated, p)
	if err != nil {
		return model.SavingsGoal{}, err
	}

	var out model.SavingsGoal
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(key, hash); err != nil || ok {
			out = l.st.goals[entry.entityID]
			return nil, err
		}

		g, ok := l.st.goals[p.ID]
		if !ok {
			return nil, &NotFoundError{Kind: "goal", ID: p.ID}
		}
		if g.Status != model.StatusActive {
			return nil, &ValidationError{Violations: []Violation{{Field: "status", Message: "goal is " + string(g.Status)}}}
		}
		if p.Name != nil {
			g.Name = *p.Name
		}
		if p.StartDate != nil {
			g.StartDate = *p.StartDate
		}
		if p.TargetDate != nil {
			g.TargetDate = *p.TargetDate
		}
		if p.Priority != nil {
			g.Priority = *p.Priority
		}
		if p.Notes != nil {
			g.Notes = *p.Notes
		}
		var v validator
		v.goal(g)
		if err := v.err(); err != nil {
			return nil, err
		}

		applied, err := l.commit(ctx, KindGoalUpdated, key, hash, g)
		if err != nil {
			return nil, err
		}
		out = g
		return &applied, nil
	})
	return out, err
}

// CancelGoal abandons an active goal. Completed goals stay completed.
func (l *Ledger) CancelGoal(ctx context.Context, idempotencyKey, goalID string) (model.SavingsGoal, error) {
	hash, err := fingerprint(KindGoalUpdated, cancelParams{Kind: "goal", ID: goalID})
	if err != nil {
		return model.SavingsGoal{}, err
	}

	var out model.SavingsGoal
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(idempotencyKey, hash); err != nil || ok {
			out = l.st.goals[entry.entityID]
			return nil, err
		}

		g, ok := l.st.goals[goalID]
		if !ok {
			return nil, &NotFoundError{Kind: "goal", ID: goalID}
		}
		if err := checkCancel("goal", g.Status); err != nil {
			return nil, err
		}
		g.Status = model.StatusCancelled

		applied, err := l.commit(ctx, KindGoalUpdated, idempotencyKey, hash, g)
		if err != nil {
			return nil, err
		}
		out = g
		return &applied, nil
	})
	return out, err
}
