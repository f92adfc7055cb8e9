package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/myrizq/rizq/internal/activity"
	"github.com/myrizq/rizq/internal/aggregate"
	"github.com/myrizq/rizq/internal/events"
	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/model"
)

// observe runs after every committed command, outside the ledger lock.
// Failures here are logged and never undo the command.
func (s *LedgerService) observe(ctx context.Context, a ledger.Applied) {
	e := a.Event

	var txn *model.Transaction
	if e.Kind == ledger.KindTransactionRecorded {
		var t model.Transaction
		if err := json.Unmarshal(e.Payload, &t); err != nil {
			s.logger.ErrorContext(ctx, "decoding applied transaction", "seq", e.Seq, "err", err)
		} else {
			txn = &t
		}
	}

	if s.activity != nil {
		entry := activity.Entry{
			Timestamp:      e.RecordedAt,
			UserID:         e.UserID,
			Action:         e.Kind,
			Details:        details(txn, a.Transitions),
			EntityID:       a.EntityID,
			IdempotencyKey: e.IdempotencyKey,
		}
		if err := s.activity.Append(entry); err != nil {
			s.logger.WarnContext(ctx, "activity log append failed", "kind", e.Kind, "err", err)
		}
	}

	for _, tr := range a.Transitions {
		if tr.To != model.StatusCompleted {
			continue
		}
		switch tr.Kind {
		case "goal":
			s.publish(ctx, events.Alert{
				Kind:     events.KindGoalCompleted,
				UserID:   e.UserID,
				EntityID: tr.ID,
				Message:  "savings goal reached its target",
			})
		case "loan":
			s.publish(ctx, events.Alert{
				Kind:     events.KindLoanCompleted,
				UserID:   e.UserID,
				EntityID: tr.ID,
				Message:  "loan fully repaid",
			})
		}
	}

	if txn != nil && txn.Type == model.TxnExpense {
		s.checkBudgets(ctx, e.UserID, *txn)
	}
}

// checkBudgets publishes a budget_alert for every active budget that t
// pushed across its alert threshold. Only transactions up to and including
// t are considered, so concurrent commands cannot shift the result.
func (s *LedgerService) checkBudgets(ctx context.Context, userID string, t model.Transaction) {
	l, err := s.registry.For(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "budget check skipped", "user_id", userID, "err", err)
		return
	}
	snap := l.Snapshot()
	txns := snap.Transactions()
	end := -1
	for i := len(txns) - 1; i >= 0; i-- {
		if txns[i].ID == t.ID {
			end = i
			break
		}
	}
	if end < 0 {
		return
	}
	accounts := snap.AccountMap()

	for _, b := range snap.Budgets() {
		if b.Status != model.StatusActive || !touchesBudget(b, t, accounts) {
			continue
		}
		after := aggregate.ReportBudget(b, txns[:end+1], accounts, t.Date)
		if !after.Alerting {
			continue
		}
		before := aggregate.ReportBudget(b, txns[:end], accounts, t.Date)
		if before.Alerting {
			continue
		}
		s.publish(ctx, events.Alert{
			Kind:     events.KindBudgetAlert,
			UserID:   userID,
			EntityID: b.ID,
			Message:  fmt.Sprintf("%s is at %d%% of its limit", b.Name, after.DisplayPercent),
			Data: map[string]string{
				"spent":     after.Spent.StringFixed(2),
				"limit":     b.Amount.StringFixed(2),
				"currency":  b.Currency,
				"threshold": b.AlertThreshold.String(),
				"txn_id":    t.ID,
			},
		})
	}
}

func touchesBudget(b model.Budget, t model.Transaction, accounts map[string]model.Account) bool {
	for _, leg := range t.Legs {
		if accounts[leg.AccountID].Currency == b.Currency && b.Covers(leg.AccountID, t.CategoryID) {
			return true
		}
	}
	return false
}

func (s *LedgerService) publish(ctx context.Context, a events.Alert) {
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now().UTC()
	}
	s.metrics.Alert(string(a.Kind))
	if err := s.publisher.Publish(ctx, a); err != nil {
		s.logger.WarnContext(ctx, "alert not published",
			"kind", a.Kind, "user_id", a.UserID, "entity_id", a.EntityID, "err", err)
	}
}

func details(t *model.Transaction, transitions []ledger.Transition) string {
	var parts []string
	if t != nil {
		parts = append(parts, fmt.Sprintf("%s %s %s", t.Type, t.Amount().StringFixed(2), t.Description))
	}
	for _, tr := range transitions {
		parts = append(parts, fmt.Sprintf("%s %s %s->%s", tr.Kind, tr.ID, tr.From, tr.To))
	}
	return strings.Join(parts, "; ")
}
