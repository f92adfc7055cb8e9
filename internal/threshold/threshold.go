// Package threshold classifies derived amounts against user-set limits.
// Every function is pure; callers pass in the values computed by the
// balance engine.
package threshold

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/myrizq/rizq/internal/model"
)

// DefaultAlertPercent applies when a budget does not set its own threshold.
var DefaultAlertPercent = decimal.NewFromInt(80)

var hundred = decimal.NewFromInt(100)

// BudgetAlerting reports whether spent has reached thresholdPercent of
// limit. The boundary counts as alerting.
func BudgetAlerting(spent, limit, thresholdPercent model.Money) bool {
	if !limit.IsPositive() {
		return false
	}
	if thresholdPercent.IsZero() {
		thresholdPercent = DefaultAlertPercent
	}
	// spent/limit >= t/100  <=>  spent*100 >= t*limit
	return spent.Mul(hundred).GreaterThanOrEqual(thresholdPercent.Mul(limit))
}

// LoanOverdue reports whether an active loan is past due with money still
// owed. today is compared by calendar day.
func LoanOverdue(l model.Loan, remaining model.Money, today time.Time) bool {
	if l.Status != model.StatusActive || !remaining.IsPositive() || l.DueDate.IsZero() {
		return false
	}
	return day(l.DueDate).Before(day(today))
}

// ElapsedFraction is the share of [start, target] that has passed at today,
// clamped to [0, 1].
func ElapsedFraction(start, target, today time.Time) decimal.Decimal {
	total := day(target).Sub(day(start))
	if total <= 0 {
		return decimal.NewFromInt(1)
	}
	elapsed := day(today).Sub(day(start))
	switch {
	case elapsed <= 0:
		return decimal.Zero
	case elapsed >= total:
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(elapsed / time.Hour)).Div(decimal.NewFromInt(int64(total / time.Hour)))
}

// GoalOnTrack reports whether saving keeps pace with time. Advisory only;
// it never changes the goal's status.
func GoalOnTrack(g model.SavingsGoal, saved model.Money, today time.Time) bool {
	if g.Status == model.StatusCompleted {
		return true
	}
	if !g.TargetAmount.IsPositive() {
		return false
	}
	progress := saved.Div(g.TargetAmount)
	return progress.GreaterThanOrEqual(ElapsedFraction(g.StartDate, g.TargetDate, today))
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
