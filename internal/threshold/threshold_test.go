package threshold

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/myrizq/rizq/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestBudgetAlerting(t *testing.T) {
	tests := []struct {
		name      string
		spent     string
		limit     string
		threshold string
		want      bool
	}{
		{"exactly at threshold", "480", "600", "80", true},
		{"just below", "479.99", "600", "80", false},
		{"over limit", "700", "600", "80", true},
		{"default threshold", "480", "600", "0", true},
		{"full threshold", "599.99", "600", "100", false},
		{"zero limit never alerts", "10", "0", "80", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BudgetAlerting(dec(tt.spent), dec(tt.limit), dec(tt.threshold)))
		})
	}
}

func TestLoanOverdue(t *testing.T) {
	loan := model.Loan{Status: model.StatusActive, DueDate: date(2024, 6, 10)}

	assert.False(t, LoanOverdue(loan, dec("100"), date(2024, 6, 10)), "due today is not overdue")
	assert.True(t, LoanOverdue(loan, dec("100"), date(2024, 6, 11)))
	assert.False(t, LoanOverdue(loan, decimal.Zero, date(2024, 6, 11)), "nothing owed")

	loan.Status = model.StatusCancelled
	assert.False(t, LoanOverdue(loan, dec("100"), date(2024, 6, 11)))
}

func TestElapsedFraction(t *testing.T) {
	start, target := date(2024, 1, 1), date(2024, 1, 11)
	assert.True(t, ElapsedFraction(start, target, date(2023, 12, 1)).IsZero())
	assert.True(t, dec("0.5").Equal(ElapsedFraction(start, target, date(2024, 1, 6))))
	assert.True(t, dec("1").Equal(ElapsedFraction(start, target, date(2024, 2, 1))))
}

func TestGoalOnTrack(t *testing.T) {
	g := model.SavingsGoal{
		TargetAmount: dec("1000"),
		StartDate:    date(2024, 1, 1),
		TargetDate:   date(2024, 1, 11),
		Status:       model.StatusActive,
	}
	assert.True(t, GoalOnTrack(g, dec("500"), date(2024, 1, 6)))
	assert.False(t, GoalOnTrack(g, dec("499.99"), date(2024, 1, 6)))

	g.Status = model.StatusCompleted
	assert.True(t, GoalOnTrack(g, dec("1000"), date(2024, 3, 1)))
}
