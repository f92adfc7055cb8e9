package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/myrizq/rizq/internal/balance"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/threshold"
)

// AccountReport is an account with its derived balance.
type AccountReport struct {
	Account model.Account `json:"account"`
	Balance model.Money   `json:"balance"`

	// Converted is the balance in the session's base currency; nil when the
	// conversion failed.
	Converted *model.Money `json:"converted,omitempty"`

	// CreditUtilisation is the percent of a card's limit in use.
	CreditUtilisation *decimal.Decimal `json:"credit_utilisation,omitempty"`

	Error string `json:"error,omitempty"`
}

// BudgetReport is a budget's progress in its active window.
type BudgetReport struct {
	Budget         model.Budget    `json:"budget"`
	Spent          model.Money     `json:"spent"`
	Remaining      model.Money     `json:"remaining"`
	Percent        decimal.Decimal `json:"percent"`
	DisplayPercent int64           `json:"display_percent"`
	Alerting       bool            `json:"alerting"`
	InWindow       bool            `json:"in_window"`
	WindowStart    time.Time       `json:"window_start,omitzero"`
	WindowEnd      time.Time       `json:"window_end,omitzero"`
}

// GoalReport is a savings goal's progress.
type GoalReport struct {
	Goal           model.SavingsGoal `json:"goal"`
	Saved          model.Money       `json:"saved"`
	Remaining      model.Money       `json:"remaining"`
	Percent        decimal.Decimal   `json:"percent"`
	DisplayPercent int64             `json:"display_percent"`
	OnTrack        bool              `json:"on_track"`
}

// LoanReport is a loan's repayment progress.
type LoanReport struct {
	Loan           model.Loan      `json:"loan"`
	Paid           model.Money     `json:"paid"`
	Remaining      model.Money     `json:"remaining"`
	Percent        decimal.Decimal `json:"percent"`
	DisplayPercent int64           `json:"display_percent"`
	Overdue        bool            `json:"overdue"`
	Installment    model.Money     `json:"installment"`
}

// CategoryShare is one slice of the monthly expense breakdown.
type CategoryShare struct {
	Category model.Category  `json:"category"`
	Amount   model.Money     `json:"amount"`
	Share    decimal.Decimal `json:"share"` // percent of the month's expenses
}

// ReportBudget derives b's progress as of asOf.
func ReportBudget(b model.Budget, txns []model.Transaction, accounts map[string]model.Account, asOf time.Time) BudgetReport {
	r := BudgetReport{Budget: b}
	r.WindowStart, r.WindowEnd, r.InWindow = balance.Window(b, asOf)
	if b.Status == model.StatusActive {
		r.Spent = balance.BudgetSpent(b, txns, accounts, asOf)
	}
	r.Remaining = b.Amount.Sub(r.Spent)
	r.Percent = model.Percent(r.Spent, b.Amount)
	r.DisplayPercent = r.Percent.Round(0).IntPart()
	r.Alerting = b.Status == model.StatusActive && threshold.BudgetAlerting(r.Spent, b.Amount, b.AlertThreshold)
	return r
}

// ReportGoal derives g's progress as of today.
func ReportGoal(g model.SavingsGoal, txns []model.Transaction, today time.Time) GoalReport {
	saved := balance.GoalSaved(g.ID, txns)
	r := GoalReport{
		Goal:      g,
		Saved:     saved,
		Remaining: decimal.Max(g.TargetAmount.Sub(saved), decimal.Zero),
		Percent:   model.Percent(saved, g.TargetAmount),
		OnTrack:   threshold.GoalOnTrack(g, saved, today),
	}
	r.DisplayPercent = r.Percent.Round(0).IntPart()
	return r
}

// ReportLoan derives l's repayment progress as of today.
func ReportLoan(l model.Loan, txns []model.Transaction, today time.Time) LoanReport {
	remaining := balance.LoanRemaining(l, txns)
	paid := l.Principal.Sub(remaining)
	r := LoanReport{
		Loan:        l,
		Paid:        paid,
		Remaining:   remaining,
		Percent:     model.Percent(paid, l.Principal),
		Overdue:     threshold.LoanOverdue(l, remaining, today),
		Installment: balance.Installment(l),
	}
	r.DisplayPercent = r.Percent.Round(0).IntPart()
	return r
}

// creditUtilisation is the share of a card's limit used by a negative
// balance.
func creditUtilisation(a model.Account, bal model.Money) *decimal.Decimal {
	if a.Details.Card == nil || !a.Details.Card.CreditLimit.IsPositive() {
		return nil
	}
	used := decimal.Max(bal.Neg(), decimal.Zero)
	pct := model.Percent(used, a.Details.Card.CreditLimit).Round(2)
	return &pct
}
