// Package balance derives account balances, budget spending, goal savings
// and loan remaining balances from the transaction log. Nothing here is
// stored; every value is a fold over transactions and therefore independent
// of the order they were recorded in.
package balance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/myrizq/rizq/internal/model"
)

// Account returns the balance of accountID.
func Account(accountID string, txns []model.Transaction) model.Money {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.AmountFor(accountID))
	}
	return total
}

// Accounts returns the balance of every account referenced by txns.
func Accounts(txns []model.Transaction) map[string]model.Money {
	out := make(map[string]model.Money)
	for _, t := range txns {
		for _, leg := range t.Legs {
			out[leg.AccountID] = out[leg.AccountID].Add(leg.Amount)
		}
	}
	return out
}

// Contribution is the amount a transaction adds to a linked goal: the sum of
// its positive legs.
func Contribution(t model.Transaction) model.Money {
	total := decimal.Zero
	for _, leg := range t.Legs {
		if leg.Amount.IsPositive() {
			total = total.Add(leg.Amount)
		}
	}
	return total
}

// GoalSaved sums the contributions linked to goalID.
func GoalSaved(goalID string, txns []model.Transaction) model.Money {
	total := decimal.Zero
	for _, t := range txns {
		if t.GoalID == goalID {
			total = total.Add(Contribution(t))
		}
	}
	return total
}

// LoanPaid sums the absolute loan_payment amounts linked to loanID.
func LoanPaid(loanID string, txns []model.Transaction) model.Money {
	total := decimal.Zero
	for _, t := range txns {
		if t.LoanID == loanID && t.Type == model.TxnLoanPayment {
			total = total.Add(t.Amount().Abs())
		}
	}
	return total
}

// LoanRemaining is principal minus payments, floored at zero.
func LoanRemaining(loan model.Loan, txns []model.Transaction) model.Money {
	rem := loan.Principal.Sub(LoanPaid(loan.ID, txns))
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// GoalStatus returns the status a goal should have once saved is known.
func GoalStatus(g model.SavingsGoal, saved model.Money) model.Status {
	if g.Status == model.StatusActive && saved.GreaterThanOrEqual(g.TargetAmount) {
		return model.StatusCompleted
	}
	return g.Status
}

// LoanStatus returns the status a loan should have once remaining is known.
func LoanStatus(l model.Loan, remaining model.Money) model.Status {
	if l.Status == model.StatusActive && remaining.IsZero() {
		return model.StatusCompleted
	}
	return l.Status
}

// Window returns the half-open interval [start, end) of b that contains
// asOf. ok is false before the budget starts or once it has ended.
func Window(b model.Budget, asOf time.Time) (start, end time.Time, ok bool) {
	if asOf.Before(b.StartDate) {
		return time.Time{}, time.Time{}, false
	}
	if !b.EndDate.IsZero() && !asOf.Before(b.EndDate) {
		return time.Time{}, time.Time{}, false
	}

	var step int
	switch b.Period {
	case model.PeriodMonthly:
		step = 1
	case model.PeriodYearly:
		step = 12
	default:
		return b.StartDate, b.EndDate, !b.EndDate.IsZero()
	}

	elapsed := (asOf.Year()-b.StartDate.Year())*12 + int(asOf.Month()) - int(b.StartDate.Month())
	k := elapsed / step
	start = addMonths(b.StartDate, k*step)
	if start.After(asOf) {
		k--
		start = addMonths(b.StartDate, k*step)
	}
	end = addMonths(b.StartDate, (k+1)*step)
	if !b.EndDate.IsZero() && b.EndDate.Before(end) {
		end = b.EndDate
	}
	return start, end, true
}

// addMonths adds n months to t, clamping the day to the end of the target
// month so Jan 31 + 1 month is Feb 28/29 rather than early March.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// BudgetSpent sums the absolute expense legs inside b's active window that
// match its scope. Legs on accounts in another currency are ignored.
func BudgetSpent(b model.Budget, txns []model.Transaction, accounts map[string]model.Account, asOf time.Time) model.Money {
	start, end, ok := Window(b, asOf)
	if !ok {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, t := range txns {
		if t.Type != model.TxnExpense || t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		for _, leg := range t.Legs {
			if !leg.Amount.IsNegative() || !b.Covers(leg.AccountID, t.CategoryID) {
				continue
			}
			if acct, found := accounts[leg.AccountID]; found && acct.Currency != b.Currency {
				continue
			}
			total = total.Add(leg.Amount.Abs())
		}
	}
	return total
}
