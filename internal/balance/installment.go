package balance

import (
	"github.com/shopspring/decimal"

	"github.com/myrizq/rizq/internal/model"
)

// Periods returns how many installments repay the loan.
func Periods(l model.Loan) int {
	if l.DurationMonths <= 0 {
		return 0
	}
	if l.PaymentFrequency == model.FrequencyWeekly {
		return (l.DurationMonths*52 + 11) / 12
	}
	return l.DurationMonths
}

// Installment is the fixed periodic payment that amortizes the principal at
// the loan's annual rate:
//
//	P·r / (1 − (1+r)^−n)
//
// With a zero rate it is P/n. Unknown durations yield zero.
func Installment(l model.Loan) model.Money {
	n := Periods(l)
	if n == 0 {
		return decimal.Zero
	}
	nd := decimal.NewFromInt(int64(n))
	if !l.InterestRate.IsPositive() {
		return l.Principal.Div(nd).Round(2)
	}

	perYear := decimal.NewFromInt(12)
	if l.PaymentFrequency == model.FrequencyWeekly {
		perYear = decimal.NewFromInt(52)
	}
	r := l.InterestRate.Div(decimal.NewFromInt(100)).Div(perYear)
	growth := decimal.NewFromInt(1).Add(r).Pow(nd)
	return l.Principal.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1))).Round(2)
}
