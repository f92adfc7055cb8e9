package ledger

import (
	"fmt"
	"regexp"
	"time"

	"github.com/myrizq/rizq/internal/model"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 200
	maxNotesLen       = 1000
)

var (
	last4Pattern = regexp.MustCompile(`^[0-9]{4}$`)
	colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// validator accumulates violations so a command reports every problem at
// once instead of the first one.
type validator struct {
	violations []Violation
}

func (v *validator) check(ok bool, field, format string, args ...any) {
	if !ok {
		v.violations = append(v.violations, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}
}

func (v *validator) err() error {
	if len(v.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: v.violations}
}

func (v *validator) name(field, s string) {
	v.check(s != "", field, "is required")
	v.check(len(s) <= maxNameLen, field, "must be at most %d characters", maxNameLen)
}

func (v *validator) notes(s string) {
	v.check(len(s) <= maxNotesLen, "notes", "must be at most %d characters", maxNotesLen)
}

func (v *validator) currency(code string) {
	v.check(model.ValidCurrency(code), "currency", "%q is not an ISO-4217 code", code)
}

func (v *validator) positiveAmount(field string, amt model.Money) {
	v.check(amt.IsPositive(), field, "must be greater than zero")
	v.check(model.HasCents(amt), field, "must have at most 2 decimal places")
}

func (v *validator) date(field string, t time.Time) {
	v.check(!t.IsZero(), field, "is required")
}

// details checks that exactly the variant matching typ is present and
// that its fields are well formed.
func (v *validator) details(typ model.AccountType, d model.AccountDetails) {
	switch {
	case typ == model.AccountTypeBank:
		v.check(d.Card == nil && d.Holding == nil, "details", "bank accounts only accept bank details")
		v.check(d.Bank != nil, "details.bank", "is required for bank accounts")
		if d.Bank == nil {
			return
		}
		v.check(d.Bank.AccountNumber != "", "details.bank.account_number", "is required")
		v.check(d.Bank.RoutingNumber != "", "details.bank.routing_number", "is required")
		if s := d.Bank.SWIFTCode; s != "" {
			v.check(len(s) == 8 || len(s) == 11, "details.bank.swift_code", "must be 8 or 11 characters")
		}

	case typ == model.AccountTypeCard:
		v.check(d.Bank == nil && d.Holding == nil, "details", "card accounts only accept card details")
		v.check(d.Card != nil, "details.card", "is required for card accounts")
		if d.Card == nil {
			return
		}
		switch d.Card.Network {
		case model.CardNetworkVisa, model.CardNetworkAmex, model.CardNetworkMastercard,
			model.CardNetworkDiscover, model.CardNetworkOther:
		default:
			v.check(false, "details.card.network", "unknown network %q", d.Card.Network)
		}
		v.check(last4Pattern.MatchString(d.Card.Last4), "details.card.last4", "must be exactly 4 digits")
		v.check(!d.Card.CreditLimit.IsNegative(), "details.card.credit_limit", "must not be negative")
		v.check(model.HasCents(d.Card.CreditLimit), "details.card.credit_limit", "must have at most 2 decimal places")
		v.check(d.Card.BillingCycleDay >= 1 && d.Card.BillingCycleDay <= 31, "details.card.billing_cycle_day", "must be between 1 and 31")

	case typ.IsHolding():
		v.check(d.Bank == nil && d.Card == nil, "details", "%s accounts only accept provider details", typ)
	}
}

func (v *validator) account(name string, typ model.AccountType, currency string, d model.AccountDetails) {
	v.name("name", name)
	v.check(typ.Valid(), "type", "unknown account type %q", typ)
	v.currency(currency)
	if typ.Valid() {
		v.details(typ, d)
	}
}

// transaction checks everything that does not depend on ledger state.
func (v *validator) transaction(p TransactionParams) {
	v.check(p.Type.Valid(), "type", "unknown transaction type %q", p.Type)
	v.date("date", p.Date)
	v.check(p.Description != "", "description", "is required")
	v.check(len(p.Description) <= maxDescriptionLen, "description", "must be at most %d characters", maxDescriptionLen)

	for i, leg := range p.Legs {
		field := fmt.Sprintf("legs[%d]", i)
		v.check(leg.AccountID != "", field+".account_id", "is required")
		v.check(!leg.Amount.IsZero(), field+".amount", "must not be zero")
		v.check(model.HasCents(leg.Amount), field+".amount", "must have at most 2 decimal places")
	}

	switch p.Type {
	case model.TxnTransfer:
		v.check(len(p.Legs) == 2, "legs", "a transfer needs exactly 2 legs, got %d", len(p.Legs))
		if len(p.Legs) == 2 {
			v.check(p.Legs[0].AccountID != p.Legs[1].AccountID, "legs", "a transfer needs two distinct accounts")
			sum := p.Legs[0].Amount.Add(p.Legs[1].Amount)
			v.check(sum.IsZero(), "legs", "transfer legs must net to zero, got %s", sum.StringFixed(2))
		}
	case model.TxnIncome, model.TxnExpense, model.TxnLoanGiven, model.TxnLoanPayment:
		v.check(len(p.Legs) == 1, "legs", "a %s needs exactly 1 leg, got %d", p.Type, len(p.Legs))
	}

	if len(p.Legs) == 1 {
		amt := p.Legs[0].Amount
		switch p.Type {
		case model.TxnIncome:
			v.check(!amt.IsNegative(), "legs[0].amount", "income must be positive")
		case model.TxnExpense:
			v.check(!amt.IsPositive(), "legs[0].amount", "expense must be negative")
		case model.TxnLoanGiven:
			v.check(!amt.IsPositive(), "legs[0].amount", "a loan disbursement must be negative")
		}
	}

	isLoan := p.Type == model.TxnLoanGiven || p.Type == model.TxnLoanPayment
	v.check(!isLoan || p.LoanID != "", "loan_id", "is required for %s", p.Type)
	v.check(isLoan || p.LoanID == "", "loan_id", "only loan transactions may reference a loan")
	v.check(p.GoalID == "" || p.Type == model.TxnIncome || p.Type == model.TxnTransfer,
		"goal_id", "only income and transfers can contribute to a goal")
}

func (v *validator) budget(b model.Budget) {
	v.name("name", b.Name)
	v.check(b.Period.Valid(), "period", "unknown period %q", b.Period)
	v.positiveAmount("amount", b.Amount)
	v.currency(b.Currency)
	v.date("start_date", b.StartDate)
	v.check(b.Period != model.PeriodCustom || !b.EndDate.IsZero(), "end_date", "is required for custom budgets")
	v.check(b.EndDate.IsZero() || b.EndDate.After(b.StartDate), "end_date", "must be after start_date")
	v.check(b.AlertThreshold.IsPositive() && b.AlertThreshold.LessThanOrEqual(hundred), "alert_threshold", "must be in (0, 100]")
	v.notes(b.Notes)
}

func (v *validator) goal(g model.SavingsGoal) {
	v.name("name", g.Name)
	v.positiveAmount("target_amount", g.TargetAmount)
	v.currency(g.Currency)
	v.date("start_date", g.StartDate)
	v.date("target_date", g.TargetDate)
	v.check(g.TargetDate.After(g.StartDate), "target_date", "must be after start_date")
	v.check(g.Priority >= 1 && g.Priority <= 10, "priority", "must be between 1 and 10")
	v.notes(g.Notes)
}

func (v *validator) loan(l model.Loan) {
	v.check(l.Direction == model.LoanTaken || l.Direction == model.LoanGiven, "direction", "unknown direction %q", l.Direction)
	v.name("counterparty", l.Counterparty)
	v.positiveAmount("principal", l.Principal)
	v.currency(l.Currency)
	v.check(!l.InterestRate.IsNegative(), "interest_rate", "must not be negative")
	v.check(l.DurationMonths >= 0, "duration_months", "must not be negative")
	v.check(l.PaymentFrequency == model.FrequencyMonthly || l.PaymentFrequency == model.FrequencyWeekly,
		"payment_frequency", "unknown frequency %q", l.PaymentFrequency)
	v.date("loan_date", l.LoanDate)
	v.check(l.DueDate.IsZero() || !l.DueDate.Before(l.LoanDate), "due_date", "must not be before loan_date")
	v.notes(l.Notes)
}

func (v *validator) category(c model.Category) {
	v.name("name", c.Name)
	v.check(c.Color == "" || colorPattern.MatchString(c.Color), "color", "must look like #rrggbb")
}
