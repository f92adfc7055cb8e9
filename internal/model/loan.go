package model

import "time"

// LoanDirection distinguishes money borrowed from money lent.
type LoanDirection string

const (
	LoanTaken LoanDirection = "taken"
	LoanGiven LoanDirection = "given"
)

// PaymentFrequency is how often installments fall due.
type PaymentFrequency string

const (
	FrequencyMonthly PaymentFrequency = "monthly"
	FrequencyWeekly  PaymentFrequency = "weekly"
)

// Loan is a debt owed by (taken) or to (given) the user. Remaining balance
// is derived from linked loan_payment transactions.
type Loan struct {
	ID                  string           `json:"id"`
	UserID              string           `json:"user_id"`
	Direction           LoanDirection    `json:"direction"`
	Counterparty        string           `json:"counterparty"`
	CounterpartyContact string           `json:"counterparty_contact,omitempty"`
	Purpose             string           `json:"purpose,omitempty"`
	Principal           Money            `json:"principal"`
	Currency            string           `json:"currency"`
	InterestRate        Money            `json:"interest_rate"` // annual percent
	DurationMonths      int              `json:"duration_months,omitempty"`
	PaymentFrequency    PaymentFrequency `json:"payment_frequency,omitempty"`
	LoanDate            time.Time        `json:"loan_date"`
	DueDate             time.Time        `json:"due_date"`
	Status              Status           `json:"status"`
	Notes               string           `json:"notes,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// PaymentSign returns +1 when payments on this loan flow into the user's
// account (a loan given being repaid) and -1 otherwise.
func (l Loan) PaymentSign() int {
	if l.Direction == LoanGiven {
		return 1
	}
	return -1
}
