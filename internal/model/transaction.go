package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	TxnIncome      TransactionType = "income"
	TxnExpense     TransactionType = "expense"
	TxnTransfer    TransactionType = "transfer"
	TxnLoanGiven   TransactionType = "loan_given"
	TxnLoanPayment TransactionType = "loan_payment"
)

// TransactionTypes lists every supported transaction type.
var TransactionTypes = []TransactionType{TxnIncome, TxnExpense, TxnTransfer, TxnLoanGiven, TxnLoanPayment}

// Valid reports whether t is a known type.
func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Leg is the effect of a transaction on one account. Positive amounts flow
// into the account.
type Leg struct {
	AccountID string `json:"account_id"`
	Amount    Money  `json:"amount"`
}

// Transaction is one immutable entry in a user's ledger.
type Transaction struct {
	ID             string          `json:"id"` // "YYYY-MM-NNN", unique per user
	UserID         string          `json:"user_id"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	Type           TransactionType `json:"type"`
	Legs           []Leg           `json:"legs"`
	CategoryID     string          `json:"category_id,omitempty"`
	GoalID         string          `json:"goal_id,omitempty"`
	LoanID         string          `json:"loan_id,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AmountFor returns the net amount the transaction moves into accountID.
func (t Transaction) AmountFor(accountID string) Money {
	total := decimal.Zero
	for _, leg := range t.Legs {
		if leg.AccountID == accountID {
			total = total.Add(leg.Amount)
		}
	}
	return total
}

// Touches reports whether any leg references accountID.
func (t Transaction) Touches(accountID string) bool {
	for _, leg := range t.Legs {
		if leg.AccountID == accountID {
			return true
		}
	}
	return false
}

// Amount returns the signed amount of a single-leg transaction, or the
// positive side of a transfer.
func (t Transaction) Amount() Money {
	if len(t.Legs) == 1 {
		return t.Legs[0].Amount
	}
	for _, leg := range t.Legs {
		if leg.Amount.IsPositive() {
			return leg.Amount
		}
	}
	return decimal.Zero
}

// Matches reports whether the description contains text, case-insensitively.
func (t Transaction) Matches(text string) bool {
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Description), strings.ToLower(text))
}
