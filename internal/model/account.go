package model

import "time"

// AccountType is the subtype of an account; it selects which Details
// variant is valid.
type AccountType string

const (
	AccountTypeBank   AccountType = "bank"
	AccountTypeCard   AccountType = "card"
	AccountTypeSaving AccountType = "saving"
	AccountTypeWallet AccountType = "wallet"
	AccountTypeCash   AccountType = "cash"
)

// AccountTypes lists every supported subtype.
var AccountTypes = []AccountType{
	AccountTypeBank,
	AccountTypeCard,
	AccountTypeSaving,
	AccountTypeWallet,
	AccountTypeCash,
}

// Valid reports whether t is a known subtype.
func (t AccountType) Valid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// CardNetwork identifies a payment card scheme.
type CardNetwork string

const (
	CardNetworkVisa       CardNetwork = "visa"
	CardNetworkAmex       CardNetwork = "amex"
	CardNetworkMastercard CardNetwork = "mastercard"
	CardNetworkDiscover   CardNetwork = "discover"
	CardNetworkOther      CardNetwork = "other"
)

// Account is a place money is held. Its balance is never stored; it is
// derived from the transaction log.
type Account struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Name      string         `json:"name"`
	Type      AccountType    `json:"type"`
	Currency  string         `json:"currency"`
	Active    bool           `json:"active"`
	Details   AccountDetails `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

// AccountDetails is a tagged union keyed by AccountType. Exactly one
// variant may be set and it must match the account's type; saving, wallet
// and cash accounts share the Holding variant, which is optional.
type AccountDetails struct {
	Bank    *BankDetails    `json:"bank,omitempty"`
	Card    *CardDetails    `json:"card,omitempty"`
	Holding *HoldingDetails `json:"holding,omitempty"`
}

// BankDetails holds the identifiers of a bank account.
type BankDetails struct {
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
	SWIFTCode     string `json:"swift_code,omitempty"`
}

// CardDetails holds the terms of a credit or debit card.
type CardDetails struct {
	Network         CardNetwork `json:"network"`
	Last4           string      `json:"last4"`
	CreditLimit     Money       `json:"credit_limit"`
	BillingCycleDay int         `json:"billing_cycle_day"`
}

// HoldingDetails describes where a saving, wallet or cash balance lives.
type HoldingDetails struct {
	Provider string `json:"provider,omitempty"`
}

// Variants counts how many variants are populated.
func (d AccountDetails) Variants() int {
	n := 0
	if d.Bank != nil {
		n++
	}
	if d.Card != nil {
		n++
	}
	if d.Holding != nil {
		n++
	}
	return n
}

// IsHolding reports whether t uses the Holding details variant.
func (t AccountType) IsHolding() bool {
	return t == AccountTypeSaving || t == AccountTypeWallet || t == AccountTypeCash
}
