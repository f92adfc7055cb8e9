package model

import "time"

// PeriodType determines how a budget's active window repeats.
type PeriodType string

const (
	PeriodMonthly PeriodType = "monthly"
	PeriodYearly  PeriodType = "yearly"
	PeriodCustom  PeriodType = "custom"
)

// Valid reports whether p is a known period type.
func (p PeriodType) Valid() bool {
	return p == PeriodMonthly || p == PeriodYearly || p == PeriodCustom
}

// BudgetScope narrows which expenses count against a budget. Empty lists
// match everything.
type BudgetScope struct {
	CategoryIDs []string `json:"category_ids,omitempty"`
	AccountIDs  []string `json:"account_ids,omitempty"`
}

// Budget caps spending over a repeating or custom window. Spent amount is
// derived from the ledger.
type Budget struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Name           string      `json:"name"`
	Period         PeriodType  `json:"period"`
	Amount         Money       `json:"amount"`
	Currency       string      `json:"currency"`
	StartDate      time.Time   `json:"start_date"`
	EndDate        time.Time   `json:"end_date,omitzero"` // exclusive; zero = open-ended
	AlertThreshold Money       `json:"alert_threshold"`   // percent of Amount
	Scope          BudgetScope `json:"scope"`
	Status         Status      `json:"status"`
	Notes          string      `json:"notes,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Covers reports whether an expense leg on accountID with categoryID falls
// within the budget's scope.
func (b Budget) Covers(accountID, categoryID string) bool {
	return containsOrEmpty(b.Scope.AccountIDs, accountID) && containsOrEmpty(b.Scope.CategoryIDs, categoryID)
}

func containsOrEmpty(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
