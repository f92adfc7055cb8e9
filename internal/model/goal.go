package model

import "time"

// SavingsGoal is a target amount to save by a date. Saved amount is the sum
// of contributions recorded in the ledger.
type SavingsGoal struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	TargetAmount Money     `json:"target_amount"`
	Currency     string    `json:"currency"`
	StartDate    time.Time `json:"start_date"`
	TargetDate   time.Time `json:"target_date"`
	Status       Status    `json:"status"`
	Priority     int       `json:"priority"` // 1 (highest) to 10
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
