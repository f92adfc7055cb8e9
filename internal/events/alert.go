// Package events publishes alerts raised by ledger commands.
package events

import (
	"encoding/json"
	"time"
)

// Kind names an alert and doubles as its AMQP routing key.
type Kind string

const (
	KindBudgetAlert   Kind = "budget_alert"
	KindGoalCompleted Kind = "goal_completed"
	KindLoanCompleted Kind = "loan_completed"
	KindLoanOverdue   Kind = "loan_overdue"
)

// Alert is a notification about one entity.
type Alert struct {
	Kind      Kind              `json:"kind"`
	UserID    string            `json:"user_id"`
	EntityID  string            `json:"entity_id"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// ToJSON converts the alert to JSON bytes.
func (a Alert) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}

// AlertFromJSON decodes an alert.
func AlertFromJSON(data []byte) (Alert, error) {
	var a Alert
	if err := json.Unmarshal(data, &a); err != nil {
		return Alert{}, err
	}
	return a, nil
}
