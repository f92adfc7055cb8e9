package model

// Status is the lifecycle state of a budget, goal or loan.
//
//	active ─┬─> completed   (automatic: goal saved ≥ target, loan remaining = 0)
//	        └─> cancelled   (explicit user action)
//
// completed and cancelled are terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	return s == StatusActive && (next == StatusCompleted || next == StatusCancelled)
}
