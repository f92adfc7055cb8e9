package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/myrizq/rizq/internal/model"
)

// Sentinels for errors.Is. Every typed error below matches exactly one of
// them, except NotFoundError for references which also matches
// ErrValidation.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrInactiveAccount     = errors.New("account is inactive")
	ErrOverpayment         = errors.New("overpayment")
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different payload")
)

// Violation describes a single broken rule.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// ValidationError reports every rule a command broke.
type ValidationError struct {
	Violations []Violation
	cause      error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || (e.cause != nil && target == e.cause)
}

func conflictError(key string) error {
	return &ValidationError{
		Violations: []Violation{{Field: "idempotency_key", Message: fmt.Sprintf("%q was already used with a different payload", key)}},
		cause:      ErrIdempotencyConflict,
	}
}

// NotFoundError reports an unknown entity. When Reference is set the entity
// was named inside a command, which makes the command itself invalid.
type NotFoundError struct {
	Kind      string
	ID        string
	Reference bool
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || (e.Reference && target == ErrValidation)
}

// InactiveAccountError reports a transaction leg on a deactivated account.
type InactiveAccountError struct {
	AccountID string
}

func (e *InactiveAccountError) Error() string {
	return fmt.Sprintf("account %q is inactive", e.AccountID)
}

func (e *InactiveAccountError) Is(target error) bool {
	return target == ErrInactiveAccount
}

// OverpaymentError reports a loan payment larger than the remaining balance
// or a goal contribution that would exceed the target.
type OverpaymentError struct {
	Kind        string // "loan" or "goal"
	ID          string
	Amount      model.Money
	Outstanding model.Money
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("%s %q: amount %s exceeds outstanding %s",
		e.Kind, e.ID, e.Amount.StringFixed(2), e.Outstanding.StringFixed(2))
}

func (e *OverpaymentError) Is(target error) bool {
	return target == ErrOverpayment
}
