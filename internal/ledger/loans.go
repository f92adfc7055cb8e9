package ledger

import (
	"context"
	"time"

	"github.com/myrizq/rizq/internal/id"
	"github.com/myrizq/rizq/internal/model"
)

// CreateLoanParams holds parameters for a new loan.
type CreateLoanParams struct {
	IdempotencyKey      string                 `json:"idempotency_key,omitempty"`
	Direction           model.LoanDirection    `json:"direction"`
	Counterparty        string                 `json:"counterparty"`
	CounterpartyContact string                 `json:"counterparty_contact,omitempty"`
	Purpose             string                 `json:"purpose,omitempty"`
	Principal           model.Money            `json:"principal"`
	Currency            string                 `json:"currency"`
	InterestRate        model.Money            `json:"interest_rate"`
	DurationMonths      int                    `json:"duration_months,omitempty"`
	PaymentFrequency    model.PaymentFrequency `json:"payment_frequency,omitempty"`
	LoanDate            time.Time              `json:"loan_date"`
	DueDate             time.Time              `json:"due_date,omitzero"`
	Notes               string                 `json:"notes,omitempty"`
}

// CreateLoan records a loan taken or given.
func (l *Ledger) CreateLoan(ctx context.Context, p CreateLoanParams) (model.Loan, error) {
	key := p.IdempotencyKey
	p.IdempotencyKey = ""
	hash, err := fingerprint(KindLoanCreated, p)
	if err != nil {
		return model.Loan{}, err
	}

	var out model.Loan
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(key, hash); err != nil || ok {
			out = l.st.loans[entry.entityID]
			return nil, err
		}

		ln := model.Loan{
			ID:                  id.New(),
			UserID:              l.userID,
			Direction:           p.Direction,
			Counterparty:        p.Counterparty,
			CounterpartyContact: p.CounterpartyContact,
			Purpose:             p.Purpose,
			Principal:           p.Principal,
			Currency:            p.Currency,
			InterestRate:        p.InterestRate,
			DurationMonths:      p.DurationMonths,
			PaymentFrequency:    p.PaymentFrequency,
			LoanDate:            p.LoanDate,
			DueDate:             p.DueDate,
			Status:              model.StatusActive,
			Notes:               p.Notes,
			CreatedAt:           l.opts.Now().UTC(),
		}
		if ln.PaymentFrequency == "" {
			ln.PaymentFrequency = model.FrequencyMonthly
		}
		var v validator
		v.loan(ln)
		if err := v.err(); err != nil {
			return nil, err
		}

		applied, err := l.commit(ctx, KindLoanCreated, key, hash, ln)
		if err != nil {
			return nil, err
		}
		out = ln
		return &applied, nil
	})
	return out, err
}

// UpdateLoanParams holds the mutable fields of a loan. Principal, rate and
// direction are fixed once created.
type UpdateLoanParams struct {
	IdempotencyKey      string     `json:"idempotency_key,omitempty"`
	ID                  string     `json:"id"`
	CounterpartyContact *string    `json:"counterparty_contact,omitempty"`
	Purpose             *string    `json:"purpose,omitempty"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	Notes               *string    `json:"notes,omitempty"`
}

// UpdateLoan changes a loan's metadata.
func (l *Ledger) UpdateLoan(ctx context.Context, p UpdateLoanParams) (model.Loan, error) {
	key := p.IdempotencyKey
	p.IdempotencyKey = ""
	hash, err := fingerprint(KindLoanUpdated, p)
	if err != nil {
		return model.Loan{}, err
	}

	var out model.Loan
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(key, hash); err != nil || ok {
			out = l.st.loans[entry.entityID]
			return nil, err
		}

		ln, ok := l.st.loans[p.ID]
		if !ok {
			return nil, &NotFoundError{Kind: "loan", ID: p.ID}
		}
		if ln.Status != model.StatusActive {
			return nil, &ValidationError{Violations: []Violation{{Field: "status", Message: "loan is " + string(ln.Status)}}}
		}
		if p.CounterpartyContact != nil {
			ln.CounterpartyContact = *p.CounterpartyContact
		}
		if p.Purpose != nil {
			ln.Purpose = *p.Purpose
		}
		if p.DueDate != nil {
			ln.DueDate = *p.DueDate
		}
		if p.Notes != nil {
			ln.Notes = *p.Notes
		}
		var v validator
		v.loan(ln)
		if err := v.err(); err != nil {
			return nil, err
		}

		applied, err := l.commit(ctx, KindLoanUpdated, key, hash, ln)
		if err != nil {
			return nil, err
		}
		out = ln
		return &applied, nil
	})
	return out, err
}

// CancelLoan writes off an active loan.
func (l *Ledger) CancelLoan(ctx context.Context, idempotencyKey, loanID string) (model.Loan, error) {
	hash, err := fingerprint(KindLoanUpdated, cancelParams{Kind: "loan", ID: loanID})
	if err != nil {
		return model.Loan{}, err
	}

	var out model.Loan
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(idempotencyKey, hash); err != nil || ok {
			out = l.st.loans[entry.entityID]
			return nil, err
		}

		ln, ok := l.st.loans[loanID]
		if !ok {
			return nil, &NotFoundError{Kind: "loan", ID: loanID}
		}
		if err := checkCancel("loan", ln.Status); err != nil {
			return nil, err
		}
		ln.Status = model.StatusCancelled

		applied, err := l.commit(ctx, KindLoanUpdated, idempotencyKey, hash, ln)
		if err != nil {
			return nil, err
		}
		out = ln
		return &applied, nil
	})
	return out, err
}
