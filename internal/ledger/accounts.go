package ledger

import (
	"context"
	"time"

	"github.com/myrizq/rizq/internal/id"
	"github.com/myrizq/rizq/internal/model"
)

// OpeningBalanceDescription labels the transaction created for an account's
// opening balance.
const OpeningBalanceDescription = "Opening balance"

// CreateAccountParams holds parameters for opening an account.
type CreateAccountParams struct {
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
	Name           string               `json:"name"`
	Type           model.AccountType    `json:"type"`
	Currency       string               `json:"currency"`
	Details        model.AccountDetails `json:"details"`

	// OpeningBalance, when non-zero, is recorded as an income (or expense
	// when negative) transaction in the same command.
	OpeningBalance model.Money `json:"opening_balance"`
	OpeningDate    time.Time   `json:"opening_date,omitzero"`
}

// CreateAccount opens an account.
func (l *Ledger) CreateAccount(ctx context.Context, p CreateAccountParams) (model.Account, error) {
	key := p.IdempotencyKey
	p.IdempotencyKey = ""
	hash, err := fingerprint(KindAccountCreated, p)
	if err != nil {
		return model.Account{}, err
	}

	var out model.Account
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(key, hash); err != nil || ok {
			out = l.st.accounts[entry.entityID]
			return nil, err
		}

		var v validator
		v.account(p.Name, p.Type, p.Currency, p.Details)
		v.check(model.HasCents(p.OpeningBalance), "opening_balance", "must have at most 2 decimal places")
		if err := v.err(); err != nil {
			return nil, err
		}

		now := l.opts.Now().UTC()
		acct := model.Account{
			ID:        id.New(),
			UserID:    l.userID,
			Name:      p.Name,
			Type:      p.Type,
			Currency:  p.Currency,
			Active:    true,
			Details:   p.Details,
			CreatedAt: now,
		}
		payload := accountCreated{Account: acct}

		if !p.OpeningBalance.IsZero() {
			date := p.OpeningDate
			if date.IsZero() {
				date = truncateDay(now)
			}
			typ := model.TxnIncome
			if p.OpeningBalance.IsNegative() {
				typ = model.TxnExpense
			}
			payload.Opening = &model.Transaction{
				ID:          l.st.nextTxnID(date),
				UserID:      l.userID,
				Date:        date,
				Description: OpeningBalanceDescription,
				Type:        typ,
				Legs:        []model.Leg{{AccountID: acct.ID, Amount: p.OpeningBalance}},
				CreatedAt:   now,
			}
		}

		applied, err := l.commit(ctx, KindAccountCreated, key, hash, payload)
		if err != nil {
			return nil, err
		}
		out = acct
		return &applied, nil
	})
	return out, err
}

// UpdateAccountParams holds the mutable fields of an account. Nil fields
// are left unchanged. Type and currency cannot change.
type UpdateAccountParams struct {
	IdempotencyKey string                `json:"idempotency_key,omitempty"`
	ID             string                `json:"id"`
	Name           *string               `json:"name,omitempty"`
	Active         *bool                 `json:"active,omitempty"`
	Details        *model.AccountDetails `json:"details,omitempty"`
}

// UpdateAccount renames, (de)activates or replaces the details of an
// account. Details are re-validated against the account's type.
func (l *Ledger) UpdateAccount(ctx context.Context, p UpdateAccountParams) (model.Account, error) {
	key := p.IdempotencyKey
	p.IdempotencyKey = ""
	hash, err := fingerprint(KindAccountUpdated, p)
	if err != nil {
		return model.Account{}, err
	}

	var out model.Account
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(key, hash); err != nil || ok {
			out = l.st.accounts[entry.entityID]
			return nil, err
		}

		acct, ok := l.st.accounts[p.ID]
		if !ok {
			return nil, &NotFoundError{Kind: "account", ID: p.ID}
		}
		if p.Name != nil {
			acct.Name = *p.Name
		}
		if p.Active != nil {
			acct.Active = *p.Active
		}
		if p.Details != nil {
			acct.Details = *p.Details
		}

		var v validator
		v.account(acct.Name, acct.Type, acct.Currency, acct.Details)
		if err := v.err(); err != nil {
			return nil, err
		}

		applied, err := l.commit(ctx, KindAccountUpdated, key, hash, acct)
		if err != nil {
			return nil, err
		}
		out = acct
		return &applied, nil
	})
	return out, err
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
