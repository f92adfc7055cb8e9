package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/myrizq/rizq/internal/model"
)

// TransactionParams holds parameters for recording a transaction.
type TransactionParams struct {
	IdempotencyKey string                `json:"idempotency_key,omitempty"`
	Date           time.Time             `json:"date"`
	Description    string                `json:"description"`
	Type           model.TransactionType `json:"type"`
	Legs           []model.Leg           `json:"legs"`
	CategoryID     string                `json:"category_id,omitempty"`
	GoalID         string                `json:"goal_id,omitempty"`
	LoanID         string                `json:"loan_id,omitempty"`
}

// RecordResult is the outcome of Record.
type RecordResult struct {
	Transaction model.Transaction
	// Replayed is set when the idempotency key was already used with the
	// same parameters and nothing new was recorded.
	Replayed bool
}

// RecordTransaction validates p against the current state and appends it.
// A contribution that completes a goal or a payment that clears a loan
// moves it to completed in the same step.
func (l *Ledger) RecordTransaction(ctx context.Context, p TransactionParams) (model.Transaction, error) {
	res, err := l.Record(ctx, p)
	return res.Transaction, err
}

// Record is RecordTransaction, also reporting whether p was a replay.
func (l *Ledger) Record(ctx context.Context, p TransactionParams) (RecordResult, error) {
	key := p.IdempotencyKey
	p.IdempotencyKey = ""
	hash, err := fingerprint(KindTransactionRecorded, p)
	if err != nil {
		return RecordResult{}, err
	}

	var out RecordResult
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(key, hash); err != nil || ok {
			if ok {
				out = RecordResult{Transaction: l.st.txns[l.st.txnIndex[entry.entityID]], Replayed: true}
			}
			return nil, err
		}

		if err := l.checkTransaction(p); err != nil {
			return nil, err
		}

		t := model.Transaction{
			ID:             l.st.nextTxnID(p.Date),
			UserID:         l.userID,
			Date:           p.Date,
			Description:    p.Description,
			Type:           p.Type,
			Legs:           append([]model.Leg(nil), p.Legs...),
			CategoryID:     p.CategoryID,
			GoalID:         p.GoalID,
			LoanID:         p.LoanID,
			IdempotencyKey: key,
			CreatedAt:      l.opts.Now().UTC(),
		}
		applied, err := l.commit(ctx, KindTransactionRecorded, key, hash, t)
		if err != nil {
			return nil, err
		}
		out = RecordResult{Transaction: t}
		return &applied, nil
	})
	return out, err
}

// checkTransaction runs in three passes: shape, references, then state.
// Each pass reports all of its problems; later passes run only when the
// earlier ones are clean.
func (l *Ledger) checkTransaction(p TransactionParams) error {
	var v validator
	v.transaction(p)
	if err := v.err(); err != nil {
		return err
	}

	st := l.st
	accounts := make([]model.Account, len(p.Legs))
	for i, leg := range p.Legs {
		acct, ok := st.accounts[leg.AccountID]
		if !ok {
			return &NotFoundError{Kind: "account", ID: leg.AccountID, Reference: true}
		}
		accounts[i] = acct
	}
	if p.CategoryID != "" {
		if _, ok := st.categories[p.CategoryID]; !ok {
			return &NotFoundError{Kind: "category", ID: p.CategoryID, Reference: true}
		}
	}
	var (
		goal    model.SavingsGoal
		hasGoal bool
		loan    model.Loan
		hasLoan bool
	)
	if p.GoalID != "" {
		if goal, hasGoal = st.goals[p.GoalID]; !hasGoal {
			return &NotFoundError{Kind: "goal", ID: p.GoalID, Reference: true}
		}
	}
	if p.LoanID != "" {
		if loan, hasLoan = st.loans[p.LoanID]; !hasLoan {
			return &NotFoundError{Kind: "loan", ID: p.LoanID, Reference: true}
		}
	}

	for _, acct := range accounts {
		if !acct.Active {
			return &InactiveAccountError{AccountID: acct.ID}
		}
	}

	if p.Type == model.TxnTransfer {
		v.check(accounts[0].Currency == accounts[1].Currency, "legs",
			"cannot transfer between %s and %s accounts", accounts[0].Currency, accounts[1].Currency)
	}

	contribution := decimal.Zero
	if hasGoal {
		v.check(goal.Status == model.StatusActive, "goal_id", "goal is %s", goal.Status)
		for i, leg := range p.Legs {
			if leg.Amount.IsPositive() {
				contribution = contribution.Add(leg.Amount)
				v.check(accounts[i].Currency == goal.Currency, "goal_id",
					"goal is in %s but the contribution is in %s", goal.Currency, accounts[i].Currency)
			}
		}
	}

	amount := p.Legs[0].Amount
	if hasLoan {
		v.check(loan.Status == model.StatusActive, "loan_id", "loan is %s", loan.Status)
		v.check(accounts[0].Currency == loan.Currency, "loan_id",
			"loan is in %s but the account is in %s", loan.Currency, accounts[0].Currency)
		switch p.Type {
		case model.TxnLoanGiven:
			v.check(loan.Direction == model.LoanGiven, "loan_id", "only loans given can be disbursed")
		case model.TxnLoanPayment:
			v.check(amount.Sign() == loan.PaymentSign(), "legs[0].amount", "%s", paymentSignMessage(loan))
		}
	}
	if err := v.err(); err != nil {
		return err
	}

	if hasGoal {
		outstanding := goal.TargetAmount.Sub(st.saved[goal.ID])
		if contribution.GreaterThan(outstanding) {
			return &OverpaymentError{Kind: "goal", ID: goal.ID, Amount: contribution, Outstanding: outstanding}
		}
	}
	if hasLoan && p.Type == model.TxnLoanPayment {
		remaining := st.remaining(loan)
		if amount.Abs().GreaterThan(remaining) {
			return &OverpaymentError{Kind: "loan", ID: loan.ID, Amount: amount.Abs(), Outstanding: remaining}
		}
	}
	return nil
}

func paymentSignMessage(l model.Loan) string {
	if l.Direction == model.LoanGiven {
		return "repayments of a loan given must be positive"
	}
	return "repayments of a loan taken must be negative"
}
