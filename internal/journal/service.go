package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/model"
)

// KeyPrefix namespaces the idempotency keys of imported transactions, so
// importing the same file twice records each transaction once.
const KeyPrefix = "journal:"

// ErrInvalid matches errors about the file itself, as opposed to the ledger
// rejecting a transaction.
var ErrInvalid = errors.New("invalid journal")

// Recorder is the part of a ledger Import writes through.
type Recorder interface {
	RecordTransaction(ctx context.Context, p ledger.TransactionParams) (model.Transaction, error)
}

// Export writes every transaction in snap, oldest first.
func Export(w io.Writer, snap *ledger.Snapshot) error {
	if err := WriteTransactions(w, snap.Transactions()); err != nil {
		return fmt.Errorf("exporting transactions for %s: %w", snap.UserID, err)
	}
	return nil
}

// Import reads an export file, validates all of it, then records each
// transaction in date order. Nothing is recorded when validation fails.
// It returns the number of transactions submitted.
func Import(ctx context.Context, rec Recorder, accounts AccountChecker, r io.Reader) (int, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if verrs := ValidateRows(rows, accounts); len(verrs) > 0 {
		joined := make([]error, len(verrs))
		for i, ve := range verrs {
			joined[i] = ve
		}
		return 0, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(joined...))
	}

	txns := Transactions(rows)
	slices.SortStableFunc(txns, func(a, b model.Transaction) int {
		return a.Date.Compare(b.Date)
	})

	for i, t := range txns {
		_, err := rec.RecordTransaction(ctx, ledger.TransactionParams{
			IdempotencyKey: KeyPrefix + t.ID,
			Date:           t.Date,
			Description:    t.Description,
			Type:           t.Type,
			Legs:           t.Legs,
			CategoryID:     t.CategoryID,
			GoalID:         t.GoalID,
			LoanID:         t.LoanID,
		})
		if err != nil {
			return i, fmt.Errorf("recording %s: %w", t.ID, err)
		}
	}
	return len(txns), nil
}
