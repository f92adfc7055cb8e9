package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/myrizq/rizq/internal/categories"
	"github.com/myrizq/rizq/internal/importer"
	"github.com/myrizq/rizq/internal/journal"
	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/model"
)

// ImportResult counts what a statement import did.
type ImportResult struct {
	Parsed     int `json:"parsed"`
	Recorded   int `json:"recorded"`
	Duplicates int `json:"duplicates"` // rows already imported earlier
}

// ImportStatement parses a bank statement in format and records each row
// on accountID. Rows already imported are skipped by idempotency key. The
// first rejected row stops the import; earlier rows stay recorded.
func (s *LedgerService) ImportStatement(ctx context.Context, format, accountID string, r io.Reader) (ImportResult, error) {
	var res ImportResult
	parser := s.parsers.Get(format)
	if parser == nil {
		return res, invalid("format", fmt.Errorf("unknown statement format %q (have %v)", format, s.parsers.Formats()))
	}
	rows, err := parser.Parse(r)
	if err != nil {
		return res, invalid("statement", fmt.Errorf("parsing %s statement: %w", format, err))
	}
	res.Parsed = len(rows)

	l, err := s.Ledger(ctx)
	if err != nil {
		return res, err
	}
	plans := importer.Plan(rows, accountID, s.rules, importer.Fallback{
		Income:  categories.IncomeID,
		Expense: categories.OtherID,
	})
	for _, p := range plans {
		rec, err := s.record(ctx, p)
		if err != nil {
			return res, fmt.Errorf("importing %q: %w", p.IdempotencyKey, err)
		}
		if rec.Replayed {
			res.Duplicates++
		} else {
			res.Recorded++
		}
	}
	s.logger.InfoContext(ctx, "statement imported",
		"user_id", l.UserID(), "format", format, "parsed", res.Parsed,
		"recorded", res.Recorded, "duplicates", res.Duplicates)
	return res, nil
}

// ExportTransactions writes the user's transactions as CSV, one row per leg.
func (s *LedgerService) ExportTransactions(ctx context.Context, w io.Writer) error {
	_, snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	return journal.Export(w, snap)
}

// ImportTransactions records the transactions of an export file. The file
// is validated as a whole first.
func (s *LedgerService) ImportTransactions(ctx context.Context, r io.Reader) (int, error) {
	_, snap, err := s.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	n, err := journal.Import(ctx, recorder{s}, journal.AccountMap(snap.AccountMap()), r)
	if errors.Is(err, journal.ErrInvalid) {
		return n, invalid("journal", err)
	}
	return n, err
}

// invalid reports a malformed upload as a validation failure.
func invalid(field string, err error) error {
	return &ledger.ValidationError{Violations: []ledger.Violation{{Field: field, Message: err.Error()}}}
}

// recorder routes journal imports through the service so they are counted
// and observed like any other transaction.
type recorder struct{ s *LedgerService }

func (r recorder) RecordTransaction(ctx context.Context, p ledger.TransactionParams) (model.Transaction, error) {
	return r.s.RecordTransaction(ctx, p)
}
