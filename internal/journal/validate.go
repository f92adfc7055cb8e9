package journal

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/myrizq/rizq/internal/id"
	"github.com/myrizq/rizq/internal/model"
)

// ValidationError describes a single invariant violation in an export file.
type ValidationError struct {
	Invariant   int
	LegID       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.LegID, e.Description)
}

// AccountChecker tests whether an account ID exists in the user's ledger.
type AccountChecker interface {
	Exists(id string) bool
}

// AccountMap adapts a ledger snapshot's account map to AccountChecker.
type AccountMap map[string]model.Account

// Exists reports whether id is a known account.
func (m AccountMap) Exists(id string) bool {
	_, ok := m[id]
	return ok
}

// ValidateRows enforces the structural invariants of an export file:
//
//  1. transfer legs sum to zero
//  2. transfers have two legs, every other type exactly one
//  3. legs reference known accounts
//  4. legs of one transaction agree on date, type and description
//  5. leg IDs parse, are unique and run a, b, ... within a transaction
//  6. amounts are non-zero with at most two decimal places
func ValidateRows(rows []Row, accounts AccountChecker) []ValidationError {
	var errs []ValidationError

	groups := make(map[string][]Row)
	var groupOrder []string
	for _, r := range rows {
		g := r.Group()
		if _, seen := groups[g]; !seen {
			groupOrder = append(groupOrder, g)
		}
		groups[g] = append(groups[g], r)
	}

	for _, g := range groupOrder {
		legs := groups[g]
		first := legs[0]

		want := 1
		if first.Type == model.TxnTransfer {
			want = 2
			total := decimal.Zero
			for _, r := range legs {
				total = total.Add(r.Amount)
			}
			if !total.IsZero() {
				errs = append(errs, ValidationError{
					Invariant:   1,
					LegID:       g,
					Description: fmt.Sprintf("transfer legs sum to %s, want 0.00", total.StringFixed(2)),
				})
			}
		}
		if !first.Type.Valid() {
			errs = append(errs, ValidationError{
				Invariant:   2,
				LegID:       g,
				Description: fmt.Sprintf("unknown transaction type %q", first.Type),
			})
		} else if len(legs) != want {
			errs = append(errs, ValidationError{
				Invariant:   2,
				LegID:       g,
				Description: fmt.Sprintf("%s has %d legs, want %d", first.Type, len(legs), want),
			})
		}

		for _, r := range legs[1:] {
			if !r.Date.Equal(first.Date) || r.Type != first.Type || r.Description != first.Description {
				errs = append(errs, ValidationError{
					Invariant:   4,
					LegID:       r.LegID,
					Description: "leg disagrees with " + first.LegID + " on date, type or description",
				})
			}
		}

		var suffixes []int
		for _, r := range legs {
			suffixes = append(suffixes, id.LegIndex(r.LegID))
		}
		slices.Sort(suffixes)
		for i, s := range suffixes {
			if s != i {
				errs = append(errs, ValidationError{
					Invariant:   5,
					LegID:       g,
					Description: fmt.Sprintf("leg suffixes %v are not contiguous from 'a'", suffixes),
				})
				break
			}
		}
	}

	seen := make(map[string]bool)
	for _, r := range rows {
		if _, _, _, err := id.ParseTxnID(r.LegID); err != nil {
			errs = append(errs, ValidationError{
				Invariant:   5,
				LegID:       r.LegID,
				Description: fmt.Sprintf("invalid leg ID: %v", err),
			})
		}
		if seen[r.LegID] {
			errs = append(errs, ValidationError{
				Invariant:   5,
				LegID:       r.LegID,
				Description: "duplicate leg ID",
			})
		}
		seen[r.LegID] = true

		if !accounts.Exists(r.AccountID) {
			errs = append(errs, ValidationError{
				Invariant:   3,
				LegID:       r.LegID,
				Description: fmt.Sprintf("unknown account %q", r.AccountID),
			})
		}

		if r.Amount.IsZero() {
			errs = append(errs, ValidationError{
				Invariant:   6,
				LegID:       r.LegID,
				Description: "amount is zero",
			})
		} else if !model.HasCents(r.Amount) {
			errs = append(errs, ValidationError{
				Invariant:   6,
				LegID:       r.LegID,
				Description: fmt.Sprintf("amount %s has more than 2 decimal places", r.Amount),
			})
		}
	}

	return errs
}
