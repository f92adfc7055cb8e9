// Package id generates identifiers for ledger entities and transactions.
//
// Entities (accounts, budgets, goals, loans, categories) get random UUIDs.
// Transactions get a per-user, per-month sequence like "2024-06-007" so that
// exports sort chronologically; each leg of a transaction appends a letter
// ("2024-06-007a", "2024-06-007b").
package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh entity ID.
func New() string {
	return uuid.NewString()
}

// FormatTxnID returns a transaction ID like "2024-06-001".
func FormatTxnID(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// FormatLegID returns a leg ID like "2024-06-001a" (leg 0='a', 1='b', etc.).
func FormatLegID(txnID string, leg int) string {
	return txnID + string(rune('a'+leg))
}

// ParseTxnID parses "2024-06-001" (with or without a leg suffix) into year,
// month and sequence.
func ParseTxnID(s string) (year, month, seq int, err error) {
	base := TxnGroup(s)

	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid transaction ID format: %q", s)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in transaction ID %q: %w", s, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("invalid month in transaction ID %q", s)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in transaction ID %q: %w", s, err)
	}

	return year, month, seq, nil
}

// TxnGroup strips the leg suffix from a leg ID.
// "2024-06-001a" -> "2024-06-001"
func TxnGroup(legID string) string {
	i := len(legID)
	for i > 0 && legID[i-1] >= 'a' && legID[i-1] <= 'z' {
		i--
	}
	return legID[:i]
}

// LegIndex returns the zero-based leg number encoded in a leg ID, or 0 when
// the ID carries no suffix.
func LegIndex(legID string) int {
	group := TxnGroup(legID)
	if len(group) == len(legID) {
		return 0
	}
	return int(legID[len(group)] - 'a')
}
