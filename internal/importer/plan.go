package importer

import (
	"strings"

	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/model"
)

// KeyPrefix namespaces bank references used as idempotency keys.
const KeyPrefix = "import:"

// Rule assigns a category to rows whose description contains Match,
// case-insensitively.
type Rule struct {
	Match      string `yaml:"match"`
	CategoryID string `yaml:"category_id"`
}

// Fallback names the categories used when no rule matches.
type Fallback struct {
	Income  string
	Expense string
}

// Plan turns parsed bank rows into transaction commands against accountID.
// The bank reference becomes the idempotency key, so importing the same
// statement twice records each row once. Zero-amount rows are skipped.
func Plan(rows []model.BankTransaction, accountID string, rules []Rule, fallback Fallback) []ledger.TransactionParams {
	var out []ledger.TransactionParams
	for _, row := range rows {
		if row.Amount.IsZero() {
			continue
		}

		typ := row.TransactionType()
		category := fallback.Expense
		if typ == model.TxnIncome {
			category = fallback.Income
		}
		if c := match(rules, row.Description); c != "" {
			category = c
		}

		out = append(out, ledger.TransactionParams{
			IdempotencyKey: KeyPrefix + row.Reference,
			Date:           row.Date,
			Description:    row.Description,
			Type:           typ,
			Legs:           []model.Leg{{AccountID: accountID, Amount: row.Amount}},
			CategoryID:     category,
		})
	}
	return out
}

func match(rules []Rule, desc string) string {
	lower := strings.ToLower(desc)
	for _, r := range rules {
		if r.Match != "" && strings.Contains(lower, strings.ToLower(r.Match)) {
			return r.CategoryID
		}
	}
	return ""
}
