package ledger

import (
	"sort"
	"time"

	"github.com/myrizq/rizq/internal/model"
)

// Page size bounds for ListTransactions.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TransactionFilter narrows ListTransactions. Zero fields match everything;
// From and To are inclusive calendar bounds.
type TransactionFilter struct {
	From       time.Time
	To         time.Time
	Types      []model.TransactionType
	Text       string
	AccountID  string
	CategoryID string
	Page       int // 1-based
	PageSize   int
}

// TransactionPage is one page of a filtered, newest-first listing.
type TransactionPage struct {
	Items    []model.Transaction `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

func (f TransactionFilter) match(t model.Transaction) bool {
	if !f.From.IsZero() && dayOf(t.Date).Before(dayOf(f.From)) {
		return false
	}
	if !f.To.IsZero() && dayOf(t.Date).After(dayOf(f.To)) {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, typ := range f.Types {
			if t.Type == typ {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.AccountID != "" && !t.Touches(f.AccountID) {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	return t.Matches(f.Text)
}

// dayOf drops the time of day, keeping t's location.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ListTransactions returns the matching transactions newest first. Ties on
// date are broken by recording order, latest first.
func (s *Snapshot) ListTransactions(f TransactionFilter) TransactionPage {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}

	type hit struct {
		pos int
		txn model.Transaction
	}
	var hits []hit
	for i, t := range s.txns {
		if f.match(t) {
			hits = append(hits, hit{pos: i, txn: t})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].txn.Date.Equal(hits[j].txn.Date) {
			return hits[i].txn.Date.After(hits[j].txn.Date)
		}
		return hits[i].pos > hits[j].pos
	})

	page := TransactionPage{Total: len(hits), Page: f.Page, PageSize: f.PageSize, Items: []model.Transaction{}}
	start := (f.Page - 1) * f.PageSize
	if start >= len(hits) {
		return page
	}
	end := min(start+f.PageSize, len(hits))
	for _, h := range hits[start:end] {
		page.Items = append(page.Items, h.txn)
	}
	return page
}

// Recent returns the n newest transactions.
func (s *Snapshot) Recent(n int) []model.Transaction {
	return s.ListTransactions(TransactionFilter{PageSize: n}).Items
}
