// Package aggregate computes dashboard summaries and per-entity reports
// from a ledger snapshot. Amounts in other currencies are converted to the
// session's base currency; a failed conversion is reported against the
// entity it affects and never becomes a silent zero.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/myrizq/rizq/internal/cache"
	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/metrics"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/rates"
	"github.com/myrizq/rizq/internal/session"
)

// RecentCount is how many transactions a summary lists.
const RecentCount = 5

// UncategorizedID keys expenses without a category in the breakdown.
const UncategorizedID = "uncategorized"

// EntityError ties a failure to the entity it affected.
type EntityError struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Summary is the dashboard view of one user's ledger.
type Summary struct {
	UserID       string    `json:"user_id"`
	Version      uint64    `json:"version"`
	AsOf         time.Time `json:"as_of"`
	BaseCurrency string    `json:"base_currency"`

	TotalBalance   model.Money `json:"total_balance"`
	MonthlyIncome  model.Money `json:"monthly_income"`
	MonthlyExpense model.Money `json:"monthly_expense"`
	NetSavings     model.Money `json:"net_savings"`

	// Complete is false when any conversion failed; the totals then leave
	// out the affected amounts, which are listed in Errors.
	Complete bool          `json:"complete"`
	Errors   []EntityError `json:"errors,omitempty"`

	Accounts   []AccountReport     `json:"accounts"`
	Budgets    []BudgetReport      `json:"budgets"`
	Goals      []GoalReport        `json:"goals"`
	LoansTaken []LoanReport        `json:"loans_taken"`
	LoansGiven []LoanReport        `json:"loans_given"`
	Categories []CategoryShare     `json:"categories"`
	Recent     []model.Transaction `json:"recent"`
}

// Options configure an Engine.
type Options struct {
	Rates       rates.Provider
	CacheSize   int
	CacheTTL    time.Duration
	Concurrency int // parallel rate lookups
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Engine builds summaries and caches them per ledger version.
type Engine struct {
	rates       rates.Provider
	cache       *cache.LRU[*Summary]
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates an Engine. Without a rate provider only same-currency
// amounts can be totalled.
func New(opts Options) *Engine {
	if opts.Rates == nil {
		opts.Rates = rates.NewStatic("", nil)
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		rates:       opts.Rates,
		cache:       cache.New[*Summary](opts.CacheSize, opts.CacheTTL),
		concurrency: opts.Concurrency,
		metrics:     opts.Metrics,
		logger:      opts.Logger.With("component", "aggregate"),
	}
}

func cacheKey(s session.Session, snap *ledger.Snapshot) string {
	return fmt.Sprintf("%s|%d|%s|%s", snap.UserID, snap.Version, s.Today().Format(time.DateOnly), s.BaseCurrency)
}

// Summary returns the dashboard for snap as seen by s. Identical concurrent
// requests share one computation; complete results are reused until the
// ledger changes or the day rolls over.
func (e *Engine) Summary(ctx context.Context, s session.Session, snap *ledger.Snapshot) (*Summary, error) {
	sum, hit, err := e.cache.GetOrLoadWhen(cacheKey(s, snap), func() (*Summary, error) {
		return e.compute(ctx, s, snap)
	}, func(sum *Summary) bool { return sum.Complete })
	e.metrics.CacheLookup(hit)
	return sum, err
}

// rateTable holds one lookup result per currency.
type rateTable map[string]rateResult

type rateResult struct {
	rate decimal.Decimal
	err  error
}

func (t rateTable) convert(amount model.Money, from, base string) (model.Money, error) {
	if from == base {
		return amount, nil
	}
	r := t[from]
	if r.err != nil {
		return decimal.Zero, r.err
	}
	return amount.Mul(r.rate).Round(2), nil
}

// lookupRates fetches every needed rate in parallel. Failures are stored
// per currency rather than aborting the group.
func (e *Engine) lookupRates(ctx context.Context, currencies map[string]bool, base string) rateTable {
	var (
		mu    sync.Mutex
		table = make(rateTable, len(currencies))
		g     errgroup.Group
	)
	g.SetLimit(e.concurrency)
	for cur := range currencies {
		if cur == base {
			continue
		}
		g.Go(func() error {
			r, err := e.rates.Rate(ctx, cur, base)
			var res rateResult
			if err != nil {
				res.err = &rates.ConversionError{From: cur, To: base, Err: err}
			} else {
				res.rate = r
			}
			mu.Lock()
			table[cur] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return table
}

func (e *Engine) compute(ctx context.Context, s session.Session, snap *ledger.Snapshot) (*Summary, error) {
	start := time.Now()
	defer func() { e.metrics.Aggregation(time.Since(start)) }()

	today := s.Today()
	monthStart := s.MonthStart()
	monthEnd := monthStart.AddDate(0, 1, 0)
	base := s.BaseCurrency
	txns := snap.Transactions()
	accounts := snap.AccountMap()

	sum := &Summary{
		UserID:         snap.UserID,
		Version:        snap.Version,
		AsOf:           today,
		BaseCurrency:   base,
		TotalBalance:   decimal.Zero,
		MonthlyIncome:  decimal.Zero,
		MonthlyExpense: decimal.Zero,
		Complete:       true,
		Accounts:       []AccountReport{},
		Budgets:        []BudgetReport{},
		Goals:          []GoalReport{},
		LoansTaken:     []LoanReport{},
		LoansGiven:     []LoanReport{},
		Categories:     []CategoryShare{},
	}

	currencies := make(map[string]bool)
	for _, a := range accounts {
		currencies[a.Currency] = true
	}
	table := e.lookupRates(ctx, currencies, base)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fail := func(kind, id string, err error) {
		sum.Complete = false
		sum.Errors = append(sum.Errors, EntityError{Kind: kind, ID: id, Message: err.Error()})
	}

	balances := make(map[string]model.Money)
	for _, t := range txns {
		for _, leg := range t.Legs {
			balances[leg.AccountID] = balances[leg.AccountID].Add(leg.Amount)
		}
	}
	for _, a := range snap.Accounts() {
		r := AccountReport{Account: a, Balance: balances[a.ID]}
		r.CreditUtilisation = creditUtilisation(a, r.Balance)
		converted, err := table.convert(r.Balance, a.Currency, base)
		if err != nil {
			r.Error = err.Error()
			if a.Active {
				fail("account", a.ID, err)
			}
		} else {
			r.Converted = &converted
			if a.Active {
				sum.TotalBalance = sum.TotalBalance.Add(converted)
			}
		}
		sum.Accounts = append(sum.Accounts, r)
	}

	// Monthly flows are summed per currency first so each currency is
	// converted once.
	income := make(map[string]model.Money)
	expense := make(map[string]model.Money)
	byCategory := make(map[string]map[string]model.Money)
	for _, t := range txns {
		if t.Date.Before(monthStart) || !t.Date.Before(monthEnd) {
			continue
		}
		if t.Type != model.TxnIncome && t.Type != model.TxnExpense {
			continue
		}
		for _, leg := range t.Legs {
			cur := accounts[leg.AccountID].Currency
			switch {
			case t.Type == model.TxnIncome && leg.Amount.IsPositive():
				income[cur] = income[cur].Add(leg.Amount)
			case t.Type == model.TxnExpense && leg.Amount.IsNegative():
				amt := leg.Amount.Abs()
				expense[cur] = expense[cur].Add(amt)
				catID := t.CategoryID
				if catID == "" {
					catID = UncategorizedID
				}
				if byCategory[catID] == nil {
					byCategory[catID] = make(map[string]model.Money)
				}
				byCategory[catID][cur] = byCategory[catID][cur].Add(amt)
			}
		}
	}
	for _, cur := range sortedKeys(income) {
		v, err := table.convert(income[cur], cur, base)
		if err != nil {
			fail("monthly_income", cur, err)
			continue
		}
		sum.MonthlyIncome = sum.MonthlyIncome.Add(v)
	}
	for _, cur := range sortedKeys(expense) {
		v, err := table.convert(expense[cur], cur, base)
		if err != nil {
			fail("monthly_expense", cur, err)
			continue
		}
		sum.MonthlyExpense = sum.MonthlyExpense.Add(v)
	}
	sum.NetSavings = sum.MonthlyIncome.Sub(sum.MonthlyExpense)
	sum.Categories = e.breakdown(snap, byCategory, table, base, sum.MonthlyExpense)

	for _, b := range snap.Budgets() {
		sum.Budgets = append(sum.Budgets, ReportBudget(b, txns, accounts, today))
	}
	for _, g := range snap.Goals() {
		sum.Goals = append(sum.Goals, ReportGoal(g, txns, today))
	}
	for _, l := range snap.Loans() {
		r := ReportLoan(l, txns, today)
		if l.Direction == model.LoanGiven {
			sum.LoansGiven = append(sum.LoansGiven, r)
		} else {
			sum.LoansTaken = append(sum.LoansTaken, r)
		}
	}
	sum.Recent = snap.Recent(RecentCount)

	if !sum.Complete {
		e.logger.Warn("summary incomplete", "user", snap.UserID, "errors", len(sum.Errors))
	}
	return sum, nil
}

func (e *Engine) breakdown(snap *ledger.Snapshot, byCategory map[string]map[string]model.Money, table rateTable, base string, total model.Money) []CategoryShare {
	out := []CategoryShare{}
	for catID, perCurrency := range byCategory {
		amount := decimal.Zero
		for cur, v := range perCurrency {
			converted, err := table.convert(v, cur, base)
			if err != nil {
				continue // already reported against monthly_expense
			}
			amount = amount.Add(converted)
		}
		cat, err := snap.Category(catID)
		if err != nil {
			cat = model.Category{ID: catID, Name: "Uncategorized"}
		}
		out = append(out, CategoryShare{
			Category: cat,
			Amount:   amount,
			Share:    model.Percent(amount, total).Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category.Name < out[j].Category.Name
	})
	return out
}

// Account reports a single account. A conversion failure is returned as a
// *rates.ConversionError alongside the unconverted report.
func (e *Engine) Account(ctx context.Context, s session.Session, snap *ledger.Snapshot, accountID string) (AccountReport, error) {
	a, err := snap.Account(accountID)
	if err != nil {
		return AccountReport{}, err
	}
	var bal model.Money
	for _, t := range snap.Transactions() {
		bal = bal.Add(t.AmountFor(a.ID))
	}
	r := AccountReport{Account: a, Balance: bal, CreditUtilisation: creditUtilisation(a, bal)}
	converted, err := rates.Convert(ctx, e.rates, bal, a.Currency, s.BaseCurrency)
	if err != nil {
		r.Error = err.Error()
		return r, err
	}
	r.Converted = &converted
	return r, nil
}

// Budget reports a single budget.
func (e *Engine) Budget(s session.Session, snap *ledger.Snapshot, budgetID string) (BudgetReport, error) {
	b, err := snap.Budget(budgetID)
	if err != nil {
		return BudgetReport{}, err
	}
	return ReportBudget(b, snap.Transactions(), snap.AccountMap(), s.Today()), nil
}

// Goal reports a single goal.
func (e *Engine) Goal(s session.Session, snap *ledger.Snapshot, goalID string) (GoalReport, error) {
	g, err := snap.Goal(goalID)
	if err != nil {
		return GoalReport{}, err
	}
	return ReportGoal(g, snap.Transactions(), s.Today()), nil
}

// Loan reports a single loan.
func (e *Engine) Loan(s session.Session, snap *ledger.Snapshot, loanID string) (LoanReport, error) {
	l, err := snap.Loan(loanID)
	if err != nil {
		return LoanReport{}, err
	}
	return ReportLoan(l, snap.Transactions(), s.Today()), nil
}

func sortedKeys(m map[string]model.Money) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
