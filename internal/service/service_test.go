package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrizq/rizq/internal/activity"
	"github.com/myrizq/rizq/internal/categories"
	"github.com/myrizq/rizq/internal/events"
	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/metrics"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/session"
	"github.com/myrizq/rizq/internal/storage/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *LedgerService
	alerts   *events.Memory
	metrics  *metrics.Metrics
	activity *activity.Log
	ctx      context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		alerts:   &events.Memory{},
		metrics:  metrics.New(),
		activity: activity.Open(filepath.Join(t.TempDir(), "activity.csv")),
	}
	f.svc = New(Options{
		Log:          memory.New(),
		Catalog:      categories.Defaults(),
		BaseCurrency: "USD",
		Publisher:    f.alerts,
		Activity:     f.activity,
		Metrics:      f.metrics,
		Now:          func() time.Time { return now },
	})
	f.ctx = session.WithContext(context.Background(), session.Session{UserID: "u1"})
	return f
}

func (f *fixture) account(t *testing.T, opening string) model.Account {
	t.Helper()
	acct, err := f.svc.CreateAccount(f.ctx, ledger.CreateAccountParams{
		Name: "Wallet", Type: model.AccountTypeWallet, Currency: "USD",
		OpeningBalance: dec(opening), OpeningDate: date(2024, 6, 1),
	})
	require.NoError(t, err)
	return acct
}

func (f *fixture) expense(t *testing.T, acct, amount string) model.Transaction {
	t.Helper()
	txn, err := f.svc.RecordTransaction(f.ctx, ledger.TransactionParams{
		Date:        date(2024, 6, 10),
		Description: "Groceries",
		Type:        model.TxnExpense,
		Legs:        []model.Leg{{AccountID: acct, Amount: dec(amount)}},
		CategoryID:  "food-dining",
	})
	require.NoError(t, err)
	return txn
}

func (f *fixture) scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	f.metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCommandsNeedASession(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateAccount(context.Background(), ledger.CreateAccountParams{Name: "x"})
	assert.ErrorIs(t, err, session.ErrMissingUser)

	_, err = f.svc.Summary(session.WithContext(context.Background(), session.Session{}))
	assert.ErrorIs(t, err, session.ErrMissingUser)
}

func TestSessionDefaults(t *testing.T) {
	f := newFixture(t)
	sess, err := f.svc.Session(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", sess.BaseCurrency)
	assert.Equal(t, now, sess.AsOf)
}

func TestBudgetAlertFiresOnceWhenCrossed(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, "1000")

	budget, err := f.svc.CreateBudget(f.ctx, ledger.CreateBudgetParams{
		Name: "Groceries", Period: model.PeriodMonthly, Amount: dec("500"), Currency: "USD",
		StartDate: date(2024, 6, 1), Scope: model.BudgetScope{CategoryIDs: []string{"food-dining"}},
	})
	require.NoError(t, err)

	f.expense(t, acct.ID, "-300")
	assert.Empty(t, f.alerts.Alerts(), "60% is under the 80% threshold")

	txn := f.expense(t, acct.ID, "-150")
	alerts := f.alerts.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, events.KindBudgetAlert, alerts[0].Kind)
	assert.Equal(t, budget.ID, alerts[0].EntityID)
	assert.Equal(t, "450.00", alerts[0].Data["spent"])
	assert.Equal(t, txn.ID, alerts[0].Data["txn_id"])
	assert.Equal(t, now, alerts[0].Timestamp)

	f.expense(t, acct.ID, "-10")
	assert.Len(t, f.alerts.Alerts(), 1, "already alerting")
}

func TestBudgetAlertIgnoresOtherCategories(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, "1000")
	_, err := f.svc.CreateBudget(f.ctx, ledger.CreateBudgetParams{
		Name: "Housing", Period: model.PeriodMonthly, Amount: dec("100"), Currency: "USD",
		StartDate: date(2024, 6, 1), Scope: model.BudgetScope{CategoryIDs: []string{"housing"}},
	})
	require.NoError(t, err)

	f.expense(t, acct.ID, "-300")
	assert.Empty(t, f.alerts.Alerts())
}

func TestCompletionAlerts(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, "1000")

	goal, err := f.svc.CreateGoal(f.ctx, ledger.CreateGoalParams{
		Name: "Vacation", TargetAmount: dec("100"), Currency: "USD",
		StartDate: date(2024, 1, 1), TargetDate: date(2024, 12, 31),
	})
	require.NoError(t, err)
	loan, err := f.svc.CreateLoan(f.ctx, ledger.CreateLoanParams{
		Direction: model.LoanTaken, Counterparty: "Sam", Principal: dec("200"), Currency: "USD",
		LoanDate: date(2024, 5, 1), DueDate: date(2024, 12, 1),
	})
	require.NoError(t, err)

	_, err = f.svc.RecordTransaction(f.ctx, ledger.TransactionParams{
		Date: date(2024, 6, 12), Description: "Bonus", Type: model.TxnIncome,
		Legs: []model.Leg{{AccountID: acct.ID, Amount: dec("100")}}, GoalID: goal.ID,
	})
	require.NoError(t, err)
	_, err = f.svc.RecordTransaction(f.ctx, ledger.TransactionParams{
		Date: date(2024, 6, 13), Description: "Repay Sam", Type: model.TxnLoanPayment,
		Legs: []model.Leg{{AccountID: acct.ID, Amount: dec("-200")}}, LoanID: loan.ID,
	})
	require.NoError(t, err)

	alerts := f.alerts.Alerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, events.KindGoalCompleted, alerts[0].Kind)
	assert.Equal(t, goal.ID, alerts[0].EntityID)
	assert.Equal(t, events.KindLoanCompleted, alerts[1].Kind)
	assert.Equal(t, loan.ID, alerts[1].EntityID)
}

func TestPublishFailureDoesNotFailCommand(t *testing.T) {
	f := newFixture(t)
	f.alerts.Err = errors.New("broker down")
	acct := f.account(t, "1000")
	_, err := f.svc.CreateBudget(f.ctx, ledger.CreateBudgetParams{
		Name: "All", Period: model.PeriodMonthly, Amount: dec("100"), Currency: "USD", StartDate: date(2024, 6, 1),
	})
	require.NoError(t, err)

	f.expense(t, acct.ID, "-90")
	assert.Contains(t, f.scrape(t), `rizq_alerts_total{kind="budget_alert"} 1`)
}

func TestActivityLog(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, "50")
	f.expense(t, acct.ID, "-12.50")

	entries, err := f.svc.Activity(f.ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.KindAccountCreated, entries[0].Action)
	assert.Equal(t, acct.ID, entries[0].EntityID)
	assert.Equal(t, ledger.KindTransactionRecorded, entries[1].Action)
	assert.Equal(t, "expense -12.50 Groceries", entries[1].Details)

	other := session.WithContext(context.Background(), session.Session{UserID: "u2"})
	entries, err = f.svc.Activity(other)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMetricsCountOutcomes(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, "50")
	f.expense(t, acct.ID, "-5")

	_, err := f.svc.RecordTransaction(f.ctx, ledger.TransactionParams{
		Date: date(2024, 6, 10), Description: "x", Type: model.TxnExpense,
		Legs: []model.Leg{{AccountID: "missing", Amount: dec("-5")}},
	})
	require.ErrorIs(t, err, ledger.ErrNotFound)

	body := f.scrape(t)
	assert.Contains(t, body, `rizq_commands_total{command="record_transaction",outcome="ok"} 1`)
	assert.Contains(t, body, `rizq_commands_total{command="record_transaction",outcome="not_found"} 1`)
	assert.Contains(t, body, `rizq_commands_total{command="create_account",outcome="ok"} 1`)
	assert.Contains(t, body, `rizq_transactions_total{type="expense"} 1`)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "invalid", Outcome(ledger.ErrValidation))
	assert.Equal(t, "overpayment", Outcome(ledger.ErrOverpayment))
	assert.Equal(t, "unauthenticated", Outcome(session.ErrMissingUser))
	assert.Equal(t, "error", Outcome(errors.New("disk full")))
}

func TestSummaryAndReports(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, "1000")
	f.expense(t, acct.ID, "-200")
	_, err := f.svc.CreateBudget(f.ctx, ledger.CreateBudgetParams{
		Name: "Food", Period: model.PeriodMonthly, Amount: dec("400"), Currency: "USD", StartDate: date(2024, 6, 1),
	})
	require.NoError(t, err)

	sum, err := f.svc.Summary(f.ctx)
	require.NoError(t, err)
	assert.True(t, dec("800").Equal(sum.TotalBalance))
	assert.True(t, sum.Complete)

	_, err = f.svc.Summary(f.ctx)
	require.NoError(t, err)
	assert.Contains(t, f.scrape(t), `rizq_summary_cache_lookups_total{result="hit"} 1`)

	budgets, err := f.svc.Budgets(f.ctx)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.EqualValues(t, 50, budgets[0].DisplayPercent)

	report, err := f.svc.Account(f.ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, dec("800").Equal(report.Balance))

	page, err := f.svc.Transactions(f.ctx, ledger.TransactionFilter{Types: []model.TransactionType{model.TxnExpense}})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	cats, err := f.svc.Categories(f.ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(categories.Defaults()))
}

func TestImportStatement(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, "0")

	statement := "date,description,amount,reference\n" +
		"2024-06-03,Payroll,2500.00,PAY-1\n" +
		"2024-06-04,Corner shop,-12.40,\n"

	res, err := f.svc.ImportStatement(f.ctx, "generic", acct.ID, strings.NewReader(statement))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Parsed: 2, Recorded: 2}, res)

	res, err = f.svc.ImportStatement(f.ctx, "generic", acct.ID, strings.NewReader(statement))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Parsed: 2, Duplicates: 2}, res)

	page, err := f.svc.Transactions(f.ctx, ledger.TransactionFilter{Text: "payroll"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, categories.IncomeID, page.Items[0].CategoryID)

	_, err = f.svc.ImportStatement(f.ctx, "ofx", acct.ID, strings.NewReader(statement))
	assert.ErrorContains(t, err, "unknown statement format")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestImportStatement_CountsWithConcurrentWrites(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, "0")

	statement := "date,description,amount,reference\n" +
		"2024-06-03,Payroll,2500.00,PAY-1\n" +
		"2024-06-04,Corner shop,-12.40,SHOP-1\n"
	_, err := f.svc.ImportStatement(f.ctx, "generic", acct.ID, strings.NewReader(statement))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			_, err := f.svc.RecordTransaction(f.ctx, ledger.TransactionParams{
				Date: date(2024, 6, 10), Description: "Coffee", Type: model.TxnExpense,
				Legs: []model.Leg{{AccountID: acct.ID, Amount: dec("-1")}},
			})
			assert.NoError(t, err)
		}
	}()
	res, err := f.svc.ImportStatement(f.ctx, "generic", acct.ID, strings.NewReader(statement))
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Parsed: 2, Duplicates: 2}, res)

	body := f.scrape(t)
	assert.Contains(t, body, `rizq_transactions_total{type="income"} 1`, "replays are not counted")
	assert.Contains(t, body, `rizq_transactions_total{type="expense"} 21`)
}

func TestExportImportTransactions(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, "100")
	f.expense(t, acct.ID, "-20")

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportTransactions(f.ctx, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	n, err := f.svc.ImportTransactions(f.ctx, strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = f.svc.ImportTransactions(f.ctx, strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	page, err := f.svc.Transactions(f.ctx, ledger.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total, "the file's two transactions are added once")
}

func TestSweepOverdue(t *testing.T) {
	f := newFixture(t)
	f.account(t, "10")
	loan, err := f.svc.CreateLoan(f.ctx, ledger.CreateLoanParams{
		Direction: model.LoanGiven, Counterparty: "Alex", Principal: dec("300"), Currency: "USD",
		LoanDate: date(2024, 1, 1), DueDate: date(2024, 6, 1),
	})
	require.NoError(t, err)
	_, err = f.svc.CreateLoan(f.ctx, ledger.CreateLoanParams{
		Direction: model.LoanTaken, Counterparty: "Bank", Principal: dec("300"), Currency: "USD",
		LoanDate: date(2024, 1, 1), DueDate: date(2025, 1, 1),
	})
	require.NoError(t, err)

	alerts, err := f.svc.SweepOverdue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, loan.ID, alerts[0].EntityID)
	assert.Equal(t, "300.00", alerts[0].Data["remaining"])
	assert.Equal(t, []events.Kind{events.KindLoanOverdue}, f.alerts.Kinds())

	alerts, err = f.svc.SweepOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
