package journal

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/storage/memory"
)

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(context.Background(), "u1", memory.New(), ledger.Options{
		Now:     func() time.Time { return date(2024, 6, 30) },
		Catalog: []model.Category{{ID: "food", Name: "Food", Icon: "utensils", Color: "#3b82f6"}},
	})
	require.NoError(t, err)
	return l
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	acct, err := l.CreateAccount(ctx, ledger.CreateAccountParams{
		Name: "Wallet", Type: model.AccountTypeWallet, Currency: "USD",
		OpeningBalance: dec("100"), OpeningDate: date(2024, 6, 1),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, l.Snapshot()))

	txns, err := ReadTransactions(&buf)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, acct.ID, txns[0].Legs[0].AccountID)
	assert.Equal(t, ledger.OpeningBalanceDescription, txns[0].Description)
}

func TestImport_Idempotent(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	acct, err := l.CreateAccount(ctx, ledger.CreateAccountParams{Name: "Wallet", Type: model.AccountTypeWallet, Currency: "USD"})
	require.NoError(t, err)

	file := Header + "\n" +
		fmt.Sprintf("2024-05-002a,2024-05-20,expense,%s,Lunch,-12.50,food,,\n", acct.ID) +
		fmt.Sprintf("2024-05-001a,2024-05-02,income,%s,Refund,40.00,,,\n", acct.ID)

	checker := AccountMap(l.Snapshot().AccountMap())
	n, err := Import(ctx, l, checker, strings.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = Import(ctx, l, checker, strings.NewReader(file))
	require.NoError(t, err)

	txns := l.Snapshot().Transactions()
	require.Len(t, txns, 2)
	assert.Equal(t, "Refund", txns[0].Description)
	assert.Equal(t, "food", txns[1].CategoryID)
}

func TestImport_ValidationRecordsNothing(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	acct, err := l.CreateAccount(ctx, ledger.CreateAccountParams{Name: "Wallet", Type: model.AccountTypeWallet, Currency: "USD"})
	require.NoError(t, err)

	file := Header + "\n" +
		fmt.Sprintf("2024-05-001a,2024-05-02,income,%s,Refund,40.00,,,\n", acct.ID) +
		"2024-05-002a,2024-05-20,expense,missing,Lunch,-12.50,,,\n"

	_, err = Import(ctx, l, AccountMap(l.Snapshot().AccountMap()), strings.NewReader(file))
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "unknown account")
	assert.Empty(t, l.Snapshot().Transactions())
}

func TestImport_LedgerRejection(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	acct, err := l.CreateAccount(ctx, ledger.CreateAccountParams{Name: "Wallet", Type: model.AccountTypeWallet, Currency: "USD"})
	require.NoError(t, err)

	// expense with a positive amount passes the file checks but not the ledger's
	file := Header + "\n" +
		fmt.Sprintf("2024-05-001a,2024-05-02,income,%s,Refund,40.00,,,\n", acct.ID) +
		fmt.Sprintf("2024-05-002a,2024-05-20,expense,%s,Lunch,12.50,,,\n", acct.ID)

	n, err := Import(ctx, l, AccountMap(l.Snapshot().AccountMap()), strings.NewReader(file))
	require.ErrorIs(t, err, ledger.ErrValidation)
	assert.Equal(t, 1, n)
}
