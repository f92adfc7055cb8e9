package journal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrizq/rizq/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleTxns() []model.Transaction {
	return []model.Transaction{
		{
			ID:          "2024-06-001",
			Date:        date(2024, 6, 1),
			Description: "Salary, June",
			Type:        model.TxnIncome,
			Legs:        []model.Leg{{AccountID: "chk", Amount: dec("3250")}},
			CategoryID:  "income",
		},
		{
			ID:          "2024-06-002",
			Date:        date(2024, 6, 3),
			Description: "Move to savings",
			Type:        model.TxnTransfer,
			Legs: []model.Leg{
				{AccountID: "chk", Amount: dec("-500")},
				{AccountID: "sav", Amount: dec("500")},
			},
			GoalID: "g1",
		},
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, sampleTxns()))

	got, err := ReadTransactions(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "2024-06-001", got[0].ID)
	assert.Equal(t, "Salary, June", got[0].Description)
	assert.Equal(t, "income", got[0].CategoryID)
	require.Len(t, got[0].Legs, 1)
	assert.True(t, dec("3250").Equal(got[0].Legs[0].Amount))

	assert.Equal(t, model.TxnTransfer, got[1].Type)
	assert.Equal(t, "g1", got[1].GoalID)
	require.Len(t, got[1].Legs, 2)
	assert.Equal(t, "sav", got[1].Legs[1].AccountID)
	assert.True(t, dec("-500").Equal(got[1].Legs[0].Amount))
}

func TestWriteRows_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, sampleTxns()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, `2024-06-001a,2024-06-01,income,chk,"Salary, June",3250.00,income,,`, lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2024-06-002a,"))
	assert.True(t, strings.HasPrefix(lines[3], "2024-06-002b,"))
}

func TestReadRows_Empty(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestReadRows_HeaderOnly(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRows_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"bad date", "2024-06-001a,06/01/2024,income,chk,x,10.00,,,"},
		{"bad amount", "2024-06-001a,2024-06-01,income,chk,x,ten,,,"},
		{"too precise", "2024-06-001a,2024-06-01,income,chk,x,10.001,,,"},
		{"short row", "2024-06-001a,2024-06-01,income"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRows(strings.NewReader(Header + "\n" + tt.row + "\n"))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalRow_Fields(t *testing.T) {
	row, err := UnmarshalRow([]string{"2024-06-004a", "2024-06-20", "loan_payment", "chk", "Car loan", "-200.00", "", "", "loan1"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-004", row.Group())
	assert.Equal(t, model.TxnLoanPayment, row.Type)
	assert.Equal(t, "loan1", row.LoanID)
	assert.True(t, dec("-200").Equal(row.Amount))
}
