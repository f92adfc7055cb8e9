package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a, b := New(), New()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestFormatTxnID(t *testing.T) {
	tests := []struct {
		year, month, seq int
		want             string
	}{
		{2024, 6, 1, "2024-06-001"},
		{2024, 12, 99, "2024-12-099"},
		{2025, 1, 123, "2025-01-123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTxnID(tt.year, tt.month, tt.seq))
	}
}

func TestFormatLegID(t *testing.T) {
	assert.Equal(t, "2024-06-001a", FormatLegID("2024-06-001", 0))
	assert.Equal(t, "2024-06-001b", FormatLegID("2024-06-001", 1))
}

func TestParseTxnID(t *testing.T) {
	tests := []struct {
		input               string
		wantYear, wantMonth int
		wantSeq             int
	}{
		{"2024-06-001", 2024, 6, 1},
		{"2024-12-099", 2024, 12, 99},
		{"2024-06-025a", 2024, 6, 25},
		{"2024-06-025b", 2024, 6, 25},
	}
	for _, tt := range tests {
		year, month, seq, err := ParseTxnID(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantYear, year)
		assert.Equal(t, tt.wantMonth, month)
		assert.Equal(t, tt.wantSeq, seq)
	}
}

func TestParseTxnID_Errors(t *testing.T) {
	for _, input := range []string{"", "not-valid", "2024-06", "xxxx-01-001", "2024-13-001"} {
		_, _, _, err := ParseTxnID(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestTxnGroupAndLegIndex(t *testing.T) {
	assert.Equal(t, "2024-06-001", TxnGroup("2024-06-001b"))
	assert.Equal(t, "2024-06-001", TxnGroup("2024-06-001"))
	assert.Equal(t, "", TxnGroup(""))
	assert.Equal(t, 1, LegIndex("2024-06-001b"))
	assert.Equal(t, 0, LegIndex("2024-06-001"))
}
