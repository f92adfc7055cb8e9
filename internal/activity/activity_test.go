package activity

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:      testTime,
		UserID:         "u1",
		Action:         "transaction.recorded",
		Details:        "expense -124.50 Groceries",
		EntityID:       "2024-06-001",
		IdempotencyKey: "req-1",
	}
}

func TestAppend_NewFile(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "logs", "activity.csv"))
	require.NoError(t, l.Append(testEntry()))

	entries, err := l.Read("")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "transaction.recorded", entries[0].Action)
}

func TestAppend_ExistingFileAndFilter(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "activity.csv"))
	require.NoError(t, l.Append(testEntry()))

	e2 := testEntry()
	e2.UserID = "u2"
	e2.Action = "account.created"
	require.NoError(t, l.Append(e2))

	all, err := l.Read("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := l.Read("u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "account.created", mine[0].Action)
}

func TestRead_RoundTrip(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "activity.csv"))
	original := testEntry()
	original.Details = `quoted, "tricky" text`
	require.NoError(t, l.Append(original))

	entries, err := l.Read("u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got := entries[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, original.Details, got.Details)
	assert.Equal(t, original.EntityID, got.EntityID)
	assert.Equal(t, original.IdempotencyKey, got.IdempotencyKey)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Open(filepath.Join(t.TempDir(), "nope.csv")).Read("")
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.csv")
	require.NoError(t, os.WriteFile(path, []byte("timestamp,user_id,action,details,entity_id,idempotency_key\nnot-a-time,u1,a,b,c,d\n"), 0o644))
	_, err := Open(path).Read("")
	assert.Error(t, err)
}

func TestAppend_Concurrent(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "activity.csv"))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Append(testEntry()))
		}()
	}
	wg.Wait()

	entries, err := l.Read("")
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
