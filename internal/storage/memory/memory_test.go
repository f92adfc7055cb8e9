package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrizq/rizq/internal/storage"
)

func TestAppendLoad(t *testing.T) {
	ctx := context.Background()
	l := New()

	e1 := &storage.Event{UserID: "u1", Kind: "account.created", Payload: []byte(`{"id":"a"}`)}
	e2 := &storage.Event{UserID: "u1", Kind: "transaction.recorded", Payload: []byte(`{"id":"t"}`)}
	e3 := &storage.Event{UserID: "u2", Kind: "account.created", Payload: []byte(`{}`)}
	require.NoError(t, l.Append(ctx, e1))
	require.NoError(t, l.Append(ctx, e2))
	require.NoError(t, l.Append(ctx, e3))

	assert.Equal(t, int64(1), e1.Seq)
	assert.Equal(t, int64(3), e3.Seq)

	events, err := l.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "transaction.recorded", events[1].Kind)

	users, err := l.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, users)
}

func TestFailNext(t *testing.T) {
	ctx := context.Background()
	l := New()
	boom := errors.New("disk full")
	l.FailNext = boom

	err := l.Append(ctx, &storage.Event{UserID: "u1"})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, l.Append(ctx, &storage.Event{UserID: "u1"}))

	events, err := l.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestClosed(t *testing.T) {
	l := New()
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Append(context.Background(), &storage.Event{}), storage.ErrClosed)
}
