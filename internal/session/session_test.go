package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	s := Session{UserID: "u1", AsOf: time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC), BaseCurrency: "USD"}
	ctx := WithContext(context.Background(), s)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, s, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestDays(t *testing.T) {
	s := Session{AsOf: time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)}
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), s.Today())
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), s.MonthStart())
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Session{}.Validate(), ErrMissingUser)
	assert.NoError(t, New("u1", "USD").Validate())
}
