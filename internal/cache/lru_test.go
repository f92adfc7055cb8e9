package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set("c", 3) // evicts b, the least recently used
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := New[string](10, time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(500 * time.Millisecond)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestGetOrLoad_Collapses(t *testing.T) {
	c := New[int](10, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrLoad("k", func() (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
	v, hit, err := c.GetOrLoad("k", func() (int, error) { return 0, errors.New("not called") })
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, v)
}

func TestGetOrLoad_ErrorNotCached(t *testing.T) {
	c := New[int](10, time.Minute)
	boom := errors.New("boom")
	_, _, err := c.GetOrLoad("k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, hit, err := c.GetOrLoad("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)
}

func TestGetOrLoadWhen_SkipsRejected(t *testing.T) {
	c := New[int](10, time.Minute)
	positive := func(v int) bool { return v > 0 }

	v, hit, err := c.GetOrLoadWhen("k", func() (int, error) { return -1, nil }, positive)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, -1, v)
	assert.Equal(t, 0, c.Len())

	v, hit, err = c.GetOrLoadWhen("k", func() (int, error) { return 3, nil }, positive)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, v)

	v, hit, err = c.GetOrLoadWhen("k", func() (int, error) { return 0, errors.New("not called") }, positive)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, v)
}
