package utils

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters_ConcurrentInc(t *testing.T) {
	c := NewCounters()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Inc("statuses/user_timeline")
			}
		}()
	}
	c.Inc("friends/ids")
	wg.Wait()

	assert.Equal(t, int64(800), c.Get("statuses/user_timeline"))
	assert.Equal(t, int64(1), c.Get("friends/ids"))
	assert.Equal(t, int64(0), c.Get("users/lookup"))

	names, values := c.Snapshot()
	assert.Equal(t, []string{"friends/ids", "statuses/user_timeline"}, names)
	assert.Equal(t, int64(800), values["statuses/user_timeline"])
}

func TestSyncMap_LoadOrStore(t *testing.T) {
	m := NewSyncMap[string, int]()

	v, loaded := m.LoadOrStore("a", 1)
	assert.False(t, loaded)
	assert.Equal(t, 1, v)

	v, loaded = m.LoadOrStore("a", 2)
	assert.True(t, loaded)
	assert.Equal(t, 1, v)

	_, ok := m.Load("b")
	assert.False(t, ok)
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.tweets")

	ok, err := PathExists(path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, nil, 0644))
	ok, err = PathExists(path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPanicHandler(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	func() {
		defer PanicHandler(cancel)
		panic("boom")
	}()
	require.Error(t, context.Cause(ctx))
	assert.Contains(t, context.Cause(ctx).Error(), "boom")
}
