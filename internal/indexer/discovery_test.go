package indexer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	m, err := NewMatcher(nil, DefaultIgnore)
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"top.sql", true},
		{"procs/order.sql", true},
		{"a/b/c/report.sql", true},
		{"procs/order.txt", false},
		{"vendor/lib.sql", false},
		{"db/node_modules/pkg/x.sql", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Match(tt.path), tt.path)
	}

	assert.True(t, m.SkipDir("vendor"))
	assert.True(t, m.SkipDir("web/node_modules"))
	assert.False(t, m.SkipDir("procs"))
}

func TestMatcher_CustomPatterns(t *testing.T) {
	m, err := NewMatcher([]string{"procs/*.sql", "  "}, []string{"procs/legacy_*"})
	require.NoError(t, err)

	assert.True(t, m.Match("procs/order.sql"))
	assert.False(t, m.Match("procs/nested/order.sql"), "single star stops at separators")
	assert.False(t, m.Match("procs/legacy_order.sql"))
	assert.False(t, m.Match("order.sql"))
}

func TestDiscoverScripts(t *testing.T) {
	dir := setupProject(t)
	createTestFile(t, dir, "procs/archive/old.sql", stockProc)

	m, err := NewMatcher(nil, DefaultIgnore)
	require.NoError(t, err)

	scripts, err := DiscoverScripts(dir, m)
	require.NoError(t, err)
	assert.Equal(t, []string{"procs/archive/old.sql", "procs/order.sql", "stock.sql"}, scripts)
}

func TestDiscoverScripts_MissingRoot(t *testing.T) {
	m, err := NewMatcher(nil, nil)
	require.NoError(t, err)

	_, err = DiscoverScripts("/nonexistent/scripts", m)
	assert.Error(t, err)
}

func TestIndexLock(t *testing.T) {
	var lock IndexLock

	assert.False(t, lock.Held("/a"))
	require.True(t, lock.TryAcquire("/a"))
	assert.False(t, lock.TryAcquire("/a"))
	assert.True(t, lock.TryAcquire("/b"), "other roots are independent")
	assert.True(t, lock.Held("/a"))

	lock.Release("/a")
	assert.False(t, lock.Held("/a"))
	assert.True(t, lock.TryAcquire("/a"))
}

func TestIndexLock_Concurrent(t *testing.T) {
	var lock IndexLock
	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lock.TryAcquire("/root") {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired)
}
