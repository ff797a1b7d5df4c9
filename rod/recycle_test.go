package rod

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLauncher hands out browser instances that record when they are shut down.
type fakeLauncher struct {
	mu       sync.Mutex
	launched []*instance
	closed   []*atomic.Bool
	fail     bool
}

func (l *fakeLauncher) launch() (*instance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return nil, errors.New("chrome not found")
	}
	closed := &atomic.Bool{}
	in := &instance{
		pid: len(l.launched) + 1,
		shutdown: func() error {
			closed.Store(true)
			return nil
		},
	}
	l.launched = append(l.launched, in)
	l.closed = append(l.closed, closed)
	return in, nil
}

func newTestFetcher(t *testing.T, l *fakeLauncher, maxPages int64) *Fetcher {
	t.Helper()
	in, err := l.launch()
	require.NoError(t, err)
	return &Fetcher{current: in, maxPages: maxPages, launch: l.launch}
}

func TestFetcher_Recycle(t *testing.T) {
	t.Parallel()

	t.Run("keeps retired browser open until in-flight pages finish", func(t *testing.T) {
		t.Parallel()

		l := &fakeLauncher{}
		f := newTestFetcher(t, l, 1)

		first, err := f.acquire()
		require.NoError(t, err)

		second, err := f.acquire()
		require.NoError(t, err)
		assert.NotSame(t, first, second)
		assert.Equal(t, 2, f.LauncherPID())

		time.Sleep(20 * time.Millisecond)
		assert.False(t, l.closed[0].Load(), "old browser closed while a page was still rendering")

		first.inflight.Done()
		assert.Eventually(t, l.closed[0].Load, time.Second, 5*time.Millisecond)
		assert.False(t, l.closed[1].Load())

		second.inflight.Done()
	})

	t.Run("keeps current browser when relaunch fails", func(t *testing.T) {
		t.Parallel()

		l := &fakeLauncher{}
		f := newTestFetcher(t, l, 1)

		first, err := f.acquire()
		require.NoError(t, err)
		first.inflight.Done()

		l.fail = true
		second, err := f.acquire()
		require.NoError(t, err)
		second.inflight.Done()

		assert.Same(t, first, second)
		assert.False(t, l.closed[0].Load())
	})

	t.Run("refuses pages after close", func(t *testing.T) {
		t.Parallel()

		l := &fakeLauncher{}
		f := newTestFetcher(t, l, 5)

		require.NoError(t, f.Close())
		_, err := f.acquire()

		require.Error(t, err)
		assert.True(t, l.closed[0].Load())
		assert.Zero(t, f.LauncherPID())
	})
}
