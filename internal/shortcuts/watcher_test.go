package shortcuts

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWatcher_ReloadsOnExternalWrite(t *testing.T) {
	store, mirror, path := newTestStore(t)

	var reloads atomic.Int32
	watcher, err := NewWatcher(store, WatcherConfig{
		Debounce: 20 * time.Millisecond,
		OnReload: func() { reloads.Add(1) },
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	other, err := NewStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Add("omw", "on my way", false))

	assert.Eventually(t, func() bool {
		_, ok := mirror.lookup("omw")
		return ok
	}, 3*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return reloads.Load() > 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
