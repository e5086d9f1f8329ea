package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/resonance/errors"
)

func TestFileWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "region.bin")
	require.NoError(t, os.WriteFile(path, []byte{0}, 0644))

	fw, err := New(path, 100*time.Millisecond, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	var calls atomic.Int32
	changed := make(chan string, 8)
	fw.OnChange(func(p string) error {
		calls.Add(1)
		changed <- p
		return nil
	})
	fw.OnChange(func(string) error { return errors.New("second callback fails") })

	ctx, cancel := context.WithCancel(context.Background())
	go fw.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-fw.Done()
	})

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte(i)}, 0644))
	}

	select {
	case p := <-changed:
		assert.Equal(t, fw.Path(), p)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "burst should coalesce into one callback")
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "region.bin")
	require.NoError(t, os.WriteFile(path, []byte{0}, 0644))

	fw, err := New(path, 20*time.Millisecond, nil)
	require.NoError(t, err)

	var calls atomic.Int32
	fw.OnChange(func(string) error {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go fw.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.bin"), []byte{1}, 0644))
	time.Sleep(200 * time.Millisecond)

	cancel()
	<-fw.Done()
	assert.Zero(t, calls.Load())
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "region.bin"), 0, nil)
	assert.Error(t, err)
}
