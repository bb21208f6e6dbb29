package playlist

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playlist.m3u")
	require.NoError(t, os.WriteFile(path, []byte("https://radio.example/a.mp3\n"), 0644))

	var fired atomic.Int32
	w, err := NewWatcher(path, func() { fired.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("https://radio.example/b.mp3\n"), 0644))

	require.Eventually(t, func() bool { return fired.Load() >= 1 },
		3*time.Second, 50*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playlist.m3u")
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))

	var fired atomic.Int32
	w, err := NewWatcher(path, func() { fired.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))

	time.Sleep(debounceDelay + 200*time.Millisecond)
	require.Zero(t, fired.Load())
}
