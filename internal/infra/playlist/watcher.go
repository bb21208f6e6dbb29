package playlist

import (
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
)

const debounceDelay = 500 * time.Millisecond

// Watcher reloads a playlist file when it changes on disk. The parent
// directory is watched so editor save-via-rename is caught too. Change
// bursts are debounced before onChange fires.
type Watcher struct {
	path     string
	onChange func()
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher starts watching the playlist file. onChange runs on the
// watcher goroutine after the debounce window.
func NewWatcher(path string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "watch %s", dir)
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		watcher:  fsw,
		done:     make(chan struct{}),
	}
	go w.loop()

	zlog.Info().Msgf("playlist watcher started: path=%s", path)
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.done)
	w.watcher.Close()
}

func (w *Watcher) loop() {
	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				zlog.Debug().Msgf("playlist watcher event: op=%s file=%s", event.Op, event.Name)
				if debounce == nil {
					debounce = time.NewTimer(debounceDelay)
				} else {
					debounce.Reset(debounceDelay)
				}
				fire = debounce.C
			}

		case <-fire:
			fire = nil
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			zlog.Error().Msgf("playlist watcher error: %v", err)
		}
	}
}
