package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// inputWatcher reports changes to a single description file.
type inputWatcher struct {
	path    string
	watcher *fsnotify.Watcher
}

func newInputWatcher(path string) (*inputWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	// Watch the directory so atomic saves (rename over) are seen.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch: add directory: %w", err)
	}
	return &inputWatcher{path: abs, watcher: watcher}, nil
}

// Run calls onChange after every write to the watched file until ctx is
// done. Failures of onChange are logged and watching continues.
func (w *inputWatcher) Run(ctx context.Context, log zerolog.Logger, onChange func() error) error {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("input changed")
			if err := onChange(); err != nil {
				log.Error().Err(err).Msg("regeneration failed")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("file watcher error")
		}
	}
}

func (w *inputWatcher) Close() error {
	return w.watcher.Close()
}
