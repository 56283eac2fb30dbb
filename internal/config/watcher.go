package config

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file on change and publishes immutable
// snapshots behind an atomic pointer, debouncing rapid writes the way
// editors and orchestrators tend to produce them.
type Watcher struct {
	path    string
	current atomic.Pointer[Config]
	onError func(error)
}

// NewWatcher loads path once and starts watching it for changes. Pass a
// nil onError to ignore reload failures (the last-good config keeps
// serving).
func NewWatcher(path string, debounce time.Duration, onError func(error)) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: path, onError: onError}
	w.current.Store(&cfg)

	if path == "" {
		return w, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config %s: %w", path, err)
	}

	go w.loop(fw, debounce)
	return w, nil
}

// Get returns the current immutable config snapshot.
func (w *Watcher) Get() Config {
	return *w.current.Load()
}

func (w *Watcher) loop(fw *fsnotify.Watcher, debounce time.Duration) {
	defer fw.Close()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(fmt.Errorf("config watch: %w", err))
			}

		case <-timer.C:
			cfg, err := Load(w.path)
			if err != nil {
				if w.onError != nil {
					w.onError(err)
				}
				continue
			}
			w.current.Store(&cfg)
		}
	}
}
