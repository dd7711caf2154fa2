package config

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"neon-beat-back/internal/concurrency"
	"neon-beat-back/internal/logging"
)

// Holder stores an AppConfig behind an atomic pointer so readers never
// block on a reload in progress.
type Holder struct {
	value atomic.Pointer[AppConfig]
}

func NewHolder(initial AppConfig) *Holder {
	h := &Holder{}
	h.value.Store(&initial)
	return h
}

func (h *Holder) Get() AppConfig {
	return *h.value.Load()
}

// Watch watches the resolved config path for changes and reloads into h
// on every write event. Missing fsnotify support (e.g. an unwatchable
// path) is logged and treated as non-fatal — the process keeps running
// with whatever was last loaded.
func Watch(h *Holder) (stop func(), err error) {
	path := resolveConfigPath()
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	concurrency.GoSafe(func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				reloaded := Load()
				h.value.Store(&reloaded)
				logging.Log.WithField("path", path).Info("reloaded team colors config")
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Log.WithError(werr).Warn("config watcher error")
			}
		}
	})

	return func() { _ = watcher.Close() }, nil
}
