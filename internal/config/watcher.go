package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the configuration when the config file changes on
// disk and hands the fresh copy to a callback. Used to rotate the
// evaluator credential without a restart.
type Watcher struct {
	path     string
	logger   *zap.Logger
	onChange func(*Config)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, logger *zap.Logger, onChange func(*Config)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors and k8s configmap
	// updates replace the file rather than writing it in place.
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return &Watcher{
		path:     path,
		logger:   logger,
		onChange: onChange,
		watcher:  fsWatcher,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop ends watching and releases the inotify handle.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}

func (w *Watcher) loop() {
	// Debounce: file replacement fires several events back to back.
	var pending *time.Timer
	reload := func() {
		cfg, err := Load(w.path)
		if err != nil {
			w.logger.Warn("config reload failed, keeping previous configuration", zap.Error(err))
			return
		}
		w.logger.Info("configuration reloaded", zap.String("path", w.path))
		w.onChange(cfg)
	}

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(200*time.Millisecond, reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
