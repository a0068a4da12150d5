package auth

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads the pool when the account file changes on disk. The
// external account tool owns writes to the file; the gateway only needs to
// notice them.
type Watcher struct {
	store *FileStore
	pool  *Pool
}

// NewWatcher creates a watcher tying store changes to pool reloads.
func NewWatcher(store *FileStore, pool *Pool) *Watcher {
	return &Watcher{store: store, pool: pool}
}

// Run watches the store's parent directory until ctx is cancelled. Watching
// the directory instead of the file survives atomic rename rewrites. Events
// are debounced because a single rewrite fires several of them.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if errClose := watcher.Close(); errClose != nil {
			log.Errorf("account watcher: close error: %v", errClose)
		}
	}()

	dir := filepath.Dir(w.store.Path())
	if errAdd := watcher.Add(dir); errAdd != nil {
		return errAdd
	}
	log.Debugf("account watcher: watching %s", dir)

	var timer *time.Timer
	reload := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.store.Path()) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case errWatch, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("account watcher: %v", errWatch)
		case <-reload:
			accounts, errLoad := w.store.Load()
			if errLoad != nil {
				log.Warnf("account watcher: reload failed, keeping previous pool: %v", errLoad)
				continue
			}
			w.pool.Reload(accounts)
			log.Infof("account watcher: reloaded %d account(s) from %s", len(accounts), w.store.Path())
		}
	}
}
