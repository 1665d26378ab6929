// Package watch uploads contracts dropped into an inbox directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
	"github.com/custodia-labs/ndavault/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is uploaded.
// Editors and copy tools emit several writes per file.
const DefaultDebounce = 500 * time.Millisecond

// InboxWatcher uploads new or changed PDF/DOCX files from a directory.
// Other files are ignored. A file whose document is still processing is
// skipped and picked up by the next rescan.
type InboxWatcher struct {
	dir      string
	docs     driving.DocumentService
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewInboxWatcher creates a watcher for dir.
func NewInboxWatcher(dir string, docs driving.DocumentService) *InboxWatcher {
	return &InboxWatcher{
		dir:      dir,
		docs:     docs,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
}

// SetDebounce overrides the quiet period.
func (w *InboxWatcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Dir returns the watched directory.
func (w *InboxWatcher) Dir() string {
	return w.dir
}

// Run rescans the inbox once, then uploads files as they change until ctx
// is cancelled.
func (w *InboxWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	if _, err := w.Rescan(ctx); err != nil {
		logger.Warn("Initial rescan of %s: %v", w.dir, err)
	}

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handle schedules an upload for create and write events on accepted files.
func (w *InboxWatcher) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	name := filepath.Base(event.Name)
	if domain.ValidateUpload(name) != nil {
		logger.Debug("Ignoring %s", event.Name)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[name]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[name] == timer {
			delete(w.pending, name)
		}
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := w.upload(ctx, name); err != nil {
			logger.Warn("Upload %s: %v", name, err)
		}
	})
	w.pending[name] = timer
}

func (w *InboxWatcher) stopTimers() {
	w.mu.Lock()
	for name, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, name)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// Rescan uploads every accepted file that has no record yet or changed since
// its record was last updated. It returns the number of uploads started.
func (w *InboxWatcher) Rescan(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("read inbox: %w", err)
	}

	started := 0
	for _, entry := range entries {
		if entry.IsDir() || domain.ValidateUpload(entry.Name()) != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		rec, err := w.docs.Get(ctx, entry.Name())
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return started, err
		case !info.ModTime().After(rec.UpdatedAt):
			continue
		}

		if err := w.upload(ctx, entry.Name()); err != nil {
			logger.Warn("Upload %s: %v", entry.Name(), err)
			continue
		}
		started++
	}
	return started, nil
}

func (w *InboxWatcher) upload(ctx context.Context, name string) error {
	data, err := os.ReadFile(filepath.Join(w.dir, name))
	if err != nil {
		return err
	}
	_, err = w.docs.Upload(ctx, name, data)
	if domain.IsConflict(err) {
		logger.Info("Skipping %s: %v", name, err)
		return nil
	}
	return err
}
