// Package storagewatch reports changes that other client processes make to
// the shared storage file.
//
// A rescan is triggered by filesystem events on the storage directory and by
// a fallback poll ticker. Each rescan reads the watched keys, diffs them
// against the previous snapshot and reports every changed key to the handler.
package storagewatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/docsum/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// ErrWatcherFailed reports that the filesystem watcher could not be created.
var ErrWatcherFailed = errors.New("failed to initialize storage watcher")

const DefaultPollInterval = 2 * time.Second

// StorageEvent describes one changed key. A nil NewValue means the key was
// removed; a nil OldValue means it was added.
type StorageEvent struct {
	Key      string
	OldValue []byte
	NewValue []byte
}

// Removed reports whether the key no longer exists.
func (e StorageEvent) Removed() bool { return e.NewValue == nil }

// Handler receives storage events in the watcher's goroutine.
type Handler func(StorageEvent)

// Reader is the part of the metadata repository the watcher needs.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type Option func(*Watcher)

func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

type Watcher struct {
	path     string
	keys     []string
	reader   Reader
	handler  Handler
	interval time.Duration
	log      logging.Logger

	fsw       *fsnotify.Watcher
	closeOnce sync.Once

	mu       sync.Mutex
	snapshot map[string][]byte
	primed   bool
}

// New creates a watcher for the storage file at path. The file's directory is
// watched so that journal and WAL files are seen as well.
func New(path string, reader Reader, keys []string, handler Handler, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		path:     path,
		keys:     append([]string(nil), keys...),
		reader:   reader,
		handler:  handler,
		interval: DefaultPollInterval,
		log:      logging.Nop(),
		fsw:      fsw,
		snapshot: make(map[string][]byte, len(keys)),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Prime records the current values without reporting them.
func (w *Watcher) Prime(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, k := range w.keys {
		v, err := w.reader.Get(ctx, k)
		if err != nil {
			return fmt.Errorf("read %s: %w", k, err)
		}
		w.snapshot[k] = v
	}
	w.primed = true
	return nil
}

// Rescan reads every watched key and reports those that differ from the
// previous snapshot. The first call on an unprimed watcher only primes it.
func (w *Watcher) Rescan(ctx context.Context) error {
	w.mu.Lock()
	if !w.primed {
		w.mu.Unlock()
		return w.Prime(ctx)
	}

	var events []StorageEvent
	for _, k := range w.keys {
		v, err := w.reader.Get(ctx, k)
		if err != nil {
			w.mu.Unlock()
			return fmt.Errorf("read %s: %w", k, err)
		}
		old := w.snapshot[k]
		if changed(old, v) {
			events = append(events, StorageEvent{Key: k, OldValue: old, NewValue: v})
			w.snapshot[k] = v
		}
	}
	w.mu.Unlock()

	for _, e := range events {
		w.log.Debug(ctx, "storage key changed", "key", e.Key, "removed", e.Removed())
		w.handler(e)
	}
	return nil
}

func changed(old, cur []byte) bool {
	if (old == nil) != (cur == nil) {
		return true
	}
	return !bytes.Equal(old, cur)
}

// relevant reports whether a filesystem event touches the storage file or
// one of its sidecar files (-wal, -shm, -journal).
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.HasPrefix(filepath.Base(ev.Name), filepath.Base(w.path))
}

// Run primes the snapshot and then rescans on file events and on every poll
// tick until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Prime(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				w.rescan(ctx)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn(ctx, "storage watcher error", "error", err)

		case <-ticker.C:
			w.rescan(ctx)
		}
	}
}

func (w *Watcher) rescan(ctx context.Context) {
	if err := w.Rescan(ctx); err != nil && ctx.Err() == nil {
		w.log.Warn(ctx, "storage rescan failed", "error", err)
	}
}

// Close releases the filesystem watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() { err = w.fsw.Close() })
	return err
}
