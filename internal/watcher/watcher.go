// Package watcher notifies on writes to a single file, buffering the
// double writes editors make into one update. Used by the serve loop to
// hot-reload the configuration file.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// defaultFlushDuration sets the time given to wait for multiple editor
// writes.
const defaultFlushDuration = 25 * time.Millisecond

// Notifier watches one file for write events.
type Notifier struct {
	path          string
	base          string
	watcher       *fsnotify.Watcher
	update        chan struct{}
	flushDuration time.Duration
}

// New registers a Notifier for the file at path. The containing
// directory is watched, since editors typically replace rather than
// write in place.
func New(path string) (*Notifier, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("watch target %q not found: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("watch target %q is a directory", path)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify new watcher error: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("fsnotify add error for %q: %w", path, err)
	}

	return &Notifier{
		path:          path,
		base:          filepath.Base(path),
		watcher:       w,
		update:        make(chan struct{}),
		flushDuration: defaultFlushDuration,
	}, nil
}

// Watch blocks, forwarding debounced write events for the watched file
// to the Update channel until the context is cancelled.
func (n *Notifier) Watch(ctx context.Context) error {

	// eventChan is an internal chan used for buffering editor writes.
	eventChan := make(chan struct{})

	g, ctx := errgroup.WithContext(ctx)

	// Watch for fsnotify events concerning the target file.
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-n.watcher.Errors:
				if !ok {
					return errors.New("unexpected close from watcher.Errors")
				}
				return fmt.Errorf("unexpected notify error: %w", err)
			case e, ok := <-n.watcher.Events:
				if !ok {
					return errors.New("unexpected close from watcher.Events")
				}
				if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
					continue
				}
				if filepath.Base(e.Name) != n.base {
					continue
				}
				select {
				case eventChan <- struct{}{}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})

	// Collapse bursts of writes within flushDuration into one update.
	g.Go(func() error {
		flush := false
		timer := time.NewTicker(n.flushDuration)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case _, ok := <-eventChan:
				if !ok {
					return nil
				}
				flush = true
				timer.Reset(n.flushDuration)
			case <-timer.C:
				if flush {
					select {
					case n.update <- struct{}{}:
					case <-ctx.Done():
						return ctx.Err()
					}
					flush = false
				}
			}
		}
	})

	err := g.Wait()
	close(n.update)
	_ = n.watcher.Close()
	return err
}

// Update returns the channel signalling a file write event.
func (n *Notifier) Update() <-chan struct{} {
	return n.update
}
