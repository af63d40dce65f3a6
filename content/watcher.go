package content

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/lumafield/enginemesh/logging"
)

// Notifier is the sink a watcher publishes reloads to. *bus.Bus satisfies it.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload any)
}

// Watcher observes a FileSource's backing file and republishes the freshly
// fetched records on "content:<name>" whenever it changes, so consumers get
// push updates instead of re-fetching on every render.
type Watcher struct {
	name     string
	source   FileSource
	notifier Notifier
	logger   logging.Logger
	fsw      *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher starts watching the source's file. Close the watcher to stop.
func NewWatcher(name string, source FileSource, notifier Notifier, logger logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// watch the directory, not the file: editors replace files by rename,
	// which drops a direct file watch
	if err := fsw.Add(filepath.Dir(source.Path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", source.Path, err)
	}

	w := &Watcher{
		name:     name,
		source:   source,
		notifier: notifier,
		logger:   logger,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Topic returns the bus topic this watcher publishes on.
func (w *Watcher) Topic() string {
	return "content:" + w.name
}

// Close stops the watcher. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	target := filepath.Clean(w.source.Path)
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.publish()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("content watcher error section=%s err=%v", w.name, err)
		}
	}
}

func (w *Watcher) publish() {
	ctx := context.Background()
	records, err := w.source.Fetch(ctx)
	if err != nil {
		w.logger.Warn("content reload failed section=%s err=%v", w.name, err)
		return
	}
	w.notifier.Publish(ctx, w.Topic(), records)
}
