// Package watch bridges filesystem write events to the preview core.
package watch

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports writes to watched files through a single callback.
type Watcher struct {
	fs        *fsnotify.Watcher
	onChange  func(path string)
	closeOnce sync.Once
	done      chan struct{}
}

// New creates a watcher invoking onChange with the written file's path.
func New(onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:       fsw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Add registers a path for change events. Adding the same path twice is
// harmless.
func (w *Watcher) Add(path string) error {
	return w.fs.Add(path)
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.onChange(event.Name)
			}
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Close stops event delivery. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}
