// Package scheduler decides when a source-document change is reflected in
// the active preview tab. Changes are debounced behind a quiet period so
// typing does not re-render on every keystroke; focus switches synchronize
// immediately.
package scheduler

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/previewd/previewd/internal/domain/tab"
	"github.com/previewd/previewd/internal/host"
	"github.com/previewd/previewd/internal/infrastructure/monitoring"
)

// DefaultQuietPeriod is the debounce window applied to change events.
const DefaultQuietPeriod = 300 * time.Millisecond

// Source supplies the focused document at synchronization time.
type Source interface {
	FocusedDocument() (host.Document, bool)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithQuietPeriod overrides the debounce window.
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Scheduler) { s.quiet = d }
}

// WithOnSync registers a callback invoked after each applied
// synchronization, with the id of the updated tab.
func WithOnSync(fn func(tab.ID)) Option {
	return func(s *Scheduler) { s.onSync = fn }
}

// WithMetrics attaches sync counters.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// Scheduler owns at most one pending timer. Arming replaces any earlier
// pending update; only the most recent survives. Content is always read
// fresh at fire time, and the write targets the tab active at expiry, not
// the tab that was active when the timer was armed.
type Scheduler struct {
	mu       sync.Mutex
	timer    *time.Timer
	quiet    time.Duration
	source   Source
	store    *tab.Store
	onSync   func(tab.ID)
	metrics  *monitoring.Metrics
	disposed bool
}

// New creates a scheduler writing into store from source.
func New(source Source, store *tab.Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		quiet:  DefaultQuietPeriod,
		source: source,
		store:  store,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NoteChange arms or re-arms the debounce timer. An earlier pending
// update is discarded, never applied.
func (s *Scheduler) NoteChange() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	if s.timer != nil {
		if s.timer.Stop() {
			s.metrics.DebounceSuperseded()
		}
	}
	s.timer = time.AfterFunc(s.quiet, s.fire)
}

// FlushNow synchronizes immediately, bypassing the debounce. Any pending
// timer is cancelled: the fresh read supersedes it.
func (s *Scheduler) FlushNow() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.syncNow()
}

// Dispose cancels any pending timer. No synchronization runs afterwards.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disposed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.syncNow()
}

// syncNow reads the focused document and writes it into the currently
// active tab. Skips silently when nothing is focused or the document is
// not HTML; the tab keeps its last known content.
func (s *Scheduler) syncNow() {
	doc, ok := s.source.FocusedDocument()
	if !ok {
		s.metrics.SyncSkipped("no_document")
		return
	}
	if !host.IsHTML(doc.ContentType) {
		s.metrics.SyncSkipped("not_html")
		return
	}

	// Disposal may complete while the document is being read; the write
	// must re-check under the lock so a disposed store is never mutated.
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	id := s.store.ActiveID()
	s.store.BindAndUpdate(id, doc.Path, filepath.Base(doc.Path), doc.Text)
	s.mu.Unlock()

	s.metrics.SyncApplied()
	if s.onSync != nil {
		s.onSync(id)
	}
}
