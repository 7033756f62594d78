package session

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/domain/scheduler"
	"github.com/previewd/previewd/internal/domain/tab"
	"github.com/previewd/previewd/internal/host"
	"github.com/previewd/previewd/internal/infrastructure/logging"
	"github.com/previewd/previewd/internal/infrastructure/monitoring"
	"github.com/previewd/previewd/internal/render"
	"github.com/previewd/previewd/internal/resolve"
	"github.com/previewd/previewd/internal/watch"
)

// Options configures a session.
type Options struct {
	Quiet    time.Duration // debounce quiet period; 0 means the default
	Sanitize bool
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
}

// TabInfo is the tab-strip state pushed to the preview surface.
type TabInfo struct {
	ID    tab.ID `json:"id"`
	Title string `json:"title"`
	Bound bool   `json:"bound"`
}

// Payload is one full re-render of the preview surface.
type Payload struct {
	Type      string    `json:"type"`
	Session   string    `json:"session"`
	ActiveTab tab.ID    `json:"active_tab"`
	Tabs      []TabInfo `json:"tabs"`
	HTML      string    `json:"html"`
	Title     string    `json:"title,omitempty"`
}

// Session is one preview session: a tab store, a scheduler, an editor
// host, and the render pipeline. All mutation funnels through the store
// and scheduler; subscribers receive a fresh payload after every change.
type Session struct {
	key      string
	store    *tab.Store
	sched    *scheduler.Scheduler
	editor   *host.Editor
	picker   *host.Picker
	mapper   *host.AssetMapper
	watcher  *watch.Watcher
	resolver *resolve.Resolver
	renderer *render.Renderer
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	mu          sync.Mutex
	subscribers map[uint64]chan Payload
	nextSub     uint64
	disposed    bool
}

// New creates a session previewing documents under root.
func New(key, root string, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	editor, err := host.NewEditor(root)
	if err != nil {
		return nil, err
	}

	mapper := host.NewAssetMapper(editor.Root(), "/sessions/"+key+"/assets")

	s := &Session{
		key:         key,
		store:       tab.NewStore(),
		editor:      editor,
		picker:      host.NewPicker(editor.Root()),
		mapper:      mapper,
		resolver:    resolve.New(mapper.MapPath),
		renderer:    render.New(opts.Sanitize),
		logger:      logger,
		metrics:     opts.Metrics,
		subscribers: make(map[uint64]chan Payload),
	}

	schedOpts := []scheduler.Option{
		scheduler.WithOnSync(s.onSync),
		scheduler.WithMetrics(opts.Metrics),
	}
	if opts.Quiet > 0 {
		schedOpts = append(schedOpts, scheduler.WithQuietPeriod(opts.Quiet))
	}
	s.sched = scheduler.New(editor, s.store, schedOpts...)

	watcher, err := watch.New(s.onFileChange)
	if err != nil {
		s.sched.Dispose()
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	s.watcher = watcher

	s.metrics.SessionOpened()
	s.metrics.TabDelta(s.store.Len())
	logger.Info("Session created",
		zap.String("session", key),
		zap.String("root", editor.Root()),
	)
	return s, nil
}

// Key returns the caller-supplied session identifier.
func (s *Session) Key() string { return s.key }

// onFileChange feeds watcher events into the scheduler when they concern
// the focused document. Writes to other files are ignored.
func (s *Session) onFileChange(path string) {
	focused, ok := s.editor.Focused()
	if !ok || focused != path {
		return
	}
	s.sched.NoteChange()
}

// onSync runs after the scheduler writes into a tab.
func (s *Session) onSync(tab.ID) {
	s.broadcast()
}

// ListDocuments returns the HTML files available to the file picker.
func (s *Session) ListDocuments() ([]string, error) {
	return s.picker.ListDocuments()
}

// OpenDocument focuses the document at path and synchronizes immediately:
// focus changes are deliberate actions reflected without delay.
func (s *Session) OpenDocument(path string) error {
	doc, err := s.editor.Open(path)
	if err != nil {
		return err
	}
	if err := s.watcher.Add(doc.Path); err != nil {
		s.logger.Warn("Failed to watch document",
			zap.String("path", doc.Path), zap.Error(err))
	}

	s.sched.FlushNow()
	return nil
}

// AddNewTab appends a fresh unbound tab, activates it and re-renders.
func (s *Session) AddNewTab() tab.ID {
	id := s.store.CreateTab()
	s.metrics.TabDelta(1)
	s.broadcast()
	return id
}

// SwitchTab activates the named tab; stale ids are ignored.
func (s *Session) SwitchTab(id tab.ID) {
	s.store.SwitchTab(id)
	s.broadcast()
}

// CloseTab closes the named tab; stale ids are ignored.
func (s *Session) CloseTab(id tab.ID) {
	before := s.store.Len()
	s.store.CloseTab(id)
	s.metrics.TabDelta(s.store.Len() - before)
	s.broadcast()
}

// RefreshActiveTab re-synchronizes the focused document into the active
// tab and re-renders.
func (s *Session) RefreshActiveTab() {
	s.sched.FlushNow()
	s.broadcast()
}

// ResolveAsset maps a surface asset request back to a file under the
// session root.
func (s *Session) ResolveAsset(requestPath string) (string, bool) {
	return s.mapper.Resolve(requestPath)
}

// Render produces the current display payload.
func (s *Session) Render() Payload {
	tabs := s.store.Tabs()
	infos := make([]TabInfo, 0, len(tabs))
	for _, t := range tabs {
		infos = append(infos, TabInfo{ID: t.ID, Title: t.Title, Bound: t.Bound()})
	}

	p := Payload{
		Type:      "render",
		Session:   s.key,
		ActiveTab: s.store.ActiveID(),
		Tabs:      infos,
	}

	active, ok := s.store.ActiveTab()
	if !ok || active.Content == "" {
		p.HTML = s.renderer.Placeholder()
	} else {
		resolved := s.resolver.Resolve(active.Content, active.SourceRef)
		p.HTML = s.renderer.Frame(resolved)
		if title := resolve.Title(active.Content); title != "" {
			p.Title = title
		}
	}

	s.metrics.RenderProduced()
	return p
}

// Subscribe registers a payload channel. Slow subscribers drop payloads
// rather than blocking the event path; every payload is a full snapshot
// so a dropped one is superseded by the next.
func (s *Session) Subscribe() (uint64, <-chan Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	ch := make(chan Payload, 8)
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscription.
func (s *Session) Unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *Session) broadcast() {
	s.mu.Lock()
	idle := s.disposed || len(s.subscribers) == 0
	s.mu.Unlock()
	if idle {
		return
	}

	payload := s.Render()

	// Sends and channel closes are serialized by mu: a snapshot taken
	// outside the lock could race Unsubscribe closing a channel, and a
	// send case on a closed channel panics even with a default arm.
	// Holding the lock is safe here because the sends never block.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Dispose tears the session down: the pending debounce is cancelled, the
// watcher is closed and all subscriptions end. No update fires afterwards.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[uint64]chan Payload)
	s.mu.Unlock()

	s.sched.Dispose()
	if err := s.watcher.Close(); err != nil {
		s.logger.Warn("Failed to close watcher", zap.Error(err))
	}

	s.metrics.TabDelta(-s.store.Len())
	s.metrics.SessionClosed()
	s.logger.Info("Session disposed", zap.String("session", s.key))
}
