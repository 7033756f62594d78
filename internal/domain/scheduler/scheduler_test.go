package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/previewd/previewd/internal/domain/tab"
	"github.com/previewd/previewd/internal/host"
)

// fakeSource is a mutable focused-document source.
type fakeSource struct {
	mu  sync.Mutex
	doc host.Document
	ok  bool
}

func (f *fakeSource) set(doc host.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc = doc
	f.ok = true
}

func (f *fakeSource) FocusedDocument() (host.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc, f.ok
}

func htmlDoc(path, text string) host.Document {
	return host.Document{Path: path, ContentType: "text/html; charset=utf-8", Text: text}
}

func TestDebounceCoalescesChanges(t *testing.T) {
	source := &fakeSource{}
	store := tab.NewStore()

	var syncs atomic.Int32
	s := New(source, store,
		WithQuietPeriod(50*time.Millisecond),
		WithOnSync(func(tab.ID) { syncs.Add(1) }),
	)
	defer s.Dispose()

	// Changes at t=0, 10ms, 15ms; quiet period 50ms.
	source.set(htmlDoc("/site/index.html", "v1"))
	s.NoteChange()
	time.Sleep(10 * time.Millisecond)
	source.set(htmlDoc("/site/index.html", "v2"))
	s.NoteChange()
	time.Sleep(5 * time.Millisecond)
	source.set(htmlDoc("/site/index.html", "v3"))
	s.NoteChange()

	time.Sleep(150 * time.Millisecond)

	if got := syncs.Load(); got != 1 {
		t.Fatalf("expected exactly 1 synchronization, got %d", got)
	}
	active, _ := store.ActiveTab()
	if active.Content != "v3" {
		t.Errorf("expected content from last event, got %q", active.Content)
	}
	if active.Title != "index.html" {
		t.Errorf("expected title from file name, got %q", active.Title)
	}
}

func TestFlushNowBypassesDebounce(t *testing.T) {
	source := &fakeSource{}
	store := tab.NewStore()
	s := New(source, store, WithQuietPeriod(time.Hour))
	defer s.Dispose()

	source.set(htmlDoc("/site/a.html", "now"))
	s.FlushNow()

	active, _ := store.ActiveTab()
	if active.Content != "now" {
		t.Errorf("expected immediate sync, got %q", active.Content)
	}
}

func TestFlushNowCancelsPendingTimer(t *testing.T) {
	source := &fakeSource{}
	store := tab.NewStore()

	var syncs atomic.Int32
	s := New(source, store,
		WithQuietPeriod(40*time.Millisecond),
		WithOnSync(func(tab.ID) { syncs.Add(1) }),
	)
	defer s.Dispose()

	source.set(htmlDoc("/site/a.html", "x"))
	s.NoteChange()
	s.FlushNow()

	time.Sleep(120 * time.Millisecond)
	if got := syncs.Load(); got != 1 {
		t.Errorf("expected the flush to supersede the pending timer, got %d syncs", got)
	}
}

func TestNonHTMLDocumentIgnored(t *testing.T) {
	source := &fakeSource{}
	store := tab.NewStore()
	s := New(source, store, WithQuietPeriod(10*time.Millisecond))
	defer s.Dispose()

	source.set(host.Document{Path: "/site/notes.txt", ContentType: "text/plain", Text: "nope"})
	s.FlushNow()

	active, _ := store.ActiveTab()
	if active.Content != "" {
		t.Errorf("non-HTML document must not touch the tab, got %q", active.Content)
	}
	if active.Bound() {
		t.Error("tab should stay unbound")
	}
}

func TestNoFocusedDocumentIgnored(t *testing.T) {
	source := &fakeSource{}
	store := tab.NewStore()
	s := New(source, store)
	defer s.Dispose()

	s.FlushNow()

	active, _ := store.ActiveTab()
	if active.Bound() {
		t.Error("sync without a focused document should be skipped")
	}
}

func TestSyncTargetsTabActiveAtExpiry(t *testing.T) {
	source := &fakeSource{}
	store := tab.NewStore()
	first := store.ActiveID()
	s := New(source, store, WithQuietPeriod(40*time.Millisecond))
	defer s.Dispose()

	source.set(htmlDoc("/site/index.html", "late"))
	s.NoteChange()

	// Switch tabs while the timer is pending.
	second := store.CreateTab()

	time.Sleep(120 * time.Millisecond)

	got, _ := store.Get(second)
	if got.Content != "late" {
		t.Errorf("expected sync to land on tab active at expiry, got %q", got.Content)
	}
	if first == second {
		t.Fatal("test setup broken: ids must differ")
	}
	old, _ := store.Get(first)
	if old.Content != "" {
		t.Errorf("tab active at arm time must not receive the update, got %q", old.Content)
	}
}

// blockingSource parks FocusedDocument until released, exposing the
// window between the source read and the store write.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
	doc     host.Document
}

func (b *blockingSource) FocusedDocument() (host.Document, bool) {
	close(b.entered)
	<-b.release
	return b.doc, true
}

func TestDisposeDuringSyncPreventsWrite(t *testing.T) {
	store := tab.NewStore()
	source := &blockingSource{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		doc:     htmlDoc("/site/index.html", "late-write"),
	}
	s := New(source, store)

	done := make(chan struct{})
	go func() {
		s.FlushNow()
		close(done)
	}()

	<-source.entered
	s.Dispose()
	close(source.release)
	<-done

	active, _ := store.ActiveTab()
	if active.Bound() || active.Content != "" {
		t.Errorf("dispose completing mid-sync must prevent the store write, got %q", active.Content)
	}
}

func TestDisposeCancelsPendingWork(t *testing.T) {
	source := &fakeSource{}
	store := tab.NewStore()

	var syncs atomic.Int32
	s := New(source, store,
		WithQuietPeriod(30*time.Millisecond),
		WithOnSync(func(tab.ID) { syncs.Add(1) }),
	)

	source.set(htmlDoc("/site/index.html", "after-dispose"))
	s.NoteChange()
	s.Dispose()

	time.Sleep(100 * time.Millisecond)
	if got := syncs.Load(); got != 0 {
		t.Errorf("no synchronization may fire after dispose, got %d", got)
	}

	s.NoteChange()
	s.FlushNow()
	time.Sleep(100 * time.Millisecond)
	if got := syncs.Load(); got != 0 {
		t.Errorf("disposed scheduler accepted new work, got %d syncs", got)
	}
}
