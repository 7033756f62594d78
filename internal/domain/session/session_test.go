package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/previewd/previewd/internal/infrastructure/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSession(t *testing.T, root string) *Session {
	t.Helper()
	s, err := New("test", root, Options{
		Quiet:  30 * time.Millisecond,
		Logger: logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(s.Dispose)
	return s
}

func TestOpenDocumentSyncsImmediately(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html><head><title>Home</title></head><body>hi</body></html>")

	s := newTestSession(t, dir)
	if err := s.OpenDocument("index.html"); err != nil {
		t.Fatalf("OpenDocument failed: %v", err)
	}

	p := s.Render()
	if p.Title != "Home" {
		t.Errorf("expected extracted title 'Home', got %q", p.Title)
	}
	if len(p.Tabs) != 1 || p.Tabs[0].Title != "index.html" {
		t.Errorf("expected one tab titled index.html, got %+v", p.Tabs)
	}
	if !p.Tabs[0].Bound {
		t.Error("tab should be bound after open")
	}
}

func TestRenderPlaceholderWhenUnbound(t *testing.T) {
	s := newTestSession(t, t.TempDir())

	p := s.Render()
	if p.ActiveTab == 0 {
		t.Error("expected an active tab id")
	}
	if want := "No document loaded"; !contains(p.HTML, want) {
		t.Errorf("expected placeholder containing %q, got %q", want, p.HTML)
	}
}

func TestFileChangeDebouncesIntoActiveTab(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "page.html", "<html><body>v1</body></html>")

	s := newTestSession(t, dir)
	if err := s.OpenDocument("page.html"); err != nil {
		t.Fatal(err)
	}

	writeFile(t, dir, "page.html", "<html><body>v2</body></html>")
	s.onFileChange(path)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p := s.Render()
		if contains(p.HTML, "v2") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("change never reached the rendered payload")
}

func TestChangeToUnfocusedFileIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.html", "<html><body>a</body></html>")
	other := writeFile(t, dir, "b.html", "<html><body>b</body></html>")

	s := newTestSession(t, dir)
	if err := s.OpenDocument("a.html"); err != nil {
		t.Fatal(err)
	}

	s.onFileChange(other)
	time.Sleep(100 * time.Millisecond)

	p := s.Render()
	if contains(p.HTML, ">b<") {
		t.Error("write to an unfocused document must not update the tab")
	}
}

func TestSubscribeReceivesBroadcast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html><body>hi</body></html>")

	s := newTestSession(t, dir)
	id, ch := s.Subscribe()
	defer s.Unsubscribe(id)

	if err := s.OpenDocument("index.html"); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-ch:
		if p.Type != "render" {
			t.Errorf("unexpected payload type %q", p.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no payload received after open")
	}
}

func TestBroadcastRacesUnsubscribe(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html><body>hi</body></html>")

	s := newTestSession(t, dir)
	if err := s.OpenDocument("index.html"); err != nil {
		t.Fatal(err)
	}

	// Broadcasts run on timer and watcher goroutines while surfaces
	// subscribe and unsubscribe at will; a send must never race a close.
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				s.broadcast()
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id, _ := s.Subscribe()
				s.Unsubscribe(id)
			}
		}()
	}
	wg.Wait()
	close(done)
}

func TestDisposeStopsUpdates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html", "<html><body>v1</body></html>")

	s, err := New("gone", dir, Options{Quiet: 20 * time.Millisecond, Logger: logging.NewNop()})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.OpenDocument("index.html"); err != nil {
		t.Fatal(err)
	}

	s.Dispose()

	writeFile(t, dir, "index.html", "<html><body>v2</body></html>")
	s.onFileChange(path)
	time.Sleep(100 * time.Millisecond)

	p := s.Render()
	if contains(p.HTML, "v2") {
		t.Error("update fired after dispose")
	}
}

func TestRegistryCreateOrShowIdempotent(t *testing.T) {
	dir := t.TempDir()
	factory := func(key, root string) (*Session, error) {
		return New(key, root, Options{Logger: logging.NewNop()})
	}
	r := NewRegistry(factory, logging.NewNop())
	defer r.Close()

	a, err := r.CreateOrShow("main", dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.CreateOrShow("main", dir)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("CreateOrShow must return the existing session for a known key")
	}

	if keys := r.Keys(); len(keys) != 1 || keys[0] != "main" {
		t.Errorf("unexpected keys %v", keys)
	}

	r.Dispose("main")
	if _, ok := r.Get("main"); ok {
		t.Error("session should be gone after Dispose")
	}
	// Disposing an unknown key is a no-op.
	r.Dispose("main")
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
