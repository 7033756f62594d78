package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Editor is the filesystem-backed document host for one session. It tracks
// which document holds editor focus; document text is always read fresh
// from disk so a synchronization never observes a stale snapshot.
type Editor struct {
	mu      sync.RWMutex
	root    string
	focused string
}

// NewEditor creates an editor host rooted at the given directory.
func NewEditor(root string) (*Editor, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root %s: %w", root, err)
	}
	return &Editor{root: abs}, nil
}

// Root returns the editor's workspace root.
func (e *Editor) Root() string {
	return e.root
}

// Open focuses the document at path and returns its current snapshot.
// The path must resolve inside the editor root.
func (e *Editor) Open(path string) (Document, error) {
	abs, err := e.within(path)
	if err != nil {
		return Document{}, err
	}

	doc, err := readDocument(abs)
	if err != nil {
		return Document{}, err
	}

	e.mu.Lock()
	e.focused = abs
	e.mu.Unlock()

	return doc, nil
}

// Focused returns the path of the focused document, if any.
func (e *Editor) Focused() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.focused, e.focused != ""
}

// FocusedDocument reads the focused document fresh from disk.
func (e *Editor) FocusedDocument() (Document, bool) {
	path, ok := e.Focused()
	if !ok {
		return Document{}, false
	}

	doc, err := readDocument(path)
	if err != nil {
		return Document{}, false
	}
	return doc, true
}

// Exists reports whether a file exists at the given path.
func (e *Editor) Exists(path string) bool {
	abs, err := e.within(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// within resolves path against the root and rejects escapes.
func (e *Editor) within(path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.root, abs)
	}
	abs = filepath.Clean(abs)
	if abs != e.root && !strings.HasPrefix(abs, e.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes workspace root", path)
	}
	return abs, nil
}

func readDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read document: %w", err)
	}

	return Document{
		Path:        path,
		ContentType: DetectContentType(path, data),
		Text:        DecodeText(data),
	}, nil
}
