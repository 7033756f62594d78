package tab

import (
	"fmt"
	"sync"
)

// ID identifies a tab for the lifetime of its store.
type ID uint64

func (id ID) String() string { return fmt.Sprintf("tab-%d", uint64(id)) }

// Tab is one logical preview session bound to at most one source document.
type Tab struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
	// SourceRef is the bound source document's path; empty means unbound.
	SourceRef string `json:"source_ref,omitempty"`
	// Content is the full source text as of the last synchronization.
	Content string `json:"-"`
}

// Bound reports whether the tab has a source document.
func (t Tab) Bound() bool { return t.SourceRef != "" }

// Store holds the ordered tab collection and the active-tab pointer.
type Store struct {
	mu      sync.RWMutex
	counter uint64
	tabs    map[ID]*Tab
	order   []ID
	active  ID
}

// NewStore creates a store seeded with one unbound active tab.
func NewStore() *Store {
	s := &Store{tabs: make(map[ID]*Tab)}
	s.mu.Lock()
	s.createLocked()
	s.mu.Unlock()
	return s
}

// createLocked appends a fresh unbound tab and makes it active.
func (s *Store) createLocked() ID {
	s.counter++
	id := ID(s.counter)
	s.tabs[id] = &Tab{
		ID:    id,
		Title: fmt.Sprintf("Tab %d", s.counter),
	}
	s.order = append(s.order, id)
	s.active = id
	return id
}

// CreateTab appends a new unbound tab, makes it active and returns its id.
func (s *Store) CreateTab() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

// SwitchTab activates the named tab. Unknown ids are ignored rather than
// rejected: surface-originated ids can race with concurrent closes.
func (s *Store) SwitchTab(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tabs[id]; ok {
		s.active = id
	}
}

// CloseTab removes the named tab if present. When the removed tab was
// active, the left neighbor becomes active (falling back to the new first
// tab), keeping the selection visually stable when tabs close
// left-to-right. Closing the last tab creates a fresh unbound replacement.
func (s *Store) CloseTab(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, ordered := range s.order {
		if ordered == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	delete(s.tabs, id)
	s.order = append(s.order[:idx], s.order[idx+1:]...)

	if s.active != id {
		return
	}
	if len(s.order) == 0 {
		s.createLocked()
		return
	}
	next := idx - 1
	if next < 0 {
		next = 0
	}
	s.active = s.order[next]
}

// ActiveTab returns a copy of the active tab.
func (s *Store) ActiveTab() (Tab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tabs[s.active]
	if !ok {
		return Tab{}, false
	}
	return *t, true
}

// ActiveID returns the active tab's id.
func (s *Store) ActiveID() ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Get returns a copy of the named tab.
func (s *Store) Get(id ID) (Tab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tabs[id]
	if !ok {
		return Tab{}, false
	}
	return *t, true
}

// BindAndUpdate overwrites the named tab's binding fields. No-op if the
// tab no longer exists.
func (s *Store) BindAndUpdate(id ID, sourceRef, title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tabs[id]
	if !ok {
		return
	}
	t.SourceRef = sourceRef
	t.Title = title
	t.Content = content
}

// Tabs returns copies of all tabs in insertion order.
func (s *Store) Tabs() []Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Tab, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tabs[id])
	}
	return out
}

// Len returns the number of open tabs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
