package session

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/infrastructure/logging"
)

// Factory constructs a session for a key and workspace root.
type Factory func(key, root string) (*Session, error)

// Registry owns the live sessions, keyed by caller-supplied identifiers.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  Factory
	logger   *logging.Logger
}

// NewRegistry creates a registry constructing sessions through factory.
func NewRegistry(factory Factory, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		logger:   logger,
	}
}

// CreateOrShow returns the existing session for key, or constructs one
// rooted at root.
func (r *Registry) CreateOrShow(key, root string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[key]; ok {
		return existing, nil
	}

	s, err := r.factory(key, root)
	if err != nil {
		return nil, fmt.Errorf("failed to create session %s: %w", key, err)
	}
	r.sessions[key] = s
	return s, nil
}

// Get returns the session for key, if present.
func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	return s, ok
}

// Dispose tears down and removes the session for key. Unknown keys are
// ignored.
func (r *Registry) Dispose(key string) {
	r.mu.Lock()
	s, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()

	if ok {
		s.Dispose()
	}
}

// Keys returns the registered session keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.sessions))
	for key := range r.sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Close disposes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Dispose()
	}
	r.logger.Info("Session registry closed", zap.Int("disposed", len(sessions)))
}
