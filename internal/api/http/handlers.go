// Package http holds the REST surface: session lifecycle, document
// listing and asset resolution for rendered previews.
package http

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/domain/session"
	"github.com/previewd/previewd/internal/infrastructure/config"
	"github.com/previewd/previewd/internal/infrastructure/logging"
	"github.com/previewd/previewd/internal/shared/id"
)

// Handlers serves the REST endpoints over the session registry.
type Handlers struct {
	registry *session.Registry
	config   *config.Config
	logger   *logging.Logger
	started  time.Time
}

// NewHandlers creates the REST handler set.
func NewHandlers(registry *session.Registry, cfg *config.Config, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		registry: registry,
		config:   cfg,
		logger:   logger,
		started:  time.Now(),
	}
}

// Root describes the service.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "previewd",
		"version": "1.0.0",
		"status":  "running",
	})
}

// Health reports liveness and the session count.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"uptime":   time.Since(h.started).String(),
		"sessions": len(h.registry.Keys()),
	})
}

// ListSessions returns the registered session keys.
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.registry.Keys()})
}

type createSessionRequest struct {
	Key  string `json:"key"`
	Root string `json:"root"`
}

// CreateSession creates a session, or returns the existing one for the
// key. Omitting the key mints a fresh one; the workspace root defaults
// to the configured preview root.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Key == "" {
		req.Key = id.NewSessionID().String()
	}
	root := req.Root
	if root == "" {
		root = h.config.Preview.Root
	}

	sess, err := h.registry.CreateOrShow(req.Key, root)
	if err != nil {
		h.logger.Error("Failed to create session",
			zap.String("key", req.Key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": sess.Key()})
}

// GetSession returns the current payload for a session.
func (h *Handlers) GetSession(c *gin.Context) {
	sess, ok := h.registry.Get(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess.Render())
}

// DeleteSession disposes a session. Unknown keys succeed.
func (h *Handlers) DeleteSession(c *gin.Context) {
	h.registry.Dispose(c.Param("key"))
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("key")})
}

// ListDocuments returns the HTML documents a session can open.
func (h *Handlers) ListDocuments(c *gin.Context) {
	sess, ok := h.registry.Get(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	files, err := sess.ListDocuments()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// ServeAsset serves a file referenced by a rendered preview. The mapper
// refuses paths outside the session root.
func (h *Handlers) ServeAsset(c *gin.Context) {
	sess, ok := h.registry.Get(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	local, ok := sess.ResolveAsset(c.Param("asset"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		return
	}
	c.File(filepath.Clean(local))
}
