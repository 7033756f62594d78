package ws

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/domain/session"
	"github.com/previewd/previewd/internal/infrastructure/logging"
	"github.com/previewd/previewd/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Handler upgrades preview-surface connections and bridges them to
// sessions: render payloads flow out, commands flow in.
type Handler struct {
	registry *session.Registry
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a WebSocket handler over registry.
func NewHandler(registry *session.Registry, logger *logging.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

// HandleConnection upgrades the request and serves one preview surface
// until it disconnects or the session is disposed.
func (h *Handler) HandleConnection(c *gin.Context) {
	key := c.Param("key")
	sess, ok := h.registry.Get(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session: " + key})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.New().String()
	h.metrics.WSConnected()
	defer h.metrics.WSDisconnected()
	h.logger.Info("Preview surface connected",
		zap.String("session", key),
		zap.String("conn", connID),
	)

	// All frames leave through a single writer goroutine: command replies
	// and session broadcasts would otherwise interleave writes on the conn.
	out := make(chan any, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for frame := range out {
			data, err := sonic.Marshal(frame)
			if err != nil {
				h.logger.Warn("Failed to marshal frame", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}()

	subID, payloads := sess.Subscribe()

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for p := range payloads {
			select {
			case out <- p:
			case <-writerDone:
				return
			}
		}
	}()

	// The surface paints from the first frame, before any change arrives.
	out <- sess.Render()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}
		h.metrics.CommandReceived(string(cmd.Command))
		h.dispatch(sess, out, cmd)
	}

	// Unsubscribing closes payloads, which ends the forwarder; out may
	// only close once the forwarder can no longer send on it.
	sess.Unsubscribe(subID)
	<-forwardDone
	close(out)
	<-writerDone
	h.logger.Info("Preview surface disconnected",
		zap.String("session", key),
		zap.String("conn", connID),
	)
}

// dispatch applies one validated command to the session. Frames outside
// the command set are answered with an error frame and dropped.
func (h *Handler) dispatch(sess *session.Session, out chan<- any, cmd Command) {
	if err := cmd.Validate(); err != nil {
		h.sendError(out, err.Error())
		return
	}

	switch cmd.Command {
	case CommandSelectFile:
		if cmd.Path == "" {
			files, err := sess.ListDocuments()
			if err != nil {
				h.sendError(out, err.Error())
				return
			}
			h.send(out, map[string]any{
				"type":  "fileList",
				"files": files,
			})
			return
		}
		if err := sess.OpenDocument(cmd.Path); err != nil {
			h.sendError(out, err.Error())
		}
	case CommandSwitchTab:
		sess.SwitchTab(cmd.TabID)
	case CommandCloseTab:
		sess.CloseTab(cmd.TabID)
	case CommandAddTab:
		sess.AddNewTab()
	case CommandRefresh:
		sess.RefreshActiveTab()
	}
}

func (h *Handler) send(out chan<- any, frame any) {
	select {
	case out <- frame:
	default:
	}
}

func (h *Handler) sendError(out chan<- any, msg string) {
	h.send(out, map[string]any{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	})
}
