package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/previewd/previewd/internal/domain/session"
	"github.com/previewd/previewd/internal/infrastructure/logging"
)

func newTestStream(t *testing.T) (*httptest.Server, *session.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	factory := func(key, root string) (*session.Session, error) {
		return session.New(key, root, session.Options{Logger: logging.NewNop()})
	}
	registry := session.NewRegistry(factory, logging.NewNop())
	t.Cleanup(registry.Close)

	sess, err := registry.CreateOrShow("main", t.TempDir())
	require.NoError(t, err)

	router := gin.New()
	h := NewHandler(registry, logging.NewNop(), nil)
	router.GET("/stream/:key", h.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, sess
}

func dialStream(t *testing.T, srv *httptest.Server, key string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream/" + key
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestInitialRenderPushed(t *testing.T) {
	srv, _ := newTestStream(t)
	conn := dialStream(t, srv, "main")

	frame := readFrame(t, conn)
	assert.Equal(t, "render", frame["type"])
	assert.Equal(t, "main", frame["session"])
}

func TestUnknownCommandAnsweredWithError(t *testing.T) {
	srv, _ := newTestStream(t)
	conn := dialStream(t, srv, "main")
	readFrame(t, conn) // initial render

	require.NoError(t, conn.WriteJSON(map[string]any{"command": "reboot"}))

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Contains(t, frame["message"], "unknown command")
}

func TestUnknownSessionRejected(t *testing.T) {
	srv, _ := newTestStream(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream/ghost"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddTabCommandPushesRender(t *testing.T) {
	srv, _ := newTestStream(t)
	conn := dialStream(t, srv, "main")
	readFrame(t, conn) // initial render

	require.NoError(t, conn.WriteJSON(map[string]any{"command": "addTab"}))

	frame := readFrame(t, conn)
	require.Equal(t, "render", frame["type"])
	tabs, ok := frame["tabs"].([]any)
	require.True(t, ok)
	assert.Len(t, tabs, 2)
}

func TestDisconnectDuringBroadcasts(t *testing.T) {
	srv, sess := newTestStream(t)

	// Surfaces come and go while the session keeps broadcasting; the
	// teardown of one connection must never take the process down.
	for i := 0; i < 20; i++ {
		conn := dialStream(t, srv, "main")
		readFrame(t, conn)

		stop := make(chan struct{})
		go func() {
			for {
				select {
				case <-stop:
					return
				default:
					sess.RefreshActiveTab()
				}
			}
		}()

		conn.Close()
		time.Sleep(5 * time.Millisecond)
		close(stop)
	}
}
