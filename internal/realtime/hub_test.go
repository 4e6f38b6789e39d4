package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"equiprent/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) (*Hub, *jwt.Service, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(zerolog.Nop())
	jwtSvc := jwt.New("test-secret", time.Hour)
	r := gin.New()
	r.GET("/ws", NewHandler(hub, jwtSvc, nil).Serve)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, jwtSvc, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestServe_RejectsMissingToken(t *testing.T) {
	_, _, url := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSendToUser_AllConnections(t *testing.T) {
	hub, jwtSvc, url := startServer(t)
	userID := uuid.New()
	token, err := jwtSvc.GenerateToken(userID, "user")
	require.NoError(t, err)

	first := dial(t, url+"?token="+token)
	second := dial(t, url+"?token="+token)
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.connections[userID]) == 2
	}, time.Second, 10*time.Millisecond)

	assert.False(t, hub.SendToUser(uuid.New(), Frame{Type: "notification"}))
	require.True(t, hub.SendToUser(userID, Frame{Type: "notification", Payload: map[string]string{"title": "hi"}}))

	for _, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		var got struct {
			Type    string            `json:"type"`
			Payload map[string]string `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "notification", got.Type)
		assert.Equal(t, "hi", got.Payload["title"])
	}

	_ = first.Close()
	_ = second.Close()
	require.Eventually(t, func() bool { return !hub.Online(userID) }, time.Second, 10*time.Millisecond)
}

func TestClientMessages_RouteToHandlers(t *testing.T) {
	hub, jwtSvc, url := startServer(t)
	userID := uuid.New()
	token, err := jwtSvc.GenerateToken(userID, "user")
	require.NoError(t, err)

	type call struct {
		user uuid.UUID
		data json.RawMessage
	}
	calls := make(chan call, 1)
	hub.Handle("typing", func(u uuid.UUID, data json.RawMessage) {
		calls <- call{user: u, data: data}
	})

	conn := dial(t, url+"?token="+token)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var pong Frame
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "typing", "data": map[string]string{"conversation_id": "c1"}}))
	select {
	case got := <-calls:
		assert.Equal(t, userID, got.user)
		assert.JSONEq(t, `{"conversation_id":"c1"}`, string(got.data))
	case <-time.After(time.Second):
		t.Fatal("typing handler was not called")
	}
}
