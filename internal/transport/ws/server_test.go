package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/marketing/internal/adapter/llm"
	"github.com/xiaot623/gogo/marketing/internal/config"
	"github.com/xiaot623/gogo/marketing/internal/protocol"
	"github.com/xiaot623/gogo/marketing/internal/service"
)

func newTestServer(t *testing.T) (*service.Service, string) {
	t.Helper()
	cfg := config.Default()
	svc := service.New(cfg, service.Deps{Completer: llm.NewMockClient()})

	e := echo.New()
	NewServer(cfg, svc.Hub(), svc, nil).Register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return svc, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestChatOverWebSocket(t *testing.T) {
	svc, base := newTestServer(t)
	conn := dial(t, base+"/ws/c1")

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":      protocol.TypeChatMessage,
		"message":   "hello",
		"timestamp": "2024-06-01T10:00:00Z",
	}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp protocol.AIResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, protocol.TypeAIResponse, resp.Type)
	assert.Contains(t, resp.Content, "hello")
	assert.Equal(t, "2024-06-01T10:00:00Z", resp.Timestamp)

	assert.Len(t, svc.ChatHistory("c1"), 2)
	assert.Equal(t, []string{"c1"}, svc.ActiveConnections())
}

func TestUnknownTypesAreIgnored(t *testing.T) {
	svc, base := newTestServer(t)
	conn := dial(t, base+"/ws/c1")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "typing"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": protocol.TypeChatMessage, "message": "second"}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp protocol.AIResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Contains(t, resp.Content, "second")
	assert.NotEmpty(t, resp.Timestamp)
	assert.Len(t, svc.ChatHistory("c1"), 2)
}

func TestDisconnectRemovesClient(t *testing.T) {
	svc, base := newTestServer(t)
	conn := dial(t, base+"/ws/c1")

	require.Eventually(t, func() bool { return len(svc.ActiveConnections()) == 1 }, 2*time.Second, 10*time.Millisecond)
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	require.Eventually(t, func() bool { return len(svc.ActiveConnections()) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestReconnectKeepsNewestChannel(t *testing.T) {
	svc, base := newTestServer(t)
	first := dial(t, base+"/ws/c1")
	second := dial(t, base+"/ws/c1")

	first.Close()
	time.Sleep(50 * time.Millisecond)

	svc.HandleRealtimeMessage(context.Background(), "c1", []byte(`{"type":"chat_message","message":"still here"}`))

	second.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp protocol.AIResponse
	require.NoError(t, second.ReadJSON(&resp))
	assert.Contains(t, resp.Content, "still here")
	assert.Equal(t, []string{"c1"}, svc.ActiveConnections())
}
