package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SendMessageRequest is the body of POST /api/chat/message.
type SendMessageRequest struct {
	Message   string `json:"message"`
	ClientID  string `json:"client_id"`
	Timestamp any    `json:"timestamp,omitempty"`
}

// SendMessage runs one chat turn.
// POST /api/chat/message
func (h *Handler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ClientID == "" {
		req.ClientID = DefaultClientID
	}

	reply, err := h.service.SendMessage(c.Request().Context(), req.Message, req.ClientID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"response":  reply,
		"timestamp": req.Timestamp,
	})
}

// GetChatHistory returns a client's conversation.
// GET /api/chat/history/:client_id
func (h *Handler) GetChatHistory(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"history": h.service.ChatHistory(c.Param("client_id")),
	})
}

// ClearChatHistory drops a client's conversation.
// DELETE /api/chat/history/:client_id
func (h *Handler) ClearChatHistory(c echo.Context) error {
	h.service.ClearHistory(c.Param("client_id"))
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// ListActiveConnections lists clients with a live WebSocket.
// GET /api/connections/active
func (h *Handler) ListActiveConnections(c echo.Context) error {
	ids := h.service.ActiveConnections()
	return c.JSON(http.StatusOK, map[string]any{
		"connections": ids,
		"count":       len(ids),
	})
}
