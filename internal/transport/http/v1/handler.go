// Package v1 provides the REST handlers of the campaign orchestrator.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/marketing/internal/domain"
	"github.com/xiaot623/gogo/marketing/internal/service"
)

// DefaultClientID is used when a request names no client.
const DefaultClientID = "default"

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)

	// Chat API
	chat := e.Group("/api/chat")
	chat.POST("/message", h.SendMessage)
	chat.GET("/history/:client_id", h.GetChatHistory)
	chat.DELETE("/history/:client_id", h.ClearChatHistory)

	// Data source API
	sources := e.Group("/api/data-sources")
	sources.GET("", h.ListDataSources)
	sources.GET("/", h.ListDataSources)
	sources.POST("/connect/:source_id", h.ConnectDataSource)
	sources.GET("/connections", h.ListConnections)
	sources.DELETE("/disconnect/:connection_id", h.DisconnectDataSource)
	sources.GET("/data/:source_id", h.GetSourceData)
	sources.POST("/aggregate", h.AggregateData)

	// Campaign API
	campaigns := e.Group("/api/campaigns")
	campaigns.POST("/generate", h.GenerateCampaign)
	campaigns.GET("/channels", h.ListChannels)
	campaigns.POST("/execute/:campaign_id", h.ExecuteCampaign)
	campaigns.GET("/history/:client_id", h.GetCampaignHistory)
	campaigns.GET("/executions/:execution_id", h.GetExecution)
	campaigns.GET("/:campaign_id/executions", h.ListCampaignExecutions)

	// Config API
	cfg := e.Group("/api/config")
	cfg.GET("", h.GetConfiguration)
	cfg.GET("/", h.GetConfiguration)
	cfg.GET("/health", h.ConfigHealth)

	e.GET("/api/connections/active", h.ListActiveConnections)
}

// Root reports that the API is up.
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Perplexity Chat API is running",
	})
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "perplexity-chat",
	})
}

// fail writes err with the status matching its class.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	}
	return c.JSON(status, map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]any{
		"success": false,
		"error":   msg,
	})
}
