package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetConfiguration reports the capabilities of the running process.
// GET /api/config/
func (h *Handler) GetConfiguration(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"configuration": h.service.Configuration(),
	})
}

// ConfigHealth returns health status of the config API.
// GET /api/config/health
func (h *Handler) ConfigHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "config",
	})
}
