package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListDataSources returns the source catalog.
// GET /api/data-sources/
func (h *Handler) ListDataSources(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"sources": h.service.ListDataSources(),
	})
}

// ConnectDataSource connects a source with the credentials in the body.
// POST /api/data-sources/connect/:source_id
func (h *Handler) ConnectDataSource(c echo.Context) error {
	sourceID := c.Param("source_id")
	// BindBody keeps the path param out of the credential map.
	data := map[string]any{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &data); err != nil {
		return badRequest(c, "invalid request body")
	}

	conn, err := h.service.ConnectDataSource(c.Request().Context(), sourceID, data)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"source_id":     conn.SourceID,
		"connection_id": conn.ConnectionID,
		"status":        conn.Status,
		"provenance":    conn.Provenance,
	})
}

// ListConnections returns the current connections.
// GET /api/data-sources/connections
func (h *Handler) ListConnections(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"connections": h.service.ListConnections(),
	})
}

// DisconnectDataSource removes a connection.
// DELETE /api/data-sources/disconnect/:connection_id
func (h *Handler) DisconnectDataSource(c echo.Context) error {
	if err := h.service.DisconnectDataSource(c.Param("connection_id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Data source disconnected",
	})
}

// GetSourceData returns the payload of a connected source.
// GET /api/data-sources/data/:source_id
func (h *Handler) GetSourceData(c echo.Context) error {
	data, err := h.service.GetSourceData(c.Request().Context(), c.Param("source_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":       data.Value,
		"provenance": data.Provenance,
	})
}

// AggregateRequest is the body of POST /api/data-sources/aggregate.
type AggregateRequest struct {
	DataSources []string `json:"data_sources"`
}

// AggregateData combines the metrics of the listed sources.
// POST /api/data-sources/aggregate
func (h *Handler) AggregateData(c echo.Context) error {
	var req AggregateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":         true,
		"aggregated_data": h.service.AggregateData(c.Request().Context(), req.DataSources),
	})
}
