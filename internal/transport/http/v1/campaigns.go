package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

// GenerateCampaignRequest is the body of POST /api/campaigns/generate.
type GenerateCampaignRequest struct {
	Message     string   `json:"message"`
	DataSources []string `json:"data_sources"`
	Channels    []string `json:"channels"`
	ClientID    string   `json:"client_id"`
}

// GenerateCampaign drafts and stores a campaign.
// POST /api/campaigns/generate
func (h *Handler) GenerateCampaign(c echo.Context) error {
	var req GenerateCampaignRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ClientID == "" {
		req.ClientID = DefaultClientID
	}

	campaign, err := h.service.GenerateCampaign(c.Request().Context(), req.Message, req.DataSources, req.Channels, req.ClientID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"campaign": campaign,
	})
}

// ListChannels returns the channel catalog.
// GET /api/campaigns/channels
func (h *Handler) ListChannels(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"channels": h.service.ListChannels(),
	})
}

// ExecuteCampaign dispatches a stored campaign.
// POST /api/campaigns/execute/:campaign_id
func (h *Handler) ExecuteCampaign(c echo.Context) error {
	var params domain.ExecutionParams
	if err := c.Bind(&params); err != nil {
		return badRequest(c, "invalid request body")
	}

	rec, err := h.service.ExecuteCampaign(c.Request().Context(), c.Param("campaign_id"), params)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":      true,
		"execution_id": rec.ExecutionID,
		"status":       rec.Status,
		"execution":    rec,
	})
}

// GetCampaignHistory returns a client's campaigns, newest first.
// GET /api/campaigns/history/:client_id
func (h *Handler) GetCampaignHistory(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"campaigns": h.service.CampaignHistory(c.Request().Context(), c.Param("client_id")),
	})
}

// GetExecution returns one execution record.
// GET /api/campaigns/executions/:execution_id
func (h *Handler) GetExecution(c echo.Context) error {
	rec, err := h.service.GetExecution(c.Param("execution_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"execution": rec,
	})
}

// ListCampaignExecutions returns every execution of a campaign, oldest first.
// GET /api/campaigns/:campaign_id/executions
func (h *Handler) ListCampaignExecutions(c echo.Context) error {
	recs, err := h.service.CampaignExecutions(c.Request().Context(), c.Param("campaign_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"executions": recs,
	})
}
