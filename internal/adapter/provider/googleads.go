package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

const (
	audienceQuery = `SELECT audience.name, audience.size, audience.engagement_rate FROM audience WHERE audience.status = 'ENABLED'`
	campaignQuery = `SELECT campaign.name, metrics.impressions, metrics.clicks, metrics.ctr FROM campaign WHERE segments.date DURING LAST_30_DAYS`
)

// GoogleAds queries the ad platform's search endpoint.
type GoogleAds struct {
	client         *http.Client
	baseURL        string
	customerID     string
	developerToken string
}

type adsSearchResponse struct {
	Results []adsRow `json:"results"`
}

// int64 fields arrive as JSON strings.
type adsRow struct {
	Audience *struct {
		Name           string  `json:"name"`
		Size           int64   `json:"size,string"`
		EngagementRate float64 `json:"engagementRate"`
	} `json:"audience,omitempty"`
	Campaign *struct {
		Name string `json:"name"`
	} `json:"campaign,omitempty"`
	Metrics *struct {
		Impressions int64   `json:"impressions,string"`
		Clicks      int64   `json:"clicks,string"`
		Ctr         float64 `json:"ctr"`
	} `json:"metrics,omitempty"`
}

func (g *GoogleAds) SourceID() string { return domain.SourceGoogleAds }

func (g *GoogleAds) Test(ctx context.Context) error {
	_, err := g.search(ctx, audienceQuery)
	return err
}

func (g *GoogleAds) Fetch(ctx context.Context) (domain.Payload, error) {
	audRows, err := g.search(ctx, audienceQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audiences: %w", err)
	}
	campRows, err := g.search(ctx, campaignQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch campaigns: %w", err)
	}

	data := domain.AdPlatformData{
		Audiences: []domain.AdAudience{},
		Campaigns: []domain.AdCampaign{},
	}
	for _, r := range audRows {
		if r.Audience == nil {
			continue
		}
		data.Audiences = append(data.Audiences, domain.AdAudience{
			Name:       r.Audience.Name,
			Size:       r.Audience.Size,
			Engagement: r.Audience.EngagementRate,
		})
	}
	for _, r := range campRows {
		if r.Campaign == nil || r.Metrics == nil {
			continue
		}
		data.Campaigns = append(data.Campaigns, domain.AdCampaign{
			Name:        r.Campaign.Name,
			Impressions: r.Metrics.Impressions,
			Clicks:      r.Metrics.Clicks,
			CTR:         r.Metrics.Ctr,
		})
	}
	return data, nil
}

func (g *GoogleAds) search(ctx context.Context, query string) ([]adsRow, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/customers/%s/googleAds:search", g.baseURL, g.customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", g.developerToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{Provider: "google ads", Status: resp.StatusCode}
	}

	var out adsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Results, nil
}
