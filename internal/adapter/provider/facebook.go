package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

// FacebookPixel reads event statistics from the Graph API.
type FacebookPixel struct {
	client  *http.Client
	baseURL string
	pixelID string
	now     func() time.Time
}

type pixelStatsResponse struct {
	Data []struct {
		StartTime string `json:"start_time"`
		Data      []struct {
			Value string `json:"value"`
			Count int64  `json:"count"`
		} `json:"data"`
	} `json:"data"`
}

type pixelAudiencesResponse struct {
	Data []struct {
		Name             string `json:"name"`
		ApproximateCount int64  `json:"approximate_count"`
	} `json:"data"`
}

func (f *FacebookPixel) SourceID() string { return domain.SourceFacebookPixel }

func (f *FacebookPixel) Test(ctx context.Context) error {
	return f.get(ctx, f.pixelID, url.Values{"fields": {"id,name"}}, nil)
}

// Fetch sums the last 30 days of event counts. An event's conversion rate is
// its count relative to page views.
func (f *FacebookPixel) Fetch(ctx context.Context) (domain.Payload, error) {
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	end := now().UTC()
	start := end.AddDate(0, 0, -30)

	var stats pixelStatsResponse
	params := url.Values{
		"aggregation": {"event"},
		"start_time":  {strconv.FormatInt(start.Unix(), 10)},
		"end_time":    {strconv.FormatInt(end.Unix(), 10)},
	}
	if err := f.get(ctx, f.pixelID+"/stats", params, &stats); err != nil {
		return nil, fmt.Errorf("failed to fetch pixel stats: %w", err)
	}

	counts := make(map[string]int64)
	for _, bucket := range stats.Data {
		for _, d := range bucket.Data {
			counts[d.Value] += d.Count
		}
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	pageViews := counts["PageView"]
	data := domain.PixelData{
		Events:    make([]domain.PixelEvent, 0, len(names)),
		Audiences: []domain.PixelAudience{},
	}
	for _, name := range names {
		ev := domain.PixelEvent{Event: name, Count: counts[name]}
		if pageViews > 0 && name != "PageView" {
			ev.ConversionRate = float64(counts[name]) / float64(pageViews)
		}
		data.Events = append(data.Events, ev)
	}

	var auds pixelAudiencesResponse
	if err := f.get(ctx, f.pixelID+"/audiences", url.Values{"fields": {"name,approximate_count"}}, &auds); err != nil {
		return nil, fmt.Errorf("failed to fetch pixel audiences: %w", err)
	}
	for _, a := range auds.Data {
		data.Audiences = append(data.Audiences, domain.PixelAudience{
			Name: a.Name,
			Size: a.ApproximateCount,
		})
	}
	return data, nil
}

func (f *FacebookPixel) get(ctx context.Context, path string, params url.Values, out any) error {
	u := fmt.Sprintf("%s/%s?%s", f.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &statusError{Provider: "facebook", Status: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
