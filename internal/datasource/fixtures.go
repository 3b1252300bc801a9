package datasource

import "github.com/xiaot623/gogo/marketing/internal/domain"

// MockPayload returns the canonical fixture for sourceID. Each call builds a
// fresh value so callers may modify it.
func MockPayload(sourceID string) (domain.Payload, bool) {
	switch sourceID {
	case domain.SourceGoogleAds:
		return domain.AdPlatformData{
			Audiences: []domain.AdAudience{
				{Name: "High Value Customers", Size: 15420, Engagement: 0.85},
				{Name: "Cart Abandoners", Size: 8930, Engagement: 0.42},
				{Name: "Recent Purchasers", Size: 2340, Engagement: 0.91},
			},
			Campaigns: []domain.AdCampaign{
				{Name: "Brand Awareness", Impressions: 125000, Clicks: 3200, CTR: 0.0256},
				{Name: "Retargeting", Impressions: 45000, Clicks: 1800, CTR: 0.04},
			},
		}, true
	case domain.SourceFacebookPixel:
		return domain.PixelData{
			Events: []domain.PixelEvent{
				{Event: "PageView", Count: 125000, ConversionRate: 0.12},
				{Event: "AddToCart", Count: 15600, ConversionRate: 0.08},
				{Event: "Purchase", Count: 1248, ConversionRate: 0.15},
			},
			Audiences: []domain.PixelAudience{
				{Name: "Lookalike 1%", Size: 45000, Similarity: 0.95},
				{Name: "Custom Audience", Size: 8900, Similarity: 0.88},
			},
		}, true
	case domain.SourceWebsite:
		return domain.WebAnalyticsData{
			Analytics: domain.Analytics{
				Sessions:           45600,
				BounceRate:         0.35,
				AvgSessionDuration: 180,
				ConversionRate:     0.08,
			},
			TrafficSources: []domain.TrafficSource{
				{Source: "Organic", Percentage: 45},
				{Source: "Direct", Percentage: 25},
				{Source: "Social", Percentage: 20},
				{Source: "Paid", Percentage: 10},
			},
		}, true
	default:
		return nil, false
	}
}
