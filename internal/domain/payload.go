package domain

// Payload is a provider-shaped metrics payload returned by a data source.
type Payload interface {
	// SourceID names the data source the payload belongs to.
	SourceID() string
}

// AdAudience is an audience segment on the ad platform.
type AdAudience struct {
	Name       string  `json:"name"`
	Size       int64   `json:"size"`
	Engagement float64 `json:"engagement"`
}

// AdCampaign is a campaign performance row on the ad platform.
type AdCampaign struct {
	Name        string  `json:"name"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
}

// AdPlatformData is the ad-platform payload.
type AdPlatformData struct {
	Audiences []AdAudience `json:"audiences"`
	Campaigns []AdCampaign `json:"campaigns"`
}

func (AdPlatformData) SourceID() string { return SourceGoogleAds }

// PixelEvent is an event counter from the pixel platform.
type PixelEvent struct {
	Event          string  `json:"event"`
	Count          int64   `json:"count"`
	ConversionRate float64 `json:"conversion_rate"`
}

// PixelAudience is an audience from the pixel platform.
type PixelAudience struct {
	Name       string  `json:"name"`
	Size       int64   `json:"size"`
	Similarity float64 `json:"similarity"`
}

// PixelData is the pixel/event platform payload.
type PixelData struct {
	Events    []PixelEvent    `json:"events"`
	Audiences []PixelAudience `json:"audiences"`
}

func (PixelData) SourceID() string { return SourceFacebookPixel }

// Analytics holds the site-wide web-analytics metrics.
type Analytics struct {
	Sessions           int64   `json:"sessions"`
	BounceRate         float64 `json:"bounce_rate"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
	ConversionRate     float64 `json:"conversion_rate"`
}

// AsMap renders the analytics object as a plain map for aggregation output.
func (a Analytics) AsMap() map[string]any {
	return map[string]any{
		"sessions":             a.Sessions,
		"bounce_rate":          a.BounceRate,
		"avg_session_duration": a.AvgSessionDuration,
		"conversion_rate":      a.ConversionRate,
	}
}

// TrafficSource is one row of the traffic-source breakdown.
type TrafficSource struct {
	Source     string  `json:"source"`
	Percentage float64 `json:"percentage"`
}

// WebAnalyticsData is the web-analytics payload.
type WebAnalyticsData struct {
	Analytics      Analytics       `json:"analytics"`
	TrafficSources []TrafficSource `json:"traffic_sources"`
}

func (WebAnalyticsData) SourceID() string { return SourceWebsite }

// Sourced is a value tagged with where it came from.
type Sourced[T any] struct {
	Value      T
	Provenance Provenance
}

// Real tags v as coming from a real provider.
func Real[T any](v T) Sourced[T] {
	return Sourced[T]{Value: v, Provenance: ProvenanceReal}
}

// Mock tags v as coming from a fixture.
func Mock[T any](v T) Sourced[T] {
	return Sourced[T]{Value: v, Provenance: ProvenanceMock}
}
