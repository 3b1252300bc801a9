package service

import "github.com/xiaot623/gogo/marketing/internal/domain"

const (
	AppName    = "Perplexity Chat"
	AppVersion = "1.0.0"
)

// Configuration reports which sources serve real data, the channel list and
// the enabled features.
func (s *Service) Configuration() domain.Configuration {
	useReal := s.config.UseRealDataSources
	sources := []struct {
		id, name, description string
		complete              bool
	}{
		{domain.SourceGoogleAds, "Google Ads", "Google Ads audience and campaign data", s.config.GoogleAds.Complete()},
		{domain.SourceFacebookPixel, "Facebook Pixel", "Facebook Pixel events and audiences", s.config.Facebook.Complete()},
		{domain.SourceWebsite, "Website Analytics", "Website traffic and behavior data", s.config.GoogleAnalytics.Complete()},
	}

	report := domain.Configuration{
		DataSources: make([]domain.ConfigSource, 0, len(sources)),
		Channels:    make([]domain.ConfigChannel, 0, len(domain.ChannelCatalog)),
		Features: map[string]bool{
			"real_data_sources":      useReal,
			"campaign_generation":    true,
			"websocket_chat":         true,
			"data_source_management": true,
			"campaign_execution":     true,
		},
		AppInfo: domain.AppInfo{
			Name:        AppName,
			Version:     AppVersion,
			Environment: s.config.Environment(),
		},
	}

	for _, src := range sources {
		entry := domain.ConfigSource{
			ID:          src.id,
			Name:        src.name,
			Description: src.description,
			Available:   true,
			RealData:    useReal && src.complete,
		}
		if !entry.RealData {
			entry.Description += " (Mock)"
		}
		report.DataSources = append(report.DataSources, entry)
	}
	for _, ch := range domain.ChannelCatalog {
		report.Channels = append(report.Channels, domain.ConfigChannel{ID: ch.ID, Name: ch.Name, Available: true})
	}
	return report
}
