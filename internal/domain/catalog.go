package domain

// SourceInfo describes one entry of the data source catalog.
type SourceInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// ChannelInfo describes one entry of the delivery channel catalog.
type ChannelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// SourceCatalog is the fixed list of supported data sources.
var SourceCatalog = []SourceInfo{
	{
		ID:          SourceGoogleAds,
		Name:        "Google Ads Tag",
		Description: "Connect to Google Ads for audience insights and campaign data",
		Status:      "available",
	},
	{
		ID:          SourceFacebookPixel,
		Name:        "Facebook Pixel",
		Description: "Connect to Facebook Pixel for behavioral data and retargeting",
		Status:      "available",
	},
	{
		ID:          SourceWebsite,
		Name:        "Website Analytics",
		Description: "Connect to website for general analytics and user behavior",
		Status:      "available",
	},
}

// ChannelCatalog is the fixed list of supported delivery channels.
var ChannelCatalog = []ChannelInfo{
	{ID: ChannelEmail, Name: "Email", Description: "Direct email marketing campaigns", Status: "available"},
	{ID: ChannelSMS, Name: "SMS", Description: "Mobile SMS marketing campaigns", Status: "available"},
	{ID: ChannelWhatsApp, Name: "WhatsApp", Description: "WhatsApp messaging campaigns", Status: "available"},
	{ID: ChannelPush, Name: "Push Notifications", Description: "Mobile app push notification campaigns", Status: "available"},
}

// ConfigSource is a data source entry of the configuration report.
type ConfigSource struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RealData    bool   `json:"real_data"`
}

// ConfigChannel is a channel entry of the configuration report.
type ConfigChannel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// AppInfo identifies the running application.
type AppInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// Configuration reports the capabilities of the running process.
type Configuration struct {
	DataSources []ConfigSource  `json:"data_sources"`
	Channels    []ConfigChannel `json:"channels"`
	Features    map[string]bool `json:"features"`
	AppInfo     AppInfo         `json:"app_info"`
}
