// Package domain defines the core domain models for the campaign orchestrator.
package domain

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Provenance tags data with whether it came from a real provider or a fixture.
type Provenance string

const (
	ProvenanceReal Provenance = "real"
	ProvenanceMock Provenance = "mock"
)

// IsReal reports whether the provenance is a real provider.
func (p Provenance) IsReal() bool {
	return p == ProvenanceReal
}

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusGenerated CampaignStatus = "generated"
	CampaignStatusExecuted  CampaignStatus = "executed"
)

// ExecutionStatus represents the status of an execution record.
type ExecutionStatus string

const (
	ExecutionStatusExecuted ExecutionStatus = "executed"
)

// ChannelStatus represents the outcome of dispatching one channel.
type ChannelStatus string

const (
	ChannelStatusSent   ChannelStatus = "sent"
	ChannelStatusFailed ChannelStatus = "failed"
)

// ConnectionStatus represents the status of a source connection.
type ConnectionStatus string

const (
	ConnectionStatusConnected ConnectionStatus = "connected"
)

// Known data source ids.
const (
	SourceGoogleAds     = "google_ads"
	SourceFacebookPixel = "facebook_pixel"
	SourceWebsite       = "website"
)

// Known channel types.
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
	ChannelPush     = "push"
)

// Default schedule used when the caller gives none.
const ScheduleImmediate = "immediate"
