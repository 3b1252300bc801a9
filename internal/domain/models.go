package domain

import (
	"maps"
	"slices"
	"time"
)

// Message is one entry of a client's conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SourceConnection is a registry entry for a connected data source.
type SourceConnection struct {
	SourceID       string           `json:"source_id"`
	ConnectionID   string           `json:"connection_id"`
	Status         ConnectionStatus `json:"status"`
	ConnectedAt    time.Time        `json:"connected_at"`
	ConnectionData map[string]any   `json:"connection_data,omitempty"`
	Provenance     Provenance       `json:"provenance"`
}

// SourceMetrics is a per-source metrics object inside an aggregate.
type SourceMetrics map[string]any

// AggregateSnapshot combines per-source metrics into one normalized view.
type AggregateSnapshot struct {
	TotalAudienceSize int64                    `json:"total_audience_size"`
	EngagementMetrics map[string]SourceMetrics `json:"engagement_metrics"`
	ConversionData    map[string]SourceMetrics `json:"conversion_data"`
	TrafficInsights   map[string]any           `json:"traffic_insights"`
	Provenance        Provenance               `json:"provenance"`
}

// NewAggregateSnapshot returns an empty snapshot with the given provenance.
func NewAggregateSnapshot(p Provenance) *AggregateSnapshot {
	return &AggregateSnapshot{
		EngagementMetrics: make(map[string]SourceMetrics),
		ConversionData:    make(map[string]SourceMetrics),
		TrafficInsights:   make(map[string]any),
		Provenance:        p,
	}
}

// TargetAudience describes who a campaign addresses.
type TargetAudience struct {
	Demographics map[string]any `json:"demographics"`
	Interests    []string       `json:"interests"`
	Behavior     []string       `json:"behavior"`
}

// ChannelConfig is the per-channel content of a campaign.
type ChannelConfig struct {
	Type            string         `json:"type"`
	Content         string         `json:"content"`
	Timing          string         `json:"timing"`
	Personalization map[string]any `json:"personalization"`
}

// ExecutionPlan describes when and how a campaign runs.
type ExecutionPlan struct {
	Schedule string   `json:"schedule"`
	Budget   float64  `json:"budget"`
	Metrics  []string `json:"metrics"`
}

// CampaignDraft is the generative collaborator's structured proposal.
type CampaignDraft struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	TargetAudience TargetAudience  `json:"target_audience"`
	Channels       []ChannelConfig `json:"channels"`
	ExecutionPlan  ExecutionPlan   `json:"execution"`
}

// Campaign is a stamped and stored draft.
type Campaign struct {
	CampaignID        string          `json:"campaign_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	TargetAudience    TargetAudience  `json:"target_audience"`
	Channels          []ChannelConfig `json:"channels"`
	ExecutionPlan     ExecutionPlan   `json:"execution"`
	DataSources       []string        `json:"data_sources"`
	RequestedChannels []string        `json:"requested_channels"`
	ClientID          string          `json:"client_id"`
	CreatedAt         time.Time       `json:"created_at"`
	Status            CampaignStatus  `json:"status"`
}

// Clone returns a deep copy so callers never share slices with the store.
func (c *Campaign) Clone() *Campaign {
	out := *c
	out.Channels = slices.Clone(c.Channels)
	for i := range out.Channels {
		out.Channels[i].Personalization = maps.Clone(c.Channels[i].Personalization)
	}
	out.DataSources = slices.Clone(c.DataSources)
	out.RequestedChannels = slices.Clone(c.RequestedChannels)
	out.TargetAudience.Demographics = maps.Clone(c.TargetAudience.Demographics)
	out.TargetAudience.Interests = slices.Clone(c.TargetAudience.Interests)
	out.TargetAudience.Behavior = slices.Clone(c.TargetAudience.Behavior)
	out.ExecutionPlan.Metrics = slices.Clone(c.ExecutionPlan.Metrics)
	return &out
}

// ChannelResult is the outcome of dispatching one channel of a campaign.
type ChannelResult struct {
	Channel      string        `json:"channel"`
	Status       ChannelStatus `json:"status"`
	Recipients   int           `json:"recipients"`
	Message      string        `json:"message,omitempty"`
	ScheduledFor string        `json:"scheduled_for,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// ExecutionParams are the caller-supplied overrides for an execution.
type ExecutionParams struct {
	ScheduleTime       *string `json:"schedule_time,omitempty"`
	EmailRecipients    *int    `json:"email_recipients,omitempty"`
	SMSRecipients      *int    `json:"sms_recipients,omitempty"`
	WhatsAppRecipients *int    `json:"whatsapp_recipients,omitempty"`
	PushRecipients     *int    `json:"push_recipients,omitempty"`
}

// Recipients returns the caller override for a channel type, if any.
func (p ExecutionParams) Recipients(channel string) (int, bool) {
	var v *int
	switch channel {
	case ChannelEmail:
		v = p.EmailRecipients
	case ChannelSMS:
		v = p.SMSRecipients
	case ChannelWhatsApp:
		v = p.WhatsAppRecipients
	case ChannelPush:
		v = p.PushRecipients
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Schedule returns the requested schedule or ScheduleImmediate.
func (p ExecutionParams) Schedule() string {
	if p.ScheduleTime == nil || *p.ScheduleTime == "" {
		return ScheduleImmediate
	}
	return *p.ScheduleTime
}

// Validate rejects negative recipient overrides.
func (p ExecutionParams) Validate() error {
	fields := []struct {
		name  string
		value *int
	}{
		{"email_recipients", p.EmailRecipients},
		{"sms_recipients", p.SMSRecipients},
		{"whatsapp_recipients", p.WhatsAppRecipients},
		{"push_recipients", p.PushRecipients},
	}
	for _, f := range fields {
		if f.value != nil && *f.value < 0 {
			return &ValidationError{Field: f.name, Reason: "must not be negative"}
		}
	}
	return nil
}

// ExecutionRecord is the immutable outcome of one execute call.
type ExecutionRecord struct {
	ExecutionID   string          `json:"execution_id"`
	CampaignID    string          `json:"campaign_id"`
	Status        ExecutionStatus `json:"status"`
	Channels      []ChannelResult `json:"channels"`
	ExecutedAt    time.Time       `json:"executed_at"`
	ExecutionData ExecutionParams `json:"execution_data"`
}

// Clone returns a deep copy of the record.
func (r *ExecutionRecord) Clone() *ExecutionRecord {
	out := *r
	out.Channels = slices.Clone(r.Channels)
	out.ExecutionData = r.ExecutionData.clone()
	return &out
}

func (p ExecutionParams) clone() ExecutionParams {
	return ExecutionParams{
		ScheduleTime:       clonePtr(p.ScheduleTime),
		EmailRecipients:    clonePtr(p.EmailRecipients),
		SMSRecipients:      clonePtr(p.SMSRecipients),
		WhatsAppRecipients: clonePtr(p.WhatsAppRecipients),
		PushRecipients:     clonePtr(p.PushRecipients),
	}
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
