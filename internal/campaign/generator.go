// Package campaign drafts, stores and executes marketing campaigns.
package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/marketing/internal/adapter/llm"
	"github.com/xiaot623/gogo/marketing/internal/domain"
)

// Aggregator produces the metrics snapshot fed into generation.
type Aggregator interface {
	Aggregate(ctx context.Context, sourceIDs []string) *domain.AggregateSnapshot
}

// GeneratorOptions tunes the completion call.
type GeneratorOptions struct {
	MaxTokens   int
	Temperature float32
	Now         func() time.Time
	NewID       func() string
	Logger      *zap.Logger
}

// Generator turns a request into a stored Campaign.
type Generator struct {
	agg    Aggregator
	llm    llm.Completer
	store  *Store
	opts   GeneratorOptions
	logger *zap.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(agg Aggregator, completer llm.Completer, store *Store, opts GeneratorOptions) *Generator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 800
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Generator{agg: agg, llm: completer, store: store, opts: opts, logger: opts.Logger}
}

// Generate drafts a campaign for text and stores it. It never fails: an
// unusable or failed completion yields the default draft.
func (g *Generator) Generate(ctx context.Context, text string, sourceIDs, channelIDs []string, clientID string) *domain.Campaign {
	sourceIDs = nonNil(sourceIDs)
	channelIDs = nonNil(channelIDs)

	snapshot := g.agg.Aggregate(ctx, sourceIDs)
	draft := g.draft(ctx, text, sourceIDs, channelIDs, snapshot)

	c := &domain.Campaign{
		CampaignID:        g.opts.NewID(),
		Name:              draft.Name,
		Description:       draft.Description,
		TargetAudience:    draft.TargetAudience,
		Channels:          draft.Channels,
		ExecutionPlan:     draft.ExecutionPlan,
		DataSources:       sourceIDs,
		RequestedChannels: channelIDs,
		ClientID:          clientID,
		CreatedAt:         g.opts.Now(),
		Status:            domain.CampaignStatusGenerated,
	}
	g.store.Put(ctx, c)

	g.logger.Info("campaign generated",
		zap.String("campaign_id", c.CampaignID),
		zap.String("client_id", clientID),
		zap.Int("channels", len(c.Channels)),
		zap.String("data_provenance", string(snapshot.Provenance)),
	)
	return c.Clone()
}

func (g *Generator) draft(ctx context.Context, text string, sourceIDs, channelIDs []string, snapshot *domain.AggregateSnapshot) domain.CampaignDraft {
	resp, err := g.llm.Complete(ctx, &llm.CompletionRequest{
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: BuildPrompt(text, sourceIDs, channelIDs, snapshot)}},
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	})
	if err != nil {
		g.logger.Warn("campaign completion failed, using default draft", zap.Error(err))
		return DefaultDraft(text, channelIDs)
	}

	draft, ok := ParseDraft(resp.Content)
	if !ok {
		g.logger.Warn("campaign completion unparseable, using default draft")
		return DefaultDraft(text, channelIDs)
	}
	return normalize(*draft, channelIDs)
}

// BuildPrompt assembles the generation context.
func BuildPrompt(text string, sourceIDs, channelIDs []string, snapshot *domain.AggregateSnapshot) string {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		data = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("Based on the following context and available data sources, generate a marketing campaign JSON payload.\n\n")
	fmt.Fprintf(&b, "User Request: %s\n", text)
	fmt.Fprintf(&b, "Data Sources: %s\n", strings.Join(sourceIDs, ", "))
	fmt.Fprintf(&b, "Channels: %s\n", strings.Join(channelIDs, ", "))
	fmt.Fprintf(&b, "Aggregated Data: %s\n\n", data)
	b.WriteString(`Generate a JSON payload with the following structure:
{
  "name": "Campaign Name",
  "description": "Campaign description",
  "target_audience": {"demographics": {}, "interests": [], "behavior": []},
  "channels": [
    {"type": "email|sms|whatsapp|push", "content": "Message content", "timing": "optimal_time", "personalization": {}}
  ],
  "execution": {"schedule": "immediate|scheduled", "budget": 0, "metrics": []}
}

Make it realistic and actionable for the given context.
`)
	return b.String()
}

// ParseDraft extracts the JSON object spanning the first '{' to the last '}'
// of content. It reports false when there is none or it is not a draft.
func ParseDraft(content string) (*domain.CampaignDraft, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var draft domain.CampaignDraft
	if err := json.Unmarshal([]byte(content[start:end+1]), &draft); err != nil {
		return nil, false
	}
	if strings.TrimSpace(draft.Name) == "" {
		return nil, false
	}
	return &draft, true
}

// DefaultDraft is the deterministic draft used when generation fails.
func DefaultDraft(text string, channelIDs []string) domain.CampaignDraft {
	return domain.CampaignDraft{
		Name:        "Default Campaign",
		Description: "Campaign for: " + text,
		TargetAudience: domain.TargetAudience{
			Demographics: map[string]any{},
			Interests:    []string{},
			Behavior:     []string{},
		},
		Channels: placeholderChannels(channelIDs),
		ExecutionPlan: domain.ExecutionPlan{
			Schedule: domain.ScheduleImmediate,
			Metrics:  []string{},
		},
	}
}

func placeholderChannels(channelIDs []string) []domain.ChannelConfig {
	out := make([]domain.ChannelConfig, 0, len(channelIDs))
	for _, ch := range channelIDs {
		out = append(out, domain.ChannelConfig{
			Type:            ch,
			Content:         "Message for " + ch,
			Timing:          domain.ScheduleImmediate,
			Personalization: map[string]any{},
		})
	}
	return out
}

// normalize fills nil collections so stored campaigns serialize uniformly.
func normalize(d domain.CampaignDraft, channelIDs []string) domain.CampaignDraft {
	if d.TargetAudience.Demographics == nil {
		d.TargetAudience.Demographics = map[string]any{}
	}
	d.TargetAudience.Interests = nonNil(d.TargetAudience.Interests)
	d.TargetAudience.Behavior = nonNil(d.TargetAudience.Behavior)
	d.ExecutionPlan.Metrics = nonNil(d.ExecutionPlan.Metrics)
	if d.ExecutionPlan.Schedule == "" {
		d.ExecutionPlan.Schedule = domain.ScheduleImmediate
	}
	if len(d.Channels) == 0 {
		d.Channels = placeholderChannels(channelIDs)
	}
	for i := range d.Channels {
		if d.Channels[i].Personalization == nil {
			d.Channels[i].Personalization = map[string]any{}
		}
	}
	return d
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
