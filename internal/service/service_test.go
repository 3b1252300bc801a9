package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/marketing/internal/adapter/llm"
	"github.com/xiaot623/gogo/marketing/internal/config"
	"github.com/xiaot623/gogo/marketing/internal/domain"
	"github.com/xiaot623/gogo/marketing/internal/policy"
	"github.com/xiaot623/gogo/marketing/internal/protocol"
)

type recordingCompleter struct {
	mu       sync.Mutex
	requests []*llm.CompletionRequest
	reply    string
}

func (r *recordingCompleter) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return &llm.CompletionResponse{Content: r.reply}, nil
}

type channelRecorder struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (c *channelRecorder) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, data)
	return nil
}

func (c *channelRecorder) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.msgs...)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.MockConnectDelayMs = 0
	cfg.ChannelDispatchDelayMs = 0
	return cfg
}

func testClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestService(t *testing.T, completer llm.Completer) *Service {
	t.Helper()
	n := 0
	var mu sync.Mutex
	return New(testConfig(), Deps{
		Completer: completer,
		Now:       testClock(),
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
}

func TestSendMessageRecordsConversation(t *testing.T) {
	completer := &recordingCompleter{reply: "Try email."}
	svc := newTestService(t, completer)

	reply, err := svc.SendMessage(context.Background(), "hello", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Try email.", reply)

	history := svc.ChatHistory("c1")
	require.Len(t, history, 2)
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "hello"}, history[0])
	assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "Try email."}, history[1])

	require.Len(t, completer.requests, 1)
	req := completer.requests[0]
	assert.Equal(t, domain.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, SystemPrompt, req.Messages[0].Content)
	assert.Equal(t, 500, req.MaxTokens)
}

func TestSendMessageBoundsContextWindow(t *testing.T) {
	completer := &recordingCompleter{reply: "ok"}
	svc := newTestService(t, completer)

	for i := 0; i < 12; i++ {
		_, err := svc.SendMessage(context.Background(), fmt.Sprintf("m%d", i), "c1")
		require.NoError(t, err)
	}

	last := completer.requests[len(completer.requests)-1]
	assert.LessOrEqual(t, len(last.Messages), svc.config.ContextWindow+1)
	assert.Equal(t, "m11", last.Messages[len(last.Messages)-1].Content)
}

func TestSendMessageApologizesOnFailure(t *testing.T) {
	svc := newTestService(t, &llm.FailingClient{Err: errors.New("model unavailable")})

	reply, err := svc.SendMessage(context.Background(), "hello", "c1")
	require.NoError(t, err)
	assert.Equal(t, "I apologize, but I encountered an error: llm: model unavailable. Please try again.", reply)

	history := svc.ChatHistory("c1")
	require.Len(t, history, 1)
	assert.Equal(t, domain.RoleUser, history[0].Role)
}

func TestSendMessageRequiresClientID(t *testing.T) {
	svc := newTestService(t, llm.NewMockClient())

	_, err := svc.SendMessage(context.Background(), "hello", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClearHistory(t *testing.T) {
	svc := newTestService(t, llm.NewMockClient())
	_, err := svc.SendMessage(context.Background(), "hello", "c1")
	require.NoError(t, err)

	svc.ClearHistory("c1")
	assert.Empty(t, svc.ChatHistory("c1"))
}

func TestHandleRealtimeMessageRepliesThroughHub(t *testing.T) {
	svc := newTestService(t, &recordingCompleter{reply: "Hi there"})
	ch := &channelRecorder{}
	svc.Hub().Open("c1", ch)

	svc.HandleRealtimeMessage(context.Background(), "c1", []byte(`{"type":"chat_message","message":"hello","timestamp":"2024-06-01T10:00:00Z"}`))

	msgs := ch.received()
	require.Len(t, msgs, 1)
	var resp protocol.AIResponse
	require.NoError(t, json.Unmarshal(msgs[0], &resp))
	assert.Equal(t, protocol.TypeAIResponse, resp.Type)
	assert.Equal(t, "Hi there", resp.Content)
	assert.Equal(t, "2024-06-01T10:00:00Z", resp.Timestamp)
}

func TestHandleRealtimeMessageIgnoresUnknownFrames(t *testing.T) {
	completer := &recordingCompleter{reply: "unused"}
	svc := newTestService(t, completer)
	ch := &channelRecorder{}
	svc.Hub().Open("c1", ch)

	svc.HandleRealtimeMessage(context.Background(), "c1", []byte(`{"type":"typing"}`))
	svc.HandleRealtimeMessage(context.Background(), "c1", []byte(`not json`))

	assert.Empty(t, ch.received())
	assert.Empty(t, completer.requests)
	assert.Empty(t, svc.ChatHistory("c1"))
}

func TestDataSourceLifecycle(t *testing.T) {
	svc := newTestService(t, llm.NewMockClient())
	ctx := context.Background()

	assert.Len(t, svc.ListDataSources(), 3)

	conn, err := svc.ConnectDataSource(ctx, domain.SourceGoogleAds, map[string]any{"api_key": "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProvenanceMock, conn.Provenance)
	assert.Equal(t, "google_ads_20240601_100001", conn.ConnectionID)

	data, err := svc.GetSourceData(ctx, domain.SourceGoogleAds)
	require.NoError(t, err)
	assert.Equal(t, domain.ProvenanceMock, data.Provenance)
	assert.IsType(t, domain.AdPlatformData{}, data.Value)

	snap := svc.AggregateData(ctx, []string{domain.SourceGoogleAds})
	assert.Equal(t, int64(26690), snap.TotalAudienceSize)

	require.NoError(t, svc.DisconnectDataSource(conn.ConnectionID))
	assert.Empty(t, svc.ListConnections())

	err = svc.DisconnectDataSource(conn.ConnectionID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetSourceData(ctx, domain.SourceGoogleAds)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateAndExecuteCampaign(t *testing.T) {
	svc := newTestService(t, llm.NewMockClient())
	ctx := context.Background()

	c, err := svc.GenerateCampaign(ctx, "summer sale", nil, []string{"email", "sms"}, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Mock Campaign", c.Name)
	require.Len(t, c.Channels, 2)

	history := svc.CampaignHistory(ctx, "c1")
	require.Len(t, history, 1)
	assert.Equal(t, c.CampaignID, history[0].CampaignID)

	rec, err := svc.ExecuteCampaign(ctx, c.CampaignID, domain.ExecutionParams{})
	require.NoError(t, err)
	require.Len(t, rec.Channels, 2)
	assert.Equal(t, domain.ChannelStatusSent, rec.Channels[0].Status)
	assert.Equal(t, 1000, rec.Channels[0].Recipients)
	assert.Equal(t, 500, rec.Channels[1].Recipients)

	got, err := svc.GetExecution(rec.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, rec.CampaignID, got.CampaignID)

	stored, err := svc.GetCampaign(ctx, c.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusExecuted, stored.Status)

	execs, err := svc.CampaignExecutions(ctx, c.CampaignID)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, rec.ExecutionID, execs[0].ExecutionID)

	_, err = svc.CampaignExecutions(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExecuteCampaignErrors(t *testing.T) {
	svc := newTestService(t, llm.NewMockClient())

	_, err := svc.ExecuteCampaign(context.Background(), "missing", domain.ExecutionParams{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetExecution("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GenerateCampaign(context.Background(), "x", nil, nil, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExecuteCampaignAppliesPolicy(t *testing.T) {
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	svc := New(testConfig(), Deps{Completer: llm.NewMockClient(), Policy: engine})
	ctx := context.Background()
	c, err := svc.GenerateCampaign(ctx, "blast", nil, []string{"email", "sms"}, "c1")
	require.NoError(t, err)

	tooMany := 2_000_000
	rec, err := svc.ExecuteCampaign(ctx, c.CampaignID, domain.ExecutionParams{EmailRecipients: &tooMany})
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelStatusFailed, rec.Channels[0].Status)
	assert.Contains(t, rec.Channels[0].Error, "Blocked by policy")
	assert.Equal(t, domain.ChannelStatusSent, rec.Channels[1].Status)
}

func TestConfigurationReport(t *testing.T) {
	cfg := testConfig()
	cfg.UseRealDataSources = true
	cfg.Facebook = config.FacebookCredentials{AccessToken: "tok", PixelID: "px"}
	svc := New(cfg, Deps{Completer: llm.NewMockClient()})

	report := svc.Configuration()
	require.Len(t, report.DataSources, 3)
	assert.False(t, report.DataSources[0].RealData)
	assert.Equal(t, "Google Ads audience and campaign data (Mock)", report.DataSources[0].Description)
	assert.True(t, report.DataSources[1].RealData)
	assert.Equal(t, "Facebook Pixel events and audiences", report.DataSources[1].Description)
	assert.Len(t, report.Channels, 4)
	assert.True(t, report.Features["real_data_sources"])
	assert.Equal(t, "production", report.AppInfo.Environment)
}
