package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/gogo/marketing/internal/domain"
	"github.com/xiaot623/gogo/marketing/internal/policy"
)

// DefaultRecipients is the recipient count used when the caller gives none.
var DefaultRecipients = map[string]int{
	domain.ChannelEmail:    1000,
	domain.ChannelSMS:      500,
	domain.ChannelWhatsApp: 200,
	domain.ChannelPush:     1500,
}

var defaultMessages = map[string]string{
	domain.ChannelEmail:    "Default email message",
	domain.ChannelSMS:      "Default SMS message",
	domain.ChannelWhatsApp: "Default WhatsApp message",
	domain.ChannelPush:     "Default push message",
}

// Policy decides whether a channel dispatch may proceed.
type Policy interface {
	Evaluate(ctx context.Context, in policy.Input) (string, string, error)
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// DispatchDelay is the simulated latency of one channel dispatch.
	DispatchDelay time.Duration
	Now           func() time.Time
	NewID         func() string
	Logger        *zap.Logger
}

// Executor dispatches campaigns per channel and records the outcome.
type Executor struct {
	store  *Store
	policy Policy
	opts   ExecutorOptions
	logger *zap.Logger
}

// NewExecutor creates an Executor. policy may be nil to allow everything.
func NewExecutor(store *Store, p Policy, opts ExecutorOptions) *Executor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Executor{store: store, policy: p, opts: opts, logger: opts.Logger}
}

// Execute dispatches every channel of the campaign concurrently and stores a
// new ExecutionRecord. A failing channel only affects its own result entry.
func (e *Executor) Execute(ctx context.Context, campaignID string, params domain.ExecutionParams) (*domain.ExecutionRecord, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c, err := e.store.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ChannelResult, len(c.Channels))
	var g errgroup.Group
	for i, ch := range c.Channels {
		g.Go(func() error {
			results[i] = e.dispatch(ctx, c, ch, params)
			return nil
		})
	}
	_ = g.Wait()

	rec := &domain.ExecutionRecord{
		ExecutionID:   e.opts.NewID(),
		CampaignID:    campaignID,
		Status:        domain.ExecutionStatusExecuted,
		Channels:      results,
		ExecutedAt:    e.opts.Now(),
		ExecutionData: params,
	}
	e.store.SaveExecution(ctx, rec)
	if _, err := e.store.MarkExecuted(ctx, campaignID); err != nil {
		return nil, fmt.Errorf("failed to mark campaign executed: %w", err)
	}

	e.logger.Info("campaign executed",
		zap.String("campaign_id", campaignID),
		zap.String("execution_id", rec.ExecutionID),
		zap.Int("channels", len(results)),
	)
	return rec, nil
}

func (e *Executor) dispatch(ctx context.Context, c *domain.Campaign, ch domain.ChannelConfig, params domain.ExecutionParams) domain.ChannelResult {
	def, supported := DefaultRecipients[ch.Type]
	if !supported {
		return failed(ch.Type, fmt.Sprintf("Unsupported channel: %s", ch.Type))
	}

	recipients := def
	if n, ok := params.Recipients(ch.Type); ok {
		recipients = n
	}

	if e.policy != nil {
		decision, reason, err := e.policy.Evaluate(ctx, policy.Input{
			CampaignID: c.CampaignID,
			Channel:    ch.Type,
			Recipients: recipients,
			Budget:     c.ExecutionPlan.Budget,
		})
		if err != nil {
			e.logger.Warn("policy evaluation failed", zap.String("channel", ch.Type), zap.Error(err))
			return failed(ch.Type, fmt.Sprintf("policy evaluation failed: %v", err))
		}
		if decision == policy.DecisionBlock {
			if reason == "" {
				reason = "blocked by policy"
			}
			return failed(ch.Type, fmt.Sprintf("Blocked by policy: %s", reason))
		}
	}

	if err := e.simulateSend(ctx); err != nil {
		return failed(ch.Type, fmt.Sprintf("dispatch interrupted: %v", err))
	}

	message := ch.Content
	if message == "" {
		message = defaultMessages[ch.Type]
	}
	return domain.ChannelResult{
		Channel:      ch.Type,
		Status:       domain.ChannelStatusSent,
		Recipients:   recipients,
		Message:      message,
		ScheduledFor: params.Schedule(),
	}
}

func (e *Executor) simulateSend(ctx context.Context) error {
	if e.opts.DispatchDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(e.opts.DispatchDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func failed(channel, msg string) domain.ChannelResult {
	return domain.ChannelResult{
		Channel: channel,
		Status:  domain.ChannelStatusFailed,
		Error:   msg,
	}
}
