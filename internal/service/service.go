// Package service exposes the campaign orchestrator operations to the
// transports. It owns every shared store and wires them together once.
package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/marketing/internal/adapter/llm"
	"github.com/xiaot623/gogo/marketing/internal/adapter/provider"
	"github.com/xiaot623/gogo/marketing/internal/aggregate"
	"github.com/xiaot623/gogo/marketing/internal/campaign"
	"github.com/xiaot623/gogo/marketing/internal/config"
	"github.com/xiaot623/gogo/marketing/internal/conversation"
	"github.com/xiaot623/gogo/marketing/internal/datasource"
	"github.com/xiaot623/gogo/marketing/internal/hub"
)

// Deps are the collaborators injected into the Service. Only Completer is
// required; everything else has a working default.
type Deps struct {
	Completer llm.Completer
	// Policy gates channel dispatch. Nil allows every dispatch.
	Policy campaign.Policy
	// Archive mirrors campaigns and executions. Nil disables mirroring.
	Archive campaign.Archive
	// Dialer opens real provider connections. Defaults to provider.NewDialer.
	Dialer datasource.Dialer
	Now    func() time.Time
	NewID  func() string
	Logger *zap.Logger
}

type Service struct {
	config        *config.Config
	hub           *hub.Hub
	conversations *conversation.Store
	sources       *datasource.Registry
	aggregator    *aggregate.Engine
	campaigns     *campaign.Store
	generator     *campaign.Generator
	executor      *campaign.Executor
	llm           llm.Completer
	now           func() time.Time
	logger        *zap.Logger
}

func New(cfg *config.Config, deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Completer == nil {
		deps.Completer = llm.NewMockClient()
	}
	if deps.Dialer == nil {
		deps.Dialer = provider.NewDialer(provider.Options{Timeout: cfg.ProviderTimeout()})
	}
	logger := deps.Logger

	sources := datasource.NewRegistry(datasource.Options{
		UseRealSources:  cfg.UseRealDataSources,
		Dialer:          deps.Dialer,
		ProviderTimeout: cfg.ProviderTimeout(),
		MockDelay:       cfg.MockConnectDelay(),
		Now:             deps.Now,
		Logger:          logger.Named("datasource"),
	})
	aggregator := aggregate.NewEngine(sources, aggregate.Options{
		UseRealSources:  cfg.UseRealDataSources,
		ProviderTimeout: cfg.ProviderTimeout(),
		Logger:          logger.Named("aggregate"),
	})
	campaigns := campaign.NewStore(deps.Archive, logger.Named("campaign"))

	return &Service{
		config:        cfg,
		hub:           hub.NewHub(logger.Named("hub")),
		conversations: conversation.NewStore(),
		sources:       sources,
		aggregator:    aggregator,
		campaigns:     campaigns,
		generator: campaign.NewGenerator(aggregator, deps.Completer, campaigns, campaign.GeneratorOptions{
			MaxTokens:   cfg.LLMCampaignMaxTokens,
			Temperature: cfg.LLMTemperature,
			Now:         deps.Now,
			NewID:       deps.NewID,
			Logger:      logger.Named("generator"),
		}),
		executor: campaign.NewExecutor(campaigns, deps.Policy, campaign.ExecutorOptions{
			DispatchDelay: cfg.ChannelDispatchDelay(),
			Now:           deps.Now,
			NewID:         deps.NewID,
			Logger:        logger.Named("executor"),
		}),
		llm:    deps.Completer,
		now:    deps.Now,
		logger: logger,
	}
}

// Hub returns the connection registry shared with the real-time transport.
func (s *Service) Hub() *hub.Hub {
	return s.hub
}

// ActiveConnections lists the client ids with a live real-time channel.
func (s *Service) ActiveConnections() []string {
	return s.hub.ListActive()
}
