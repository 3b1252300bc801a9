package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

// GenerateCampaign drafts and stores a campaign for clientID.
func (s *Service) GenerateCampaign(ctx context.Context, text string, sourceIDs, channelIDs []string, clientID string) (*domain.Campaign, error) {
	if clientID == "" {
		return nil, &domain.ValidationError{Field: "client_id", Reason: "must not be empty"}
	}
	return s.generator.Generate(ctx, text, sourceIDs, channelIDs, clientID), nil
}

func (s *Service) ExecuteCampaign(ctx context.Context, campaignID string, params domain.ExecutionParams) (*domain.ExecutionRecord, error) {
	rec, err := s.executor.Execute(ctx, campaignID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to execute campaign: %w", err)
	}
	return rec, nil
}

func (s *Service) CampaignHistory(ctx context.Context, clientID string) []*domain.Campaign {
	return s.campaigns.History(ctx, clientID)
}

func (s *Service) GetCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

// CampaignExecutions returns every execution of a campaign, oldest first.
func (s *Service) CampaignExecutions(ctx context.Context, campaignID string) ([]*domain.ExecutionRecord, error) {
	recs, err := s.campaigns.Executions(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	return recs, nil
}

func (s *Service) GetExecution(executionID string) (*domain.ExecutionRecord, error) {
	rec, err := s.campaigns.GetExecution(executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return rec, nil
}

func (s *Service) ListChannels() []domain.ChannelInfo {
	return append([]domain.ChannelInfo(nil), domain.ChannelCatalog...)
}
