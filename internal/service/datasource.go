package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

func (s *Service) ListDataSources() []domain.SourceInfo {
	return append([]domain.SourceInfo(nil), domain.SourceCatalog...)
}

func (s *Service) ConnectDataSource(ctx context.Context, sourceID string, connectionData map[string]any) (domain.SourceConnection, error) {
	conn, err := s.sources.Connect(ctx, sourceID, connectionData)
	if err != nil {
		return domain.SourceConnection{}, fmt.Errorf("failed to connect data source: %w", err)
	}
	return conn, nil
}

func (s *Service) ListConnections() []domain.SourceConnection {
	return s.sources.List()
}

func (s *Service) DisconnectDataSource(connectionID string) error {
	if err := s.sources.Disconnect(connectionID); err != nil {
		return fmt.Errorf("failed to disconnect data source: %w", err)
	}
	return nil
}

// GetSourceData returns the current payload of a connected source along
// with where it came from.
func (s *Service) GetSourceData(ctx context.Context, sourceID string) (domain.Sourced[domain.Payload], error) {
	data, err := s.sources.Fetch(ctx, sourceID)
	if err != nil {
		return data, fmt.Errorf("failed to get source data: %w", err)
	}
	return data, nil
}

func (s *Service) AggregateData(ctx context.Context, sourceIDs []string) *domain.AggregateSnapshot {
	return s.aggregator.Aggregate(ctx, sourceIDs)
}
