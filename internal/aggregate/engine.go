// Package aggregate combines per-source metrics into one normalized snapshot.
package aggregate

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/gogo/marketing/internal/adapter/provider"
	"github.com/xiaot623/gogo/marketing/internal/domain"
)

// Metric keys of the normalized snapshot.
const (
	KeyGoogleAds         = "google_ads"
	KeyFacebook          = "facebook"
	KeyAvgCTR            = "avg_ctr"
	KeyTotalEvents       = "total_events"
	KeyAvgConversionRate = "avg_conversion_rate"
)

// Sources is the view of the data source registry the engine reads.
type Sources interface {
	DataFor(sourceID string) (domain.Payload, error)
	RealConnector(sourceID string) (provider.Connector, bool)
}

// Options configures an Engine.
type Options struct {
	UseRealSources  bool
	ProviderTimeout time.Duration
	Logger          *zap.Logger
}

// Engine computes aggregates. It keeps no cache; every call reads the
// current registry state.
type Engine struct {
	sources Sources
	opts    Options
	logger  *zap.Logger
}

// NewEngine creates an Engine over sources.
func NewEngine(sources Sources, opts Options) *Engine {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{sources: sources, opts: opts, logger: opts.Logger}
}

// Aggregate returns the real snapshot when real sources are enabled and at
// least one real provider contributed, and the mock snapshot otherwise.
func (e *Engine) Aggregate(ctx context.Context, sourceIDs []string) *domain.AggregateSnapshot {
	if e.opts.UseRealSources {
		if res := e.realStage(ctx, sourceIDs); res.Provenance.IsReal() {
			return res.Value
		}
	}
	return e.mockStage(sourceIDs)
}

// realStage fetches every connected real provider in parallel. A provider
// that fails or times out is skipped. The result is tagged real only when
// some provider contributed.
func (e *Engine) realStage(ctx context.Context, sourceIDs []string) domain.Sourced[*domain.AggregateSnapshot] {
	payloads := make([]domain.Payload, len(sourceIDs))

	// Errors are absorbed per source, so the group never cancels siblings.
	var g errgroup.Group
	for i, id := range sourceIDs {
		c, ok := e.sources.RealConnector(id)
		if !ok {
			continue
		}
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, e.opts.ProviderTimeout)
			defer cancel()
			p, err := c.Fetch(fctx)
			if err != nil {
				e.logger.Warn("real source fetch failed",
					zap.String("source_id", id),
					zap.Error(err),
				)
				return nil
			}
			payloads[i] = p
			return nil
		})
	}
	_ = g.Wait()

	snap := domain.NewAggregateSnapshot(domain.ProvenanceReal)
	contributed := 0
	for _, p := range payloads {
		if p == nil {
			continue
		}
		Combine(snap, p)
		contributed++
	}
	if contributed == 0 {
		return domain.Mock(snap)
	}
	return domain.Real(snap)
}

func (e *Engine) mockStage(sourceIDs []string) *domain.AggregateSnapshot {
	snap := domain.NewAggregateSnapshot(domain.ProvenanceMock)
	for _, id := range sourceIDs {
		p, err := e.sources.DataFor(id)
		if err != nil {
			e.logger.Debug("skipping source in aggregate",
				zap.String("source_id", id),
				zap.Error(err),
			)
			continue
		}
		Combine(snap, p)
	}
	return snap
}

// Combine folds one payload into snap.
func Combine(snap *domain.AggregateSnapshot, p domain.Payload) {
	switch data := p.(type) {
	case domain.AdPlatformData:
		for _, a := range data.Audiences {
			snap.TotalAudienceSize += a.Size
		}
		var ctr float64
		for _, c := range data.Campaigns {
			ctr += c.CTR
		}
		snap.EngagementMetrics[KeyGoogleAds] = domain.SourceMetrics{
			KeyAvgCTR: ctr / float64(max(len(data.Campaigns), 1)),
		}
	case domain.PixelData:
		var total int64
		var rate float64
		for _, ev := range data.Events {
			total += ev.Count
			rate += ev.ConversionRate
		}
		snap.ConversionData[KeyFacebook] = domain.SourceMetrics{
			KeyTotalEvents:       total,
			KeyAvgConversionRate: rate / float64(max(len(data.Events), 1)),
		}
	case domain.WebAnalyticsData:
		snap.TrafficInsights = data.Analytics.AsMap()
	}
}
