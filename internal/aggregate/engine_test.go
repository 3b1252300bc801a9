package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xiaot623/gogo/marketing/internal/adapter/provider"
	"github.com/xiaot623/gogo/marketing/internal/datasource"
	"github.com/xiaot623/gogo/marketing/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

type fakeConnector struct {
	payload domain.Payload
	err     error
	delay   time.Duration
}

func (f *fakeConnector) SourceID() string { return f.payload.SourceID() }

func (f *fakeConnector) Test(ctx context.Context) error { return nil }

func (f *fakeConnector) Fetch(ctx context.Context) (domain.Payload, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

// fakeSources serves fixtures for connected ids and optional real connectors.
type fakeSources struct {
	connected map[string]bool
	real      map[string]provider.Connector
}

func (f *fakeSources) DataFor(sourceID string) (domain.Payload, error) {
	if !f.connected[sourceID] {
		return nil, &domain.NotConnectedError{SourceID: sourceID}
	}
	p, ok := datasource.MockPayload(sourceID)
	if !ok {
		return nil, &domain.NotFoundError{Kind: "source data", ID: sourceID}
	}
	return p, nil
}

func (f *fakeSources) RealConnector(sourceID string) (provider.Connector, bool) {
	c, ok := f.real[sourceID]
	return c, ok
}

func connected(ids ...string) *fakeSources {
	s := &fakeSources{connected: map[string]bool{}, real: map[string]provider.Connector{}}
	for _, id := range ids {
		s.connected[id] = true
	}
	return s
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestAggregateGoogleAdsFixture(t *testing.T) {
	e := NewEngine(connected(domain.SourceGoogleAds), Options{})

	snap := e.Aggregate(context.Background(), []string{domain.SourceGoogleAds})

	assert.Equal(t, int64(26690), snap.TotalAudienceSize)
	assert.InDelta(t, 0.0328, snap.EngagementMetrics[KeyGoogleAds][KeyAvgCTR], 1e-9)
	assert.Equal(t, domain.ProvenanceMock, snap.Provenance)
}

func TestAggregateAllSources(t *testing.T) {
	e := NewEngine(connected(domain.SourceGoogleAds, domain.SourceFacebookPixel, domain.SourceWebsite), Options{})

	snap := e.Aggregate(context.Background(), []string{
		domain.SourceGoogleAds, domain.SourceFacebookPixel, domain.SourceWebsite,
	})

	want := &domain.AggregateSnapshot{
		TotalAudienceSize: 26690,
		EngagementMetrics: map[string]domain.SourceMetrics{
			KeyGoogleAds: {KeyAvgCTR: 0.0328},
		},
		ConversionData: map[string]domain.SourceMetrics{
			KeyFacebook: {
				KeyTotalEvents:       int64(141848),
				KeyAvgConversionRate: (0.12 + 0.08 + 0.15) / 3,
			},
		},
		TrafficInsights: map[string]any{
			"sessions":             int64(45600),
			"bounce_rate":          0.35,
			"avg_session_duration": 180.0,
			"conversion_rate":      0.08,
		},
		Provenance: domain.ProvenanceMock,
	}
	if diff := cmp.Diff(want, snap, approx); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateSkipsFailingSources(t *testing.T) {
	e := NewEngine(connected(domain.SourceWebsite, "tiktok"), Options{})

	snap := e.Aggregate(context.Background(), []string{
		domain.SourceGoogleAds, "tiktok", domain.SourceWebsite,
	})

	assert.Zero(t, snap.TotalAudienceSize)
	assert.Empty(t, snap.EngagementMetrics)
	assert.Equal(t, int64(45600), snap.TrafficInsights["sessions"])
}

func TestAggregateEmptyCampaignListUsesDivisorOne(t *testing.T) {
	snap := domain.NewAggregateSnapshot(domain.ProvenanceMock)

	Combine(snap, domain.AdPlatformData{Audiences: []domain.AdAudience{{Size: 5}}})
	Combine(snap, domain.PixelData{})

	assert.Equal(t, int64(5), snap.TotalAudienceSize)
	assert.Equal(t, 0.0, snap.EngagementMetrics[KeyGoogleAds][KeyAvgCTR])
	assert.Equal(t, 0.0, snap.ConversionData[KeyFacebook][KeyAvgConversionRate])
}

func TestAggregateRealStage(t *testing.T) {
	sources := connected(domain.SourceGoogleAds, domain.SourceFacebookPixel)
	sources.real[domain.SourceGoogleAds] = &fakeConnector{payload: domain.AdPlatformData{
		Audiences: []domain.AdAudience{{Size: 100}, {Size: 50}},
		Campaigns: []domain.AdCampaign{{CTR: 0.1}},
	}}
	sources.real[domain.SourceFacebookPixel] = &fakeConnector{
		payload: domain.PixelData{},
		err:     errors.New("rate limited"),
	}
	e := NewEngine(sources, Options{UseRealSources: true})

	snap := e.Aggregate(context.Background(), []string{domain.SourceGoogleAds, domain.SourceFacebookPixel})

	assert.Equal(t, domain.ProvenanceReal, snap.Provenance)
	assert.Equal(t, int64(150), snap.TotalAudienceSize)
	assert.NotContains(t, snap.ConversionData, KeyFacebook)
}

func TestAggregateRealStageFallsBackWhenNothingContributes(t *testing.T) {
	sources := connected(domain.SourceGoogleAds)
	sources.real[domain.SourceGoogleAds] = &fakeConnector{
		payload: domain.AdPlatformData{},
		delay:   time.Second,
	}
	e := NewEngine(sources, Options{UseRealSources: true, ProviderTimeout: 10 * time.Millisecond})

	snap := e.Aggregate(context.Background(), []string{domain.SourceGoogleAds})

	require.Equal(t, domain.ProvenanceMock, snap.Provenance)
	assert.Equal(t, int64(26690), snap.TotalAudienceSize)
}

func TestAggregateReflectsLatestRegistryState(t *testing.T) {
	sources := connected()
	e := NewEngine(sources, Options{})

	before := e.Aggregate(context.Background(), []string{domain.SourceGoogleAds})
	sources.connected[domain.SourceGoogleAds] = true
	after := e.Aggregate(context.Background(), []string{domain.SourceGoogleAds})

	assert.Zero(t, before.TotalAudienceSize)
	assert.Equal(t, int64(26690), after.TotalAudienceSize)
}
