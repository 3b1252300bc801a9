package datasource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/marketing/internal/adapter/provider"
	"github.com/xiaot623/gogo/marketing/internal/domain"
)

type fakeConnector struct {
	sourceID string
	payload  domain.Payload
	fetchErr error
}

func (f *fakeConnector) SourceID() string { return f.sourceID }
func (f *fakeConnector) Test(ctx context.Context) error { return nil }
func (f *fakeConnector) Fetch(ctx context.Context) (domain.Payload, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.payload, nil
}

type fakeDialer struct {
	connector provider.Connector
	err       error
	calls     int
}

func (d *fakeDialer) Dial(ctx context.Context, sourceID string, creds map[string]any) (provider.Connector, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.connector, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var noon = time.Date(2024, 3, 5, 12, 0, 7, 0, time.UTC)

func TestConnectMockWhenRealDisabled(t *testing.T) {
	dialer := &fakeDialer{connector: &fakeConnector{}}
	r := NewRegistry(Options{Dialer: dialer, Now: fixedClock(noon)})

	conn, err := r.Connect(context.Background(), domain.SourceGoogleAds, map[string]any{"api_key": "k"})
	require.NoError(t, err)

	assert.Equal(t, "google_ads_20240305_120007", conn.ConnectionID)
	assert.Equal(t, domain.ProvenanceMock, conn.Provenance)
	assert.Equal(t, domain.ConnectionStatusConnected, conn.Status)
	assert.Equal(t, noon, conn.ConnectedAt)
	assert.Zero(t, dialer.calls)
}

func TestConnectRealSuccess(t *testing.T) {
	dialer := &fakeDialer{connector: &fakeConnector{sourceID: domain.SourceGoogleAds}}
	r := NewRegistry(Options{UseRealSources: true, Dialer: dialer, Now: fixedClock(noon)})

	conn, err := r.Connect(context.Background(), domain.SourceGoogleAds, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ProvenanceReal, conn.Provenance)
	c, ok := r.RealConnector(domain.SourceGoogleAds)
	require.True(t, ok)
	assert.Same(t, dialer.connector, c)
}

func TestConnectFallsBackToMockOnDialFailure(t *testing.T) {
	dialer := &fakeDialer{err: provider.ErrMissingCredentials}
	r := NewRegistry(Options{UseRealSources: true, Dialer: dialer, Now: fixedClock(noon)})

	conn, err := r.Connect(context.Background(), domain.SourceFacebookPixel, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, 1, dialer.calls)
	assert.Equal(t, domain.ProvenanceMock, conn.Provenance)
	_, ok := r.RealConnector(domain.SourceFacebookPixel)
	assert.False(t, ok)
}

func TestConnectRejectsEmptySource(t *testing.T) {
	r := NewRegistry(Options{})

	_, err := r.Connect(context.Background(), "", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConnectSameSecondGetsSuffix(t *testing.T) {
	r := NewRegistry(Options{Now: fixedClock(noon)})

	first, err := r.Connect(context.Background(), domain.SourceWebsite, nil)
	require.NoError(t, err)
	second, err := r.Connect(context.Background(), domain.SourceWebsite, nil)
	require.NoError(t, err)
	third, err := r.Connect(context.Background(), domain.SourceWebsite, nil)
	require.NoError(t, err)

	assert.Equal(t, "website_20240305_120007", first.ConnectionID)
	assert.Equal(t, "website_20240305_120007_2", second.ConnectionID)
	assert.Equal(t, "website_20240305_120007_3", third.ConnectionID)
	assert.Len(t, r.List(), 3)
}

func TestConnectDifferentSecondsAreUnique(t *testing.T) {
	now := noon
	r := NewRegistry(Options{Now: func() time.Time { return now }})

	first, _ := r.Connect(context.Background(), domain.SourceGoogleAds, nil)
	now = now.Add(time.Second)
	second, _ := r.Connect(context.Background(), domain.SourceGoogleAds, nil)

	assert.Equal(t, "google_ads_20240305_120007", first.ConnectionID)
	assert.Equal(t, "google_ads_20240305_120008", second.ConnectionID)
}

func TestConcurrentConnectsNeverOverwrite(t *testing.T) {
	r := NewRegistry(Options{Now: fixedClock(noon)})

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := r.Connect(context.Background(), domain.SourceGoogleAds, nil)
			assert.NoError(t, err)
			ids[i] = conn.ConnectionID
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, r.List(), 20)
}

func TestConnectMockDelayHonoursContext(t *testing.T) {
	r := NewRegistry(Options{MockDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn, err := r.Connect(ctx, domain.SourceWebsite, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ProvenanceMock, conn.Provenance)
}

func TestDisconnect(t *testing.T) {
	r := NewRegistry(Options{Now: fixedClock(noon)})

	err := r.Disconnect("never_issued")
	require.ErrorIs(t, err, domain.ErrNotFound)
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "never_issued", nf.ID)

	conn, _ := r.Connect(context.Background(), domain.SourceGoogleAds, nil)
	require.NoError(t, r.Disconnect(conn.ConnectionID))

	assert.Empty(t, r.List())
	assert.False(t, r.Connected(domain.SourceGoogleAds))
}

func TestDataFor(t *testing.T) {
	r := NewRegistry(Options{})

	_, err := r.DataFor(domain.SourceGoogleAds)
	var nc *domain.NotConnectedError
	require.True(t, errors.As(err, &nc))
	assert.Equal(t, domain.SourceGoogleAds, nc.SourceID)

	_, _ = r.Connect(context.Background(), domain.SourceGoogleAds, nil)
	payload, err := r.DataFor(domain.SourceGoogleAds)
	require.NoError(t, err)
	ads := payload.(domain.AdPlatformData)
	assert.Len(t, ads.Audiences, 3)
	assert.Len(t, ads.Campaigns, 2)

	_, _ = r.Connect(context.Background(), "tiktok", nil)
	_, err = r.DataFor("tiktok")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "source data")
}

func TestFetchPrefersRealConnector(t *testing.T) {
	live := domain.AdPlatformData{Audiences: []domain.AdAudience{{Name: "Live", Size: 1}}}
	dialer := &fakeDialer{connector: &fakeConnector{payload: live}}
	r := NewRegistry(Options{UseRealSources: true, Dialer: dialer})

	_, _ = r.Connect(context.Background(), domain.SourceGoogleAds, nil)

	got, err := r.Fetch(context.Background(), domain.SourceGoogleAds)
	require.NoError(t, err)
	assert.Equal(t, domain.ProvenanceReal, got.Provenance)
	assert.Equal(t, live, got.Value)
}

func TestFetchFallsBackToFixture(t *testing.T) {
	dialer := &fakeDialer{connector: &fakeConnector{fetchErr: errors.New("quota exceeded")}}
	r := NewRegistry(Options{UseRealSources: true, Dialer: dialer})

	_, _ = r.Connect(context.Background(), domain.SourceGoogleAds, nil)

	got, err := r.Fetch(context.Background(), domain.SourceGoogleAds)
	require.NoError(t, err)
	assert.Equal(t, domain.ProvenanceMock, got.Provenance)
	fixture, _ := MockPayload(domain.SourceGoogleAds)
	assert.Equal(t, fixture, got.Value)

	_, err = r.Fetch(context.Background(), domain.SourceWebsite)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
