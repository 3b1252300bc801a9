package provider

import (
	"context"
	"fmt"
	"math"
	"strconv"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

// Analytics reads site metrics from the GA4 Data API.
type Analytics struct {
	svc      *analyticsdata.Service
	property string
}

var lastThirtyDays = []*analyticsdata.DateRange{{StartDate: "30daysAgo", EndDate: "today"}}

func newAnalytics(ctx context.Context, credentialsPath, propertyID string, opts Options) (*Analytics, error) {
	var clientOpts []option.ClientOption
	if opts.AnalyticsEndpoint != "" {
		// Used against local stand-ins; no Google credentials are loaded.
		clientOpts = append(clientOpts,
			option.WithEndpoint(opts.AnalyticsEndpoint),
			option.WithoutAuthentication(),
		)
		if opts.HTTPClient != nil {
			clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
		}
	} else {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsPath))
	}

	svc, err := analyticsdata.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics client: %w", err)
	}
	return &Analytics{svc: svc, property: "properties/" + propertyID}, nil
}

func (a *Analytics) SourceID() string { return domain.SourceWebsite }

func (a *Analytics) Test(ctx context.Context) error {
	_, err := a.svc.Properties.GetMetadata(a.property + "/metadata").Context(ctx).Do()
	return err
}

func (a *Analytics) Fetch(ctx context.Context) (domain.Payload, error) {
	totals, err := a.svc.Properties.RunReport(a.property, &analyticsdata.RunReportRequest{
		DateRanges: lastThirtyDays,
		Metrics: []*analyticsdata.Metric{
			{Name: "sessions"},
			{Name: "bounceRate"},
			{Name: "averageSessionDuration"},
			{Name: "sessionKeyEventRate"},
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to run totals report: %w", err)
	}

	data := domain.WebAnalyticsData{TrafficSources: []domain.TrafficSource{}}
	if len(totals.Rows) > 0 {
		v := metricValues(totals.Rows[0])
		data.Analytics = domain.Analytics{
			Sessions:           int64(v(0)),
			BounceRate:         v(1),
			AvgSessionDuration: v(2),
			ConversionRate:     v(3),
		}
	}

	bySource, err := a.svc.Properties.RunReport(a.property, &analyticsdata.RunReportRequest{
		DateRanges: lastThirtyDays,
		Dimensions: []*analyticsdata.Dimension{{Name: "sessionDefaultChannelGroup"}},
		Metrics:    []*analyticsdata.Metric{{Name: "sessions"}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to run traffic report: %w", err)
	}

	var total float64
	for _, row := range bySource.Rows {
		total += metricValues(row)(0)
	}
	for _, row := range bySource.Rows {
		if len(row.DimensionValues) == 0 {
			continue
		}
		pct := 0.0
		if total > 0 {
			pct = math.Round(metricValues(row)(0)/total*1000) / 10
		}
		data.TrafficSources = append(data.TrafficSources, domain.TrafficSource{
			Source:     row.DimensionValues[0].Value,
			Percentage: pct,
		})
	}
	return data, nil
}

// metricValues returns an accessor yielding 0 for missing or malformed values.
func metricValues(row *analyticsdata.Row) func(i int) float64 {
	return func(i int) float64 {
		if i >= len(row.MetricValues) || row.MetricValues[i] == nil {
			return 0
		}
		f, err := strconv.ParseFloat(row.MetricValues[i].Value, 64)
		if err != nil {
			return 0
		}
		return f
	}
}
