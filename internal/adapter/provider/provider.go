// Package provider implements the real marketing data providers: an ad
// platform, a pixel/event platform and a web-analytics platform.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

var (
	// ErrMissingCredentials is returned when connection data lacks a required field.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrUnsupportedSource is returned for a source id with no real provider.
	ErrUnsupportedSource = errors.New("unsupported source")
)

// Connector is a live handle to one provider account.
type Connector interface {
	SourceID() string
	// Test verifies the credentials with a cheap provider call.
	Test(ctx context.Context) error
	// Fetch returns the current metric payload.
	Fetch(ctx context.Context) (domain.Payload, error)
}

// Options configures provider endpoints and transport.
type Options struct {
	HTTPClient        *http.Client
	GoogleAdsBaseURL  string
	FacebookBaseURL   string
	AnalyticsEndpoint string
	Timeout           time.Duration
}

const (
	DefaultGoogleAdsBaseURL = "https://googleads.googleapis.com/v14"
	DefaultFacebookBaseURL  = "https://graph.facebook.com/v18.0"
)

// Dialer builds connectors from caller-supplied connection data.
type Dialer struct {
	opts Options
}

// NewDialer creates a Dialer, filling unset options with defaults.
func NewDialer(opts Options) *Dialer {
	if opts.GoogleAdsBaseURL == "" {
		opts.GoogleAdsBaseURL = DefaultGoogleAdsBaseURL
	}
	if opts.FacebookBaseURL == "" {
		opts.FacebookBaseURL = DefaultFacebookBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Dialer{opts: opts}
}

// Dial validates the credentials for sourceID, builds a connector and runs
// its connect test.
func (d *Dialer) Dial(ctx context.Context, sourceID string, creds map[string]any) (Connector, error) {
	c, err := d.build(ctx, sourceID, creds)
	if err != nil {
		return nil, err
	}
	if err := c.Test(ctx); err != nil {
		return nil, fmt.Errorf("%s connect test: %w", sourceID, err)
	}
	return c, nil
}

func (d *Dialer) build(ctx context.Context, sourceID string, creds map[string]any) (Connector, error) {
	switch sourceID {
	case domain.SourceGoogleAds:
		f, err := requireFields(creds, "api_key", "customer_id", "developer_token")
		if err != nil {
			return nil, err
		}
		return &GoogleAds{
			client:         d.tokenClient(ctx, f["api_key"]),
			baseURL:        d.opts.GoogleAdsBaseURL,
			customerID:     f["customer_id"],
			developerToken: f["developer_token"],
		}, nil
	case domain.SourceFacebookPixel:
		f, err := requireFields(creds, "access_token", "pixel_id")
		if err != nil {
			return nil, err
		}
		return &FacebookPixel{
			client:  d.tokenClient(ctx, f["access_token"]),
			baseURL: d.opts.FacebookBaseURL,
			pixelID: f["pixel_id"],
		}, nil
	case domain.SourceWebsite:
		f, err := requireFields(creds, "credentials_path", "property_id")
		if err != nil {
			return nil, err
		}
		return newAnalytics(ctx, f["credentials_path"], f["property_id"], d.opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, sourceID)
	}
}

// tokenClient returns an HTTP client that sends token as a bearer token.
func (d *Dialer) tokenClient(ctx context.Context, token string) *http.Client {
	if d.opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, d.opts.HTTPClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	client.Timeout = d.opts.Timeout
	return client
}

func requireFields(creds map[string]any, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	var missing []string
	for _, k := range keys {
		s, _ := creds[k].(string)
		if strings.TrimSpace(s) == "" {
			missing = append(missing, k)
			continue
		}
		out[k] = s
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return out, nil
}

// statusError is returned for a non-2xx provider response.
type statusError struct {
	Provider string
	Status   int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s API returned status %d", e.Provider, e.Status)
}
