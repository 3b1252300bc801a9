// Package config provides configuration for the campaign orchestrator.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the orchestrator configuration.
type Config struct {
	// Server settings
	HTTPPort          int `env:"HTTP_PORT" envDefault:"8000"`
	ShutdownTimeoutMs int `env:"SHUTDOWN_TIMEOUT_MS" envDefault:"10000"`

	// Read once at startup; gates every real-vs-mock branch.
	UseRealDataSources bool `env:"USE_REAL_DATA_SOURCES" envDefault:"false"`

	// LLM settings
	LLMMode              string  `env:"LLM_MODE"`
	OpenAIAPIKey         string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL        string  `env:"OPENAI_BASE_URL"`
	OpenAIModel          string  `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	LLMTimeoutMs         int     `env:"LLM_TIMEOUT_MS" envDefault:"30000"`
	LLMChatMaxTokens     int     `env:"LLM_CHAT_MAX_TOKENS" envDefault:"500"`
	LLMCampaignMaxTokens int     `env:"LLM_CAMPAIGN_MAX_TOKENS" envDefault:"800"`
	LLMTemperature       float32 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	ContextWindow        int     `env:"CONTEXT_WINDOW" envDefault:"10"`

	// Providers
	ProviderTimeoutMs  int `env:"PROVIDER_TIMEOUT_MS" envDefault:"10000"`
	MockConnectDelayMs int `env:"MOCK_CONNECT_DELAY_MS" envDefault:"500"`
	GoogleAds          GoogleAdsCredentials
	Facebook           FacebookCredentials
	GoogleAnalytics    GoogleAnalyticsCredentials

	// Execution
	ChannelDispatchDelayMs int    `env:"CHANNEL_DISPATCH_DELAY_MS" envDefault:"100"`
	ChannelPolicyPath      string `env:"CHANNEL_POLICY_PATH"`

	// Archive
	ArchiveDSN string `env:"ARCHIVE_DSN"`

	// WebSocket settings
	PingIntervalMs int   `env:"WS_PING_INTERVAL_MS" envDefault:"30000"`
	WriteTimeoutMs int   `env:"WS_WRITE_TIMEOUT_MS" envDefault:"10000"`
	ReadTimeoutMs  int   `env:"WS_READ_TIMEOUT_MS" envDefault:"60000"`
	MaxMessageSize int64 `env:"WS_MAX_MESSAGE_SIZE" envDefault:"65536"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"DEBUG" envDefault:"false"`
}

// GoogleAdsCredentials are the env-provided ad-platform credentials.
type GoogleAdsCredentials struct {
	APIKey         string `env:"GOOGLE_ADS_API_KEY"`
	CustomerID     string `env:"GOOGLE_ADS_CUSTOMER_ID"`
	DeveloperToken string `env:"GOOGLE_ADS_DEVELOPER_TOKEN"`
}

// Complete reports whether every credential is set.
func (c GoogleAdsCredentials) Complete() bool {
	return c.APIKey != "" && c.CustomerID != "" && c.DeveloperToken != ""
}

// FacebookCredentials are the env-provided pixel-platform credentials.
type FacebookCredentials struct {
	AccessToken string `env:"FACEBOOK_ACCESS_TOKEN"`
	PixelID     string `env:"FACEBOOK_PIXEL_ID"`
}

// Complete reports whether every credential is set.
func (c FacebookCredentials) Complete() bool {
	return c.AccessToken != "" && c.PixelID != ""
}

// GoogleAnalyticsCredentials are the env-provided web-analytics credentials.
type GoogleAnalyticsCredentials struct {
	CredentialsPath string `env:"GOOGLE_ANALYTICS_CREDENTIALS_PATH"`
	PropertyID      string `env:"GOOGLE_ANALYTICS_PROPERTY_ID"`
}

// Complete reports whether every credential is set.
func (c GoogleAnalyticsCredentials) Complete() bool {
	return c.CredentialsPath != "" && c.PropertyID != ""
}

// Load reads an optional .env file and then parses the environment.
func Load(dotenvPaths ...string) (*Config, error) {
	if len(dotenvPaths) == 0 {
		dotenvPaths = []string{".env"}
	}
	for _, p := range dotenvPaths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", p, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration with every default applied and no env lookup.
func Default() *Config {
	cfg := &Config{}
	_ = env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMs) * time.Millisecond
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutMs) * time.Millisecond
}

func (c *Config) MockConnectDelay() time.Duration {
	return time.Duration(c.MockConnectDelayMs) * time.Millisecond
}

func (c *Config) ChannelDispatchDelay() time.Duration {
	return time.Duration(c.ChannelDispatchDelayMs) * time.Millisecond
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalMs) * time.Millisecond
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMs) * time.Millisecond
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}

// Environment names the deployment environment reported by the config endpoint.
func (c *Config) Environment() string {
	if c.Debug {
		return "development"
	}
	return "production"
}
