package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Webhook  WebhookConfig  `json:"webhook"`
	Channels ChannelsConfig `json:"channels"`
	mu       sync.RWMutex
}

// WebhookConfig points at the automation flow that answers chat messages.
// Fallbacks are alternate endpoints tried in order when the primary fails
// hard; they are not retries of the same endpoint.
type WebhookConfig struct {
	URL       string   `json:"url" env:"HOOKCHAT_WEBHOOK_URL"`
	Fallbacks []string `json:"fallbacks,omitempty" env:"HOOKCHAT_WEBHOOK_FALLBACKS"`
}

type ChannelsConfig struct {
	WebChat WebChatConfig `json:"webchat"`
}

type WebChatConfig struct {
	Enabled       bool   `json:"enabled" env:"HOOKCHAT_CHANNELS_WEBCHAT_ENABLED"`
	Host          string `json:"host" env:"HOOKCHAT_CHANNELS_WEBCHAT_HOST"`
	Port          int    `json:"port" env:"HOOKCHAT_CHANNELS_WEBCHAT_PORT"`
	RatePerMinute int    `json:"rate_per_minute" env:"HOOKCHAT_CHANNELS_WEBCHAT_RATE_PER_MINUTE"` // 0 disables rate limiting
}

func DefaultConfig() *Config {
	return &Config{
		Webhook: WebhookConfig{
			URL:       "",
			Fallbacks: []string{},
		},
		Channels: ChannelsConfig{
			WebChat: WebChatConfig{
				Enabled:       true,
				Host:          "0.0.0.0",
				Port:          18900,
				RatePerMinute: 30,
			},
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Support full config from env var (for containers / serverless)
	if cfgJSON := os.Getenv("HOOKCHAT_CONFIG_JSON"); cfgJSON != "" {
		if err := json.Unmarshal([]byte(cfgJSON), cfg); err != nil {
			return nil, fmt.Errorf("parsing HOOKCHAT_CONFIG_JSON: %w", err)
		}
		if err := env.Parse(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the parts of the config every entrypoint needs.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if strings.TrimSpace(c.Webhook.URL) == "" {
		return fmt.Errorf("webhook.url is required (or set HOOKCHAT_WEBHOOK_URL)")
	}
	return nil
}

func (c *Config) WebhookURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Webhook.URL
}

func (c *Config) WebhookFallbacks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.Webhook.Fallbacks))
	copy(out, c.Webhook.Fallbacks)
	return out
}
