package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
)

// PlatformCredentials is one platform's credential bundle. A platform with
// no access token is treated as not configured and is silently skipped.
type PlatformCredentials struct {
	AppID         string
	AppSecret     string
	AccessToken   string
	WebhookSecret string
}

// IsConfigured reports whether this platform has enough credentials to be
// used at all.
func (c PlatformCredentials) IsConfigured() bool {
	return c.AccessToken != ""
}

// Config holds all configuration for the integration service.
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	CaptureSchedule string // "hourly" or "daily"
	TimeZone        string

	// Azure Storage configuration (run-report archive)
	StorageAccount   string
	StorageContainer string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Per-platform API credentials
	Facebook  PlatformCredentials
	Instagram PlatformCredentials
	LinkedIn  PlatformCredentials
	Twitter   PlatformCredentials
	TikTok    PlatformCredentials
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Debug:           getBoolEnv("DEBUG", false),
		CaptureSchedule: getEnv("CAPTURE_SCHEDULE", "hourly"),
		TimeZone:        getEnv("TIMEZONE", "UTC"),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "integration-runs"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		Facebook: PlatformCredentials{
			AppID:         getEnv("FACEBOOK_APP_ID", ""),
			AppSecret:     getEnv("FACEBOOK_APP_SECRET", ""),
			AccessToken:   getEnv("FACEBOOK_ACCESS_TOKEN", ""),
			WebhookSecret: getEnv("FACEBOOK_WEBHOOK_SECRET", ""),
		},
		Instagram: PlatformCredentials{
			AppID:         getEnv("INSTAGRAM_APP_ID", ""),
			AppSecret:     getEnv("INSTAGRAM_APP_SECRET", ""),
			AccessToken:   getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			WebhookSecret: getEnv("INSTAGRAM_WEBHOOK_SECRET", ""),
		},
		LinkedIn: PlatformCredentials{
			AppID:       getEnv("LINKEDIN_CLIENT_ID", ""),
			AppSecret:   getEnv("LINKEDIN_CLIENT_SECRET", ""),
			AccessToken: getEnv("LINKEDIN_ACCESS_TOKEN", ""),
		},
		Twitter: PlatformCredentials{
			AppID:         getEnv("TWITTER_API_KEY", ""),
			AppSecret:     getEnv("TWITTER_API_SECRET", ""),
			AccessToken:   getEnv("TWITTER_BEARER_TOKEN", ""),
			WebhookSecret: getEnv("TWITTER_WEBHOOK_SECRET", ""),
		},
		TikTok: PlatformCredentials{
			AppID:       getEnv("TIKTOK_APP_ID", ""),
			AppSecret:   getEnv("TIKTOK_APP_SECRET", ""),
			AccessToken: getEnv("TIKTOK_ACCESS_TOKEN", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.CaptureSchedule != "hourly" && c.CaptureSchedule != "daily" {
		return fmt.Errorf("CAPTURE_SCHEDULE must be 'hourly' or 'daily'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Credentials returns the credential bundle for one platform.
func (c *Config) Credentials(platform models.Platform) PlatformCredentials {
	switch platform {
	case models.PlatformFacebook:
		return c.Facebook
	case models.PlatformInstagram:
		return c.Instagram
	case models.PlatformLinkedIn:
		return c.LinkedIn
	case models.PlatformTwitter:
		return c.Twitter
	case models.PlatformTikTok:
		return c.TikTok
	}
	return PlatformCredentials{}
}

// ConfiguredPlatforms lists every platform with usable credentials.
func (c *Config) ConfiguredPlatforms() []models.Platform {
	var platforms []models.Platform
	for _, p := range models.AllPlatforms {
		if c.Credentials(p).IsConfigured() {
			platforms = append(platforms, p)
		}
	}
	return platforms
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
