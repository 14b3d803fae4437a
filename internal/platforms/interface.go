package platforms

import (
	"context"
	"fmt"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/config"
	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
)

// Client is the uniform capability set every platform adapter implements.
// Every call that reaches the network acquires from the platform's rate
// limiter first; a denied acquire surfaces as *models.RateLimitError without
// any request being made. Other upstream failures normalize to
// *models.PlatformAPIError.
type Client interface {
	Platform() models.Platform
	ValidateConfig() bool
	TestConnection(ctx context.Context) error
	CaptureLeads(ctx context.Context, since *time.Time) ([]models.LeadCaptureData, error)
	GetInteractions(ctx context.Context, profile models.SocialProfile, since *time.Time) ([]models.SocialInteractionData, error)
}

// NewClient maps a platform tag to its concrete adapter.
func NewClient(platform models.Platform, creds config.PlatformCredentials) (Client, error) {
	switch platform {
	case models.PlatformFacebook:
		return NewFacebookClient(creds), nil
	case models.PlatformInstagram:
		return NewInstagramClient(creds), nil
	case models.PlatformLinkedIn:
		return NewLinkedInClient(creds), nil
	case models.PlatformTwitter:
		return NewTwitterClient(creds), nil
	case models.PlatformTikTok:
		return NewTikTokClient(creds), nil
	}
	return nil, fmt.Errorf("unsupported platform %q", platform)
}

// NewClients builds one adapter per platform with usable credentials.
// Platforms without credentials are skipped, not errors.
func NewClients(cfg *config.Config) map[models.Platform]Client {
	clients := make(map[models.Platform]Client)
	for _, platform := range cfg.ConfiguredPlatforms() {
		client, err := NewClient(platform, cfg.Credentials(platform))
		if err != nil {
			continue
		}
		clients[platform] = client
	}
	return clients
}
