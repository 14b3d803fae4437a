package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/config"
	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/arne-braeckman/eventrunner-integrations/internal/ratelimit"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const instagramAPIBase = "https://graph.instagram.com/v18.0"

// InstagramClient adapts the Instagram Graph API. Venue accounts receive
// leads as direct-message conversations; engagement comes from media
// comments.
type InstagramClient struct {
	creds   config.PlatformCredentials
	limiter *ratelimit.Limiter
	client  *resty.Client
	baseURL string
}

type instagramConversations struct {
	Data []struct {
		ID       string `json:"id"`
		Messages struct {
			Data []struct {
				ID          string `json:"id"`
				Message     string `json:"message"`
				CreatedTime string `json:"created_time"`
				From        struct {
					ID       string `json:"id"`
					Username string `json:"username"`
				} `json:"from"`
			} `json:"data"`
		} `json:"messages"`
	} `json:"data"`
}

type instagramMediaList struct {
	Data []struct {
		ID       string `json:"id"`
		Comments struct {
			Data []struct {
				ID        string `json:"id"`
				Text      string `json:"text"`
				Timestamp string `json:"timestamp"`
				From      struct {
					ID       string `json:"id"`
					Username string `json:"username"`
				} `json:"from"`
			} `json:"data"`
		} `json:"comments"`
	} `json:"data"`
}

// NewInstagramClient creates an Instagram adapter.
func NewInstagramClient(creds config.PlatformCredentials) *InstagramClient {
	return &InstagramClient{
		creds:   creds,
		limiter: ratelimit.ForPlatform(models.PlatformInstagram),
		client:  resty.New().SetTimeout(30 * time.Second),
		baseURL: instagramAPIBase,
	}
}

func (i *InstagramClient) Platform() models.Platform {
	return models.PlatformInstagram
}

func (i *InstagramClient) ValidateConfig() bool {
	return i.creds.AppID != "" && i.creds.AccessToken != ""
}

func (i *InstagramClient) TestConnection(ctx context.Context) error {
	body, err := i.get(ctx, "/me", map[string]string{"fields": "id,username"})
	if err != nil {
		return err
	}

	var me struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &me); err != nil || me.ID == "" {
		return &models.PlatformAPIError{Platform: models.PlatformInstagram, Message: "connection probe returned no account id"}
	}
	return nil
}

// CaptureLeads treats inbound direct messages as leads: the sender's
// username becomes the lead name and the message body is kept verbatim.
// Instagram exposes no structured form fields, so email/phone stay empty
// unless the message metadata carries them.
func (i *InstagramClient) CaptureLeads(ctx context.Context, since *time.Time) ([]models.LeadCaptureData, error) {
	body, err := i.get(ctx, "/me/conversations", map[string]string{
		"fields": "id,messages{id,message,created_time,from}",
	})
	if err != nil {
		return nil, err
	}

	var conversations instagramConversations
	if err := json.Unmarshal(body, &conversations); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformInstagram, Message: fmt.Sprintf("malformed conversations response: %v", err)}
	}

	var leads []models.LeadCaptureData
	for _, conv := range conversations.Data {
		for _, msg := range conv.Messages.Data {
			created := parseTimestamp(models.PlatformInstagram, graphTimeLayout, msg.CreatedTime)
			if !afterSince(created, since) {
				continue
			}
			if msg.From.Username == "" && msg.From.ID == "" {
				continue
			}
			leads = append(leads, models.LeadCaptureData{
				Platform: models.PlatformInstagram,
				Name:     msg.From.Username,
				Message:  msg.Message,
				Metadata: map[string]string{
					"conversation_id": conv.ID,
					"message_id":      msg.ID,
					"sender_id":       msg.From.ID,
				},
			})
		}
	}

	logrus.Debugf("Instagram capture found %d direct-message leads", len(leads))
	return leads, nil
}

// GetInteractions scans recent media for comments by the linked profile.
func (i *InstagramClient) GetInteractions(ctx context.Context, profile models.SocialProfile, since *time.Time) ([]models.SocialInteractionData, error) {
	body, err := i.get(ctx, "/me/media", map[string]string{
		"fields": "id,comments{id,text,timestamp,from}",
	})
	if err != nil {
		return nil, err
	}

	var media instagramMediaList
	if err := json.Unmarshal(body, &media); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformInstagram, Message: fmt.Sprintf("malformed media response: %v", err)}
	}

	var events []models.SocialInteractionData
	for _, item := range media.Data {
		for _, comment := range item.Comments.Data {
			if !matchesProfile(profile, comment.From.ID, comment.From.Username) {
				continue
			}
			ts := parseTimestamp(models.PlatformInstagram, graphTimeLayout, comment.Timestamp)
			if !afterSince(ts, since) {
				continue
			}
			events = append(events, models.SocialInteractionData{
				ExternalID: "ig_comment_" + comment.ID,
				Type:       models.InteractionSocialComment,
				Platform:   models.PlatformInstagram,
				UserID:     comment.From.ID,
				UserHandle: comment.From.Username,
				Timestamp:  ts,
				Payload:    map[string]interface{}{"media_id": item.ID, "text": comment.Text},
			})
		}
	}

	return events, nil
}

func (i *InstagramClient) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := i.limiter.Acquire(); err != nil {
		return nil, err
	}

	req := i.client.R().
		SetContext(ctx).
		SetQueryParam("access_token", i.creds.AccessToken)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(i.baseURL + path)
	if err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformInstagram, Message: err.Error()}
	}
	if resp.StatusCode() != 200 {
		return nil, &models.PlatformAPIError{
			Platform:   models.PlatformInstagram,
			StatusCode: resp.StatusCode(),
			Message:    string(resp.Body()),
		}
	}

	return resp.Body(), nil
}
