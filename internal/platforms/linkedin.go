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
)

const linkedinAPIBase = "https://api.linkedin.com/v2"

// LinkedInClient adapts the LinkedIn Marketing API: Lead Gen Form responses
// plus social actions (comments, reactions) on organization posts.
type LinkedInClient struct {
	creds   config.PlatformCredentials
	limiter *ratelimit.Limiter
	client  *resty.Client
	baseURL string
}

type linkedinLeadResponses struct {
	Elements []struct {
		ID          string `json:"id"`
		SubmittedAt int64  `json:"submittedAt"`
		FormID      string `json:"leadGenFormId"`
		CampaignID  string `json:"associatedCampaignId"`
		Answers     []struct {
			QuestionName string `json:"questionName"`
			Answer       string `json:"answer"`
		} `json:"answers"`
	} `json:"elements"`
}

type linkedinSocialActions struct {
	Elements []struct {
		ID      string `json:"id"`
		Type    string `json:"actionType"` // COMMENT or REACTION
		Created struct {
			Time int64 `json:"time"`
		} `json:"created"`
		Actor       string `json:"actor"`
		ActorHandle string `json:"actorHandle"`
		Message     struct {
			Text string `json:"text"`
		} `json:"message"`
	} `json:"elements"`
}

// NewLinkedInClient creates a LinkedIn adapter. The 100/day budget is the
// tightest of all platforms, so callers should prefer incremental syncs.
func NewLinkedInClient(creds config.PlatformCredentials) *LinkedInClient {
	return &LinkedInClient{
		creds:   creds,
		limiter: ratelimit.ForPlatform(models.PlatformLinkedIn),
		client:  resty.New().SetTimeout(30 * time.Second),
		baseURL: linkedinAPIBase,
	}
}

func (l *LinkedInClient) Platform() models.Platform {
	return models.PlatformLinkedIn
}

func (l *LinkedInClient) ValidateConfig() bool {
	return l.creds.AppID != "" && l.creds.AppSecret != "" && l.creds.AccessToken != ""
}

func (l *LinkedInClient) TestConnection(ctx context.Context) error {
	body, err := l.get(ctx, "/me", nil)
	if err != nil {
		return err
	}

	var me struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &me); err != nil || me.ID == "" {
		return &models.PlatformAPIError{Platform: models.PlatformLinkedIn, Message: "connection probe returned no member id"}
	}
	return nil
}

// CaptureLeads fetches Lead Gen Form responses. Answers arrive as
// question/answer pairs whose question names follow the platform's own
// conventions; they are normalized case-insensitively.
func (l *LinkedInClient) CaptureLeads(ctx context.Context, since *time.Time) ([]models.LeadCaptureData, error) {
	params := map[string]string{"q": "owner"}
	if since != nil {
		params["submittedAfter"] = fmt.Sprintf("%d", since.UnixMilli())
	}

	body, err := l.get(ctx, "/leadFormResponses", params)
	if err != nil {
		return nil, err
	}

	var responses linkedinLeadResponses
	if err := json.Unmarshal(body, &responses); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformLinkedIn, Message: fmt.Sprintf("malformed leadFormResponses: %v", err)}
	}

	var leads []models.LeadCaptureData
	for _, raw := range responses.Elements {
		submitted := time.UnixMilli(raw.SubmittedAt)
		if !afterSince(submitted, since) {
			continue
		}

		lead := models.LeadCaptureData{
			Platform:   models.PlatformLinkedIn,
			FormID:     raw.FormID,
			CampaignID: raw.CampaignID,
			Metadata:   map[string]string{"response_id": raw.ID},
		}
		for _, answer := range raw.Answers {
			applyLeadField(&lead, answer.QuestionName, answer.Answer)
		}
		leads = append(leads, lead)
	}

	return leads, nil
}

// GetInteractions fetches social actions on the organization's posts and
// keeps the ones performed by the linked profile. REACTION maps to a like,
// COMMENT to a comment; anything else is dropped.
func (l *LinkedInClient) GetInteractions(ctx context.Context, profile models.SocialProfile, since *time.Time) ([]models.SocialInteractionData, error) {
	body, err := l.get(ctx, "/socialActions", map[string]string{"q": "organization"})
	if err != nil {
		return nil, err
	}

	var actions linkedinSocialActions
	if err := json.Unmarshal(body, &actions); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformLinkedIn, Message: fmt.Sprintf("malformed socialActions: %v", err)}
	}

	var events []models.SocialInteractionData
	for _, action := range actions.Elements {
		if !matchesProfile(profile, action.Actor, action.ActorHandle) {
			continue
		}
		ts := time.UnixMilli(action.Created.Time)
		if !afterSince(ts, since) {
			continue
		}

		var interactionType models.InteractionType
		switch action.Type {
		case "COMMENT":
			interactionType = models.InteractionSocialComment
		case "REACTION":
			interactionType = models.InteractionSocialLike
		default:
			continue
		}

		events = append(events, models.SocialInteractionData{
			ExternalID: "li_" + action.ID,
			Type:       interactionType,
			Platform:   models.PlatformLinkedIn,
			UserID:     action.Actor,
			UserHandle: action.ActorHandle,
			Timestamp:  ts,
			Payload:    map[string]interface{}{"text": action.Message.Text, "action_type": action.Type},
		})
	}

	return events, nil
}

func (l *LinkedInClient) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := l.limiter.Acquire(); err != nil {
		return nil, err
	}

	req := l.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+l.creds.AccessToken).
		SetHeader("X-Restli-Protocol-Version", "2.0.0")
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(l.baseURL + path)
	if err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformLinkedIn, Message: err.Error()}
	}
	if resp.StatusCode() != 200 {
		return nil, &models.PlatformAPIError{
			Platform:   models.PlatformLinkedIn,
			StatusCode: resp.StatusCode(),
			Message:    string(resp.Body()),
		}
	}

	return resp.Body(), nil
}
