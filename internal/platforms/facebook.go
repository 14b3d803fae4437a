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

const facebookAPIBase = "https://graph.facebook.com/v18.0"

// Graph API timestamps use a zone offset without a colon ("+0000"), which
// RFC3339 parsing rejects.
const graphTimeLayout = "2006-01-02T15:04:05-0700"

// FacebookClient adapts the Facebook Graph API: lead-gen form capture plus
// page feed engagement (comments, likes).
type FacebookClient struct {
	creds   config.PlatformCredentials
	limiter *ratelimit.Limiter
	client  *resty.Client
	baseURL string
}

type facebookFormList struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

type facebookLeadList struct {
	Data []struct {
		ID          string `json:"id"`
		CreatedTime string `json:"created_time"`
		AdID        string `json:"ad_id"`
		CampaignID  string `json:"campaign_id"`
		FieldData   []struct {
			Name   string   `json:"name"`
			Values []string `json:"values"`
		} `json:"field_data"`
	} `json:"data"`
}

type facebookFeed struct {
	Data []struct {
		ID       string `json:"id"`
		Comments struct {
			Data []facebookActor `json:"data"`
		} `json:"comments"`
		Likes struct {
			Data []facebookActor `json:"data"`
		} `json:"likes"`
	} `json:"data"`
}

type facebookActor struct {
	ID          string `json:"id"`
	CreatedTime string `json:"created_time"`
	Message     string `json:"message"`
	From        struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"from"`
}

// NewFacebookClient creates a Facebook adapter with the platform's
// published rate budget.
func NewFacebookClient(creds config.PlatformCredentials) *FacebookClient {
	return &FacebookClient{
		creds:   creds,
		limiter: ratelimit.ForPlatform(models.PlatformFacebook),
		client:  resty.New().SetTimeout(30 * time.Second),
		baseURL: facebookAPIBase,
	}
}

func (f *FacebookClient) Platform() models.Platform {
	return models.PlatformFacebook
}

func (f *FacebookClient) ValidateConfig() bool {
	return f.creds.AppID != "" && f.creds.AppSecret != "" && f.creds.AccessToken != ""
}

func (f *FacebookClient) TestConnection(ctx context.Context) error {
	body, err := f.get(ctx, "/me", map[string]string{"fields": "id,name"})
	if err != nil {
		return err
	}

	var me struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &me); err != nil || me.ID == "" {
		return &models.PlatformAPIError{Platform: models.PlatformFacebook, Message: "connection probe returned no account id"}
	}
	return nil
}

// CaptureLeads enumerates the page's lead-gen forms and fetches the leads
// submitted at or after since (all leads when since is nil).
func (f *FacebookClient) CaptureLeads(ctx context.Context, since *time.Time) ([]models.LeadCaptureData, error) {
	body, err := f.get(ctx, "/me/leadgen_forms", nil)
	if err != nil {
		return nil, err
	}

	var forms facebookFormList
	if err := json.Unmarshal(body, &forms); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformFacebook, Message: fmt.Sprintf("malformed leadgen_forms response: %v", err)}
	}

	var leads []models.LeadCaptureData
	for _, form := range forms.Data {
		formLeads, err := f.fetchFormLeads(ctx, form.ID, since)
		if err != nil {
			// A single form failing should not lose the others' leads,
			// unless we hit the rate window.
			if models.IsRateLimited(err) {
				return leads, err
			}
			logrus.Errorf("Failed to fetch facebook leads for form %s: %v", form.ID, err)
			continue
		}
		leads = append(leads, formLeads...)
	}

	return leads, nil
}

func (f *FacebookClient) fetchFormLeads(ctx context.Context, formID string, since *time.Time) ([]models.LeadCaptureData, error) {
	body, err := f.get(ctx, "/"+formID+"/leads", map[string]string{
		"fields": "id,created_time,ad_id,campaign_id,field_data",
	})
	if err != nil {
		return nil, err
	}

	var list facebookLeadList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformFacebook, Message: fmt.Sprintf("malformed leads response: %v", err)}
	}

	var leads []models.LeadCaptureData
	for _, raw := range list.Data {
		created := parseTimestamp(models.PlatformFacebook, graphTimeLayout, raw.CreatedTime)
		if !afterSince(created, since) {
			continue
		}

		lead := models.LeadCaptureData{
			Platform:   models.PlatformFacebook,
			FormID:     formID,
			AdID:       raw.AdID,
			CampaignID: raw.CampaignID,
			Metadata:   map[string]string{"lead_id": raw.ID},
		}
		for _, field := range raw.FieldData {
			if len(field.Values) == 0 {
				continue
			}
			applyLeadField(&lead, field.Name, field.Values[0])
		}
		leads = append(leads, lead)
	}

	return leads, nil
}

// GetInteractions scans the page feed for comments and likes by the linked
// profile. Comment ids are already stable; likes get a post-scoped synthetic
// id since the Graph API does not assign one.
func (f *FacebookClient) GetInteractions(ctx context.Context, profile models.SocialProfile, since *time.Time) ([]models.SocialInteractionData, error) {
	body, err := f.get(ctx, "/me/feed", map[string]string{
		"fields": "id,comments{id,message,created_time,from},likes{id,created_time,from}",
	})
	if err != nil {
		return nil, err
	}

	var feed facebookFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformFacebook, Message: fmt.Sprintf("malformed feed response: %v", err)}
	}

	var events []models.SocialInteractionData
	for _, post := range feed.Data {
		for _, comment := range post.Comments.Data {
			if !matchesProfile(profile, comment.From.ID, comment.From.Name) {
				continue
			}
			ts := parseTimestamp(models.PlatformFacebook, graphTimeLayout, comment.CreatedTime)
			if !afterSince(ts, since) {
				continue
			}
			events = append(events, models.SocialInteractionData{
				ExternalID: "fb_comment_" + comment.ID,
				Type:       models.InteractionSocialComment,
				Platform:   models.PlatformFacebook,
				UserID:     comment.From.ID,
				UserHandle: comment.From.Name,
				Timestamp:  ts,
				Payload:    map[string]interface{}{"post_id": post.ID, "message": comment.Message},
			})
		}
		for _, like := range post.Likes.Data {
			if !matchesProfile(profile, like.From.ID, like.From.Name) && !matchesProfile(profile, like.ID, "") {
				continue
			}
			ts := parseTimestamp(models.PlatformFacebook, graphTimeLayout, like.CreatedTime)
			if !afterSince(ts, since) {
				continue
			}
			userID := like.From.ID
			if userID == "" {
				userID = like.ID
			}
			events = append(events, models.SocialInteractionData{
				ExternalID: fmt.Sprintf("fb_like_%s_%s", post.ID, userID),
				Type:       models.InteractionSocialLike,
				Platform:   models.PlatformFacebook,
				UserID:     userID,
				Timestamp:  ts,
				Payload:    map[string]interface{}{"post_id": post.ID},
			})
		}
	}

	return events, nil
}

// get performs one rate-limited Graph API GET and normalizes failures.
func (f *FacebookClient) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := f.limiter.Acquire(); err != nil {
		return nil, err
	}

	req := f.client.R().
		SetContext(ctx).
		SetQueryParam("access_token", f.creds.AccessToken)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(f.baseURL + path)
	if err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformFacebook, Message: err.Error()}
	}
	if resp.StatusCode() != 200 {
		return nil, &models.PlatformAPIError{
			Platform:   models.PlatformFacebook,
			StatusCode: resp.StatusCode(),
			Message:    string(resp.Body()),
		}
	}

	return resp.Body(), nil
}
