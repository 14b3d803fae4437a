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

const tiktokAPIBase = "https://business-api.tiktok.com/open_api/v1.3"

// TikTokClient adapts the TikTok Business API: instant-form lead capture
// plus video comment engagement. TikTok wraps every response in a
// code/message envelope, so status 200 alone does not mean success.
type TikTokClient struct {
	creds   config.PlatformCredentials
	limiter *ratelimit.Limiter
	client  *resty.Client
	baseURL string
}

type tiktokEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type tiktokLeadList struct {
	List []struct {
		LeadID     string `json:"lead_id"`
		CreateTime int64  `json:"create_time"`
		PageID     string `json:"page_id"`
		AdID       string `json:"ad_id"`
		CampaignID string `json:"campaign_id"`
		Fields     []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"fields"`
	} `json:"list"`
}

type tiktokCommentList struct {
	Comments []struct {
		CommentID  string `json:"comment_id"`
		VideoID    string `json:"video_id"`
		Text       string `json:"text"`
		CreateTime int64  `json:"create_time"`
		UserID     string `json:"user_id"`
		Username   string `json:"username"`
	} `json:"comments"`
}

// NewTikTokClient creates a TikTok adapter.
func NewTikTokClient(creds config.PlatformCredentials) *TikTokClient {
	return &TikTokClient{
		creds:   creds,
		limiter: ratelimit.ForPlatform(models.PlatformTikTok),
		client:  resty.New().SetTimeout(30 * time.Second),
		baseURL: tiktokAPIBase,
	}
}

func (t *TikTokClient) Platform() models.Platform {
	return models.PlatformTikTok
}

func (t *TikTokClient) ValidateConfig() bool {
	return t.creds.AppID != "" && t.creds.AccessToken != ""
}

func (t *TikTokClient) TestConnection(ctx context.Context) error {
	_, err := t.get(ctx, "/user/info/", nil)
	return err
}

// CaptureLeads fetches instant-form submissions for the advertiser account.
func (t *TikTokClient) CaptureLeads(ctx context.Context, since *time.Time) ([]models.LeadCaptureData, error) {
	params := map[string]string{"advertiser_id": t.creds.AppID}
	if since != nil {
		params["start_time"] = fmt.Sprintf("%d", since.Unix())
	}

	data, err := t.get(ctx, "/pages/leads/", params)
	if err != nil {
		return nil, err
	}

	var list tiktokLeadList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformTikTok, Message: fmt.Sprintf("malformed leads response: %v", err)}
	}

	var leads []models.LeadCaptureData
	for _, raw := range list.List {
		created := time.Unix(raw.CreateTime, 0)
		if !afterSince(created, since) {
			continue
		}

		lead := models.LeadCaptureData{
			Platform:   models.PlatformTikTok,
			FormID:     raw.PageID,
			AdID:       raw.AdID,
			CampaignID: raw.CampaignID,
			Metadata:   map[string]string{"lead_id": raw.LeadID},
		}
		for _, field := range raw.Fields {
			applyLeadField(&lead, field.Name, field.Value)
		}
		leads = append(leads, lead)
	}

	return leads, nil
}

// GetInteractions scans video comments for the linked profile.
func (t *TikTokClient) GetInteractions(ctx context.Context, profile models.SocialProfile, since *time.Time) ([]models.SocialInteractionData, error) {
	data, err := t.get(ctx, "/comment/list/", map[string]string{"advertiser_id": t.creds.AppID})
	if err != nil {
		return nil, err
	}

	var list tiktokCommentList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformTikTok, Message: fmt.Sprintf("malformed comment response: %v", err)}
	}

	var events []models.SocialInteractionData
	for _, comment := range list.Comments {
		if !matchesProfile(profile, comment.UserID, comment.Username) {
			continue
		}
		ts := time.Unix(comment.CreateTime, 0)
		if !afterSince(ts, since) {
			continue
		}
		events = append(events, models.SocialInteractionData{
			ExternalID: "tt_comment_" + comment.CommentID,
			Type:       models.InteractionSocialComment,
			Platform:   models.PlatformTikTok,
			UserID:     comment.UserID,
			UserHandle: comment.Username,
			Timestamp:  ts,
			Payload:    map[string]interface{}{"video_id": comment.VideoID, "text": comment.Text},
		})
	}

	return events, nil
}

// get performs one rate-limited Business API GET, unwrapping the TikTok
// response envelope.
func (t *TikTokClient) get(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	if err := t.limiter.Acquire(); err != nil {
		return nil, err
	}

	req := t.client.R().
		SetContext(ctx).
		SetHeader("Access-Token", t.creds.AccessToken)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(t.baseURL + path)
	if err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformTikTok, Message: err.Error()}
	}
	if resp.StatusCode() != 200 {
		return nil, &models.PlatformAPIError{
			Platform:   models.PlatformTikTok,
			StatusCode: resp.StatusCode(),
			Message:    string(resp.Body()),
		}
	}

	var envelope tiktokEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformTikTok, Message: fmt.Sprintf("malformed response envelope: %v", err)}
	}
	if envelope.Code != 0 {
		return nil, &models.PlatformAPIError{
			Platform:   models.PlatformTikTok,
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("code %d: %s", envelope.Code, envelope.Message),
		}
	}

	return envelope.Data, nil
}
