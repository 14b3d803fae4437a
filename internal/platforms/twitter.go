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

const twitterAPIBase = "https://api.twitter.com/2"

// TwitterClient adapts the Twitter/X v2 API. Mentions of the venue account
// double as leads (there is no form product); engagement comes from the
// same mention stream plus follows.
type TwitterClient struct {
	creds   config.PlatformCredentials
	limiter *ratelimit.Limiter
	client  *resty.Client
	baseURL string

	// cached account id from the first /users/me call
	accountID string
}

type twitterMe struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

type twitterMentions struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		AuthorID  string `json:"author_id"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
}

type twitterFollowers struct {
	Data []twitterUser `json:"data"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// NewTwitterClient creates a Twitter adapter.
func NewTwitterClient(creds config.PlatformCredentials) *TwitterClient {
	return &TwitterClient{
		creds:   creds,
		limiter: ratelimit.ForPlatform(models.PlatformTwitter),
		client:  resty.New().SetTimeout(30 * time.Second),
		baseURL: twitterAPIBase,
	}
}

func (t *TwitterClient) Platform() models.Platform {
	return models.PlatformTwitter
}

func (t *TwitterClient) ValidateConfig() bool {
	return t.creds.AccessToken != ""
}

func (t *TwitterClient) TestConnection(ctx context.Context) error {
	_, err := t.me(ctx)
	return err
}

func (t *TwitterClient) me(ctx context.Context) (string, error) {
	if t.accountID != "" {
		return t.accountID, nil
	}

	body, err := t.get(ctx, "/users/me", nil)
	if err != nil {
		return "", err
	}

	var me twitterMe
	if err := json.Unmarshal(body, &me); err != nil || me.Data.ID == "" {
		return "", &models.PlatformAPIError{Platform: models.PlatformTwitter, Message: "connection probe returned no account id"}
	}

	t.accountID = me.Data.ID
	return t.accountID, nil
}

// CaptureLeads turns mentions of the venue account into leads: the author's
// display name becomes the lead name, the tweet text the message. Contact
// details stay empty until the prospect provides them.
func (t *TwitterClient) CaptureLeads(ctx context.Context, since *time.Time) ([]models.LeadCaptureData, error) {
	accountID, err := t.me(ctx)
	if err != nil {
		return nil, err
	}

	mentions, err := t.fetchMentions(ctx, accountID, since)
	if err != nil {
		return nil, err
	}

	authors := make(map[string]twitterUser)
	for _, user := range mentions.Includes.Users {
		authors[user.ID] = user
	}

	var leads []models.LeadCaptureData
	for _, tweet := range mentions.Data {
		created := parseTimestamp(models.PlatformTwitter, time.RFC3339, tweet.CreatedAt)
		if !afterSince(created, since) {
			continue
		}
		author := authors[tweet.AuthorID]
		leads = append(leads, models.LeadCaptureData{
			Platform: models.PlatformTwitter,
			Name:     author.Name,
			Message:  tweet.Text,
			Metadata: map[string]string{
				"tweet_id":  tweet.ID,
				"author_id": tweet.AuthorID,
				"username":  author.Username,
			},
		})
	}

	return leads, nil
}

// GetInteractions reports mentions by the linked profile as comments and a
// current follow edge as a follow event. The follow external id is stable
// per account pair so re-syncs do not duplicate it.
func (t *TwitterClient) GetInteractions(ctx context.Context, profile models.SocialProfile, since *time.Time) ([]models.SocialInteractionData, error) {
	accountID, err := t.me(ctx)
	if err != nil {
		return nil, err
	}

	mentions, err := t.fetchMentions(ctx, accountID, since)
	if err != nil {
		return nil, err
	}

	authors := make(map[string]twitterUser)
	for _, user := range mentions.Includes.Users {
		authors[user.ID] = user
	}

	var events []models.SocialInteractionData
	for _, tweet := range mentions.Data {
		author := authors[tweet.AuthorID]
		if !matchesProfile(profile, tweet.AuthorID, author.Username) {
			continue
		}
		ts := parseTimestamp(models.PlatformTwitter, time.RFC3339, tweet.CreatedAt)
		if !afterSince(ts, since) {
			continue
		}
		events = append(events, models.SocialInteractionData{
			ExternalID: "tw_mention_" + tweet.ID,
			Type:       models.InteractionSocialComment,
			Platform:   models.PlatformTwitter,
			UserID:     tweet.AuthorID,
			UserHandle: author.Username,
			Timestamp:  ts,
			Payload:    map[string]interface{}{"text": tweet.Text},
		})
	}

	followers, err := t.fetchFollowers(ctx, accountID)
	if err != nil {
		// Follower lookup is best-effort on top of the mention scan, but a
		// rate denial must reach the caller.
		if models.IsRateLimited(err) {
			return events, err
		}
		return events, nil
	}
	for _, follower := range followers.Data {
		if !matchesProfile(profile, follower.ID, follower.Username) {
			continue
		}
		events = append(events, models.SocialInteractionData{
			ExternalID: fmt.Sprintf("tw_follow_%s_%s", accountID, follower.ID),
			Type:       models.InteractionSocialFollow,
			Platform:   models.PlatformTwitter,
			UserID:     follower.ID,
			UserHandle: follower.Username,
			Timestamp:  time.Now().UTC(),
		})
	}

	return events, nil
}

func (t *TwitterClient) fetchMentions(ctx context.Context, accountID string, since *time.Time) (*twitterMentions, error) {
	params := map[string]string{
		"tweet.fields": "created_at,author_id",
		"expansions":   "author_id",
		"max_results":  "100",
	}
	if since != nil {
		params["start_time"] = since.UTC().Format(time.RFC3339)
	}

	body, err := t.get(ctx, "/users/"+accountID+"/mentions", params)
	if err != nil {
		return nil, err
	}

	var mentions twitterMentions
	if err := json.Unmarshal(body, &mentions); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformTwitter, Message: fmt.Sprintf("malformed mentions response: %v", err)}
	}
	return &mentions, nil
}

func (t *TwitterClient) fetchFollowers(ctx context.Context, accountID string) (*twitterFollowers, error) {
	body, err := t.get(ctx, "/users/"+accountID+"/followers", map[string]string{"max_results": "1000"})
	if err != nil {
		return nil, err
	}

	var followers twitterFollowers
	if err := json.Unmarshal(body, &followers); err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformTwitter, Message: fmt.Sprintf("malformed followers response: %v", err)}
	}
	return &followers, nil
}

func (t *TwitterClient) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := t.limiter.Acquire(); err != nil {
		return nil, err
	}

	req := t.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+t.creds.AccessToken)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(t.baseURL + path)
	if err != nil {
		return nil, &models.PlatformAPIError{Platform: models.PlatformTwitter, Message: err.Error()}
	}
	if resp.StatusCode() != 200 {
		return nil, &models.PlatformAPIError{
			Platform:   models.PlatformTwitter,
			StatusCode: resp.StatusCode(),
			Message:    string(resp.Body()),
		}
	}

	return resp.Body(), nil
}
