package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies an external social/marketing channel.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformTikTok    Platform = "tiktok"
)

// AllPlatforms lists every platform the integration layer knows about.
var AllPlatforms = []Platform{
	PlatformFacebook,
	PlatformInstagram,
	PlatformLinkedIn,
	PlatformTwitter,
	PlatformTikTok,
}

// LeadHeat is the three-tier engagement classification of a contact.
type LeadHeat string

const (
	HeatCold LeadHeat = "cold"
	HeatWarm LeadHeat = "warm"
	HeatHot  LeadHeat = "hot"
)

// ContactStatus tracks where a contact sits in the venue sales journey.
type ContactStatus string

const (
	StatusUnqualified  ContactStatus = "unqualified"
	StatusQualified    ContactStatus = "qualified"
	StatusProposalSent ContactStatus = "proposal_sent"
	StatusNegotiation  ContactStatus = "negotiation"
	StatusBooked       ContactStatus = "booked"
	StatusLost         ContactStatus = "lost"
)

// InteractionType is an engagement event category with a fixed scoring weight.
type InteractionType string

const (
	InteractionSocialFollow  InteractionType = "social_follow"
	InteractionSocialLike    InteractionType = "social_like"
	InteractionSocialComment InteractionType = "social_comment"
	InteractionSocialMessage InteractionType = "social_message"
	InteractionWebsiteVisit  InteractionType = "website_visit"
	InteractionEmailOpen     InteractionType = "email_open"
	InteractionEmailClick    InteractionType = "email_click"
	InteractionInfoRequest   InteractionType = "info_request"
	InteractionPhoneCall     InteractionType = "phone_call"
	InteractionPriceQuote    InteractionType = "price_quote"
	InteractionMeeting       InteractionType = "meeting"
	InteractionSiteVisit     InteractionType = "site_visit"
	InteractionOther         InteractionType = "other"
)

// Metadata source discriminators.
const (
	SourceSocialMediaAPI  = "social_media_api"
	SourceSocialMediaSync = "social_media_sync"
)

// SocialProfile links a contact to their handle on one platform.
type SocialProfile struct {
	Platform     Platform   `json:"platform"`
	Handle       string     `json:"handle"`
	Connected    bool       `json:"connected"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// Contact is the identity record for a prospect or customer. Email, when
// present, is the dedup key; heat and heat score are derived from the
// contact's interaction history and never edited by hand.
type Contact struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email,omitempty"`
	Phone             string            `json:"phone,omitempty"`
	Company           string            `json:"company,omitempty"`
	LeadSource        string            `json:"lead_source,omitempty"`
	LeadHeat          LeadHeat          `json:"lead_heat"`
	LeadHeatScore     int               `json:"lead_heat_score"`
	Status            ContactStatus     `json:"status"`
	Notes             string            `json:"notes,omitempty"`
	SocialProfiles    []SocialProfile   `json:"social_profiles,omitempty"`
	CustomFields      map[string]string `json:"custom_fields,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	LastInteractionAt *time.Time        `json:"last_interaction_at,omitempty"`
}

// ProfileFor returns the contact's profile on the given platform, if any.
func (c *Contact) ProfileFor(platform Platform) (SocialProfile, bool) {
	for _, p := range c.SocialProfiles {
		if p.Platform == platform {
			return p, true
		}
	}
	return SocialProfile{}, false
}

// InteractionMetadata carries the structured part of an interaction's
// metadata. Source and ExternalID are first-class fields because dedup and
// attribution depend on them; everything else rides in Extra.
type InteractionMetadata struct {
	Source     string                 `json:"source"`
	ExternalID string                 `json:"external_id,omitempty"`
	UserID     string                 `json:"user_id,omitempty"`
	UserHandle string                 `json:"user_handle,omitempty"`
	FormID     string                 `json:"form_id,omitempty"`
	AdID       string                 `json:"ad_id,omitempty"`
	CampaignID string                 `json:"campaign_id,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// Interaction is one recorded engagement event tied to a contact.
// Interactions are immutable once created; for externally synced events
// CreatedAt is the event time on the platform, not the ingestion time.
type Interaction struct {
	ID          string              `json:"id"`
	ContactID   string              `json:"contact_id"`
	Type        InteractionType     `json:"type"`
	Platform    Platform            `json:"platform,omitempty"`
	Description string              `json:"description,omitempty"`
	Metadata    InteractionMetadata `json:"metadata"`
	CreatedAt   time.Time           `json:"created_at"`
	CreatedBy   string              `json:"created_by,omitempty"`
}

// LeadCaptureData is the normalized shape of one captured lead. It is
// transient: consumed once by the lead processor, then discarded.
type LeadCaptureData struct {
	Platform   Platform          `json:"platform"`
	Name       string            `json:"name,omitempty"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Company    string            `json:"company,omitempty"`
	Message    string            `json:"message,omitempty"`
	FormID     string            `json:"form_id,omitempty"`
	AdID       string            `json:"ad_id,omitempty"`
	CampaignID string            `json:"campaign_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SocialInteractionData is one platform-side engagement event, tagged with
// the stable external id used for dedup.
type SocialInteractionData struct {
	ExternalID string                 `json:"external_id"`
	Type       InteractionType        `json:"type"`
	Platform   Platform               `json:"platform"`
	UserID     string                 `json:"user_id,omitempty"`
	UserHandle string                 `json:"user_handle,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// BatchResult aggregates a batch lead-processing run.
type BatchResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
}

// PlatformFailure attributes one fan-out failure to its platform.
type PlatformFailure struct {
	Platform Platform `json:"platform"`
	Error    string   `json:"error"`
}

// CaptureResult aggregates a capture run across all configured platforms.
type CaptureResult struct {
	Leads int `json:"leads"`
	BatchResult
	Failures []PlatformFailure `json:"failures,omitempty"`
}

// SyncResult aggregates one contact's interaction sync.
type SyncResult struct {
	Synced int `json:"synced"`
	Errors int `json:"errors"`
}

// BulkSyncResult aggregates a sync run across contacts.
type BulkSyncResult struct {
	TotalContacts int `json:"total_contacts"`
	TotalSynced   int `json:"total_synced"`
	TotalErrors   int `json:"total_errors"`
}

// PlatformStatus reports one platform's connection state.
type PlatformStatus struct {
	Connected bool       `json:"connected"`
	LastSync  *time.Time `json:"last_sync,omitempty"`
}

// PlatformStatusReport is the orchestrator's status snapshot.
type PlatformStatusReport struct {
	Platforms      map[Platform]PlatformStatus `json:"platforms"`
	TotalConnected int                         `json:"total_connected"`
}

// RunReport is the archived record of one integration run. Exactly one of
// Capture or Sync is set, matching Kind.
type RunReport struct {
	Kind       string          `json:"kind"` // "capture" or "sync"
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Capture    *CaptureResult  `json:"capture,omitempty"`
	Sync       *BulkSyncResult `json:"sync,omitempty"`
}

// NewID returns a fresh identifier for contacts and interactions.
func NewID() string {
	return uuid.New().String()
}
