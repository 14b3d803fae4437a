package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/arne-braeckman/eventrunner-integrations/internal/platforms"
	"github.com/arne-braeckman/eventrunner-integrations/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves a fixed event set for any profile.
type fakeClient struct {
	platform models.Platform
	events   []models.SocialInteractionData
	err      error
	calls    int
}

func (f *fakeClient) Platform() models.Platform { return f.platform }
func (f *fakeClient) ValidateConfig() bool      { return true }
func (f *fakeClient) TestConnection(ctx context.Context) error {
	return f.err
}
func (f *fakeClient) CaptureLeads(ctx context.Context, since *time.Time) ([]models.LeadCaptureData, error) {
	return nil, f.err
}
func (f *fakeClient) GetInteractions(ctx context.Context, profile models.SocialProfile, since *time.Time) ([]models.SocialInteractionData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

var _ platforms.Client = (*fakeClient)(nil)

type capturedAlert struct {
	contact  *models.Contact
	previous models.LeadHeat
}

type fakeAlerter struct {
	alerts []capturedAlert
}

func (f *fakeAlerter) SendHotLeadAlert(contact *models.Contact, previous models.LeadHeat) error {
	f.alerts = append(f.alerts, capturedAlert{contact: contact, previous: previous})
	return nil
}

func seedContact(t *testing.T, memory *store.MemoryStore, profiles ...models.SocialProfile) *models.Contact {
	t.Helper()
	contact := &models.Contact{
		ID:             models.NewID(),
		Name:           "Ann Peeters",
		Email:          "ann@example.com",
		LeadHeat:       models.HeatCold,
		Status:         models.StatusUnqualified,
		SocialProfiles: profiles,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, memory.CreateContact(context.Background(), contact))
	return contact
}

func igProfile() models.SocialProfile {
	return models.SocialProfile{Platform: models.PlatformInstagram, Handle: "annp", Connected: true}
}

func TestSyncContactInteractions_PersistsEventTime(t *testing.T) {
	memory := store.NewMemoryStore()
	eventTime := time.Date(2025, 5, 20, 14, 30, 0, 0, time.UTC)
	client := &fakeClient{
		platform: models.PlatformInstagram,
		events: []models.SocialInteractionData{
			{
				ExternalID: "ig_comment_1",
				Type:       models.InteractionSocialComment,
				Platform:   models.PlatformInstagram,
				UserHandle: "annp",
				Timestamp:  eventTime,
			},
		},
	}
	service := NewService(memory, map[models.Platform]platforms.Client{models.PlatformInstagram: client}, nil)
	contact := seedContact(t, memory, igProfile())

	result, err := service.SyncContactInteractions(context.Background(), contact.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 0, result.Errors)

	interactions, err := memory.ListInteractions(context.Background(), contact.ID)
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, eventTime, interactions[0].CreatedAt, "interaction carries the event time")
	assert.Equal(t, models.SourceSocialMediaSync, interactions[0].Metadata.Source)
	assert.Equal(t, "social_comment on instagram", interactions[0].Description)

	updated, err := memory.GetContact(context.Background(), contact.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.LastInteractionAt)
	assert.Equal(t, eventTime, *updated.LastInteractionAt)
	assert.Equal(t, 2, updated.LeadHeatScore)
}

func TestSyncContactInteractions_Idempotent(t *testing.T) {
	memory := store.NewMemoryStore()
	client := &fakeClient{
		platform: models.PlatformInstagram,
		events: []models.SocialInteractionData{
			{ExternalID: "e1", Type: models.InteractionSocialLike, Platform: models.PlatformInstagram, Timestamp: time.Now().UTC()},
			{ExternalID: "e2", Type: models.InteractionSocialComment, Platform: models.PlatformInstagram, Timestamp: time.Now().UTC()},
		},
	}
	service := NewService(memory, map[models.Platform]platforms.Client{models.PlatformInstagram: client}, nil)
	contact := seedContact(t, memory, igProfile())

	first, err := service.SyncContactInteractions(context.Background(), contact.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Synced)

	second, err := service.SyncContactInteractions(context.Background(), contact.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Synced, "re-running the same upstream events must add nothing")

	interactions, err := memory.ListInteractions(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Len(t, interactions, 2)
}

func TestSyncContactInteractions_RescoreAndHotAlert(t *testing.T) {
	memory := store.NewMemoryStore()
	ts := time.Now().UTC()
	client := &fakeClient{
		platform: models.PlatformInstagram,
		events: []models.SocialInteractionData{
			// 3 + 3 + 3 + 3 + 3 + 1 = 16: crosses into hot
			{ExternalID: "m1", Type: models.InteractionSocialMessage, Platform: models.PlatformInstagram, Timestamp: ts},
			{ExternalID: "m2", Type: models.InteractionSocialMessage, Platform: models.PlatformInstagram, Timestamp: ts},
			{ExternalID: "m3", Type: models.InteractionSocialMessage, Platform: models.PlatformInstagram, Timestamp: ts},
			{ExternalID: "m4", Type: models.InteractionSocialMessage, Platform: models.PlatformInstagram, Timestamp: ts},
			{ExternalID: "m5", Type: models.InteractionSocialMessage, Platform: models.PlatformInstagram, Timestamp: ts},
			{ExternalID: "f1", Type: models.InteractionSocialFollow, Platform: models.PlatformInstagram, Timestamp: ts},
		},
	}
	alerter := &fakeAlerter{}
	service := NewService(memory, map[models.Platform]platforms.Client{models.PlatformInstagram: client}, alerter)
	contact := seedContact(t, memory, igProfile())

	_, err := service.SyncContactInteractions(context.Background(), contact.ID, "", nil)
	require.NoError(t, err)

	updated, err := memory.GetContact(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, updated.LeadHeatScore)
	assert.Equal(t, models.HeatHot, updated.LeadHeat)

	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, models.HeatCold, alerter.alerts[0].previous)
}

func TestSyncContactInteractions_ClientFailureCounted(t *testing.T) {
	memory := store.NewMemoryStore()
	client := &fakeClient{
		platform: models.PlatformInstagram,
		err:      &models.PlatformAPIError{Platform: models.PlatformInstagram, StatusCode: 500, Message: "boom"},
	}
	service := NewService(memory, map[models.Platform]platforms.Client{models.PlatformInstagram: client}, nil)
	contact := seedContact(t, memory, igProfile())

	result, err := service.SyncContactInteractions(context.Background(), contact.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 1, result.Errors)
}

func TestSyncAllContacts_PlatformFilterExcludesUnlinked(t *testing.T) {
	memory := store.NewMemoryStore()
	linkedinClient := &fakeClient{platform: models.PlatformLinkedIn}
	service := NewService(memory, map[models.Platform]platforms.Client{models.PlatformLinkedIn: linkedinClient}, nil)

	withProfile := seedContact(t, memory, models.SocialProfile{Platform: models.PlatformLinkedIn, Handle: "jos"})
	noProfile := &models.Contact{ID: models.NewID(), Name: "No LinkedIn", Email: "other@example.com"}
	require.NoError(t, memory.CreateContact(context.Background(), noProfile))

	result, err := service.SyncAllContacts(context.Background(), nil, models.PlatformLinkedIn)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalContacts, "contact without a linkedin profile is excluded")
	assert.Equal(t, 0, result.TotalSynced)
	assert.Equal(t, 1, linkedinClient.calls, "only the linked contact reaches the platform")
	_ = withProfile
}

func TestSyncAllContacts_AggregatesAcrossContacts(t *testing.T) {
	memory := store.NewMemoryStore()
	client := &fakeClient{
		platform: models.PlatformInstagram,
		events: []models.SocialInteractionData{
			{ExternalID: "shared", Type: models.InteractionSocialLike, Platform: models.PlatformInstagram, Timestamp: time.Now().UTC()},
		},
	}
	service := NewService(memory, map[models.Platform]platforms.Client{models.PlatformInstagram: client}, nil)

	seedContact(t, memory, igProfile())
	second := &models.Contact{
		ID:             models.NewID(),
		Name:           "Jos Peeters",
		Email:          "jos@example.com",
		SocialProfiles: []models.SocialProfile{{Platform: models.PlatformInstagram, Handle: "josp"}},
	}
	require.NoError(t, memory.CreateContact(context.Background(), second))

	result, err := service.SyncAllContacts(context.Background(), nil, "")
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalContacts)
	assert.Equal(t, 2, result.TotalSynced, "the same external id is scoped per contact")
	assert.Equal(t, 0, result.TotalErrors)
}

func TestSyncAllContacts_Cancellation(t *testing.T) {
	memory := store.NewMemoryStore()
	client := &fakeClient{platform: models.PlatformInstagram}
	service := NewService(memory, map[models.Platform]platforms.Client{models.PlatformInstagram: client}, nil)

	for i := 0; i < 20; i++ {
		contact := &models.Contact{
			ID:             models.NewID(),
			SocialProfiles: []models.SocialProfile{igProfile()},
		}
		require.NoError(t, memory.CreateContact(context.Background(), contact))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.SyncAllContacts(ctx, nil, "")
	assert.ErrorIs(t, err, context.Canceled)
}
