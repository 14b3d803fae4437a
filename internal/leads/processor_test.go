package leads

import (
	"context"
	"errors"
	"testing"

	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/arne-braeckman/eventrunner-integrations/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock implementation of the contact store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockStore) GetContactByEmail(ctx context.Context, email string) (*models.Contact, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockStore) CreateContact(ctx context.Context, contact *models.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockStore) UpdateContact(ctx context.Context, contact *models.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Contact), args.Error(1)
}

func (m *MockStore) CreateInteraction(ctx context.Context, interaction *models.Interaction) error {
	args := m.Called(ctx, interaction)
	return args.Error(0)
}

func (m *MockStore) ListInteractions(ctx context.Context, contactID string) ([]models.Interaction, error) {
	args := m.Called(ctx, contactID)
	return args.Get(0).([]models.Interaction), args.Error(1)
}

func TestProcessLead_NewContactBaseState(t *testing.T) {
	memory := store.NewMemoryStore()
	processor := NewProcessor(memory)
	ctx := context.Background()

	contactID, err := processor.ProcessLead(ctx, models.LeadCaptureData{
		Platform: models.PlatformFacebook,
		Name:     "Ann Peeters",
		FormID:   "form1",
		AdID:     "ad9",
		Message:  "Looking for a wedding venue",
	})
	require.NoError(t, err)

	contact, err := memory.GetContact(ctx, contactID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusUnqualified, contact.Status)
	assert.Equal(t, models.HeatCold, contact.LeadHeat)
	assert.Equal(t, 5, contact.LeadHeatScore)
	assert.Equal(t, "facebook", contact.LeadSource)
	assert.Equal(t, "form1", contact.CustomFields["form_id"])
	assert.Equal(t, "ad9", contact.CustomFields["ad_id"])
	require.Len(t, contact.SocialProfiles, 1)
	assert.Equal(t, models.PlatformFacebook, contact.SocialProfiles[0].Platform)
	require.NotNil(t, contact.LastInteractionAt)

	interactions, err := memory.ListInteractions(ctx, contactID)
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, models.InteractionInfoRequest, interactions[0].Type)
	assert.Equal(t, models.SourceSocialMediaAPI, interactions[0].Metadata.Source)
	assert.Contains(t, interactions[0].Description, "form1")
}

func TestProcessLead_InteractionCarriesFullLead(t *testing.T) {
	memory := store.NewMemoryStore()
	processor := NewProcessor(memory)
	ctx := context.Background()

	contactID, err := processor.ProcessLead(ctx, models.LeadCaptureData{
		Platform:   models.PlatformLinkedIn,
		Name:       "Ben Maes",
		Email:      "ben@example.com",
		Phone:      "+32 478 00 00 00",
		Company:    "Maes Events",
		Message:    "Quote for a product launch",
		FormID:     "form7",
		CampaignID: "camp3",
		Metadata:   map[string]string{"username": "benmaes"},
	})
	require.NoError(t, err)

	interactions, err := memory.ListInteractions(ctx, contactID)
	require.NoError(t, err)
	require.Len(t, interactions, 1)

	meta := interactions[0].Metadata
	assert.Equal(t, "form7", meta.FormID)
	assert.Equal(t, "camp3", meta.CampaignID)
	assert.Equal(t, "Ben Maes", meta.Extra["name"])
	assert.Equal(t, "ben@example.com", meta.Extra["email"])
	assert.Equal(t, "+32 478 00 00 00", meta.Extra["phone"])
	assert.Equal(t, "Maes Events", meta.Extra["company"])
	assert.Equal(t, "Quote for a product launch", meta.Extra["message"])
	assert.Equal(t, "benmaes", meta.Extra["username"])
}

func TestProcessLead_DedupByEmail(t *testing.T) {
	memory := store.NewMemoryStore()
	processor := NewProcessor(memory)
	ctx := context.Background()

	first, err := processor.ProcessLead(ctx, models.LeadCaptureData{
		Platform: models.PlatformFacebook,
		Email:    "ann@example.com",
		Name:     "Ann Peeters",
	})
	require.NoError(t, err)

	second, err := processor.ProcessLead(ctx, models.LeadCaptureData{
		Platform: models.PlatformLinkedIn,
		Email:    "ann@example.com",
		Name:     "Ann Peeters",
	})
	require.NoError(t, err)

	assert.Equal(t, first, second, "same email must land on the same contact")

	contacts, err := memory.ListContacts(ctx)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	interactions, err := memory.ListInteractions(ctx, first)
	require.NoError(t, err)
	assert.Len(t, interactions, 2, "each capture records its own interaction")
}

func TestProcessLead_NoEmailAlwaysCreates(t *testing.T) {
	memory := store.NewMemoryStore()
	processor := NewProcessor(memory)
	ctx := context.Background()

	first, err := processor.ProcessLead(ctx, models.LeadCaptureData{
		Platform: models.PlatformInstagram,
		Name:     "annp",
	})
	require.NoError(t, err)

	second, err := processor.ProcessLead(ctx, models.LeadCaptureData{
		Platform: models.PlatformInstagram,
		Name:     "annp",
	})
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "no email means no dedup key")
}

func TestBatchProcessLeads_Counts(t *testing.T) {
	memory := store.NewMemoryStore()
	processor := NewProcessor(memory)

	result := processor.BatchProcessLeads(context.Background(), []models.LeadCaptureData{
		{Platform: models.PlatformFacebook, Email: "one@example.com"},
		{Platform: models.PlatformFacebook, Email: "two@example.com"},
		{Platform: models.PlatformTwitter, Email: "one@example.com"},
	})

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Errors)
}

func TestBatchProcessLeads_IsolatesFailures(t *testing.T) {
	mockStore := &MockStore{}
	processor := NewProcessor(mockStore)

	mockStore.On("GetContactByEmail", mock.Anything, "boom@example.com").
		Return(nil, errors.New("store unavailable"))
	mockStore.On("GetContactByEmail", mock.Anything, "fine@example.com").
		Return(nil, store.ErrNotFound)
	mockStore.On("CreateContact", mock.Anything, mock.Anything).Return(nil)
	mockStore.On("CreateInteraction", mock.Anything, mock.Anything).Return(nil)

	result := processor.BatchProcessLeads(context.Background(), []models.LeadCaptureData{
		{Platform: models.PlatformFacebook, Email: "boom@example.com"},
		{Platform: models.PlatformFacebook, Email: "fine@example.com"},
	})

	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Created)
}
