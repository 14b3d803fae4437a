package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/arne-braeckman/eventrunner-integrations/internal/scoring"
	"github.com/arne-braeckman/eventrunner-integrations/internal/store"
	"github.com/sirupsen/logrus"
)

// Processor turns captured lead data into contacts and interactions.
// Email is the dedup key: a lead whose email matches an existing contact
// only records a new interaction instead of creating a duplicate.
type Processor struct {
	store store.ContactStore
	now   func() time.Time
}

// NewProcessor creates a lead processor.
func NewProcessor(contactStore store.ContactStore) *Processor {
	return &Processor{
		store: contactStore,
		now:   time.Now,
	}
}

// ProcessLead deduplicates one lead against existing contacts and returns
// the id of the contact it landed on.
func (p *Processor) ProcessLead(ctx context.Context, lead models.LeadCaptureData) (string, error) {
	contactID, _, err := p.process(ctx, lead)
	return contactID, err
}

// BatchProcessLeads processes each lead independently. One lead failing
// increments Errors and never aborts the rest of the batch.
func (p *Processor) BatchProcessLeads(ctx context.Context, leads []models.LeadCaptureData) models.BatchResult {
	var result models.BatchResult

	for _, lead := range leads {
		_, created, err := p.process(ctx, lead)
		if err != nil {
			logrus.Errorf("Failed to process %s lead: %v", lead.Platform, err)
			result.Errors++
			continue
		}
		result.Processed++
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	return result
}

func (p *Processor) process(ctx context.Context, lead models.LeadCaptureData) (string, bool, error) {
	if lead.Email != "" {
		existing, err := p.store.GetContactByEmail(ctx, lead.Email)
		if err == nil {
			if err := p.recordCapture(ctx, existing, lead); err != nil {
				return "", false, err
			}
			return existing.ID, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", false, fmt.Errorf("email lookup failed: %w", err)
		}
	}

	contact, err := p.createContact(ctx, lead)
	if err != nil {
		return "", false, err
	}
	if err := p.createInteraction(ctx, contact.ID, lead); err != nil {
		return "", false, err
	}
	return contact.ID, true, nil
}

// recordCapture appends the capture interaction to an existing contact and
// bumps its activity timestamps.
func (p *Processor) recordCapture(ctx context.Context, contact *models.Contact, lead models.LeadCaptureData) error {
	if err := p.createInteraction(ctx, contact.ID, lead); err != nil {
		return err
	}

	now := p.now().UTC()
	contact.LastInteractionAt = &now
	contact.UpdatedAt = now
	if err := p.store.UpdateContact(ctx, contact); err != nil {
		return fmt.Errorf("failed to update contact %s: %w", contact.ID, err)
	}

	logrus.Debugf("Recorded repeat capture for contact %s from %s", contact.ID, lead.Platform)
	return nil
}

func (p *Processor) createContact(ctx context.Context, lead models.LeadCaptureData) (*models.Contact, error) {
	now := p.now().UTC()

	customFields := map[string]string{}
	if lead.FormID != "" {
		customFields["form_id"] = lead.FormID
	}
	if lead.AdID != "" {
		customFields["ad_id"] = lead.AdID
	}
	if lead.CampaignID != "" {
		customFields["campaign_id"] = lead.CampaignID
	}
	for k, v := range lead.Metadata {
		customFields[k] = v
	}

	// The capture interaction itself is persisted right after this record,
	// so seed the score with the info-request weight instead of rescanning.
	baseScore := scoring.Weight(models.InteractionInfoRequest)

	contact := &models.Contact{
		ID:                models.NewID(),
		Name:              lead.Name,
		Email:             lead.Email,
		Phone:             lead.Phone,
		Company:           lead.Company,
		LeadSource:        string(lead.Platform),
		LeadHeat:          models.HeatCold,
		LeadHeatScore:     baseScore,
		Status:            models.StatusUnqualified,
		Notes:             lead.Message,
		SocialProfiles:    []models.SocialProfile{seedProfile(lead)},
		CustomFields:      customFields,
		CreatedAt:         now,
		UpdatedAt:         now,
		LastInteractionAt: &now,
	}

	if err := p.store.CreateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	logrus.Infof("Created contact %s from %s lead", contact.ID, lead.Platform)
	return contact, nil
}

func (p *Processor) createInteraction(ctx context.Context, contactID string, lead models.LeadCaptureData) error {
	description := fmt.Sprintf("Lead captured from %s", lead.Platform)
	if lead.FormID != "" {
		description = fmt.Sprintf("Lead captured from %s (form %s)", lead.Platform, lead.FormID)
	}

	// The interaction carries the complete captured lead, so the audit
	// trail survives later edits to the contact record.
	extra := make(map[string]interface{}, len(lead.Metadata)+5)
	for k, v := range lead.Metadata {
		extra[k] = v
	}
	if lead.Name != "" {
		extra["name"] = lead.Name
	}
	if lead.Email != "" {
		extra["email"] = lead.Email
	}
	if lead.Phone != "" {
		extra["phone"] = lead.Phone
	}
	if lead.Company != "" {
		extra["company"] = lead.Company
	}
	if lead.Message != "" {
		extra["message"] = lead.Message
	}

	interaction := &models.Interaction{
		ID:          models.NewID(),
		ContactID:   contactID,
		Type:        models.InteractionInfoRequest,
		Platform:    lead.Platform,
		Description: description,
		Metadata: models.InteractionMetadata{
			Source:     models.SourceSocialMediaAPI,
			FormID:     lead.FormID,
			AdID:       lead.AdID,
			CampaignID: lead.CampaignID,
			Extra:      extra,
		},
		CreatedAt: p.now().UTC(),
	}

	if err := p.store.CreateInteraction(ctx, interaction); err != nil {
		return fmt.Errorf("failed to record capture interaction: %w", err)
	}
	return nil
}

// seedProfile builds the initial social profile entry for a new contact.
// Some platforms report a handle in the lead metadata; when absent the
// entry still marks which platform the contact came from.
func seedProfile(lead models.LeadCaptureData) models.SocialProfile {
	handle := lead.Metadata["username"]
	if handle == "" {
		handle = lead.Metadata["sender_id"]
	}
	return models.SocialProfile{
		Platform:  lead.Platform,
		Handle:    handle,
		Connected: handle != "",
	}
}
