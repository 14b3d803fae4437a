package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/arne-braeckman/eventrunner-integrations/internal/platforms"
	"github.com/arne-braeckman/eventrunner-integrations/internal/ratelimit"
	"github.com/arne-braeckman/eventrunner-integrations/internal/scoring"
	"github.com/arne-braeckman/eventrunner-integrations/internal/store"
	"github.com/sirupsen/logrus"
)

const defaultWorkers = 8

// HeatAlerter is notified when a contact crosses into the hot tier.
type HeatAlerter interface {
	SendHotLeadAlert(contact *models.Contact, previous models.LeadHeat) error
}

// Service synchronizes platform-side interaction events into the contact
// store. Events deduplicate on their external id, so re-running a sync is
// idempotent; every sync that lands at least one new event triggers a full
// rescore of the contact.
type Service struct {
	store   store.ContactStore
	clients map[models.Platform]platforms.Client
	alerter HeatAlerter
	now     func() time.Time
}

// NewService creates a sync service. alerter may be nil.
func NewService(contactStore store.ContactStore, clients map[models.Platform]platforms.Client, alerter HeatAlerter) *Service {
	return &Service{
		store:   contactStore,
		clients: clients,
		alerter: alerter,
		now:     time.Now,
	}
}

// SyncContactInteractions syncs one contact. An empty platform means every
// configured platform the contact has a linked profile for. Per-platform
// failures are counted, not propagated; only a missing contact is an error.
func (s *Service) SyncContactInteractions(ctx context.Context, contactID string, platform models.Platform, since *time.Time) (models.SyncResult, error) {
	var result models.SyncResult

	contact, err := s.store.GetContact(ctx, contactID)
	if err != nil {
		return result, fmt.Errorf("contact %s: %w", contactID, err)
	}

	known, err := s.knownExternalIDs(ctx, contactID)
	if err != nil {
		return result, err
	}

	var (
		newInteractions int
		maxEventTime    time.Time
	)

	for _, target := range s.targetPlatforms(platform) {
		client, ok := s.clients[target]
		if !ok {
			continue
		}
		profile, ok := contact.ProfileFor(target)
		if !ok {
			continue
		}

		events, err := client.GetInteractions(ctx, profile, since)
		if err != nil {
			logrus.Errorf("Failed to fetch %s interactions for contact %s: %v", target, contactID, err)
			result.Errors++
			continue
		}

		for _, event := range events {
			if event.ExternalID == "" || known[event.ExternalID] {
				continue
			}
			if err := s.persistEvent(ctx, contactID, event); err != nil {
				logrus.Errorf("Failed to persist %s event %s: %v", target, event.ExternalID, err)
				result.Errors++
				continue
			}
			known[event.ExternalID] = true
			newInteractions++
			result.Synced++
			if event.Timestamp.After(maxEventTime) {
				maxEventTime = event.Timestamp
			}
		}
	}

	if newInteractions > 0 {
		if err := s.rescore(ctx, contact, maxEventTime, platform); err != nil {
			logrus.Errorf("Failed to rescore contact %s: %v", contactID, err)
			result.Errors++
		}
	}

	return result, nil
}

// SyncAllContacts syncs every contact through a bounded worker pool. When a
// platform filter is given, contacts without a linked profile for it are
// skipped entirely and do not count toward TotalContacts; the pool is also
// bounded by that platform's request budget so a bulk run cannot outpace
// its rate window. Single-contact failures never halt the iteration.
func (s *Service) SyncAllContacts(ctx context.Context, since *time.Time, platform models.Platform) (models.BulkSyncResult, error) {
	var result models.BulkSyncResult

	contacts, err := s.store.ListContacts(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list contacts: %w", err)
	}

	var targets []models.Contact
	for _, contact := range contacts {
		if platform != "" {
			if _, ok := contact.ProfileFor(platform); !ok {
				continue
			}
		}
		targets = append(targets, contact)
	}
	result.TotalContacts = len(targets)

	workers := defaultWorkers
	if platform != "" {
		if budget := ratelimit.ForPlatform(platform).MaxRequests(); budget < workers {
			workers = budget
		}
	}
	if workers > len(targets) {
		workers = len(targets)
	}
	if workers == 0 {
		return result, nil
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for contactID := range jobs {
				contactResult, err := s.SyncContactInteractions(ctx, contactID, platform, since)
				mu.Lock()
				result.TotalSynced += contactResult.Synced
				result.TotalErrors += contactResult.Errors
				if err != nil {
					result.TotalErrors++
				}
				mu.Unlock()
			}
		}()
	}

	// Feed jobs until done or cancelled; cancellation between contacts is
	// cooperative and already-persisted work stays persisted.
	for _, contact := range targets {
		if ctx.Err() != nil {
			close(jobs)
			wg.Wait()
			return result, ctx.Err()
		}
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return result, ctx.Err()
		case jobs <- contact.ID:
		}
	}
	close(jobs)
	wg.Wait()

	logrus.Infof("Bulk sync finished: %d contacts, %d events, %d errors",
		result.TotalContacts, result.TotalSynced, result.TotalErrors)
	return result, nil
}

func (s *Service) targetPlatforms(platform models.Platform) []models.Platform {
	if platform != "" {
		return []models.Platform{platform}
	}
	targets := make([]models.Platform, 0, len(s.clients))
	for _, p := range models.AllPlatforms {
		if _, ok := s.clients[p]; ok {
			targets = append(targets, p)
		}
	}
	return targets
}

// knownExternalIDs indexes the external ids already recorded for a contact.
func (s *Service) knownExternalIDs(ctx context.Context, contactID string) (map[string]bool, error) {
	interactions, err := s.store.ListInteractions(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions for %s: %w", contactID, err)
	}

	known := make(map[string]bool, len(interactions))
	for _, interaction := range interactions {
		if interaction.Metadata.ExternalID != "" {
			known[interaction.Metadata.ExternalID] = true
		}
	}
	return known, nil
}

func (s *Service) persistEvent(ctx context.Context, contactID string, event models.SocialInteractionData) error {
	interaction := &models.Interaction{
		ID:          models.NewID(),
		ContactID:   contactID,
		Type:        event.Type,
		Platform:    event.Platform,
		Description: fmt.Sprintf("%s on %s", event.Type, event.Platform),
		Metadata: models.InteractionMetadata{
			Source:     models.SourceSocialMediaSync,
			ExternalID: event.ExternalID,
			UserID:     event.UserID,
			UserHandle: event.UserHandle,
			Extra:      event.Payload,
		},
		// Event time, not ingestion time: scoring history must reflect when
		// the engagement actually happened.
		CreatedAt: event.Timestamp,
	}
	return s.store.CreateInteraction(ctx, interaction)
}

// rescore re-reads the contact's full interaction history and writes back
// the derived heat, score and activity timestamps.
func (s *Service) rescore(ctx context.Context, contact *models.Contact, maxEventTime time.Time, platform models.Platform) error {
	interactions, err := s.store.ListInteractions(ctx, contact.ID)
	if err != nil {
		return err
	}

	previous := contact.LeadHeat
	score := scoring.ScoreInteractions(interactions)
	now := s.now().UTC()

	contact.LeadHeatScore = score
	contact.LeadHeat = scoring.Classify(score)
	contact.UpdatedAt = now
	if !maxEventTime.IsZero() {
		eventTime := maxEventTime
		contact.LastInteractionAt = &eventTime
	}
	for i := range contact.SocialProfiles {
		if platform == "" || contact.SocialProfiles[i].Platform == platform {
			syncedAt := now
			contact.SocialProfiles[i].LastSyncedAt = &syncedAt
		}
	}

	if err := s.store.UpdateContact(ctx, contact); err != nil {
		return err
	}

	if s.alerter != nil && previous != models.HeatHot && contact.LeadHeat == models.HeatHot {
		if err := s.alerter.SendHotLeadAlert(contact, previous); err != nil {
			logrus.Errorf("Failed to send hot lead alert for contact %s: %v", contact.ID, err)
		}
	}

	return nil
}
