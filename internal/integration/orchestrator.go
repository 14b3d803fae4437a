package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/config"
	"github.com/arne-braeckman/eventrunner-integrations/internal/leads"
	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/arne-braeckman/eventrunner-integrations/internal/notifications"
	"github.com/arne-braeckman/eventrunner-integrations/internal/platforms"
	"github.com/arne-braeckman/eventrunner-integrations/internal/storage"
	"github.com/arne-braeckman/eventrunner-integrations/internal/store"
	"github.com/arne-braeckman/eventrunner-integrations/internal/syncer"
	"github.com/sirupsen/logrus"
)

// Orchestrator coordinates lead capture and interaction sync across every
// configured platform. It starts unconfigured: InitializeConfiguration must
// run before any other operation, and re-running it simply replaces the
// previous configuration.
type Orchestrator struct {
	store    store.ContactStore
	archive  storage.Archive
	notifier notifications.Notifier

	mu          sync.RWMutex
	configured  bool
	cfg         *config.Config
	clients     map[models.Platform]platforms.Client
	processor   *leads.Processor
	syncService *syncer.Service
	lastSync    map[models.Platform]time.Time
}

// New creates an unconfigured orchestrator. notifier may be nil.
func New(contactStore store.ContactStore, archive storage.Archive, notifier notifications.Notifier) *Orchestrator {
	return &Orchestrator{
		store:    contactStore,
		archive:  archive,
		notifier: notifier,
		lastSync: make(map[models.Platform]time.Time),
	}
}

// InitializeConfiguration builds one platform client per configured
// credential bundle. Platforms without credentials are skipped silently.
func (o *Orchestrator) InitializeConfiguration(cfg *config.Config) error {
	return o.InitializeWithClients(cfg, platforms.NewClients(cfg))
}

// InitializeWithClients is InitializeConfiguration with explicit clients,
// so alternate adapters can be wired in.
func (o *Orchestrator) InitializeWithClients(cfg *config.Config, clients map[models.Platform]platforms.Client) error {
	if cfg == nil {
		return fmt.Errorf("configuration is required")
	}

	var alerter syncer.HeatAlerter
	if o.notifier != nil {
		alerter = o.notifier
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.cfg = cfg
	o.clients = clients
	o.processor = leads.NewProcessor(o.store)
	o.syncService = syncer.NewService(o.store, clients, alerter)
	o.configured = true

	logrus.Infof("Integration layer configured with %d platform(s)", len(clients))
	return nil
}

// guard returns the current clients and services, or ErrNotConfigured.
func (o *Orchestrator) guard() (map[models.Platform]platforms.Client, *leads.Processor, *syncer.Service, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.configured {
		return nil, nil, nil, models.ErrNotConfigured
	}
	return o.clients, o.processor, o.syncService, nil
}

// TestPlatformConnections probes every configured client concurrently. A
// failing probe is recorded as false, never propagated.
func (o *Orchestrator) TestPlatformConnections(ctx context.Context) (map[models.Platform]bool, error) {
	clients, _, _, err := o.guard()
	if err != nil {
		return nil, err
	}

	results := make(map[models.Platform]bool, len(clients))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for platform, client := range clients {
		wg.Add(1)
		go func(platform models.Platform, client platforms.Client) {
			defer wg.Done()

			err := client.TestConnection(ctx)
			if err != nil {
				logrus.Errorf("Connection test failed for %s: %v", platform, err)
			}
			mu.Lock()
			results[platform] = err == nil
			mu.Unlock()
		}(platform, client)
	}
	wg.Wait()

	return results, nil
}

// CaptureLeadsFromAllPlatforms fans capture out across every configured
// platform concurrently, aggregates the results and feeds them through the
// lead processor. One platform failing is recorded and skipped; the others
// continue.
func (o *Orchestrator) CaptureLeadsFromAllPlatforms(ctx context.Context, since *time.Time) (models.CaptureResult, error) {
	clients, processor, _, err := o.guard()
	if err != nil {
		return models.CaptureResult{}, err
	}

	start := time.Now()
	logrus.Infof("Starting lead capture across %d platform(s)", len(clients))

	type captureOutcome struct {
		platform models.Platform
		leads    []models.LeadCaptureData
		err      error
	}

	outcomes := make(chan captureOutcome, len(clients))
	var wg sync.WaitGroup

	for platform, client := range clients {
		wg.Add(1)
		go func(platform models.Platform, client platforms.Client) {
			defer wg.Done()

			captured, err := client.CaptureLeads(ctx, since)
			outcomes <- captureOutcome{platform: platform, leads: captured, err: err}
		}(platform, client)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var result models.CaptureResult
	var allLeads []models.LeadCaptureData
	now := time.Now().UTC()

	for outcome := range outcomes {
		if outcome.err != nil {
			logrus.Errorf("Lead capture failed for %s: %v", outcome.platform, outcome.err)
			result.Failures = append(result.Failures, models.PlatformFailure{
				Platform: outcome.platform,
				Error:    outcome.err.Error(),
			})
			continue
		}
		allLeads = append(allLeads, outcome.leads...)
		o.recordSyncTime(outcome.platform, now)
	}

	result.Leads = len(allLeads)
	result.BatchResult = processor.BatchProcessLeads(ctx, allLeads)

	// Quiet runs produce no notification, only the archived report.
	notify := result.Processed > 0 || len(result.Failures) > 0
	o.archiveReport(&models.RunReport{
		Kind:       "capture",
		StartedAt:  start.UTC(),
		FinishedAt: time.Now().UTC(),
		Capture:    &result,
	}, notify)

	logrus.Infof("Lead capture finished in %v: %d leads, %d created, %d updated, %d errors, %d platform failures",
		time.Since(start), result.Leads, result.Created, result.Updated, result.Errors, len(result.Failures))
	return result, nil
}

// SyncContactInteractions syncs one contact's platform interactions.
func (o *Orchestrator) SyncContactInteractions(ctx context.Context, contactID string, platform models.Platform, since *time.Time) (models.SyncResult, error) {
	_, _, syncService, err := o.guard()
	if err != nil {
		return models.SyncResult{}, err
	}
	return syncService.SyncContactInteractions(ctx, contactID, platform, since)
}

// SyncAllInteractions runs a bulk sync across every contact.
func (o *Orchestrator) SyncAllInteractions(ctx context.Context, since *time.Time, platform models.Platform) (models.BulkSyncResult, error) {
	_, _, syncService, err := o.guard()
	if err != nil {
		return models.BulkSyncResult{}, err
	}

	start := time.Now()
	result, err := syncService.SyncAllContacts(ctx, since, platform)
	if err != nil {
		return result, err
	}

	now := time.Now().UTC()
	if platform != "" {
		o.recordSyncTime(platform, now)
	} else {
		clients, _, _, _ := o.guard()
		for p := range clients {
			o.recordSyncTime(p, now)
		}
	}

	o.archiveReport(&models.RunReport{
		Kind:       "sync",
		StartedAt:  start.UTC(),
		FinishedAt: now,
		Sync:       &result,
	}, true)

	return result, nil
}

// ProcessLead feeds one lead (e.g. from a verified webhook) through the
// lead processor.
func (o *Orchestrator) ProcessLead(ctx context.Context, lead models.LeadCaptureData) (string, error) {
	_, processor, _, err := o.guard()
	if err != nil {
		return "", err
	}
	return processor.ProcessLead(ctx, lead)
}

// PlatformStatus reports connectivity and last sync time per platform.
func (o *Orchestrator) PlatformStatus(ctx context.Context) (models.PlatformStatusReport, error) {
	connections, err := o.TestPlatformConnections(ctx)
	if err != nil {
		return models.PlatformStatusReport{}, err
	}

	report := models.PlatformStatusReport{
		Platforms: make(map[models.Platform]models.PlatformStatus, len(connections)),
	}

	o.mu.RLock()
	for platform, connected := range connections {
		status := models.PlatformStatus{Connected: connected}
		if lastSync, ok := o.lastSync[platform]; ok {
			t := lastSync
			status.LastSync = &t
		}
		report.Platforms[platform] = status
		if connected {
			report.TotalConnected++
		}
	}
	o.mu.RUnlock()

	return report, nil
}

func (o *Orchestrator) recordSyncTime(platform models.Platform, t time.Time) {
	o.mu.Lock()
	o.lastSync[platform] = t
	o.mu.Unlock()
}

// archiveReport persists the run report and sends the summary notification.
// Both are best-effort: a reporting failure never fails the run itself.
func (o *Orchestrator) archiveReport(report *models.RunReport, notify bool) {
	if o.archive != nil {
		data, err := json.Marshal(report)
		if err == nil {
			name := fmt.Sprintf("%s-%s.json", report.Kind, report.FinishedAt.Format("2006-01-02-15-04-05"))
			if err := o.archive.Store(name, data); err != nil {
				logrus.Errorf("Failed to archive %s report: %v", report.Kind, err)
			}
		}
	}

	if notify && o.notifier != nil {
		if err := o.notifier.SendRunReport(report); err != nil {
			logrus.Errorf("Failed to send %s report: %v", report.Kind, err)
		}
	}
}
