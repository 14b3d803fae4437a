package scheduler

import (
	"context"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/config"
	"github.com/arne-braeckman/eventrunner-integrations/internal/integration"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service handles scheduling of capture and sync runs
type Service struct {
	config       *config.Config
	orchestrator *integration.Orchestrator
	cron         *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, orchestrator *integration.Orchestrator) *Service {
	return &Service{
		config:       cfg,
		orchestrator: orchestrator,
		cron:         cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled capture and sync runs
func (s *Service) Start() error {
	var cronExpression string
	var window time.Duration

	switch s.config.CaptureSchedule {
	case "hourly":
		// Run at the top of every hour
		cronExpression = "0 0 * * * *"
		window = time.Hour
	case "daily":
		// Run daily at 7 AM UTC, before the sales day starts
		cronExpression = "0 0 7 * * *"
		window = 24 * time.Hour
	default:
		cronExpression = "0 0 * * * *"
		window = time.Hour
	}

	_, err := s.cron.AddFunc(cronExpression, func() {
		logrus.Info("Starting scheduled lead capture run")
		since := time.Now().Add(-window).UTC()
		if _, err := s.orchestrator.CaptureLeadsFromAllPlatforms(context.Background(), &since); err != nil {
			logrus.Errorf("Scheduled lead capture failed: %v", err)
		}
	})

	if err != nil {
		return err
	}

	// Full interaction sync once a day at 6 AM UTC, ahead of the capture run
	_, err = s.cron.AddFunc("0 0 6 * * *", func() {
		logrus.Info("Starting scheduled interaction sync run")
		since := time.Now().Add(-24 * time.Hour).UTC()
		if _, err := s.orchestrator.SyncAllInteractions(context.Background(), &since, ""); err != nil {
			logrus.Errorf("Scheduled interaction sync failed: %v", err)
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s capture schedule (plus daily interaction sync)", s.config.CaptureSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
