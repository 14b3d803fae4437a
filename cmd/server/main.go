package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/config"
	"github.com/arne-braeckman/eventrunner-integrations/internal/integration"
	"github.com/arne-braeckman/eventrunner-integrations/internal/notifications"
	"github.com/arne-braeckman/eventrunner-integrations/internal/scheduler"
	"github.com/arne-braeckman/eventrunner-integrations/internal/storage"
	"github.com/arne-braeckman/eventrunner-integrations/internal/store"
	"github.com/arne-braeckman/eventrunner-integrations/internal/webhook"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting EventRunner integration service")

	// Initialize the run report archive
	var archive storage.Archive
	if cfg.StorageAccount != "" {
		blobArchive, err := storage.NewBlobArchive(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize storage: %v", err)
		}
		archive = blobArchive
	} else {
		logrus.Warn("AZURE_STORAGE_ACCOUNT not set, run reports will not survive restarts")
		archive = storage.NewMemoryArchive()
	}

	// Initialize notification services
	notificationService := notifications.NewService(cfg)

	// Initialize the contact store and orchestrator
	contactStore := store.NewMemoryStore()
	orchestrator := integration.New(contactStore, archive, notificationService)
	if err := orchestrator.InitializeConfiguration(cfg); err != nil {
		logrus.Fatalf("Failed to initialize integrations: %v", err)
	}

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, orchestrator)

	// Start scheduler
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up HTTP server for health checks, webhooks and manual triggers
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Platform status endpoint
	router.HandleFunc("/status", statusHandler(orchestrator)).Methods("GET")

	// Manual trigger endpoints (for testing)
	router.HandleFunc("/trigger/capture", captureTriggerHandler(orchestrator)).Methods("POST")
	router.HandleFunc("/trigger/sync", syncTriggerHandler(orchestrator)).Methods("POST")

	// Platform webhook endpoints
	webhook.NewHandler(cfg, orchestrator).Register(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func statusHandler(orchestrator *integration.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := orchestrator.PlatformStatus(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(report)
	}
}

func captureTriggerHandler(orchestrator *integration.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			if _, err := orchestrator.CaptureLeadsFromAllPlatforms(context.Background(), nil); err != nil {
				logrus.Errorf("Manual capture trigger failed: %v", err)
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Lead capture triggered successfully"}`))
	}
}

func syncTriggerHandler(orchestrator *integration.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			if _, err := orchestrator.SyncAllInteractions(context.Background(), nil, ""); err != nil {
				logrus.Errorf("Manual sync trigger failed: %v", err)
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Interaction sync triggered successfully"}`))
	}
}
