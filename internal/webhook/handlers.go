package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/arne-braeckman/eventrunner-integrations/internal/config"
	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/arne-braeckman/eventrunner-integrations/internal/platforms"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// LeadSink receives the leads extracted from verified webhook payloads.
type LeadSink interface {
	ProcessLead(ctx context.Context, lead models.LeadCaptureData) (string, error)
}

// Handler terminates inbound platform webhooks. Signature verification runs
// on the raw body before any JSON decoding; a bad signature is a hard 401.
type Handler struct {
	cfg  *config.Config
	sink LeadSink
}

// inboundPayload is the platform-agnostic shape we accept on the webhook:
// a lead event with raw field name/value pairs, normalized the same way the
// polling capture path normalizes form fields.
type inboundPayload struct {
	FormID     string            `json:"form_id"`
	AdID       string            `json:"ad_id"`
	CampaignID string            `json:"campaign_id"`
	Fields     map[string]string `json:"fields"`
}

// NewHandler creates the webhook handler.
func NewHandler(cfg *config.Config, sink LeadSink) *Handler {
	return &Handler{cfg: cfg, sink: sink}
}

// Register mounts the webhook routes on the router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/webhooks/{platform}", h.handleVerification).Methods("GET")
	router.HandleFunc("/webhooks/{platform}", h.handleEvent).Methods("POST")
}

// handleVerification answers the Facebook-style subscription handshake:
// echo hub.challenge when hub.verify_token matches the platform's secret.
func (h *Handler) handleVerification(w http.ResponseWriter, r *http.Request) {
	platform := models.Platform(mux.Vars(r)["platform"])
	secret := h.cfg.Credentials(platform).WebhookSecret

	query := r.URL.Query()
	if secret == "" || query.Get("hub.mode") != "subscribe" || query.Get("hub.verify_token") != secret {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(query.Get("hub.challenge")))
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	platform := models.Platform(mux.Vars(r)["platform"])
	secret := h.cfg.Credentials(platform).WebhookSecret
	if secret == "" {
		http.Error(w, "unknown platform", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	if !VerifySignature(body, r.Header.Get("X-Hub-Signature-256"), secret) {
		logrus.Warnf("Rejected %s webhook: signature verification failed", platform)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload inboundPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	lead := platforms.NormalizeLead(platform, payload.Fields)
	lead.FormID = payload.FormID
	lead.AdID = payload.AdID
	lead.CampaignID = payload.CampaignID

	contactID, err := h.sink.ProcessLead(r.Context(), lead)
	if err != nil {
		logrus.Errorf("Failed to process %s webhook lead: %v", platform, err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"contact_id": contactID})
}
