package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arne-braeckman/eventrunner-integrations/internal/config"
	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	leads []models.LeadCaptureData
}

func (r *recordingSink) ProcessLead(_ context.Context, lead models.LeadCaptureData) (string, error) {
	r.leads = append(r.leads, lead)
	return "contact-1", nil
}

func newTestRouter(sink LeadSink) *mux.Router {
	cfg := &config.Config{
		Facebook: config.PlatformCredentials{
			AccessToken:   "token",
			WebhookSecret: "fb-secret",
		},
	}
	router := mux.NewRouter()
	NewHandler(cfg, sink).Register(router)
	return router
}

func TestHandleEvent_ValidSignature(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	payload := []byte(`{"form_id":"f1","fields":{"EMAIL":"ann@example.com","full_name":"Ann Peeters"}}`)
	req := httptest.NewRequest("POST", "/webhooks/facebook", bytes.NewReader(payload))
	req.Header.Set("X-Hub-Signature-256", Sign(payload, "fb-secret"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sink.leads, 1)
	assert.Equal(t, models.PlatformFacebook, sink.leads[0].Platform)
	assert.Equal(t, "ann@example.com", sink.leads[0].Email)
	assert.Equal(t, "Ann Peeters", sink.leads[0].Name)
	assert.Equal(t, "f1", sink.leads[0].FormID)
}

func TestHandleEvent_BadSignatureRejectedBeforeParsing(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	// Deliberately unparseable body: it must be rejected on the signature
	// alone, never decoded.
	payload := []byte(`{{{not json`)
	req := httptest.NewRequest("POST", "/webhooks/facebook", bytes.NewReader(payload))
	req.Header.Set("X-Hub-Signature-256", "sha256=0000000000000000000000000000000000000000000000000000000000000000")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sink.leads)
}

func TestHandleEvent_MissingSignature(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	payload := []byte(`{"fields":{"email":"ann@example.com"}}`)
	req := httptest.NewRequest("POST", "/webhooks/facebook", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sink.leads)
}

func TestHandleEvent_UnknownPlatform(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	payload := []byte(`{}`)
	req := httptest.NewRequest("POST", "/webhooks/linkedin", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleVerification_Handshake(t *testing.T) {
	router := newTestRouter(&recordingSink{})

	req := httptest.NewRequest("GET", "/webhooks/facebook?hub.mode=subscribe&hub.verify_token=fb-secret&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())

	req = httptest.NewRequest("GET", "/webhooks/facebook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
