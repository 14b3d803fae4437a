package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature_RoundTrip(t *testing.T) {
	payload := []byte(`{"form_id":"f1","fields":{"email":"ann@example.com"}}`)
	secret := "venue-webhook-secret"

	signature := Sign(payload, secret)

	assert.True(t, VerifySignature(payload, signature, secret))
}

func TestVerifySignature_Mutations(t *testing.T) {
	payload := []byte(`{"form_id":"f1","fields":{"email":"ann@example.com"}}`)
	secret := "venue-webhook-secret"
	signature := Sign(payload, secret)

	t.Run("Single byte flipped in payload", func(t *testing.T) {
		mutated := append([]byte(nil), payload...)
		mutated[0] ^= 0x01
		assert.False(t, VerifySignature(mutated, signature, secret))
	})

	t.Run("Single byte flipped in signature", func(t *testing.T) {
		mutated := []byte(signature)
		mutated[len(mutated)-1] ^= 0x01
		assert.False(t, VerifySignature(payload, string(mutated), secret))
	})

	t.Run("Wrong secret", func(t *testing.T) {
		assert.False(t, VerifySignature(payload, signature, "other-secret"))
	})
}

func TestVerifySignature_MalformedHeaders(t *testing.T) {
	payload := []byte("payload")
	secret := "secret"

	tests := []struct {
		name   string
		header string
	}{
		{"Empty header", ""},
		{"Missing prefix", "deadbeef"},
		{"Wrong algorithm prefix", "sha1=deadbeef"},
		{"Non-hex digest", "sha256=not-hex-at-all"},
		{"Truncated digest", "sha256=dead"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifySignature(payload, tt.header, secret))
		})
	}
}

func TestVerifySignature_EmptySecret(t *testing.T) {
	payload := []byte("payload")
	assert.False(t, VerifySignature(payload, Sign(payload, ""), ""))
}
