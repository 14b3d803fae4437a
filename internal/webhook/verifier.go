package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// VerifySignature checks an inbound webhook payload against its signature
// header. The signature is an HMAC-SHA256 over the exact raw payload bytes,
// presented as "sha256=" + hex digest (the Facebook scheme; the other
// platforms follow the same shape). It returns false on any mismatch,
// malformed header or decode failure — never an error — and must run before
// the payload is parsed or trusted in any way.
func VerifySignature(payload []byte, signatureHeader, secret string) bool {
	if secret == "" || signatureHeader == "" {
		return false
	}
	if !strings.HasPrefix(signatureHeader, signaturePrefix) {
		return false
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(signatureHeader, signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)

	return hmac.Equal(provided, mac.Sum(nil))
}

// Sign computes the signature header value for a payload. Used by tests and
// by the platform-check tool to exercise the inbound path end to end.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
