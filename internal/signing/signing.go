// Package signing implements the HMAC-SHA256 scheme shared by inbound
// platform webhooks and outbound ledger event deliveries.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrNoSecret         = errors.New("webhook_secret_not_configured")
	ErrInvalidSignature = errors.New("invalid_webhook_signature")
)

// Sign computes the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature against the raw body in constant time. A
// "sha256=" prefix on the signature is tolerated. An empty secret
// rejects everything rather than letting unsigned payloads through.
func Verify(secret, signature string, body []byte) error {
	if secret == "" {
		return ErrNoSecret
	}
	signature = strings.TrimSpace(strings.TrimPrefix(signature, "sha256="))

	expected := Sign(secret, body)
	if len(signature) != len(expected) {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}
