// Package webhook authenticates and applies payment provider notifications.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const SignatureHeader = "X-CC-Webhook-Signature"

var (
	ErrMissingSignature = errors.New("webhook: missing signature or secret")
	ErrInvalidSignature = errors.New("webhook: signature mismatch")
)

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against the exact body bytes in constant time.
func Verify(body []byte, signature, secret string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" || secret == "" {
		return ErrMissingSignature
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
