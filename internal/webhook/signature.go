package webhook

import "github.com/Sourasish2503/churn-buster-v9/internal/signing"

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Whop-Signature"

var (
	ErrNoSecret         = signing.ErrNoSecret
	ErrInvalidSignature = signing.ErrInvalidSignature
)

// Sign computes the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	return signing.Sign(secret, body)
}

// VerifySignature checks the signature header against the raw body in
// constant time.
func VerifySignature(secret, signature string, body []byte) error {
	return signing.Verify(secret, signature, body)
}
