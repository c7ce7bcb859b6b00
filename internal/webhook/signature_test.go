package webhook

import "testing"

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"action":"payment.succeeded"}`)
	sig := Sign("secret", body)

	if err := VerifySignature("secret", sig, body); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
	if err := VerifySignature("secret", "sha256="+sig, body); err != nil {
		t.Fatalf("expected prefixed signature to verify, got %v", err)
	}
	if err := VerifySignature("secret", sig, []byte(`{}`)); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if err := VerifySignature("other", sig, body); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature under wrong secret, got %v", err)
	}
	if err := VerifySignature("", sig, body); err != ErrNoSecret {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
	if err := VerifySignature("secret", "short", body); err != ErrInvalidSignature {
		t.Fatalf("expected length mismatch to fail, got %v", err)
	}
}
