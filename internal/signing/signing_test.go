package signing

import "testing"

func TestVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"action":"payment.succeeded"}`)
	sig := Sign("whsec_test", body)

	if err := Verify("whsec_test", sig, body); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
	if err := Verify("whsec_test", "sha256="+sig, body); err != nil {
		t.Fatalf("expected prefixed signature to verify, got %v", err)
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	body := []byte(`{"amount":5000}`)
	sig := Sign("whsec_test", body)

	if err := Verify("whsec_test", sig, []byte(`{"amount":9000}`)); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if err := Verify("whsec_test", "deadbeef", body); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature for short signature, got %v", err)
	}
}

func TestVerifyRequiresSecret(t *testing.T) {
	body := []byte(`{}`)
	if err := Verify("", Sign("whsec_test", body), body); err != ErrNoSecret {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}
