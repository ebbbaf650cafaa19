package tsigner

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer := New(priv)
	payload := []byte("cross-chain payload")

	sig := signer.Sign(payload)
	if !Verify(pub, payload, sig) {
		t.Fatalf("expected signature to verify")
	}
	if Verify(pub, []byte("tampered"), sig) {
		t.Fatalf("expected signature over different payload to fail")
	}
}
