package ethsigner

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestSign_MatchesKnownFixture(t *testing.T) {
	keyBytes, err := hex.DecodeString("416ddb82736d0ddf80cc50eda0639a2dd9f104aef121fb9c8af647ad8944a8b1")
	if err != nil {
		t.Fatalf("decode key: %v", err)
	}
	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		t.Fatalf("ToECDSA: %v", err)
	}
	signer := New(key)

	sig, err := signer.Sign([]byte("hello_world1"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	want, err := hex.DecodeString("ff244ad5573d02bc6ead270d5ff48c490b0113225dd61617791ba6610ed1e56a007ec790f8fca53243907b888e6b33ad15c52fed3bc6a7ee5da2fa287ea4f8211b")
	if err != nil {
		t.Fatalf("decode expected: %v", err)
	}
	if hex.EncodeToString(sig[:]) != hex.EncodeToString(want) {
		t.Fatalf("signature mismatch:\ngot  %x\nwant %x", sig, want)
	}
	if sig[64] != 0x1b {
		t.Fatalf("expected v=0x1b, got %x", sig[64])
	}
}

func TestRecover_ReturnsSigningAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer := New(key)
	payload := []byte("some payload to sign")

	sig, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	addr, err := Recover(payload, sig)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if addr != signer.Address() {
		t.Fatalf("recovered address mismatch: got %s want %s", addr, signer.Address())
	}
}
