package submitter

import (
	"testing"
	"time"

	"github.com/tonbridge/relay/pkg/relayerr"
	"github.com/tonbridge/relay/pkg/store"
)

func TestConfig_Backoff_MatchesFixture(t *testing.T) {
	cfg := Config{
		RetryInterval:   60 * time.Second,
		RetryMultiplier: 1.5,
		RetryCount:      10,
		TimeoutSec:      30,
	}
	got := cfg.Backoff(3)
	want := 135 * time.Second
	if got != want {
		t.Fatalf("Backoff(3) = %v, want %v", got, want)
	}
}

func TestConfig_Exhausted(t *testing.T) {
	cfg := Config{RetryCount: 3}
	if cfg.Exhausted(3) {
		t.Fatalf("Exhausted(3) = true, want false when RetryCount == 3")
	}
	if !cfg.Exhausted(4) {
		t.Fatalf("Exhausted(4) = false, want true when RetryCount == 3")
	}
}

func TestInFlight_DuplicateHashFailsFast(t *testing.T) {
	f := newInFlight()
	hash := [32]byte{1, 2, 3}
	expire := time.Now().Add(time.Minute)

	if _, err := f.begin(hash, expire); err != nil {
		t.Fatalf("first begin: unexpected error %v", err)
	}
	if _, err := f.begin(hash, expire); err != relayerr.ErrDuplicateMessage {
		t.Fatalf("second begin: got %v, want ErrDuplicateMessage", err)
	}

	f.end(hash)

	if _, err := f.begin(hash, expire); err != nil {
		t.Fatalf("begin after end: unexpected error %v", err)
	}
}

func TestVoteMethod(t *testing.T) {
	if got := voteMethod(store.VoteConfirm); got != "confirm" {
		t.Fatalf("voteMethod(VoteConfirm) = %q, want %q", got, "confirm")
	}
	if got := voteMethod(store.VoteReject); got != "reject" {
		t.Fatalf("voteMethod(VoteReject) = %q, want %q", got, "reject")
	}
}
