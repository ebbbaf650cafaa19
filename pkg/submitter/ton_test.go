package submitter

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontransport"
	"github.com/tonbridge/relay/pkg/tsigner"
)

type fakeTonTransport struct {
	result tontransport.SendResult
	err    error
	sent   []tontransport.OutboundMessage
}

func (f *fakeTonTransport) CurrentLT(ctx context.Context, addr tontransport.Address) (uint64, error) {
	return 0, nil
}
func (f *fakeTonTransport) GetConfigurationDetails(ctx context.Context, addr tontransport.Address) (tontransport.ConfigurationDetails, error) {
	return tontransport.ConfigurationDetails{}, nil
}
func (f *fakeTonTransport) SubscribeMessages(ctx context.Context, addr tontransport.Address, sinceLT uint64) (<-chan tontransport.Message, error) {
	ch := make(chan tontransport.Message)
	close(ch)
	return ch, nil
}
func (f *fakeTonTransport) SendMessage(ctx context.Context, msg tontransport.OutboundMessage, sig [64]byte) (tontransport.SendResult, error) {
	f.sent = append(f.sent, msg)
	return f.result, f.err
}

type fakeConfigResolver struct {
	addr tontransport.Address
	err  error
}

func (f fakeConfigResolver) TonAddressFor(configurationID uint64) (tontransport.Address, error) {
	return f.addr, f.err
}

func testTonSubmitter(t *testing.T, transport tontransport.Transport) (*TonSubmitter, *store.TonVotes) {
	t.Helper()
	kv := store.NewCometKV(dbm.NewMemDB())
	votes := store.NewTonVotes(kv)
	stats := store.NewTonStats(kv)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer := tsigner.New(priv)

	dest := tontransport.Address{Workchain: 0, AccountID: [32]byte{9}}
	resolver := fakeConfigResolver{addr: dest}

	cfg := Config{RetryInterval: time.Second, RetryMultiplier: 1, RetryCount: 3, TimeoutSec: 30}
	sub := NewTonSubmitter(cfg, votes, stats, transport, signer, resolver)
	return sub, votes
}

func pendingTonVote(configID uint64) store.PendingTonVote {
	return store.PendingTonVote{
		Envelope: store.TonVoteEnvelope{
			Vote: store.SignedTonEventVoteData{
				Data: store.TonEventVoteData{
					ConfigurationID:    configID,
					EventTransaction:   [32]byte{1},
					EventTransactionLT: 42,
					EventIndex:         0,
				},
				Signature: [65]byte{7},
			},
			Kind: store.VoteConfirm,
		},
		FirstSubmittedAt: time.Now(),
	}
}

func TestTonSubmitter_Attempt_LandsAndDeletesPending(t *testing.T) {
	transport := &fakeTonTransport{result: tontransport.SendResult{Landed: true, Success: true}}
	sub, votes := testTonSubmitter(t, transport)

	v := pendingTonVote(1)
	if err := votes.Put(v); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := sub.attempt(context.Background(), v); err != nil {
		t.Fatalf("attempt: %v", err)
	}

	if len(transport.sent) != 1 {
		t.Fatalf("expected exactly one SendMessage call, got %d", len(transport.sent))
	}
	sent := transport.sent[0]
	if sent.Dest != (tontransport.Address{Workchain: 0, AccountID: [32]byte{9}}) {
		t.Fatalf("message addressed to %v, want the configuration's own T-chain contract", sent.Dest)
	}
	if sent.Method != "confirm" {
		t.Fatalf("Method = %q, want confirm", sent.Method)
	}

	var remaining int
	_ = votes.Range(func(store.PendingTonVote) error { remaining++; return nil })
	if remaining != 0 {
		t.Fatalf("expected pending vote to be deleted after landing, found %d", remaining)
	}
}

func TestTonSubmitter_Attempt_FailureReschedules(t *testing.T) {
	transport := &fakeTonTransport{result: tontransport.SendResult{Landed: false}}
	sub, votes := testTonSubmitter(t, transport)

	v := pendingTonVote(1)
	if err := votes.Put(v); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := sub.attempt(context.Background(), v); err != nil {
		t.Fatalf("attempt: %v", err)
	}

	got, err := votes.Get(1, [32]byte{1}, 42, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1", got.Attempts)
	}
	if !got.NextRetryAt.After(v.FirstSubmittedAt) {
		t.Fatalf("expected NextRetryAt to move forward after a failed attempt")
	}
}

func TestTonSubmitter_OnSuccess_RecordsStatKeyedByTonAddress(t *testing.T) {
	transport := &fakeTonTransport{result: tontransport.SendResult{Landed: true, Success: true}}
	sub, votes := testTonSubmitter(t, transport)

	v := pendingTonVote(1)
	if err := votes.Put(v); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var landed uint64
	sub.SetOnLanded(func(id uint64) { landed = id })

	dest := tontransport.Address{Workchain: 0, AccountID: [32]byte{9}}
	if err := sub.onSuccess(dest, v); err != nil {
		t.Fatalf("onSuccess: %v", err)
	}
	if landed != 1 {
		t.Fatalf("onLanded called with configuration %d, want 1", landed)
	}
	stats, err := sub.stats.ListForRelay(sub.signer.PublicKey())
	if err != nil {
		t.Fatalf("ListForRelay: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected one stat keyed by the relay's T-chain public key, got %d", len(stats))
	}
}
