package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tonbridge/relay/pkg/relayerr"
	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontransport"
)

type fakeFetcher struct {
	details tontransport.ConfigurationDetails
	failN   int // number of calls to fail before succeeding
	calls   int
}

func (f *fakeFetcher) GetConfigurationDetails(ctx context.Context, addr tontransport.Address) (tontransport.ConfigurationDetails, error) {
	f.calls++
	if f.calls <= f.failN {
		return tontransport.ConfigurationDetails{}, errors.New("transient")
	}
	return f.details, nil
}

type fakeHandlers struct {
	spawned []uint64
	stopped []uint64
}

func (h *fakeHandlers) Spawn(cfg *Configuration) error {
	h.spawned = append(h.spawned, cfg.ID)
	return nil
}

func (h *fakeHandlers) Stop(configurationID uint64, mode StopMode) error {
	h.stopped = append(h.stopped, configurationID)
	return nil
}

type fakeVotes struct {
	cast map[uint64]store.VoteKind
}

func (v *fakeVotes) CastBootstrap(configurationID uint64, kind store.VoteKind) error {
	if v.cast == nil {
		v.cast = make(map[uint64]store.VoteKind)
	}
	v.cast[configurationID] = kind
	return nil
}

func alwaysValid(tontransport.ConfigurationDetails) error { return nil }

func TestHandleNewConfiguration_ValidCastsConfirm(t *testing.T) {
	fetcher := &fakeFetcher{details: tontransport.ConfigurationDetails{Kind: "eth_to_ton"}}
	handlers := &fakeHandlers{}
	votes := &fakeVotes{}
	r := New(fetcher, FetchConfig{RetryCount: 2, RetryInterval: time.Millisecond}, alwaysValid, handlers, votes)

	if err := r.HandleNewConfiguration(context.Background(), NewConfigurationNotice{ID: 7}); err != nil {
		t.Fatalf("HandleNewConfiguration: %v", err)
	}
	if votes.cast[7] != store.VoteConfirm {
		t.Fatalf("cast = %v, want VoteConfirm", votes.cast[7])
	}
	cfg, ok := r.Get(7)
	if !ok {
		t.Fatalf("configuration 7 not tracked")
	}
	if cfg.Status != StatusVoting {
		t.Fatalf("status = %v, want StatusVoting", cfg.Status)
	}
}

func TestHandleNewConfiguration_InvalidCastsReject(t *testing.T) {
	fetcher := &fakeFetcher{details: tontransport.ConfigurationDetails{}}
	handlers := &fakeHandlers{}
	votes := &fakeVotes{}
	alwaysInvalid := func(tontransport.ConfigurationDetails) error { return errors.New("bad abi") }
	r := New(fetcher, FetchConfig{RetryCount: 0, RetryInterval: time.Millisecond}, alwaysInvalid, handlers, votes)

	if err := r.HandleNewConfiguration(context.Background(), NewConfigurationNotice{ID: 9}); err != nil {
		t.Fatalf("HandleNewConfiguration: %v", err)
	}
	if votes.cast[9] != store.VoteReject {
		t.Fatalf("cast = %v, want VoteReject", votes.cast[9])
	}
	cfg, _ := r.Get(9)
	if cfg.Status != StatusDiscarded {
		t.Fatalf("status = %v, want StatusDiscarded", cfg.Status)
	}
}

func TestHandleNewConfiguration_FetchRetriesThenSucceeds(t *testing.T) {
	fetcher := &fakeFetcher{details: tontransport.ConfigurationDetails{Kind: "ton_to_eth"}, failN: 2}
	handlers := &fakeHandlers{}
	votes := &fakeVotes{}
	r := New(fetcher, FetchConfig{RetryCount: 3, RetryInterval: time.Millisecond}, alwaysValid, handlers, votes)

	if err := r.HandleNewConfiguration(context.Background(), NewConfigurationNotice{ID: 1}); err != nil {
		t.Fatalf("HandleNewConfiguration: %v", err)
	}
	if fetcher.calls != 3 {
		t.Fatalf("fetcher.calls = %d, want 3", fetcher.calls)
	}
	if votes.cast[1] != store.VoteConfirm {
		t.Fatalf("cast = %v, want VoteConfirm", votes.cast[1])
	}
}

func TestHandleNewConfiguration_FetchExhaustedCastsReject(t *testing.T) {
	fetcher := &fakeFetcher{failN: 100}
	handlers := &fakeHandlers{}
	votes := &fakeVotes{}
	r := New(fetcher, FetchConfig{RetryCount: 2, RetryInterval: time.Millisecond}, alwaysValid, handlers, votes)

	if err := r.HandleNewConfiguration(context.Background(), NewConfigurationNotice{ID: 2}); err != nil {
		t.Fatalf("HandleNewConfiguration: %v", err)
	}
	if votes.cast[2] != store.VoteReject {
		t.Fatalf("cast = %v, want VoteReject", votes.cast[2])
	}
	if fetcher.calls != 3 { // initial + 2 retries
		t.Fatalf("fetcher.calls = %d, want 3", fetcher.calls)
	}
}

func TestHandleConfirmed_SpawnsHandler(t *testing.T) {
	fetcher := &fakeFetcher{details: tontransport.ConfigurationDetails{Kind: "eth_to_ton"}}
	handlers := &fakeHandlers{}
	votes := &fakeVotes{}
	r := New(fetcher, FetchConfig{}, alwaysValid, handlers, votes)
	_ = r.HandleNewConfiguration(context.Background(), NewConfigurationNotice{ID: 3})

	if err := r.HandleConfirmed(3); err != nil {
		t.Fatalf("HandleConfirmed: %v", err)
	}
	cfg, _ := r.Get(3)
	if cfg.Status != StatusActive {
		t.Fatalf("status = %v, want StatusActive", cfg.Status)
	}
	if len(handlers.spawned) != 1 || handlers.spawned[0] != 3 {
		t.Fatalf("spawned = %v, want [3]", handlers.spawned)
	}
}

func TestHandleConfirmed_UnknownConfiguration(t *testing.T) {
	r := New(&fakeFetcher{}, FetchConfig{}, alwaysValid, &fakeHandlers{}, &fakeVotes{})
	if err := r.HandleConfirmed(404); err != relayerr.ErrConfigurationNotFound {
		t.Fatalf("err = %v, want ErrConfigurationNotFound", err)
	}
}

func TestHandleUpdate_StaleNonceIgnored(t *testing.T) {
	fetcher := &fakeFetcher{details: tontransport.ConfigurationDetails{Kind: "eth_to_ton"}}
	handlers := &fakeHandlers{}
	votes := &fakeVotes{}
	r := New(fetcher, FetchConfig{}, alwaysValid, handlers, votes)
	_ = r.HandleNewConfiguration(context.Background(), NewConfigurationNotice{ID: 5})
	_ = r.HandleConfirmed(5)

	if err := r.HandleUpdate(BridgeConfigurationUpdate{ConfigurationID: 5, Nonce: 1, Active: false}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if len(handlers.stopped) != 1 {
		t.Fatalf("stopped = %v, want one stop", handlers.stopped)
	}

	err := r.HandleUpdate(BridgeConfigurationUpdate{ConfigurationID: 5, Nonce: 1, Active: true})
	if err != relayerr.ErrStaleNonce {
		t.Fatalf("second update err = %v, want ErrStaleNonce", err)
	}
	if len(handlers.stopped) != 1 {
		t.Fatalf("stopped after stale update = %v, should not grow", handlers.stopped)
	}
}

func TestHandleUpdate_DeactivateStopsHandler(t *testing.T) {
	fetcher := &fakeFetcher{details: tontransport.ConfigurationDetails{Kind: "ton_to_eth"}}
	handlers := &fakeHandlers{}
	votes := &fakeVotes{}
	r := New(fetcher, FetchConfig{}, alwaysValid, handlers, votes)
	_ = r.HandleNewConfiguration(context.Background(), NewConfigurationNotice{ID: 11})
	_ = r.HandleConfirmed(11)

	if err := r.HandleUpdate(BridgeConfigurationUpdate{ConfigurationID: 11, Nonce: 4, Active: false}); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	cfg, _ := r.Get(11)
	if cfg.Status != StatusStopped {
		t.Fatalf("status = %v, want StatusStopped", cfg.Status)
	}
	if len(handlers.stopped) != 1 || handlers.stopped[0] != 11 {
		t.Fatalf("stopped = %v, want [11]", handlers.stopped)
	}
}
