package registry

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tonbridge/relay/pkg/relayerr"
	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontransport"
)

// NewConfigurationNotice is the NewEventConfiguration(id, address, type)
// feed item the registry watches for (spec section 4.4).
type NewConfigurationNotice struct {
	ID      uint64
	Address tontransport.Address
}

// BridgeConfigurationUpdate is the nonce-ordered update feed item (spec
// section 4.4): adjusts quorums or deactivates an already-active
// configuration.
type BridgeConfigurationUpdate struct {
	ConfigurationID       uint64
	Nonce                 uint64
	RequiredConfirmations uint16
	RequiredRejects       uint16
	Active                bool
}

// DetailsFetcher is the subset of tontransport.Transport the registry
// needs to fetch a configuration's details (spec section 4.4 step 1).
type DetailsFetcher interface {
	GetConfigurationDetails(ctx context.Context, addr tontransport.Address) (tontransport.ConfigurationDetails, error)
}

// FetchConfig bounds the getDetails retry loop (spec section 4.4 step 1;
// field names per original_source's event_configuration_details_retry_*).
type FetchConfig struct {
	RetryCount    int
	RetryInterval time.Duration
}

// Validator checks a fetched configuration's details for well-formedness
// (spec section 4.4 step 2: "ABI parses; address is well-formed;
// direction-specific fields are consistent").
type Validator func(tontransport.ConfigurationDetails) error

// HandlerController spawns and stops the direction-appropriate handler for
// a configuration (spec section 4.4 step 4).
type HandlerController interface {
	Spawn(cfg *Configuration) error
	Stop(configurationID uint64, mode StopMode) error
}

// VoteCaster casts a configuration's bootstrap Confirm/Reject vote (spec
// section 4.4 step 3). The caster is responsible for persisting and
// retrying it as a PendingVote (pkg/submitter.ConfigSubmitter).
type VoteCaster interface {
	CastBootstrap(configurationID uint64, kind store.VoteKind) error
}

// Registry tracks every EventConfiguration observed on T-chain and drives
// its state machine: Observed -> Voting -> {Active, Discarded} -> Stopped
// (spec section 4.4).
type Registry struct {
	mu       sync.RWMutex
	configs  map[uint64]*Configuration
	fetcher  DetailsFetcher
	fetchCfg FetchConfig
	validate Validator
	handlers HandlerController
	votes    VoteCaster
	logger   *log.Logger
}

// New constructs a Registry.
func New(fetcher DetailsFetcher, fetchCfg FetchConfig, validate Validator, handlers HandlerController, votes VoteCaster) *Registry {
	return &Registry{
		configs:  make(map[uint64]*Configuration),
		fetcher:  fetcher,
		fetchCfg: fetchCfg,
		validate: validate,
		handlers: handlers,
		votes:    votes,
		logger:   log.New(log.Writer(), "[Registry] ", log.LstdFlags),
	}
}

// Get returns the tracked configuration and whether it exists.
func (r *Registry) Get(configurationID uint64) (*Configuration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.configs[configurationID]
	return c, ok
}

// All returns a snapshot of every tracked configuration, for the HTTP
// control surface's GET /event-configurations route (spec section 6).
func (r *Registry) All() []*Configuration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Configuration, 0, len(r.configs))
	for _, c := range r.configs {
		cp := *c
		out = append(out, &cp)
	}
	return out
}

// HandleNewConfiguration processes a NewEventConfiguration notice: fetches
// details with retry, validates, and casts the bootstrap vote (spec
// section 4.4 steps 1-3).
func (r *Registry) HandleNewConfiguration(ctx context.Context, notice NewConfigurationNotice) error {
	cfg := &Configuration{
		ID:      notice.ID,
		Address: notice.Address,
		Status:  StatusObserved,
	}
	r.mu.Lock()
	r.configs[notice.ID] = cfg
	r.mu.Unlock()

	details, err := r.fetchDetailsWithRetry(ctx, notice.Address)
	if err != nil {
		r.logger.Printf("configuration %d: details fetch exhausted: %v", notice.ID, err)
		return r.castBootstrap(cfg, store.VoteReject)
	}
	cfg.Details = details

	r.mu.Lock()
	cfg.Status = StatusVoting
	r.mu.Unlock()

	if err := r.validate(details); err != nil {
		r.logger.Printf("configuration %d: validation failed: %v", notice.ID, err)
		return r.castBootstrap(cfg, store.VoteReject)
	}
	return r.castBootstrap(cfg, store.VoteConfirm)
}

// fetchDetailsWithRetry calls getDetails, retrying up to RetryCount times
// at RetryInterval (spec section 4.4 step 1).
func (r *Registry) fetchDetailsWithRetry(ctx context.Context, addr tontransport.Address) (tontransport.ConfigurationDetails, error) {
	var lastErr error
	for attempt := 0; attempt <= r.fetchCfg.RetryCount; attempt++ {
		details, err := r.fetcher.GetConfigurationDetails(ctx, addr)
		if err == nil {
			return details, nil
		}
		lastErr = err
		if attempt == r.fetchCfg.RetryCount {
			break
		}
		select {
		case <-ctx.Done():
			return tontransport.ConfigurationDetails{}, ctx.Err()
		case <-time.After(r.fetchCfg.RetryInterval):
		}
	}
	return tontransport.ConfigurationDetails{}, fmt.Errorf("getDetails exhausted after %d attempts: %w", r.fetchCfg.RetryCount+1, lastErr)
}

func (r *Registry) castBootstrap(cfg *Configuration, kind store.VoteKind) error {
	if kind == store.VoteReject {
		r.mu.Lock()
		cfg.Status = StatusDiscarded
		r.mu.Unlock()
	}
	return r.votes.CastBootstrap(cfg.ID, kind)
}

// HandleConfirmed transitions a configuration to Active and spawns its
// handler once bootstrap quorum confirms it (spec section 4.4 step 4).
func (r *Registry) HandleConfirmed(configurationID uint64) error {
	r.mu.Lock()
	cfg, ok := r.configs[configurationID]
	if !ok {
		r.mu.Unlock()
		return relayerr.ErrConfigurationNotFound
	}
	cfg.Status = StatusActive
	r.mu.Unlock()

	return r.handlers.Spawn(cfg)
}

// HandleRejected discards a configuration that failed to reach bootstrap
// quorum (spec section 4.4 step 4).
func (r *Registry) HandleRejected(configurationID uint64) error {
	r.mu.Lock()
	cfg, ok := r.configs[configurationID]
	if !ok {
		r.mu.Unlock()
		return relayerr.ErrConfigurationNotFound
	}
	cfg.Status = StatusDiscarded
	r.mu.Unlock()
	return nil
}

// HandleUpdate applies a nonce-ordered BridgeConfigurationUpdate. Updates
// with nonce <= the last accepted nonce are ignored; ties are broken by
// first-seen, which falls out naturally from applying updates one at a
// time under r.mu (spec section 4.4).
func (r *Registry) HandleUpdate(update BridgeConfigurationUpdate) error {
	r.mu.Lock()
	cfg, ok := r.configs[update.ConfigurationID]
	if !ok {
		r.mu.Unlock()
		return relayerr.ErrConfigurationNotFound
	}
	if update.Nonce <= cfg.LastAcceptedNonce {
		r.mu.Unlock()
		return relayerr.ErrStaleNonce
	}
	cfg.LastAcceptedNonce = update.Nonce
	cfg.Details.RequiredConfirmations = update.RequiredConfirmations
	cfg.Details.RequiredRejects = update.RequiredRejects

	shouldStop := !update.Active && cfg.Status == StatusActive
	if shouldStop {
		cfg.Status = StatusStopped
	}
	r.mu.Unlock()

	if shouldStop {
		return r.handlers.Stop(update.ConfigurationID, StopGraceful)
	}
	return nil
}
