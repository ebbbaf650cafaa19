package relay

import (
	"context"
	"fmt"

	"github.com/tonbridge/relay/pkg/registry"
	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontransport"
)

// RescanEth resets the E→T high-water mark for every active E→T
// configuration to block, so the next poll tick re-scans from there (spec
// section 6 "/rescan-eth").
func (s *Service) RescanEth(block uint64) error {
	if s.registry == nil {
		return fmt.Errorf("relay: not running")
	}
	for _, cfg := range s.registry.All() {
		if !cfg.IsEthToTon() || cfg.Status != registry.StatusActive {
			continue
		}
		if block == 0 {
			if err := s.meta.SaveLastScannedBlock(cfg.ID, 0); err != nil {
				return err
			}
			continue
		}
		if err := s.meta.SaveLastScannedBlock(cfg.ID, block-1); err != nil {
			return err
		}
	}
	return nil
}

// RetryFailed moves every failed E→T and T→E vote back to its pending table
// (spec section 6 "/retry-failed").
func (s *Service) RetryFailed() error {
	if err := s.votes.eth.RangeFailed(func(v store.PendingEthVote) error {
		return s.votes.eth.Retry(v)
	}); err != nil {
		return err
	}
	return s.votes.ton.RangeFailed(func(v store.PendingTonVote) error {
		return s.votes.ton.Retry(v)
	})
}

// AddEventConfiguration admits a NewEventConfiguration notice (spec section
// 6 "/event-configurations"), running the registry's fetch/validate/vote
// pipeline in the background.
func (s *Service) AddEventConfiguration(ctx context.Context, id uint64, addr tontransport.Address) error {
	if s.registry == nil {
		return fmt.Errorf("relay: not running")
	}
	s.RegistryAddr(addr, id)
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.registry.HandleNewConfiguration(bgCtx, registry.NewConfigurationNotice{ID: id, Address: addr}); err != nil {
			s.logger.Printf("configuration %d: %v", id, err)
		}
	}()
	return nil
}

// VoteEventConfiguration records an observed bootstrap vote outcome for the
// configuration at addr (spec section 6
// "/event-configurations/vote"), resolving it back to a tracked id.
func (s *Service) VoteEventConfiguration(vote string, addr tontransport.Address) error {
	if s.registry == nil {
		return fmt.Errorf("relay: not running")
	}
	id, ok := s.lookupByAddr(addr)
	if !ok {
		return fmt.Errorf("relay: no tracked configuration at address %v", addr)
	}
	switch vote {
	case "confirm":
		return s.registry.HandleConfirmed(id)
	case "reject":
		return s.registry.HandleRejected(id)
	default:
		return fmt.Errorf("relay: unknown vote outcome %q", vote)
	}
}

// ListEventConfigurations returns a snapshot of every tracked configuration
// (spec section 6 "GET /event-configurations").
func (s *Service) ListEventConfigurations() []*registry.Configuration {
	if s.registry == nil {
		return nil
	}
	return s.registry.All()
}

// UpdateBridgeConfiguration applies a nonce-ordered quorum/activity change
// (spec section 6 "/update-bridge-configuration").
func (s *Service) UpdateBridgeConfiguration(update registry.BridgeConfigurationUpdate) error {
	if s.registry == nil {
		return fmt.Errorf("relay: not running")
	}
	return s.registry.HandleUpdate(update)
}

// EthToTonPending lists every E→T vote awaiting finality.
func (s *Service) EthToTonPending() ([]store.PendingEthVote, error) {
	var out []store.PendingEthVote
	err := s.votes.eth.Range(func(v store.PendingEthVote) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// EthToTonFailed lists every E→T vote that exhausted its retry budget.
func (s *Service) EthToTonFailed() ([]store.PendingEthVote, error) {
	var out []store.PendingEthVote
	err := s.votes.eth.RangeFailed(func(v store.PendingEthVote) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// EthToTonQueued mirrors EthToTonPending: the E→T direction decodes and
// persists a log as a PendingVote within one scan tick, so it has no
// separate staging table to report (see DESIGN.md's verification-queue
// naming decision).
func (s *Service) EthToTonQueued() ([]store.PendingEthVote, error) {
	return s.EthToTonPending()
}

// EthToTonStats lists every landed E→T vote recorded for this relay.
func (s *Service) EthToTonStats() ([]store.TxStat, error) {
	return s.stats.eth.ListForRelay(s.tonSigner.PublicKey())
}

// TonToEthPending lists every T→E vote awaiting finality.
func (s *Service) TonToEthPending() ([]store.PendingTonVote, error) {
	var out []store.PendingTonVote
	err := s.votes.ton.Range(func(v store.PendingTonVote) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// TonToEthFailed lists every T→E vote that exhausted its retry budget.
func (s *Service) TonToEthFailed() ([]store.PendingTonVote, error) {
	var out []store.PendingTonVote
	err := s.votes.ton.RangeFailed(func(v store.PendingTonVote) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// TonToEthQueued lists every T→E event staged in the verification queue,
// awaiting lt finality.
func (s *Service) TonToEthQueued() ([]store.TonEventVoteData, error) {
	return s.queue.All()
}

// TonToEthStats lists every landed T→E vote recorded for this relay. It
// uses the relay's T-chain public key, the identity StatsT is keyed under
// (spec section 4.2).
func (s *Service) TonToEthStats() ([]store.TxStat, error) {
	return s.stats.ton.ListForRelay(s.tonSigner.PublicKey())
}
