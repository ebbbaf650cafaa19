package relay

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tonbridge/relay/pkg/codec"
	"github.com/tonbridge/relay/pkg/ethtoton"
	"github.com/tonbridge/relay/pkg/registry"
	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontoeth"
)

// handlerController adapts Service to registry.HandlerController, spawning
// the direction-appropriate handler (spec section 4.4 step 4) and keeping it
// in s.handlers so Stop and BridgeConfigurationUpdate can reach it again.
type handlerController struct {
	svc *Service
}

func (h *handlerController) Spawn(cfg *registry.Configuration) error {
	if cfg.IsEthToTon() {
		return h.spawnEthToTon(cfg)
	}
	return h.spawnTonToEth(cfg)
}

func (h *handlerController) spawnEthToTon(cfg *registry.Configuration) error {
	s := h.svc
	abi, err := codec.ParseEventABI(cfg.Details.EventABI)
	if err != nil {
		return fmt.Errorf("relay: configuration %d: parse event_abi: %w", cfg.ID, err)
	}

	handler := ethtoton.New(ethtoton.Config{
		ConfigurationID:        cfg.ID,
		EventAddrOnE:           common.BytesToAddress(cfg.Details.EventAddrOnE),
		EventABI:               abi,
		PollInterval:           s.cfg.EthSettings.EthPollInterval.Duration(),
		SuspiciousBlocksOffset: s.cfg.EthSettings.SuspiciousBlocksOffset,
		PollAttempts:           s.cfg.EthSettings.EthPollAttempts,
		StartBlock:             cfg.Details.StartBlock,
	}, s.ethTransport, s.votes.eth, s.meta)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelRun == nil {
		return fmt.Errorf("relay: configuration %d: service not running", cfg.ID)
	}
	handler.Start(s.runCtx())
	s.handlers[cfg.ID] = handler
	return nil
}

func (h *handlerController) spawnTonToEth(cfg *registry.Configuration) error {
	s := h.svc
	abi, err := codec.ParseEventABI(cfg.Details.EventABI)
	if err != nil {
		return fmt.Errorf("relay: configuration %d: parse event_abi: %w", cfg.ID, err)
	}

	handler := tontoeth.New(tontoeth.Config{
		ConfigurationID:       cfg.ID,
		EventAddrOnT:          cfg.Details.EventAddrOnT,
		EventABI:              abi,
		EventCfgAddr:          cfg.Address,
		ProxyAddrOnE:          common.BytesToAddress(cfg.Details.ProxyAddrOnE),
		RequiredConfirmations: cfg.Details.RequiredConfirmations,
		RequiredRejects:       cfg.Details.RequiredRejects,
		VerificationInterval:  s.cfg.TonSettings.TonEventsVerificationInterval.Duration(),
		LtOffset:              s.cfg.TonSettings.TonEventsVerificationQueueLtOffset,
		AllowedTimeDiff:       s.cfg.TonSettings.TonEventsAllowedTimeDiff.Duration(),
	}, s.tonTransport, s.queue, s.votes.ton, s.meta, s.ethSigner)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelRun == nil {
		return fmt.Errorf("relay: configuration %d: service not running", cfg.ID)
	}
	if err := handler.Start(s.runCtx()); err != nil {
		return fmt.Errorf("relay: configuration %d: start handler: %w", cfg.ID, err)
	}
	s.handlers[cfg.ID] = handler
	return nil
}

// Stop ends a spawned handler. StopDiscard additionally purges the
// configuration's already-pending votes, since a discarded configuration's
// outstanding work has nowhere left to land (spec section 4.4 step 4).
func (h *handlerController) Stop(configurationID uint64, mode registry.StopMode) error {
	s := h.svc
	s.mu.Lock()
	handler, ok := s.handlers[configurationID]
	delete(s.handlers, configurationID)
	s.mu.Unlock()

	if ok {
		handler.Stop()
	}
	if mode != registry.StopDiscard {
		return nil
	}

	cfg, found := s.registry.Get(configurationID)
	if !found {
		return nil
	}
	if cfg.IsEthToTon() {
		return s.votes.eth.Range(func(v store.PendingEthVote) error {
			if v.Envelope.Vote.ConfigurationID != configurationID {
				return nil
			}
			return s.votes.eth.Delete(v.Envelope.Vote.ConfigurationID, v.Envelope.Vote.EventTransaction, v.Envelope.Vote.EventIndex)
		})
	}
	return s.votes.ton.Range(func(v store.PendingTonVote) error {
		d := v.Envelope.Vote.Data
		if d.ConfigurationID != configurationID {
			return nil
		}
		return s.votes.ton.Delete(d.ConfigurationID, d.EventTransaction, d.EventTransactionLT, d.EventIndex)
	})
}
