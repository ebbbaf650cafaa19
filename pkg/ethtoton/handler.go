// Package ethtoton implements the E→T handler (spec section 4.5): a poll
// loop that watches one active EventConfiguration's E-chain event address,
// decodes and packs each matching log, and hands completed votes off to the
// submitter. Grounded on the teacher's pkg/anchor/event_watcher.go
// (EventWatcher: ticker poll loop, ethereum.FilterQuery, block-range
// capping, context-cancellable goroutine with sync.WaitGroup).
package ethtoton

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tonbridge/relay/pkg/cell"
	"github.com/tonbridge/relay/pkg/codec"
	"github.com/tonbridge/relay/pkg/ethtransport"
	"github.com/tonbridge/relay/pkg/relayerr"
	"github.com/tonbridge/relay/pkg/store"
)

// Config bounds one handler's scan behaviour.
type Config struct {
	ConfigurationID        uint64
	EventAddrOnE           common.Address
	EventABI               *codec.EventABI
	PollInterval           time.Duration
	SuspiciousBlocksOffset uint64
	PollAttempts           int
	StartBlock             uint64
}

// Handler runs one configuration's E→T watch loop.
type Handler struct {
	cfg       Config
	transport ethtransport.Transport
	votes     *store.EthVotes
	meta      *store.Meta
	topic0    common.Hash

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *log.Logger
}

// New builds a handler for one active E→T configuration.
func New(cfg Config, transport ethtransport.Transport, votes *store.EthVotes, meta *store.Meta) *Handler {
	return &Handler{
		cfg:       cfg,
		transport: transport,
		votes:     votes,
		meta:      meta,
		topic0:    codec.EventTopic(cfg.EventABI),
		logger:    log.New(log.Writer(), "[EthToTon] ", log.LstdFlags),
	}
}

// Start begins the poll loop. Cancelling ctx, or calling Stop, ends it.
func (h *Handler) Start(ctx context.Context) {
	h.ctx, h.cancel = context.WithCancel(ctx)
	h.wg.Add(1)
	go h.pollLoop()
}

// Stop cancels the poll loop and waits for it to exit.
func (h *Handler) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

func (h *Handler) pollLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			if err := h.tick(h.ctx); err != nil {
				h.logger.Printf("configuration %d: scan tick failed: %v", h.cfg.ConfigurationID, err)
			}
		}
	}
}

// tick performs one scan-tick's worth of work (spec section 4.5).
func (h *Handler) tick(ctx context.Context) error {
	fromBlock, err := h.lastScanned()
	if err != nil {
		return err
	}
	fromBlock++

	latest, err := h.fetchLatestBlock(ctx)
	if err != nil {
		return err
	}
	if latest < h.cfg.SuspiciousBlocksOffset {
		return nil // chain too young to have any non-suspicious blocks yet
	}
	toBlock := latest - h.cfg.SuspiciousBlocksOffset
	if fromBlock > toBlock {
		return nil // no new non-suspicious blocks to scan
	}

	logs, err := h.fetchLogs(ctx, fromBlock, toBlock)
	if err != nil {
		return err
	}

	for _, l := range logs {
		if err := h.handleLog(l); err != nil {
			h.logger.Printf("configuration %d: log %s/%d: %v", h.cfg.ConfigurationID, l.TxHash.Hex(), l.LogIndex, err)
		}
	}

	return h.meta.SaveLastScannedBlock(h.cfg.ConfigurationID, toBlock)
}

func (h *Handler) lastScanned() (uint64, error) {
	block, err := h.meta.LoadLastScannedBlock(h.cfg.ConfigurationID)
	if err == relayerr.ErrMetaNotFound {
		if h.cfg.StartBlock == 0 {
			return 0, nil
		}
		return h.cfg.StartBlock - 1, nil
	}
	return block, err
}

// fetchLatestBlock retries up to PollAttempts times before giving up for
// this tick; the scan window is not advanced on failure (spec invariant:
// "on transport failure, bounded retry; the scan window is not advanced").
func (h *Handler) fetchLatestBlock(ctx context.Context) (uint64, error) {
	var lastErr error
	for attempt := 0; attempt < h.cfg.PollAttempts; attempt++ {
		latest, err := h.transport.LatestBlock(ctx)
		if err == nil {
			return latest, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

func (h *Handler) fetchLogs(ctx context.Context, fromBlock, toBlock uint64) ([]ethtransport.Log, error) {
	var lastErr error
	for attempt := 0; attempt < h.cfg.PollAttempts; attempt++ {
		logs, err := h.transport.FilterLogs(ctx, h.cfg.EventAddrOnE, h.topic0, fromBlock, toBlock)
		if err == nil {
			return logs, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// handleLog decodes, packs, dedups, and persists one log as a PendingVote
// (spec section 4.5 steps 3-5). A decode failure is logged and the log is
// permanently skipped, per the handler's failure policy.
func (h *Handler) handleLog(l ethtransport.Log) error {
	value, err := codec.DecodeEthLog(h.cfg.EventABI, l.Data)
	if err != nil {
		return err
	}
	c, err := codec.PackCell(value)
	if err != nil {
		return err
	}

	vote := store.EthEventVoteData{
		ConfigurationID:  h.cfg.ConfigurationID,
		EventTransaction: l.TxHash,
		EventIndex:       l.LogIndex,
		EventData:        cell.Serialize(c),
		EventBlockNumber: l.BlockNumber,
		EventBlock:       l.BlockHash,
	}

	if _, err := h.votes.Get(vote.ConfigurationID, vote.EventTransaction, vote.EventIndex); err == nil {
		return nil // already pending, nothing to do
	} else if err != relayerr.ErrNotFound {
		return err
	}

	return h.votes.Put(store.PendingEthVote{
		Envelope:         store.EthVoteEnvelope{Vote: vote, Kind: store.VoteConfirm},
		FirstSubmittedAt: time.Now(),
	})
}
