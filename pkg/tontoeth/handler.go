package tontoeth

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tonbridge/relay/pkg/cell"
	"github.com/tonbridge/relay/pkg/codec"
	"github.com/tonbridge/relay/pkg/ethsigner"
	"github.com/tonbridge/relay/pkg/relayerr"
	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontransport"
)

// Handler runs one configuration's T→E consume+verify loop.
type Handler struct {
	cfg       Config
	transport tontransport.Transport
	queue     *store.VerificationQueue
	votes     *store.TonVotes
	meta      *store.Meta
	signer    *ethsigner.Signer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *log.Logger
}

// New builds a handler for one active T→E configuration.
func New(cfg Config, transport tontransport.Transport, queue *store.VerificationQueue, votes *store.TonVotes, meta *store.Meta, signer *ethsigner.Signer) *Handler {
	return &Handler{
		cfg: cfg, transport: transport, queue: queue, votes: votes, meta: meta, signer: signer,
		logger: log.New(log.Writer(), "[TonToEth] ", log.LstdFlags),
	}
}

// Start subscribes to the configuration's T-chain account from the stored
// high-water mark and runs the consume and verify loops until ctx is
// cancelled or Stop is called.
func (h *Handler) Start(ctx context.Context) error {
	h.ctx, h.cancel = context.WithCancel(ctx)

	sinceLT, err := h.meta.LoadLastLT(h.cfg.ConfigurationID)
	if err == relayerr.ErrMetaNotFound {
		sinceLT = 0
	} else if err != nil {
		return err
	}

	msgs, err := h.transport.SubscribeMessages(h.ctx, h.cfg.EventAddrOnT, sinceLT)
	if err != nil {
		return err
	}

	h.wg.Add(2)
	go h.consumeLoop(msgs)
	go h.verifyLoop()
	return nil
}

// Stop cancels both loops and waits for them to exit.
func (h *Handler) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

// consumeLoop decodes every inbound message and stages it in the
// verification queue (spec section 4.6 steps 1-3).
func (h *Handler) consumeLoop(msgs <-chan tontransport.Message) {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := h.handleMessage(msg); err != nil {
				h.logger.Printf("configuration %d: message at lt %d: %v", h.cfg.ConfigurationID, msg.LT, err)
			}
		}
	}
}

func (h *Handler) handleMessage(msg tontransport.Message) error {
	body, err := cell.Deserialize(msg.Body)
	if err != nil {
		return err
	}

	tupleType := codec.Type{Kind: codec.KindTuple, Fields: h.cfg.EventABI.Inputs}
	value, err := codec.UnpackCell(tupleType, body)
	if err != nil {
		return err
	}
	eventData, err := codec.EncodeEthValue(value)
	if err != nil {
		return err
	}

	data := store.TonEventVoteData{
		ConfigurationID:     h.cfg.ConfigurationID,
		EventTransaction:    cell.Hash(body),
		EventTransactionLT:  msg.LT,
		EventTimestamp:      msg.Timestamp,
		EventIndex:          msg.EventIndex,
		EventData:           eventData,
	}

	if err := h.queue.Enqueue(data); err != nil {
		return err
	}
	return h.meta.SaveLastLT(h.cfg.ConfigurationID, msg.LT)
}

// verifyLoop drains the verification queue on a fixed interval, dequeuing
// items whose logical time has finalized sufficiently far behind the
// account's current lt (spec section 4.6 step 3).
func (h *Handler) verifyLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.VerificationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			if err := h.verifyTick(h.ctx); err != nil {
				h.logger.Printf("configuration %d: verify tick failed: %v", h.cfg.ConfigurationID, err)
			}
		}
	}
}

func (h *Handler) verifyTick(ctx context.Context) error {
	currentLT, err := h.transport.CurrentLT(ctx, h.cfg.EventAddrOnT)
	if err != nil {
		return err
	}

	ready, err := h.queue.Ready(currentLT, h.cfg.LtOffset)
	if err != nil {
		return err
	}

	for _, item := range ready {
		if item.ConfigurationID != h.cfg.ConfigurationID {
			continue // the queue table is shared; another handler owns this item
		}
		if err := h.verifyItem(item); err != nil {
			h.logger.Printf("configuration %d: verify item at lt %d: %v", h.cfg.ConfigurationID, item.EventTransactionLT, err)
			continue // leave in queue, retry next tick
		}
		if err := h.queue.Dequeue(item); err != nil {
			h.logger.Printf("configuration %d: dequeue item at lt %d: %v", h.cfg.ConfigurationID, item.EventTransactionLT, err)
		}
	}
	return nil
}

// verifyItem signs the item's payload and persists it as a PendingVote,
// Confirm if the event's timestamp is still within the allowed time
// diff once its lt has finalized, Reject otherwise (spec section 4.6 step
// 5; "the relay never confirms a T-chain event whose transaction is not
// visible with a logical time sufficiently below the current account lt").
func (h *Handler) verifyItem(d store.TonEventVoteData) error {
	kind := store.VoteConfirm
	age := time.Since(time.Unix(int64(d.EventTimestamp), 0))
	if age < 0 {
		age = -age
	}
	if age > h.cfg.AllowedTimeDiff {
		kind = store.VoteReject
	}

	payload, err := h.signaturePayload(d)
	if err != nil {
		return err
	}
	sig, err := h.signer.Sign(payload)
	if err != nil {
		return err
	}

	return h.votes.Put(store.PendingTonVote{
		Envelope: store.TonVoteEnvelope{
			Vote: store.SignedTonEventVoteData{Data: d, Signature: sig},
			Kind: kind,
		},
		FirstSubmittedAt: time.Now(),
	})
}
