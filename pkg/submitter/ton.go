package submitter

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontransport"
	"github.com/tonbridge/relay/pkg/tsigner"
)

// TonSubmitter is the T→E direction's vote submitter (spec section 4.7).
// Both directions vote on the same configuration contract on T-chain (spec
// section 1 item 3, §2 diagram): the E-signature produced by the T→E
// handler's E-signer is carried as payload data inside the outbound T-chain
// message, authenticated by this relay's own T-signer, exactly as
// EthSubmitter authenticates an E→T vote.
type TonSubmitter struct {
	cfg       Config
	votes     *store.TonVotes
	stats     *store.Stats
	transport tontransport.Transport
	signer    *tsigner.Signer
	relayAddr []byte // this relay's own T-chain public key, for StatsT
	resolver  ConfigResolver
	inFlight  *inFlight
	onLanded  func(configurationID uint64)
	logger    *log.Logger
}

// SetOnLanded registers a callback invoked after a vote lands successfully,
// for metrics reporting. Optional; nil by default.
func (s *TonSubmitter) SetOnLanded(fn func(configurationID uint64)) {
	s.onLanded = fn
}

// NewTonSubmitter constructs a submitter for the T→E direction.
func NewTonSubmitter(cfg Config, votes *store.TonVotes, stats *store.Stats, transport tontransport.Transport, signer *tsigner.Signer, resolver ConfigResolver) *TonSubmitter {
	return &TonSubmitter{
		cfg:       cfg,
		votes:     votes,
		stats:     stats,
		transport: transport,
		signer:    signer,
		relayAddr: append([]byte(nil), signer.PublicKey()...),
		resolver:  resolver,
		inFlight:  newInFlight(),
		logger:    log.New(log.Writer(), "[TonSubmitter] ", log.LstdFlags),
	}
}

// Run drives the retry loop until ctx is cancelled.
func (s *TonSubmitter) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				s.logger.Printf("tick error: %v", err)
			}
		}
	}
}

func (s *TonSubmitter) tick(ctx context.Context) error {
	now := time.Now()
	var due []store.PendingTonVote
	if err := s.votes.Range(func(v store.PendingTonVote) error {
		if !v.NextRetryAt.After(now) {
			due = append(due, v)
		}
		return nil
	}); err != nil {
		return err
	}
	for _, v := range due {
		if err := s.attempt(ctx, v); err != nil {
			s.logger.Printf("attempt for configuration %d failed: %v", v.Envelope.Vote.Data.ConfigurationID, err)
		}
	}
	return nil
}

func (s *TonSubmitter) attempt(ctx context.Context, v store.PendingTonVote) error {
	configID := v.Envelope.Vote.Data.ConfigurationID
	dest, err := s.resolver.TonAddressFor(configID)
	if err != nil {
		return fmt.Errorf("resolve configuration %d: %w", configID, err)
	}

	body := tonVoteBody(v.Envelope.Vote)
	hash := contentHash(body)
	expire := time.Now().Add(time.Duration(s.cfg.TimeoutSec) * time.Second)

	_, err = s.inFlight.begin(hash, expire)
	if err != nil {
		return err
	}
	defer s.inFlight.end(hash)

	msg := tontransport.OutboundMessage{
		Dest:     dest,
		Method:   voteMethod(v.Envelope.Kind),
		Body:     body,
		ExpireAt: uint32(expire.Unix()),
	}
	sig := s.signer.Sign(body)

	res, err := s.transport.SendMessage(ctx, msg, sig)
	if err != nil {
		return s.onFailure(v)
	}
	if res.Landed && res.Success {
		return s.onSuccess(dest, v)
	}
	return s.onFailure(v)
}

func (s *TonSubmitter) onSuccess(dest tontransport.Address, v store.PendingTonVote) error {
	d := v.Envelope.Vote.Data
	b := s.votes.BatchOf()
	if err := s.votes.DeleteBatch(b, d.ConfigurationID, d.EventTransaction, d.EventTransactionLT, d.EventIndex); err != nil {
		return err
	}
	lt := d.EventTransactionLT
	stat := store.TxStat{
		TxHash:    d.EventTransaction,
		LT:        &lt,
		Met:       time.Now(),
		EventAddr: dest.AccountID[:],
		Vote:      v.Envelope.Kind,
	}
	if err := s.stats.RecordBatch(b, s.relayAddr, stat); err != nil {
		return err
	}
	if err := b.Write(); err != nil {
		return err
	}
	if s.onLanded != nil {
		s.onLanded(d.ConfigurationID)
	}
	return nil
}

func (s *TonSubmitter) onFailure(v store.PendingTonVote) error {
	v.Attempts++
	v.NextRetryAt = time.Now().Add(s.cfg.Backoff(v.Attempts))
	if s.cfg.Exhausted(v.Attempts) {
		b := s.votes.BatchOf()
		if err := s.votes.MarkFailed(b, v); err != nil {
			return err
		}
		return b.Write()
	}
	return s.votes.Put(v)
}
