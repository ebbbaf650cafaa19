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

// ConfigResolver maps a configuration id to the T-chain contract address
// votes for that configuration are addressed to.
type ConfigResolver interface {
	TonAddressFor(configurationID uint64) (tontransport.Address, error)
}

// EthSubmitter is the E→T direction's vote submitter (spec section 4.7).
type EthSubmitter struct {
	cfg       Config
	votes     *store.EthVotes
	stats     *store.Stats
	transport tontransport.Transport
	signer    *tsigner.Signer
	relayAddr []byte // this relay's own T-chain public key, for StatsE
	resolver  ConfigResolver
	inFlight  *inFlight
	onLanded  func(configurationID uint64)
	logger    *log.Logger
}

// SetOnLanded registers a callback invoked after a vote lands successfully,
// for metrics reporting. Optional; nil by default.
func (s *EthSubmitter) SetOnLanded(fn func(configurationID uint64)) {
	s.onLanded = fn
}

// NewEthSubmitter constructs a submitter for the E→T direction.
func NewEthSubmitter(cfg Config, votes *store.EthVotes, stats *store.Stats, transport tontransport.Transport, signer *tsigner.Signer, resolver ConfigResolver) *EthSubmitter {
	return &EthSubmitter{
		cfg:       cfg,
		votes:     votes,
		stats:     stats,
		transport: transport,
		signer:    signer,
		relayAddr: append([]byte(nil), signer.PublicKey()...),
		resolver:  resolver,
		inFlight:  newInFlight(),
		logger:    log.New(log.Writer(), "[EthSubmitter] ", log.LstdFlags),
	}
}

// Run drives the retry loop until ctx is cancelled, scanning the pending
// table every tick and attempting every vote whose retry time has arrived.
func (s *EthSubmitter) Run(ctx context.Context, tick time.Duration) {
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

func (s *EthSubmitter) tick(ctx context.Context) error {
	now := time.Now()
	var due []store.PendingEthVote
	if err := s.votes.Range(func(v store.PendingEthVote) error {
		if !v.NextRetryAt.After(now) {
			due = append(due, v)
		}
		return nil
	}); err != nil {
		return err
	}
	for _, v := range due {
		if err := s.attempt(ctx, v); err != nil {
			s.logger.Printf("attempt for configuration %d failed: %v", v.Envelope.Vote.ConfigurationID, err)
		}
	}
	return nil
}

func (s *EthSubmitter) attempt(ctx context.Context, v store.PendingEthVote) error {
	dest, err := s.resolver.TonAddressFor(v.Envelope.Vote.ConfigurationID)
	if err != nil {
		return fmt.Errorf("resolve configuration %d: %w", v.Envelope.Vote.ConfigurationID, err)
	}

	body := ethVoteBody(v.Envelope.Vote)
	hash := contentHash(body)
	expire := time.Now().Add(time.Duration(s.cfg.TimeoutSec) * time.Second)

	pm, err := s.inFlight.begin(hash, expire)
	if err != nil {
		return err // relayerr.ErrDuplicateMessage
	}
	defer s.inFlight.end(hash)
	_ = pm

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

func (s *EthSubmitter) onSuccess(dest tontransport.Address, v store.PendingEthVote) error {
	b := s.votes.BatchOf()
	if err := s.votes.DeleteBatch(b, v.Envelope.Vote.ConfigurationID, v.Envelope.Vote.EventTransaction, v.Envelope.Vote.EventIndex); err != nil {
		return err
	}
	stat := store.TxStat{
		TxHash:    v.Envelope.Vote.EventTransaction,
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
		s.onLanded(v.Envelope.Vote.ConfigurationID)
	}
	return nil
}

func (s *EthSubmitter) onFailure(v store.PendingEthVote) error {
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

func voteMethod(kind store.VoteKind) string {
	if kind == store.VoteReject {
		return "reject"
	}
	return "confirm"
}
