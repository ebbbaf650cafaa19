package submitter

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontransport"
	"github.com/tonbridge/relay/pkg/tsigner"
)

// ConfigSubmitter casts and retries a configuration's bootstrap
// Confirm/Reject vote (spec section 4.4 step 3). Bootstrap votes land on
// T-chain the same way every other direction's votes do, so this shares the
// transport/signer pairing EthSubmitter and TonSubmitter use.
type ConfigSubmitter struct {
	cfg       Config
	votes     *store.ConfigVotes
	transport tontransport.Transport
	signer    *tsigner.Signer
	resolver  ConfigResolver
	inFlight  *inFlight
	logger    *log.Logger
}

// NewConfigSubmitter constructs a bootstrap-vote submitter.
func NewConfigSubmitter(cfg Config, votes *store.ConfigVotes, transport tontransport.Transport, signer *tsigner.Signer, resolver ConfigResolver) *ConfigSubmitter {
	return &ConfigSubmitter{
		cfg:       cfg,
		votes:     votes,
		transport: transport,
		signer:    signer,
		resolver:  resolver,
		inFlight:  newInFlight(),
		logger:    log.New(log.Writer(), "[ConfigSubmitter] ", log.LstdFlags),
	}
}

// Run drives the retry loop until ctx is cancelled.
func (s *ConfigSubmitter) Run(ctx context.Context, tick time.Duration) {
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

func (s *ConfigSubmitter) tick(ctx context.Context) error {
	now := time.Now()
	var due []store.PendingConfigVote
	if err := s.votes.Range(func(v store.PendingConfigVote) error {
		if !v.NextRetryAt.After(now) {
			due = append(due, v)
		}
		return nil
	}); err != nil {
		return err
	}
	for _, v := range due {
		if err := s.attempt(ctx, v); err != nil {
			s.logger.Printf("attempt for configuration %d failed: %v", v.ConfigurationID, err)
		}
	}
	return nil
}

func (s *ConfigSubmitter) attempt(ctx context.Context, v store.PendingConfigVote) error {
	dest, err := s.resolver.TonAddressFor(v.ConfigurationID)
	if err != nil {
		return fmt.Errorf("resolve configuration %d: %w", v.ConfigurationID, err)
	}

	body := configVoteBody(v)
	hash := contentHash(body)
	expire := time.Now().Add(time.Duration(s.cfg.TimeoutSec) * time.Second)

	_, err = s.inFlight.begin(hash, expire)
	if err != nil {
		return err
	}
	defer s.inFlight.end(hash)

	msg := tontransport.OutboundMessage{
		Dest:     dest,
		Method:   configVoteMethod(v.Kind),
		Body:     body,
		ExpireAt: uint32(expire.Unix()),
	}
	sig := s.signer.Sign(body)

	res, err := s.transport.SendMessage(ctx, msg, sig)
	if err != nil {
		return s.onFailure(v)
	}
	if res.Landed && res.Success {
		return s.votes.Delete(v.ConfigurationID)
	}
	return s.onFailure(v)
}

func (s *ConfigSubmitter) onFailure(v store.PendingConfigVote) error {
	v.Attempts++
	v.NextRetryAt = time.Now().Add(s.cfg.Backoff(v.Attempts))
	if s.cfg.Exhausted(v.Attempts) {
		// A bootstrap vote has nowhere else to go on exhaustion: it is
		// deleted rather than moved to a failed table meant for per-event
		// votes, and the registry's status for the configuration is left
		// as it was. No new bootstrap vote is cast unless a
		// NewEventConfiguration notice for it is handled again.
		return s.votes.Delete(v.ConfigurationID)
	}
	return s.votes.Put(v)
}

func configVoteMethod(kind store.VoteKind) string {
	if kind == store.VoteReject {
		return "reject"
	}
	return "confirm"
}

func configVoteBody(v store.PendingConfigVote) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, v.ConfigurationID)
	return out
}
