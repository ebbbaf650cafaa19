package relay

import (
	"context"
	"strconv"
	"time"

	"github.com/tonbridge/relay/pkg/store"
)

// reportMetrics periodically recomputes every Prometheus gauge from the
// store's own tables (spec section 6's metrics surface), rather than
// threading counter updates through every write path. Grounded on the
// teacher's HealthStatus pattern: one mutex-guarded snapshot, refreshed on a
// ticker, read by whatever's scraping it.
func (s *Service) reportMetrics(ctx context.Context, interval time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetRelayAddress(s.tonAddress())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reportMetricsOnce()
		}
	}
}

func (s *Service) reportMetricsOnce() {
	var ethPending, ethFailed int
	_ = s.votes.eth.Range(func(store.PendingEthVote) error { ethPending++; return nil })
	_ = s.votes.eth.RangeFailed(func(store.PendingEthVote) error { ethFailed++; return nil })
	s.metrics.SetEthPendingVoteCount(ethPending)
	s.metrics.SetEthFailedVoteCount(ethFailed)
	// The E→T direction has no literal staging table: a log is decoded and
	// persisted as a PendingVote within the same scan tick, so its
	// "verification queue" is the pending count itself.
	s.metrics.SetEthVerificationQueueSize(ethPending)

	var tonPending, tonFailed int
	_ = s.votes.ton.Range(func(store.PendingTonVote) error { tonPending++; return nil })
	_ = s.votes.ton.RangeFailed(func(store.PendingTonVote) error { tonFailed++; return nil })
	s.metrics.SetTonPendingVoteCount(tonPending)
	s.metrics.SetTonFailedVoteCount(tonFailed)

	queued, err := s.queue.All()
	if err == nil {
		byConfig := make(map[uint64]int)
		for _, item := range queued {
			byConfig[item.ConfigurationID]++
		}
		for id, n := range byConfig {
			s.metrics.SetTonVerificationQueueSize(strconv.FormatUint(id, 10), n)
		}
	}
}
