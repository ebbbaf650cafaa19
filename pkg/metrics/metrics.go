// Package metrics exposes the relay's Prometheus surface (spec section 6).
// github.com/prometheus/client_golang is the teacher's own dependency,
// carried but never wired to a consumer in the teacher repo; this package
// is its first consumer.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the relay's Prometheus collectors, all labelled with the
// relay's own T-chain address per spec section 6 ("all labelled
// address=<relay T-address>"). The address is not known until the vault is
// unlocked, so collectors are built eagerly with an empty address label and
// relabelled via SetRelayAddress once unlock completes.
type Metrics struct {
	mu      sync.RWMutex
	address string

	ethVerificationQueueSize *prometheus.GaugeVec
	ethPendingVoteCount      *prometheus.GaugeVec
	ethFailedVoteCount       *prometheus.GaugeVec
	ethSuccessfulVoteCount   *prometheus.CounterVec

	tonVerificationQueueSize *prometheus.GaugeVec
	tonPendingVoteCount      *prometheus.GaugeVec
	tonFailedVoteCount       *prometheus.GaugeVec
	tonSuccessfulVoteCount   *prometheus.CounterVec
}

// New registers the relay's collectors against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ethVerificationQueueSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eth_verification_queue_size",
			Help: "E→T votes awaiting finality; E→T has no separate staging queue, so this equals eth_pending_vote_count.",
		}, []string{"address"}),
		ethPendingVoteCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eth_pending_vote_count",
			Help: "E→T votes awaiting finality.",
		}, []string{"address"}),
		ethFailedVoteCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eth_failed_vote_count",
			Help: "E→T votes moved to the failed table after exhausting retries.",
		}, []string{"address"}),
		ethSuccessfulVoteCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eth_successful_vote_count",
			Help: "E→T votes that landed successfully, by configuration.",
		}, []string{"address", "configuration_id"}),

		tonVerificationQueueSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ton_verification_queue_size",
			Help: "T→E events awaiting lt finality, by configuration.",
		}, []string{"address", "configuration_id"}),
		tonPendingVoteCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ton_pending_vote_count",
			Help: "T→E votes awaiting finality.",
		}, []string{"address"}),
		tonFailedVoteCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ton_failed_vote_count",
			Help: "T→E votes moved to the failed table after exhausting retries.",
		}, []string{"address"}),
		tonSuccessfulVoteCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ton_successful_vote_count",
			Help: "T→E votes that landed successfully, by configuration.",
		}, []string{"address", "configuration_id"}),
	}
}

// SetRelayAddress records the relay's T-chain address, available only
// after the vault unlocks, as the label value every collector reports
// under going forward.
func (m *Metrics) SetRelayAddress(address string) {
	m.mu.Lock()
	m.address = address
	m.mu.Unlock()
}

func (m *Metrics) relayAddress() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.address
}

func (m *Metrics) SetEthVerificationQueueSize(n int) {
	m.ethVerificationQueueSize.WithLabelValues(m.relayAddress()).Set(float64(n))
}

func (m *Metrics) SetEthPendingVoteCount(n int) {
	m.ethPendingVoteCount.WithLabelValues(m.relayAddress()).Set(float64(n))
}

func (m *Metrics) SetEthFailedVoteCount(n int) {
	m.ethFailedVoteCount.WithLabelValues(m.relayAddress()).Set(float64(n))
}

func (m *Metrics) IncEthSuccessfulVote(configurationID string) {
	m.ethSuccessfulVoteCount.WithLabelValues(m.relayAddress(), configurationID).Inc()
}

func (m *Metrics) SetTonVerificationQueueSize(configurationID string, n int) {
	m.tonVerificationQueueSize.WithLabelValues(m.relayAddress(), configurationID).Set(float64(n))
}

func (m *Metrics) SetTonPendingVoteCount(n int) {
	m.tonPendingVoteCount.WithLabelValues(m.relayAddress()).Set(float64(n))
}

func (m *Metrics) SetTonFailedVoteCount(n int) {
	m.tonFailedVoteCount.WithLabelValues(m.relayAddress()).Set(float64(n))
}

func (m *Metrics) IncTonSuccessfulVote(configurationID string) {
	m.tonSuccessfulVoteCount.WithLabelValues(m.relayAddress(), configurationID).Inc()
}
