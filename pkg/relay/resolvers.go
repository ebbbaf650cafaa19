package relay

import (
	"fmt"
	"time"

	"github.com/tonbridge/relay/pkg/registry"
	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontransport"
)

// voteCaster adapts Service to registry.VoteCaster: a bootstrap vote is
// itself a PendingVote (spec section 4.4 step 3), so casting one just means
// persisting it for the already-running ConfigSubmitter to pick up.
type voteCaster struct {
	svc *Service
}

func (v *voteCaster) CastBootstrap(configurationID uint64, kind store.VoteKind) error {
	return v.svc.configVotes.Put(store.PendingConfigVote{
		ConfigurationID:  configurationID,
		Kind:             kind,
		FirstSubmittedAt: time.Now(),
	})
}

// configResolver adapts the registry to submitter.ConfigResolver, mapping a
// configuration id to the T-chain contract address its votes — bootstrap or
// per-event — are addressed to.
type configResolver struct {
	registry *registry.Registry
}

func (r *configResolver) TonAddressFor(configurationID uint64) (tontransport.Address, error) {
	cfg, ok := r.registry.Get(configurationID)
	if !ok {
		return tontransport.Address{}, fmt.Errorf("relay: configuration %d not tracked", configurationID)
	}
	return cfg.Address, nil
}
