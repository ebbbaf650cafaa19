package submitter

import (
	"sync"
	"time"

	"github.com/tonbridge/relay/pkg/relayerr"
)

// pendingMessage is one in-flight outbound message: its expiry and a
// one-shot result channel, per spec section 4.7's "pending-messages map
// keyed by message hash" and section 9's note that readers must tolerate a
// dropped channel as a transport failure.
type pendingMessage struct {
	expire time.Time
	done   chan struct{}
}

// inFlight deduplicates outbound messages by content hash while they are
// in flight (spec section 4.7: "duplicate hashes in-flight fail fast with
// DuplicateMessage"). begin and end both take the write lock, so the
// duplicate check and the insert happen as one step.
type inFlight struct {
	mu      sync.RWMutex
	entries map[[32]byte]*pendingMessage
}

func newInFlight() *inFlight {
	return &inFlight{entries: make(map[[32]byte]*pendingMessage)}
}

// begin registers hash as in flight, or returns relayerr.ErrDuplicateMessage
// if it already is.
func (f *inFlight) begin(hash [32]byte, expire time.Time) (*pendingMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.entries[hash]; exists {
		return nil, relayerr.ErrDuplicateMessage
	}
	pm := &pendingMessage{expire: expire, done: make(chan struct{})}
	f.entries[hash] = pm
	return pm, nil
}

// end removes hash from the in-flight set and releases any waiters.
func (f *inFlight) end(hash [32]byte) {
	f.mu.Lock()
	pm, ok := f.entries[hash]
	delete(f.entries, hash)
	f.mu.Unlock()
	if ok {
		close(pm.done)
	}
}
