package store

import (
	"encoding/json"
	"fmt"
)

// ConfigVotes is the bootstrap-vote table for configurations awaiting
// their own Confirm/Reject outcome (spec section 4.4 step 3).
type ConfigVotes struct {
	kv KV
}

// NewConfigVotes opens the configuration bootstrap-vote table over kv.
func NewConfigVotes(kv KV) *ConfigVotes {
	return &ConfigVotes{kv: kv}
}

// Put stores or overwrites a PendingConfigVote.
func (t *ConfigVotes) Put(v PendingConfigVote) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("pendingconfigvote: marshal: %w", err)
	}
	return t.kv.Set(configVoteKey(v.ConfigurationID), b)
}

// Get loads a PendingConfigVote by configuration id. Returns
// relayerr.ErrNotFound if absent.
func (t *ConfigVotes) Get(configurationID uint64) (PendingConfigVote, error) {
	raw, err := get(t.kv, configVoteKey(configurationID))
	if err != nil {
		return PendingConfigVote{}, err
	}
	var v PendingConfigVote
	if err := json.Unmarshal(raw, &v); err != nil {
		return PendingConfigVote{}, fmt.Errorf("pendingconfigvote: unmarshal: %w", err)
	}
	return v, nil
}

// Delete removes a PendingConfigVote once it has landed.
func (t *ConfigVotes) Delete(configurationID uint64) error {
	return t.kv.Delete(configVoteKey(configurationID))
}

// Range iterates every PendingConfigVote in key order.
func (t *ConfigVotes) Range(fn func(PendingConfigVote) error) error {
	start, end := tablePrefixRange(prefixPendingConfig)
	it, err := t.kv.Iterator(start, end)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Valid() {
		var v PendingConfigVote
		if err := json.Unmarshal(it.Value(), &v); err != nil {
			return fmt.Errorf("pendingconfigvote: unmarshal during range: %w", err)
		}
		if err := fn(v); err != nil {
			return err
		}
		it.Next()
	}
	return nil
}
