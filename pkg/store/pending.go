package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// EthVotes is the PendingE→T / FailedE→T table pair.
type EthVotes struct {
	kv KV
}

// NewEthVotes opens the E→T pending/failed vote tables over kv.
func NewEthVotes(kv KV) *EthVotes {
	return &EthVotes{kv: kv}
}

func (t *EthVotes) key(prefix byte, configurationID uint64, eventTransaction [32]byte, eventIndex uint32) []byte {
	return ethVoteKey(prefix, configurationID, eventTransaction, eventIndex)
}

// Put stores or overwrites a PendingEthVote, enforcing the "at most one
// PendingVote per identity" invariant by key structure alone.
func (t *EthVotes) Put(v PendingEthVote) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("pendingethvote: marshal: %w", err)
	}
	k := t.key(prefixPendingEthToTon, v.Envelope.Vote.ConfigurationID, v.Envelope.Vote.EventTransaction, v.Envelope.Vote.EventIndex)
	return t.kv.Set(k, b)
}

// PutBatch stages a Put within an existing write batch, for callers that
// need the pending-vote write and a submit side effect to commit atomically.
func (t *EthVotes) PutBatch(b Batch, v PendingEthVote) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("pendingethvote: marshal: %w", err)
	}
	k := t.key(prefixPendingEthToTon, v.Envelope.Vote.ConfigurationID, v.Envelope.Vote.EventTransaction, v.Envelope.Vote.EventIndex)
	b.Set(k, val)
	return nil
}

// Get loads a PendingEthVote by identity. Returns relayerr.ErrNotFound if
// absent.
func (t *EthVotes) Get(configurationID uint64, eventTransaction [32]byte, eventIndex uint32) (PendingEthVote, error) {
	raw, err := get(t.kv, t.key(prefixPendingEthToTon, configurationID, eventTransaction, eventIndex))
	if err != nil {
		return PendingEthVote{}, err
	}
	var v PendingEthVote
	if err := json.Unmarshal(raw, &v); err != nil {
		return PendingEthVote{}, fmt.Errorf("pendingethvote: unmarshal: %w", err)
	}
	return v, nil
}

// Delete removes a PendingEthVote by identity.
func (t *EthVotes) Delete(configurationID uint64, eventTransaction [32]byte, eventIndex uint32) error {
	return t.kv.Delete(t.key(prefixPendingEthToTon, configurationID, eventTransaction, eventIndex))
}

// BatchOf opens a write batch against this table's underlying store, for
// callers that need a delete and a stats write to commit atomically.
func (t *EthVotes) BatchOf() Batch {
	return t.kv.NewBatch()
}

// DeleteBatch stages a delete within an existing write batch.
func (t *EthVotes) DeleteBatch(b Batch, configurationID uint64, eventTransaction [32]byte, eventIndex uint32) error {
	b.Delete(t.key(prefixPendingEthToTon, configurationID, eventTransaction, eventIndex))
	return nil
}

// Range iterates every PendingEthVote in key order (used by the submitter's
// retry tick, the pending listings and the metrics report).
func (t *EthVotes) Range(fn func(PendingEthVote) error) error {
	start, end := tablePrefixRange(prefixPendingEthToTon)
	it, err := t.kv.Iterator(start, end)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Valid() {
		var v PendingEthVote
		if err := json.Unmarshal(it.Value(), &v); err != nil {
			return fmt.Errorf("pendingethvote: unmarshal during range: %w", err)
		}
		if err := fn(v); err != nil {
			return err
		}
		it.Next()
	}
	return nil
}

// MarkFailed moves a PendingEthVote from the pending table to the failed
// table once attempts are exhausted (spec invariant 2: "attempts <=
// message_retry_count or P in Failed").
func (t *EthVotes) MarkFailed(b Batch, v PendingEthVote) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failedethvote: marshal: %w", err)
	}
	pk := t.key(prefixPendingEthToTon, v.Envelope.Vote.ConfigurationID, v.Envelope.Vote.EventTransaction, v.Envelope.Vote.EventIndex)
	fk := t.key(prefixFailedEthToTon, v.Envelope.Vote.ConfigurationID, v.Envelope.Vote.EventTransaction, v.Envelope.Vote.EventIndex)
	b.Delete(pk)
	b.Set(fk, val)
	return nil
}

// RangeFailed iterates every E→T vote that exhausted its retry budget.
func (t *EthVotes) RangeFailed(fn func(PendingEthVote) error) error {
	start, end := tablePrefixRange(prefixFailedEthToTon)
	it, err := t.kv.Iterator(start, end)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Valid() {
		var v PendingEthVote
		if err := json.Unmarshal(it.Value(), &v); err != nil {
			return fmt.Errorf("failedethvote: unmarshal during range: %w", err)
		}
		if err := fn(v); err != nil {
			return err
		}
		it.Next()
	}
	return nil
}

// Retry moves v back from the failed table to the pending table with its
// attempt count reset, for the HTTP control surface's /retry-failed route
// (spec section 6).
func (t *EthVotes) Retry(v PendingEthVote) error {
	v.Attempts = 0
	v.NextRetryAt = time.Now()
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("pendingethvote: marshal: %w", err)
	}
	b := t.kv.NewBatch()
	b.Delete(t.key(prefixFailedEthToTon, v.Envelope.Vote.ConfigurationID, v.Envelope.Vote.EventTransaction, v.Envelope.Vote.EventIndex))
	b.Set(t.key(prefixPendingEthToTon, v.Envelope.Vote.ConfigurationID, v.Envelope.Vote.EventTransaction, v.Envelope.Vote.EventIndex), val)
	return b.Write()
}

// TonVotes is the PendingT→E / FailedT→E table pair.
type TonVotes struct {
	kv KV
}

// NewTonVotes opens the T→E pending/failed vote tables over kv.
func NewTonVotes(kv KV) *TonVotes {
	return &TonVotes{kv: kv}
}

func (t *TonVotes) key(prefix byte, configurationID uint64, eventTransaction [32]byte, lt uint64, eventIndex uint32) []byte {
	return tonVoteKey(prefix, configurationID, eventTransaction, lt, eventIndex)
}

func (t *TonVotes) Put(v PendingTonVote) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("pendingtonvote: marshal: %w", err)
	}
	d := v.Envelope.Vote.Data
	k := t.key(prefixPendingTonToEth, d.ConfigurationID, d.EventTransaction, d.EventTransactionLT, d.EventIndex)
	return t.kv.Set(k, b)
}

func (t *TonVotes) PutBatch(b Batch, v PendingTonVote) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("pendingtonvote: marshal: %w", err)
	}
	d := v.Envelope.Vote.Data
	k := t.key(prefixPendingTonToEth, d.ConfigurationID, d.EventTransaction, d.EventTransactionLT, d.EventIndex)
	b.Set(k, val)
	return nil
}

func (t *TonVotes) Get(configurationID uint64, eventTransaction [32]byte, lt uint64, eventIndex uint32) (PendingTonVote, error) {
	raw, err := get(t.kv, t.key(prefixPendingTonToEth, configurationID, eventTransaction, lt, eventIndex))
	if err != nil {
		return PendingTonVote{}, err
	}
	var v PendingTonVote
	if err := json.Unmarshal(raw, &v); err != nil {
		return PendingTonVote{}, fmt.Errorf("pendingtonvote: unmarshal: %w", err)
	}
	return v, nil
}

func (t *TonVotes) Delete(configurationID uint64, eventTransaction [32]byte, lt uint64, eventIndex uint32) error {
	return t.kv.Delete(t.key(prefixPendingTonToEth, configurationID, eventTransaction, lt, eventIndex))
}

// BatchOf opens a write batch against this table's underlying store.
func (t *TonVotes) BatchOf() Batch {
	return t.kv.NewBatch()
}

// DeleteBatch stages a delete within an existing write batch.
func (t *TonVotes) DeleteBatch(b Batch, configurationID uint64, eventTransaction [32]byte, lt uint64, eventIndex uint32) error {
	b.Delete(t.key(prefixPendingTonToEth, configurationID, eventTransaction, lt, eventIndex))
	return nil
}

func (t *TonVotes) Range(fn func(PendingTonVote) error) error {
	start, end := tablePrefixRange(prefixPendingTonToEth)
	it, err := t.kv.Iterator(start, end)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Valid() {
		var v PendingTonVote
		if err := json.Unmarshal(it.Value(), &v); err != nil {
			return fmt.Errorf("pendingtonvote: unmarshal during range: %w", err)
		}
		if err := fn(v); err != nil {
			return err
		}
		it.Next()
	}
	return nil
}

func (t *TonVotes) MarkFailed(b Batch, v PendingTonVote) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failedtonvote: marshal: %w", err)
	}
	d := v.Envelope.Vote.Data
	pk := t.key(prefixPendingTonToEth, d.ConfigurationID, d.EventTransaction, d.EventTransactionLT, d.EventIndex)
	fk := t.key(prefixFailedTonToEth, d.ConfigurationID, d.EventTransaction, d.EventTransactionLT, d.EventIndex)
	b.Delete(pk)
	b.Set(fk, val)
	return nil
}

// RangeFailed iterates every T→E vote that exhausted its retry budget.
func (t *TonVotes) RangeFailed(fn func(PendingTonVote) error) error {
	start, end := tablePrefixRange(prefixFailedTonToEth)
	it, err := t.kv.Iterator(start, end)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Valid() {
		var v PendingTonVote
		if err := json.Unmarshal(it.Value(), &v); err != nil {
			return fmt.Errorf("failedtonvote: unmarshal during range: %w", err)
		}
		if err := fn(v); err != nil {
			return err
		}
		it.Next()
	}
	return nil
}

// Retry moves v back from the failed table to the pending table with its
// attempt count reset, for the HTTP control surface's /retry-failed route
// (spec section 6).
func (t *TonVotes) Retry(v PendingTonVote) error {
	v.Attempts = 0
	v.NextRetryAt = time.Now()
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("pendingtonvote: marshal: %w", err)
	}
	d := v.Envelope.Vote.Data
	b := t.kv.NewBatch()
	b.Delete(t.key(prefixFailedTonToEth, d.ConfigurationID, d.EventTransaction, d.EventTransactionLT, d.EventIndex))
	b.Set(t.key(prefixPendingTonToEth, d.ConfigurationID, d.EventTransaction, d.EventTransactionLT, d.EventIndex), val)
	return b.Write()
}
