package store

import (
	"encoding/json"
	"fmt"
)

// VerificationQueue holds TonEventVoteData observed on T-chain awaiting
// cross-check against the account's advancing logical time, ordered by lt
// so items become eligible for dequeue in the order they were recorded
// (spec section 4.6, "T→E handler" steps 3-4). The table is shared by every
// T→E configuration; items carry their ConfigurationID.
type VerificationQueue struct {
	kv KV
}

// NewVerificationQueue opens the VerificationQueue table.
func NewVerificationQueue(kv KV) *VerificationQueue {
	return &VerificationQueue{kv: kv}
}

// Enqueue stores data for later verification.
func (q *VerificationQueue) Enqueue(data TonEventVoteData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("verificationqueue: marshal: %w", err)
	}
	k := verificationKey(data.EventTransactionLT, data.EventTransaction, data.EventIndex)
	return q.kv.Set(k, b)
}

// Dequeue removes an item once it has been verified or rejected.
func (q *VerificationQueue) Dequeue(data TonEventVoteData) error {
	k := verificationKey(data.EventTransactionLT, data.EventTransaction, data.EventIndex)
	return q.kv.Delete(k)
}

// Ready returns every queued item whose lt satisfies
// transaction_lt + ltOffset <= currentAccountLT, in ascending lt order —
// the eligibility rule from spec section 4.6 step 3.
func (q *VerificationQueue) Ready(currentAccountLT uint64, ltOffset uint64) ([]TonEventVoteData, error) {
	start, end := tablePrefixRange(prefixVerificationQ)
	it, err := q.kv.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []TonEventVoteData
	for it.Valid() {
		var data TonEventVoteData
		if err := json.Unmarshal(it.Value(), &data); err != nil {
			return nil, fmt.Errorf("verificationqueue: unmarshal during range: %w", err)
		}
		if data.EventTransactionLT+ltOffset > currentAccountLT {
			break // lt-ordered: everything after this is even less ready
		}
		out = append(out, data)
		it.Next()
	}
	return out, nil
}

// All returns every queued item in lt order, for diagnostics/startup replay.
func (q *VerificationQueue) All() ([]TonEventVoteData, error) {
	start, end := tablePrefixRange(prefixVerificationQ)
	it, err := q.kv.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []TonEventVoteData
	for it.Valid() {
		var data TonEventVoteData
		if err := json.Unmarshal(it.Value(), &data); err != nil {
			return nil, fmt.Errorf("verificationqueue: unmarshal during range: %w", err)
		}
		out = append(out, data)
		it.Next()
	}
	return out, nil
}
