// Package store implements the relay's durable state: pending votes awaiting
// confirmation, failed votes eligible for retry, the verification queue, and
// per-relay transaction statistics, all over a single embedded ordered KV
// engine. See spec section 4.2.
package store

import (
	dbm "github.com/cometbft/cometbft-db"

	"github.com/tonbridge/relay/pkg/relayerr"
)

// KV is the narrow interface the store tables are built on. It is satisfied
// by a cometbft-db handle via CometKV, keeping the table logic independent
// of the underlying engine (grounded on the teacher's pkg/kvdb adapter).
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Iterator(start, end []byte) (Iterator, error)
	NewBatch() Batch
}

// Iterator walks a key range in ascending order.
type Iterator interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Close() error
}

// Batch groups writes for an atomic, fsynced commit (spec section 4.2: "a
// single submit-and-record atomic sequence uses a write batch so the
// PendingVote appears iff the submit was persisted").
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	Write() error
}

// CometKV adapts a cometbft-db handle to the KV interface.
type CometKV struct {
	db dbm.DB
}

// NewCometKV wraps an open cometbft-db database.
func NewCometKV(db dbm.DB) *CometKV {
	return &CometKV{db: db}
}

func (c *CometKV) Get(key []byte) ([]byte, error) {
	v, err := c.db.Get(key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v, nil
}

// Set performs a synchronous (fsynced) write, matching the teacher's
// KVAdapter.Set: durability is required for every table this store hosts.
func (c *CometKV) Set(key, value []byte) error {
	return c.db.SetSync(key, value)
}

func (c *CometKV) Delete(key []byte) error {
	return c.db.DeleteSync(key)
}

func (c *CometKV) Iterator(start, end []byte) (Iterator, error) {
	it, err := c.db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return it, nil
}

type cometBatch struct {
	b dbm.Batch
}

func (c *CometKV) NewBatch() Batch {
	return &cometBatch{b: c.db.NewBatch()}
}

func (b *cometBatch) Set(key, value []byte) {
	_ = b.b.Set(key, value)
}

func (b *cometBatch) Delete(key []byte) {
	_ = b.b.Delete(key)
}

func (b *cometBatch) Write() error {
	return b.b.WriteSync()
}

// get is a small helper returning relayerr.ErrNotFound instead of (nil, nil).
func get(kv KV, key []byte) ([]byte, error) {
	v, err := kv.Get(key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, relayerr.ErrNotFound
	}
	return v, nil
}
