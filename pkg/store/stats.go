package store

import (
	"encoding/json"
	"fmt"
)

// Stats is one of the StatsE/StatsT tables, keyed by (relay_addr, tx_hash)
// per spec section 4.2.
type Stats struct {
	kv     KV
	prefix byte
}

// NewEthStats opens the StatsE table.
func NewEthStats(kv KV) *Stats { return &Stats{kv: kv, prefix: prefixStatsEth} }

// NewTonStats opens the StatsT table.
func NewTonStats(kv KV) *Stats { return &Stats{kv: kv, prefix: prefixStatsTon} }

// Record stores a TxStat for a landed vote.
func (s *Stats) Record(relayAddr []byte, stat TxStat) error {
	b, err := json.Marshal(stat)
	if err != nil {
		return fmt.Errorf("txstat: marshal: %w", err)
	}
	return s.kv.Set(statsKey(s.prefix, relayAddr, stat.TxHash), b)
}

// RecordBatch stages a Record within an existing write batch, so a
// PendingVote delete and its TxStat record commit atomically (spec section
// 4.7 step 4: "on landed+success: delete PendingVote; record TxStat").
func (s *Stats) RecordBatch(b Batch, relayAddr []byte, stat TxStat) error {
	val, err := json.Marshal(stat)
	if err != nil {
		return fmt.Errorf("txstat: marshal: %w", err)
	}
	b.Set(statsKey(s.prefix, relayAddr, stat.TxHash), val)
	return nil
}

// ListForRelay returns every TxStat recorded for relayAddr, in tx-hash
// order.
func (s *Stats) ListForRelay(relayAddr []byte) ([]TxStat, error) {
	start := append([]byte{s.prefix}, relayAddr...)
	end := append([]byte{}, start...)
	for i := 0; i < 33; i++ { // one byte past the 32-byte tx hash suffix
		end = append(end, 0xff)
	}
	it, err := s.kv.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []TxStat
	for it.Valid() {
		var st TxStat
		if err := json.Unmarshal(it.Value(), &st); err != nil {
			return nil, fmt.Errorf("txstat: unmarshal during list: %w", err)
		}
		out = append(out, st)
		it.Next()
	}
	return out, nil
}
