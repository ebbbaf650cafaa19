package store

import (
	"encoding/binary"
	"errors"

	"github.com/tonbridge/relay/pkg/relayerr"
)

// Meta holds per-configuration high-water marks that aren't part of the
// canonical four tables (spec section 4.2) but still need crash-consistent
// persistence: the E→T handler's last scanned block and the T→E handler's
// last observed logical time. Grounded on the teacher's
// SaveIntentLastBlock/LoadIntentLastBlock pattern (pkg/intent/discovery.go).
type Meta struct {
	kv KV
}

// NewMeta opens the high-water-mark table over kv.
func NewMeta(kv KV) *Meta {
	return &Meta{kv: kv}
}

// SaveLastScannedBlock persists the last E-chain block fully scanned for a
// configuration (spec section 4.5 step 6: "persist last_scanned only after
// the batch commits").
func (m *Meta) SaveLastScannedBlock(configurationID, block uint64) error {
	return m.kv.Set(metaKey(metaLastScannedBlock, configurationID), encodeUint64(block))
}

// LoadLastScannedBlock returns the last scanned block, or
// relayerr.ErrMetaNotFound if the configuration has never completed a scan.
func (m *Meta) LoadLastScannedBlock(configurationID uint64) (uint64, error) {
	raw, err := get(m.kv, metaKey(metaLastScannedBlock, configurationID))
	if err != nil {
		if errors.Is(err, relayerr.ErrNotFound) {
			return 0, relayerr.ErrMetaNotFound
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(raw), nil
}

// SaveLastLT persists the last T-chain logical time observed for a
// configuration's T→E handler.
func (m *Meta) SaveLastLT(configurationID, lt uint64) error {
	return m.kv.Set(metaKey(metaLastLT, configurationID), encodeUint64(lt))
}

// LoadLastLT returns the last observed logical time, or
// relayerr.ErrMetaNotFound if none has been recorded yet.
func (m *Meta) LoadLastLT(configurationID uint64) (uint64, error) {
	raw, err := get(m.kv, metaKey(metaLastLT, configurationID))
	if err != nil {
		if errors.Is(err, relayerr.ErrNotFound) {
			return 0, relayerr.ErrMetaNotFound
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(raw), nil
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
