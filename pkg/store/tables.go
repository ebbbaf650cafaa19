package store

import "encoding/binary"

// Table prefixes. Single bytes, preserved across versions: forward/backward
// compatibility requires these never change once shipped (spec section 6,
// "persistent state layout").
const (
	prefixPendingEthToTon byte = 0x01
	prefixPendingTonToEth byte = 0x02
	prefixFailedEthToTon  byte = 0x03
	prefixFailedTonToEth  byte = 0x04
	prefixVerificationQ   byte = 0x05
	prefixStatsEth        byte = 0x06
	prefixStatsTon        byte = 0x07
	prefixPendingConfig   byte = 0x08
	prefixMeta            byte = 0x09
)

// Meta sub-kinds, distinguishing what a high-water mark tracks within the
// single Meta table.
const (
	metaLastScannedBlock byte = 0x01
	metaLastLT           byte = 0x02
)

func putUint64(b []byte, v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return append(b, buf...)
}

func putUint32(b []byte, v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return append(b, buf...)
}

// ethVoteKey builds the PendingE→T / FailedE→T identity key:
// (configuration_id, event_transaction, event_index).
func ethVoteKey(prefix byte, configurationID uint64, eventTransaction [32]byte, eventIndex uint32) []byte {
	k := make([]byte, 0, 1+8+32+4)
	k = append(k, prefix)
	k = putUint64(k, configurationID)
	k = append(k, eventTransaction[:]...)
	k = putUint32(k, eventIndex)
	return k
}

// tonVoteKey builds the PendingT→E / FailedT→E identity key:
// (configuration_id, event_transaction, lt, event_index).
func tonVoteKey(prefix byte, configurationID uint64, eventTransaction [32]byte, lt uint64, eventIndex uint32) []byte {
	k := make([]byte, 0, 1+8+32+8+4)
	k = append(k, prefix)
	k = putUint64(k, configurationID)
	k = append(k, eventTransaction[:]...)
	k = putUint64(k, lt)
	k = putUint32(k, eventIndex)
	return k
}

// verificationKey orders entries by logical time so the queue can be drained
// in lt order, with (event_transaction, event_index) breaking ties between
// events recorded at the same lt.
func verificationKey(lt uint64, eventTransaction [32]byte, eventIndex uint32) []byte {
	k := make([]byte, 0, 1+8+32+4)
	k = append(k, prefixVerificationQ)
	k = putUint64(k, lt)
	k = append(k, eventTransaction[:]...)
	k = putUint32(k, eventIndex)
	return k
}

// statsKey orders entries by relay address then tx hash, per spec's
// (relay_addr, tx_hash) identity for StatsE/StatsT.
func statsKey(prefix byte, relayAddr []byte, txHash [32]byte) []byte {
	k := make([]byte, 0, 1+len(relayAddr)+32)
	k = append(k, prefix)
	k = append(k, relayAddr...)
	k = append(k, txHash[:]...)
	return k
}

// configVoteKey builds the PendingConfig identity key: configuration_id
// alone, since a configuration casts at most one bootstrap vote.
func configVoteKey(configurationID uint64) []byte {
	k := make([]byte, 0, 1+8)
	k = append(k, prefixPendingConfig)
	k = putUint64(k, configurationID)
	return k
}

// metaKey builds a high-water-mark key: (sub-kind, configuration_id).
func metaKey(subKind byte, configurationID uint64) []byte {
	k := make([]byte, 0, 1+1+8)
	k = append(k, prefixMeta, subKind)
	k = putUint64(k, configurationID)
	return k
}

func tablePrefixRange(prefix byte) (start, end []byte) {
	start = []byte{prefix}
	end = []byte{prefix + 1}
	return start, end
}
