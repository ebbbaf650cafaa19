package submitter

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/tonbridge/relay/pkg/store"
)

// contentHash identifies an outbound message body for in-flight
// deduplication (spec section 4.7: "messages are keyed by content hash").
func contentHash(body []byte) [32]byte {
	return sha256.Sum256(body)
}

// ethVoteBody serializes an EthEventVoteData into the outbound message
// body addressed to the configuration contract's confirm/reject method.
func ethVoteBody(v store.EthEventVoteData) []byte {
	out := make([]byte, 0, 8+32+4+8+32+len(v.EventData))
	out = appendUint64(out, v.ConfigurationID)
	out = append(out, v.EventTransaction[:]...)
	out = appendUint32(out, v.EventIndex)
	out = appendUint64(out, v.EventBlockNumber)
	out = append(out, v.EventBlock[:]...)
	out = append(out, v.EventData...)
	return out
}

// tonVoteBody serializes a SignedTonEventVoteData into the outbound
// message body addressed to the configuration contract's confirm/reject
// method on T-chain.
func tonVoteBody(v store.SignedTonEventVoteData) []byte {
	d := v.Data
	out := make([]byte, 0, 8+32+8+4+4+len(d.EventData)+65)
	out = appendUint64(out, d.ConfigurationID)
	out = append(out, d.EventTransaction[:]...)
	out = appendUint64(out, d.EventTransactionLT)
	out = appendUint32(out, d.EventTimestamp)
	out = appendUint32(out, d.EventIndex)
	out = append(out, d.EventData...)
	out = append(out, v.Signature[:]...)
	return out
}

func appendUint64(b []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(b, buf[:]...)
}

func appendUint32(b []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(b, buf[:]...)
}
