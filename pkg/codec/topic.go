package codec

import (
	"hash/crc32"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EventTopic computes topic0 for an event ABI: keccak256(signature), where
// signature is "name(type1,type2,...)". See spec section 4.3/4.5 and
// testable property 6.
func EventTopic(eventABI *EventABI) common.Hash {
	return crypto.Keccak256Hash([]byte(eventABI.Signature()))
}

// DefaultEventID reproduces the T-chain convention for a swap-back event
// with no explicit "event_id" in its ABI JSON: CRC32 of the textual
// function signature, masked to 31 bits (getFunctionId() & 0x7FFFFFFF in
// the original implementation). See spec section 4.6 step 1 and
// SPEC_FULL.md section 3.2.
func DefaultEventID(eventABI *EventABI) uint32 {
	return crc32.ChecksumIEEE([]byte(eventABI.Signature())) & 0x7FFFFFFF
}

// ResolveEventID returns the configuration's explicit event id if present,
// otherwise the default derived from the signature.
func (e *EventABI) ResolveEventID() uint32 {
	if e.EventID != nil {
		return *e.EventID
	}
	return DefaultEventID(e)
}
