package store

import "time"

// VoteKind is the outcome a relay casts for an observed event.
type VoteKind string

const (
	VoteConfirm VoteKind = "confirm"
	VoteReject  VoteKind = "reject"
)

// EthEventVoteData describes an event observed on the E-chain, destined for
// a vote cast on T-chain. Identity is (ConfigurationID, EventTransaction,
// EventIndex) — spec section 3.
type EthEventVoteData struct {
	ConfigurationID  uint64
	EventTransaction [32]byte
	EventIndex       uint32
	EventData        []byte // packed cell bytes
	EventBlockNumber uint64
	EventBlock       [32]byte
}

// TonEventVoteData describes an event observed on T-chain; its vote is cast
// on T-chain with the relay's E-chain signature attached. Identity is (ConfigurationID, EventTransaction,
// EventTransactionLT, EventIndex) — spec section 3.
type TonEventVoteData struct {
	ConfigurationID     uint64
	EventTransaction    [32]byte
	EventTransactionLT  uint64
	EventTimestamp      uint32
	EventIndex          uint32
	EventData           []byte // ABI-packed token tuple
}

// SignedTonEventVoteData wraps a TonEventVoteData with the relay's EIP-191
// signature over its ABI-encoded payload (spec section 4.6).
type SignedTonEventVoteData struct {
	Data      TonEventVoteData
	Signature [65]byte
}

// EthVoteEnvelope is the PendingVote payload for the E→T direction.
type EthVoteEnvelope struct {
	Vote EthEventVoteData
	Kind VoteKind
}

// TonVoteEnvelope is the PendingVote payload for the T→E direction.
type TonVoteEnvelope struct {
	Vote SignedTonEventVoteData
	Kind VoteKind
}

// PendingEthVote is a PendingVote record for an E→T-direction vote awaiting
// finality, keyed by EthEventVoteData's identity (spec section 3).
type PendingEthVote struct {
	Envelope        EthVoteEnvelope
	FirstSubmittedAt time.Time
	Attempts        int
	NextRetryAt     time.Time
}

// PendingTonVote is a PendingVote record for a T→E-direction vote awaiting
// finality, keyed by TonEventVoteData's identity.
type PendingTonVote struct {
	Envelope         TonVoteEnvelope
	FirstSubmittedAt time.Time
	Attempts         int
	NextRetryAt      time.Time
}

// PendingConfigVote is a bootstrap Confirm/Reject vote for a configuration
// itself, not an event (spec section 4.4 step 3: "this vote is itself a
// PendingVote subject to section 4.7"). Its identity is the configuration
// id alone: a configuration casts at most one bootstrap vote.
type PendingConfigVote struct {
	ConfigurationID  uint64
	Kind             VoteKind
	FirstSubmittedAt time.Time
	Attempts         int
	NextRetryAt      time.Time
}

// TxStat records a landed vote for per-relay metrics and listing (spec
// section 3). EventAddr is the configuration's event contract/account
// address the vote was cast against.
type TxStat struct {
	TxHash    [32]byte
	LT        *uint64 // set only for T-chain-originated stats
	Met       time.Time
	EventAddr []byte
	Vote      VoteKind
}
