package httpapi

import (
	"encoding/hex"
	"time"

	"github.com/tonbridge/relay/pkg/store"
)

// ethVoteView renders a PendingEthVote for the /eth-to-ton/{pending,failed}
// routes, hex-encoding the fixed-width identity fields.
type ethVoteView struct {
	ConfigurationID  uint64    `json:"configuration_id"`
	EventTransaction string    `json:"event_transaction"`
	EventIndex       uint32    `json:"event_index"`
	EventBlockNumber uint64    `json:"event_block_number"`
	Kind             string    `json:"kind"`
	FirstSubmittedAt time.Time `json:"first_submitted_at"`
	Attempts         int       `json:"attempts"`
	NextRetryAt      time.Time `json:"next_retry_at"`
}

func newEthVoteView(v store.PendingEthVote) ethVoteView {
	return ethVoteView{
		ConfigurationID:  v.Envelope.Vote.ConfigurationID,
		EventTransaction: hex.EncodeToString(v.Envelope.Vote.EventTransaction[:]),
		EventIndex:       v.Envelope.Vote.EventIndex,
		EventBlockNumber: v.Envelope.Vote.EventBlockNumber,
		Kind:             string(v.Envelope.Kind),
		FirstSubmittedAt: v.FirstSubmittedAt,
		Attempts:         v.Attempts,
		NextRetryAt:      v.NextRetryAt,
	}
}

func newEthVoteViews(in []store.PendingEthVote) []ethVoteView {
	out := make([]ethVoteView, 0, len(in))
	for _, v := range in {
		out = append(out, newEthVoteView(v))
	}
	return out
}

// tonVoteView renders a PendingTonVote for the /ton-to-eth/{pending,failed}
// routes.
type tonVoteView struct {
	ConfigurationID    uint64    `json:"configuration_id"`
	EventTransaction   string    `json:"event_transaction"`
	EventTransactionLT uint64    `json:"event_transaction_lt"`
	EventIndex         uint32    `json:"event_index"`
	Kind               string    `json:"kind"`
	FirstSubmittedAt   time.Time `json:"first_submitted_at"`
	Attempts           int       `json:"attempts"`
	NextRetryAt        time.Time `json:"next_retry_at"`
}

func newTonVoteView(v store.PendingTonVote) tonVoteView {
	d := v.Envelope.Vote.Data
	return tonVoteView{
		ConfigurationID:    d.ConfigurationID,
		EventTransaction:   hex.EncodeToString(d.EventTransaction[:]),
		EventTransactionLT: d.EventTransactionLT,
		EventIndex:         d.EventIndex,
		Kind:               string(v.Envelope.Kind),
		FirstSubmittedAt:   v.FirstSubmittedAt,
		Attempts:           v.Attempts,
		NextRetryAt:        v.NextRetryAt,
	}
}

func newTonVoteViews(in []store.PendingTonVote) []tonVoteView {
	out := make([]tonVoteView, 0, len(in))
	for _, v := range in {
		out = append(out, newTonVoteView(v))
	}
	return out
}

// tonQueuedView renders a store.TonEventVoteData staged in the
// verification queue for /ton-to-eth/queued.
type tonQueuedView struct {
	ConfigurationID    uint64 `json:"configuration_id"`
	EventTransaction   string `json:"event_transaction"`
	EventTransactionLT uint64 `json:"event_transaction_lt"`
	EventTimestamp     uint32 `json:"event_timestamp"`
	EventIndex         uint32 `json:"event_index"`
}

func newTonQueuedView(d store.TonEventVoteData) tonQueuedView {
	return tonQueuedView{
		ConfigurationID:    d.ConfigurationID,
		EventTransaction:   hex.EncodeToString(d.EventTransaction[:]),
		EventTransactionLT: d.EventTransactionLT,
		EventTimestamp:     d.EventTimestamp,
		EventIndex:         d.EventIndex,
	}
}

func newTonQueuedViews(in []store.TonEventVoteData) []tonQueuedView {
	out := make([]tonQueuedView, 0, len(in))
	for _, d := range in {
		out = append(out, newTonQueuedView(d))
	}
	return out
}

// statView renders a store.TxStat for the /{eth-to-ton,ton-to-eth}/stats
// routes.
type statView struct {
	TxHash    string  `json:"tx_hash"`
	LT        *uint64 `json:"lt,omitempty"`
	Met       time.Time `json:"met"`
	EventAddr string  `json:"event_addr"`
	Vote      string  `json:"vote"`
}

func newStatView(s store.TxStat) statView {
	return statView{
		TxHash:    hex.EncodeToString(s.TxHash[:]),
		LT:        s.LT,
		Met:       s.Met,
		EventAddr: hex.EncodeToString(s.EventAddr),
		Vote:      string(s.Vote),
	}
}

func newStatViews(in []store.TxStat) []statView {
	out := make([]statView, 0, len(in))
	for _, s := range in {
		out = append(out, newStatView(s))
	}
	return out
}
