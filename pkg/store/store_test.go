package store

import (
	"testing"
	"time"

	dbm "github.com/cometbft/cometbft-db"
)

func newTestKV(t *testing.T) KV {
	t.Helper()
	return NewCometKV(dbm.NewMemDB())
}

func TestEthVotes_PutGetDelete(t *testing.T) {
	kv := newTestKV(t)
	tbl := NewEthVotes(kv)

	var txHash [32]byte
	txHash[0] = 0xaa
	v := PendingEthVote{
		Envelope: EthVoteEnvelope{
			Vote: EthEventVoteData{
				ConfigurationID:  7,
				EventTransaction: txHash,
				EventIndex:       3,
				EventData:        []byte{1, 2, 3},
				EventBlockNumber: 100,
			},
			Kind: VoteConfirm,
		},
		FirstSubmittedAt: time.Unix(1000, 0).UTC(),
		Attempts:         1,
		NextRetryAt:      time.Unix(1060, 0).UTC(),
	}

	if err := tbl.Put(v); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := tbl.Get(7, txHash, 3)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Attempts != 1 || got.Envelope.Kind != VoteConfirm {
		t.Fatalf("unexpected round trip: %+v", got)
	}

	if err := tbl.Delete(7, txHash, 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := tbl.Get(7, txHash, 3); err == nil {
		t.Fatalf("expected error after delete, got nil")
	}
}

func TestEthVotes_Range(t *testing.T) {
	kv := newTestKV(t)
	tbl := NewEthVotes(kv)

	for i := uint32(0); i < 3; i++ {
		var txHash [32]byte
		txHash[31] = byte(i)
		v := PendingEthVote{Envelope: EthVoteEnvelope{Vote: EthEventVoteData{
			ConfigurationID:  1,
			EventTransaction: txHash,
			EventIndex:       i,
		}}}
		if err := tbl.Put(v); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	count := 0
	if err := tbl.Range(func(PendingEthVote) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("Range: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 entries, got %d", count)
	}
}

func TestEthVotes_MarkFailed_MovesBetweenTables(t *testing.T) {
	kv := newTestKV(t)
	tbl := NewEthVotes(kv)

	var txHash [32]byte
	txHash[0] = 1
	v := PendingEthVote{Envelope: EthVoteEnvelope{Vote: EthEventVoteData{
		ConfigurationID:  9,
		EventTransaction: txHash,
		EventIndex:       0,
	}}}
	if err := tbl.Put(v); err != nil {
		t.Fatalf("Put: %v", err)
	}

	b := kv.NewBatch()
	if err := tbl.MarkFailed(b, v); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := b.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := tbl.Get(9, txHash, 0); err == nil {
		t.Fatalf("expected pending entry to be gone")
	}
	raw, err := kv.Get(tbl.key(prefixFailedEthToTon, 9, txHash, 0))
	if err != nil {
		t.Fatalf("Get failed table: %v", err)
	}
	if raw == nil {
		t.Fatalf("expected failed-table entry to exist")
	}
}

func TestTonVotes_PutGetDelete(t *testing.T) {
	kv := newTestKV(t)
	tbl := NewTonVotes(kv)

	var txHash [32]byte
	txHash[5] = 0x11
	v := PendingTonVote{
		Envelope: TonVoteEnvelope{
			Vote: SignedTonEventVoteData{
				Data: TonEventVoteData{
					ConfigurationID:    4,
					EventTransaction:   txHash,
					EventTransactionLT: 555,
					EventIndex:         2,
				},
			},
			Kind: VoteReject,
		},
	}
	if err := tbl.Put(v); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := tbl.Get(4, txHash, 555, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Envelope.Kind != VoteReject {
		t.Fatalf("unexpected kind: %v", got.Envelope.Kind)
	}
	if err := tbl.Delete(4, txHash, 555, 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestVerificationQueue_ReadyOrdersByLT(t *testing.T) {
	kv := newTestKV(t)
	q := NewVerificationQueue(kv)

	for _, lt := range []uint64{300, 100, 200} {
		var txHash [32]byte
		txHash[0] = byte(lt)
		if err := q.Enqueue(TonEventVoteData{EventTransactionLT: lt, EventTransaction: txHash}); err != nil {
			t.Fatalf("Enqueue %d: %v", lt, err)
		}
	}

	ready, err := q.Ready(250, 0)
	if err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if len(ready) != 2 {
		t.Fatalf("expected 2 ready items (lt 100,200), got %d", len(ready))
	}
	if ready[0].EventTransactionLT != 100 || ready[1].EventTransactionLT != 200 {
		t.Fatalf("expected ascending lt order, got %+v", ready)
	}
}

func TestVerificationQueue_DequeueRemoves(t *testing.T) {
	kv := newTestKV(t)
	q := NewVerificationQueue(kv)

	var txHash [32]byte
	data := TonEventVoteData{EventTransactionLT: 42, EventTransaction: txHash, EventIndex: 1}
	if err := q.Enqueue(data); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Dequeue(data); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	all, err := q.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty queue after dequeue, got %d", len(all))
	}
}

func TestStats_RecordAndList(t *testing.T) {
	kv := newTestKV(t)
	s := NewEthStats(kv)
	relay := []byte{0xde, 0xad, 0xbe, 0xef}

	var h1, h2 [32]byte
	h1[0] = 1
	h2[0] = 2
	if err := s.Record(relay, TxStat{TxHash: h1, Vote: VoteConfirm, Met: time.Unix(1, 0)}); err != nil {
		t.Fatalf("Record 1: %v", err)
	}
	if err := s.Record(relay, TxStat{TxHash: h2, Vote: VoteReject, Met: time.Unix(2, 0)}); err != nil {
		t.Fatalf("Record 2: %v", err)
	}

	list, err := s.ListForRelay(relay)
	if err != nil {
		t.Fatalf("ListForRelay: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(list))
	}
}
