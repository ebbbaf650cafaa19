package store

import (
	"testing"
	"time"

	"github.com/tonbridge/relay/pkg/relayerr"
)

func TestConfigVotes_PutGetDelete(t *testing.T) {
	kv := newTestKV(t)
	tbl := NewConfigVotes(kv)

	v := PendingConfigVote{
		ConfigurationID:  42,
		Kind:             VoteConfirm,
		FirstSubmittedAt: time.Now(),
		Attempts:         1,
	}
	if err := tbl.Put(v); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := tbl.Get(42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Kind != VoteConfirm || got.Attempts != 1 {
		t.Fatalf("got = %+v, want Kind=VoteConfirm Attempts=1", got)
	}

	if err := tbl.Delete(42); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := tbl.Get(42); err != relayerr.ErrNotFound {
		t.Fatalf("Get after delete: %v, want ErrNotFound", err)
	}
}

func TestConfigVotes_Range(t *testing.T) {
	kv := newTestKV(t)
	tbl := NewConfigVotes(kv)

	for _, id := range []uint64{1, 2, 3} {
		if err := tbl.Put(PendingConfigVote{ConfigurationID: id, Kind: VoteConfirm}); err != nil {
			t.Fatalf("Put(%d): %v", id, err)
		}
	}

	var seen []uint64
	if err := tbl.Range(func(v PendingConfigVote) error {
		seen = append(seen, v.ConfigurationID)
		return nil
	}); err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("seen = %v, want 3 entries", seen)
	}
}
