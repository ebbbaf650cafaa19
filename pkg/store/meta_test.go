package store

import (
	"testing"

	"github.com/tonbridge/relay/pkg/relayerr"
)

func TestMeta_LastScannedBlock_RoundTrip(t *testing.T) {
	kv := newTestKV(t)
	m := NewMeta(kv)

	if _, err := m.LoadLastScannedBlock(1); err != relayerr.ErrMetaNotFound {
		t.Fatalf("err = %v, want ErrMetaNotFound before any save", err)
	}
	if err := m.SaveLastScannedBlock(1, 12345); err != nil {
		t.Fatalf("SaveLastScannedBlock: %v", err)
	}
	got, err := m.LoadLastScannedBlock(1)
	if err != nil {
		t.Fatalf("LoadLastScannedBlock: %v", err)
	}
	if got != 12345 {
		t.Fatalf("got = %d, want 12345", got)
	}
}

func TestMeta_LastLT_IndependentOfBlock(t *testing.T) {
	kv := newTestKV(t)
	m := NewMeta(kv)

	if err := m.SaveLastScannedBlock(9, 100); err != nil {
		t.Fatalf("SaveLastScannedBlock: %v", err)
	}
	if err := m.SaveLastLT(9, 999); err != nil {
		t.Fatalf("SaveLastLT: %v", err)
	}

	block, err := m.LoadLastScannedBlock(9)
	if err != nil || block != 100 {
		t.Fatalf("block = %d, err = %v, want 100, nil", block, err)
	}
	lt, err := m.LoadLastLT(9)
	if err != nil || lt != 999 {
		t.Fatalf("lt = %d, err = %v, want 999, nil", lt, err)
	}
}
