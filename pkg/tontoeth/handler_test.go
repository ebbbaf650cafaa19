package tontoeth

import (
	"context"
	"testing"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tonbridge/relay/pkg/cell"
	"github.com/tonbridge/relay/pkg/codec"
	"github.com/tonbridge/relay/pkg/ethsigner"
	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontransport"
)

type fakeTransport struct {
	currentLT uint64
}

func (f *fakeTransport) CurrentLT(ctx context.Context, addr tontransport.Address) (uint64, error) {
	return f.currentLT, nil
}
func (f *fakeTransport) GetConfigurationDetails(ctx context.Context, addr tontransport.Address) (tontransport.ConfigurationDetails, error) {
	return tontransport.ConfigurationDetails{}, nil
}
func (f *fakeTransport) SubscribeMessages(ctx context.Context, addr tontransport.Address, sinceLT uint64) (<-chan tontransport.Message, error) {
	ch := make(chan tontransport.Message)
	close(ch)
	return ch, nil
}
func (f *fakeTransport) SendMessage(ctx context.Context, msg tontransport.OutboundMessage, sig [64]byte) (tontransport.SendResult, error) {
	return tontransport.SendResult{}, nil
}

func testHandler(t *testing.T) (*Handler, *store.VerificationQueue, *store.TonVotes, *store.Meta) {
	t.Helper()
	abi, err := codec.ParseEventABI([]byte(`{"name":"TokensSwapBack","inputs":[{"name":"amount","type":"uint128"}]}`))
	if err != nil {
		t.Fatalf("ParseEventABI: %v", err)
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	kv := store.NewCometKV(dbm.NewMemDB())
	queue := store.NewVerificationQueue(kv)
	votes := store.NewTonVotes(kv)
	meta := store.NewMeta(kv)

	cfg := Config{
		ConfigurationID:       1,
		EventAddrOnT:          tontransport.Address{Workchain: 0, AccountID: [32]byte{1}},
		EventABI:              abi,
		EventCfgAddr:          tontransport.Address{Workchain: 0, AccountID: [32]byte{2}},
		ProxyAddrOnE:          common.HexToAddress("0x01"),
		RequiredConfirmations: 2,
		RequiredRejects:       2,
		VerificationInterval:  time.Second,
		LtOffset:              5,
		AllowedTimeDiff:       time.Hour,
	}
	h := New(cfg, &fakeTransport{}, queue, votes, meta, ethsigner.New(key))
	return h, queue, votes, meta
}

// buildMessageBody builds a cell matching the single-field tuple
// {amount:uint128} shape UnpackCell expects: a root cell with one ref per
// tuple field, mirroring how PackCell packs KindTuple.
func buildMessageBody(t *testing.T, amount uint64) []byte {
	t.Helper()
	fieldBld := cell.NewBuilder()
	if err := fieldBld.StoreBytes(padUint(amount, 16)); err != nil {
		t.Fatalf("StoreBytes: %v", err)
	}
	fieldCell, err := fieldBld.Build()
	if err != nil {
		t.Fatalf("Build field: %v", err)
	}

	rootBld := cell.NewBuilder()
	if err := rootBld.StoreRef(fieldCell); err != nil {
		t.Fatalf("StoreRef: %v", err)
	}
	root, err := rootBld.Build()
	if err != nil {
		t.Fatalf("Build root: %v", err)
	}
	return cell.Serialize(root)
}

func padUint(v uint64, bytesLen int) []byte {
	out := make([]byte, bytesLen)
	for i := 0; i < 8 && i < bytesLen; i++ {
		out[bytesLen-1-i] = byte(v >> (8 * i))
	}
	return out
}

func TestHandleMessage_EnqueuesAndAdvancesLT(t *testing.T) {
	h, queue, _, meta := testHandler(t)

	msg := tontransport.Message{
		Body:       buildMessageBody(t, 42),
		LT:         100,
		Timestamp:  uint32(time.Now().Unix()),
		EventIndex: 0,
	}
	if err := h.handleMessage(msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}

	items, err := queue.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("queue len = %d, want 1", len(items))
	}
	if items[0].EventTransactionLT != 100 {
		t.Fatalf("LT = %d, want 100", items[0].EventTransactionLT)
	}

	lt, err := meta.LoadLastLT(1)
	if err != nil || lt != 100 {
		t.Fatalf("LoadLastLT = %d, err %v, want 100", lt, err)
	}
}

func TestVerifyTick_ConfirmsFreshEvent(t *testing.T) {
	h, queue, votes, _ := testHandler(t)

	msg := tontransport.Message{Body: buildMessageBody(t, 7), LT: 100, Timestamp: uint32(time.Now().Unix())}
	if err := h.handleMessage(msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}

	h.transport = &fakeTransport{currentLT: 200}
	if err := h.verifyTick(context.Background()); err != nil {
		t.Fatalf("verifyTick: %v", err)
	}

	remaining, err := queue.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("queue should be drained, got %d items", len(remaining))
	}

	var seenVote store.PendingTonVote
	found := false
	if err := votes.Range(func(v store.PendingTonVote) error {
		seenVote = v
		found = true
		return nil
	}); err != nil {
		t.Fatalf("Range: %v", err)
	}
	if !found {
		t.Fatalf("expected a pending vote")
	}
	if seenVote.Envelope.Kind != store.VoteConfirm {
		t.Fatalf("Kind = %v, want VoteConfirm", seenVote.Envelope.Kind)
	}

	addr, err := ethsignerRecover(h, seenVote)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if addr != h.signer.Address() {
		t.Fatalf("recovered address mismatch: got %s want %s", addr, h.signer.Address())
	}
}

func TestVerifyTick_RejectsStaleTimestamp(t *testing.T) {
	h, _, votes, _ := testHandler(t)
	h.cfg.AllowedTimeDiff = time.Minute

	staleTimestamp := uint32(time.Now().Add(-time.Hour).Unix())
	msg := tontransport.Message{Body: buildMessageBody(t, 1), LT: 50, Timestamp: staleTimestamp}
	if err := h.handleMessage(msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}

	h.transport = &fakeTransport{currentLT: 100}
	if err := h.verifyTick(context.Background()); err != nil {
		t.Fatalf("verifyTick: %v", err)
	}

	var kind store.VoteKind
	if err := votes.Range(func(v store.PendingTonVote) error {
		kind = v.Envelope.Kind
		return nil
	}); err != nil {
		t.Fatalf("Range: %v", err)
	}
	if kind != store.VoteReject {
		t.Fatalf("Kind = %v, want VoteReject", kind)
	}
}

func TestVerifyTick_NotYetFinalizedStaysQueued(t *testing.T) {
	h, queue, votes, _ := testHandler(t)

	msg := tontransport.Message{Body: buildMessageBody(t, 1), LT: 100, Timestamp: uint32(time.Now().Unix())}
	if err := h.handleMessage(msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}

	h.transport = &fakeTransport{currentLT: 102} // 100+5 offset > 102, not finalized
	if err := h.verifyTick(context.Background()); err != nil {
		t.Fatalf("verifyTick: %v", err)
	}

	items, err := queue.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected item to remain queued, got %d", len(items))
	}

	count := 0
	if err := votes.Range(func(v store.PendingTonVote) error { count++; return nil }); err != nil {
		t.Fatalf("Range: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no pending vote yet, got %d", count)
	}
}

func ethsignerRecover(h *Handler, v store.PendingTonVote) (common.Address, error) {
	payload, err := h.signaturePayload(v.Envelope.Vote.Data)
	if err != nil {
		return common.Address{}, err
	}
	return ethsigner.Recover(payload, v.Envelope.Vote.Signature)
}
