package ethtoton

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/tonbridge/relay/pkg/codec"
	"github.com/tonbridge/relay/pkg/ethtransport"
	"github.com/tonbridge/relay/pkg/relayerr"
	"github.com/tonbridge/relay/pkg/store"
)

// abiEncodeUintAddress builds Solidity-style ABI-encoded data for a
// (uint256, address) tuple, matching the event_abi used by testEventABI.
func abiEncodeUintAddress(amount uint64, to common.Address) []byte {
	uint256Ty, _ := ethabi.NewType("uint256", "", nil)
	addressTy, _ := ethabi.NewType("address", "", nil)
	args := ethabi.Arguments{{Type: uint256Ty}, {Type: addressTy}}
	packed, err := args.Pack(new(big.Int).SetUint64(amount), to)
	if err != nil {
		panic(err)
	}
	return packed
}

func testEventABI(t *testing.T) *codec.EventABI {
	t.Helper()
	abi, err := codec.ParseEventABI([]byte(`{"name":"SwapOut","inputs":[{"name":"amount","type":"uint256"},{"name":"to","type":"address"}]}`))
	if err != nil {
		t.Fatalf("ParseEventABI: %v", err)
	}
	return abi
}

type fakeTransport struct {
	latest    uint64
	latestErr error
	logs      []ethtransport.Log
	logsErr   error
	calls     int
}

func (f *fakeTransport) LatestBlock(ctx context.Context) (uint64, error) {
	f.calls++
	if f.latestErr != nil {
		return 0, f.latestErr
	}
	return f.latest, nil
}

func (f *fakeTransport) FilterLogs(ctx context.Context, address common.Address, topic0 common.Hash, fromBlock, toBlock uint64) ([]ethtransport.Log, error) {
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	return f.logs, nil
}

func packedAmountTo(t *testing.T, abi *codec.EventABI, amount uint64, to common.Address) []byte {
	t.Helper()
	_ = abi // event_abi's (uint256 amount, address to) shape is fixed by testEventABI
	return abiEncodeUintAddress(amount, to)
}

func TestHandler_Tick_PersistsPendingVote(t *testing.T) {
	abi := testEventABI(t)
	kv := store.NewCometKV(dbm.NewMemDB())
	votes := store.NewEthVotes(kv)
	meta := store.NewMeta(kv)

	to := common.HexToAddress("0x00000000000000000000000000000000000001")
	data := packedAmountTo(t, abi, 42, to)

	txHash := common.HexToHash("0xaa")
	transport := &fakeTransport{
		latest: 100,
		logs: []ethtransport.Log{
			{
				Address:     common.HexToAddress("0x02"),
				Topics:      []common.Hash{codec.EventTopic(abi)},
				Data:        data,
				TxHash:      txHash,
				LogIndex:    0,
				BlockNumber: 50,
				BlockHash:   common.HexToHash("0xbb"),
			},
		},
	}

	h := New(Config{
		ConfigurationID:        7,
		EventAddrOnE:           common.HexToAddress("0x02"),
		EventABI:               abi,
		PollInterval:           time.Second,
		SuspiciousBlocksOffset: 5,
		PollAttempts:           3,
	}, transport, votes, meta)

	if err := h.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	got, err := votes.Get(7, txHash, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Envelope.Kind != store.VoteConfirm {
		t.Fatalf("Kind = %v, want VoteConfirm", got.Envelope.Kind)
	}
	if got.Envelope.Vote.EventBlockNumber != 50 {
		t.Fatalf("EventBlockNumber = %d, want 50", got.Envelope.Vote.EventBlockNumber)
	}

	block, err := meta.LoadLastScannedBlock(7)
	if err != nil {
		t.Fatalf("LoadLastScannedBlock: %v", err)
	}
	if block != 95 {
		t.Fatalf("last scanned = %d, want 95 (latest - offset)", block)
	}
}

func TestHandler_Tick_SkipsAlreadyPending(t *testing.T) {
	abi := testEventABI(t)
	kv := store.NewCometKV(dbm.NewMemDB())
	votes := store.NewEthVotes(kv)
	meta := store.NewMeta(kv)

	txHash := common.HexToHash("0xaa")
	data := packedAmountTo(t, abi, 1, common.HexToAddress("0x01"))
	transport := &fakeTransport{
		latest: 20,
		logs: []ethtransport.Log{
			{Address: common.HexToAddress("0x02"), Topics: []common.Hash{codec.EventTopic(abi)}, Data: data, TxHash: txHash, LogIndex: 0, BlockNumber: 10},
		},
	}
	h := New(Config{ConfigurationID: 1, EventAddrOnE: common.HexToAddress("0x02"), EventABI: abi, PollInterval: time.Second, SuspiciousBlocksOffset: 1, PollAttempts: 1}, transport, votes, meta)

	if err := h.tick(context.Background()); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	first, err := votes.Get(1, txHash, 0)
	if err != nil {
		t.Fatalf("Get after first tick: %v", err)
	}

	transport.latest = 30
	if err := h.tick(context.Background()); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	second, err := votes.Get(1, txHash, 0)
	if err != nil {
		t.Fatalf("Get after second tick: %v", err)
	}
	if !first.FirstSubmittedAt.Equal(second.FirstSubmittedAt) {
		t.Fatalf("FirstSubmittedAt changed on re-observation: %v -> %v", first.FirstSubmittedAt, second.FirstSubmittedAt)
	}
}

func TestHandler_Tick_LatestBlockRetriesThenFails(t *testing.T) {
	abi := testEventABI(t)
	kv := store.NewCometKV(dbm.NewMemDB())
	votes := store.NewEthVotes(kv)
	meta := store.NewMeta(kv)

	transport := &fakeTransport{latestErr: errors.New("rpc down")}
	h := New(Config{ConfigurationID: 3, EventAddrOnE: common.HexToAddress("0x02"), EventABI: abi, PollInterval: time.Second, SuspiciousBlocksOffset: 1, PollAttempts: 3}, transport, votes, meta)

	if err := h.tick(context.Background()); err == nil {
		t.Fatalf("expected error from exhausted retries")
	}
	if transport.calls != 3 {
		t.Fatalf("calls = %d, want 3 (PollAttempts)", transport.calls)
	}
	if _, err := meta.LoadLastScannedBlock(3); err != relayerr.ErrMetaNotFound {
		t.Fatalf("scan window should not advance on failure, err = %v", err)
	}
}
