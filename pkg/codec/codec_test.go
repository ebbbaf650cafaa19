package codec

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestEventTopic_MatchesKeccakOfSignature(t *testing.T) {
	abiJSON := []byte(`{"name":"EthereumStateChange","inputs":[{"name":"value","type":"uint256"}]}`)
	ev, err := ParseEventABI(abiJSON)
	if err != nil {
		t.Fatalf("ParseEventABI: %v", err)
	}
	got := EventTopic(ev)
	want := crypto.Keccak256Hash([]byte("EthereumStateChange(uint256)"))
	if got != want {
		t.Fatalf("topic mismatch: got %x want %x", got, want)
	}
}

func TestTokenLockDecodeAndRoundTrip(t *testing.T) {
	abiJSON := []byte(`{
		"name":"TokenLock",
		"inputs":[
			{"name":"amount","type":"uint128"},
			{"name":"wid","type":"int8"},
			{"name":"addr","type":"uint256"},
			{"name":"pubkey","type":"uint256"}
		]
	}`)
	ev, err := ParseEventABI(abiJSON)
	if err != nil {
		t.Fatalf("ParseEventABI: %v", err)
	}

	amount, _ := new(big.Int).SetString("10000000000000000000", 10)
	addr, _ := new(big.Int).SetString("40628c0000000000000000000000000000000000000000000000000000c9cc", 16)

	args, err := toEthArguments(ev.Inputs)
	if err != nil {
		t.Fatalf("toEthArguments: %v", err)
	}
	packed, err := args.Pack(amount, int8(0), addr, big.NewInt(0))
	if err != nil {
		t.Fatalf("ethabi pack (test fixture): %v", err)
	}

	decoded, err := DecodeEthLog(ev, packed)
	if err != nil {
		t.Fatalf("DecodeEthLog: %v", err)
	}
	if len(decoded.Elems) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(decoded.Elems))
	}
	if decoded.Elems[0].Int.Cmp(amount) != 0 {
		t.Fatalf("amount mismatch: got %s want %s", decoded.Elems[0].Int, amount)
	}
	if decoded.Elems[1].Int.Sign() != 0 {
		t.Fatalf("wid mismatch: got %s want 0", decoded.Elems[1].Int)
	}
	if decoded.Elems[2].Int.Cmp(addr) != 0 {
		t.Fatalf("addr mismatch: got %s want %s", decoded.Elems[2].Int, addr)
	}

	c, err := PackCell(decoded)
	if err != nil {
		t.Fatalf("PackCell: %v", err)
	}
	back, err := UnpackCell(decoded.Type, c)
	if err != nil {
		t.Fatalf("UnpackCell: %v", err)
	}
	if !Equal(decoded, back) {
		t.Fatalf("round trip mismatch: got %+v want %+v", back, decoded)
	}
}

func TestRoundTrip_NonAddressNonStringIsIdentity(t *testing.T) {
	tt := Type{Kind: KindTuple, Fields: []Type{
		{Kind: KindUint, Bits: 256},
		{Kind: KindInt, Bits: 8},
		{Kind: KindBool},
		{Kind: KindFixedBytes, FixedLen: 4},
		{Kind: KindArray, Elem: &Type{Kind: KindUint, Bits: 32}},
	}}
	v := Value{Type: tt, Elems: []Value{
		{Type: tt.Fields[0], Int: big.NewInt(123456789)},
		{Type: tt.Fields[1], Int: big.NewInt(-5)},
		{Type: tt.Fields[2], Bool: true},
		{Type: tt.Fields[3], Bytes: []byte{1, 2, 3, 4}},
		{Type: tt.Fields[4], Elems: []Value{
			{Type: *tt.Fields[4].Elem, Int: big.NewInt(7)},
			{Type: *tt.Fields[4].Elem, Int: big.NewInt(8)},
		}},
	}}

	c, err := PackCell(v)
	if err != nil {
		t.Fatalf("PackCell: %v", err)
	}
	back, err := UnpackCell(tt, c)
	if err != nil {
		t.Fatalf("UnpackCell: %v", err)
	}
	if !Equal(v, back) {
		t.Fatalf("round trip not identity: got %+v want %+v", back, v)
	}
}

func TestEncodeEthValue_ReencodesDecodedLog(t *testing.T) {
	abiJSON := []byte(`{
		"name":"TokenLock",
		"inputs":[
			{"name":"amount","type":"uint128"},
			{"name":"wid","type":"int8"},
			{"name":"addr","type":"uint256"}
		]
	}`)
	ev, err := ParseEventABI(abiJSON)
	if err != nil {
		t.Fatalf("ParseEventABI: %v", err)
	}

	amount, _ := new(big.Int).SetString("10000000000000000000", 10)
	addr, _ := new(big.Int).SetString("c9cc", 16)

	args, err := toEthArguments(ev.Inputs)
	if err != nil {
		t.Fatalf("toEthArguments: %v", err)
	}
	original, err := args.Pack(amount, int8(-2), addr)
	if err != nil {
		t.Fatalf("ethabi pack (test fixture): %v", err)
	}

	decoded, err := DecodeEthLog(ev, original)
	if err != nil {
		t.Fatalf("DecodeEthLog: %v", err)
	}

	reencoded, err := EncodeEthValue(decoded)
	if err != nil {
		t.Fatalf("EncodeEthValue: %v", err)
	}
	if string(reencoded) != string(original) {
		t.Fatalf("re-encoded bytes mismatch:\ngot  %x\nwant %x", reencoded, original)
	}
}

func TestUnpackCell_LeftoverInputFails(t *testing.T) {
	tt := Type{Kind: KindUint, Bits: 8}
	v := Value{Type: tt, Int: big.NewInt(5)}
	c, err := PackCell(v)
	if err != nil {
		t.Fatalf("PackCell: %v", err)
	}
	// Unpacking as a narrower type leaves bits unconsumed.
	_, err = UnpackCell(Type{Kind: KindBool}, c)
	if err == nil {
		t.Fatalf("expected leftover-input error, got nil")
	}
}

func TestParseEventABI_DefaultEventID(t *testing.T) {
	abiJSON := []byte(`{"name":"TokensSwapBack","inputs":[{"name":"amount","type":"uint128"}]}`)
	ev, err := ParseEventABI(abiJSON)
	if err != nil {
		t.Fatalf("ParseEventABI: %v", err)
	}
	if ev.EventID != nil {
		t.Fatalf("expected no explicit event id")
	}
	if id := ev.ResolveEventID(); id&0x80000000 != 0 {
		t.Fatalf("default event id must be masked to 31 bits, got %x", id)
	}
}
