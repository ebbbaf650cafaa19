// Package tontransport defines the relay's T-chain transport boundary:
// subscribing to an account's transaction stream, reading current logical
// time, and sending signed external messages. The wire-level GraphQL/native
// node client is out of scope (spec section 1); this package specifies the
// interface the registry, handlers, and submitter depend on, grounded on
// the Transport trait of the original implementation's relay-ton crate.
package tontransport

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Address identifies a T-chain account (workchain id + 32-byte account id).
type Address struct {
	Workchain int8
	AccountID [32]byte
}

// String renders addr in the "<workchain>:<hex account id>" form used
// throughout the config file and HTTP control surface.
func (a Address) String() string {
	return fmt.Sprintf("%d:%s", a.Workchain, hex.EncodeToString(a.AccountID[:]))
}

// ParseAddress parses the "<workchain>:<hex account id>" form.
func ParseAddress(raw string) (Address, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return Address{}, fmt.Errorf("tontransport: malformed address %q", raw)
	}
	wc, err := strconv.ParseInt(parts[0], 10, 8)
	if err != nil {
		return Address{}, fmt.Errorf("tontransport: malformed workchain in %q: %w", raw, err)
	}
	id, err := hex.DecodeString(strings.TrimPrefix(parts[1], "0x"))
	if err != nil {
		return Address{}, fmt.Errorf("tontransport: malformed account id in %q: %w", raw, err)
	}
	if len(id) > 32 {
		return Address{}, fmt.Errorf("tontransport: account id in %q exceeds 32 bytes", raw)
	}
	var addr Address
	addr.Workchain = int8(wc)
	copy(addr.AccountID[32-len(id):], id)
	return addr, nil
}

// Message is an inbound transaction body observed on a subscribed account.
type Message struct {
	Body        []byte // cell-encoded body
	TxHash      [32]byte
	LT          uint64
	Timestamp   uint32
	EventIndex  uint32
}

// ReceivedVote mirrors a vote as observed from T-chain state (spec section
// 3): distinct from the relay's own PendingVote. No component of the relay
// builds or reads it, and startup does not reconcile against it.
type ReceivedVote struct {
	ConfigurationID uint64
	EventAddr       Address
	Relay           Address
	Kind            string // "confirm" | "reject"
	AdditionalData  []byte
	Status          string // "in_process" | "confirmed" | "rejected"
}

// OutboundMessage is an external message the submitter sends to a
// configuration contract's confirm/reject method.
type OutboundMessage struct {
	Dest     Address
	Method   string // "confirm" | "reject"
	Body     []byte // flat big-endian vote payload (pkg/submitter body.go)
	ExpireAt uint32
}

// SendResult reports how an outbound message landed.
type SendResult struct {
	Landed  bool
	Success bool
	Expired bool
}

// ConfigurationDetails is the result of a configuration contract's
// getDetails call (spec section 4.4 step 1).
type ConfigurationDetails struct {
	Kind                   string // "eth_to_ton" | "ton_to_eth"
	BridgeAddress          Address
	EventABI               []byte // raw JSON
	RequiredConfirmations  uint16
	RequiredRejects        uint16
	EventInitialBalance    uint64
	EventCode              []byte
	EventAddrOnE           []byte // 20-byte E-chain address, E→T only
	ProxyAddrOnT           Address
	BlocksToConfirm        uint64
	StartBlock             uint64
	EventAddrOnT           Address // T→E only
	ProxyAddrOnE           []byte
	StartTimestamp         uint32
}

// Transport is the T-chain read/write surface shared by the registry,
// handlers, and submitter.
type Transport interface {
	// CurrentLT returns the current logical time of the given account.
	CurrentLT(ctx context.Context, addr Address) (uint64, error)

	// GetConfigurationDetails issues a getDetails call against a
	// configuration contract.
	GetConfigurationDetails(ctx context.Context, addr Address) (ConfigurationDetails, error)

	// SubscribeMessages streams inbound messages for addr's account from
	// sinceLT onward. Cancelling ctx stops the stream.
	SubscribeMessages(ctx context.Context, addr Address, sinceLT uint64) (<-chan Message, error)

	// SendMessage submits a signed external message and blocks until it
	// lands or expires.
	SendMessage(ctx context.Context, msg OutboundMessage, signature [64]byte) (SendResult, error)
}
