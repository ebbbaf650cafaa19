package tontransport

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tonbridge/relay/pkg/cell"
)

// detailsWire is the JSON shape carried inside the single cell a
// configuration contract's getDetails get-method returns. Nothing in the
// retrieved corpus specifies a TL-B schema for this call, so — consistent
// with pkg/relay's bridgeNotice convention — the wire format here is one
// snake-encoded cell holding a JSON object, rather than a hand-rolled
// binary layout.
type detailsWire struct {
	Kind                  string `json:"kind"`
	BridgeAddress         string `json:"bridge_address"`
	EventABI              string `json:"event_abi"` // base64
	RequiredConfirmations uint16 `json:"required_confirmations"`
	RequiredRejects       uint16 `json:"required_rejects"`
	EventInitialBalance   uint64 `json:"event_initial_balance"`
	EventCode             string `json:"event_code"` // base64
	EventAddrOnE          string `json:"event_addr_on_e,omitempty"`
	ProxyAddrOnT          string `json:"proxy_addr_on_t,omitempty"`
	BlocksToConfirm       uint64 `json:"blocks_to_confirm,omitempty"`
	StartBlock            uint64 `json:"start_block,omitempty"`
	EventAddrOnT          string `json:"event_addr_on_t,omitempty"`
	ProxyAddrOnE          string `json:"proxy_addr_on_e,omitempty"`
	StartTimestamp        uint32 `json:"start_timestamp,omitempty"`
}

func decodeConfigurationDetails(stack [][2]interface{}) (ConfigurationDetails, error) {
	if len(stack) == 0 {
		return ConfigurationDetails{}, fmt.Errorf("tontransport: getDetails returned an empty stack")
	}
	raw, err := stackCellBytes(stack[0])
	if err != nil {
		return ConfigurationDetails{}, err
	}
	c, err := cell.Deserialize(raw)
	if err != nil {
		return ConfigurationDetails{}, fmt.Errorf("tontransport: deserialize details cell: %w", err)
	}
	body, err := cell.LoadBytesSnake(c.BeginParse())
	if err != nil {
		return ConfigurationDetails{}, fmt.Errorf("tontransport: unpack details cell: %w", err)
	}
	var w detailsWire
	if err := json.Unmarshal(body, &w); err != nil {
		return ConfigurationDetails{}, fmt.Errorf("tontransport: decode details json: %w", err)
	}
	return w.toDetails()
}

func (w detailsWire) toDetails() (ConfigurationDetails, error) {
	abiBytes, err := base64.StdEncoding.DecodeString(w.EventABI)
	if err != nil {
		return ConfigurationDetails{}, fmt.Errorf("tontransport: decode event_abi: %w", err)
	}
	codeBytes, err := base64.StdEncoding.DecodeString(w.EventCode)
	if err != nil {
		return ConfigurationDetails{}, fmt.Errorf("tontransport: decode event_code: %w", err)
	}
	bridgeAddr, err := ParseAddress(w.BridgeAddress)
	if err != nil {
		return ConfigurationDetails{}, fmt.Errorf("tontransport: decode bridge_address: %w", err)
	}
	details := ConfigurationDetails{
		Kind:                  w.Kind,
		BridgeAddress:         bridgeAddr,
		EventABI:              abiBytes,
		RequiredConfirmations: w.RequiredConfirmations,
		RequiredRejects:       w.RequiredRejects,
		EventInitialBalance:   w.EventInitialBalance,
		EventCode:             codeBytes,
		BlocksToConfirm:       w.BlocksToConfirm,
		StartBlock:            w.StartBlock,
		StartTimestamp:        w.StartTimestamp,
	}
	if w.EventAddrOnE != "" {
		b, err := hex.DecodeString(w.EventAddrOnE)
		if err != nil {
			return ConfigurationDetails{}, fmt.Errorf("tontransport: decode event_addr_on_e: %w", err)
		}
		details.EventAddrOnE = b
	}
	if w.ProxyAddrOnE != "" {
		b, err := hex.DecodeString(w.ProxyAddrOnE)
		if err != nil {
			return ConfigurationDetails{}, fmt.Errorf("tontransport: decode proxy_addr_on_e: %w", err)
		}
		details.ProxyAddrOnE = b
	}
	if w.ProxyAddrOnT != "" {
		addr, err := ParseAddress(w.ProxyAddrOnT)
		if err != nil {
			return ConfigurationDetails{}, fmt.Errorf("tontransport: decode proxy_addr_on_t: %w", err)
		}
		details.ProxyAddrOnT = addr
	}
	if w.EventAddrOnT != "" {
		addr, err := ParseAddress(w.EventAddrOnT)
		if err != nil {
			return ConfigurationDetails{}, fmt.Errorf("tontransport: decode event_addr_on_t: %w", err)
		}
		details.EventAddrOnT = addr
	}
	return details, nil
}

// stackCellBytes extracts the raw BOC bytes from a toncenter-style
// ["cell", {"bytes": "<base64>"}] stack entry.
func stackCellBytes(item [2]interface{}) ([]byte, error) {
	kind, _ := item[0].(string)
	if kind != "cell" {
		return nil, fmt.Errorf("tontransport: expected a cell stack entry, got %q", kind)
	}
	switch v := item[1].(type) {
	case map[string]interface{}:
		b, _ := v["bytes"].(string)
		return base64.StdEncoding.DecodeString(b)
	case string:
		return base64.StdEncoding.DecodeString(v)
	default:
		return nil, fmt.Errorf("tontransport: unrecognized cell stack entry shape")
	}
}

// signedMessageBOC builds the external message cell carrying msg's
// destination method, vote body, and the relay's signature, then serializes
// it with cell.Serialize (this repository's own cell framing, not a
// bag-of-cells) for sendBoc.
func signedMessageBOC(msg OutboundMessage, signature [64]byte) []byte {
	bld := cell.NewBuilder()
	methodTag := uint64(0)
	if msg.Method == "reject" {
		methodTag = 1
	}
	_ = bld.StoreUint(methodTag, 8)
	_ = bld.StoreBytes(signature[:])
	_ = cell.StoreBytesSnake(bld, msg.Body)
	c, err := bld.Build()
	if err != nil {
		// A malformed builder state here means msg.Body exceeds what a
		// snake chain can hold for the builder's ref budget; sendBoc
		// will reject an empty payload rather than silently drop data.
		return nil
	}
	return cell.Serialize(c)
}
