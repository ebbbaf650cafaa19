package tontoeth

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/tonbridge/relay/pkg/store"
)

// signaturePayload builds the ABI-encoded tuple the E-signer signs over
// (spec section 4.6 step 4): (uint event_transaction, uint64
// event_transaction_lt, uint32 event_timestamp, uint32 event_index, bytes
// event_data, int8 wid, uint event_cfg_addr, uint16 required_confirmations,
// uint16 required_rejects, address proxy_address). Mirrors the recover side
// in pkg/ethsigner's invariant 4 ("ecdsa_recover(S.signature, payload(S.data))
// == relay_eth_address"): any verifier reproduces this same byte string from
// the landed vote to check the signature.
func (h *Handler) signaturePayload(d store.TonEventVoteData) ([]byte, error) {
	uint256Ty, err := ethabi.NewType("uint256", "", nil)
	if err != nil {
		return nil, err
	}
	uint64Ty, err := ethabi.NewType("uint64", "", nil)
	if err != nil {
		return nil, err
	}
	uint32Ty, err := ethabi.NewType("uint32", "", nil)
	if err != nil {
		return nil, err
	}
	bytesTy, err := ethabi.NewType("bytes", "", nil)
	if err != nil {
		return nil, err
	}
	int8Ty, err := ethabi.NewType("int8", "", nil)
	if err != nil {
		return nil, err
	}
	uint16Ty, err := ethabi.NewType("uint16", "", nil)
	if err != nil {
		return nil, err
	}
	addressTy, err := ethabi.NewType("address", "", nil)
	if err != nil {
		return nil, err
	}

	args := ethabi.Arguments{
		{Type: uint256Ty},
		{Type: uint64Ty},
		{Type: uint32Ty},
		{Type: uint32Ty},
		{Type: bytesTy},
		{Type: int8Ty},
		{Type: uint256Ty},
		{Type: uint16Ty},
		{Type: uint16Ty},
		{Type: addressTy},
	}

	eventTx := new(big.Int).SetBytes(d.EventTransaction[:])
	cfgAddr := new(big.Int).SetBytes(h.cfg.EventCfgAddr.AccountID[:])

	return args.Pack(
		eventTx,
		d.EventTransactionLT,
		d.EventTimestamp,
		d.EventIndex,
		d.EventData,
		h.cfg.EventCfgAddr.Workchain,
		cfgAddr,
		h.cfg.RequiredConfirmations,
		h.cfg.RequiredRejects,
		h.cfg.ProxyAddrOnE,
	)
}
