// Package ethtransport defines the relay's E-chain transport boundary: log
// filtering and the small amount of chain-head bookkeeping the E→T handler
// needs. The wire-level JSON-RPC/WebSocket client is out of scope (spec
// section 1); this package specifies the interface and a
// go-ethereum-backed implementation.
package ethtransport

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Log is the subset of an E-chain log the handler needs, independent of
// go-ethereum's wire representation.
type Log struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	TxHash      common.Hash
	LogIndex    uint32
	BlockNumber uint64
	BlockHash   common.Hash
}

// Transport is the E-chain read surface the E→T handler depends on.
type Transport interface {
	// LatestBlock returns the current chain head height.
	LatestBlock(ctx context.Context) (uint64, error)
	// FilterLogs returns logs from address matching topic0 within
	// [fromBlock, toBlock] inclusive.
	FilterLogs(ctx context.Context, address common.Address, topic0 common.Hash, fromBlock, toBlock uint64) ([]Log, error)
}

// Client adapts go-ethereum's ethclient to Transport: the E→T handler's
// read-only log watcher. Every vote this relay casts, in either direction,
// is an external message addressed to T-chain (spec section 1 items 2-3),
// so this client has no write path.
type Client struct {
	eth *ethclient.Client
}

// Dial connects to an E-chain JSON-RPC/WebSocket endpoint.
func Dial(ctx context.Context, rawurl string) (*Client, error) {
	c, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return &Client{eth: c}, nil
}

func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

func (c *Client) FilterLogs(ctx context.Context, address common.Address, topic0 common.Hash, fromBlock, toBlock uint64) ([]Log, error) {
	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{address},
		Topics:    [][]common.Hash{{topic0}},
	}
	raw, err := c.eth.FilterLogs(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]Log, len(raw))
	for i, l := range raw {
		out[i] = fromEthLog(l)
	}
	return out, nil
}

func fromEthLog(l types.Log) Log {
	return Log{
		Address:     l.Address,
		Topics:      l.Topics,
		Data:        l.Data,
		TxHash:      l.TxHash,
		LogIndex:    uint32(l.Index),
		BlockNumber: l.BlockNumber,
		BlockHash:   l.BlockHash,
	}
}
