// Package rpcclient wraps btcd/rpcclient with the narrow surface the
// Index Driver needs to walk the host chain: block count, block hash by
// height, and full block fetch by hash.
package rpcclient

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
)

// Client is the interface the indexer depends on, so tests can substitute
// a fake without talking to a real node.
type Client interface {
	BlockCount() (int64, error)
	BlockHash(height int64) (*chainhash.Hash, error)
	Block(hash *chainhash.Hash) (*wire.MsgBlock, error)
	Shutdown()
}

// btcdClient adapts github.com/btcsuite/btcd/rpcclient to Client.
type btcdClient struct {
	rpc *rpcclient.Client
}

// Config names the connection details for a host-chain full node's RPC
// endpoint (spec.md's "UTXO blockchain" data source).
type Config struct {
	Host         string
	User         string
	Pass         string
	DisableTLS   bool
	HTTPPostMode bool
	// Timeout is carried here, but New does not pass it to the btcd
	// client, so calls are not bounded by it.
	Timeout time.Duration
}

func New(cfg Config) (Client, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		DisableTLS:   cfg.DisableTLS,
		HTTPPostMode: cfg.HTTPPostMode,
	}
	rpc, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: dial %s: %w", cfg.Host, err)
	}
	return &btcdClient{rpc: rpc}, nil
}

func (c *btcdClient) BlockCount() (int64, error) {
	return c.rpc.GetBlockCount()
}

func (c *btcdClient) BlockHash(height int64) (*chainhash.Hash, error) {
	return c.rpc.GetBlockHash(height)
}

func (c *btcdClient) Block(hash *chainhash.Hash) (*wire.MsgBlock, error) {
	return c.rpc.GetBlock(hash)
}

func (c *btcdClient) Shutdown() {
	c.rpc.Shutdown()
}
