package indexer

import (
	"errors"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"

	"glittr.dev/core/rpcclient"
	"glittr.dev/core/store"
)

// lastBlockKey is the single row in the LastBlock namespace recording
// how far the driver has indexed.
const lastBlockKey = "tip"

// Driver walks the host chain block by block, feeding every transaction
// through an Updater and advancing the persisted watermark once the
// whole block commits (spec.md §5's crash-consistency requirement: a
// restart resumes at the last fully-committed block, never a partial
// one).
type Driver struct {
	store  *store.Store
	client rpcclient.Client

	// tickerBloom holds every registered ticker: rebuilt from
	// TickerToBlockTx on startup and kept current as new tickers register
	// through the driver. MightHaveTicker exposes it; neither the
	// /blocktx/ticker route nor the creation-time collision check
	// consults it, both read the store directly.
	tickerBloom *bloom.BloomFilter

	pollInterval time.Duration
}

func NewDriver(db *store.Store, client rpcclient.Client) *Driver {
	return &Driver{
		store:        db,
		client:       client,
		tickerBloom:  bloom.NewWithEstimates(1_000_000, 0.001),
		pollInterval: 5 * time.Second,
	}
}

// WarmTickerBloom scans every registered ticker into the bloom filter.
// Called once at startup; ScanPrefix with an empty prefix visits every
// key in the namespace.
func (d *Driver) WarmTickerBloom() error {
	return d.store.ScanPrefix(store.TickerToBlockTx, "", func(key string, _ []byte) error {
		d.tickerBloom.AddString(key)
		return nil
	})
}

// MightHaveTicker is a false-positive-only pre-check: false means the
// ticker is definitely unregistered, true means "check the store".
func (d *Driver) MightHaveTicker(ticker string) bool {
	return d.tickerBloom.TestString(ticker)
}

// Store exposes the driver's underlying store so the API package can
// build read-only Updaters for its query routes.
func (d *Driver) Store() *store.Store {
	return d.store
}

// Client exposes the driver's RPC client for the API's /validate-tx
// current-tip lookup.
func (d *Driver) Client() rpcclient.Client {
	return d.client
}

func (d *Driver) lastIndexedHeight() (uint64, error) {
	var height uint64
	err := d.store.Get(store.LastBlock, lastBlockKey, &height)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	return height, err
}

func (d *Driver) setLastIndexedHeight(height uint64) error {
	return d.store.Put(store.LastBlock, lastBlockKey, height)
}

// Run drives the main indexing loop until ctx-like cancellation (a
// stop channel) fires, retrying transient RPC failures rather than
// crashing the process. The retry delay starts at pollInterval, doubles
// after each consecutive failure up to maxRetryBackoff, and resets after
// a success.
func (d *Driver) Run(stop <-chan struct{}) error {
	const maxRetryBackoff = 5 * time.Minute
	backoff := d.pollInterval
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		advanced, err := d.tryAdvance()
		if err != nil {
			logrus.WithError(err).WithField("backoff", backoff).Warn("indexer: block fetch failed, retrying")
			time.Sleep(backoff)
			if backoff < maxRetryBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = d.pollInterval
		if !advanced {
			time.Sleep(d.pollInterval)
		}
	}
}

// tryAdvance indexes exactly one block past the current watermark, if
// the host chain has one ready. Returns false (no error) when already
// caught up to the chain tip.
func (d *Driver) tryAdvance() (bool, error) {
	tipHeight, err := d.client.BlockCount()
	if err != nil {
		return false, fmt.Errorf("driver: get block count: %w", err)
	}

	last, err := d.lastIndexedHeight()
	if err != nil {
		return false, fmt.Errorf("driver: read watermark: %w", err)
	}

	next := last + 1
	if int64(next) > tipHeight {
		return false, nil
	}

	hash, err := d.client.BlockHash(int64(next))
	if err != nil {
		return false, fmt.Errorf("driver: get block hash %d: %w", next, err)
	}
	block, err := d.client.Block(hash)
	if err != nil {
		return false, fmt.Errorf("driver: get block %d: %w", next, err)
	}

	updater := NewUpdater(d.store, false)
	for i, tx := range block.Transactions {
		outcome, err := updater.Index(next, uint32(i), tx)
		if err != nil {
			return false, fmt.Errorf("driver: index tx %d of block %d: %w", i, next, err)
		}
		if outcome.Message != nil && outcome.Message.ContractCreation != nil {
			if ticker := tickerOf(outcome.Message.ContractCreation.ContractType); ticker != nil && outcome.Flaw == nil {
				d.tickerBloom.AddString(*ticker)
			}
		}
	}

	if err := d.setLastIndexedHeight(next); err != nil {
		return false, fmt.Errorf("driver: persist watermark %d: %w", next, err)
	}
	return true, nil
}

// Simulate runs tx through a read-only Updater seeded with the driver's
// current committed state, discarding every write -- the /validate-tx
// endpoint's simulation mode (spec.md §6).
func (d *Driver) Simulate(height uint64, tx *wire.MsgTx) (MessageDataOutcome, error) {
	updater := NewUpdater(d.store, true)
	return updater.Index(height, 0, tx)
}
