// Package store implements the namespaced key-value abstraction the core
// consumes: point get/put/delete and prefix scan, backed by bbolt. Each
// namespace named in spec.md §4.2 gets its own bucket (the teacher's
// bucket-per-kind convention in node/store/db.go), rather than the
// original RocksDB-backed "prefix:key" single keyspace -- bbolt buckets
// give the same prefix-scan behavior natively and for free.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Namespace identifies a bucket. The set mirrors spec.md §4.2's prefix
// list exactly.
type Namespace string

const (
	Message             Namespace = "message"
	TxToBlockTx          Namespace = "tx_to_blocktx"
	TickerToBlockTx      Namespace = "ticker_to_blocktx"
	AssetList            Namespace = "asset_list"
	AssetContractData    Namespace = "asset_contract_data"
	VestingContractData  Namespace = "vesting_contract_data"
	CollateralAccount    Namespace = "collateral_account"
	PoolData             Namespace = "pool_data"
	StateKey             Namespace = "state_key"
	SpecContractOwned    Namespace = "spec_contract_owned"
	LastBlock            Namespace = "last_block"
)

var allNamespaces = []Namespace{
	Message, TxToBlockTx, TickerToBlockTx, AssetList, AssetContractData,
	VestingContractData, CollateralAccount, PoolData, StateKey,
	SpecContractOwned, LastBlock,
}

var ErrNotFound = errors.New("store: not found")

// Store is the embedded KV handle. All methods are safe for concurrent
// use; bbolt serializes writers internally and allows concurrent
// readers via its own MVCC snapshot, so Store needs no additional lock.
type Store struct {
	db *bolt.DB
}

func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("store: data dir required")
	}
	path := filepath.Join(dataDir, "glittr.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, ns := range allNamespaces {
			if _, err := tx.CreateBucketIfNotExists([]byte(ns)); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", ns, err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores v JSON-encoded under key in namespace ns.
func (s *Store) Put(ns Namespace, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal %s:%s: %w", ns, key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return fmt.Errorf("store: unknown namespace %s", ns)
		}
		return b.Put([]byte(key), data)
	})
}

// Get decodes the value stored under key in namespace ns into out.
// Returns ErrNotFound if absent.
func (s *Store) Get(ns Namespace, key string, out any) error {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return fmt.Errorf("store: unknown namespace %s", ns)
		}
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("store: unmarshal %s:%s: %w", ns, key, err)
	}
	return nil
}

func (s *Store) Delete(ns Namespace, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return fmt.Errorf("store: unknown namespace %s", ns)
		}
		return b.Delete([]byte(key))
	})
}

// ScanPrefix iterates every key beginning with prefix in namespace ns,
// calling fn(key, rawValue) for each. fn must not retain the byte slices.
func (s *Store) ScanPrefix(ns Namespace, prefix string, fn func(key string, value []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return fmt.Errorf("store: unknown namespace %s", ns)
		}
		c := b.Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			if err := fn(string(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteBatch runs fn inside a single bbolt read-write transaction, so
// every Put/Delete issued against tx commits atomically together -- the
// all-or-nothing property spec.md §5 asks implementers to give a single
// indexed transaction's writes.
func (s *Store) WriteBatch(fn func(b *Batch) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Batch{tx: tx})
	})
}

// Batch is the write surface handed to WriteBatch's callback.
type Batch struct {
	tx *bolt.Tx
}

func (b *Batch) Put(ns Namespace, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal %s:%s: %w", ns, key, err)
	}
	bucket := b.tx.Bucket([]byte(ns))
	if bucket == nil {
		return fmt.Errorf("store: unknown namespace %s", ns)
	}
	return bucket.Put([]byte(key), data)
}

func (b *Batch) Delete(ns Namespace, key string) error {
	bucket := b.tx.Bucket([]byte(ns))
	if bucket == nil {
		return fmt.Errorf("store: unknown namespace %s", ns)
	}
	return bucket.Delete([]byte(key))
}

func (b *Batch) Get(ns Namespace, key string, out any) error {
	bucket := b.tx.Bucket([]byte(ns))
	if bucket == nil {
		return fmt.Errorf("store: unknown namespace %s", ns)
	}
	v := bucket.Get([]byte(key))
	if v == nil {
		return ErrNotFound
	}
	if err := json.Unmarshal(v, out); err != nil {
		return fmt.Errorf("store: unmarshal %s:%s: %w", ns, key, err)
	}
	return nil
}
