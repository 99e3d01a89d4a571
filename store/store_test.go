package store

import (
	"testing"
)

type sample struct {
	Amount uint64 `json:"amount"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Get(AssetList, "missing", &sample{}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	in := sample{Amount: 42}
	if err := s.Put(AssetList, "k1", in); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out sample
	if err := s.Get(AssetList, "k1", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Amount != 42 {
		t.Fatalf("got %d want 42", out.Amount)
	}

	if err := s.Delete(AssetList, "k1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Get(AssetList, "k1", &out); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestScanPrefix(t *testing.T) {
	s := newTestStore(t)

	keys := []string{"txid1:0", "txid1:1", "txid2:0"}
	for _, k := range keys {
		if err := s.Put(AssetList, k, sample{Amount: 1}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	var found []string
	err := s.ScanPrefix(AssetList, "txid1:", func(key string, value []byte) error {
		found = append(found, key)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 keys, got %d: %v", len(found), found)
	}
}

func TestWriteBatchAtomic(t *testing.T) {
	s := newTestStore(t)

	err := s.WriteBatch(func(b *Batch) error {
		if err := b.Put(AssetList, "a", sample{Amount: 1}); err != nil {
			return err
		}
		return b.Put(AssetList, "b", sample{Amount: 2})
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	var out sample
	if err := s.Get(AssetList, "a", &out); err != nil || out.Amount != 1 {
		t.Fatalf("a not committed: %v %+v", err, out)
	}
	if err := s.Get(AssetList, "b", &out); err != nil || out.Amount != 2 {
		t.Fatalf("b not committed: %v %+v", err, out)
	}
}
