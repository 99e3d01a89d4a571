package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/indexer"
	"glittr.dev/core/store"
	"glittr.dev/core/types"
)

type fakeRPC struct{ tip int64 }

func (f *fakeRPC) BlockCount() (int64, error)                        { return f.tip, nil }
func (f *fakeRPC) BlockHash(height int64) (*chainhash.Hash, error)    { return &chainhash.Hash{}, nil }
func (f *fakeRPC) Block(h *chainhash.Hash) (*wire.MsgBlock, error)    { return wire.NewMsgBlock(wire.NewBlockHeader(0, &chainhash.Hash{}, &chainhash.Hash{}, 0, 0)), nil }
func (f *fakeRPC) Shutdown()                                         {}

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	driver := indexer.NewDriver(db, &fakeRPC{tip: 10})
	return New("127.0.0.1:0", driver), db
}

func TestHealthRoute(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestTxResultNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/tx/deadbeef", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlockTxRouteAfterFreeMintCreation(t *testing.T) {
	s, db := newTestServer(t)

	capV := types.FromUint64(1000)
	creationMsg := &codec.OpReturnMessage{
		ContractCreation: &codec.ContractCreation{
			ContractType: contracts.ContractType{
				Moa: &contracts.MintOnlyAssetContract{
					Divisibility: 8,
					SupplyCap:    &capV,
					MintMechanism: contracts.MOAMintMechanisms{
						FreeMint: &contracts.FreeMint{SupplyCap: &capV, AmountPerMint: types.FromUint64(100)},
					},
				},
			},
		},
	}
	script, err := codec.IntoScript(creationMsg)
	require.NoError(t, err)
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, script))
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))

	u := indexer.NewUpdater(db, false)
	outcome, err := u.Index(1, 0, tx)
	require.NoError(t, err)
	require.Nil(t, outcome.Flaw)

	req := httptest.NewRequest(http.MethodGet, "/blocktx/1/0", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateTxInvalidHex(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/validate-tx", strings.NewReader("not-hex"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "\"is_valid\":false")
}
