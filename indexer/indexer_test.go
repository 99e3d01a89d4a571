package indexer

import (
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/store"
	"glittr.dev/core/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func opReturnTx(t *testing.T, msg *codec.OpReturnMessage, extraOutputs int) *wire.MsgTx {
	t.Helper()
	script, err := codec.IntoScript(msg)
	require.NoError(t, err)
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, script))
	for i := 0; i < extraOutputs; i++ {
		tx.AddTxOut(wire.NewTxOut(1000, []byte{txscript.OP_TRUE}))
	}
	return tx
}

func withPriorOutput(tx *wire.MsgTx, priorTxid string, vout uint32) *wire.MsgTx {
	h, _ := chainhash.NewHashFromStr(priorTxid)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(h, vout), nil, nil))
	return tx
}

func freeMintCreationMsg(cap uint64, amountPerMint uint64) *codec.OpReturnMessage {
	capV := types.FromUint64(cap)
	return &codec.OpReturnMessage{
		ContractCreation: &codec.ContractCreation{
			ContractType: contracts.ContractType{
				Moa: &contracts.MintOnlyAssetContract{
					Divisibility: 8,
					SupplyCap:    &capV,
					MintMechanism: contracts.MOAMintMechanisms{
						FreeMint: &contracts.FreeMint{
							SupplyCap:     &capV,
							AmountPerMint: types.FromUint64(amountPerMint),
						},
					},
				},
			},
		},
	}
}

func TestFreeMintTwiceAccrues(t *testing.T) {
	db := newTestStore(t)

	creationTx := opReturnTx(t, freeMintCreationMsg(1000, 100), 1)
	u1 := NewUpdater(db, false)
	outcome, err := u1.Index(1, 0, creationTx)
	require.NoError(t, err)
	require.Nil(t, outcome.Flaw)
	contractID := types.BlockTx{Block: 1, Tx: 0}

	pointer := uint32(1)
	mintMsg := &codec.OpReturnMessage{
		ContractCall: &codec.ContractCall{
			Contract: &contractID,
			CallType: codec.CallType{Mint: &codec.MintBurnOption{Pointer: &pointer}},
		},
	}

	mintTx1 := opReturnTx(t, mintMsg, 1)
	u2 := NewUpdater(db, false)
	outcome2, err := u2.Index(2, 0, mintTx1)
	require.NoError(t, err)
	require.Nil(t, outcome2.Flaw)

	mintTx2 := opReturnTx(t, mintMsg, 1)
	u3 := NewUpdater(db, false)
	outcome3, err := u3.Index(3, 0, mintTx2)
	require.NoError(t, err)
	require.Nil(t, outcome3.Flaw)

	data, err := u3.getAssetContractData(contractID)
	require.NoError(t, err)
	require.Equal(t, "200", data.MintedSupply.String())
}

func TestFreeMintSupplyCapTripwire(t *testing.T) {
	db := newTestStore(t)

	creationTx := opReturnTx(t, freeMintCreationMsg(150, 100), 1)
	u1 := NewUpdater(db, false)
	_, err := u1.Index(1, 0, creationTx)
	require.NoError(t, err)
	contractID := types.BlockTx{Block: 1, Tx: 0}

	pointer := uint32(1)
	mintMsg := &codec.OpReturnMessage{
		ContractCall: &codec.ContractCall{
			Contract: &contractID,
			CallType: codec.CallType{Mint: &codec.MintBurnOption{Pointer: &pointer}},
		},
	}

	mintTx1 := opReturnTx(t, mintMsg, 1)
	u2 := NewUpdater(db, false)
	outcome2, err := u2.Index(2, 0, mintTx1)
	require.NoError(t, err)
	require.Nil(t, outcome2.Flaw)

	mintTx2 := opReturnTx(t, mintMsg, 1)
	u3 := NewUpdater(db, false)
	outcome3, err := u3.Index(3, 0, mintTx2)
	require.NoError(t, err)
	require.NotNil(t, outcome3.Flaw)
	require.Equal(t, "supply_cap_exceeded", string(outcome3.Flaw.Kind))
}

func TestTransferOutputOverflow(t *testing.T) {
	db := newTestStore(t)

	creationTx := opReturnTx(t, freeMintCreationMsg(1000, 100), 1)
	u1 := NewUpdater(db, false)
	_, err := u1.Index(1, 0, creationTx)
	require.NoError(t, err)
	contractID := types.BlockTx{Block: 1, Tx: 0}

	pointer := uint32(1)
	mintMsg := &codec.OpReturnMessage{
		ContractCall: &codec.ContractCall{
			Contract: &contractID,
			CallType: codec.CallType{Mint: &codec.MintBurnOption{Pointer: &pointer}},
		},
	}
	mintTx := opReturnTx(t, mintMsg, 1)
	u2 := NewUpdater(db, false)
	_, err = u2.Index(2, 0, mintTx)
	require.NoError(t, err)

	mintTxid := mintTx.TxHash().String()

	transferMsg := &codec.OpReturnMessage{
		Transfer: &codec.Transfer{
			Transfers: []codec.TxTypeTransfer{
				{Asset: contractID, Output: 5, Amount: types.FromUint64(50)},
			},
		},
	}
	transferTx := opReturnTx(t, transferMsg, 1)
	transferTx = withPriorOutput(transferTx, mintTxid, 1)

	u3 := NewUpdater(db, false)
	outcome, err := u3.Index(3, 0, transferTx)
	require.NoError(t, err)
	require.NotNil(t, outcome.Flaw)
	require.Equal(t, "output_overflow", string(outcome.Flaw.Kind))
}

func TestAMMSwapConstantProduct(t *testing.T) {
	db := newTestStore(t)
	assetA := types.BlockTx{Block: 1, Tx: 0}
	assetB := types.BlockTx{Block: 1, Tx: 1}

	contractID := types.BlockTx{Block: 2, Tx: 0}
	u := NewUpdater(db, false)
	require.NoError(t, u.setPoolData(contractID, PoolData{
		Amounts: map[string]types.U128{
			assetA.String(): types.FromUint64(1000),
			assetB.String(): types.FromUint64(1000),
		},
		TotalSupply: types.FromUint64(1000),
	}))

	poolCt := contracts.ContractType{Mba: &contracts.MintBurnAssetContract{
		Divisibility: 8,
		MintMechanism: contracts.MBAMintMechanisms{
			Collateralized: &contracts.Collateralized{
				InputAssets: []contracts.InputAsset{{GlittrAsset: &assetA}, {GlittrAsset: &assetB}},
				MintStructure: contracts.MintStructure{
					Proportional: &contracts.ProportionalType{RatioModel: contracts.ConstantProduct},
				},
			},
		},
	}}
	require.NoError(t, u.setMessage(contractID, MessageDataOutcome{
		Message: &codec.OpReturnMessage{ContractCreation: &codec.ContractCreation{ContractType: poolCt}},
	}))

	pointer := uint32(1)
	swapMsg := &codec.OpReturnMessage{
		ContractCall: &codec.ContractCall{
			Contract: &contractID,
			CallType: codec.CallType{Swap: &codec.SwapOption{Pointer: pointer}},
		},
	}
	swapTx := opReturnTx(t, swapMsg, 1)

	u.bucket.unallocated.assetList.credit(assetA.String(), types.FromUint64(100))

	outcome, err := u.Index(3, 0, swapTx)
	require.NoError(t, err)
	require.Nil(t, outcome.Flaw)

	pool, err := u.getPoolData(contractID)
	require.NoError(t, err)
	// dy = 1000*100/(1000+100) = 90
	require.Equal(t, "1100", pool.Amounts[assetA.String()].String())
	require.Equal(t, "910", pool.Amounts[assetB.String()].String())
}

func TestBurnProportionalRedeemsShare(t *testing.T) {
	db := newTestStore(t)
	assetA := types.BlockTx{Block: 1, Tx: 0}
	assetB := types.BlockTx{Block: 1, Tx: 1}
	lpContractID := types.BlockTx{Block: 2, Tx: 0}

	u := NewUpdater(db, false)
	require.NoError(t, u.setPoolData(lpContractID, PoolData{
		Amounts: map[string]types.U128{
			assetA.String(): types.FromUint64(1000),
			assetB.String(): types.FromUint64(1000),
		},
		TotalSupply: types.FromUint64(1000),
	}))

	lpCt := contracts.ContractType{Mba: &contracts.MintBurnAssetContract{
		Divisibility: 8,
		MintMechanism: contracts.MBAMintMechanisms{
			Collateralized: &contracts.Collateralized{
				InputAssets: []contracts.InputAsset{{GlittrAsset: &assetA}, {GlittrAsset: &assetB}},
				MintStructure: contracts.MintStructure{
					Proportional: &contracts.ProportionalType{RatioModel: contracts.ConstantProduct},
				},
			},
		},
		BurnMechanism: contracts.BurnMechanism{ReturnCollateral: &contracts.ReturnCollateral{}},
	}}
	require.NoError(t, u.setMessage(lpContractID, MessageDataOutcome{
		Message: &codec.OpReturnMessage{ContractCreation: &codec.ContractCreation{ContractType: lpCt}},
	}))

	pointer := uint32(1)
	burnMsg := &codec.OpReturnMessage{
		ContractCall: &codec.ContractCall{
			Contract: &lpContractID,
			CallType: codec.CallType{Burn: &codec.MintBurnOption{Pointer: &pointer}},
		},
	}
	burnTx := opReturnTx(t, burnMsg, 1)

	// 100 of the pool's 1000 LP share, redeemable for a 10% pro-rata cut.
	u.bucket.unallocated.assetList.credit(lpContractID.String(), types.FromUint64(100))

	outcome, err := u.Index(3, 0, burnTx)
	require.NoError(t, err)
	require.Nil(t, outcome.Flaw)

	pool, err := u.getPoolData(lpContractID)
	require.NoError(t, err)
	require.Equal(t, "900", pool.Amounts[assetA.String()].String())
	require.Equal(t, "900", pool.Amounts[assetB.String()].String())
	require.Equal(t, "900", pool.TotalSupply.String())

	got, err := u.getAssetList(types.Outpoint{Txid: burnTx.TxHash().String(), Vout: pointer})
	require.NoError(t, err)
	require.Equal(t, "100", got.List[assetA.String()].String())
	require.Equal(t, "100", got.List[assetB.String()].String())
}

func preallocatedCreationMsg(cap uint64, addr string, allocation uint64, startBlock, endBlock uint64) *codec.OpReturnMessage {
	capV := types.FromUint64(cap)
	return &codec.OpReturnMessage{
		ContractCreation: &codec.ContractCreation{
			ContractType: contracts.ContractType{
				Moa: &contracts.MintOnlyAssetContract{
					Divisibility: 8,
					SupplyCap:    &capV,
					MintMechanism: contracts.MOAMintMechanisms{
						Preallocated: &contracts.Preallocated{
							Allocations: map[string]types.U128{addr: types.FromUint64(allocation)},
							VestingPlan: contracts.VestingPlan{
								Linear: &contracts.LinearVestingPlan{StartBlock: startBlock, EndBlock: endBlock},
							},
						},
					},
				},
			},
		},
	}
}

func TestPreallocatedVestingPartialThenFullClaim(t *testing.T) {
	db := newTestStore(t)
	addr := "beneficiary-pubkey"

	creationTx := opReturnTx(t, preallocatedCreationMsg(1000, addr, 1000, 10, 110), 1)
	u1 := NewUpdater(db, false)
	outcome, err := u1.Index(1, 0, creationTx)
	require.NoError(t, err)
	require.Nil(t, outcome.Flaw)
	contractID := types.BlockTx{Block: 1, Tx: 0}

	pointer := uint32(1)
	claimMsg := &codec.OpReturnMessage{
		ContractCall: &codec.ContractCall{
			Contract: &contractID,
			CallType: codec.CallType{Mint: &codec.MintBurnOption{
				Pointer:           &pointer,
				CommitmentMessage: &codec.CommitmentMessage{PublicKey: []byte(addr)},
			}},
		},
	}

	// Halfway through the vesting window: 50% of the 1000 allocation unlocked.
	claimTx1 := opReturnTx(t, claimMsg, 1)
	u2 := NewUpdater(db, false)
	outcome2, err := u2.Index(60, 0, claimTx1)
	require.NoError(t, err)
	require.Nil(t, outcome2.Flaw)

	vesting, err := u2.getVestingContractData(contractID)
	require.NoError(t, err)
	require.Equal(t, "500", vesting.ClaimedAllocations[addr].String())

	// Past the end of the window: the remaining 500 becomes claimable.
	claimTx2 := opReturnTx(t, claimMsg, 1)
	u3 := NewUpdater(db, false)
	outcome3, err := u3.Index(200, 0, claimTx2)
	require.NoError(t, err)
	require.Nil(t, outcome3.Flaw)

	vesting, err = u3.getVestingContractData(contractID)
	require.NoError(t, err)
	require.Equal(t, "1000", vesting.ClaimedAllocations[addr].String())

	// Nothing left to claim: a third attempt at the same block fails.
	claimTx3 := opReturnTx(t, claimMsg, 1)
	u4 := NewUpdater(db, false)
	outcome4, err := u4.Index(200, 0, claimTx3)
	require.NoError(t, err)
	require.NotNil(t, outcome4.Flaw)
}

func TestMintPurchaseOracleStaleMessageRejected(t *testing.T) {
	db := newTestStore(t)

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubkey := schnorr.SerializePubKey(priv.PubKey())

	purchaseCt := contracts.ContractType{Moa: &contracts.MintOnlyAssetContract{
		Divisibility: 8,
		MintMechanism: contracts.MOAMintMechanisms{
			Purchase: &contracts.Purchase{
				InputAsset:     contracts.InputAsset{RawBTC: true},
				TransferScheme: contracts.TransferScheme{Burn: true},
				TransferRatioType: contracts.TransferRatioType{
					Oracle: &contracts.OracleRatio{
						Pubkey:  pubkey,
						Setting: contracts.OracleSetting{Pubkey: pubkey, MaxStaleness: uint64Ptr(5)},
					},
				},
			},
		},
	}}
	contractID := types.BlockTx{Block: 1, Tx: 0}
	u := NewUpdater(db, false)
	require.NoError(t, u.setMessage(contractID, MessageDataOutcome{
		Message: &codec.OpReturnMessage{ContractCreation: &codec.ContractCreation{ContractType: purchaseCt}},
	}))

	outVal := types.FromUint64(500)
	oracleMsg := codec.OracleMessage{OutValue: &outVal, BlockHeight: 1}
	encoded, err := json.Marshal(oracleMsg)
	require.NoError(t, err)
	digest := sha256.Sum256(encoded)
	sig, err := schnorr.Sign(priv, digest[:])
	require.NoError(t, err)

	pointer := uint32(1)
	mintMsg := &codec.OpReturnMessage{
		ContractCall: &codec.ContractCall{
			Contract: &contractID,
			CallType: codec.CallType{Mint: &codec.MintBurnOption{
				Pointer:       &pointer,
				OracleMessage: &codec.OracleMessageSigned{Signature: sig.Serialize(), Message: oracleMsg},
			}},
		},
	}
	mintTx := opReturnTx(t, mintMsg, 1)

	// Signed at block 1; called at block 50 with a max_staleness of 5.
	outcome, err := u.Index(50, 0, mintTx)
	require.NoError(t, err)
	require.NotNil(t, outcome.Flaw)
	require.Equal(t, "oracle_mint_stale", string(outcome.Flaw.Kind))
}

func uint64Ptr(v uint64) *uint64 { return &v }
