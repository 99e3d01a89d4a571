package codec

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glittr.dev/core/contracts"
	"glittr.dev/core/types"
)

func dummyTx(t *testing.T, msg *OpReturnMessage) *wire.MsgTx {
	t.Helper()
	script, err := IntoScript(msg)
	require.NoError(t, err)
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, script))
	return tx
}

func TestParseTxRoundTrip(t *testing.T) {
	cap1000 := types.FromUint64(1000)
	msg := &OpReturnMessage{
		ContractCreation: &ContractCreation{
			ContractType: contracts.ContractType{
				Moa: &contracts.MintOnlyAssetContract{
					SupplyCap:    &cap1000,
					Divisibility: 18,
					MintMechanism: contracts.MOAMintMechanisms{
						FreeMint: &contracts.FreeMint{
							SupplyCap:     &cap1000,
							AmountPerMint: types.FromUint64(10),
						},
					},
				},
			},
		},
	}

	tx := dummyTx(t, msg)
	parsed, flaw := ParseTx(tx)
	require.Nil(t, flaw)
	require.NotNil(t, parsed.ContractCreation)
	require.NotNil(t, parsed.ContractCreation.ContractType.Moa)
	moa := parsed.ContractCreation.ContractType.Moa
	assert.Equal(t, uint8(18), moa.Divisibility)
	assert.Equal(t, "1000", moa.SupplyCap.String())
	assert.Equal(t, "10", moa.MintMechanism.FreeMint.AmountPerMint.String())
}

func TestParseTxNoOpReturn(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, []byte{txscript.OP_DUP, txscript.OP_HASH160}))
	_, f := ParseTx(tx)
	require.NotNil(t, f)
	assert.Equal(t, "non_glittr_message", string(f.Kind))
}

func TestParseTxWrongMagic(t *testing.T) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_RETURN)
	builder.AddData([]byte("NOTGLITTR"))
	builder.AddData([]byte(`{"transfer":{"transfers":[]}}`))
	script, err := builder.Script()
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, script))
	_, f := ParseTx(tx)
	require.NotNil(t, f)
	assert.Equal(t, "non_glittr_message", string(f.Kind))
}

func TestParseTxInvalidInstruction(t *testing.T) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_RETURN)
	builder.AddData([]byte(MagicPrefix))
	builder.AddOp(txscript.OP_CHECKSIG)
	script, err := builder.Script()
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, script))
	_, f := ParseTx(tx)
	require.NotNil(t, f)
	assert.Equal(t, "invalid_instruction", string(f.Kind))
}

func TestParseTxTransferMessage(t *testing.T) {
	msg := &OpReturnMessage{
		Transfer: &Transfer{
			Transfers: []TxTypeTransfer{
				{Asset: types.BlockTx{Block: 100, Tx: 2}, Output: 0, Amount: types.FromUint64(50)},
			},
		},
	}
	tx := dummyTx(t, msg)
	parsed, f := ParseTx(tx)
	require.Nil(t, f)
	require.NotNil(t, parsed.Transfer)
	assert.Len(t, parsed.Transfer.Transfers, 1)
	assert.Equal(t, uint64(100), parsed.Transfer.Transfers[0].Asset.Block)
}

func TestCallTypeJSONRoundTrip(t *testing.T) {
	p := uint32(3)
	ct := CallType{Mint: &MintBurnOption{Pointer: &p}}
	data, err := ct.MarshalJSON()
	require.NoError(t, err)

	var back CallType
	require.NoError(t, back.UnmarshalJSON(data))
	require.NotNil(t, back.Mint)
	assert.Equal(t, uint32(3), *back.Mint.Pointer)
}
