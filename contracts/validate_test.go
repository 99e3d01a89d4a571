package contracts

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"glittr.dev/core/flaw"
	"glittr.dev/core/types"
)

func cap100() *types.U128 {
	v := types.FromUint64(100)
	return &v
}

func TestValidateMOAFreeMintOK(t *testing.T) {
	ct := ContractType{Moa: &MintOnlyAssetContract{
		Divisibility: 8,
		SupplyCap:    cap100(),
		MintMechanism: MOAMintMechanisms{
			FreeMint: &FreeMint{SupplyCap: cap100(), AmountPerMint: types.FromUint64(10)},
		},
	}}
	assert.Nil(t, ValidateContractType(ct))
}

func TestValidateMOADivisibilityTooHigh(t *testing.T) {
	ct := ContractType{Moa: &MintOnlyAssetContract{
		Divisibility: 19,
		MintMechanism: MOAMintMechanisms{
			FreeMint: &FreeMint{AmountPerMint: types.FromUint64(10)},
		},
	}}
	f := ValidateContractType(ct)
	assert.NotNil(t, f)
	assert.Equal(t, flaw.MessageInvalid, f.Kind)
}

func TestValidateFreeMintZeroAmount(t *testing.T) {
	ct := ContractType{Moa: &MintOnlyAssetContract{
		Divisibility: 8,
		MintMechanism: MOAMintMechanisms{
			FreeMint: &FreeMint{AmountPerMint: types.Zero()},
		},
	}}
	f := ValidateContractType(ct)
	assert.NotNil(t, f)
}

func TestValidateMOANoMechanism(t *testing.T) {
	ct := ContractType{Moa: &MintOnlyAssetContract{Divisibility: 8}}
	f := ValidateContractType(ct)
	assert.NotNil(t, f)
}

func TestValidateMOAMultipleMechanisms(t *testing.T) {
	ct := ContractType{Moa: &MintOnlyAssetContract{
		Divisibility: 8,
		MintMechanism: MOAMintMechanisms{
			FreeMint:     &FreeMint{AmountPerMint: types.FromUint64(1)},
			Preallocated: &Preallocated{VestingPlan: VestingPlan{Immediate: &struct{}{}}},
		},
	}}
	f := ValidateContractType(ct)
	assert.NotNil(t, f)
}

func TestValidatePreallocatedOverSupplyCap(t *testing.T) {
	ct := ContractType{Moa: &MintOnlyAssetContract{
		Divisibility: 8,
		SupplyCap:    cap100(),
		MintMechanism: MOAMintMechanisms{
			Preallocated: &Preallocated{
				Allocations: map[string]types.U128{
					"addr1": types.FromUint64(60),
					"addr2": types.FromUint64(60),
				},
				VestingPlan: VestingPlan{Immediate: &struct{}{}},
			},
		},
	}}
	f := ValidateContractType(ct)
	assert.NotNil(t, f)
	assert.Equal(t, flaw.MessageInvalid, f.Kind)
}

func TestValidatePreallocatedWithinSupplyCap(t *testing.T) {
	ct := ContractType{Moa: &MintOnlyAssetContract{
		Divisibility: 8,
		SupplyCap:    cap100(),
		MintMechanism: MOAMintMechanisms{
			Preallocated: &Preallocated{
				Allocations: map[string]types.U128{
					"addr1": types.FromUint64(40),
					"addr2": types.FromUint64(40),
				},
				VestingPlan: VestingPlan{Immediate: &struct{}{}},
			},
		},
	}}
	assert.Nil(t, ValidateContractType(ct))
}

func TestValidatePurchaseMalformedInputAsset(t *testing.T) {
	ct := ContractType{Moa: &MintOnlyAssetContract{
		Divisibility: 8,
		MintMechanism: MOAMintMechanisms{
			Purchase: &Purchase{
				InputAsset:     InputAsset{}, // neither raw_btc, glittr_asset, nor metaprotocol
				TransferScheme: TransferScheme{Burn: true},
				TransferRatioType: TransferRatioType{
					Fixed: &types.Fraction{Numerator: types.FromUint64(1), Denominator: types.FromUint64(1)},
				},
			},
		},
	}}
	f := ValidateContractType(ct)
	assert.NotNil(t, f)
}

func TestValidatePurchaseOracleMissingPubkey(t *testing.T) {
	ct := ContractType{Moa: &MintOnlyAssetContract{
		Divisibility: 8,
		MintMechanism: MOAMintMechanisms{
			Purchase: &Purchase{
				InputAsset:     InputAsset{RawBTC: true},
				TransferScheme: TransferScheme{Burn: true},
				TransferRatioType: TransferRatioType{
					Oracle: &OracleRatio{Setting: OracleSetting{}},
				},
			},
		},
	}}
	f := ValidateContractType(ct)
	assert.NotNil(t, f)
}

func TestValidatePurchaseInvalidAddress(t *testing.T) {
	addr := "not-a-real-address"
	ct := ContractType{Moa: &MintOnlyAssetContract{
		Divisibility: 8,
		MintMechanism: MOAMintMechanisms{
			Purchase: &Purchase{
				InputAsset:     InputAsset{RawBTC: true},
				TransferScheme: TransferScheme{PurchaseAddress: &addr},
				TransferRatioType: TransferRatioType{
					Fixed: &types.Fraction{Numerator: types.FromUint64(1), Denominator: types.FromUint64(1)},
				},
			},
		},
	}}
	f := ValidateContractType(ct)
	assert.NotNil(t, f)
	assert.Equal(t, flaw.MessageInvalid, f.Kind)
}

func TestValidatePurchaseValidAddress(t *testing.T) {
	pkHash := make([]byte, 20)
	wpkh, err := btcutil.NewAddressWitnessPubKeyHash(pkHash, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	addr := wpkh.EncodeAddress()

	ct := ContractType{Moa: &MintOnlyAssetContract{
		Divisibility: 8,
		MintMechanism: MOAMintMechanisms{
			Purchase: &Purchase{
				InputAsset:     InputAsset{RawBTC: true},
				TransferScheme: TransferScheme{PurchaseAddress: &addr},
				TransferRatioType: TransferRatioType{
					Fixed: &types.Fraction{Numerator: types.FromUint64(1), Denominator: types.FromUint64(1)},
				},
			},
		},
	}}
	assert.Nil(t, ValidateContractType(ct))
}

func TestValidateCollateralizedProportionalRequiresTwoDistinctAssets(t *testing.T) {
	btc := types.BlockTx{Block: 1, Tx: 1}
	ct := ContractType{Mba: &MintBurnAssetContract{
		Divisibility: 8,
		MintMechanism: MBAMintMechanisms{
			Collateralized: &Collateralized{
				InputAssets: []InputAsset{{GlittrAsset: &btc}, {GlittrAsset: &btc}},
				MintStructure: MintStructure{
					Proportional: &ProportionalType{RatioModel: ConstantProduct},
				},
			},
		},
	}}
	f := ValidateContractType(ct)
	assert.NotNil(t, f)
}

func TestValidateCollateralizedProportionalOK(t *testing.T) {
	a := types.BlockTx{Block: 1, Tx: 1}
	ct := ContractType{Mba: &MintBurnAssetContract{
		Divisibility: 8,
		MintMechanism: MBAMintMechanisms{
			Collateralized: &Collateralized{
				InputAssets: []InputAsset{{GlittrAsset: &a}, {RawBTC: true}},
				MintStructure: MintStructure{
					Proportional: &ProportionalType{RatioModel: ConstantSum},
				},
			},
		},
	}}
	assert.Nil(t, ValidateContractType(ct))
}

func TestValidateCollateralizedAccountOK(t *testing.T) {
	a := types.BlockTx{Block: 1, Tx: 1}
	ct := ContractType{Mba: &MintBurnAssetContract{
		Divisibility: 8,
		MintMechanism: MBAMintMechanisms{
			Collateralized: &Collateralized{
				InputAssets:   []InputAsset{{GlittrAsset: &a}},
				MintStructure: MintStructure{Account: &AccountType{}},
			},
		},
	}}
	assert.Nil(t, ValidateContractType(ct))
}

func TestValidateNftAssetTooLarge(t *testing.T) {
	ct := ContractType{Nft: &NftAssetContract{Asset: make([]byte, MaxAssetBytes+1)}}
	f := ValidateContractType(ct)
	assert.NotNil(t, f)
	assert.Equal(t, flaw.MessageInvalid, f.Kind)
}

func TestValidateNftAssetOK(t *testing.T) {
	ct := ContractType{Nft: &NftAssetContract{Asset: make([]byte, MaxAssetBytes)}}
	assert.Nil(t, ValidateContractType(ct))
}

func TestValidateSpecContractSkipsStaticCheck(t *testing.T) {
	bt := types.BlockTx{Block: 2, Tx: 0}
	ct := ContractType{Spec: &SpecContract{BlockTx: &bt}}
	assert.Nil(t, ValidateContractType(ct))
}
