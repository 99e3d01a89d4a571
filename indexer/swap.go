package indexer

import (
	"github.com/btcsuite/btcd/wire"

	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/flaw"
	"glittr.dev/core/types"
)

// swap executes an AMM swap call against an MBA contract's Proportional
// collateralized pool: whichever of the two pool assets the caller's
// unallocated bucket holds is the input side, the other is the output.
func (u *Updater) swap(tx *wire.MsgTx, blockTx, contractID types.BlockTx, ct contracts.ContractType, opt *codec.SwapOption) *flaw.Flaw {
	if ct.Mba == nil || ct.Mba.MintMechanism.Collateralized == nil {
		return flaw.New(flaw.ContractNotMatch)
	}
	c := ct.Mba.MintMechanism.Collateralized
	if c.MintStructure.Proportional == nil {
		return flaw.New(flaw.ContractNotMatch)
	}
	if len(c.InputAssets) != 2 || c.InputAssets[0].GlittrAsset == nil || c.InputAssets[1].GlittrAsset == nil {
		return flaw.New(flaw.PoolNotFound)
	}
	first, second := *c.InputAssets[0].GlittrAsset, *c.InputAssets[1].GlittrAsset

	pool, err := u.getPoolData(contractID)
	if err != nil {
		return flaw.New(flaw.PoolNotFound)
	}

	inFirst := u.bucket.unallocated.assetList.List[first.String()]
	inSecond := u.bucket.unallocated.assetList.List[second.String()]

	var inAsset, outAsset types.BlockTx
	var amountIn types.U128
	switch {
	case !inFirst.IsZero() && inSecond.IsZero():
		inAsset, outAsset, amountIn = first, second, inFirst
	case !inSecond.IsZero() && inFirst.IsZero():
		inAsset, outAsset, amountIn = second, first, inSecond
	default:
		return flaw.New(flaw.InsufficientInputAmount)
	}

	reserveIn := pool.Amounts[inAsset.String()]
	reserveOut := pool.Amounts[outAsset.String()]
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return flaw.New(flaw.PoolNotFound)
	}

	var amountOut types.U128
	switch ct.Mba.MintMechanism.Collateralized.MintStructure.Proportional.RatioModel {
	case contracts.ConstantProduct:
		// dy = y * dx / (x + dx) -- the constant-product invariant's
		// standard no-fee swap formula.
		amountOut = reserveOut.MulDiv(amountIn, reserveIn.Add(amountIn))
	case contracts.ConstantSum:
		amountOut = amountIn.Min(reserveOut)
	default:
		return flaw.New(flaw.MessageInvalid)
	}

	if amountOut.IsZero() {
		return flaw.New(flaw.InsufficientOutputAmount)
	}
	if opt.AssertValues != nil && opt.AssertValues.MinOutValue != nil && amountOut.Cmp(*opt.AssertValues.MinOutValue) < 0 {
		return flaw.New(flaw.InsufficientOutputAmount)
	}

	if f := u.validatePointer(opt.Pointer, tx); f != nil {
		return f
	}

	u.bucket.takeUnallocated(inAsset)
	pool.Amounts[inAsset.String()] = reserveIn.Add(amountIn)
	pool.Amounts[outAsset.String()] = reserveOut.Sub(amountOut)
	if err := u.setPoolData(contractID, pool); err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}

	u.bucket.allocateNew(opt.Pointer, outAsset, amountOut)
	return nil
}
