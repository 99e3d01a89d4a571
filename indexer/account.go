package indexer

import (
	"github.com/btcsuite/btcd/wire"

	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/flaw"
	"glittr.dev/core/types"
)

// openAccount opens a fresh collateral account against an Account
// collateralized mechanism, consuming the caller's entire deposited
// input balance as its starting collateral and crediting share_amount as
// its initial debt-free position size. The account is carried through
// the bucket like an asset balance, keyed by outpoint: it is allocated
// to pointer_to_key and recovered from there whenever that outpoint is
// later spent (by closeAccount, a burn Account call, or a mint top-up).
func (u *Updater) openAccount(tx *wire.MsgTx, contractID types.BlockTx, ct contracts.ContractType, opt *codec.OpenAccountOption) *flaw.Flaw {
	if ct.Mba == nil || ct.Mba.MintMechanism.Collateralized == nil || ct.Mba.MintMechanism.Collateralized.MintStructure.Account == nil {
		return flaw.New(flaw.ContractNotMatch)
	}
	c := ct.Mba.MintMechanism.Collateralized
	if len(c.InputAssets) == 0 || c.InputAssets[0].GlittrAsset == nil {
		return flaw.New(flaw.CollateralAccountNotFound)
	}
	deposited := u.bucket.takeUnallocated(*c.InputAssets[0].GlittrAsset)
	if deposited.IsZero() {
		return flaw.New(flaw.InsufficientInputAmount)
	}

	if f := u.validatePointer(opt.PointerToKey, tx); f != nil {
		return f
	}

	acct := CollateralAccount{
		TotalCollateralAmount: deposited,
		ShareAmount:           opt.ShareAmount,
	}
	u.bucket.allocateNewCollateralAccount(opt.PointerToKey, contractID, acct)
	return nil
}

// closeAccount fully pays out the account's collateral to pointer and
// removes its position. spec.md §4.4.3 requires the account be fully
// repaid first; an account still carrying outstanding debt cannot be
// closed out from under its lender.
func (u *Updater) closeAccount(tx *wire.MsgTx, contractID types.BlockTx, ct contracts.ContractType, opt *codec.CloseAccountOption) *flaw.Flaw {
	if ct.Mba == nil || ct.Mba.MintMechanism.Collateralized == nil {
		return flaw.New(flaw.ContractNotMatch)
	}
	c := ct.Mba.MintMechanism.Collateralized
	if len(c.InputAssets) == 0 || c.InputAssets[0].GlittrAsset == nil {
		return flaw.New(flaw.CollateralAccountNotFound)
	}

	acct, _, ok := u.bucket.takeCollateralAccount(contractID)
	if !ok {
		return flaw.New(flaw.CollateralAccountNotFound)
	}
	if !acct.AmountOutstanding.IsZero() {
		return flaw.New(flaw.OutstandingMustBeUpdated)
	}

	if f := u.validatePointer(opt.Pointer, tx); f != nil {
		return f
	}
	u.bucket.allocateNew(opt.Pointer, *c.InputAssets[0].GlittrAsset, acct.TotalCollateralAmount)
	return nil
}
