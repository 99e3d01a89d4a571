package indexer

import (
	"github.com/btcsuite/btcd/wire"

	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/flaw"
	"glittr.dev/core/oracle"
	"glittr.dev/core/types"
)

// burn dispatches a Burn call. Only MBA contracts with a burn_mechanism
// can be burned; MOA and NFT targets reject outright.
func (u *Updater) burn(tx *wire.MsgTx, blockTx, contractID types.BlockTx, ct contracts.ContractType, opt *codec.MintBurnOption) *flaw.Flaw {
	if ct.Mba == nil {
		return flaw.New(flaw.ContractNotMatch)
	}
	m := ct.Mba
	if f := checkLiveTime(m.LiveTime, m.EndTime, blockTx.Block); f != nil {
		return f
	}
	if m.BurnMechanism.ReturnCollateral == nil {
		return flaw.New(flaw.NotImplemented)
	}
	return u.burnReturnCollateral(tx, blockTx, contractID, m, opt)
}

// burnReturnCollateral consumes the caller's entire unallocated balance
// of contractID and returns collateral per the Ratio/Proportional/Account
// mechanism the MBA's collateralized mint_structure names.
func (u *Updater) burnReturnCollateral(tx *wire.MsgTx, blockTx, contractID types.BlockTx, m *contracts.MintBurnAssetContract, opt *codec.MintBurnOption) *flaw.Flaw {
	burned := u.bucket.takeUnallocated(contractID)
	if burned.IsZero() {
		return flaw.New(flaw.InsufficientInputAmount)
	}

	c := m.MintMechanism.Collateralized
	if c == nil {
		return flaw.New(flaw.InvalidContractType)
	}
	if c.MintStructure.Account == nil {
		if opt.Pointer == nil {
			return flaw.New(flaw.InvalidPointer)
		}
		if f := u.validatePointer(*opt.Pointer, tx); f != nil {
			return f
		}
	}

	var outValues []types.U128
	switch {
	case c.MintStructure.Ratio != nil:
		v, f := u.burnRatio(blockTx, c.MintStructure.Ratio, burned, opt)
		if f != nil {
			return f
		}
		outValues = []types.U128{v}

	case c.MintStructure.Proportional != nil:
		v0, v1, f := u.burnProportional(contractID, c, burned)
		if f != nil {
			return f
		}
		outValues = []types.U128{v0, v1}

	case c.MintStructure.Account != nil:
		return u.burnAccount(tx, blockTx, contractID, m.BurnMechanism.ReturnCollateral, burned, opt)

	default:
		return flaw.New(flaw.InvalidContractType)
	}

	data, err := u.getAssetContractData(contractID)
	if err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}
	data.BurnedSupply = data.BurnedSupply.Add(burned)
	if err := u.setAssetContractData(contractID, data); err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}

	for i, v := range outValues {
		if i < len(c.InputAssets) && c.InputAssets[i].GlittrAsset != nil {
			u.bucket.allocateNew(*opt.Pointer, *c.InputAssets[i].GlittrAsset, v)
		}
	}
	return nil
}

func (u *Updater) burnRatio(blockTx types.BlockTx, r *contracts.RatioType, burned types.U128, opt *codec.MintBurnOption) (types.U128, *flaw.Flaw) {
	switch {
	case r.Fixed != nil:
		return r.Fixed.Apply(burned), nil
	case r.Oracle != nil:
		if opt.OracleMessage == nil {
			return types.Zero(), flaw.New(flaw.OracleMintFailed)
		}
		if f := oracle.Verify(r.Oracle.Pubkey, opt.OracleMessage, blockTx.Block, oracleMaxStaleness(r.Oracle.Setting)); f != nil {
			return types.Zero(), f
		}
		if opt.OracleMessage.Message.OutValue == nil {
			return types.Zero(), flaw.New(flaw.OracleMintFailed)
		}
		return *opt.OracleMessage.Message.OutValue, nil
	default:
		return types.Zero(), flaw.New(flaw.MessageInvalid)
	}
}

// burnProportional redeems burned LP share for its pro-rata cut of both
// pool reserves, scaled the same way under constant-product and
// constant-sum (only the deposit/swap math differs between the two
// models; withdrawal is linear in share for both).
func (u *Updater) burnProportional(contractID types.BlockTx, c *contracts.Collateralized, burned types.U128) (types.U128, types.U128, *flaw.Flaw) {
	if len(c.InputAssets) != 2 || c.InputAssets[0].GlittrAsset == nil || c.InputAssets[1].GlittrAsset == nil {
		return types.Zero(), types.Zero(), flaw.New(flaw.PoolNotFound)
	}
	first, second := *c.InputAssets[0].GlittrAsset, *c.InputAssets[1].GlittrAsset

	pool, err := u.getPoolData(contractID)
	if err != nil {
		return types.Zero(), types.Zero(), flaw.New(flaw.PoolNotFound)
	}
	if pool.TotalSupply.IsZero() {
		return types.Zero(), types.Zero(), flaw.New(flaw.PoolNotFound)
	}

	share := burned.MulDiv(types.FromUint64(ammScale), pool.TotalSupply)
	reserve0 := pool.Amounts[first.String()]
	reserve1 := pool.Amounts[second.String()]

	return0 := reserve0.MulDiv(share, types.FromUint64(ammScale))
	return1 := reserve1.MulDiv(share, types.FromUint64(ammScale))
	if return0.IsZero() || return1.IsZero() {
		return types.Zero(), types.Zero(), flaw.New(flaw.InsufficientOutputAmount)
	}

	pool.Amounts[first.String()] = reserve0.Sub(return0)
	pool.Amounts[second.String()] = reserve1.Sub(return1)
	pool.TotalSupply = pool.TotalSupply.Sub(burned)

	if err := u.setPoolData(contractID, pool); err != nil {
		return types.Zero(), types.Zero(), flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}
	return return0, return1, nil
}

// burnAccount marks a collateral account to market from an oracle-signed
// message (ltv and outstanding are always oracle-updated, per spec.md
// §4.3), pays out any burned remainder beyond the oracle's out_value,
// and re-anchors the account at pointer_to_key. The oracle message must
// be signed by the contract's configured oracle and must name the
// account's own origin outpoint -- otherwise a signed message minted for
// a different account could be replayed here to rewrite someone else's
// position.
func (u *Updater) burnAccount(tx *wire.MsgTx, blockTx, contractID types.BlockTx, rc *contracts.ReturnCollateral, burned types.U128, opt *codec.MintBurnOption) *flaw.Flaw {
	acct, origin, ok := u.bucket.takeCollateralAccount(contractID)
	if !ok {
		return flaw.New(flaw.CollateralAccountNotFound)
	}

	if rc == nil || rc.OracleSetting == nil {
		return flaw.New(flaw.OracleMintFailed)
	}
	if opt.OracleMessage == nil {
		return flaw.New(flaw.OracleMintFailed)
	}
	oracleSetting := *rc.OracleSetting
	if f := oracle.Verify(oracleSetting.Pubkey, opt.OracleMessage, blockTx.Block, oracleMaxStaleness(oracleSetting)); f != nil {
		return f
	}
	msg := opt.OracleMessage.Message
	if msg.InputOutpoint == nil || *msg.InputOutpoint != origin {
		return flaw.New(flaw.OracleMintFailed)
	}

	if msg.Ltv == nil {
		return flaw.New(flaw.LtvMustBeUpdated)
	}
	if msg.Outstanding == nil {
		return flaw.New(flaw.OutstandingMustBeUpdated)
	}
	if msg.OutValue == nil {
		return flaw.New(flaw.OutValueNotFound)
	}
	if burned.Cmp(*msg.OutValue) < 0 {
		return flaw.New(flaw.BurnValueIncorrect)
	}

	if opt.PointerToKey == nil {
		return flaw.New(flaw.PointerKeyNotFound)
	}
	if f := u.validatePointer(*opt.PointerToKey, tx); f != nil {
		return f
	}

	acct.Ltv = *msg.Ltv
	acct.AmountOutstanding = *msg.Outstanding
	u.bucket.allocateNewCollateralAccount(*opt.PointerToKey, contractID, acct)

	remainder := burned.Sub(*msg.OutValue)
	if !remainder.IsZero() {
		if opt.Pointer == nil {
			u.bucket.unallocated.assetList.credit(contractID.String(), remainder)
		} else {
			if f := u.validatePointer(*opt.Pointer, tx); f != nil {
				return f
			}
			u.bucket.allocateNew(*opt.Pointer, contractID, remainder)
		}
	}

	return nil
}
