package indexer

import (
	"github.com/btcsuite/btcd/wire"

	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/flaw"
	"glittr.dev/core/oracle"
	"glittr.dev/core/types"
)

// mint dispatches a Mint call to whichever mechanism the target MOA/MBA
// contract names, rejecting calls against NFT/Spec targets outright.
func (u *Updater) mint(tx *wire.MsgTx, blockTx, contractID types.BlockTx, ct contracts.ContractType, opt *codec.MintBurnOption) *flaw.Flaw {
	switch {
	case ct.Moa != nil:
		m := ct.Moa
		if f := checkLiveTime(m.LiveTime, m.EndTime, blockTx.Block); f != nil {
			return f
		}
		switch {
		case m.MintMechanism.FreeMint != nil:
			return u.mintFreeMint(tx, blockTx, contractID, m.SupplyCap, m.MintMechanism.FreeMint, opt)
		case m.MintMechanism.Preallocated != nil:
			return u.mintPreallocated(tx, blockTx, contractID, m.MintMechanism.Preallocated, opt)
		case m.MintMechanism.Purchase != nil:
			return u.mintPurchase(tx, blockTx, contractID, m.SupplyCap, m.MintMechanism.Purchase, opt)
		default:
			return flaw.New(flaw.NotImplemented)
		}
	case ct.Mba != nil:
		m := ct.Mba
		if f := checkLiveTime(m.LiveTime, m.EndTime, blockTx.Block); f != nil {
			return f
		}
		switch {
		case m.MintMechanism.FreeMint != nil:
			return u.mintFreeMint(tx, blockTx, contractID, m.SupplyCap, m.MintMechanism.FreeMint, opt)
		case m.MintMechanism.Preallocated != nil:
			return u.mintPreallocated(tx, blockTx, contractID, m.MintMechanism.Preallocated, opt)
		case m.MintMechanism.Purchase != nil:
			return u.mintPurchase(tx, blockTx, contractID, m.SupplyCap, m.MintMechanism.Purchase, opt)
		case m.MintMechanism.Collateralized != nil:
			return u.mintCollateralized(tx, blockTx, contractID, m.MintMechanism.Collateralized, opt)
		default:
			return flaw.New(flaw.NotImplemented)
		}
	default:
		return flaw.New(flaw.ContractNotMatch)
	}
}

// mintFreeMint credits amount_per_mint to mint_option.pointer, rejecting
// once minted_supply + amount_per_mint would exceed supply_cap.
func (u *Updater) mintFreeMint(tx *wire.MsgTx, blockTx, contractID types.BlockTx, supplyCap *types.U128, fm *contracts.FreeMint, opt *codec.MintBurnOption) *flaw.Flaw {
	data, err := u.getAssetContractData(contractID)
	if err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}

	next := data.MintedSupply.Add(fm.AmountPerMint)
	if supplyCap != nil && next.Cmp(*supplyCap) > 0 {
		return flaw.New(flaw.SupplyCapExceeded)
	}

	if opt.Pointer == nil {
		return flaw.New(flaw.InvalidPointer)
	}
	if f := u.validatePointer(*opt.Pointer, tx); f != nil {
		return f
	}

	data.MintedSupply = next
	if err := u.setAssetContractData(contractID, data); err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}

	u.bucket.allocateNew(*opt.Pointer, contractID, fm.AmountPerMint)
	return nil
}

// mintPreallocated credits, to mint_option.pointer, whatever portion of
// the vesting entitlement of the address named by commitment_message's
// public key has unlocked by the current block but not yet been claimed.
func (u *Updater) mintPreallocated(tx *wire.MsgTx, blockTx, contractID types.BlockTx, p *contracts.Preallocated, opt *codec.MintBurnOption) *flaw.Flaw {
	if opt.CommitmentMessage == nil {
		return flaw.New(flaw.InvalidPointer)
	}
	addr := string(opt.CommitmentMessage.PublicKey)

	total, ok := p.Allocations[addr]
	if !ok {
		return flaw.New(flaw.InsufficientOutputAmount)
	}

	vesting, err := u.getVestingContractData(contractID)
	if err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}
	claimed := vesting.ClaimedAllocations[addr]

	entitled := p.VestingPlan.EntitlementAt(blockTx.Block, total)
	claimable := entitled.Sub(claimed)
	if claimable.IsZero() {
		return flaw.New(flaw.InsufficientOutputAmount)
	}

	if opt.Pointer == nil {
		return flaw.New(flaw.InvalidPointer)
	}
	if f := u.validatePointer(*opt.Pointer, tx); f != nil {
		return f
	}

	vesting.ClaimedAllocations[addr] = claimed.Add(claimable)
	if err := u.setVestingContractData(contractID, vesting); err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}

	u.bucket.allocateNew(*opt.Pointer, contractID, claimable)
	return nil
}

// mintPurchase credits out_value (computed from a fixed ratio, or from an
// oracle-signed valuation) against whatever payment the caller's inputs
// and transfer_scheme show was actually received.
func (u *Updater) mintPurchase(tx *wire.MsgTx, blockTx, contractID types.BlockTx, supplyCap *types.U128, purchase *contracts.Purchase, opt *codec.MintBurnOption) *flaw.Flaw {
	receivedValue, f := u.receivedPurchaseValue(tx, purchase.InputAsset)
	if f != nil {
		return f
	}

	pointer, outValue, f := u.resolvePurchaseOutcome(tx, blockTx, purchase, receivedValue, opt)
	if f != nil {
		return f
	}

	data, err := u.getAssetContractData(contractID)
	if err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}
	next := data.MintedSupply.Add(outValue)
	if supplyCap != nil && next.Cmp(*supplyCap) > 0 {
		return flaw.New(flaw.SupplyCapExceeded)
	}
	data.MintedSupply = next
	if err := u.setAssetContractData(contractID, data); err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}

	u.bucket.allocateNew(pointer, contractID, outValue)
	return nil
}

// receivedPurchaseValue reads how much of the named input_asset this
// transaction's inputs carried into it. Raw BTC is left to
// resolvePurchaseOutcome, which reads it from this transaction's own
// outputs, so here it only resolves the Glittr-asset case, returning
// whatever this transaction's unallocated bucket holds for it.
func (u *Updater) receivedPurchaseValue(tx *wire.MsgTx, inputAsset contracts.InputAsset) (types.U128, *flaw.Flaw) {
	if inputAsset.GlittrAsset == nil {
		return types.Zero(), nil
	}
	return u.bucket.unallocated.assetList.List[inputAsset.GlittrAsset.String()], nil
}

// resolvePurchaseOutcome picks the output index to credit and computes
// the resulting out_value, verifying the oracle signature if the ratio is
// oracle-gated. For a Burn transfer scheme the received BTC is the value
// of the first OP_RETURN output and the index is that output's. A
// Purchase address is not matched against the outputs: the received BTC
// stays zero and the index is the first non-OP_RETURN output.
func (u *Updater) resolvePurchaseOutcome(tx *wire.MsgTx, blockTx types.BlockTx, purchase *contracts.Purchase, glittrReceived types.U128, opt *codec.MintBurnOption) (uint32, types.U128, *flaw.Flaw) {
	var receivedBTC types.U128
	var vout uint32
	found := false

	for i, out := range tx.TxOut {
		if purchase.TransferScheme.Burn && isOpReturnOutput(out) {
			receivedBTC = types.FromUint64(uint64(out.Value))
			vout = uint32(i)
			found = true
			break
		}
	}
	if !found {
		if fb, ok := firstNonOpReturnIndex(tx); ok {
			vout = fb
		} else {
			return 0, types.Zero(), flaw.New(flaw.PointerOverflow)
		}
	}

	received := receivedBTC
	if purchase.InputAsset.GlittrAsset != nil {
		received = glittrReceived
	}

	var outValue types.U128
	switch {
	case purchase.TransferRatioType.Fixed != nil:
		outValue = purchase.TransferRatioType.Fixed.Apply(received)
	case purchase.TransferRatioType.Oracle != nil:
		if opt.OracleMessage == nil {
			return 0, types.Zero(), flaw.New(flaw.OracleMintFailed)
		}
		if f := oracle.Verify(purchase.TransferRatioType.Oracle.Pubkey, opt.OracleMessage, blockTx.Block, oracleMaxStaleness(purchase.TransferRatioType.Oracle.Setting)); f != nil {
			return 0, types.Zero(), f
		}
		msg := opt.OracleMessage.Message
		if msg.OutValue == nil {
			return 0, types.Zero(), flaw.New(flaw.OracleMintFailed)
		}
		if msg.InputOutpoint != nil && !outpointAmongInputs(tx, *msg.InputOutpoint) {
			return 0, types.Zero(), flaw.New(flaw.OracleMintFailed)
		}
		if purchase.InputAsset.GlittrAsset != nil {
			want := purchase.InputAsset.GlittrAsset.String()
			if msg.AssetID == nil || *msg.AssetID != want {
				return 0, types.Zero(), flaw.New(flaw.OracleMintFailed)
			}
		}
		if msg.MinInValue != nil && received.Cmp(*msg.MinInValue) < 0 {
			return 0, types.Zero(), flaw.New(flaw.InsufficientInputAmount)
		}
		outValue = *msg.OutValue
	default:
		return 0, types.Zero(), flaw.New(flaw.MessageInvalid)
	}

	return vout, outValue, nil
}

func oracleMaxStaleness(setting contracts.OracleSetting) uint64 {
	if setting.MaxStaleness == nil {
		return 0
	}
	return *setting.MaxStaleness
}

// mintCollateralized handles the Collateralized MBA mint mechanism:
// Ratio (single oracle/fixed valuation), Proportional (AMM deposit), or
// Account (borrow against deposited collateral).
func (u *Updater) mintCollateralized(tx *wire.MsgTx, blockTx, contractID types.BlockTx, c *contracts.Collateralized, opt *codec.MintBurnOption) *flaw.Flaw {
	switch {
	case c.MintStructure.Ratio != nil:
		return u.mintCollateralizedRatio(tx, blockTx, contractID, c, opt)
	case c.MintStructure.Proportional != nil:
		return u.mintCollateralizedProportional(tx, blockTx, contractID, c, opt)
	case c.MintStructure.Account != nil:
		return u.mintCollateralizedAccount(tx, blockTx, contractID, c, opt)
	default:
		return flaw.New(flaw.NotImplemented)
	}
}

func (u *Updater) mintCollateralizedRatio(tx *wire.MsgTx, blockTx, contractID types.BlockTx, c *contracts.Collateralized, opt *codec.MintBurnOption) *flaw.Flaw {
	if len(c.InputAssets) == 0 {
		return flaw.New(flaw.MessageInvalid)
	}
	received, f := u.receivedPurchaseValue(tx, c.InputAssets[0])
	if f != nil {
		return f
	}

	var outValue types.U128
	switch {
	case c.MintStructure.Ratio.Fixed != nil:
		outValue = c.MintStructure.Ratio.Fixed.Apply(received)
	case c.MintStructure.Ratio.Oracle != nil:
		if opt.OracleMessage == nil {
			return flaw.New(flaw.OracleMintFailed)
		}
		if f := oracle.Verify(c.MintStructure.Ratio.Oracle.Pubkey, opt.OracleMessage, blockTx.Block, oracleMaxStaleness(c.MintStructure.Ratio.Oracle.Setting)); f != nil {
			return f
		}
		if opt.OracleMessage.Message.OutValue == nil {
			return flaw.New(flaw.OracleMintFailed)
		}
		outValue = *opt.OracleMessage.Message.OutValue
	default:
		return flaw.New(flaw.MessageInvalid)
	}

	if opt.Pointer == nil {
		return flaw.New(flaw.InvalidPointer)
	}
	if f := u.validatePointer(*opt.Pointer, tx); f != nil {
		return f
	}
	u.bucket.allocateNew(*opt.Pointer, contractID, outValue)
	return nil
}

const ammScale = 1_000_000

// mintCollateralizedProportional deposits both sides of the pool pair and
// mints LP share proportional to the deposit's value under the pool's
// ratio model.
func (u *Updater) mintCollateralizedProportional(tx *wire.MsgTx, blockTx, contractID types.BlockTx, c *contracts.Collateralized, opt *codec.MintBurnOption) *flaw.Flaw {
	if len(c.InputAssets) != 2 || c.InputAssets[0].GlittrAsset == nil || c.InputAssets[1].GlittrAsset == nil {
		return flaw.New(flaw.PoolNotFound)
	}
	first, second := *c.InputAssets[0].GlittrAsset, *c.InputAssets[1].GlittrAsset

	pool, err := u.getPoolData(contractID)
	if err != nil {
		return flaw.New(flaw.PoolNotFound)
	}

	in0 := u.bucket.unallocated.assetList.List[first.String()]
	in1 := u.bucket.unallocated.assetList.List[second.String()]

	var share types.U128
	if pool.TotalSupply.IsZero() {
		share = types.FromUint64(ammScale)
	} else {
		reserve0 := pool.Amounts[first.String()]
		if reserve0.IsZero() {
			return flaw.New(flaw.PoolNotFound)
		}
		share = in0.MulDiv(types.FromUint64(ammScale), reserve0)
	}
	if share.IsZero() {
		return flaw.New(flaw.InsufficientInputAmount)
	}

	if opt.Pointer == nil {
		return flaw.New(flaw.InvalidPointer)
	}
	if f := u.validatePointer(*opt.Pointer, tx); f != nil {
		return f
	}

	pool.Amounts[first.String()] = pool.Amounts[first.String()].Add(in0)
	pool.Amounts[second.String()] = pool.Amounts[second.String()].Add(in1)
	lpMinted := pool.TotalSupply.MulDiv(share, types.FromUint64(ammScale))
	if pool.TotalSupply.IsZero() {
		lpMinted = share
	}
	pool.TotalSupply = pool.TotalSupply.Add(lpMinted)

	if err := u.setPoolData(contractID, pool); err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}

	u.bucket.allocateNew(*opt.Pointer, contractID, lpMinted)
	return nil
}

// mintCollateralizedAccount opens or tops up a collateral account: the
// deposited amount is added to both total_collateral_amount and
// share_amount (no tokens are minted and amount_outstanding is left
// unchanged), and the account is assigned to pointer_to_key so later oracle-signed updates (see burn.go) can
// mark it to market. If the caller's inputs already carry an account for
// this contract (an existing position being topped up), its balance is
// added to rather than overwritten.
func (u *Updater) mintCollateralizedAccount(tx *wire.MsgTx, blockTx, contractID types.BlockTx, c *contracts.Collateralized, opt *codec.MintBurnOption) *flaw.Flaw {
	if len(c.InputAssets) == 0 || c.InputAssets[0].GlittrAsset == nil {
		return flaw.New(flaw.CollateralAccountNotFound)
	}
	deposited := u.bucket.takeUnallocated(*c.InputAssets[0].GlittrAsset)
	if deposited.IsZero() {
		return flaw.New(flaw.InsufficientInputAmount)
	}

	if opt.PointerToKey == nil {
		return flaw.New(flaw.PointerKeyNotFound)
	}
	if f := u.validatePointer(*opt.PointerToKey, tx); f != nil {
		return f
	}

	acct, _, _ := u.bucket.takeCollateralAccount(contractID)
	acct.TotalCollateralAmount = acct.TotalCollateralAmount.Add(deposited)
	acct.ShareAmount = acct.ShareAmount.Add(deposited)

	u.bucket.allocateNewCollateralAccount(*opt.PointerToKey, contractID, acct)
	return nil
}
