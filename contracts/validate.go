package contracts

import "glittr.dev/core/flaw"

// ValidateContractType runs spec.md §4.2's static, store-free checks
// against a freshly parsed contract_creation payload.
func ValidateContractType(ct ContractType) *flaw.Flaw {
	switch {
	case ct.Moa != nil:
		return validateMOA(ct.Moa)
	case ct.Mba != nil:
		return validateMBA(ct.Mba)
	case ct.Nft != nil:
		return validateNft(ct.Nft)
	case ct.Spec != nil:
		return nil // a spec's own contract_type template is checked for conformance dynamically, not statically
	default:
		return flaw.New(flaw.MessageInvalid)
	}
}

func validateDivisibility(d uint8) *flaw.Flaw {
	if d > MaxDivisibility {
		return flaw.Newf(flaw.MessageInvalid, "divisibility %d exceeds max %d", d, MaxDivisibility)
	}
	return nil
}

func validateFreeMint(fm *FreeMint) *flaw.Flaw {
	if fm.AmountPerMint.IsZero() {
		return flaw.Newf(flaw.MessageInvalid, "free_mint.amount_per_mint must be > 0")
	}
	if fm.SupplyCap != nil && fm.SupplyCap.Cmp(fm.AmountPerMint) < 0 {
		return flaw.Newf(flaw.MessageInvalid, "supply_cap below amount_per_mint")
	}
	return nil
}

func validatePurchase(p *Purchase) *flaw.Flaw {
	if !p.InputAsset.IsWellFormed() {
		return flaw.Newf(flaw.MessageInvalid, "purchase.input_asset malformed")
	}
	if addr := p.TransferScheme.PurchaseAddress; addr != nil && !IsValidHostChainAddress(*addr) {
		return flaw.Newf(flaw.MessageInvalid, "purchase.transfer_scheme.purchase address %q is not a valid host-chain address", *addr)
	}
	if p.TransferRatioType.Oracle != nil && !p.TransferRatioType.Oracle.Setting.IsWellFormed() {
		return flaw.Newf(flaw.MessageInvalid, "purchase.transfer_ratio_type.oracle missing pubkey")
	}
	if p.TransferRatioType.Fixed == nil && p.TransferRatioType.Oracle == nil {
		return flaw.Newf(flaw.MessageInvalid, "purchase.transfer_ratio_type empty")
	}
	if p.TransferRatioType.Fixed != nil && !p.TransferRatioType.Fixed.Valid() {
		return flaw.Newf(flaw.MessageInvalid, "purchase.transfer_ratio_type.fixed has zero denominator")
	}
	return nil
}

func validateCollateralized(c *Collateralized) *flaw.Flaw {
	switch {
	case c.MintStructure.Ratio != nil:
		if c.MintStructure.Ratio.Oracle != nil && !c.MintStructure.Ratio.Oracle.Setting.IsWellFormed() {
			return flaw.Newf(flaw.MessageInvalid, "collateralized.ratio.oracle missing pubkey")
		}
		if c.MintStructure.Ratio.Fixed != nil && !c.MintStructure.Ratio.Fixed.Valid() {
			return flaw.Newf(flaw.MessageInvalid, "collateralized.ratio.fixed has zero denominator")
		}
	case c.MintStructure.Proportional != nil:
		if len(c.InputAssets) != 2 {
			return flaw.Newf(flaw.MessageInvalid, "proportional mechanism requires exactly two input_assets, got %d", len(c.InputAssets))
		}
		a, b := c.InputAssets[0], c.InputAssets[1]
		if !a.IsWellFormed() || !b.IsWellFormed() {
			return flaw.Newf(flaw.MessageInvalid, "proportional mechanism input_assets malformed")
		}
		if a.GlittrAsset != nil && b.GlittrAsset != nil && *a.GlittrAsset == *b.GlittrAsset {
			return flaw.Newf(flaw.MessageInvalid, "proportional mechanism requires two distinct input_assets")
		}
		if c.MintStructure.Proportional.RatioModel != ConstantProduct && c.MintStructure.Proportional.RatioModel != ConstantSum {
			return flaw.Newf(flaw.MessageInvalid, "unknown ratio_model %q", c.MintStructure.Proportional.RatioModel)
		}
	case c.MintStructure.Account != nil:
		// no further static shape to check; oracle/LTV fields are validated dynamically per call.
	default:
		return flaw.Newf(flaw.MessageInvalid, "collateralized.mint_structure empty")
	}
	return nil
}

func validateMOA(m *MintOnlyAssetContract) *flaw.Flaw {
	if f := validateDivisibility(m.Divisibility); f != nil {
		return f
	}
	mechCount := 0
	if fm := m.MintMechanism.FreeMint; fm != nil {
		mechCount++
		if f := validateFreeMint(fm); f != nil {
			return f
		}
		if m.SupplyCap != nil && fm.SupplyCap != nil && m.SupplyCap.Cmp(*fm.SupplyCap) != 0 {
			return flaw.Newf(flaw.MessageInvalid, "moa.supply_cap and free_mint.supply_cap disagree")
		}
	}
	if p := m.MintMechanism.Preallocated; p != nil {
		mechCount++
		if m.SupplyCap != nil && p.AllocationsSum().Cmp(*m.SupplyCap) > 0 {
			return flaw.Newf(flaw.MessageInvalid, "preallocated allocations sum exceeds supply_cap")
		}
	}
	if pu := m.MintMechanism.Purchase; pu != nil {
		mechCount++
		if f := validatePurchase(pu); f != nil {
			return f
		}
	}
	if mechCount != 1 {
		return flaw.Newf(flaw.MessageInvalid, "moa.mint_mechanism must set exactly one variant, got %d", mechCount)
	}
	return nil
}

func validateMBA(m *MintBurnAssetContract) *flaw.Flaw {
	if f := validateDivisibility(m.Divisibility); f != nil {
		return f
	}
	mechCount := 0
	if fm := m.MintMechanism.FreeMint; fm != nil {
		mechCount++
		if f := validateFreeMint(fm); f != nil {
			return f
		}
	}
	if p := m.MintMechanism.Preallocated; p != nil {
		mechCount++
		if m.SupplyCap != nil && p.AllocationsSum().Cmp(*m.SupplyCap) > 0 {
			return flaw.Newf(flaw.MessageInvalid, "preallocated allocations sum exceeds supply_cap")
		}
	}
	if pu := m.MintMechanism.Purchase; pu != nil {
		mechCount++
		if f := validatePurchase(pu); f != nil {
			return f
		}
	}
	if c := m.MintMechanism.Collateralized; c != nil {
		mechCount++
		if f := validateCollateralized(c); f != nil {
			return f
		}
	}
	if mechCount != 1 {
		return flaw.Newf(flaw.MessageInvalid, "mba.mint_mechanism must set exactly one variant, got %d", mechCount)
	}
	if rc := m.BurnMechanism.ReturnCollateral; rc != nil && rc.OracleSetting != nil {
		if !rc.OracleSetting.IsWellFormed() {
			return flaw.Newf(flaw.MessageInvalid, "burn_mechanism.return_collateral.oracle_setting missing pubkey")
		}
	}
	return nil
}

func validateNft(n *NftAssetContract) *flaw.Flaw {
	if len(n.Asset) > MaxAssetBytes {
		return flaw.Newf(flaw.MessageInvalid, "nft.asset exceeds %d bytes", MaxAssetBytes)
	}
	return nil
}
