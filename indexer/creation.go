package indexer

import (
	"github.com/btcsuite/btcd/wire"

	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/flaw"
	"glittr.dev/core/types"
)

// executeContractCreation instantiates a new Moa/Mba/Nft contract, or
// creates/updates a Spec contract (spec.md §4.4.2). A ticker, if present,
// is registered so /blocktx/ticker/{ticker} can resolve it; a second
// creation reusing the same ticker is rejected.
func (u *Updater) executeContractCreation(tx *wire.MsgTx, blockTx types.BlockTx, creation *codec.ContractCreation) *flaw.Flaw {
	if creation.Spec != nil {
		if f := u.validateContractBySpec(*creation.Spec, creation.ContractType); f != nil {
			return f
		}
	}

	if creation.ContractType.Spec != nil {
		return u.executeSpecContract(tx, blockTx, creation.ContractType.Spec)
	}

	if f := u.validatePurchaseReference(creation.ContractType); f != nil {
		return f
	}

	ticker := tickerOf(creation.ContractType)
	if ticker != nil {
		if _, err := u.getTicker(*ticker); err == nil {
			return flaw.New(flaw.TickerAlreadyExists)
		}
		if err := u.setTicker(*ticker, blockTx); err != nil {
			return flaw.Newf(flaw.FailedDeserialization, "%s", err)
		}
	}

	if creation.ContractType.Mba != nil && creation.ContractType.Mba.MintMechanism.Collateralized != nil {
		if err := u.initPool(blockTx, creation.ContractType.Mba.MintMechanism.Collateralized); err != nil {
			return flaw.Newf(flaw.FailedDeserialization, "%s", err)
		}
	}

	return nil
}

// validatePurchaseReference enforces spec.md §4.4.2 step 2: a Purchase
// mechanism that names another Glittr asset as its input must reference
// a contract that actually exists and was itself created cleanly. A
// dangling or flawed reference here would let a contract advertise a
// payment asset that can never actually be paid in.
func (u *Updater) validatePurchaseReference(ct contracts.ContractType) *flaw.Flaw {
	var purchase *contracts.Purchase
	switch {
	case ct.Moa != nil && ct.Moa.MintMechanism.Purchase != nil:
		purchase = ct.Moa.MintMechanism.Purchase
	case ct.Mba != nil && ct.Mba.MintMechanism.Purchase != nil:
		purchase = ct.Mba.MintMechanism.Purchase
	default:
		return nil
	}
	if purchase.InputAsset.GlittrAsset == nil {
		return nil
	}

	outcome, f := u.getMessage(*purchase.InputAsset.GlittrAsset)
	if f != nil {
		return flaw.New(flaw.ReferencingFlawedBlockTx)
	}
	if outcome.Flaw != nil || outcome.Message == nil || outcome.Message.ContractCreation == nil {
		return flaw.New(flaw.ReferencingFlawedBlockTx)
	}
	return nil
}

func tickerOf(ct contracts.ContractType) *string {
	switch {
	case ct.Moa != nil:
		return ct.Moa.Ticker
	case ct.Mba != nil:
		return ct.Mba.Ticker
	default:
		return nil
	}
}

// initPool seeds an AMM pool's zero reserves for a freshly created
// Proportional collateralized mechanism, so the first deposit has
// something to read.
func (u *Updater) initPool(contractID types.BlockTx, c *contracts.Collateralized) error {
	if c.MintStructure.Proportional == nil {
		return nil
	}
	amounts := map[string]types.U128{}
	for _, ia := range c.InputAssets {
		if ia.GlittrAsset != nil {
			amounts[ia.GlittrAsset.String()] = types.Zero()
		}
	}
	return u.setPoolData(contractID, PoolData{Amounts: amounts, TotalSupply: types.Zero()})
}

// executeSpecContract creates a brand-new spec (BlockTx nil) owned by the
// caller's fallback allocation, or amends an existing one the caller's
// unallocated bucket currently owns.
func (u *Updater) executeSpecContract(tx *wire.MsgTx, blockTx types.BlockTx, spec *contracts.SpecContract) *flaw.Flaw {
	if spec.BlockTx == nil {
		u.bucket.unallocated.specOwned.Specs = append(u.bucket.unallocated.specOwned.Specs, blockTx)
		return nil
	}

	owned := false
	for _, s := range u.bucket.unallocated.specOwned.Specs {
		if s == *spec.BlockTx {
			owned = true
			break
		}
	}
	if !owned {
		return flaw.New(flaw.SpecNotOwned)
	}

	outcome, f := u.getMessage(*spec.BlockTx)
	if f != nil {
		return f
	}
	if outcome.Message == nil || outcome.Message.ContractCreation == nil || outcome.Message.ContractCreation.ContractType.Spec == nil {
		return flaw.New(flaw.ContractNotMatch)
	}
	outcome.Message.ContractCreation.ContractType.Spec = spec
	return flawOrNil(u.setMessage(*spec.BlockTx, outcome))
}

// validateContractBySpec checks a new contract against the template a
// previously created Spec contract names (spec.md §4.4.2's conformance
// rule). Only the contract variant (moa/mba/nft/spec) is compared; the
// template's field values are not checked.
func (u *Updater) validateContractBySpec(specID types.BlockTx, ct contracts.ContractType) *flaw.Flaw {
	outcome, f := u.getMessage(specID)
	if f != nil {
		return flaw.New(flaw.ReferencingFlawedBlockTx)
	}
	if outcome.Message == nil || outcome.Message.ContractCreation == nil {
		return flaw.New(flaw.ReferencingFlawedBlockTx)
	}
	specContract := outcome.Message.ContractCreation.ContractType.Spec
	if specContract == nil || specContract.ContractType == nil {
		return flaw.New(flaw.SpecContractViolation)
	}
	if specContract.ContractType.Kind() != ct.Kind() {
		return flaw.New(flaw.SpecContractViolation)
	}
	return nil
}

func flawOrNil(err error) *flaw.Flaw {
	if err == nil {
		return nil
	}
	return flaw.Newf(flaw.FailedDeserialization, "%s", err)
}
