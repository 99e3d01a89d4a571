// Package indexer maintains the deterministic on-chain state the
// network's OP_RETURN messages describe: contract supply, vesting
// claims, collateral pools and accounts, spec ownership, and per-output
// asset allocations (spec.md §4).
package indexer

import (
	"glittr.dev/core/codec"
	"glittr.dev/core/flaw"
	"glittr.dev/core/types"
)

// AssetContractData tracks an MOA/MBA contract's running supply.
type AssetContractData struct {
	MintedSupply types.U128 `json:"minted_supply"`
	BurnedSupply types.U128 `json:"burned_supply"`
}

// AssetList is the set of Glittr asset balances an output (or the
// unallocated bucket) currently carries, keyed by contract BlockTx string.
type AssetList struct {
	List map[string]types.U128 `json:"list"`
}

func NewAssetList() AssetList { return AssetList{List: map[string]types.U128{}} }

func (a *AssetList) credit(key string, amount types.U128) {
	if a.List == nil {
		a.List = map[string]types.U128{}
	}
	a.List[key] = a.List[key].Add(amount)
}

// VestingContractData tracks how much of each preallocated address's
// entitlement has already been claimed.
type VestingContractData struct {
	ClaimedAllocations map[string]types.U128 `json:"claimed_allocations"`
}

// CollateralAccount is a single borrower's position against an Account
// collateralized mechanism: a lender-agnostic LTV/outstanding ledger kept
// current by oracle-signed updates.
type CollateralAccount struct {
	TotalCollateralAmount types.U128    `json:"total_collateral_amount"`
	ShareAmount           types.U128    `json:"share_amount"`
	Ltv                   types.Fraction `json:"ltv"`
	AmountOutstanding     types.U128    `json:"amount_outstanding"`
}

// PoolData is a two-asset AMM pool's reserves, keyed by contract BlockTx
// string of each side, plus total_supply of the LP share unit.
type PoolData struct {
	Amounts     map[string]types.U128 `json:"amounts"`
	TotalSupply types.U128            `json:"total_supply"`
}

// SpecContractOwned is the set of Spec contract ids an output (or the
// unallocated bucket) currently owns, authorizing spec_contract updates.
type SpecContractOwned struct {
	Specs []types.BlockTx `json:"specs"`
}

// CollateralAccountsOwned is the set of collateral accounts an output
// currently carries, keyed by the contract BlockTx string of the
// Account mint mechanism they belong to. Unlike AssetList, an account
// left unclaimed at commit is never swept to a fallback output (spec.md
// §4.3) -- it is simply dropped, so a caller must always name a
// pointer_to_key to keep one alive.
type CollateralAccountsOwned struct {
	Accounts map[string]CollateralAccount `json:"accounts"`
}

func NewCollateralAccountsOwned() CollateralAccountsOwned {
	return CollateralAccountsOwned{Accounts: map[string]CollateralAccount{}}
}

// MessageDataOutcome is what gets recorded for every transaction
// regardless of whether it carried a valid Glittr message: the parsed
// message (if any) and the Flaw (if any) that stopped its state effects.
type MessageDataOutcome struct {
	Message *codec.OpReturnMessage `json:"message,omitempty"`
	Flaw    *flaw.Flaw             `json:"flaw,omitempty"`
}
