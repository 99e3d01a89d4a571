package indexer

import (
	"glittr.dev/core/types"
)

// allocation is the per-bucket state the Allocation Engine moves between:
// an asset balance sheet, the set of spec contracts owned here, and any
// collateral accounts carried through this outpoint.
type allocation struct {
	assetList          AssetList
	specOwned          SpecContractOwned
	collateralAccounts map[string]CollateralAccount
}

func newAllocation() allocation {
	return allocation{
		assetList:          NewAssetList(),
		collateralAccounts: map[string]CollateralAccount{},
	}
}

// bucket is the transaction-scoped Allocation Engine (spec.md §4.3):
// inputs are unallocated into a single pooled bucket, executors move
// slices of it into per-output buckets (or allocate brand-new supply
// directly), and commit writes every touched output's final balance,
// falling back unclaimed input value to the first non-OP_RETURN output.
//
// collateralOrigin records, for every unallocated collateral account,
// the input outpoint it was carried in from -- the oracle check when
// burning against an Account-structured contract needs to compare an oracle message's input_outpoint against the
// account's actual origin, not wherever it ends up re-allocated to.
type bucket struct {
	unallocated      allocation
	allocated        map[uint32]*allocation
	collateralOrigin map[string]types.Outpoint
}

func newBucket() *bucket {
	return &bucket{
		unallocated:      newAllocation(),
		allocated:        map[uint32]*allocation{},
		collateralOrigin: map[string]types.Outpoint{},
	}
}

func (b *bucket) outputAllocation(vout uint32) *allocation {
	a, ok := b.allocated[vout]
	if !ok {
		na := newAllocation()
		a = &na
		b.allocated[vout] = a
	}
	return a
}

// allocateNew credits vout directly with freshly minted (or otherwise
// not-previously-unallocated) supply.
func (b *bucket) allocateNew(vout uint32, contractID types.BlockTx, amount types.U128) {
	b.outputAllocation(vout).assetList.credit(contractID.String(), amount)
}

// allocateNewSpec grants vout ownership of a spec contract.
func (b *bucket) allocateNewSpec(vout uint32, specID types.BlockTx) {
	a := b.outputAllocation(vout)
	a.specOwned.Specs = append(a.specOwned.Specs, specID)
}

// moveAsset moves up to maxAmount of contractID's unallocated balance
// into vout's bucket, returning how much actually moved (it saturates at
// whatever remains unallocated).
func (b *bucket) moveAsset(vout uint32, contractID types.BlockTx, maxAmount types.U128) types.U128 {
	key := contractID.String()
	remaining, ok := b.unallocated.assetList.List[key]
	if !ok {
		return types.Zero()
	}
	amount := remaining.Min(maxAmount)
	if amount.IsZero() {
		return types.Zero()
	}
	remaining = remaining.Sub(amount)
	if remaining.IsZero() {
		delete(b.unallocated.assetList.List, key)
	} else {
		b.unallocated.assetList.List[key] = remaining
	}
	b.allocateNew(vout, contractID, amount)
	return amount
}

// takeUnallocated removes and returns everything unallocated for
// contractID (used by burn, which consumes the whole input balance).
func (b *bucket) takeUnallocated(contractID types.BlockTx) types.U128 {
	key := contractID.String()
	amount, ok := b.unallocated.assetList.List[key]
	if !ok {
		return types.Zero()
	}
	delete(b.unallocated.assetList.List, key)
	return amount
}

// allocateNewCollateralAccount credits vout with a collateral account,
// overwriting whatever it already carries for contractID (an output only
// ever carries one account per contract).
func (b *bucket) allocateNewCollateralAccount(vout uint32, contractID types.BlockTx, acct CollateralAccount) {
	a := b.outputAllocation(vout)
	if a.collateralAccounts == nil {
		a.collateralAccounts = map[string]CollateralAccount{}
	}
	a.collateralAccounts[contractID.String()] = acct
}

// takeCollateralAccount removes and returns the unallocated collateral
// account for contractID, plus the input outpoint it arrived from, if
// one is present in this transaction's unallocated bucket.
func (b *bucket) takeCollateralAccount(contractID types.BlockTx) (CollateralAccount, types.Outpoint, bool) {
	key := contractID.String()
	acct, ok := b.unallocated.collateralAccounts[key]
	if !ok {
		return CollateralAccount{}, types.Outpoint{}, false
	}
	origin := b.collateralOrigin[key]
	delete(b.unallocated.collateralAccounts, key)
	delete(b.collateralOrigin, key)
	return acct, origin, true
}

func (b *bucket) reset() {
	b.unallocated = newAllocation()
	b.allocated = map[uint32]*allocation{}
	b.collateralOrigin = map[string]types.Outpoint{}
}
