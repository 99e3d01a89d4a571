package indexer

import (
	"errors"

	"glittr.dev/core/flaw"
	"glittr.dev/core/store"
	"glittr.dev/core/types"
)

// The per-outpoint and per-contract state getters below (asset list,
// spec ownership, asset contract data, vesting data, collateral
// accounts) collapse store.ErrNotFound into a zero value rather than an
// error -- absence is the expected initial state for those namespaces,
// exactly as the original treats its RocksDB NotFound variant as "use
// Default::default()". getPoolData, getMessage, getTicker and
// GetTxToBlockTx instead report absence to the caller.

func (u *Updater) getAssetList(outpoint types.Outpoint) (AssetList, error) {
	var out AssetList
	err := u.store.Get(store.AssetList, outpoint.String(), &out)
	if errors.Is(err, store.ErrNotFound) {
		return NewAssetList(), nil
	}
	if err != nil {
		return AssetList{}, err
	}
	return out, nil
}

func (u *Updater) setAssetList(outpoint types.Outpoint, list AssetList) error {
	if u.readOnly {
		return nil
	}
	return u.store.Put(store.AssetList, outpoint.String(), list)
}

func (u *Updater) deleteAssetList(outpoint types.Outpoint) error {
	if u.readOnly {
		return nil
	}
	return u.store.Delete(store.AssetList, outpoint.String())
}

func (u *Updater) getSpecContractOwned(outpoint types.Outpoint) (SpecContractOwned, error) {
	var out SpecContractOwned
	err := u.store.Get(store.SpecContractOwned, outpoint.String(), &out)
	if errors.Is(err, store.ErrNotFound) {
		return SpecContractOwned{}, nil
	}
	if err != nil {
		return SpecContractOwned{}, err
	}
	return out, nil
}

func (u *Updater) setSpecContractOwned(outpoint types.Outpoint, owned SpecContractOwned) error {
	if u.readOnly {
		return nil
	}
	return u.store.Put(store.SpecContractOwned, outpoint.String(), owned)
}

func (u *Updater) deleteSpecContractOwned(outpoint types.Outpoint) error {
	if u.readOnly {
		return nil
	}
	return u.store.Delete(store.SpecContractOwned, outpoint.String())
}

func (u *Updater) getAssetContractData(contractID types.BlockTx) (AssetContractData, error) {
	var out AssetContractData
	err := u.store.Get(store.AssetContractData, contractID.String(), &out)
	if errors.Is(err, store.ErrNotFound) {
		return AssetContractData{MintedSupply: types.Zero(), BurnedSupply: types.Zero()}, nil
	}
	if err != nil {
		return AssetContractData{}, err
	}
	return out, nil
}

func (u *Updater) setAssetContractData(contractID types.BlockTx, data AssetContractData) error {
	if u.readOnly {
		return nil
	}
	return u.store.Put(store.AssetContractData, contractID.String(), data)
}

func (u *Updater) getVestingContractData(contractID types.BlockTx) (VestingContractData, error) {
	var out VestingContractData
	err := u.store.Get(store.VestingContractData, contractID.String(), &out)
	if errors.Is(err, store.ErrNotFound) {
		return VestingContractData{ClaimedAllocations: map[string]types.U128{}}, nil
	}
	if err != nil {
		return VestingContractData{}, err
	}
	if out.ClaimedAllocations == nil {
		out.ClaimedAllocations = map[string]types.U128{}
	}
	return out, nil
}

func (u *Updater) setVestingContractData(contractID types.BlockTx, data VestingContractData) error {
	if u.readOnly {
		return nil
	}
	return u.store.Put(store.VestingContractData, contractID.String(), data)
}

func (u *Updater) getPoolData(contractID types.BlockTx) (PoolData, error) {
	var out PoolData
	err := u.store.Get(store.PoolData, contractID.String(), &out)
	if err != nil {
		return PoolData{}, err
	}
	return out, nil
}

func (u *Updater) setPoolData(contractID types.BlockTx, data PoolData) error {
	if u.readOnly {
		return nil
	}
	return u.store.Put(store.PoolData, contractID.String(), data)
}

func (u *Updater) getCollateralAccountsOwned(outpoint types.Outpoint) (CollateralAccountsOwned, error) {
	var out CollateralAccountsOwned
	err := u.store.Get(store.CollateralAccount, outpoint.String(), &out)
	if errors.Is(err, store.ErrNotFound) {
		return NewCollateralAccountsOwned(), nil
	}
	if err != nil {
		return CollateralAccountsOwned{}, err
	}
	if out.Accounts == nil {
		out.Accounts = map[string]CollateralAccount{}
	}
	return out, nil
}

func (u *Updater) setCollateralAccountsOwned(outpoint types.Outpoint, owned CollateralAccountsOwned) error {
	if u.readOnly {
		return nil
	}
	return u.store.Put(store.CollateralAccount, outpoint.String(), owned)
}

func (u *Updater) deleteCollateralAccountsOwned(outpoint types.Outpoint) error {
	if u.readOnly {
		return nil
	}
	return u.store.Delete(store.CollateralAccount, outpoint.String())
}

func (u *Updater) getMessage(contractID types.BlockTx) (MessageDataOutcome, *flaw.Flaw) {
	var out MessageDataOutcome
	err := u.store.Get(store.Message, contractID.String(), &out)
	if errors.Is(err, store.ErrNotFound) {
		return MessageDataOutcome{}, flaw.New(flaw.ContractNotFound)
	}
	if err != nil {
		return MessageDataOutcome{}, flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}
	return out, nil
}

func (u *Updater) setMessage(contractID types.BlockTx, outcome MessageDataOutcome) error {
	if u.readOnly {
		return nil
	}
	return u.store.Put(store.Message, contractID.String(), outcome)
}

func (u *Updater) getTicker(ticker string) (types.BlockTx, error) {
	var bt types.BlockTx
	err := u.store.Get(store.TickerToBlockTx, ticker, &bt)
	return bt, err
}

func (u *Updater) setTicker(ticker string, contractID types.BlockTx) error {
	if u.readOnly {
		return nil
	}
	return u.store.Put(store.TickerToBlockTx, ticker, contractID)
}

// GetTxToBlockTx resolves a txid to the BlockTx coordinate Index()
// recorded for it. Exported for the API package's /tx/{txid} route.
func (u *Updater) GetTxToBlockTx(txid string) (types.BlockTx, error) {
	var bt types.BlockTx
	err := u.store.Get(store.TxToBlockTx, txid, &bt)
	return bt, err
}

// GetMessage is the exported form of getMessage, for the API package.
func (u *Updater) GetMessage(contractID types.BlockTx) (MessageDataOutcome, error) {
	out, f := u.getMessage(contractID)
	if f != nil {
		return out, f
	}
	return out, nil
}

// GetTicker is the exported form of getTicker, for /blocktx/ticker.
func (u *Updater) GetTicker(ticker string) (types.BlockTx, error) {
	return u.getTicker(ticker)
}

// GetAssetList is the exported form of getAssetList, for /assets.
func (u *Updater) GetAssetList(outpoint types.Outpoint) (AssetList, error) {
	return u.getAssetList(outpoint)
}

// GetSpecContractOwned is the exported form, for /assets' state_keys.
func (u *Updater) GetSpecContractOwned(outpoint types.Outpoint) (SpecContractOwned, error) {
	return u.getSpecContractOwned(outpoint)
}

// GetAssetContractData is the exported form, for /asset-contract.
func (u *Updater) GetAssetContractData(contractID types.BlockTx) (AssetContractData, error) {
	return u.getAssetContractData(contractID)
}

// GetPoolData is the exported form, for /collateralized.
func (u *Updater) GetPoolData(contractID types.BlockTx) (PoolData, error) {
	return u.getPoolData(contractID)
}

// GetCollateralAccountsOwned is the exported form, for /assets' collateral
// account holdings at an outpoint.
func (u *Updater) GetCollateralAccountsOwned(outpoint types.Outpoint) (CollateralAccountsOwned, error) {
	return u.getCollateralAccountsOwned(outpoint)
}
