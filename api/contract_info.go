package api

import (
	"glittr.dev/core/contracts"
	"glittr.dev/core/indexer"
	"glittr.dev/core/types"
)

// MintType summarizes which mint mechanism a contract uses, without
// echoing the full mechanism body -- the same shape the original's
// ContractInfo carries for wallets that just need to classify a
// contract, not fully decode it.
type MintType struct {
	Preallocated    bool                  `json:"preallocated,omitempty"`
	FreeMint        bool                  `json:"free_mint,omitempty"`
	PurchaseOrBurn  bool                  `json:"purchase_or_burn,omitempty"`
	Collateralized  *CollateralizedSimple `json:"collateralized,omitempty"`
}

type CollateralizedSimple struct {
	Assets []InputAssetSimple `json:"assets"`
}

type InputAssetSimple struct {
	ContractID string  `json:"contract_id"`
	Ticker     *string `json:"ticker,omitempty"`
	Divisibility uint8 `json:"divisibility"`
}

// ContractInfo is the compact per-contract summary the API attaches to its
// responses: /assets only when show_contract_info=true, /asset-contract
// and /collateralized always.
type ContractInfo struct {
	Ticker       *string     `json:"ticker,omitempty"`
	SupplyCap    *types.U128 `json:"supply_cap,omitempty"`
	Divisibility *uint8      `json:"divisibility,omitempty"`
	TotalSupply  types.U128  `json:"total_supply"`
	Type         *MintType   `json:"type,omitempty"`
	Asset        []byte      `json:"asset,omitempty"`
}

// buildContractInfo reads a contract's creation message plus its
// running totals and assembles the summary. ok is false when
// contractID doesn't name a Moa/Mba/Nft contract creation.
func buildContractInfo(u *indexer.Updater, contractID types.BlockTx) (ContractInfo, bool) {
	outcome, err := u.GetMessage(contractID)
	if err != nil || outcome.Message == nil || outcome.Message.ContractCreation == nil {
		return ContractInfo{}, false
	}
	ct := outcome.Message.ContractCreation.ContractType

	switch {
	case ct.Moa != nil:
		data, _ := u.GetAssetContractData(contractID)
		div := ct.Moa.Divisibility
		return ContractInfo{
			Ticker:       ct.Moa.Ticker,
			SupplyCap:    ct.Moa.SupplyCap,
			Divisibility: &div,
			TotalSupply:  data.MintedSupply,
			Type:         mintTypeOf(ct.Moa.MintMechanism.FreeMint != nil, ct.Moa.MintMechanism.Preallocated != nil, ct.Moa.MintMechanism.Purchase != nil, nil),
		}, true
	case ct.Mba != nil:
		data, _ := u.GetAssetContractData(contractID)
		div := ct.Mba.Divisibility
		return ContractInfo{
			Ticker:       ct.Mba.Ticker,
			SupplyCap:    ct.Mba.SupplyCap,
			Divisibility: &div,
			TotalSupply:  data.MintedSupply.Sub(data.BurnedSupply),
			Type: mintTypeOf(
				ct.Mba.MintMechanism.FreeMint != nil,
				ct.Mba.MintMechanism.Preallocated != nil,
				ct.Mba.MintMechanism.Purchase != nil,
				ct.Mba.MintMechanism.Collateralized,
			),
		}, true
	case ct.Nft != nil:
		return ContractInfo{
			TotalSupply: types.FromUint64(1),
			Asset:       ct.Nft.Asset,
		}, true
	default:
		return ContractInfo{}, false
	}
}

func mintTypeOf(freeMint, preallocated, purchase bool, collateralized *contracts.Collateralized) *MintType {
	if !freeMint && !preallocated && !purchase && collateralized == nil {
		return nil
	}
	mt := &MintType{FreeMint: freeMint, Preallocated: preallocated, PurchaseOrBurn: purchase}
	if collateralized != nil {
		assets := make([]InputAssetSimple, 0, len(collateralized.InputAssets))
		for _, ia := range collateralized.InputAssets {
			if ia.GlittrAsset == nil {
				continue
			}
			assets = append(assets, InputAssetSimple{ContractID: ia.GlittrAsset.String()})
		}
		mt.Collateralized = &CollateralizedSimple{Assets: assets}
	}
	return mt
}
