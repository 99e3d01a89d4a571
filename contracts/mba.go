package contracts

import (
	"encoding/json"
	"fmt"

	"glittr.dev/core/types"
)

// RatioModel selects the AMM invariant a Proportional collateralized
// mechanism enforces.
type RatioModel string

const (
	ConstantProduct RatioModel = "constant_product"
	ConstantSum     RatioModel = "constant_sum"
)

// RatioType gates minting/burning on a single oracle-signed (or fixed)
// valuation of the deposited/withdrawn collateral.
type RatioType struct {
	Fixed  *types.Fraction `json:"-"`
	Oracle *OracleRatio    `json:"-"`
}

func (r RatioType) MarshalJSON() ([]byte, error) {
	switch {
	case r.Fixed != nil:
		return json.Marshal(map[string]types.Fraction{"fixed": *r.Fixed})
	case r.Oracle != nil:
		return json.Marshal(map[string]OracleRatio{"oracle": *r.Oracle})
	default:
		return nil, fmt.Errorf("ratio_type: empty")
	}
}

func (r *RatioType) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ratio_type: %w", err)
	}
	if v, ok := raw["fixed"]; ok {
		var f types.Fraction
		if err := json.Unmarshal(v, &f); err != nil {
			return err
		}
		*r = RatioType{Fixed: &f}
		return nil
	}
	if v, ok := raw["oracle"]; ok {
		var o OracleRatio
		if err := json.Unmarshal(v, &o); err != nil {
			return err
		}
		*r = RatioType{Oracle: &o}
		return nil
	}
	return fmt.Errorf("ratio_type: unknown shape")
}

// ProportionalType is an AMM deposit/withdraw mechanism governed by
// either the constant-product or constant-sum invariant.
type ProportionalType struct {
	RatioModel RatioModel `json:"ratio_model"`
}

// AccountType configures a collateral-account (borrow/lend) mechanism.
type AccountType struct{}

// MintStructure is the mutually-exclusive shape a Collateralized
// mechanism takes.
type MintStructure struct {
	Ratio        *RatioType        `json:"ratio,omitempty"`
	Proportional *ProportionalType `json:"proportional,omitempty"`
	Account      *AccountType      `json:"account,omitempty"`
}

// Collateralized is the MBA mint mechanism backing new supply with one
// or two deposited assets (AMM pool or collateral account).
type Collateralized struct {
	InputAssets   []InputAsset  `json:"input_assets"`
	MintStructure MintStructure `json:"mint_structure"`
}

// MBAMintMechanisms mirrors MOAMintMechanisms plus the Collateralized
// variant unique to mint-burn assets.
type MBAMintMechanisms struct {
	FreeMint       *FreeMint       `json:"free_mint,omitempty"`
	Preallocated   *Preallocated   `json:"preallocated,omitempty"`
	Purchase       *Purchase       `json:"purchase,omitempty"`
	Collateralized *Collateralized `json:"collateralized,omitempty"`
}

// ReturnCollateral configures what a burn call returns: either a fixed/
// oracle ratio valuation, the pool's proportional share, or a
// collateral-account's full payoff.
type ReturnCollateral struct {
	OracleSetting *OracleSetting `json:"oracle_setting,omitempty"`
}

type BurnMechanism struct {
	ReturnCollateral *ReturnCollateral `json:"return_collateral,omitempty"`
}

// MintBurnAssetContract is a fungible asset that can be both minted and
// burned, optionally collateralized by one or two other assets.
type MintBurnAssetContract struct {
	Ticker        *string           `json:"ticker,omitempty"`
	SupplyCap     *types.U128       `json:"supply_cap,omitempty"`
	Divisibility  uint8             `json:"divisibility"`
	LiveTime      uint64            `json:"live_time"`
	EndTime       *uint64           `json:"end_time,omitempty"`
	MintMechanism MBAMintMechanisms `json:"mint_mechanism"`
	BurnMechanism BurnMechanism     `json:"burn_mechanism"`
	Commitment    *Commitment       `json:"commitment,omitempty"`
}
