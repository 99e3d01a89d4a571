package contracts

import "glittr.dev/core/types"

// MOAMintMechanisms is the mutually-exclusive set of ways a Mint-Only
// Asset contract can be minted. Exactly one should be set at creation.
type MOAMintMechanisms struct {
	FreeMint     *FreeMint     `json:"free_mint,omitempty"`
	Preallocated *Preallocated `json:"preallocated,omitempty"`
	Purchase     *Purchase     `json:"purchase,omitempty"`
}

// MintOnlyAssetContract is a fungible asset that can only be minted,
// never burned. See spec.md §3.
type MintOnlyAssetContract struct {
	Ticker        *string           `json:"ticker,omitempty"`
	SupplyCap     *types.U128       `json:"supply_cap,omitempty"`
	Divisibility  uint8             `json:"divisibility"`
	LiveTime      uint64            `json:"live_time"`
	EndTime       *uint64           `json:"end_time,omitempty"`
	MintMechanism MOAMintMechanisms `json:"mint_mechanism"`
	Commitment    *Commitment       `json:"commitment,omitempty"`
}
