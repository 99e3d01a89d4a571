// Package contracts defines the four contract variants (MOA, MBA, NFT,
// Spec) named in spec.md §3, their mint/burn mechanism sub-structures,
// and the static (store-free) validation rules from spec.md §4.2.
package contracts

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"glittr.dev/core/types"
)

// hostChainParams lists every network a purchase/fee address in a
// message might be encoded for; static validation accepts an address
// recognized under any of them, since the contract itself doesn't
// carry a network tag.
var hostChainParams = []*chaincfg.Params{
	&chaincfg.MainNetParams,
	&chaincfg.TestNet3Params,
	&chaincfg.RegressionNetParams,
	&chaincfg.SimNetParams,
}

// IsValidHostChainAddress reports whether addr decodes as a well-formed
// address under any known host-chain network.
func IsValidHostChainAddress(addr string) bool {
	for _, params := range hostChainParams {
		if _, err := btcutil.DecodeAddress(addr, params); err == nil {
			return true
		}
	}
	return false
}

const MaxDivisibility = 18

// FreeMint is the simplest MOA/MBA mint mechanism: every call credits a
// fixed amount_per_mint, gated only by an optional supply cap.
type FreeMint struct {
	SupplyCap     *types.U128 `json:"supply_cap,omitempty"`
	AmountPerMint types.U128  `json:"amount_per_mint"`
}

// VestingPlan describes how much of an address's total allocation has
// unlocked by a given block height. Linear is the only shape the
// original implements; Immediate unlocks everything at live_time.
type VestingPlan struct {
	Immediate *struct{}          `json:"immediate,omitempty"`
	Linear    *LinearVestingPlan `json:"linear,omitempty"`
}

type LinearVestingPlan struct {
	StartBlock uint64 `json:"start_block"`
	EndBlock   uint64 `json:"end_block"`
}

// EntitlementAt returns the amount of `total` unlocked at `block`.
func (p VestingPlan) EntitlementAt(block uint64, total types.U128) types.U128 {
	if p.Immediate != nil {
		return total
	}
	if p.Linear == nil {
		return types.Zero()
	}
	if block <= p.Linear.StartBlock {
		return types.Zero()
	}
	if block >= p.Linear.EndBlock || p.Linear.EndBlock <= p.Linear.StartBlock {
		return total
	}
	elapsed := block - p.Linear.StartBlock
	span := p.Linear.EndBlock - p.Linear.StartBlock
	return total.MulDiv(types.FromUint64(elapsed), types.FromUint64(span))
}

// Preallocated mints to recipients named in Allocations under a vesting
// plan. The indexer takes the recipient from the mint call's
// commitment_message public key and checks no oracle signature over that
// commitment. Allocations is the per-address total
// entitlement fixed at creation time (its sum must not exceed
// supply_cap); claimed_allocations (runtime state, see indexer package)
// tracks how much of each address's entitlement has already been
// credited.
type Preallocated struct {
	Allocations map[string]types.U128 `json:"allocations"`
	VestingPlan VestingPlan           `json:"vesting_plan"`
}

// AllocationsSum totals every address's entitlement.
func (p Preallocated) AllocationsSum() types.U128 {
	sum := types.Zero()
	for _, v := range p.Allocations {
		sum = sum.Add(v)
	}
	return sum
}

// InputAsset is the tagged union of what a Purchase/Collateralized
// mechanism accepts as payment: raw host-chain BTC, another Glittr
// asset contract, or an as-yet-unspecified metaprotocol input.
type InputAsset struct {
	RawBTC       bool          `json:"-"`
	GlittrAsset  *types.BlockTx `json:"-"`
	Metaprotocol bool          `json:"-"`
}

func (a InputAsset) MarshalJSON() ([]byte, error) {
	switch {
	case a.GlittrAsset != nil:
		return json.Marshal(map[string]types.BlockTx{"glittr_asset": *a.GlittrAsset})
	case a.Metaprotocol:
		return json.Marshal("metaprotocol")
	default:
		return json.Marshal("raw_btc")
	}
}

func (a *InputAsset) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch tag {
		case "raw_btc":
			*a = InputAsset{RawBTC: true}
			return nil
		case "metaprotocol":
			*a = InputAsset{Metaprotocol: true}
			return nil
		default:
			return fmt.Errorf("input_asset: unknown tag %q", tag)
		}
	}
	var obj map[string]types.BlockTx
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("input_asset: %w", err)
	}
	bt, ok := obj["glittr_asset"]
	if !ok {
		return fmt.Errorf("input_asset: expected glittr_asset key")
	}
	*a = InputAsset{GlittrAsset: &bt}
	return nil
}

func (a InputAsset) IsWellFormed() bool {
	count := 0
	if a.RawBTC {
		count++
	}
	if a.GlittrAsset != nil {
		count++
	}
	if a.Metaprotocol {
		count++
	}
	return count == 1
}

// TransferScheme names where the payment must land: burned (sent to an
// OP_RETURN / unspendable output) or purchased (sent to a fixed address).
type TransferScheme struct {
	Burn           bool    `json:"-"`
	PurchaseAddress *string `json:"-"`
}

func (s TransferScheme) MarshalJSON() ([]byte, error) {
	if s.PurchaseAddress != nil {
		return json.Marshal(map[string]string{"purchase": *s.PurchaseAddress})
	}
	return json.Marshal("burn")
}

func (s *TransferScheme) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag == "burn" {
			*s = TransferScheme{Burn: true}
			return nil
		}
		return fmt.Errorf("transfer_scheme: unknown tag %q", tag)
	}
	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("transfer_scheme: %w", err)
	}
	addr, ok := obj["purchase"]
	if !ok {
		return fmt.Errorf("transfer_scheme: expected purchase key")
	}
	*s = TransferScheme{PurchaseAddress: &addr}
	return nil
}

// OracleSetting names the public key authorized to sign valuations for
// a given asset_id, and the staleness window those signatures must fall
// within.
type OracleSetting struct {
	Pubkey       []byte  `json:"pubkey"`
	AssetID      *string `json:"asset_id,omitempty"`
	MaxStaleness *uint64 `json:"max_staleness,omitempty"`
}

func (s OracleSetting) IsWellFormed() bool {
	return len(s.Pubkey) > 0
}

// TransferRatioType is Fixed (a constant ratio) or Oracle (a signed,
// per-call valuation).
type TransferRatioType struct {
	Fixed  *types.Fraction `json:"-"`
	Oracle *OracleRatio    `json:"-"`
}

type OracleRatio struct {
	Pubkey  []byte        `json:"pubkey"`
	Setting OracleSetting `json:"setting"`
}

func (t TransferRatioType) MarshalJSON() ([]byte, error) {
	switch {
	case t.Fixed != nil:
		return json.Marshal(map[string]types.Fraction{"fixed": *t.Fixed})
	case t.Oracle != nil:
		return json.Marshal(map[string]OracleRatio{"oracle": *t.Oracle})
	default:
		return nil, fmt.Errorf("transfer_ratio_type: empty")
	}
}

func (t *TransferRatioType) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("transfer_ratio_type: %w", err)
	}
	if v, ok := raw["fixed"]; ok {
		var f types.Fraction
		if err := json.Unmarshal(v, &f); err != nil {
			return err
		}
		*t = TransferRatioType{Fixed: &f}
		return nil
	}
	if v, ok := raw["oracle"]; ok {
		var o OracleRatio
		if err := json.Unmarshal(v, &o); err != nil {
			return err
		}
		*t = TransferRatioType{Oracle: &o}
		return nil
	}
	return fmt.Errorf("transfer_ratio_type: unknown shape")
}

// Purchase lets holders mint by sending a recognized payment.
type Purchase struct {
	InputAsset        InputAsset        `json:"input_asset"`
	TransferScheme    TransferScheme    `json:"transfer_scheme"`
	TransferRatioType TransferRatioType `json:"transfer_ratio_type"`
}

// Commitment gates contract creation/call on a commitment reveal keyed
// by a public key (used by NFTs' access-key pointer flow).
type Commitment struct {
	PublicKey []byte `json:"public_key"`
	Args      []byte `json:"args"`
}
