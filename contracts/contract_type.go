package contracts

import (
	"encoding/json"
	"fmt"

	"glittr.dev/core/types"
)

// ContractType is the tagged union of the four contract variants a
// contract_creation message can carry. Exactly one field is set.
type ContractType struct {
	Moa  *MintOnlyAssetContract  `json:"-"`
	Mba  *MintBurnAssetContract  `json:"-"`
	Spec *SpecContract           `json:"-"`
	Nft  *NftAssetContract       `json:"-"`
}

func (c ContractType) MarshalJSON() ([]byte, error) {
	switch {
	case c.Moa != nil:
		return json.Marshal(map[string]*MintOnlyAssetContract{"moa": c.Moa})
	case c.Mba != nil:
		return json.Marshal(map[string]*MintBurnAssetContract{"mba": c.Mba})
	case c.Spec != nil:
		return json.Marshal(map[string]*SpecContract{"spec": c.Spec})
	case c.Nft != nil:
		return json.Marshal(map[string]*NftAssetContract{"nft": c.Nft})
	default:
		return nil, fmt.Errorf("contract_type: empty")
	}
}

func (c *ContractType) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("contract_type: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("contract_type: expected exactly one tag, got %d", len(raw))
	}
	if v, ok := raw["moa"]; ok {
		var m MintOnlyAssetContract
		if err := json.Unmarshal(v, &m); err != nil {
			return err
		}
		*c = ContractType{Moa: &m}
		return nil
	}
	if v, ok := raw["mba"]; ok {
		var m MintBurnAssetContract
		if err := json.Unmarshal(v, &m); err != nil {
			return err
		}
		*c = ContractType{Mba: &m}
		return nil
	}
	if v, ok := raw["spec"]; ok {
		var s SpecContract
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		*c = ContractType{Spec: &s}
		return nil
	}
	if v, ok := raw["nft"]; ok {
		var n NftAssetContract
		if err := json.Unmarshal(v, &n); err != nil {
			return err
		}
		*c = ContractType{Nft: &n}
		return nil
	}
	return fmt.Errorf("contract_type: unknown tag")
}

// Kind returns a short label for logging/diagnostics.
func (c ContractType) Kind() string {
	switch {
	case c.Moa != nil:
		return "moa"
	case c.Mba != nil:
		return "mba"
	case c.Spec != nil:
		return "spec"
	case c.Nft != nil:
		return "nft"
	default:
		return "unknown"
	}
}

// SpecContract is a template/constraint object. With BlockTx == nil it
// creates a new spec; with BlockTx set it updates the spec it names,
// provided the caller's input bucket owns it (spec.md §4.4.2).
type SpecContract struct {
	BlockTx      *types.BlockTx `json:"block_tx,omitempty"`
	ContractType *ContractType  `json:"contract_type,omitempty"`
}
