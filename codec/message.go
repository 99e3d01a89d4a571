// Package codec defines the OP_RETURN message grammar (spec.md §4.1) and
// the scanning logic that recovers it from a parsed Bitcoin transaction.
package codec

import (
	"encoding/json"
	"fmt"

	"glittr.dev/core/contracts"
	"glittr.dev/core/types"
)

// TxTypeTransfer moves a share of a previously-created asset's balance
// into one of the current transaction's outputs.
type TxTypeTransfer struct {
	Asset  types.BlockTx `json:"asset"`
	Output uint32        `json:"output"`
	Amount types.U128    `json:"amount"`
}

// Transfer is the "plain transfer" message variant: move balances between
// outputs with no contract interaction.
type Transfer struct {
	Transfers []TxTypeTransfer `json:"transfers"`
}

// ContractCreation instantiates a new Moa/Mba/Nft/Spec contract, optionally
// constrained to conform to a previously created Spec.
type ContractCreation struct {
	ContractType contracts.ContractType `json:"contract_type"`
	Spec         *types.BlockTx         `json:"spec,omitempty"`
}

// ContractCall invokes an existing contract (mint, burn, swap, account
// open/close, or NFT metadata update). A nil Contract resolves to the
// calling transaction's own BlockTx. A message that also carries a
// contract_creation runs only the creation, so its call is not executed.
type ContractCall struct {
	Contract *types.BlockTx `json:"contract,omitempty"`
	CallType CallType       `json:"call_type"`
}

// OpReturnMessage is the top-level sum type carried by a Glittr OP_RETURN
// output. At least one of Transfer, ContractCreation, ContractCall is set;
// when several are, the indexer acts only on the first of them in that
// order.
type OpReturnMessage struct {
	Transfer         *Transfer         `json:"transfer,omitempty"`
	ContractCreation *ContractCreation `json:"contract_creation,omitempty"`
	ContractCall     *ContractCall     `json:"contract_call,omitempty"`
}

// Kind names which variant is set, for logging.
func (m OpReturnMessage) Kind() string {
	switch {
	case m.Transfer != nil:
		return "transfer"
	case m.ContractCreation != nil:
		return "contract_creation"
	case m.ContractCall != nil:
		return "contract_call"
	default:
		return "empty"
	}
}

// CallType is the tagged union of operations a ContractCall can invoke.
type CallType struct {
	Mint         *MintBurnOption    `json:"-"`
	Burn         *MintBurnOption    `json:"-"`
	Swap         *SwapOption        `json:"-"`
	OpenAccount  *OpenAccountOption `json:"-"`
	CloseAccount *CloseAccountOption `json:"-"`
	UpdateNft    *UpdateNftOption   `json:"-"`
}

func (c CallType) MarshalJSON() ([]byte, error) {
	switch {
	case c.Mint != nil:
		return json.Marshal(map[string]*MintBurnOption{"mint": c.Mint})
	case c.Burn != nil:
		return json.Marshal(map[string]*MintBurnOption{"burn": c.Burn})
	case c.Swap != nil:
		return json.Marshal(map[string]*SwapOption{"swap": c.Swap})
	case c.OpenAccount != nil:
		return json.Marshal(map[string]*OpenAccountOption{"open_account": c.OpenAccount})
	case c.CloseAccount != nil:
		return json.Marshal(map[string]*CloseAccountOption{"close_account": c.CloseAccount})
	case c.UpdateNft != nil:
		return json.Marshal(map[string]*UpdateNftOption{"update_nft": c.UpdateNft})
	default:
		return nil, fmt.Errorf("call_type: empty")
	}
}

func (c *CallType) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("call_type: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("call_type: expected exactly one tag, got %d", len(raw))
	}
	if v, ok := raw["mint"]; ok {
		var o MintBurnOption
		if err := json.Unmarshal(v, &o); err != nil {
			return err
		}
		*c = CallType{Mint: &o}
		return nil
	}
	if v, ok := raw["burn"]; ok {
		var o MintBurnOption
		if err := json.Unmarshal(v, &o); err != nil {
			return err
		}
		*c = CallType{Burn: &o}
		return nil
	}
	if v, ok := raw["swap"]; ok {
		var o SwapOption
		if err := json.Unmarshal(v, &o); err != nil {
			return err
		}
		*c = CallType{Swap: &o}
		return nil
	}
	if v, ok := raw["open_account"]; ok {
		var o OpenAccountOption
		if err := json.Unmarshal(v, &o); err != nil {
			return err
		}
		*c = CallType{OpenAccount: &o}
		return nil
	}
	if v, ok := raw["close_account"]; ok {
		var o CloseAccountOption
		if err := json.Unmarshal(v, &o); err != nil {
			return err
		}
		*c = CallType{CloseAccount: &o}
		return nil
	}
	if v, ok := raw["update_nft"]; ok {
		var o UpdateNftOption
		if err := json.Unmarshal(v, &o); err != nil {
			return err
		}
		*c = CallType{UpdateNft: &o}
		return nil
	}
	return fmt.Errorf("call_type: unknown tag")
}

// Kind names the invoked operation, for logging/metrics.
func (c CallType) Kind() string {
	switch {
	case c.Mint != nil:
		return "mint"
	case c.Burn != nil:
		return "burn"
	case c.Swap != nil:
		return "swap"
	case c.OpenAccount != nil:
		return "open_account"
	case c.CloseAccount != nil:
		return "close_account"
	case c.UpdateNft != nil:
		return "update_nft"
	default:
		return "unknown"
	}
}

// AssertValues lets a caller demand the executor's computed values match
// what they expected before committing, aborting the call with a Flaw
// instead of silently accepting a different outcome (e.g. slippage).
type AssertValues struct {
	InputValues          []types.U128 `json:"input_values,omitempty"`
	TotalCollateralized  []types.U128 `json:"total_collateralized,omitempty"`
	MinOutValue          *types.U128  `json:"min_out_value,omitempty"`
}

// CommitmentMessage reveals a previously committed (pubkey, args) pair,
// authorizing e.g. an NFT access-key claim.
type CommitmentMessage struct {
	PublicKey []byte `json:"public_key"`
	Args      []byte `json:"args"`
}

// MintBurnOption parameterizes a mint or burn call.
type MintBurnOption struct {
	Pointer            *uint32             `json:"pointer,omitempty"`
	OracleMessage      *OracleMessageSigned `json:"oracle_message,omitempty"`
	PointerToKey       *uint32             `json:"pointer_to_key,omitempty"`
	AssertValues       *AssertValues       `json:"assert_values,omitempty"`
	CommitmentMessage  *CommitmentMessage  `json:"commitment_message,omitempty"`
}

// SwapOption parameterizes an AMM swap call.
type SwapOption struct {
	Pointer      uint32        `json:"pointer"`
	AssertValues *AssertValues `json:"assert_values,omitempty"`
}

// OpenAccountOption opens a collateral account, crediting it with
// share_amount against the caller's deposited inputs.
type OpenAccountOption struct {
	PointerToKey uint32     `json:"pointer_to_key"`
	ShareAmount  types.U128 `json:"share_amount"`
}

// CloseAccountOption fully closes and pays out a collateral account.
type CloseAccountOption struct {
	Pointer uint32 `json:"pointer"`
}

// UpdateNftOption amends an NFT contract's whitelist, marketplace fee
// addresses, or access-key pointer.
type UpdateNftOption struct {
	WhitelistAddressBloomFilter  []byte   `json:"whitelist_address_bloom_filter,omitempty"`
	TrustedMarketplaceFeeAddrs   []string `json:"trusted_marketplace_fee_addresses,omitempty"`
	AccessKeyPointer             *uint64  `json:"access_key_pointer,omitempty"`
}

// OracleMessage is the payload an oracle signs to authorize a single
// purchase/collateralized call: a valuation of the input at a given block
// height, optionally scoped to a specific asset and outpoint.
type OracleMessage struct {
	InputOutpoint *types.Outpoint `json:"input_outpoint,omitempty"`
	MinInValue    *types.U128     `json:"min_in_value,omitempty"`
	OutValue      *types.U128     `json:"out_value,omitempty"`
	AssetID       *string         `json:"asset_id,omitempty"`
	Ratio         *types.Fraction `json:"ratio,omitempty"`
	Ltv           *types.Fraction `json:"ltv,omitempty"`
	Outstanding   *types.U128     `json:"outstanding,omitempty"`
	BlockHeight   uint64          `json:"block_height"`
}

// OracleMessageSigned pairs an OracleMessage with the Schnorr signature
// over its canonical JSON encoding (see oracle.Verify).
type OracleMessageSigned struct {
	Signature []byte        `json:"signature"`
	Message   OracleMessage `json:"message"`
}
