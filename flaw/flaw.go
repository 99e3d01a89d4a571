// Package flaw defines the closed set of reasons a Glittr message can fail.
// A Flaw never becomes a process error: it terminates the current
// message's state effects but the transaction's input-consumption and the
// outcome itself are still recorded.
package flaw

import "fmt"

type Kind string

const (
	// Codec-level (parse) flaws.
	NonGlittrMessage    Kind = "non_glittr_message"
	InvalidScript       Kind = "invalid_script"
	InvalidInstruction  Kind = "invalid_instruction"
	FailedDeserialization Kind = "failed_deserialization"

	// Static validation flaws.
	MessageInvalid Kind = "message_invalid"

	// Contract lookup / creation flaws.
	ContractNotFound        Kind = "contract_not_found"
	TickerAlreadyExists     Kind = "ticker_already_exists"
	ReferencingFlawedBlockTx Kind = "referencing_flawed_block_tx"
	SpecContractViolation   Kind = "spec_contract_violation"
	SpecNotOwned            Kind = "spec_not_owned"
	ContractNotMatch        Kind = "contract_not_match"
	InvalidContractType     Kind = "invalid_contract_type"

	// Mint/burn timing and supply flaws.
	LiveTimeNotReached Kind = "live_time_not_reached"
	LiveTimeExpired    Kind = "live_time_expired"
	SupplyCapExceeded  Kind = "supply_cap_exceeded"

	// Pointer / allocation flaws.
	PointerOverflow  Kind = "pointer_overflow"
	InvalidPointer   Kind = "invalid_pointer"
	PointerKeyNotFound Kind = "pointer_key_not_found"
	OutputOverflow   Kind = "output_overflow"

	// Value flaws.
	InsufficientInputAmount  Kind = "insufficient_input_amount"
	InsufficientOutputAmount Kind = "insufficient_output_amount"
	BurnValueIncorrect       Kind = "burn_value_incorrect"
	OutValueNotFound         Kind = "out_value_not_found"

	// Oracle flaws.
	OracleMintFailed Kind = "oracle_mint_failed"
	OracleMintStale  Kind = "oracle_mint_stale"

	// Collateralized / AMM flaws.
	PoolNotFound              Kind = "pool_not_found"
	CollateralAccountNotFound Kind = "collateral_account_not_found"
	LtvMustBeUpdated          Kind = "ltv_must_be_updated"
	OutstandingMustBeUpdated  Kind = "outstanding_must_be_updated"

	NotImplemented Kind = "not_implemented"
)

// Flaw is a typed, enumerated reason a message failed. It implements
// error so it can be returned and wrapped like any other Go error, but
// callers that need to branch on the reason should type-switch or
// compare Kind directly.
type Flaw struct {
	Kind Kind
	// Indices holds OutputOverflow's list of failing transfer indices.
	Indices []uint32
	// Detail carries a short human-readable elaboration, never load-bearing.
	Detail string
}

func New(kind Kind) *Flaw {
	return &Flaw{Kind: kind}
}

func Newf(kind Kind, format string, args ...any) *Flaw {
	return &Flaw{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func OutputOverflowAt(indices []uint32) *Flaw {
	return &Flaw{Kind: OutputOverflow, Indices: indices}
}

func (f *Flaw) Error() string {
	if f == nil {
		return "<nil flaw>"
	}
	if f.Detail == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// Is lets errors.Is match two flaws by Kind alone, ignoring detail/indices.
func (f *Flaw) Is(target error) bool {
	other, ok := target.(*Flaw)
	if !ok {
		return false
	}
	return f.Kind == other.Kind
}
