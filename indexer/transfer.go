package indexer

import (
	"github.com/btcsuite/btcd/wire"

	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/flaw"
)

// validateMessage runs the static Validator (spec.md §4.2) against a
// contract_creation payload; transfer and contract_call messages have no
// static shape to check beyond what the codec already enforced.
func (u *Updater) validateMessage(message *codec.OpReturnMessage) *flaw.Flaw {
	if message.ContractCreation == nil {
		return nil
	}
	return contracts.ValidateContractType(message.ContractCreation.ContractType)
}

// transfers executes a plain Transfer message (spec.md §4.4.1): each
// transfer moves up to amount of asset from the unallocated bucket into
// output. A transfer naming an out-of-range output is collected as an
// OutputOverflow rather than aborting the rest -- every other transfer in
// the same message still executes.
func (u *Updater) transfers(tx *wire.MsgTx, transfers []codec.TxTypeTransfer) *flaw.Flaw {
	var overflow []uint32

	for i, t := range transfers {
		if int(t.Output) >= len(tx.TxOut) {
			overflow = append(overflow, uint32(i))
			continue
		}
		u.bucket.moveAsset(t.Output, t.Asset, t.Amount)
	}

	if len(overflow) > 0 {
		return flaw.OutputOverflowAt(overflow)
	}
	return nil
}
