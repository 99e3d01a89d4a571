package indexer

import (
	"github.com/btcsuite/btcd/wire"

	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/flaw"
	"glittr.dev/core/types"
)

// resolveContract loads the contract_creation payload a call targets,
// translating any lookup failure into ReferencingFlawedBlockTx (the call
// itself is well-formed; its target is the problem).
func (u *Updater) resolveContract(contractID types.BlockTx) (contracts.ContractType, *flaw.Flaw) {
	outcome, f := u.getMessage(contractID)
	if f != nil {
		return contracts.ContractType{}, flaw.New(flaw.ReferencingFlawedBlockTx)
	}
	if outcome.Message == nil || outcome.Message.ContractCreation == nil {
		return contracts.ContractType{}, flaw.New(flaw.ContractNotMatch)
	}
	return outcome.Message.ContractCreation.ContractType, nil
}

// checkLiveTime enforces a contract's live_time/end_time window.
func checkLiveTime(liveTime uint64, endTime *uint64, currentBlock uint64) *flaw.Flaw {
	if currentBlock < liveTime {
		return flaw.New(flaw.LiveTimeNotReached)
	}
	if endTime != nil && currentBlock >= *endTime {
		return flaw.New(flaw.LiveTimeExpired)
	}
	return nil
}

func (u *Updater) executeContractCall(tx *wire.MsgTx, blockTx types.BlockTx, contractID types.BlockTx, call *codec.ContractCall) *flaw.Flaw {
	ct, f := u.resolveContract(contractID)
	if f != nil {
		return f
	}

	switch {
	case call.CallType.Mint != nil:
		return u.mint(tx, blockTx, contractID, ct, call.CallType.Mint)
	case call.CallType.Burn != nil:
		return u.burn(tx, blockTx, contractID, ct, call.CallType.Burn)
	case call.CallType.Swap != nil:
		return u.swap(tx, blockTx, contractID, ct, call.CallType.Swap)
	case call.CallType.OpenAccount != nil:
		return u.openAccount(tx, contractID, ct, call.CallType.OpenAccount)
	case call.CallType.CloseAccount != nil:
		return u.closeAccount(tx, contractID, ct, call.CallType.CloseAccount)
	case call.CallType.UpdateNft != nil:
		return u.updateNft(contractID, ct, call.CallType.UpdateNft)
	default:
		return flaw.New(flaw.NotImplemented)
	}
}
