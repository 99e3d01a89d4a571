package indexer

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"

	"glittr.dev/core/codec"
	"glittr.dev/core/flaw"
	"glittr.dev/core/store"
	"glittr.dev/core/types"
)

// Updater carries allocation-engine state across the Codec -> Validator
// -> Executor -> Allocation pipeline (spec.md §4) and writes the results
// to the store. Each record is written by its own store.Put, so the
// writes of one transaction are not committed as a single atomic unit.
//
// The driver creates one Updater per block and indexes every transaction
// of that block through it; the bucket is reset when a transaction's
// outputs are committed, so only what was written to the store carries
// over to the next transaction.
type Updater struct {
	store      *store.Store
	readOnly   bool
	currentTip uint64

	bucket *bucket
}

// NewUpdater constructs an Updater bound to db. readOnly suppresses all
// writes, for the /validate-tx simulation endpoint (spec.md §6).
func NewUpdater(db *store.Store, readOnly bool) *Updater {
	return &Updater{store: db, readOnly: readOnly, bucket: newBucket()}
}

func outpointOf(op wire.OutPoint) types.Outpoint {
	return types.Outpoint{Txid: op.Hash.String(), Vout: op.Index}
}

// outpointAmongInputs reports whether op is one of tx's spent outpoints,
// the membership check oracle-gated mint/burn calls run against
// input_outpoint before trusting a signed valuation.
func outpointAmongInputs(tx *wire.MsgTx, op types.Outpoint) bool {
	for _, in := range tx.TxIn {
		if outpointOf(in.PreviousOutPoint) == op {
			return true
		}
	}
	return false
}

func isOpReturnOutput(out *wire.TxOut) bool {
	tokenizer := txscript.MakeScriptTokenizer(0, out.PkScript)
	return tokenizer.Next() && tokenizer.Opcode() == txscript.OP_RETURN
}

func firstNonOpReturnIndex(tx *wire.MsgTx) (uint32, bool) {
	for i, out := range tx.TxOut {
		if !isOpReturnOutput(out) {
			return uint32(i), true
		}
	}
	return 0, false
}

func (u *Updater) validatePointer(pointer uint32, tx *wire.MsgTx) *flaw.Flaw {
	if int(pointer) >= len(tx.TxOut) {
		return flaw.New(flaw.PointerOverflow)
	}
	if isOpReturnOutput(tx.TxOut[pointer]) {
		return flaw.New(flaw.InvalidPointer)
	}
	return nil
}

// unallocateInputs pours every input outpoint's recorded asset balance
// and spec ownership into the unallocated bucket, then deletes the
// per-outpoint record (it has now moved into this transaction's scope).
func (u *Updater) unallocateInputs(tx *wire.MsgTx) error {
	for _, in := range tx.TxIn {
		outpoint := outpointOf(in.PreviousOutPoint)

		assetList, err := u.getAssetList(outpoint)
		if err != nil {
			return err
		}
		for key, amount := range assetList.List {
			u.bucket.unallocated.assetList.credit(key, amount)
		}
		if len(assetList.List) > 0 {
			if err := u.deleteAssetList(outpoint); err != nil {
				return err
			}
		}

		specOwned, err := u.getSpecContractOwned(outpoint)
		if err != nil {
			return err
		}
		u.bucket.unallocated.specOwned.Specs = append(u.bucket.unallocated.specOwned.Specs, specOwned.Specs...)
		if len(specOwned.Specs) > 0 {
			if err := u.deleteSpecContractOwned(outpoint); err != nil {
				return err
			}
		}

		accountsOwned, err := u.getCollateralAccountsOwned(outpoint)
		if err != nil {
			return err
		}
		for key, acct := range accountsOwned.Accounts {
			u.bucket.unallocated.collateralAccounts[key] = acct
			u.bucket.collateralOrigin[key] = outpoint
		}
		if len(accountsOwned.Accounts) > 0 {
			if err := u.deleteCollateralAccountsOwned(outpoint); err != nil {
				return err
			}
		}
	}
	return nil
}

// commitOutputs moves whatever remains unallocated to the first
// non-OP_RETURN output (the fallback-vout policy — spec.md §9 Open
// Question, decided in DESIGN.md), then persists every touched output's
// final allocation and resets the bucket for the next transaction.
func (u *Updater) commitOutputs(tx *wire.MsgTx) error {
	if vout, ok := firstNonOpReturnIndex(tx); ok {
		for key, amount := range u.bucket.unallocated.assetList.List {
			contractID, err := types.ParseBlockTx(key)
			if err != nil {
				continue
			}
			u.bucket.moveAsset(vout, contractID, amount)
		}
		for _, specID := range u.bucket.unallocated.specOwned.Specs {
			u.bucket.allocateNewSpec(vout, specID)
		}
	} else {
		logrus.Info("indexer: no non-op_return output, unallocated outputs are lost")
	}

	// Collateral accounts never fall back to a default output (spec.md
	// §4.3): a caller that fails to name pointer_to_key simply loses the
	// account, unlike asset balances and spec ownership above.
	if len(u.bucket.unallocated.collateralAccounts) > 0 {
		logrus.WithField("count", len(u.bucket.unallocated.collateralAccounts)).
			Info("indexer: unclaimed collateral accounts dropped, no fallback")
	}

	txid := tx.TxHash().String()
	for vout, a := range u.bucket.allocated {
		outpoint := types.Outpoint{Txid: txid, Vout: vout}
		if err := u.setAssetList(outpoint, a.assetList); err != nil {
			return err
		}
		if err := u.setSpecContractOwned(outpoint, a.specOwned); err != nil {
			return err
		}
		if len(a.collateralAccounts) > 0 {
			if err := u.setCollateralAccountsOwned(outpoint, CollateralAccountsOwned{Accounts: a.collateralAccounts}); err != nil {
				return err
			}
		}
	}

	u.bucket.reset()
	return nil
}

// Index runs one transaction through the full pipeline: parse, statically
// validate, dispatch to the relevant executor, then persist the outcome
// and the txid->BlockTx lookup row.
func (u *Updater) Index(blockHeight uint64, txIndex uint32, tx *wire.MsgTx) (MessageDataOutcome, error) {
	u.currentTip = blockHeight
	blockTx := types.BlockTx{Block: blockHeight, Tx: txIndex}

	message, parseFlaw := codec.ParseTx(tx)

	var outcome MessageDataOutcome
	if parseFlaw != nil {
		outcome.Flaw = parseFlaw
	} else {
		outcome.Message = message

		if err := u.unallocateInputs(tx); err != nil {
			return outcome, err
		}

		outcome.Flaw = u.dispatch(tx, blockTx, message)

		if err := u.commitOutputs(tx); err != nil {
			return outcome, err
		}
	}

	if !u.readOnly {
		logrus.WithFields(logrus.Fields{
			"block_tx": blockTx.String(),
			"kind":     messageKind(message),
			"flaw":     flawKind(outcome.Flaw),
		}).Info("indexer: processed message")

		if err := u.setMessage(blockTx, outcome); err != nil {
			return outcome, err
		}
		if err := u.store.Put(store.TxToBlockTx, tx.TxHash().String(), blockTx); err != nil {
			return outcome, err
		}
	}

	return outcome, nil
}

func messageKind(m *codec.OpReturnMessage) string {
	if m == nil {
		return "none"
	}
	return m.Kind()
}

func flawKind(f *flaw.Flaw) string {
	if f == nil {
		return ""
	}
	return string(f.Kind)
}

// dispatch runs static validation then routes to the transfer, contract
// creation, or contract call executor. It never returns a Go error for
// domain-expected outcomes — only a Flaw, mirroring the original's
// "a Flaw ends the message, not the indexing run" contract.
func (u *Updater) dispatch(tx *wire.MsgTx, blockTx types.BlockTx, message *codec.OpReturnMessage) *flaw.Flaw {
	if f := u.validateMessage(message); f != nil {
		return f
	}

	if message.Transfer != nil {
		return u.transfers(tx, message.Transfer.Transfers)
	}

	if message.ContractCreation != nil {
		return u.executeContractCreation(tx, blockTx, message.ContractCreation)
	}

	if message.ContractCall != nil {
		contractID := blockTx
		if message.ContractCall.Contract != nil {
			contractID = *message.ContractCall.Contract
		}
		return u.executeContractCall(tx, blockTx, contractID, message.ContractCall)
	}

	return nil
}
