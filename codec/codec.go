package codec

import (
	"bytes"
	"encoding/json"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"glittr.dev/core/flaw"
)

// MagicPrefix is the OP_RETURN push that marks an output as carrying a
// Glittr message, distinguishing it from unrelated OP_RETURN usage on the
// same chain.
const MagicPrefix = "GLITTR"

// ParseTx scans every output of tx looking for the first OP_RETURN whose
// first push matches MagicPrefix, concatenates every subsequent data push
// into a JSON payload, and decodes it into an OpReturnMessage.
//
// Mirrors the original's single-pass instruction walk: only the first
// matching OP_RETURN output is considered, and any non-push opcode or
// malformed script after the magic prefix fails the whole message rather
// than being skipped.
func ParseTx(tx *wire.MsgTx) (*OpReturnMessage, *flaw.Flaw) {
	var payload []byte

	for _, out := range tx.TxOut {
		tokenizer := txscript.MakeScriptTokenizer(0, out.PkScript)

		if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_RETURN {
			continue
		}

		if !tokenizer.Next() {
			continue
		}
		if !bytes.Equal(tokenizer.Data(), []byte(MagicPrefix)) {
			continue
		}

		for tokenizer.Next() {
			op := tokenizer.Opcode()
			if op > txscript.OP_PUSHDATA4 {
				return nil, flaw.Newf(flaw.InvalidInstruction, "opcode 0x%02x", op)
			}
			payload = append(payload, tokenizer.Data()...)
		}
		if err := tokenizer.Err(); err != nil {
			return nil, flaw.Newf(flaw.InvalidScript, "%s", err)
		}
		break
	}

	if len(payload) == 0 {
		return nil, flaw.New(flaw.NonGlittrMessage)
	}

	var message OpReturnMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		return nil, flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}

	if message.Transfer == nil && message.ContractCreation == nil && message.ContractCall == nil {
		return nil, flaw.New(flaw.FailedDeserialization)
	}

	return &message, nil
}

// IntoScript re-encodes message as the OP_RETURN script a wallet would
// broadcast, for use by the standalone simulator CLI and tests. Not
// exercised by the indexer itself, which only ever parses.
func IntoScript(message *OpReturnMessage) ([]byte, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_RETURN)
	builder.AddData([]byte(MagicPrefix))
	builder.AddData(payload)
	return builder.Script()
}
