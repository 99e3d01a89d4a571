// Package oracle verifies the Schnorr-signed valuation messages that gate
// Purchase and Collateralized Ratio/Account mint and burn calls
// (spec.md §4.3).
package oracle

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"glittr.dev/core/codec"
	"glittr.dev/core/flaw"
)

// Verify checks that signed.Signature is a valid Schnorr signature by
// pubkey over the SHA-256 digest of signed.Message's canonical JSON
// encoding, and that the message's block_height is no older than
// maxStaleness blocks behind currentBlock. pubkey is a 32-byte x-only
// public key, the format OracleSetting.Pubkey carries on the wire.
//
// It deliberately does not check asset_id, input_outpoint, or
// min_in_value agreement — those are call-site concerns the mint/burn
// executor layers on top, since they differ between Purchase and
// Collateralized flows.
func Verify(pubkey []byte, signed *codec.OracleMessageSigned, currentBlock uint64, maxStaleness uint64) *flaw.Flaw {
	digest, err := digest(signed.Message)
	if err != nil {
		return flaw.Newf(flaw.OracleMintFailed, "hash message: %s", err)
	}

	pk, err := schnorr.ParsePubKey(pubkey)
	if err != nil {
		return flaw.Newf(flaw.OracleMintFailed, "parse pubkey: %s", err)
	}

	sig, err := schnorr.ParseSignature(signed.Signature)
	if err != nil {
		return flaw.Newf(flaw.OracleMintFailed, "parse signature: %s", err)
	}

	if !sig.Verify(digest[:], pk) {
		return flaw.New(flaw.OracleMintFailed)
	}

	if currentBlock > signed.Message.BlockHeight && currentBlock-signed.Message.BlockHeight > maxStaleness {
		return flaw.Newf(flaw.OracleMintStale, "signed at block %d, now %d, max_staleness %d",
			signed.Message.BlockHeight, currentBlock, maxStaleness)
	}

	return nil
}

// digest hashes the message's canonical JSON encoding, matching the
// signing side's serde_json::to_string byte-for-byte so Go-produced and
// Rust-produced signatures verify identically.
func digest(msg codec.OracleMessage) ([32]byte, error) {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(encoded), nil
}
