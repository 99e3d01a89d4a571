// Command glittr-validate runs a single raw transaction through the
// Glittr message pipeline against a scratch bbolt store in a temporary
// directory and reports whether it would index cleanly -- a standalone simulator
// for wallets/tooling that don't want to stand up a full glittrd plus
// host-chain RPC connection just to sanity-check a transaction they're
// constructing.
package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/wire"

	"glittr.dev/core/indexer"
	"glittr.dev/core/store"
)

// Request is read as a single JSON object from stdin.
type Request struct {
	TxHex       string `json:"tx_hex"`
	BlockHeight uint64 `json:"block_height"`
}

type Response struct {
	IsValid bool   `json:"is_valid"`
	Kind    string `json:"kind,omitempty"`
	Flaw    string `json:"flaw,omitempty"`
	Err     string `json:"err,omitempty"`
}

func main() {
	os.Exit(run(os.Stdin, os.Stdout))
}

func run(stdin io.Reader, stdout io.Writer) int {
	var req Request
	if err := json.NewDecoder(stdin).Decode(&req); err != nil {
		writeResp(stdout, Response{Err: fmt.Sprintf("bad request: %v", err)})
		return 1
	}

	raw, err := hex.DecodeString(req.TxHex)
	if err != nil {
		writeResp(stdout, Response{Err: fmt.Sprintf("bad tx_hex: %v", err)})
		return 1
	}

	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		writeResp(stdout, Response{Err: fmt.Sprintf("cannot deserialize transaction: %v", err)})
		return 1
	}

	dir, err := os.MkdirTemp("", "glittr-validate-*")
	if err != nil {
		writeResp(stdout, Response{Err: fmt.Sprintf("scratch dir: %v", err)})
		return 1
	}
	defer os.RemoveAll(dir)

	db, err := store.Open(dir)
	if err != nil {
		writeResp(stdout, Response{Err: fmt.Sprintf("store open: %v", err)})
		return 1
	}
	defer db.Close()

	updater := indexer.NewUpdater(db, true)
	outcome, err := updater.Index(req.BlockHeight, 0, &tx)
	if err != nil {
		writeResp(stdout, Response{Err: fmt.Sprintf("index: %v", err)})
		return 1
	}

	resp := Response{IsValid: outcome.Flaw == nil}
	if outcome.Message != nil {
		resp.Kind = outcome.Message.Kind()
	}
	if outcome.Flaw != nil {
		resp.Flaw = outcome.Flaw.Error()
	}
	writeResp(stdout, resp)
	return 0
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

