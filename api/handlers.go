package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/btcsuite/btcd/wire"
	"github.com/gorilla/mux"

	"glittr.dev/core/indexer"
	"glittr.dev/core/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleTxResult resolves a raw txid to its indexed outcome.
func (s *Server) handleTxResult(w http.ResponseWriter, r *http.Request) {
	txid := mux.Vars(r)["txid"]
	u := indexer.NewUpdater(s.driver.Store(), true)

	blockTx, err := u.GetTxToBlockTx(txid)
	if err != nil {
		notFound(w)
		return
	}

	outcome, err := u.GetMessage(blockTx)
	if err != nil {
		notFound(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"is_valid": outcome.Flaw == nil,
		"message":  outcome,
		"block_tx": blockTx.String(),
	})
}

func (s *Server) handleBlockTx(w http.ResponseWriter, r *http.Request) {
	blockTx, ok := blockTxFromVars(r)
	if !ok {
		notFound(w)
		return
	}

	u := indexer.NewUpdater(s.driver.Store(), true)
	outcome, err := u.GetMessage(blockTx)
	if err != nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"is_valid": outcome.Flaw == nil, "message": outcome})
}

func (s *Server) handleBlockTxByTicker(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	u := indexer.NewUpdater(s.driver.Store(), true)

	blockTx, err := u.GetTicker(ticker)
	if err != nil {
		notFound(w)
		return
	}
	outcome, err := u.GetMessage(blockTx)
	if err != nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"is_valid": outcome.Flaw == nil, "message": outcome})
}

// handleAssets reports everything an outpoint carries: its asset-list
// balances, any spec contracts it owns, any collateral accounts it holds,
// and (if show_contract_info=true) a ContractInfo summary per referenced
// contract.
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	txid := vars["txid"]
	vout, ok := parseUint32(vars["vout"])
	if !ok {
		notFound(w)
		return
	}
	outpoint := types.Outpoint{Txid: txid, Vout: vout}
	showContractInfo := r.URL.Query().Get("show_contract_info") == "true"

	u := indexer.NewUpdater(s.driver.Store(), true)

	assetList, _ := u.GetAssetList(outpoint)
	specOwned, _ := u.GetSpecContractOwned(outpoint)
	accountsOwned, _ := u.GetCollateralAccountsOwned(outpoint)

	result := map[string]any{"assets": assetList}

	if len(specOwned.Specs) > 0 {
		keys := make([]string, 0, len(specOwned.Specs))
		for _, id := range specOwned.Specs {
			keys = append(keys, id.String())
		}
		result["state_keys"] = keys
	}
	if len(accountsOwned.Accounts) > 0 {
		result["collateral_accounts"] = accountsOwned.Accounts
	}

	if showContractInfo {
		infos := map[string]ContractInfo{}
		for key := range assetList.List {
			contractID, err := types.ParseBlockTx(key)
			if err != nil {
				continue
			}
			if info, ok := buildContractInfo(u, contractID); ok {
				infos[key] = info
			}
		}
		for _, contractID := range specOwned.Specs {
			if info, ok := buildContractInfo(u, contractID); ok {
				infos[contractID.String()] = info
			}
		}
		for key := range accountsOwned.Accounts {
			contractID, err := types.ParseBlockTx(key)
			if err != nil {
				continue
			}
			if info, ok := buildContractInfo(u, contractID); ok {
				infos[key] = info
			}
		}
		if len(infos) > 0 {
			result["contract_info"] = infos
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAssetContract(w http.ResponseWriter, r *http.Request) {
	blockTx, ok := blockTxFromVars(r)
	if !ok {
		notFound(w)
		return
	}
	u := indexer.NewUpdater(s.driver.Store(), true)

	assetData, err := u.GetAssetContractData(blockTx)
	if err != nil {
		notFound(w)
		return
	}
	info, _ := buildContractInfo(u, blockTx)

	result := map[string]any{"asset": assetData, "contract_info": info}
	if pool, err := u.GetPoolData(blockTx); err == nil {
		result["collateralized"] = pool
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCollateralized(w http.ResponseWriter, r *http.Request) {
	blockTx, ok := blockTxFromVars(r)
	if !ok {
		notFound(w)
		return
	}
	u := indexer.NewUpdater(s.driver.Store(), true)

	pool, err := u.GetPoolData(blockTx)
	if err != nil {
		notFound(w)
		return
	}
	info, _ := buildContractInfo(u, blockTx)
	writeJSON(w, http.StatusOK, map[string]any{"assets": pool, "contract_info": info})
}

// handleValidateTx decodes a hex-encoded raw transaction, parses it as a
// Glittr message and runs it through a read-only Updater seeded with
// the current chain tip, without persisting anything -- a dry-run
// endpoint for wallets constructing a message before broadcast.
func (s *Server) handleValidateTx(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"is_valid": false, "msg": "cannot read request body"})
		return
	}

	raw, err := hex.DecodeString(string(bytes.TrimSpace(body)))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"is_valid": false, "msg": "cannot decode hex string"})
		return
	}

	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"is_valid": false, "msg": "cannot deserialize to bitcoin transaction"})
		return
	}

	tipHeight, err := s.driver.Client().BlockCount()
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"is_valid": false, "msg": "cannot reach rpc"})
		return
	}

	outcome, err := s.driver.Simulate(uint64(tipHeight), &tx)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"is_valid": false, "msg": "error"})
		return
	}
	if outcome.Flaw != nil {
		writeJSON(w, http.StatusOK, map[string]any{"is_valid": false, "msg": outcome.Flaw.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"is_valid": true})
}

func blockTxFromVars(r *http.Request) (types.BlockTx, bool) {
	vars := mux.Vars(r)
	block, ok1 := parseUint64(vars["block"])
	tx, ok2 := parseUint32(vars["tx"])
	if !ok1 || !ok2 {
		return types.BlockTx{}, false
	}
	return types.BlockTx{Block: block, Tx: tx}, true
}

func parseUint64(s string) (uint64, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}

func parseUint32(s string) (uint32, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	return uint32(n), err == nil
}
