package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func rawFreeMintCreationHex(t *testing.T) string {
	t.Helper()
	payload := []byte(`{"contract_creation":{"contract_type":{"moa":{"divisibility":8,"live_time":0,"mint_mechanism":{"free_mint":{"amount_per_mint":"100","supply_cap":"1000"}},"supply_cap":"1000"}}}}`)

	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_RETURN)
	builder.AddData([]byte("GLITTR"))
	builder.AddData(payload)
	script, err := builder.Script()
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, script))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	return hex.EncodeToString(buf.Bytes())
}

func TestRunValidCreationMessage(t *testing.T) {
	txHex := rawFreeMintCreationHex(t)
	req := `{"tx_hex":"` + txHex + `","block_height":1}`

	var out bytes.Buffer
	code := run(strings.NewReader(req), &out)
	require.Equal(t, 0, code)

	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.True(t, resp.IsValid)
	require.Equal(t, "contract_creation", resp.Kind)
}

func TestRunBadHex(t *testing.T) {
	var out bytes.Buffer
	code := run(strings.NewReader(`{"tx_hex":"not-hex","block_height":1}`), &out)
	require.Equal(t, 1, code)
	require.Contains(t, out.String(), "bad tx_hex")
}

func TestRunBadJSON(t *testing.T) {
	var out bytes.Buffer
	code := run(strings.NewReader(`not json`), &out)
	require.Equal(t, 1, code)
	require.Contains(t, out.String(), "bad request")
}
