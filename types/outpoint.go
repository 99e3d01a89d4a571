package types

import "fmt"

// Outpoint is the address of one UTXO: a 32-byte (64 hex char) txid and a
// vout index.
type Outpoint struct {
	Txid string `json:"txid"`
	Vout uint32 `json:"vout"`
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Txid, o.Vout)
}
