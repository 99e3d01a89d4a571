package oracle

import (
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/require"

	"glittr.dev/core/codec"
	"glittr.dev/core/types"
)

func signedMessage(t *testing.T, priv *btcec.PrivateKey, msg codec.OracleMessage) *codec.OracleMessageSigned {
	t.Helper()
	encoded, err := json.Marshal(msg)
	require.NoError(t, err)
	h := sha256.Sum256(encoded)
	sig, err := schnorr.Sign(priv, h[:])
	require.NoError(t, err)
	return &codec.OracleMessageSigned{Signature: sig.Serialize(), Message: msg}
}

func TestVerifyValidSignature(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubkey := schnorr.SerializePubKey(priv.PubKey())

	outVal := types.FromUint64(72000)
	signed := signedMessage(t, priv, codec.OracleMessage{
		OutValue:    &outVal,
		BlockHeight: 100,
	})

	f := Verify(pubkey, signed, 105, 10)
	require.Nil(t, f)
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubkey := schnorr.SerializePubKey(priv.PubKey())

	outVal := types.FromUint64(72000)
	signed := signedMessage(t, priv, codec.OracleMessage{
		OutValue:    &outVal,
		BlockHeight: 100,
	})
	tampered := types.FromUint64(99999999)
	signed.Message.OutValue = &tampered

	f := Verify(pubkey, signed, 105, 10)
	require.NotNil(t, f)
	require.Equal(t, "oracle_mint_failed", string(f.Kind))
}

func TestVerifyStaleMessage(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubkey := schnorr.SerializePubKey(priv.PubKey())

	signed := signedMessage(t, priv, codec.OracleMessage{BlockHeight: 100})

	f := Verify(pubkey, signed, 200, 10)
	require.NotNil(t, f)
	require.Equal(t, "oracle_mint_stale", string(f.Kind))
}

func TestVerifyWrongPubkey(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	other, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	signed := signedMessage(t, priv, codec.OracleMessage{BlockHeight: 100})
	wrongPubkey := schnorr.SerializePubKey(other.PubKey())

	f := Verify(wrongPubkey, signed, 100, 10)
	require.NotNil(t, f)
}
