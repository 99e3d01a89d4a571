package indexer

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/flaw"
	"glittr.dev/core/types"
)

func createNftContract(t *testing.T, u *Updater) types.BlockTx {
	t.Helper()
	contractID := types.BlockTx{Block: 1, Tx: 0}
	require.NoError(t, u.setMessage(contractID, MessageDataOutcome{
		Message: &codec.OpReturnMessage{
			ContractCreation: &codec.ContractCreation{
				ContractType: contracts.ContractType{
					Nft: &contracts.NftAssetContract{Asset: []byte("hello")},
				},
			},
		},
	}))
	return contractID
}

func TestUpdateNftSetsWhitelistAndFeeAddrs(t *testing.T) {
	db := newTestStore(t)
	u := NewUpdater(db, false)
	contractID := createNftContract(t, u)

	pkHash := make([]byte, 20)
	addr, err := btcutil.NewAddressWitnessPubKeyHash(pkHash, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	feeAddr := addr.EncodeAddress()

	outcome, err := u.getMessage(contractID)
	require.Nil(t, err)

	f := u.updateNft(contractID, outcome.Message.ContractCreation.ContractType, &codec.UpdateNftOption{
		WhitelistAddressBloomFilter: []byte{0x01, 0x02},
		TrustedMarketplaceFeeAddrs:  []string{feeAddr},
	})
	require.Nil(t, f)

	updated, err := u.getMessage(contractID)
	require.Nil(t, err)
	require.Equal(t, []byte{0x01, 0x02}, updated.Message.ContractCreation.ContractType.Nft.Whitelist)
	require.Equal(t, []string{feeAddr}, updated.Message.ContractCreation.ContractType.Nft.TrustedMarketplaceFeeAddrs)
}

func TestUpdateNftRejectsInvalidFeeAddress(t *testing.T) {
	db := newTestStore(t)
	u := NewUpdater(db, false)
	contractID := createNftContract(t, u)

	outcome, err := u.getMessage(contractID)
	require.Nil(t, err)

	f := u.updateNft(contractID, outcome.Message.ContractCreation.ContractType, &codec.UpdateNftOption{
		TrustedMarketplaceFeeAddrs: []string{"not-a-real-address"},
	})
	require.NotNil(t, f)
	require.Equal(t, flaw.MessageInvalid, f.Kind)
}

func TestUpdateNftRejectsNonNftContract(t *testing.T) {
	db := newTestStore(t)
	u := NewUpdater(db, false)

	f := u.updateNft(types.BlockTx{Block: 9, Tx: 9}, contracts.ContractType{Moa: &contracts.MintOnlyAssetContract{}}, &codec.UpdateNftOption{})
	require.NotNil(t, f)
	require.Equal(t, flaw.ContractNotMatch, f.Kind)
}
