package indexer

import (
	"glittr.dev/core/codec"
	"glittr.dev/core/contracts"
	"glittr.dev/core/flaw"
	"glittr.dev/core/types"
)

// updateNft amends a previously created NFT contract's whitelist bloom
// filter or access-key pointer. Metadata and the asset blob itself are
// immutable once created.
func (u *Updater) updateNft(contractID types.BlockTx, ct contracts.ContractType, opt *codec.UpdateNftOption) *flaw.Flaw {
	if ct.Nft == nil {
		return flaw.New(flaw.ContractNotMatch)
	}

	outcome, f := u.getMessage(contractID)
	if f != nil {
		return f
	}
	if outcome.Message == nil || outcome.Message.ContractCreation == nil || outcome.Message.ContractCreation.ContractType.Nft == nil {
		return flaw.New(flaw.ContractNotMatch)
	}
	nft := outcome.Message.ContractCreation.ContractType.Nft

	if opt.WhitelistAddressBloomFilter != nil {
		nft.Whitelist = opt.WhitelistAddressBloomFilter
	}
	if opt.TrustedMarketplaceFeeAddrs != nil {
		for _, addr := range opt.TrustedMarketplaceFeeAddrs {
			if !contracts.IsValidHostChainAddress(addr) {
				return flaw.Newf(flaw.MessageInvalid, "update_nft.trusted_marketplace_fee_addrs contains invalid address %q", addr)
			}
		}
		nft.TrustedMarketplaceFeeAddrs = opt.TrustedMarketplaceFeeAddrs
	}
	if opt.AccessKeyPointer != nil {
		p := uint32(*opt.AccessKeyPointer)
		nft.AccessKeyPointer = &p
	}

	if err := u.setMessage(contractID, outcome); err != nil {
		return flaw.Newf(flaw.FailedDeserialization, "%s", err)
	}
	return nil
}
