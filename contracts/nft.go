package contracts

// NftAssetContract is a non-fungible contract: a single opaque asset
// blob plus metadata, an optional whitelist bloom filter, and an
// optional pointer to an access-key commitment.
type NftAssetContract struct {
	Asset                      []byte         `json:"asset"`
	Metadata                   map[string]any `json:"metadata,omitempty"`
	Whitelist                  []byte         `json:"whitelist,omitempty"`
	AccessKeyPointer           *uint32        `json:"access_key_pointer,omitempty"`
	TrustedMarketplaceFeeAddrs []string       `json:"trusted_marketplace_fee_addrs,omitempty"`
}

// MaxAssetBytes bounds NftAssetContract.Asset (spec.md §4.2).
const MaxAssetBytes = 4096
