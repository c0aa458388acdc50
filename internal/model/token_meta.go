package model

// AssetMeta captures the ERC20 metadata the ledger needs for an asset.
type AssetMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
}
