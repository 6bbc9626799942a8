package state

// Key prefixes for the ledger's persisted records. Every record type owns a
// distinct prefix so backends never need schema awareness.
const (
	prefixAsset       = "asset/"
	prefixSpot        = "spot/"
	prefixSeries      = "series/"
	prefixVault       = "vault/"
	prefixBalances    = "balances/"
	prefixLiquidation = "liq/"
	prefixVaultIndex  = "vault-index/"
	keyVaultNonce     = "vault-nonce"
)
