package vault

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AssetID identifies a base or collateral (ilk) asset.
type AssetID [6]byte

// SeriesID identifies a debt cohort maturing at a fixed time.
type SeriesID [6]byte

// VaultID identifies a single owner position for one series and one ilk.
type VaultID [12]byte

// MakeAssetID builds an asset identifier from a short ASCII name such as
// "ETH-A". Names longer than six bytes are rejected.
func MakeAssetID(name string) (AssetID, error) {
	var id AssetID
	if len(name) == 0 || len(name) > len(id) {
		return AssetID{}, fmt.Errorf("asset name %q must be 1-%d bytes", name, len(id))
	}
	copy(id[:], name)
	return id, nil
}

// MakeSeriesID builds a series identifier from a short ASCII name.
func MakeSeriesID(name string) (SeriesID, error) {
	var id SeriesID
	if len(name) == 0 || len(name) > len(id) {
		return SeriesID{}, fmt.Errorf("series name %q must be 1-%d bytes", name, len(id))
	}
	copy(id[:], name)
	return id, nil
}

func (id AssetID) String() string  { return renderID(id[:]) }
func (id SeriesID) String() string { return renderID(id[:]) }
func (id VaultID) String() string  { return "0x" + common.Bytes2Hex(id[:]) }

func renderID(id []byte) string {
	trimmed := strings.TrimRight(string(id), "\x00")
	for _, r := range trimmed {
		if r < 0x20 || r > 0x7e {
			return "0x" + common.Bytes2Hex(id)
		}
	}
	if trimmed == "" {
		return "0x" + common.Bytes2Hex(id)
	}
	return trimmed
}

// Series describes a debt cohort: the base asset it is denominated in, its
// maturity timestamp and the synthetic token that settles it.
// AccrualAtMaturity stays nil until Mature records it, exactly once.
type Series struct {
	Base              AssetID
	Maturity          int64
	FYToken           common.Address
	AccrualAtMaturity *uint256.Int
}

// Clone returns a deep copy of the series.
func (s *Series) Clone() *Series {
	if s == nil {
		return nil
	}
	clone := &Series{Base: s.Base, Maturity: s.Maturity, FYToken: s.FYToken}
	if s.AccrualAtMaturity != nil {
		clone.AccrualAtMaturity = new(uint256.Int).Set(s.AccrualAtMaturity)
	}
	return clone
}

// Vault carries the immutable metadata of a position. Balances live in a
// separate record keyed by the same id.
type Vault struct {
	Owner  common.Address
	Series SeriesID
	Ilk    AssetID
}

// Clone returns a copy of the vault metadata.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}

// Balances holds a vault's collateral (ink) and face-value debt (art), both
// WAD-scaled and non-negative.
type Balances struct {
	Ink *uint256.Int
	Art *uint256.Int
}

// Clone returns a deep copy of the balances.
func (b *Balances) Clone() *Balances {
	if b == nil {
		return nil
	}
	clone := &Balances{}
	if b.Ink != nil {
		clone.Ink = new(uint256.Int).Set(b.Ink)
	}
	if b.Art != nil {
		clone.Art = new(uint256.Int).Set(b.Art)
	}
	return clone
}

// EnsureDefaults populates nil amounts so persistence round-trips are safe.
func (b *Balances) EnsureDefaults() {
	if b.Ink == nil {
		b.Ink = new(uint256.Int)
	}
	if b.Art == nil {
		b.Art = new(uint256.Int)
	}
}

// SpotConfig binds the collateralization ratio for a (base, ilk) pair. The
// live price feed itself is registered on the engine, not persisted.
type SpotConfig struct {
	RatioRay *uint256.Int
}

// Clone returns a deep copy of the spot configuration.
func (c *SpotConfig) Clone() *SpotConfig {
	if c == nil {
		return nil
	}
	clone := &SpotConfig{}
	if c.RatioRay != nil {
		clone.RatioRay = new(uint256.Int).Set(c.RatioRay)
	}
	return clone
}

// Target is the liquidation engine's view over one vault: balances plus the
// base-denominated debt value (art scaled by accrual, rounded up) and the
// live spot price for the vault's (base, ilk) pair.
type Target struct {
	ID       VaultID
	Series   SeriesID
	Maturity int64
	Ink      *uint256.Int
	Art      *uint256.Int
	Debt     *uint256.Int
	SpotRay  *uint256.Int
}
