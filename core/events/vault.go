package events

import (
	"math/big"

	"github.com/holiman/uint256"

	"fycore/core/types"
)

const (
	TypeVaultOpened     = "vault.opened"
	TypeVaultDestroyed  = "vault.destroyed"
	TypeBalancesChanged = "vault.balances_changed"
	TypeBalancesMoved   = "vault.balances_moved"
	TypeSeriesMatured   = "series.matured"
)

// VaultOpened is emitted when a new vault is created for an owner.
type VaultOpened struct {
	Vault  [12]byte
	Owner  [20]byte
	Series [6]byte
	Ilk    [6]byte
}

func (VaultOpened) EventType() string { return TypeVaultOpened }

func (e VaultOpened) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultOpened,
		Attributes: map[string]string{
			"vault":  formatID(e.Vault[:]),
			"owner":  formatAddress(e.Owner),
			"series": formatID(e.Series[:]),
			"ilk":    formatID(e.Ilk[:]),
		},
	}
}

// VaultDestroyed is emitted when an empty vault is removed.
type VaultDestroyed struct {
	Vault [12]byte
	Owner [20]byte
}

func (VaultDestroyed) EventType() string { return TypeVaultDestroyed }

func (e VaultDestroyed) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultDestroyed,
		Attributes: map[string]string{
			"vault": formatID(e.Vault[:]),
			"owner": formatAddress(e.Owner),
		},
	}
}

// BalancesChanged is emitted after a pour or slurp adjusts a vault's
// collateral or debt. Deltas are signed; Ink and Art carry the post-change
// balances.
type BalancesChanged struct {
	Vault    [12]byte
	InkDelta *big.Int
	ArtDelta *big.Int
	Ink      *uint256.Int
	Art      *uint256.Int
}

func (BalancesChanged) EventType() string { return TypeBalancesChanged }

func (e BalancesChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeBalancesChanged,
		Attributes: map[string]string{
			"vault":    formatID(e.Vault[:]),
			"inkDelta": formatDelta(e.InkDelta),
			"artDelta": formatDelta(e.ArtDelta),
			"ink":      formatAmount(e.Ink),
			"art":      formatAmount(e.Art),
		},
	}
}

// BalancesMoved is emitted after a stir moves collateral and debt between
// two vaults of the same series and ilk.
type BalancesMoved struct {
	From [12]byte
	To   [12]byte
	Ink  *uint256.Int
	Art  *uint256.Int
}

func (BalancesMoved) EventType() string { return TypeBalancesMoved }

func (e BalancesMoved) Event() *types.Event {
	return &types.Event{
		Type: TypeBalancesMoved,
		Attributes: map[string]string{
			"from": formatID(e.From[:]),
			"to":   formatID(e.To[:]),
			"ink":  formatAmount(e.Ink),
			"art":  formatAmount(e.Art),
		},
	}
}

// SeriesMatured is emitted the first time a series records its accrual at
// maturity.
type SeriesMatured struct {
	Series    [6]byte
	Accrual   *uint256.Int
	MaturedAt int64
}

func (SeriesMatured) EventType() string { return TypeSeriesMatured }

func (e SeriesMatured) Event() *types.Event {
	return &types.Event{
		Type: TypeSeriesMatured,
		Attributes: map[string]string{
			"series":    formatID(e.Series[:]),
			"accrual":   formatAmount(e.Accrual),
			"maturedAt": intToString(e.MaturedAt),
		},
	}
}
