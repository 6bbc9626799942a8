package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"fycore/native/vault"
	"fycore/storage"
)

// Manager persists ledger and liquidation records on a key-value database.
// It implements vault.State and auction.State; the owner+ilk vault index is
// maintained here so engines can enumerate an owner's position without
// scanning.
type Manager struct {
	db storage.Database
}

// NewManager wraps a database in a state manager.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

type storedSpot struct {
	Ratio *uint256.Int `json:"ratio"`
}

type storedSeries struct {
	Base     vault.AssetID  `json:"base"`
	Maturity int64          `json:"maturity"`
	FYToken  common.Address `json:"fyToken"`
	Accrual  *uint256.Int   `json:"accrual,omitempty"`
}

type storedVault struct {
	Owner  common.Address `json:"owner"`
	Series vault.SeriesID `json:"series"`
	Ilk    vault.AssetID  `json:"ilk"`
}

type storedBalances struct {
	Ink *uint256.Int `json:"ink"`
	Art *uint256.Int `json:"art"`
}

type storedLiquidation struct {
	StartedAt int64 `json:"startedAt"`
}

func assetKey(id vault.AssetID) []byte {
	return append([]byte(prefixAsset), id[:]...)
}

func spotKey(base, ilk vault.AssetID) []byte {
	key := append([]byte(prefixSpot), base[:]...)
	return append(key, ilk[:]...)
}

func seriesKey(id vault.SeriesID) []byte {
	return append([]byte(prefixSeries), id[:]...)
}

func vaultKey(id vault.VaultID) []byte {
	return append([]byte(prefixVault), id[:]...)
}

func balancesKey(id vault.VaultID) []byte {
	return append([]byte(prefixBalances), id[:]...)
}

func liquidationKey(ilk vault.AssetID, owner [20]byte) []byte {
	key := append([]byte(prefixLiquidation), ilk[:]...)
	return append(key, owner[:]...)
}

func vaultIndexKey(owner [20]byte, ilk vault.AssetID) []byte {
	key := append([]byte(prefixVaultIndex), owner[:]...)
	return append(key, ilk[:]...)
}

func (m *Manager) getJSON(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putJSON(key []byte, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

// HasAsset implements vault.State.
func (m *Manager) HasAsset(id vault.AssetID) (bool, error) {
	return m.db.Has(assetKey(id))
}

// PutAsset implements vault.State.
func (m *Manager) PutAsset(id vault.AssetID) error {
	return m.db.Put(assetKey(id), []byte{1})
}

// GetSpotConfig implements vault.State.
func (m *Manager) GetSpotConfig(base, ilk vault.AssetID) (*vault.SpotConfig, bool, error) {
	var rec storedSpot
	ok, err := m.getJSON(spotKey(base, ilk), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &vault.SpotConfig{RatioRay: rec.Ratio}, true, nil
}

// PutSpotConfig implements vault.State.
func (m *Manager) PutSpotConfig(base, ilk vault.AssetID, cfg *vault.SpotConfig) error {
	if cfg == nil || cfg.RatioRay == nil {
		return errors.New("state: nil spot config")
	}
	return m.putJSON(spotKey(base, ilk), storedSpot{Ratio: cfg.RatioRay})
}

// GetSeries implements vault.State.
func (m *Manager) GetSeries(id vault.SeriesID) (*vault.Series, bool, error) {
	var rec storedSeries
	ok, err := m.getJSON(seriesKey(id), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &vault.Series{
		Base:              rec.Base,
		Maturity:          rec.Maturity,
		FYToken:           rec.FYToken,
		AccrualAtMaturity: rec.Accrual,
	}, true, nil
}

// PutSeries implements vault.State.
func (m *Manager) PutSeries(id vault.SeriesID, s *vault.Series) error {
	if s == nil {
		return errors.New("state: nil series")
	}
	return m.putJSON(seriesKey(id), storedSeries{
		Base:     s.Base,
		Maturity: s.Maturity,
		FYToken:  s.FYToken,
		Accrual:  s.AccrualAtMaturity,
	})
}

// GetVault implements vault.State.
func (m *Manager) GetVault(id vault.VaultID) (*vault.Vault, bool, error) {
	var rec storedVault
	ok, err := m.getJSON(vaultKey(id), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &vault.Vault{Owner: rec.Owner, Series: rec.Series, Ilk: rec.Ilk}, true, nil
}

// PutVault implements vault.State and keeps the owner+ilk index current.
func (m *Manager) PutVault(id vault.VaultID, v *vault.Vault) error {
	if v == nil {
		return errors.New("state: nil vault")
	}
	if err := m.putJSON(vaultKey(id), storedVault{Owner: v.Owner, Series: v.Series, Ilk: v.Ilk}); err != nil {
		return err
	}
	return m.indexAdd(v.Owner, v.Ilk, id)
}

// DeleteVault implements vault.State.
func (m *Manager) DeleteVault(id vault.VaultID) error {
	v, exists, err := m.GetVault(id)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := m.db.Delete(vaultKey(id)); err != nil {
		return err
	}
	return m.indexRemove(v.Owner, v.Ilk, id)
}

// GetBalances implements vault.State.
func (m *Manager) GetBalances(id vault.VaultID) (*vault.Balances, bool, error) {
	var rec storedBalances
	ok, err := m.getJSON(balancesKey(id), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	b := &vault.Balances{Ink: rec.Ink, Art: rec.Art}
	b.EnsureDefaults()
	return b, true, nil
}

// PutBalances implements vault.State.
func (m *Manager) PutBalances(id vault.VaultID, b *vault.Balances) error {
	if b == nil {
		return errors.New("state: nil balances")
	}
	clone := b.Clone()
	clone.EnsureDefaults()
	return m.putJSON(balancesKey(id), storedBalances{Ink: clone.Ink, Art: clone.Art})
}

// DeleteBalances implements vault.State.
func (m *Manager) DeleteBalances(id vault.VaultID) error {
	return m.db.Delete(balancesKey(id))
}

// VaultsByOwnerIlk implements vault.State.
func (m *Manager) VaultsByOwnerIlk(owner [20]byte, ilk vault.AssetID) ([]vault.VaultID, error) {
	var ids []vault.VaultID
	if _, err := m.getJSON(vaultIndexKey(owner, ilk), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// NextVaultNonce implements vault.State.
func (m *Manager) NextVaultNonce() (uint64, error) {
	raw, err := m.db.Get([]byte(keyVaultNonce))
	var nonce uint64
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return 0, err
	case len(raw) == 8:
		nonce = binary.BigEndian.Uint64(raw)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce+1)
	if err := m.db.Put([]byte(keyVaultNonce), buf[:]); err != nil {
		return 0, err
	}
	return nonce, nil
}

// GetLiquidation implements auction.State.
func (m *Manager) GetLiquidation(ilk vault.AssetID, owner [20]byte) (int64, bool, error) {
	var rec storedLiquidation
	ok, err := m.getJSON(liquidationKey(ilk, owner), &rec)
	if err != nil || !ok {
		return 0, false, err
	}
	return rec.StartedAt, true, nil
}

// PutLiquidation implements auction.State.
func (m *Manager) PutLiquidation(ilk vault.AssetID, owner [20]byte, startedAt int64) error {
	return m.putJSON(liquidationKey(ilk, owner), storedLiquidation{StartedAt: startedAt})
}

// DeleteLiquidation implements auction.State.
func (m *Manager) DeleteLiquidation(ilk vault.AssetID, owner [20]byte) error {
	return m.db.Delete(liquidationKey(ilk, owner))
}

// EachVault walks every persisted vault with its balances, for inspection
// tooling.
func (m *Manager) EachVault(fn func(id vault.VaultID, v *vault.Vault, b *vault.Balances) error) error {
	return m.db.Iterate([]byte(prefixVault), func(key, value []byte) error {
		raw := key[len(prefixVault):]
		if len(raw) != len(vault.VaultID{}) {
			return nil
		}
		var id vault.VaultID
		copy(id[:], raw)
		var rec storedVault
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("state: decode vault %x: %w", raw, err)
		}
		balances, _, err := m.GetBalances(id)
		if err != nil {
			return err
		}
		if balances == nil {
			balances = &vault.Balances{}
			balances.EnsureDefaults()
		}
		return fn(id, &vault.Vault{Owner: rec.Owner, Series: rec.Series, Ilk: rec.Ilk}, balances)
	})
}

// EachLiquidation walks every active liquidation record.
func (m *Manager) EachLiquidation(fn func(ilk vault.AssetID, owner [20]byte, startedAt int64) error) error {
	return m.db.Iterate([]byte(prefixLiquidation), func(key, value []byte) error {
		raw := key[len(prefixLiquidation):]
		if len(raw) != len(vault.AssetID{})+20 {
			return nil
		}
		var ilk vault.AssetID
		copy(ilk[:], raw[:len(ilk)])
		var owner [20]byte
		copy(owner[:], raw[len(ilk):])
		var rec storedLiquidation
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("state: decode liquidation %x: %w", raw, err)
		}
		return fn(ilk, owner, rec.StartedAt)
	})
}

func (m *Manager) indexAdd(owner [20]byte, ilk vault.AssetID, id vault.VaultID) error {
	ids, err := m.VaultsByOwnerIlk(owner, ilk)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	return m.putJSON(vaultIndexKey(owner, ilk), ids)
}

func (m *Manager) indexRemove(owner [20]byte, ilk vault.AssetID, id vault.VaultID) error {
	ids, err := m.VaultsByOwnerIlk(owner, ilk)
	if err != nil {
		return err
	}
	next := ids[:0]
	for _, existing := range ids {
		if existing != id {
			next = append(next, existing)
		}
	}
	if len(next) == 0 {
		return m.db.Delete(vaultIndexKey(owner, ilk))
	}
	return m.putJSON(vaultIndexKey(owner, ilk), next)
}
