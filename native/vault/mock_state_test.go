package vault

import (
	"github.com/holiman/uint256"
)

// mockState is an in-memory State used by the engine tests.
type mockState struct {
	assets   map[AssetID]bool
	spots    map[oracleKey]*SpotConfig
	series   map[SeriesID]*Series
	vaults   map[VaultID]*Vault
	balances map[VaultID]*Balances
	nonce    uint64
}

func newMockState() *mockState {
	return &mockState{
		assets:   make(map[AssetID]bool),
		spots:    make(map[oracleKey]*SpotConfig),
		series:   make(map[SeriesID]*Series),
		vaults:   make(map[VaultID]*Vault),
		balances: make(map[VaultID]*Balances),
	}
}

func (m *mockState) HasAsset(id AssetID) (bool, error) { return m.assets[id], nil }

func (m *mockState) PutAsset(id AssetID) error {
	m.assets[id] = true
	return nil
}

func (m *mockState) GetSpotConfig(base, ilk AssetID) (*SpotConfig, bool, error) {
	cfg, ok := m.spots[spotKey(base, ilk)]
	return cfg.Clone(), ok, nil
}

func (m *mockState) PutSpotConfig(base, ilk AssetID, cfg *SpotConfig) error {
	m.spots[spotKey(base, ilk)] = cfg.Clone()
	return nil
}

func (m *mockState) GetSeries(id SeriesID) (*Series, bool, error) {
	s, ok := m.series[id]
	return s.Clone(), ok, nil
}

func (m *mockState) PutSeries(id SeriesID, s *Series) error {
	m.series[id] = s.Clone()
	return nil
}

func (m *mockState) GetVault(id VaultID) (*Vault, bool, error) {
	v, ok := m.vaults[id]
	return v.Clone(), ok, nil
}

func (m *mockState) PutVault(id VaultID, v *Vault) error {
	m.vaults[id] = v.Clone()
	return nil
}

func (m *mockState) DeleteVault(id VaultID) error {
	delete(m.vaults, id)
	return nil
}

func (m *mockState) GetBalances(id VaultID) (*Balances, bool, error) {
	b, ok := m.balances[id]
	return b.Clone(), ok, nil
}

func (m *mockState) PutBalances(id VaultID, b *Balances) error {
	m.balances[id] = b.Clone()
	return nil
}

func (m *mockState) DeleteBalances(id VaultID) error {
	delete(m.balances, id)
	return nil
}

func (m *mockState) VaultsByOwnerIlk(owner [20]byte, ilk AssetID) ([]VaultID, error) {
	var ids []VaultID
	for id, v := range m.vaults {
		if v.Owner == owner && v.Ilk == ilk {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockState) NextVaultNonce() (uint64, error) {
	n := m.nonce
	m.nonce++
	return n, nil
}

// stubSpot is a settable spot oracle.
type stubSpot struct {
	price *uint256.Int
	ok    bool
}

func (s *stubSpot) Peek() (*uint256.Int, bool) {
	if s.price == nil {
		return nil, s.ok
	}
	return new(uint256.Int).Set(s.price), s.ok
}

// stubRate is a settable rate oracle.
type stubRate struct {
	rate *uint256.Int
	ok   bool
}

func (s *stubRate) Peek() (*uint256.Int, bool) {
	if s.rate == nil {
		return nil, s.ok
	}
	return new(uint256.Int).Set(s.rate), s.ok
}
