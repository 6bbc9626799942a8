package genesis

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"fycore/native/vault"
)

// Spec is the declarative bootstrap for a fresh ledger: assets, spot pairs
// with their collateralization ratios, and debt series.
type Spec struct {
	Assets []AssetSpec  `yaml:"assets"`
	Pairs  []PairSpec   `yaml:"pairs"`
	Series []SeriesSpec `yaml:"series"`
}

// AssetSpec declares a base or collateral asset.
type AssetSpec struct {
	ID string `yaml:"id"`
}

// PairSpec declares a (base, ilk) pairing and its ratio as a decimal RAY
// string, e.g. "1500000000000000000000000000" for 1.5x.
type PairSpec struct {
	Base     string `yaml:"base"`
	Ilk      string `yaml:"ilk"`
	RatioRay string `yaml:"ratioRay"`
}

// SeriesSpec declares a debt cohort.
type SeriesSpec struct {
	ID       string `yaml:"id"`
	Base     string `yaml:"base"`
	Maturity int64  `yaml:"maturity"`
	FYToken  string `yaml:"fyToken"`
}

// Oracles supplies the live price and rate feeds the genesis spec binds.
// Feeds are host-wired collaborators; the spec only names the pairs.
type Oracles interface {
	Spot(base, ilk vault.AssetID) (vault.SpotOracle, bool)
	Rate(base vault.AssetID) (vault.RateOracle, bool)
}

// Load parses a genesis spec from a YAML file.
func Load(path string) (*Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	spec := &Spec{}
	if err := yaml.Unmarshal(raw, spec); err != nil {
		return nil, fmt.Errorf("genesis: parse %s: %w", path, err)
	}
	return spec, nil
}

// Apply registers every asset, oracle pair and series on a fresh engine.
// Registration is set-once, so applying over existing state fails cleanly.
func (s *Spec) Apply(engine *vault.Engine, oracles Oracles) error {
	if engine == nil {
		return fmt.Errorf("genesis: nil engine")
	}
	if oracles == nil {
		return fmt.Errorf("genesis: nil oracle set")
	}
	for _, a := range s.Assets {
		id, err := vault.MakeAssetID(a.ID)
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
		if err := engine.AddAsset(id); err != nil {
			return fmt.Errorf("genesis: asset %s: %w", a.ID, err)
		}
		if rate, ok := oracles.Rate(id); ok {
			if err := engine.SetRateOracle(id, rate); err != nil {
				return fmt.Errorf("genesis: rate oracle %s: %w", a.ID, err)
			}
		}
	}
	for _, p := range s.Pairs {
		base, err := vault.MakeAssetID(p.Base)
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
		ilk, err := vault.MakeAssetID(p.Ilk)
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
		ratio, err := uint256.FromDecimal(strings.TrimSpace(p.RatioRay))
		if err != nil {
			return fmt.Errorf("genesis: pair %s/%s ratio: %w", p.Base, p.Ilk, err)
		}
		oracle, ok := oracles.Spot(base, ilk)
		if !ok {
			return fmt.Errorf("genesis: pair %s/%s: no spot oracle wired", p.Base, p.Ilk)
		}
		if err := engine.SetSpotOracle(base, ilk, oracle, ratio); err != nil {
			return fmt.Errorf("genesis: pair %s/%s: %w", p.Base, p.Ilk, err)
		}
	}
	for _, sr := range s.Series {
		id, err := vault.MakeSeriesID(sr.ID)
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
		base, err := vault.MakeAssetID(sr.Base)
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
		if err := engine.AddSeries(id, base, sr.Maturity, common.HexToAddress(sr.FYToken)); err != nil {
			return fmt.Errorf("genesis: series %s: %w", sr.ID, err)
		}
	}
	return nil
}
