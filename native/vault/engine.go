package vault

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"fycore/core/events"
	"fycore/core/fixed"
	nativecommon "fycore/native/common"
)

const moduleName = "vault"

var (
	errNilState = errors.New("vault engine: state not configured")

	ErrAssetNotFound         = errors.New("vault engine: asset not found")
	ErrIlkNotFound           = errors.New("vault engine: ilk not found")
	ErrSeriesNotFound        = errors.New("vault engine: series not found")
	ErrVaultNotFound         = errors.New("vault engine: vault not found")
	ErrAlreadyConfigured     = errors.New("vault engine: already configured")
	ErrRatioBelowOne         = errors.New("vault engine: collateralization ratio below 1.0 ray")
	ErrIlkNotApproved        = errors.New("vault engine: ilk not approved for series base")
	ErrUnauthorized          = errors.New("vault engine: unauthorized")
	ErrUndercollateralized   = errors.New("vault engine: undercollateralized")
	ErrNotEmpty              = errors.New("vault engine: vault not empty")
	ErrMismatchedSeriesOrIlk = errors.New("vault engine: vaults reference different series or ilk")
	ErrNotYetMature          = errors.New("vault engine: series not yet mature")
	ErrOracleUnavailable     = errors.New("vault engine: oracle unavailable")
)

// State is the persistence backend for the ledger. Implementations must
// keep the owner+ilk index consistent with vault puts and deletes.
type State interface {
	HasAsset(id AssetID) (bool, error)
	PutAsset(id AssetID) error
	GetSpotConfig(base, ilk AssetID) (*SpotConfig, bool, error)
	PutSpotConfig(base, ilk AssetID, cfg *SpotConfig) error
	GetSeries(id SeriesID) (*Series, bool, error)
	PutSeries(id SeriesID, s *Series) error
	GetVault(id VaultID) (*Vault, bool, error)
	PutVault(id VaultID, v *Vault) error
	DeleteVault(id VaultID) error
	GetBalances(id VaultID) (*Balances, bool, error)
	PutBalances(id VaultID, b *Balances) error
	DeleteBalances(id VaultID) error
	VaultsByOwnerIlk(owner [20]byte, ilk AssetID) ([]VaultID, error)
	NextVaultNonce() (uint64, error)
}

type oracleKey [12]byte

func spotKey(base, ilk AssetID) oracleKey {
	var k oracleKey
	copy(k[:6], base[:])
	copy(k[6:], ilk[:])
	return k
}

// Engine owns vault identity, balances, series accrual and the
// collateralization checks every balance mutation must pass. All mutations
// are atomic: a failed validation leaves state untouched.
type Engine struct {
	state       State
	emitter     events.Emitter
	auth        Authorizer
	pauses      nativecommon.PauseView
	nowFn       func() int64
	spotOracles map[oracleKey]SpotOracle
	rateOracles map[AssetID]RateOracle
}

// NewEngine constructs a ledger engine with a no-op emitter and wall-clock
// time source.
func NewEngine() *Engine {
	return &Engine{
		emitter:     events.NoopEmitter{},
		nowFn:       func() int64 { return time.Now().Unix() },
		spotOracles: make(map[oracleKey]SpotOracle),
		rateOracles: make(map[AssetID]RateOracle),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state State) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetAuthorizer configures the operator-permission collaborator. A nil
// authorizer restricts every vault to its owner.
func (e *Engine) SetAuthorizer(auth Authorizer) { e.auth = auth }

// SetPauses wires the governance pause switches.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetNowFunc overrides the time source, primarily for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(ev events.Event) {
	if e == nil || e.emitter == nil || ev == nil {
		return
	}
	e.emitter.Emit(ev)
}

// AddAsset registers an asset identifier usable as base or ilk.
func (e *Engine) AddAsset(id AssetID) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	exists, err := e.state.HasAsset(id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("asset %s: %w", id, ErrAlreadyConfigured)
	}
	return e.state.PutAsset(id)
}

// SetRateOracle binds the accrual feed for a base asset, at most once.
func (e *Engine) SetRateOracle(base AssetID, oracle RateOracle) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if oracle == nil {
		return fmt.Errorf("rate oracle for %s: %w", base, ErrOracleUnavailable)
	}
	exists, err := e.state.HasAsset(base)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("base %s: %w", base, ErrAssetNotFound)
	}
	if _, bound := e.rateOracles[base]; bound {
		return fmt.Errorf("rate oracle for %s: %w", base, ErrAlreadyConfigured)
	}
	e.rateOracles[base] = oracle
	return nil
}

// SetSpotOracle binds the price feed and collateralization ratio for a
// (base, ilk) pair, at most once. The ratio must be at least 1.0 RAY.
func (e *Engine) SetSpotOracle(base, ilk AssetID, oracle SpotOracle, ratioRay *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if oracle == nil {
		return fmt.Errorf("spot oracle for %s/%s: %w", base, ilk, ErrOracleUnavailable)
	}
	if ratioRay == nil || ratioRay.Lt(fixed.Ray()) {
		return ErrRatioBelowOne
	}
	baseExists, err := e.state.HasAsset(base)
	if err != nil {
		return err
	}
	if !baseExists {
		return fmt.Errorf("base %s: %w", base, ErrAssetNotFound)
	}
	ilkExists, err := e.state.HasAsset(ilk)
	if err != nil {
		return err
	}
	if !ilkExists {
		return fmt.Errorf("ilk %s: %w", ilk, ErrIlkNotFound)
	}
	if _, configured, err := e.state.GetSpotConfig(base, ilk); err != nil {
		return err
	} else if configured {
		return fmt.Errorf("spot oracle for %s/%s: %w", base, ilk, ErrAlreadyConfigured)
	}
	cfg := &SpotConfig{RatioRay: new(uint256.Int).Set(ratioRay)}
	if err := e.state.PutSpotConfig(base, ilk, cfg); err != nil {
		return err
	}
	e.spotOracles[spotKey(base, ilk)] = oracle
	return nil
}

// ReplaceSpotOracle atomically updates the oracle and ratio of an already
// configured pair. This is the authorized reconfiguration path; host wiring
// must gate access to it.
func (e *Engine) ReplaceSpotOracle(base, ilk AssetID, oracle SpotOracle, ratioRay *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if oracle == nil {
		return fmt.Errorf("spot oracle for %s/%s: %w", base, ilk, ErrOracleUnavailable)
	}
	if ratioRay == nil || ratioRay.Lt(fixed.Ray()) {
		return ErrRatioBelowOne
	}
	if _, configured, err := e.state.GetSpotConfig(base, ilk); err != nil {
		return err
	} else if !configured {
		return fmt.Errorf("spot oracle for %s/%s: %w", base, ilk, ErrIlkNotApproved)
	}
	cfg := &SpotConfig{RatioRay: new(uint256.Int).Set(ratioRay)}
	if err := e.state.PutSpotConfig(base, ilk, cfg); err != nil {
		return err
	}
	e.spotOracles[spotKey(base, ilk)] = oracle
	return nil
}

// AddSeries registers a debt cohort denominated in a known base asset.
func (e *Engine) AddSeries(id SeriesID, base AssetID, maturity int64, fyToken common.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if maturity <= 0 {
		return fmt.Errorf("series %s: maturity must be positive", id)
	}
	baseExists, err := e.state.HasAsset(base)
	if err != nil {
		return err
	}
	if !baseExists {
		return fmt.Errorf("base %s: %w", base, ErrAssetNotFound)
	}
	if _, exists, err := e.state.GetSeries(id); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("series %s: %w", id, ErrAlreadyConfigured)
	}
	return e.state.PutSeries(id, &Series{Base: base, Maturity: maturity, FYToken: fyToken})
}

// Build opens a zero-balance vault for owner under the given series and
// ilk. The ilk must have a spot oracle configured against the series base;
// unapproved combinations are rejected as unauthorized.
func (e *Engine) Build(owner common.Address, seriesID SeriesID, ilkID AssetID) (VaultID, error) {
	if e == nil || e.state == nil {
		return VaultID{}, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return VaultID{}, err
	}
	series, exists, err := e.state.GetSeries(seriesID)
	if err != nil {
		return VaultID{}, err
	}
	if !exists {
		return VaultID{}, fmt.Errorf("series %s: %w", seriesID, ErrSeriesNotFound)
	}
	ilkExists, err := e.state.HasAsset(ilkID)
	if err != nil {
		return VaultID{}, err
	}
	if !ilkExists {
		return VaultID{}, fmt.Errorf("ilk %s: %w", ilkID, ErrIlkNotFound)
	}
	if _, configured, err := e.state.GetSpotConfig(series.Base, ilkID); err != nil {
		return VaultID{}, err
	} else if !configured {
		return VaultID{}, fmt.Errorf("%w: ilk %s has no spot oracle for base %s (%v)",
			ErrUnauthorized, ilkID, series.Base, ErrIlkNotApproved)
	}

	id, err := e.deriveVaultID(owner, seriesID, ilkID)
	if err != nil {
		return VaultID{}, err
	}
	if err := e.state.PutVault(id, &Vault{Owner: owner, Series: seriesID, Ilk: ilkID}); err != nil {
		return VaultID{}, err
	}
	if err := e.state.PutBalances(id, &Balances{Ink: new(uint256.Int), Art: new(uint256.Int)}); err != nil {
		return VaultID{}, err
	}

	e.emit(events.VaultOpened{Vault: id, Owner: owner, Series: seriesID, Ilk: ilkID})
	return id, nil
}

func (e *Engine) deriveVaultID(owner common.Address, seriesID SeriesID, ilkID AssetID) (VaultID, error) {
	for {
		nonce, err := e.state.NextVaultNonce()
		if err != nil {
			return VaultID{}, err
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], nonce)
		digest := ethcrypto.Keccak256(owner.Bytes(), seriesID[:], ilkID[:], buf[:])
		var id VaultID
		copy(id[:], digest[:12])
		if _, exists, err := e.state.GetVault(id); err != nil {
			return VaultID{}, err
		} else if !exists {
			return id, nil
		}
	}
}

// Destroy removes a vault once both balances are zero.
func (e *Engine) Destroy(caller common.Address, id VaultID) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	v, exists, err := e.state.GetVault(id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("vault %s: %w", id, ErrVaultNotFound)
	}
	if !e.isAuthorized(caller, v, id, ActionDestroy) {
		return fmt.Errorf("destroy %s: %w", id, ErrUnauthorized)
	}
	balances, err := e.balancesOf(id)
	if err != nil {
		return err
	}
	if !balances.Ink.IsZero() || !balances.Art.IsZero() {
		return fmt.Errorf("vault %s: %w", id, ErrNotEmpty)
	}
	if err := e.state.DeleteBalances(id); err != nil {
		return err
	}
	if err := e.state.DeleteVault(id); err != nil {
		return err
	}
	e.emit(events.VaultDestroyed{Vault: id, Owner: v.Owner})
	return nil
}

// Pour applies signed collateral and debt deltas to a vault. The mutation
// commits only if neither balance goes negative and the vault stays
// collateralized whenever debt remains.
func (e *Engine) Pour(caller common.Address, id VaultID, inkDelta, artDelta *big.Int) (*Balances, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	v, exists, err := e.state.GetVault(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("vault %s: %w", id, ErrVaultNotFound)
	}
	if !e.isAuthorized(caller, v, id, ActionPour) {
		return nil, fmt.Errorf("pour %s: %w", id, ErrUnauthorized)
	}
	balances, err := e.balancesOf(id)
	if err != nil {
		return nil, err
	}

	ink, err := fixed.AddDelta(balances.Ink, inkDelta)
	if err != nil {
		return nil, err
	}
	art, err := fixed.AddDelta(balances.Art, artDelta)
	if err != nil {
		return nil, err
	}
	next := &Balances{Ink: ink, Art: art}

	if !next.Art.IsZero() {
		level, err := e.levelWith(v, next)
		if err != nil {
			return nil, err
		}
		if level.Sign() < 0 {
			return nil, fmt.Errorf("vault %s: %w", id, ErrUndercollateralized)
		}
	}
	if err := e.state.PutBalances(id, next); err != nil {
		return nil, err
	}

	e.emit(events.BalancesChanged{
		Vault:    id,
		InkDelta: cloneDelta(inkDelta),
		ArtDelta: cloneDelta(artDelta),
		Ink:      new(uint256.Int).Set(next.Ink),
		Art:      new(uint256.Int).Set(next.Art),
	})
	return next.Clone(), nil
}

// Stir moves collateral and debt between two vaults of the same series and
// ilk. Collateral leaves at the source owner's risk, debt arrives at the
// destination owner's risk, so each leg requires its own approval.
func (e *Engine) Stir(caller common.Address, from, to VaultID, ink, art *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("stir %s: source and destination are the same vault", from)
	}
	fromVault, exists, err := e.state.GetVault(from)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("vault %s: %w", from, ErrVaultNotFound)
	}
	toVault, exists, err := e.state.GetVault(to)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("vault %s: %w", to, ErrVaultNotFound)
	}
	if fromVault.Series != toVault.Series || fromVault.Ilk != toVault.Ilk {
		return ErrMismatchedSeriesOrIlk
	}
	if ink == nil {
		ink = new(uint256.Int)
	}
	if art == nil {
		art = new(uint256.Int)
	}
	if !ink.IsZero() && !e.isAuthorized(caller, fromVault, from, ActionStir) {
		return fmt.Errorf("stir origin %s: %w", from, ErrUnauthorized)
	}
	if !art.IsZero() && !e.isAuthorized(caller, toVault, to, ActionStir) {
		return fmt.Errorf("stir destination %s: %w", to, ErrUnauthorized)
	}

	fromBalances, err := e.balancesOf(from)
	if err != nil {
		return err
	}
	toBalances, err := e.balancesOf(to)
	if err != nil {
		return err
	}

	fromInk, err := fixed.Sub(fromBalances.Ink, ink)
	if err != nil {
		return err
	}
	fromArt, err := fixed.Sub(fromBalances.Art, art)
	if err != nil {
		return err
	}
	toInk, err := fixed.Add(toBalances.Ink, ink)
	if err != nil {
		return err
	}
	toArt, err := fixed.Add(toBalances.Art, art)
	if err != nil {
		return err
	}
	nextFrom := &Balances{Ink: fromInk, Art: fromArt}
	nextTo := &Balances{Ink: toInk, Art: toArt}

	for _, check := range []struct {
		id VaultID
		v  *Vault
		b  *Balances
	}{{from, fromVault, nextFrom}, {to, toVault, nextTo}} {
		if check.b.Art.IsZero() {
			continue
		}
		level, err := e.levelWith(check.v, check.b)
		if err != nil {
			return err
		}
		if level.Sign() < 0 {
			return fmt.Errorf("vault %s: %w", check.id, ErrUndercollateralized)
		}
	}

	if err := e.state.PutBalances(from, nextFrom); err != nil {
		return err
	}
	if err := e.state.PutBalances(to, nextTo); err != nil {
		return err
	}

	e.emit(events.BalancesMoved{
		From: from,
		To:   to,
		Ink:  new(uint256.Int).Set(ink),
		Art:  new(uint256.Int).Set(art),
	})
	return nil
}

// Slurp reduces a vault's collateral and debt together without the
// collateralization re-check. It exists for the liquidation engine, which
// by construction only ever shrinks both sides of a position; host wiring
// must not expose it to ordinary callers.
func (e *Engine) Slurp(id VaultID, inkTaken, artTaken *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	_, exists, err := e.state.GetVault(id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("vault %s: %w", id, ErrVaultNotFound)
	}
	balances, err := e.balancesOf(id)
	if err != nil {
		return err
	}
	if inkTaken == nil {
		inkTaken = new(uint256.Int)
	}
	if artTaken == nil {
		artTaken = new(uint256.Int)
	}
	ink, err := fixed.Sub(balances.Ink, inkTaken)
	if err != nil {
		return err
	}
	art, err := fixed.Sub(balances.Art, artTaken)
	if err != nil {
		return err
	}
	next := &Balances{Ink: ink, Art: art}
	if err := e.state.PutBalances(id, next); err != nil {
		return err
	}

	e.emit(events.BalancesChanged{
		Vault:    id,
		InkDelta: new(big.Int).Neg(inkTaken.ToBig()),
		ArtDelta: new(big.Int).Neg(artTaken.ToBig()),
		Ink:      new(uint256.Int).Set(next.Ink),
		Art:      new(uint256.Int).Set(next.Art),
	})
	return nil
}

// Level returns the signed collateralization margin of a vault:
// ink*spot - art*accrual*ratio, WAD-scaled in base terms. Non-negative
// means collateralized. Oracles are read live on every call.
func (e *Engine) Level(id VaultID) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	v, exists, err := e.state.GetVault(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("vault %s: %w", id, ErrVaultNotFound)
	}
	balances, err := e.balancesOf(id)
	if err != nil {
		return nil, err
	}
	return e.levelWith(v, balances)
}

func (e *Engine) levelWith(v *Vault, b *Balances) (*big.Int, error) {
	series, exists, err := e.state.GetSeries(v.Series)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("series %s: %w", v.Series, ErrSeriesNotFound)
	}
	cfg, spot, err := e.spotFor(series.Base, v.Ilk)
	if err != nil {
		return nil, err
	}
	accrual, err := e.accrualFor(series)
	if err != nil {
		return nil, err
	}

	// Collateral value rounds down and debt cost rounds up so rounding can
	// never flip an undercollateralized vault to healthy.
	value, err := fixed.MulRay(b.Ink, spot)
	if err != nil {
		return nil, err
	}
	cost, err := fixed.MulRayUp(b.Art, accrual)
	if err != nil {
		return nil, err
	}
	cost, err = fixed.MulRayUp(cost, cfg.RatioRay)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(value.ToBig(), cost.ToBig()), nil
}

func (e *Engine) spotFor(base, ilk AssetID) (*SpotConfig, *uint256.Int, error) {
	cfg, configured, err := e.state.GetSpotConfig(base, ilk)
	if err != nil {
		return nil, nil, err
	}
	if !configured {
		return nil, nil, fmt.Errorf("pair %s/%s: %w", base, ilk, ErrIlkNotApproved)
	}
	oracle, bound := e.spotOracles[spotKey(base, ilk)]
	if !bound {
		return nil, nil, fmt.Errorf("spot %s/%s: %w", base, ilk, ErrOracleUnavailable)
	}
	price, ok := oracle.Peek()
	if !ok || price == nil {
		return nil, nil, fmt.Errorf("spot %s/%s: %w", base, ilk, ErrOracleUnavailable)
	}
	return cfg, price, nil
}

// Accrual returns the RAY factor converting face-value debt of a series
// into settlement value. Identity before maturity; after maturity the
// recorded value, or a live floored rate read while unrecorded.
func (e *Engine) Accrual(id SeriesID) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	series, exists, err := e.state.GetSeries(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("series %s: %w", id, ErrSeriesNotFound)
	}
	return e.accrualFor(series)
}

func (e *Engine) accrualFor(series *Series) (*uint256.Int, error) {
	if series.AccrualAtMaturity != nil {
		return new(uint256.Int).Set(series.AccrualAtMaturity), nil
	}
	if e.nowFn() < series.Maturity {
		return fixed.Ray(), nil
	}
	oracle, bound := e.rateOracles[series.Base]
	if !bound {
		return nil, fmt.Errorf("rate %s: %w", series.Base, ErrOracleUnavailable)
	}
	rate, ok := oracle.Peek()
	if !ok || rate == nil {
		return nil, fmt.Errorf("rate %s: %w", series.Base, ErrOracleUnavailable)
	}
	// Settlement value never drops below face value.
	return fixed.Max(rate, fixed.Ray()), nil
}

// Mature records the series accrual exactly once, flooring the oracle rate
// at identity. Calling again after the first success is a no-op.
func (e *Engine) Mature(id SeriesID) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	series, exists, err := e.state.GetSeries(id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("series %s: %w", id, ErrSeriesNotFound)
	}
	if series.AccrualAtMaturity != nil {
		return nil
	}
	now := e.nowFn()
	if now < series.Maturity {
		return fmt.Errorf("series %s: %w", id, ErrNotYetMature)
	}
	oracle, bound := e.rateOracles[series.Base]
	if !bound {
		return fmt.Errorf("rate %s: %w", series.Base, ErrOracleUnavailable)
	}
	rate, ok := oracle.Peek()
	if !ok || rate == nil {
		return fmt.Errorf("rate %s: %w", series.Base, ErrOracleUnavailable)
	}
	recorded := fixed.Max(rate, fixed.Ray())
	next := series.Clone()
	next.AccrualAtMaturity = recorded
	if err := e.state.PutSeries(id, next); err != nil {
		return err
	}

	e.emit(events.SeriesMatured{Series: id, Accrual: new(uint256.Int).Set(recorded), MaturedAt: now})
	return nil
}

// Vault returns a copy of a vault's immutable metadata.
func (e *Engine) Vault(id VaultID) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	v, exists, err := e.state.GetVault(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("vault %s: %w", id, ErrVaultNotFound)
	}
	return v.Clone(), nil
}

// Balances returns a copy of a vault's current balances.
func (e *Engine) Balances(id VaultID) (*Balances, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, exists, err := e.state.GetVault(id); err != nil {
		return nil, err
	} else if !exists {
		return nil, fmt.Errorf("vault %s: %w", id, ErrVaultNotFound)
	}
	balances, err := e.balancesOf(id)
	if err != nil {
		return nil, err
	}
	return balances.Clone(), nil
}

// LiquidationTargets snapshots every vault an owner holds under an ilk, in
// ascending (maturity, vault id) order, with live debt values and spot
// prices. The auction engine recomputes this view on demand rather than
// trusting any stored aggregate.
func (e *Engine) LiquidationTargets(ilk AssetID, owner [20]byte) ([]Target, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	ids, err := e.state.VaultsByOwnerIlk(owner, ilk)
	if err != nil {
		return nil, err
	}
	targets := make([]Target, 0, len(ids))
	for _, id := range ids {
		v, exists, err := e.state.GetVault(id)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		series, exists, err := e.state.GetSeries(v.Series)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("series %s: %w", v.Series, ErrSeriesNotFound)
		}
		balances, err := e.balancesOf(id)
		if err != nil {
			return nil, err
		}
		accrual, err := e.accrualFor(series)
		if err != nil {
			return nil, err
		}
		debt, err := fixed.MulRayUp(balances.Art, accrual)
		if err != nil {
			return nil, err
		}
		_, spot, err := e.spotFor(series.Base, v.Ilk)
		if err != nil {
			return nil, err
		}
		targets = append(targets, Target{
			ID:       id,
			Series:   v.Series,
			Maturity: series.Maturity,
			Ink:      new(uint256.Int).Set(balances.Ink),
			Art:      new(uint256.Int).Set(balances.Art),
			Debt:     debt,
			SpotRay:  spot,
		})
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Maturity != targets[j].Maturity {
			return targets[i].Maturity < targets[j].Maturity
		}
		return string(targets[i].ID[:]) < string(targets[j].ID[:])
	})
	return targets, nil
}

// AggregateLevel sums the levels of every vault an owner holds under an
// ilk. A negative aggregate makes the position eligible for liquidation.
func (e *Engine) AggregateLevel(ilk AssetID, owner [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	ids, err := e.state.VaultsByOwnerIlk(owner, ilk)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, id := range ids {
		v, exists, err := e.state.GetVault(id)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		balances, err := e.balancesOf(id)
		if err != nil {
			return nil, err
		}
		level, err := e.levelWith(v, balances)
		if err != nil {
			return nil, err
		}
		total.Add(total, level)
	}
	return total, nil
}

func (e *Engine) balancesOf(id VaultID) (*Balances, error) {
	balances, exists, err := e.state.GetBalances(id)
	if err != nil {
		return nil, err
	}
	if !exists || balances == nil {
		balances = &Balances{}
	}
	balances.EnsureDefaults()
	return balances, nil
}

func (e *Engine) isAuthorized(caller common.Address, v *Vault, id VaultID, action Action) bool {
	if caller == v.Owner {
		return true
	}
	if e.auth == nil {
		return false
	}
	return e.auth.IsAuthorized(caller, id, action)
}

func cloneDelta(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
