package auction

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"fycore/core/events"
	"fycore/core/fixed"
	nativecommon "fycore/native/common"
	"fycore/native/vault"
)

const moduleName = "auction"

var (
	errNilState      = errors.New("auction engine: state not configured")
	errNilLedger     = errors.New("auction engine: ledger not configured")
	errNilSettler    = errors.New("auction engine: settler not configured")
	errInvalidAmount = errors.New("auction engine: amount must be positive")
	errNoDebt        = errors.New("auction engine: no outstanding debt")

	ErrNotUndercollateralized   = errors.New("auction engine: position is not undercollateralized")
	ErrStillUndercollateralized = errors.New("auction engine: position is still undercollateralized")
	ErrAlreadyInLiquidation     = errors.New("auction engine: position already in liquidation")
	ErrNotInLiquidation         = errors.New("auction engine: position not in liquidation")
)

// State persists the per (ilk, owner) liquidation records.
type State interface {
	GetLiquidation(ilk vault.AssetID, owner [20]byte) (startedAt int64, exists bool, err error)
	PutLiquidation(ilk vault.AssetID, owner [20]byte, startedAt int64) error
	DeleteLiquidation(ilk vault.AssetID, owner [20]byte) error
}

// Ledger is the slice of the vault engine the auction engine depends on.
// Satisfied by *vault.Engine.
type Ledger interface {
	LiquidationTargets(ilk vault.AssetID, owner [20]byte) ([]vault.Target, error)
	AggregateLevel(ilk vault.AssetID, owner [20]byte) (*big.Int, error)
	Slurp(id vault.VaultID, inkTaken, artTaken *uint256.Int) error
}

// Settler moves repayment funds from buyers and collateral to them. The
// engine calls Pull only after every internal validation has passed, and
// Push only after all balance effects are committed.
type Settler interface {
	Pull(account [20]byte, amount *uint256.Int) error
	Push(account [20]byte, amount *uint256.Int) error
}

// Engine runs the liquidation state machine: a per (ilk, owner) record
// whose collateral price decays linearly to a floor over a fixed window,
// resolved by buyers repaying debt for proportional collateral.
type Engine struct {
	state   State
	ledger  Ledger
	settler Settler
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
	params  Params
}

// NewEngine constructs an auction engine with the given decay parameters.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		params:  params,
	}, nil
}

// SetState wires the liquidation-record persistence.
func (e *Engine) SetState(state State) { e.state = state }

// SetLedger wires the vault engine the auctions read and mutate.
func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

// SetSettler wires the asset-transfer collaborator.
func (e *Engine) SetSettler(settler Settler) { e.settler = settler }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

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

func (e *Engine) ready() error {
	switch {
	case e == nil || e.state == nil:
		return errNilState
	case e.ledger == nil:
		return errNilLedger
	}
	return nil
}

// Start opens a liquidation for every vault owner holds under ilk. The
// aggregate level must be negative and no auction may already be running
// for the pair.
func (e *Engine) Start(ilk vault.AssetID, owner [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if _, exists, err := e.state.GetLiquidation(ilk, owner); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%s/%x: %w", ilk, owner, ErrAlreadyInLiquidation)
	}
	level, err := e.ledger.AggregateLevel(ilk, owner)
	if err != nil {
		return err
	}
	if level.Sign() >= 0 {
		return fmt.Errorf("%s/%x: %w", ilk, owner, ErrNotUndercollateralized)
	}
	startedAt := e.nowFn()
	if err := e.state.PutLiquidation(ilk, owner, startedAt); err != nil {
		return err
	}

	e.emit(events.AuctionStarted{Ilk: ilk, Owner: owner, StartedAt: startedAt})
	return nil
}

// Cancel clears a liquidation whose position has returned to solvency.
func (e *Engine) Cancel(ilk vault.AssetID, owner [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if _, exists, err := e.state.GetLiquidation(ilk, owner); err != nil {
		return err
	} else if !exists {
		return fmt.Errorf("%s/%x: %w", ilk, owner, ErrNotInLiquidation)
	}
	level, err := e.ledger.AggregateLevel(ilk, owner)
	if err != nil {
		return err
	}
	if level.Sign() < 0 {
		return fmt.Errorf("%s/%x: %w", ilk, owner, ErrStillUndercollateralized)
	}
	if err := e.state.DeleteLiquidation(ilk, owner); err != nil {
		return err
	}

	e.emit(events.AuctionCancelled{Ilk: ilk, Owner: owner})
	return nil
}

// Price returns the current RAY price fraction of an active auction. It is
// a pure function of elapsed wall-clock time: 1.0 at the start, linearly
// down to the floor at the end of the window, the floor thereafter.
func (e *Engine) Price(ilk vault.AssetID, owner [20]byte) (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	startedAt, exists, err := e.state.GetLiquidation(ilk, owner)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%s/%x: %w", ilk, owner, ErrNotInLiquidation)
	}
	return e.params.fraction(e.nowFn() - startedAt), nil
}

// buyStep is one vault's share of a buy, computed before any mutation.
type buyStep struct {
	id       vault.VaultID
	inkTaken *uint256.Int
	artTaken *uint256.Int
	artLeft  *uint256.Int
}

// Buy lets a buyer repay up to debtToCover of the owner's aggregate debt
// under ilk in exchange for collateral priced at the current fraction.
// Excess coverage is capped, never rejected; collateral owed rounds up in
// the buyer's favor and is capped at the remaining posted collateral (the
// full-liquidation path). On a partial buy the face-value debt retired
// rounds down, so the repayment pulled may exceed the retired debt value
// by at most one dust unit, kept by the position. Partial buys leave the
// decay clock untouched. It returns the collateral bought and the debt
// actually repaid.
func (e *Engine) Buy(ilk vault.AssetID, owner, buyer [20]byte, debtToCover *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, nil, err
	}
	if e.settler == nil {
		return nil, nil, errNilSettler
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, nil, err
	}
	if debtToCover == nil || debtToCover.IsZero() {
		return nil, nil, errInvalidAmount
	}
	startedAt, exists, err := e.state.GetLiquidation(ilk, owner)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, fmt.Errorf("%s/%x: %w", ilk, owner, ErrNotInLiquidation)
	}

	targets, err := e.ledger.LiquidationTargets(ilk, owner)
	if err != nil {
		return nil, nil, err
	}
	aggregate := new(uint256.Int)
	for i := range targets {
		sum, err := fixed.Add(aggregate, targets[i].Debt)
		if err != nil {
			return nil, nil, err
		}
		aggregate = sum
	}
	if aggregate.IsZero() {
		return nil, nil, errNoDebt
	}
	cover := fixed.Min(debtToCover, aggregate)
	fraction := e.params.fraction(e.nowFn() - startedAt)

	// Plan the whole allocation before touching any balance: debt is drawn
	// down in the targets' deterministic order, collateral proportionally
	// from the same vaults.
	steps := make([]buyStep, 0, len(targets))
	remaining := new(uint256.Int).Set(cover)
	totalInk := new(uint256.Int)
	for i := range targets {
		t := &targets[i]
		if remaining.IsZero() {
			break
		}
		if t.Debt.IsZero() {
			continue
		}
		take := fixed.Min(remaining, t.Debt)

		// Collateral owed = take / fraction at spot, rounded toward the
		// buyer; the protocol, not the buyer, absorbs fractional dust.
		value, err := fixed.DivRayUp(take, fraction)
		if err != nil {
			return nil, nil, err
		}
		inkOwed, err := fixed.DivRayUp(value, t.SpotRay)
		if err != nil {
			return nil, nil, err
		}
		if inkOwed.Gt(t.Ink) {
			inkOwed = new(uint256.Int).Set(t.Ink)
		}

		var artTaken *uint256.Int
		if take.Eq(t.Debt) {
			artTaken = new(uint256.Int).Set(t.Art)
		} else {
			artTaken, err = fixed.MulDiv(t.Art, take, t.Debt)
			if err != nil {
				return nil, nil, err
			}
		}
		artLeft, err := fixed.Sub(t.Art, artTaken)
		if err != nil {
			return nil, nil, err
		}

		steps = append(steps, buyStep{id: t.ID, inkTaken: inkOwed, artTaken: artTaken, artLeft: artLeft})
		totalInk, err = fixed.Add(totalInk, inkOwed)
		if err != nil {
			return nil, nil, err
		}
		remaining, err = fixed.Sub(remaining, take)
		if err != nil {
			return nil, nil, err
		}
	}

	// All validation is done: pull the repayment first so a buyer without
	// funds cannot leave the ledger partially debited.
	if err := e.settler.Pull(buyer, cover); err != nil {
		return nil, nil, err
	}

	debtCleared := true
	for _, step := range steps {
		if err := e.ledger.Slurp(step.id, step.inkTaken, step.artTaken); err != nil {
			return nil, nil, err
		}
		if !step.artLeft.IsZero() {
			debtCleared = false
		}
	}
	// Vaults the buy never reached still carry debt.
	covered := make(map[vault.VaultID]bool, len(steps))
	for _, step := range steps {
		covered[step.id] = true
	}
	for i := range targets {
		if !covered[targets[i].ID] && !targets[i].Art.IsZero() {
			debtCleared = false
		}
	}

	resolved := false
	if debtCleared {
		if err := e.state.DeleteLiquidation(ilk, owner); err != nil {
			return nil, nil, err
		}
		resolved = true
	}

	if err := e.settler.Push(buyer, totalInk); err != nil {
		return nil, nil, err
	}

	e.emit(events.AuctionBought{
		Ilk:        ilk,
		Owner:      owner,
		Buyer:      buyer,
		DebtRepaid: new(uint256.Int).Set(cover),
		InkBought:  new(uint256.Int).Set(totalInk),
	})
	if resolved {
		e.emit(events.AuctionResolved{Ilk: ilk, Owner: owner})
	}
	return totalInk, new(uint256.Int).Set(cover), nil
}
