package auction

import (
	"errors"
	"time"

	"github.com/holiman/uint256"

	"fycore/core/fixed"
)

// Params governs the price decay of every liquidation auction.
type Params struct {
	// Duration is the window over which the price fraction decays linearly
	// from 1.0 RAY to FloorRay. After the window the floor holds forever.
	Duration time.Duration
	// FloorRay is the fraction of full collateral value a liquidator still
	// pays at the end of the window. Never zero: the floor bounds liquidator
	// loss and keeps stalled auctions resolvable.
	FloorRay *uint256.Int
}

// DefaultParams returns a one hour auction decaying to half of full value.
func DefaultParams() Params {
	return Params{
		Duration: time.Hour,
		FloorRay: uint256.MustFromDecimal("500000000000000000000000000"),
	}
}

// Validate rejects parameter sets the decay formula cannot support.
func (p Params) Validate() error {
	if p.Duration <= 0 {
		return errors.New("auction params: duration must be positive")
	}
	if p.FloorRay == nil || p.FloorRay.IsZero() {
		return errors.New("auction params: floor fraction must be positive")
	}
	if p.FloorRay.Gt(fixed.Ray()) {
		return errors.New("auction params: floor fraction above 1.0 ray")
	}
	return nil
}

// fraction computes the RAY price fraction for the given elapsed seconds:
// RAY - (RAY - floor) * min(elapsed, duration) / duration.
func (p Params) fraction(elapsed int64) *uint256.Int {
	if elapsed < 0 {
		elapsed = 0
	}
	durationSec := int64(p.Duration / time.Second)
	if elapsed >= durationSec {
		return new(uint256.Int).Set(p.FloorRay)
	}
	span := new(uint256.Int).Sub(fixed.Ray(), p.FloorRay)
	decayed := new(uint256.Int).Mul(span, uint256.NewInt(uint64(elapsed)))
	decayed.Div(decayed, uint256.NewInt(uint64(durationSec)))
	return new(uint256.Int).Sub(fixed.Ray(), decayed)
}
