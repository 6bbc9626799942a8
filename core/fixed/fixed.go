package fixed

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow     = errors.New("fixed: arithmetic overflow")
	ErrUnderflow    = errors.New("fixed: arithmetic underflow")
	ErrDivideByZero = errors.New("fixed: division by zero")
)

var (
	wad = uint256.MustFromDecimal("1000000000000000000")
	ray = uint256.MustFromDecimal("1000000000000000000000000000")
)

// Wad returns 1e18, the scaling factor for token amounts.
func Wad() *uint256.Int { return new(uint256.Int).Set(wad) }

// Ray returns 1e27, the scaling factor for prices, rates and ratios.
func Ray() *uint256.Int { return new(uint256.Int).Set(ray) }

// Add returns a+b, failing instead of wrapping on overflow.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b, failing when the result would go below zero.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	if a.Lt(b) {
		return nil, ErrUnderflow
	}
	return new(uint256.Int).Sub(a, b), nil
}

// MulRay returns a*b/RAY rounded down.
func MulRay(a, b *uint256.Int) (*uint256.Int, error) {
	return mulDiv(a, b, ray, false)
}

// MulRayUp returns a*b/RAY rounded up.
func MulRayUp(a, b *uint256.Int) (*uint256.Int, error) {
	return mulDiv(a, b, ray, true)
}

// DivRay returns a*RAY/b rounded down.
func DivRay(a, b *uint256.Int) (*uint256.Int, error) {
	return mulDiv(a, ray, b, false)
}

// DivRayUp returns a*RAY/b rounded up.
func DivRayUp(a, b *uint256.Int) (*uint256.Int, error) {
	return mulDiv(a, ray, b, true)
}

// MulDiv returns a*b/denom rounded down.
func MulDiv(a, b, denom *uint256.Int) (*uint256.Int, error) {
	return mulDiv(a, b, denom, false)
}

// MulDivUp returns a*b/denom rounded up.
func MulDivUp(a, b, denom *uint256.Int) (*uint256.Int, error) {
	return mulDiv(a, b, denom, true)
}

// mulDiv computes a*b/denom through big.Int so the intermediate product is
// never truncated, then requires the quotient to fit 256 bits.
func mulDiv(a, b, denom *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if denom.IsZero() {
		return nil, ErrDivideByZero
	}
	product := new(big.Int).Mul(a.ToBig(), b.ToBig())
	d := denom.ToBig()
	quo, rem := new(big.Int).QuoRem(product, d, new(big.Int))
	if roundUp && rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	out, overflow := uint256.FromBig(quo)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// AddDelta applies a signed delta to an unsigned balance. A delta that would
// take the balance below zero fails with ErrUnderflow.
func AddDelta(v *uint256.Int, delta *big.Int) (*uint256.Int, error) {
	if delta == nil || delta.Sign() == 0 {
		return new(uint256.Int).Set(v), nil
	}
	next := new(big.Int).Add(v.ToBig(), delta)
	if next.Sign() < 0 {
		return nil, ErrUnderflow
	}
	out, overflow := uint256.FromBig(next)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// Min returns the smaller of a and b as a fresh value.
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}

// Max returns the larger of a and b as a fresh value.
func Max(a, b *uint256.Int) *uint256.Int {
	if a.Gt(b) {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}
