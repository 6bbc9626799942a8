package fixed

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func TestAddOverflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	if _, err := Add(max, uint256.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	sum, err := Add(uint256.NewInt(2), uint256.NewInt(3))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum.Uint64() != 5 {
		t.Fatalf("unexpected sum: %s", sum)
	}
}

func TestSubUnderflow(t *testing.T) {
	if _, err := Sub(uint256.NewInt(1), uint256.NewInt(2)); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	diff, err := Sub(uint256.NewInt(7), uint256.NewInt(7))
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if !diff.IsZero() {
		t.Fatalf("unexpected diff: %s", diff)
	}
}

func TestMulRayRounding(t *testing.T) {
	// 10 * 1.5 RAY = 15 exactly, both directions agree.
	onePointFive := uint256.MustFromDecimal("1500000000000000000000000000")
	down, err := MulRay(uint256.NewInt(10), onePointFive)
	if err != nil {
		t.Fatalf("mulray: %v", err)
	}
	up, err := MulRayUp(uint256.NewInt(10), onePointFive)
	if err != nil {
		t.Fatalf("mulrayup: %v", err)
	}
	if down.Uint64() != 15 || up.Uint64() != 15 {
		t.Fatalf("expected 15/15, got %s/%s", down, up)
	}

	// 1 * (RAY+1)/RAY leaves a remainder: down truncates, up bumps.
	rayPlusOne, _ := Add(Ray(), uint256.NewInt(1))
	down, err = MulRay(uint256.NewInt(1), rayPlusOne)
	if err != nil {
		t.Fatalf("mulray: %v", err)
	}
	up, err = MulRayUp(uint256.NewInt(1), rayPlusOne)
	if err != nil {
		t.Fatalf("mulrayup: %v", err)
	}
	if down.Uint64() != 1 || up.Uint64() != 2 {
		t.Fatalf("expected 1/2, got %s/%s", down, up)
	}
}

func TestDivRay(t *testing.T) {
	half := uint256.MustFromDecimal("500000000000000000000000000")
	out, err := DivRay(uint256.NewInt(10), half)
	if err != nil {
		t.Fatalf("divray: %v", err)
	}
	if out.Uint64() != 20 {
		t.Fatalf("expected 20, got %s", out)
	}

	// 10 / 3 RAY: up rounds toward the caller.
	three := uint256.MustFromDecimal("3000000000000000000000000000")
	down, err := DivRay(uint256.NewInt(10), three)
	if err != nil {
		t.Fatalf("divray: %v", err)
	}
	up, err := DivRayUp(uint256.NewInt(10), three)
	if err != nil {
		t.Fatalf("divrayup: %v", err)
	}
	if down.Uint64() != 3 || up.Uint64() != 4 {
		t.Fatalf("expected 3/4, got %s/%s", down, up)
	}

	if _, err := DivRay(uint256.NewInt(1), uint256.NewInt(0)); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected divide by zero, got %v", err)
	}
}

func TestAddDelta(t *testing.T) {
	out, err := AddDelta(uint256.NewInt(100), big.NewInt(-40))
	if err != nil {
		t.Fatalf("adddelta: %v", err)
	}
	if out.Uint64() != 60 {
		t.Fatalf("expected 60, got %s", out)
	}
	if _, err := AddDelta(uint256.NewInt(10), big.NewInt(-11)); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	out, err = AddDelta(uint256.NewInt(10), nil)
	if err != nil || out.Uint64() != 10 {
		t.Fatalf("nil delta should be identity, got %s err %v", out, err)
	}
}
