package vault

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestMakeAssetID(t *testing.T) {
	id, err := MakeAssetID("ETH-A")
	if err != nil {
		t.Fatalf("make asset id: %v", err)
	}
	if id.String() != "ETH-A" {
		t.Fatalf("expected ETH-A, got %q", id.String())
	}
	if _, err := MakeAssetID(""); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := MakeAssetID("SEVENCH"); err == nil {
		t.Fatal("expected error for name over six bytes")
	}
}

func TestIDStringFallsBackToHex(t *testing.T) {
	var id AssetID
	id[0] = 0x07
	if got := id.String(); got != "0x070000000000" {
		t.Fatalf("expected hex fallback, got %q", got)
	}
}

func TestBalancesCloneIsDeep(t *testing.T) {
	b := &Balances{Ink: uint256.NewInt(10), Art: uint256.NewInt(20)}
	clone := b.Clone()
	clone.Ink.SetUint64(99)
	if b.Ink.Uint64() != 10 {
		t.Fatalf("clone mutation leaked: %s", b.Ink)
	}
}

func TestSeriesCloneIsDeep(t *testing.T) {
	s := &Series{Maturity: 100, AccrualAtMaturity: uint256.NewInt(5)}
	clone := s.Clone()
	clone.AccrualAtMaturity.SetUint64(50)
	if s.AccrualAtMaturity.Uint64() != 5 {
		t.Fatalf("clone mutation leaked: %s", s.AccrualAtMaturity)
	}
	var nilSeries *Series
	if nilSeries.Clone() != nil {
		t.Fatal("nil clone must stay nil")
	}
}

func TestEnsureDefaults(t *testing.T) {
	b := &Balances{}
	b.EnsureDefaults()
	if b.Ink == nil || b.Art == nil || !b.Ink.IsZero() || !b.Art.IsZero() {
		t.Fatalf("defaults not applied: %+v", b)
	}
}
