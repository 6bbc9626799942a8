package vault

import (
	"errors"
	"testing"

	"fycore/core/events"
	"fycore/core/fixed"
)

func TestAccrualIdentityBeforeMaturity(t *testing.T) {
	env := newTestEnv(t)
	env.rate.rate = ray("1250000000000000000000000000")

	accrual, err := env.engine.Accrual(env.series)
	if err != nil {
		t.Fatalf("accrual: %v", err)
	}
	if !accrual.Eq(fixed.Ray()) {
		t.Fatalf("pre-maturity accrual must be identity, got %s", accrual)
	}
}

func TestAccrualLiveFlooredAfterMaturity(t *testing.T) {
	env := newTestEnv(t)
	env.now += 2000

	env.rate.rate = ray("1250000000000000000000000000")
	accrual, err := env.engine.Accrual(env.series)
	if err != nil {
		t.Fatalf("accrual: %v", err)
	}
	if !accrual.Eq(ray("1250000000000000000000000000")) {
		t.Fatalf("expected live rate 1.25, got %s", accrual)
	}

	// A rate below identity is floored, never a discount on face value.
	env.rate.rate = ray("900000000000000000000000000")
	accrual, err = env.engine.Accrual(env.series)
	if err != nil {
		t.Fatalf("accrual: %v", err)
	}
	if !accrual.Eq(fixed.Ray()) {
		t.Fatalf("expected floored accrual, got %s", accrual)
	}
}

func TestMatureRecordsOnce(t *testing.T) {
	env := newTestEnv(t)

	if err := env.engine.Mature(env.series); !errors.Is(err, ErrNotYetMature) {
		t.Fatalf("expected not yet mature, got %v", err)
	}

	env.now += 1000
	env.rate.rate = ray("1250000000000000000000000000")
	if err := env.engine.Mature(env.series); err != nil {
		t.Fatalf("mature: %v", err)
	}
	if _, ok := env.emitter.last().(events.SeriesMatured); !ok {
		t.Fatalf("expected SeriesMatured event, got %T", env.emitter.last())
	}

	// The recorded value pins the accrual against later oracle movement,
	// and repeat calls are no-ops.
	env.rate.rate = ray(rayTwo)
	if err := env.engine.Mature(env.series); err != nil {
		t.Fatalf("repeat mature: %v", err)
	}
	accrual, err := env.engine.Accrual(env.series)
	if err != nil {
		t.Fatalf("accrual: %v", err)
	}
	if !accrual.Eq(ray("1250000000000000000000000000")) {
		t.Fatalf("expected recorded 1.25, got %s", accrual)
	}

	// Even an oracle outage no longer matters once recorded.
	env.rate.ok = false
	if _, err := env.engine.Accrual(env.series); err != nil {
		t.Fatalf("recorded accrual must not read the oracle: %v", err)
	}
}

func TestMatureFloorsRate(t *testing.T) {
	env := newTestEnv(t)
	env.now += 1000
	env.rate.rate = ray("900000000000000000000000000")

	if err := env.engine.Mature(env.series); err != nil {
		t.Fatalf("mature: %v", err)
	}
	accrual, err := env.engine.Accrual(env.series)
	if err != nil {
		t.Fatalf("accrual: %v", err)
	}
	if !accrual.Eq(fixed.Ray()) {
		t.Fatalf("expected recorded identity, got %s", accrual)
	}
}

func TestMatureOracleUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.now += 1000
	env.rate.ok = false

	if err := env.engine.Mature(env.series); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("expected oracle unavailable, got %v", err)
	}
	// Nothing was recorded, so a later successful read still works.
	env.rate.ok = true
	if err := env.engine.Mature(env.series); err != nil {
		t.Fatalf("mature after recovery: %v", err)
	}
}

func TestMatureUnknownSeries(t *testing.T) {
	env := newTestEnv(t)
	unknown, _ := MakeSeriesID("FYX99")
	if err := env.engine.Mature(unknown); !errors.Is(err, ErrSeriesNotFound) {
		t.Fatalf("expected series not found, got %v", err)
	}
}
