package vault

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
)

// checkCollateralized fails the test when a vault carries debt with a
// negative level.
func checkCollateralized(t *testing.T, env *testEnv, id VaultID) {
	t.Helper()
	balances, err := env.engine.Balances(id)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if balances.Art.IsZero() {
		return
	}
	level, err := env.engine.Level(id)
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	if level.Sign() < 0 {
		t.Fatalf("committed mutation left vault undercollateralized: ink=%s art=%s level=%s",
			balances.Ink, balances.Art, level)
	}
}

func FuzzPourKeepsCollateralization(f *testing.F) {
	f.Add(int64(100), int64(150), int64(-30), int64(10))
	f.Add(int64(50), int64(100), int64(0), int64(-10))
	f.Add(int64(0), int64(1), int64(-1), int64(0))
	f.Add(int64(1), int64(2), int64(-1), int64(1))
	f.Fuzz(func(t *testing.T, ink1, art1, ink2, art2 int64) {
		env := newTestEnv(t)
		id := env.build()
		for _, step := range [][2]int64{{ink1, art1}, {ink2, art2}} {
			before, err := env.engine.Balances(id)
			if err != nil {
				t.Fatalf("balances: %v", err)
			}
			_, pourErr := env.engine.Pour(env.owner, id, big.NewInt(step[0]), big.NewInt(step[1]))
			after, err := env.engine.Balances(id)
			if err != nil {
				t.Fatalf("balances: %v", err)
			}
			if pourErr != nil {
				// A rejected pour must not move either balance.
				if !after.Ink.Eq(before.Ink) || !after.Art.Eq(before.Art) {
					t.Fatalf("rejected pour mutated balances: %s/%s -> %s/%s",
						before.Ink, before.Art, after.Ink, after.Art)
				}
				continue
			}
			checkCollateralized(t, env, id)
		}
	})
}

func TestRandomPourStirSequencesHoldInvariants(t *testing.T) {
	env := newTestEnv(t)
	a := env.build()
	b := env.build()
	env.pour(a, 500, 400)
	env.pour(b, 200, 100)

	totals := func() (*uint256.Int, *uint256.Int) {
		ba, err := env.engine.Balances(a)
		if err != nil {
			t.Fatalf("balances: %v", err)
		}
		bb, err := env.engine.Balances(b)
		if err != nil {
			t.Fatalf("balances: %v", err)
		}
		return new(uint256.Int).Add(ba.Ink, bb.Ink), new(uint256.Int).Add(ba.Art, bb.Art)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		switch rng.Intn(3) {
		case 0:
			id := a
			if rng.Intn(2) == 0 {
				id = b
			}
			ink := rng.Int63n(201) - 100
			art := rng.Int63n(201) - 100
			_, _ = env.engine.Pour(env.owner, id, big.NewInt(ink), big.NewInt(art))
		case 1:
			ink := uint256.NewInt(uint64(rng.Intn(120)))
			art := uint256.NewInt(uint64(rng.Intn(120)))
			totalInk, totalArt := totals()
			if err := env.engine.Stir(env.owner, a, b, ink, art); err == nil {
				// Stir is a pure transfer: totals stay fixed.
				afterInk, afterArt := totals()
				if !afterInk.Eq(totalInk) || !afterArt.Eq(totalArt) {
					t.Fatalf("stir changed totals: ink %s -> %s, art %s -> %s",
						totalInk, afterInk, totalArt, afterArt)
				}
			}
		case 2:
			ink := uint256.NewInt(uint64(rng.Intn(120)))
			art := uint256.NewInt(uint64(rng.Intn(120)))
			_ = env.engine.Stir(env.owner, b, a, ink, art)
		}
		checkCollateralized(t, env, a)
		checkCollateralized(t, env, b)
	}
}
