package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCoreIsASingleton(t *testing.T) {
	if Core() != Core() {
		t.Fatal("expected a single shared registry")
	}
}

func TestRecordVaultOp(t *testing.T) {
	core := Core()
	counter := core.vaultOps.WithLabelValues("build", "ok")
	before := testutil.ToFloat64(counter)
	core.RecordVaultOp("build", "ok")
	if got := testutil.ToFloat64(counter); got-before != 1 {
		t.Fatalf("expected one increment, got %f", got-before)
	}
}

func TestAuctionLifecycleCounters(t *testing.T) {
	core := Core()
	started := testutil.ToFloat64(core.auctionsStarted)
	cancelled := testutil.ToFloat64(core.auctionsCancelled)
	resolved := testutil.ToFloat64(core.auctionsResolved)
	active := testutil.ToFloat64(core.activeLiquidations)

	core.RecordAuctionStarted()
	core.RecordAuctionStarted()
	core.RecordAuctionCancelled()
	core.RecordAuctionResolved()

	if got := testutil.ToFloat64(core.auctionsStarted) - started; got != 2 {
		t.Fatalf("started: expected 2, got %f", got)
	}
	if got := testutil.ToFloat64(core.auctionsCancelled) - cancelled; got != 1 {
		t.Fatalf("cancelled: expected 1, got %f", got)
	}
	if got := testutil.ToFloat64(core.auctionsResolved) - resolved; got != 1 {
		t.Fatalf("resolved: expected 1, got %f", got)
	}
	// Both cancel and resolve retire an active liquidation.
	if got := testutil.ToFloat64(core.activeLiquidations) - active; got != 0 {
		t.Fatalf("active: expected net zero, got %f", got)
	}
}

func TestNilRegistryIsSafe(t *testing.T) {
	var core *CoreMetrics
	core.RecordVaultOp("build", "ok")
	core.RecordAuctionStarted()
	core.RecordAuctionCancelled()
	core.RecordAuctionResolved()
}
