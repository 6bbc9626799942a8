package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"fycore/core/events"
	"fycore/observability/metrics"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured ledger events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fycore",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of core events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// Record increments the counter for an event type.
func (m *eventMetrics) Record(eventType string) {
	if m == nil || eventType == "" {
		return
	}
	m.emitted.WithLabelValues(eventType).Inc()
}

// MetricsEmitter bridges engine events into prometheus counters, optionally
// forwarding each event to a downstream emitter.
type MetricsEmitter struct {
	Next events.Emitter
}

// Emit implements events.Emitter.
func (m MetricsEmitter) Emit(ev events.Event) {
	if ev == nil {
		return
	}
	Events().Record(ev.EventType())
	recordCore(ev.EventType())
	if m.Next != nil {
		m.Next.Emit(ev)
	}
}

// recordCore maps event types onto the operation counters. Engines only
// emit after a mutation commits, so every recorded result is a success.
func recordCore(eventType string) {
	core := metrics.Core()
	switch eventType {
	case events.TypeVaultOpened:
		core.RecordVaultOp("build", "ok")
	case events.TypeVaultDestroyed:
		core.RecordVaultOp("destroy", "ok")
	// Pour and slurp both report balance changes; the label covers the
	// shared adjustment path.
	case events.TypeBalancesChanged:
		core.RecordVaultOp("adjust", "ok")
	case events.TypeBalancesMoved:
		core.RecordVaultOp("stir", "ok")
	case events.TypeSeriesMatured:
		core.RecordVaultOp("mature", "ok")
	case events.TypeAuctionStarted:
		core.RecordAuctionStarted()
	case events.TypeAuctionCancelled:
		core.RecordAuctionCancelled()
	case events.TypeAuctionResolved:
		core.RecordAuctionResolved()
	}
}
