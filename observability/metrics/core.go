package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type CoreMetrics struct {
	vaultOps           *prometheus.CounterVec
	auctionsStarted    prometheus.Counter
	auctionsCancelled  prometheus.Counter
	auctionsResolved   prometheus.Counter
	activeLiquidations prometheus.Gauge
}

var (
	coreOnce     sync.Once
	coreRegistry *CoreMetrics
)

// Core returns the metrics registry for ledger and auction operations.
func Core() *CoreMetrics {
	coreOnce.Do(func() {
		coreRegistry = &CoreMetrics{
			vaultOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "fycore_vault_ops_total",
				Help: "Count of vault operations by name and result.",
			}, []string{"op", "result"}),
			auctionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "fycore_auctions_started_total",
				Help: "Count of liquidation auctions started.",
			}),
			auctionsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "fycore_auctions_cancelled_total",
				Help: "Count of liquidation auctions cancelled after recovery.",
			}),
			auctionsResolved: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "fycore_auctions_resolved_total",
				Help: "Count of liquidation auctions resolved by buys.",
			}),
			activeLiquidations: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "fycore_active_liquidations",
				Help: "Number of currently active liquidation auctions.",
			}),
		}
		prometheus.MustRegister(
			coreRegistry.vaultOps,
			coreRegistry.auctionsStarted,
			coreRegistry.auctionsCancelled,
			coreRegistry.auctionsResolved,
			coreRegistry.activeLiquidations,
		)
	})
	return coreRegistry
}

// RecordVaultOp increments the vault operation counter.
func (m *CoreMetrics) RecordVaultOp(op, result string) {
	if m == nil {
		return
	}
	m.vaultOps.WithLabelValues(op, result).Inc()
}

// RecordAuctionStarted tracks a new liquidation.
func (m *CoreMetrics) RecordAuctionStarted() {
	if m == nil {
		return
	}
	m.auctionsStarted.Inc()
	m.activeLiquidations.Inc()
}

// RecordAuctionCancelled tracks a cancelled liquidation.
func (m *CoreMetrics) RecordAuctionCancelled() {
	if m == nil {
		return
	}
	m.auctionsCancelled.Inc()
	m.activeLiquidations.Dec()
}

// RecordAuctionResolved tracks a liquidation fully resolved by buys.
func (m *CoreMetrics) RecordAuctionResolved() {
	if m == nil {
		return
	}
	m.auctionsResolved.Inc()
	m.activeLiquidations.Dec()
}
