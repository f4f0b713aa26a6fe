package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BlocksProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pricescope_blocks_processed_total", Help: "Blocks committed"},
	)
	BlocksAbortedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricescope_blocks_aborted_total", Help: "Blocks aborted before commit"},
		[]string{"reason"},
	)
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricescope_events_total", Help: "Mapped events by kind"},
		[]string{"kind"},
	)
	PoolsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pricescope_pools_dropped_total", Help: "Pools discarded for unresolvable tokens"},
	)
	DeltasPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricescope_deltas_published_total", Help: "Store deltas published"},
		[]string{"store"},
	)
	SinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricescope_sink_errors_total", Help: "Sink publish failures"},
		[]string{"sink"},
	)
	BlockDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "pricescope_block_duration_seconds", Help: "Block processing duration", Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}},
	)
	LastBlock = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "pricescope_last_block", Help: "Last committed block height"},
	)

	registerOnce sync.Once
)

func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			BlocksProcessedTotal,
			BlocksAbortedTotal,
			EventsTotal,
			PoolsDroppedTotal,
			DeltasPublishedTotal,
			SinkErrorsTotal,
			BlockDuration,
			LastBlock,
		)
	})
}

func IncBlock()                { BlocksProcessedTotal.Inc() }
func IncAborted(reason string) { BlocksAbortedTotal.WithLabelValues(reason).Inc() }
func IncEvent(kind string)     { EventsTotal.WithLabelValues(kind).Inc() }
func IncPoolDropped()          { PoolsDroppedTotal.Inc() }
func IncSinkError(sink string) { SinkErrorsTotal.WithLabelValues(sink).Inc() }

func AddDeltas(store string, n int) { DeltasPublishedTotal.WithLabelValues(store).Add(float64(n)) }

func ObserveBlock(seconds float64) { BlockDuration.Observe(seconds) }

func SetLastBlock(height uint64) { LastBlock.Set(float64(height)) }
