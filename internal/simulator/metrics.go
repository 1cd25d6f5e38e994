package simulator

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsProcessed    *prometheus.CounterVec
	bundlesDispatched  *prometheus.CounterVec
	ordersDispatched   *prometheus.CounterVec
	reallocationPasses *prometheus.CounterVec
	queueOccupancy     prometheus.Gauge
	dayRuns            *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Gauge, *prometheus.CounterVec) {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchsim_events_processed_total",
			Help: "Number of queue events handled, by event type",
		},
		[]string{"event_type"},
	)
	bundles := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchsim_bundles_dispatched_total",
			Help: "Number of delivery bundles dispatched, by vehicle type",
		},
		[]string{"vehicle"},
	)
	orders := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchsim_orders_dispatched_total",
			Help: "Number of orders handed to a courier, by vehicle type",
		},
		[]string{"vehicle"},
	)
	realloc := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchsim_reallocation_passes_total",
			Help: "Number of cross-shop reallocation passes, by outcome",
		},
		[]string{"outcome"},
	)
	occupancy := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatchsim_event_queue_occupancy_ratio",
			Help: "Share of the event queue capacity in use",
		},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchsim_day_runs_total",
			Help: "Number of simulated days, by final status",
		},
		[]string{"status"},
	)
	return events, bundles, orders, realloc, occupancy, runs
}

func init() {
	eventsProcessed, bundlesDispatched, ordersDispatched, reallocationPasses, queueOccupancy, dayRuns = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers simulator metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(eventsProcessed, bundlesDispatched, ordersDispatched, reallocationPasses, queueOccupancy, dayRuns)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	eventsProcessed, bundlesDispatched, ordersDispatched, reallocationPasses, queueOccupancy, dayRuns = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
