// Package metrics exposes Prometheus collectors for the message manager's
// filter registry and dispatch loop, in the style of the teacher's
// monitoring package (prometheus/client_golang wired directly into the
// component that produces the numbers, rather than polled from outside).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors groups every metric the message manager updates.
// A Collectors value is safe to register with a prometheus.Registerer
// exactly once; NewCollectors returns one with fresh, unregistered
// metrics so tests can create as many independent instances as they
// like.
type Collectors struct {
	FiltersActive    prometheus.Gauge
	FiltersTimedOut  prometheus.Counter
	FramesConsumed   *prometheus.CounterVec
	FramesDiscarded  *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
	PeakHeight       prometheus.Gauge
}

// NewCollectors builds a fresh, unregistered Collectors.
func NewCollectors() *Collectors {
	return &Collectors{
		FiltersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leaflet",
			Subsystem: "message_manager",
			Name:      "filters_active",
			Help:      "Number of filters currently installed in the registry.",
		}),
		FiltersTimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leaflet",
			Subsystem: "message_manager",
			Name:      "filters_timed_out_total",
			Help:      "Total one-shot filters removed by deadline expiry.",
		}),
		FramesConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leaflet",
			Subsystem: "message_manager",
			Name:      "frames_consumed_total",
			Help:      "Inbound frames consumed by some filter, by message type.",
		}, []string{"type"}),
		FramesDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leaflet",
			Subsystem: "message_manager",
			Name:      "frames_discarded_total",
			Help:      "Inbound frames consumed by no filter, by message type.",
		}, []string{"type"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leaflet",
			Subsystem: "message_manager",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent dispatching a single inbound frame to the registry.",
			Buckets:   prometheus.DefBuckets,
		}),
		PeakHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leaflet",
			Subsystem: "message_manager",
			Name:      "peak_height",
			Help:      "Latest observed chain tip height.",
		}),
	}
}

// Register registers every collector with reg.
func (c *Collectors) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		c.FiltersActive, c.FiltersTimedOut, c.FramesConsumed,
		c.FramesDiscarded, c.DispatchDuration, c.PeakHeight,
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}
