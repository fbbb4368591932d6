// Package metrics exposes the control layer's counters and gauges in
// Prometheus format. Counters are driven by bus events so the core
// components stay free of metrics plumbing; the byte counter and bitrate
// gauge read the controller's live values through closures.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scenecast/internal/events"
)

// Collector registers the scenecast metric set on its own registry and
// keeps it updated from bus events.
type Collector struct {
	registry *prometheus.Registry
	handler  http.Handler
	unsubs   []func()

	transitionsTotal   *prometheus.CounterVec
	sceneChangesTotal  prometheus.Counter
	outputsTotal       *prometheus.CounterVec
	adjustmentsTotal   *prometheus.CounterVec
	overlayRotations   prometheus.Counter
	throughputObserved prometheus.Gauge
}

// NewCollector creates the collector and subscribes it to the bus.
// bytesSent and bitrateKbps sample the streaming controller's live state.
func NewCollector(bus *events.Bus, bytesSent func() float64, bitrateKbps func() float64) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenecast_transitions_total",
			Help: "Scene fade transitions by outcome.",
		}, []string{"outcome"}),
		sceneChangesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scenecast_scene_changes_total",
			Help: "Scene changes, cuts and fades alike.",
		}),
		outputsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenecast_outputs_attached_total",
			Help: "Streaming destination branches attached, by protocol.",
		}, []string{"protocol"}),
		adjustmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenecast_bitrate_adjustments_total",
			Help: "Adaptive bitrate adjustments, by direction.",
		}, []string{"direction"}),
		overlayRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scenecast_overlay_rotations_total",
			Help: "Overlay message rotations.",
		}),
		throughputObserved: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scenecast_measured_throughput_kbps",
			Help: "Throughput measured by the last adaptive bitrate tick.",
		}),
	}

	c.registry.MustRegister(
		c.transitionsTotal,
		c.sceneChangesTotal,
		c.outputsTotal,
		c.adjustmentsTotal,
		c.overlayRotations,
		c.throughputObserved,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "scenecast_bytes_sent_total",
			Help: "Confirmed payload bytes across all destinations.",
		}, bytesSent),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "scenecast_encoder_bitrate_kbps",
			Help: "Current encoder target bitrate.",
		}, bitrateKbps),
	)
	c.handler = promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})

	c.unsubs = append(c.unsubs,
		bus.Subscribe(func(events.SceneChangedEvent) {
			c.sceneChangesTotal.Inc()
		}),
		bus.Subscribe(func(e events.TransitionFinishedEvent) {
			outcome := "completed"
			if e.Cancelled {
				outcome = "cancelled"
			}
			c.transitionsTotal.WithLabelValues(outcome).Inc()
		}),
		bus.Subscribe(func(e events.OutputAddedEvent) {
			c.outputsTotal.WithLabelValues(e.Protocol).Inc()
		}),
		bus.Subscribe(func(e events.BitrateAdjustedEvent) {
			c.adjustmentsTotal.WithLabelValues(e.Direction).Inc()
			c.throughputObserved.Set(e.ThroughputKbps)
		}),
		bus.Subscribe(func(events.OverlayRotatedEvent) {
			c.overlayRotations.Inc()
		}),
	)
	return c
}

// Handler returns the Prometheus scrape handler.
func (c *Collector) Handler() http.Handler { return c.handler }

// Close unsubscribes from the bus.
func (c *Collector) Close() {
	for _, unsub := range c.unsubs {
		unsub()
	}
}
