package streaming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"scenecast/internal/events"
	"scenecast/internal/pipeline"
)

// bitrateStep is the fixed adjustment applied per tick, in kbps. The
// 70%/95% hysteresis band around the current bitrate avoids oscillation;
// band and step are tunable policy, not invariants.
const (
	bitrateStep          = 256
	lowUtilizationRatio  = 0.70
	highUtilizationRatio = 0.95
	defaultCheckInterval = 5 * time.Second
)

// BitrateConfig bounds the adaptive loop, all values in kbps.
type BitrateConfig struct {
	Initial       uint64
	Min           uint64
	Max           uint64
	CheckInterval time.Duration
}

// Output is one attached destination branch: queue → mux → sink.
type Output struct {
	Endpoint Endpoint
	queue    pipeline.Node
	mux      pipeline.Node
	sink     pipeline.Node
}

// Controller owns the streaming destinations and the adaptive bitrate
// loop. Destinations are append-only; there is no runtime removal.
type Controller struct {
	graph  pipeline.Graph
	bus    *events.Bus
	logger *slog.Logger

	mu      sync.Mutex
	outputs []Output

	// bytesSent is incremented from the engine's bus callback thread;
	// everything else runs on control goroutines.
	bytesSent atomic.Uint64
	current   atomic.Uint64
	minRate   uint64
	maxRate   uint64
	interval  time.Duration

	lastCheck time.Time
	lastBytes uint64
}

// NewController creates a controller with the given bitrate bounds.
func NewController(graph pipeline.Graph, cfg BitrateConfig, bus *events.Bus, logger *slog.Logger) *Controller {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}
	c := &Controller{
		graph:    graph,
		bus:      bus,
		logger:   logger,
		minRate:  cfg.Min,
		maxRate:  cfg.Max,
		interval: cfg.CheckInterval,
	}
	c.current.Store(clamp(cfg.Initial, cfg.Min, cfg.Max))
	return c
}

// AddOutput builds and attaches one destination branch and returns it, so
// concurrent callers each get a handle to the branch they created. The
// branch is all-or-nothing: on any instantiate or link failure every node
// added so far is removed again, and the error is returned to the caller.
func (c *Controller) AddOutput(ep Endpoint) (Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := len(c.outputs)
	var added []pipeline.Node
	rollback := func() {
		for _, n := range added {
			c.graph.Remove(n)
		}
	}

	build := func(kind, name string) (pipeline.Node, error) {
		n, err := c.graph.CreateNode(kind, name)
		if err != nil {
			return nil, err
		}
		c.graph.Add(n)
		added = append(added, n)
		if err := c.graph.SyncStateWithParent(n); err != nil {
			return nil, err
		}
		return n, nil
	}

	queue, err := build("queue", fmt.Sprintf("out%d_queue", idx))
	if err != nil {
		rollback()
		return Output{}, fmt.Errorf("add %s output: %w", ep.Protocol(), err)
	}
	mux, err := build(ep.muxKind(), fmt.Sprintf("out%d_mux", idx))
	if err != nil {
		rollback()
		return Output{}, fmt.Errorf("add %s output: %w", ep.Protocol(), err)
	}
	sink, err := build(ep.sinkKind(), fmt.Sprintf("out%d_sink", idx))
	if err != nil {
		rollback()
		return Output{}, fmt.Errorf("add %s output: %w", ep.Protocol(), err)
	}
	ep.configureSink(sink)

	if err := c.graph.Link(queue, mux); err != nil {
		rollback()
		return Output{}, fmt.Errorf("add %s output: %w", ep.Protocol(), err)
	}
	if err := c.graph.Link(mux, sink); err != nil {
		rollback()
		return Output{}, fmt.Errorf("add %s output: %w", ep.Protocol(), err)
	}

	out := Output{Endpoint: ep, queue: queue, mux: mux, sink: sink}
	c.outputs = append(c.outputs, out)
	c.logger.Info("Streaming output attached", "protocol", ep.Protocol(), "target", ep.Target())
	if c.bus != nil {
		c.bus.Publish(events.OutputAddedEvent{Protocol: ep.Protocol(), Target: ep.Target()})
	}
	return out, nil
}

// Queue returns the branch's entry node, the link target for the encoded
// input.
func (o Output) Queue() pipeline.Node { return o.queue }

// Outputs returns a snapshot of the attached destinations.
func (c *Controller) Outputs() []Output {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Output, len(c.outputs))
	copy(out, c.outputs)
	return out
}

// LinkInput links one upstream node to every existing branch's queue.
// Linking is best-effort per branch: a failed branch does not unlink the
// branches already connected, and all failures come back joined into one
// error.
func (c *Controller) LinkInput(src pipeline.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, out := range c.outputs {
		if err := c.graph.Link(src, out.queue); err != nil {
			errs = append(errs, fmt.Errorf("link input to %s output: %w", out.Endpoint.Protocol(), err))
		}
	}
	return errors.Join(errs...)
}

// RecordBytesSent adds confirmed payload bytes to the shared counter. Safe
// to call from the engine's message-bus goroutine.
func (c *Controller) RecordBytesSent(n uint64) {
	c.bytesSent.Add(n)
}

// BytesSent returns the monotonic byte counter.
func (c *Controller) BytesSent() uint64 {
	return c.bytesSent.Load()
}

// CurrentBitrate returns the bitrate last pushed (or seeded), in kbps.
func (c *Controller) CurrentBitrate() uint64 {
	return c.current.Load()
}

// StartAdaptiveBitrate launches the retune loop against the encoder's
// bitrate property. The loop runs until ctx is cancelled; measurement
// errors skip the tick rather than terminating the loop.
func (c *Controller) StartAdaptiveBitrate(ctx context.Context, encoder pipeline.Node) {
	c.lastCheck = time.Now()
	c.lastBytes = c.bytesSent.Load()

	c.logger.Info("Adaptive bitrate loop started",
		"interval", c.interval,
		"initial_kbps", c.current.Load(),
		"min_kbps", c.minRate,
		"max_kbps", c.maxRate)

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.tick(now, encoder)
			}
		}
	}()
}

// tick measures throughput since the previous tick and applies the policy.
// The byte/time snapshot advances whichever branch is taken.
func (c *Controller) tick(now time.Time, encoder pipeline.Node) {
	elapsed := now.Sub(c.lastCheck).Seconds()
	bytesNow := c.bytesSent.Load()
	var delta uint64
	if bytesNow > c.lastBytes {
		delta = bytesNow - c.lastBytes
	}
	c.lastBytes = bytesNow
	c.lastCheck = now

	if elapsed <= 0 {
		return
	}
	throughput := float64(delta) * 8 / 1024 / elapsed
	c.applyThroughput(throughput, encoder)
}

// applyThroughput adjusts the encoder bitrate for one measured throughput
// sample. Throughput well under the current rate means the link has
// headroom we are not using, so the rate steps up; throughput pressing
// against the current rate steps it down.
func (c *Controller) applyThroughput(throughputKbps float64, encoder pipeline.Node) {
	current := c.current.Load()

	switch {
	case throughputKbps < float64(current)*lowUtilizationRatio:
		next := clamp(current+bitrateStep, c.minRate, c.maxRate)
		c.push(encoder, next, "up", throughputKbps)
	case throughputKbps > float64(current)*highUtilizationRatio:
		var next uint64
		if current > bitrateStep {
			next = current - bitrateStep
		}
		next = clamp(next, c.minRate, c.maxRate)
		c.push(encoder, next, "down", throughputKbps)
	}
}

// push writes the new bitrate to the encoder and records it. A tick whose
// clamped value equals the rate already in effect is deliberately a no-op:
// a rate pinned at a bound would otherwise rewrite the encoder property and
// emit an adjustment event every interval.
func (c *Controller) push(encoder pipeline.Node, next uint64, direction string, throughputKbps float64) {
	if next == c.current.Load() {
		return
	}
	c.current.Store(next)
	encoder.SetProperty("bitrate", next)
	c.logger.Info("Adjusted encoder bitrate",
		"direction", direction,
		"bitrate_kbps", next,
		"throughput_kbps", throughputKbps)
	if c.bus != nil {
		c.bus.Publish(events.BitrateAdjustedEvent{
			Direction:      direction,
			BitrateKbps:    next,
			ThroughputKbps: throughputKbps,
		})
	}
}

func clamp(v, lo, hi uint64) uint64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
