package encoders

import (
	"fmt"
	"log/slog"

	"scenecast/internal/pipeline"
)

// gpuLoadCeiling is the utilization percentage above which hardware
// encoders are not even attempted.
const gpuLoadCeiling = 90

// Selector picks the video encoder for one output branch. Hardware
// backends are tried in fixed priority order; each failed attempt is rolled
// out of the graph before the next try.
type Selector struct {
	graph  pipeline.Graph
	probe  GPUProbe
	logger *slog.Logger
}

// NewSelector creates a selector. probe may be nil, in which case GPU
// utilization is assumed to be zero.
func NewSelector(graph pipeline.Graph, probe GPUProbe, logger *slog.Logger) *Selector {
	return &Selector{graph: graph, probe: probe, logger: logger}
}

// Select installs exactly one encoder node linked upstream→encoder→
// downstream and returns its mode and handle. Hardware failures advance the
// chain silently; only a software-fallback failure is returned as an error,
// since no further degradation path exists.
func (s *Selector) Select(upstream, downstream pipeline.Node) (AccelMode, pipeline.Node, error) {
	if load := s.gpuLoad(); load > gpuLoadCeiling {
		s.logger.Warn("GPU saturated, skipping hardware encoders", "utilization", load)
		return s.selectSoftware(upstream, downstream)
	}

	for _, b := range hardwareBackends {
		enc, err := s.tryBackend(b, upstream, downstream)
		if err != nil {
			s.logger.Debug("Encoder backend unavailable", "backend", b.mode.String(), "error", err)
			continue
		}
		s.logger.Info("Hardware encoder selected", "backend", b.mode.String(), "node", enc.Name())
		return b.mode, enc, nil
	}

	s.logger.Info("No hardware encoder available, falling back to software")
	return s.selectSoftware(upstream, downstream)
}

func (s *Selector) selectSoftware(upstream, downstream pipeline.Node) (AccelMode, pipeline.Node, error) {
	enc, err := s.tryBackend(softwareBackend, upstream, downstream)
	if err != nil {
		return Software, nil, fmt.Errorf("software encoder fallback failed: %w", err)
	}
	return Software, enc, nil
}

// tryBackend attempts one backend: instantiate, add, sync, link both sides.
// Any failure removes the node again so no dangling node remains.
func (s *Selector) tryBackend(b backend, upstream, downstream pipeline.Node) (pipeline.Node, error) {
	enc, err := s.graph.CreateNode(b.kind, b.name)
	if err != nil {
		return nil, err
	}
	s.graph.Add(enc)
	if err := s.graph.SyncStateWithParent(enc); err != nil {
		s.graph.Remove(enc)
		return nil, err
	}
	if err := s.graph.Link(upstream, enc); err != nil {
		s.graph.Remove(enc)
		return nil, err
	}
	if err := s.graph.Link(enc, downstream); err != nil {
		s.graph.Remove(enc)
		return nil, err
	}
	return enc, nil
}

// gpuLoad reads the probe, treating a missing or failing probe as idle.
func (s *Selector) gpuLoad() float64 {
	if s.probe == nil {
		return 0
	}
	load, err := s.probe.Utilization()
	if err != nil {
		return 0
	}
	return load
}
