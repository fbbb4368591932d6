// Package session assembles one compositing session from a declarative
// definition: it builds the graph nodes, runs encoder selection once, then
// hands ownership of the long-lived control tasks (fades, bitrate loop,
// overlay rotation) to their components. Everything is constructed here
// and passed down explicitly; no component reaches through global state.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"scenecast/internal/config"
	"scenecast/internal/encoders"
	"scenecast/internal/events"
	"scenecast/internal/overlays"
	"scenecast/internal/pipeline"
	"scenecast/internal/plugins"
	"scenecast/internal/scenes"
	"scenecast/internal/streaming"
)

// Options carries the session's collaborators.
type Options struct {
	Graph  pipeline.Graph
	Config *config.SessionConfig
	Bus    *events.Bus
	Probe  encoders.GPUProbe
	Logger *slog.Logger
}

// Session is one running compositing and streaming session.
type Session struct {
	graph  pipeline.Graph
	cfg    *config.SessionConfig
	bus    *events.Bus
	logger *slog.Logger

	probe      encoders.GPUProbe
	tee        pipeline.Node
	switcher   *scenes.Switcher
	controller *streaming.Controller
	overlayMgr *overlays.Manager
	encoder    pipeline.Node
	mode       encoders.AccelMode

	cancel context.CancelFunc
}

// New validates options and prepares a session. The graph is not touched
// until Start.
func New(opts Options) (*Session, error) {
	if opts.Graph == nil || opts.Config == nil {
		return nil, fmt.Errorf("session requires a graph and a config")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		graph:  opts.Graph,
		cfg:    opts.Config,
		bus:    opts.Bus,
		logger: opts.Logger,
		probe:  opts.Probe,
	}, nil
}

// Start builds the graph and launches the control tasks. It is not safe to
// call twice.
func (s *Session) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	compositor, err := s.addNode("compositor", "compositor")
	if err != nil {
		return err
	}
	tee, err := s.addNode("tee", "enc_tee")
	if err != nil {
		return err
	}
	s.tee = tee

	sourceNodes, err := s.buildSources(compositor)
	if err != nil {
		return err
	}

	// Video chain ahead of the encoder: compositor → [ticker overlay] →
	// queue. The selector then installs the encoder between the queue and
	// the output tee.
	encQueue, err := s.addNode("queue", "enc_queue")
	if err != nil {
		return err
	}
	s.overlayMgr = overlays.NewManager(s.graph, s.bus, s.logger)
	var ticker pipeline.Node
	if s.cfg.Overlay.Enabled {
		first := ""
		if len(s.cfg.Overlay.Messages) > 0 {
			first = s.cfg.Overlay.Messages[0]
		}
		ticker, err = s.overlayMgr.AddTextOverlay("ticker", first, s.cfg.Overlay.Font, compositor, encQueue)
		if err != nil {
			return err
		}
	} else if err := s.graph.Link(compositor, encQueue); err != nil {
		return fmt.Errorf("link compositor to encoder queue: %w", err)
	}

	selector := encoders.NewSelector(s.graph, s.probe, s.logger)
	s.mode, s.encoder, err = selector.Select(encQueue, tee)
	if err != nil {
		return err
	}
	s.logger.Info("Encoder selected", "mode", s.mode.String())

	transitionDuration, err := s.cfg.ParseTransitionDuration()
	if err != nil {
		return err
	}
	s.switcher = scenes.NewSwitcher(s.graph, compositor, transitionDuration, s.bus, s.logger)
	for _, spec := range s.cfg.Scenes {
		s.switcher.AddScene(sceneFromSpec(spec, sourceNodes))
	}
	if err := s.switcher.SetInitialScene(0); err != nil {
		return err
	}

	checkInterval, err := s.cfg.ParseCheckInterval()
	if err != nil {
		return err
	}
	s.controller = streaming.NewController(s.graph, streaming.BitrateConfig{
		Initial:       s.cfg.Bitrate.InitialKbps,
		Min:           s.cfg.Bitrate.MinKbps,
		Max:           s.cfg.Bitrate.MaxKbps,
		CheckInterval: checkInterval,
	}, s.bus, s.logger)

	for _, dest := range s.cfg.Destinations {
		ep, err := endpointFromSpec(dest)
		if err != nil {
			return err
		}
		if _, err := s.controller.AddOutput(ep); err != nil {
			return err
		}
	}
	if err := s.controller.LinkInput(tee); err != nil {
		return err
	}
	s.controller.StartAdaptiveBitrate(ctx, s.encoder)

	if s.cfg.Overlay.Enabled && len(s.cfg.Overlay.Messages) > 0 {
		interval, err := s.cfg.ParseOverlayInterval()
		if err != nil {
			return err
		}
		if err := s.overlayMgr.StartRotatingMessages(ctx, ticker, s.cfg.Overlay.Messages, interval); err != nil {
			return err
		}
	}

	if s.cfg.PluginDir != "" {
		loader := plugins.NewLoader(s.cfg.PluginDir, s.logger)
		if err := loader.LoadAll(); err != nil {
			s.logger.Warn("Plugin loading disabled", "error", err)
		} else if err := loader.AttachAll(s.graph); err != nil {
			s.logger.Warn("Plugin attach errors", "error", err)
		}
	}

	go s.pumpMessages(ctx)
	return nil
}

// Stop cancels the session's control tasks.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Switcher returns the scene switcher.
func (s *Session) Switcher() *scenes.Switcher { return s.switcher }

// Controller returns the streaming controller.
func (s *Session) Controller() *streaming.Controller { return s.controller }

// EncoderMode returns the backend selected at startup.
func (s *Session) EncoderMode() encoders.AccelMode { return s.mode }

// AddOutput attaches one more streaming destination at runtime and links
// the encoded feed into it. Destinations are append-only.
func (s *Session) AddOutput(spec config.DestinationSpec) error {
	ep, err := endpointFromSpec(spec)
	if err != nil {
		return err
	}
	out, err := s.controller.AddOutput(ep)
	if err != nil {
		return err
	}
	if err := s.graph.Link(s.tee, out.Queue()); err != nil {
		return fmt.Errorf("link input to new %s output: %w", ep.Protocol(), err)
	}
	return nil
}

// ReloadGeometry re-applies source geometry from a fresh session config,
// matching scenes by name and sources by pad. Used by the config watcher;
// scenes or sources added at runtime are ignored.
func (s *Session) ReloadGeometry(cfg *config.SessionConfig) {
	existing := s.switcher.Scenes()
	byName := make(map[string]int, len(existing))
	for i, scene := range existing {
		byName[scene.Name] = i
	}
	for _, spec := range cfg.Scenes {
		idx, ok := byName[spec.Name]
		if !ok {
			continue
		}
		for _, src := range spec.Sources {
			geo := scenes.Geometry{X: src.X, Y: src.Y, Width: src.Width, Height: src.Height}
			if err := s.switcher.UpdateSourceGeometry(idx, src.Pad, geo); err != nil {
				s.logger.Debug("Geometry reload skipped", "scene", spec.Name, "pad", src.Pad, "error", err)
			}
		}
	}
}

// pumpMessages consumes the engine's message channel: confirmed byte
// counts feed the adaptive bitrate loop, errors get logged. The channel is
// drained until close or cancellation so the engine never blocks on it.
func (s *Session) pumpMessages(ctx context.Context) {
	msgs := s.graph.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			switch msg.Type {
			case pipeline.MsgBytesSent:
				if n, ok := msg.Payload.(uint64); ok {
					s.controller.RecordBytesSent(n)
				}
			case pipeline.MsgError:
				s.logger.Warn("Engine error message", "source", msg.Source, "payload", msg.Payload)
			}
		}
	}
}

// buildSources creates and links every distinct source node referenced by
// the scene list. A node referenced by several scenes is created once.
func (s *Session) buildSources(compositor pipeline.Node) (map[string]pipeline.Node, error) {
	nodes := make(map[string]pipeline.Node)
	for _, scene := range s.cfg.Scenes {
		for _, src := range scene.Sources {
			if _, ok := nodes[src.Node]; ok {
				continue
			}
			kind := src.Kind
			if kind == "" {
				kind = "videotestsrc"
			}
			node, err := s.addNode(kind, src.Node)
			if err != nil {
				return nil, err
			}
			if err := s.graph.Link(node, compositor); err != nil {
				return nil, fmt.Errorf("link source %s to compositor: %w", src.Node, err)
			}
			nodes[src.Node] = node
		}
	}
	return nodes, nil
}

func (s *Session) addNode(kind, name string) (pipeline.Node, error) {
	node, err := s.graph.CreateNode(kind, name)
	if err != nil {
		return nil, err
	}
	s.graph.Add(node)
	if err := s.graph.SyncStateWithParent(node); err != nil {
		s.graph.Remove(node)
		return nil, err
	}
	return node, nil
}

func sceneFromSpec(spec config.SceneSpec, nodes map[string]pipeline.Node) scenes.Scene {
	scene := scenes.Scene{Name: spec.Name}
	for _, src := range spec.Sources {
		scene.Sources = append(scene.Sources, scenes.Source{
			Node:     nodes[src.Node],
			PadIndex: src.Pad,
			Geometry: scenes.Geometry{X: src.X, Y: src.Y, Width: src.Width, Height: src.Height},
			Alpha:    src.Alpha,
		})
	}
	return scene
}

func endpointFromSpec(spec config.DestinationSpec) (streaming.Endpoint, error) {
	switch spec.Protocol {
	case "rtmp":
		return streaming.RTMP{Location: spec.Target}, nil
	case "srt":
		return streaming.SRT{URI: spec.Target}, nil
	case "hls":
		return streaming.HLS{Dir: spec.Target}, nil
	default:
		return nil, fmt.Errorf("unknown destination protocol %q", spec.Protocol)
	}
}
