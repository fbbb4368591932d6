// Package overlays attaches text overlays to the video chain and rotates
// their messages on a timer.
package overlays

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scenecast/internal/events"
	"scenecast/internal/pipeline"
)

// ErrNoMessages reports an empty rotation list.
var ErrNoMessages = errors.New("no messages provided for rotation")

// Manager owns the overlay nodes of one session.
type Manager struct {
	graph  pipeline.Graph
	bus    *events.Bus
	logger *slog.Logger
}

// NewManager creates an overlay manager.
func NewManager(graph pipeline.Graph, bus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{graph: graph, bus: bus, logger: logger}
}

// AddTextOverlay inserts a textoverlay node between upstream and
// downstream. A failed link removes the node again.
func (m *Manager) AddTextOverlay(name, message, fontDesc string, upstream, downstream pipeline.Node) (pipeline.Node, error) {
	overlay, err := m.graph.CreateNode("textoverlay", name)
	if err != nil {
		return nil, fmt.Errorf("add text overlay %q: %w", name, err)
	}
	overlay.SetProperty("text", message)
	overlay.SetProperty("font-desc", fontDesc)
	overlay.SetProperty("valignment", "top")
	overlay.SetProperty("halignment", "left")

	m.graph.Add(overlay)
	if err := m.graph.SyncStateWithParent(overlay); err != nil {
		m.graph.Remove(overlay)
		return nil, fmt.Errorf("add text overlay %q: %w", name, err)
	}
	if err := m.graph.Link(upstream, overlay); err != nil {
		m.graph.Remove(overlay)
		return nil, fmt.Errorf("add text overlay %q: %w", name, err)
	}
	if err := m.graph.Link(overlay, downstream); err != nil {
		m.graph.Remove(overlay)
		return nil, fmt.Errorf("add text overlay %q: %w", name, err)
	}

	m.logger.Info("Text overlay attached", "overlay", name)
	return overlay, nil
}

// StartRotatingMessages rotates the overlay's text property round-robin
// every interval until ctx is cancelled.
func (m *Manager) StartRotatingMessages(ctx context.Context, overlay pipeline.Node, messages []string, interval time.Duration) error {
	if len(messages) == 0 {
		return ErrNoMessages
	}
	msgs := append([]string(nil), messages...)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		idx := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				msg := msgs[idx]
				overlay.SetProperty("text", msg)
				idx = (idx + 1) % len(msgs)
				if m.bus != nil {
					m.bus.Publish(events.OverlayRotatedEvent{Overlay: overlay.Name(), Message: msg})
				}
			}
		}
	}()

	m.logger.Info("Overlay rotation started", "overlay", overlay.Name(), "messages", len(msgs), "interval", interval)
	return nil
}
