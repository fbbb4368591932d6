package pipeline

import (
	"fmt"
	"sync"
)

// PropertyWrite records one property write for inspection.
type PropertyWrite struct {
	Key   string
	Value any
}

type memPad struct {
	name   string
	mu     sync.Mutex
	props  map[string]any
	writes []PropertyWrite
}

func (p *memPad) Name() string { return p.name }

func (p *memPad) SetProperty(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.props[key] = value
	p.writes = append(p.writes, PropertyWrite{Key: key, Value: value})
}

// Property returns the last value written for key, or nil.
func (p *memPad) Property(key string) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.props[key]
}

// Writes returns the ordered write log, optionally filtered by key.
func (p *memPad) Writes(key string) []PropertyWrite {
	p.mu.Lock()
	defer p.mu.Unlock()
	if key == "" {
		return append([]PropertyWrite(nil), p.writes...)
	}
	var out []PropertyWrite
	for _, w := range p.writes {
		if w.Key == key {
			out = append(out, w)
		}
	}
	return out
}

type memNode struct {
	name  string
	kind  string
	mu    sync.Mutex
	props map[string]any
	pads  map[string]*memPad
}

func (n *memNode) Name() string { return n.name }
func (n *memNode) Kind() string { return n.kind }

func (n *memNode) SetProperty(key string, value any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.props[key] = value
}

// Property returns the last value written for key, or nil.
func (n *memNode) Property(key string) any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.props[key]
}

func (n *memNode) pad(name string) *memPad {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.pads[name]
	if !ok {
		p = &memPad{name: name, props: make(map[string]any)}
		n.pads[name] = p
	}
	return p
}

// MemoryGraph is an in-process Graph implementation. It records every node,
// link and property write so control logic can be exercised without a real
// engine, and supports targeted failure injection for the rollback paths.
// It backs dry-run sessions and the package tests.
type MemoryGraph struct {
	mu       sync.Mutex
	nodes    map[string]*memNode
	added    map[string]bool
	links    [][2]string
	created  []string // kinds, in creation order
	messages chan Message

	// Failure injection. Keys are element kinds for FailKinds, "a->b" node
	// name pairs for FailLinks and "node/pad" for FailPads.
	FailKinds map[string]bool
	FailLinks map[string]bool
	FailPads  map[string]bool
}

// NewMemoryGraph creates an empty in-memory graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		nodes:     make(map[string]*memNode),
		added:     make(map[string]bool),
		messages:  make(chan Message, 64),
		FailKinds: make(map[string]bool),
		FailLinks: make(map[string]bool),
		FailPads:  make(map[string]bool),
	}
}

// CreateNode instantiates an element of the given kind.
func (g *MemoryGraph) CreateNode(kind, name string) (Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailKinds[kind] {
		return nil, fmt.Errorf("create %s %q: %w", kind, name, ErrElementUnavailable)
	}
	if _, exists := g.nodes[name]; exists {
		return nil, fmt.Errorf("create %s: name %q taken: %w", kind, name, ErrElementUnavailable)
	}
	n := &memNode{
		name:  name,
		kind:  kind,
		props: make(map[string]any),
		pads:  make(map[string]*memPad),
	}
	g.nodes[name] = n
	g.created = append(g.created, kind)
	return n, nil
}

// Add attaches a node to the graph.
func (g *MemoryGraph) Add(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.added[n.Name()] = true
}

// Remove detaches a node and drops its links.
func (g *MemoryGraph) Remove(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.added, n.Name())
	delete(g.nodes, n.Name())
	kept := g.links[:0]
	for _, l := range g.links {
		if l[0] != n.Name() && l[1] != n.Name() {
			kept = append(kept, l)
		}
	}
	g.links = kept
}

// Link connects a to b.
func (g *MemoryGraph) Link(a, b Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := a.Name() + "->" + b.Name()
	if g.FailLinks[key] {
		return fmt.Errorf("link %s: %w", key, ErrLinkFailure)
	}
	g.links = append(g.links, [2]string{a.Name(), b.Name()})
	return nil
}

// SyncStateWithParent is a no-op for the in-memory engine.
func (g *MemoryGraph) SyncStateWithParent(Node) error { return nil }

// Pad looks up (lazily materializing) a pad on a node.
func (g *MemoryGraph) Pad(n Node, padName string) (Pad, error) {
	g.mu.Lock()
	if g.FailPads[n.Name()+"/"+padName] {
		g.mu.Unlock()
		return nil, fmt.Errorf("pad %s on %s: %w", padName, n.Name(), ErrNotFound)
	}
	mn, ok := g.nodes[n.Name()]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("node %s: %w", n.Name(), ErrNotFound)
	}
	return mn.pad(padName), nil
}

// Messages returns the engine event channel.
func (g *MemoryGraph) Messages() <-chan Message { return g.messages }

// Post injects a message onto the event channel, standing in for the real
// engine's bus thread. Drops the message when the channel is full.
func (g *MemoryGraph) Post(m Message) {
	select {
	case g.messages <- m:
	default:
	}
}

// Close closes the message channel.
func (g *MemoryGraph) Close() {
	close(g.messages)
}

// NodePad returns the concrete pad for write-log inspection.
func (g *MemoryGraph) NodePad(node, pad string) *memPad {
	g.mu.Lock()
	mn, ok := g.nodes[node]
	g.mu.Unlock()
	if !ok {
		return nil
	}
	return mn.pad(pad)
}

// CreatedKinds returns the element kinds in creation order.
func (g *MemoryGraph) CreatedKinds() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.created...)
}

// Contains reports whether a node with the given name is attached.
func (g *MemoryGraph) Contains(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.added[name]
}

// Links returns the current link list as "a->b" strings.
func (g *MemoryGraph) Links() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.links))
	for _, l := range g.links {
		out = append(out, l[0]+"->"+l[1])
	}
	return out
}
