// Package pipeline defines the facade through which the control layer talks
// to the media-processing engine: a directed graph of named nodes with
// linkable pads and settable properties. The engine itself (element
// factories, state machines, data flow) lives behind the Graph interface;
// this package only carries handles and the error taxonomy shared by the
// scene, encoder and streaming components.
package pipeline

// Node is a handle to one processing element in the media graph
// (a capture source, the compositor, an encoder, a muxer, a sink).
type Node interface {
	// Name returns the unique node name assigned at creation.
	Name() string
	// Kind returns the element type the node was created from.
	Kind() string
	// SetProperty writes a node-level property. Writes are synchronous
	// and non-blocking; unknown keys are accepted and stored.
	SetProperty(key string, value any)
}

// Pad is a handle to one input or output pad of a node. Compositor sink
// pads carry the per-source layout properties (xpos, ypos, width, height,
// alpha).
type Pad interface {
	Name() string
	SetProperty(key string, value any)
}

// Graph is the pipeline element facade. All graph mutation performed by
// this module goes through it.
type Graph interface {
	// CreateNode instantiates a new element of the given kind. Returns
	// ErrElementUnavailable when the engine has no such element (missing
	// backend, missing codec plugin).
	CreateNode(kind, name string) (Node, error)

	// Add attaches a created node to the running graph.
	Add(n Node)

	// Remove detaches a node from the graph. Used to roll back failed
	// probe attempts so no dangling node remains.
	Remove(n Node)

	// Link connects a's output to b's input. Returns ErrLinkFailure when
	// the engine rejects the link (incompatible caps, busy pad).
	Link(a, b Node) error

	// SyncStateWithParent brings a freshly added node to the graph's
	// current run state.
	SyncStateWithParent(n Node) error

	// Pad looks up a named pad on a node. Returns ErrNotFound when the
	// node has no such pad.
	Pad(n Node, padName string) (Pad, error)

	// Messages returns the engine's event channel. The integration layer
	// consumes it for byte accounting and audio peaks; the channel is
	// closed when the graph is torn down.
	Messages() <-chan Message
}

// MessageType discriminates engine messages.
type MessageType string

// Message types surfaced by the engine.
const (
	MsgBytesSent  MessageType = "bytes-sent"  // payload: uint64 byte count
	MsgAudioLevel MessageType = "audio-level" // payload: float64 peak dB
	MsgEOS        MessageType = "eos"
	MsgError      MessageType = "error"
)

// Message is one event from the engine's message channel. Messages are
// delivered on a separate goroutine from the control tasks; handlers must
// synchronize any state they touch.
type Message struct {
	Source  string
	Type    MessageType
	Payload any
}
