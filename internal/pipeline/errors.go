package pipeline

import "errors"

// Error taxonomy shared by the control components. Callers match with
// errors.Is; construction-time failures wrap these with context.
var (
	// ErrElementUnavailable means a requested element kind cannot be
	// instantiated (missing backend or codec plugin).
	ErrElementUnavailable = errors.New("element unavailable")

	// ErrLinkFailure means the engine rejected a pad link.
	ErrLinkFailure = errors.New("link failure")

	// ErrNotFound means a named node or pad is absent from the graph.
	ErrNotFound = errors.New("not found")
)
