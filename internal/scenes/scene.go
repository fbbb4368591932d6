// Package scenes implements named compositor layouts and the switcher that
// cuts or fades between them. Every source in a scene occupies one
// compositor sink pad; a layout is expressed purely through pad properties
// (position, size, opacity) on the shared compositor node.
package scenes

import (
	"errors"
	"fmt"

	"scenecast/internal/pipeline"
)

// ErrIndexOutOfRange reports an invalid scene index.
var ErrIndexOutOfRange = errors.New("scene index out of range")

// Geometry is the placement of one source inside the composited frame.
type Geometry struct {
	X      int  `json:"x" toml:"x"`
	Y      int  `json:"y" toml:"y"`
	Width  uint `json:"width" toml:"width"`
	Height uint `json:"height" toml:"height"`
}

// Source is one video-producing node placed on a compositor pad. The node
// itself is created and linked by the caller; the scene only owns its
// arrangement.
type Source struct {
	Node     pipeline.Node
	PadIndex uint
	Geometry Geometry
	Alpha    float64 // opacity in [0, 1]
}

// Scene is a named, ordered set of sources representing one layout.
type Scene struct {
	Name    string
	Sources []Source
}

// padName returns the compositor sink pad for a source.
func (s Source) padName() string {
	return fmt.Sprintf("sink_%d", s.PadIndex)
}
