// Package encoders selects the video encoder for the output branch,
// preferring hardware backends and shedding load pre-emptively when the
// GPU is saturated.
package encoders

// AccelMode identifies which encoder backend ended up in the graph.
type AccelMode int

// Encoder backends in selection priority order. Software is the terminal
// fallback and never skipped.
const (
	VAAPI AccelMode = iota
	NVENC
	AMF
	Software
)

// String returns the backend name.
func (m AccelMode) String() string {
	switch m {
	case VAAPI:
		return "vaapi"
	case NVENC:
		return "nvenc"
	case AMF:
		return "amf"
	case Software:
		return "software"
	default:
		return "unknown"
	}
}

// backend describes one encoder candidate: the element kind to instantiate
// and the node name it gets in the graph.
type backend struct {
	mode AccelMode
	kind string
	name string
}

// hardwareBackends is the fixed hardware priority chain. The first backend
// that instantiates and links fully wins.
var hardwareBackends = []backend{
	{mode: VAAPI, kind: "vaapih264enc", name: "vaapi_enc"},
	{mode: NVENC, kind: "nvh264enc", name: "nvenc_enc"},
	{mode: AMF, kind: "amfenc_h264", name: "amf_enc"},
}

// softwareBackend is the unconditional fallback.
var softwareBackend = backend{mode: Software, kind: "x264enc", name: "soft_x264"}
