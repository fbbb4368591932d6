package events

// Event type constants for kelindar/event.
const (
	TypeSceneChanged uint32 = iota + 1
	TypeTransitionStarted
	TypeTransitionFinished
	TypeOutputAdded
	TypeBitrateAdjusted
	TypeOverlayRotated
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SceneChangedEvent fires when the switcher's current scene index moves,
// for cuts and fades alike. For fades it fires when the fade is requested,
// not when it completes.
type SceneChangedEvent struct {
	From  int    `json:"from" doc:"Previous scene index"`
	To    int    `json:"to" doc:"New scene index"`
	Scene string `json:"scene" example:"interview" doc:"New scene name"`
}

// Type returns the event type identifier for SceneChangedEvent.
func (e SceneChangedEvent) Type() uint32 { return TypeSceneChanged }

// TransitionStartedEvent fires when a fade task begins stepping.
type TransitionStartedEvent struct {
	From     int    `json:"from" doc:"Outgoing scene index"`
	To       int    `json:"to" doc:"Incoming scene index"`
	Duration string `json:"duration" example:"500ms" doc:"Total fade duration"`
}

// Type returns the event type identifier for TransitionStartedEvent.
func (e TransitionStartedEvent) Type() uint32 { return TypeTransitionStarted }

// TransitionFinishedEvent fires when a fade task stops, either after its
// last step or because a newer fade cancelled it.
type TransitionFinishedEvent struct {
	From      int  `json:"from" doc:"Outgoing scene index"`
	To        int  `json:"to" doc:"Incoming scene index"`
	Cancelled bool `json:"cancelled" doc:"True when a newer fade preempted this one"`
}

// Type returns the event type identifier for TransitionFinishedEvent.
func (e TransitionFinishedEvent) Type() uint32 { return TypeTransitionFinished }

// OutputAddedEvent fires when a streaming destination branch is attached.
type OutputAddedEvent struct {
	Protocol string `json:"protocol" example:"rtmp" doc:"Destination protocol"`
	Target   string `json:"target" example:"rtmp://a.rtmp.example/live" doc:"Destination location"`
}

// Type returns the event type identifier for OutputAddedEvent.
func (e OutputAddedEvent) Type() uint32 { return TypeOutputAdded }

// BitrateAdjustedEvent fires when the adaptive loop pushes a new encoder
// bitrate.
type BitrateAdjustedEvent struct {
	Direction      string  `json:"direction" example:"down" doc:"Adjustment direction: up or down"`
	BitrateKbps    uint64  `json:"bitrate_kbps" doc:"New encoder bitrate"`
	ThroughputKbps float64 `json:"throughput_kbps" doc:"Measured throughput that triggered the change"`
}

// Type returns the event type identifier for BitrateAdjustedEvent.
func (e BitrateAdjustedEvent) Type() uint32 { return TypeBitrateAdjusted }

// OverlayRotatedEvent fires when the overlay scheduler swaps the displayed
// message.
type OverlayRotatedEvent struct {
	Overlay string `json:"overlay" example:"ticker" doc:"Overlay node name"`
	Message string `json:"message" doc:"Message now displayed"`
}

// Type returns the event type identifier for OverlayRotatedEvent.
func (e OverlayRotatedEvent) Type() uint32 { return TypeOverlayRotated }
