package api

// SourceData describes one source placement inside a scene.
type SourceData struct {
	Pad    uint    `json:"pad" doc:"Compositor sink pad index"`
	X      int     `json:"x" doc:"Horizontal position"`
	Y      int     `json:"y" doc:"Vertical position"`
	Width  uint    `json:"width" doc:"Source width"`
	Height uint    `json:"height" doc:"Source height"`
	Alpha  float64 `json:"alpha" doc:"Opacity in [0, 1]"`
}

// SceneData describes one scene layout.
type SceneData struct {
	Index   int          `json:"index" doc:"Scene index"`
	Name    string       `json:"name" example:"interview" doc:"Scene name"`
	Sources []SourceData `json:"sources" doc:"Source placements"`
}

// TransitionData mirrors the switcher's transition slot.
type TransitionData struct {
	Active     bool `json:"active" doc:"Whether a fade is in flight"`
	From       int  `json:"from" doc:"Outgoing scene index"`
	To         int  `json:"to" doc:"Incoming scene index"`
	Step       int  `json:"step" doc:"Last completed fade step"`
	TotalSteps int  `json:"total_steps" doc:"Final step index of a fade"`
}

// SceneListResponse is the GET /api/scenes payload.
type SceneListResponse struct {
	Body struct {
		Scenes     []SceneData    `json:"scenes"`
		Current    int            `json:"current" doc:"Current scene index"`
		Transition TransitionData `json:"transition"`
	}
}

// ActivateSceneRequest switches to a scene, cutting or fading.
type ActivateSceneRequest struct {
	Index int `path:"index" doc:"Scene index"`
	Body  struct {
		Fade bool `json:"fade" doc:"Fade instead of cutting"`
	}
}

// ActivateSceneResponse reports the switch result.
type ActivateSceneResponse struct {
	Body struct {
		Current int  `json:"current" doc:"Current scene index"`
		Fading  bool `json:"fading" doc:"Whether a fade task was started"`
	}
}

// UpdateGeometryRequest rewrites one source placement.
type UpdateGeometryRequest struct {
	Index int  `path:"index" doc:"Scene index"`
	Pad   uint `path:"pad" doc:"Compositor sink pad index"`
	Body  struct {
		X      int  `json:"x"`
		Y      int  `json:"y"`
		Width  uint `json:"width"`
		Height uint `json:"height"`
	}
}

// UpdateGeometryResponse echoes the applied placement.
type UpdateGeometryResponse struct {
	Body SourceData
}

// OutputData describes one streaming destination.
type OutputData struct {
	Protocol string `json:"protocol" example:"rtmp" doc:"Destination protocol"`
	Target   string `json:"target" doc:"Destination location"`
}

// OutputListResponse is the GET /api/outputs payload.
type OutputListResponse struct {
	Body struct {
		Outputs []OutputData `json:"outputs"`
		Count   int          `json:"count"`
	}
}

// AddOutputRequest attaches a new destination.
type AddOutputRequest struct {
	Body struct {
		Protocol string `json:"protocol" enum:"rtmp,srt,hls" doc:"Destination protocol"`
		Target   string `json:"target" minLength:"1" doc:"Location, uri or directory"`
	}
}

// AddOutputResponse echoes the attached destination.
type AddOutputResponse struct {
	Body OutputData
}

// StatusResponse is the GET /api/status payload.
type StatusResponse struct {
	Body struct {
		EncoderMode string         `json:"encoder_mode" example:"vaapi" doc:"Selected encoder backend"`
		BitrateKbps uint64         `json:"bitrate_kbps" doc:"Current encoder target bitrate"`
		BytesSent   uint64         `json:"bytes_sent" doc:"Confirmed payload bytes"`
		Outputs     int            `json:"outputs" doc:"Attached destinations"`
		Current     int            `json:"current_scene" doc:"Current scene index"`
		Transition  TransitionData `json:"transition"`
	}
}
