package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"scenecast/internal/scenes"
)

// registerSceneRoutes registers scene listing, activation and geometry
// endpoints.
func (s *Server) registerSceneRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-scenes",
		Method:      http.MethodGet,
		Path:        "/api/scenes",
		Summary:     "List Scenes",
		Description: "Get all scenes, the current index and transition state",
		Tags:        []string{"scenes"},
		Errors:      []int{500},
	}, func(_ context.Context, _ *struct{}) (*SceneListResponse, error) {
		sw := s.session.Switcher()
		resp := &SceneListResponse{}
		for i, scene := range sw.Scenes() {
			resp.Body.Scenes = append(resp.Body.Scenes, sceneToData(i, scene))
		}
		resp.Body.Current = sw.CurrentScene()
		resp.Body.Transition = transitionToData(sw.Transition())
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "activate-scene",
		Method:      http.MethodPost,
		Path:        "/api/scenes/{index}/activate",
		Summary:     "Activate Scene",
		Description: "Switch to a scene, either cutting instantly or fading",
		Tags:        []string{"scenes"},
		Errors:      []int{404, 500},
	}, func(ctx context.Context, input *ActivateSceneRequest) (*ActivateSceneResponse, error) {
		sw := s.session.Switcher()
		var err error
		if input.Body.Fade {
			// The fade task outlives the request; it is bound to the
			// session, not the request context.
			err = sw.FadeToScene(context.WithoutCancel(ctx), input.Index)
		} else {
			err = sw.SetInitialScene(input.Index)
		}
		if err != nil {
			return nil, s.mapError(err)
		}
		resp := &ActivateSceneResponse{}
		resp.Body.Current = sw.CurrentScene()
		resp.Body.Fading = input.Body.Fade
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-source-geometry",
		Method:      http.MethodPatch,
		Path:        "/api/scenes/{index}/sources/{pad}",
		Summary:     "Update Source Geometry",
		Description: "Rewrite one source's placement directly on its compositor pad",
		Tags:        []string{"scenes"},
		Errors:      []int{404, 500},
	}, func(_ context.Context, input *UpdateGeometryRequest) (*UpdateGeometryResponse, error) {
		geo := scenes.Geometry{
			X:      input.Body.X,
			Y:      input.Body.Y,
			Width:  input.Body.Width,
			Height: input.Body.Height,
		}
		if err := s.session.Switcher().UpdateSourceGeometry(input.Index, input.Pad, geo); err != nil {
			return nil, s.mapError(err)
		}
		resp := &UpdateGeometryResponse{}
		resp.Body = SourceData{
			Pad:    input.Pad,
			X:      geo.X,
			Y:      geo.Y,
			Width:  geo.Width,
			Height: geo.Height,
		}
		return resp, nil
	})
}

func sceneToData(index int, scene scenes.Scene) SceneData {
	data := SceneData{Index: index, Name: scene.Name}
	for _, src := range scene.Sources {
		data.Sources = append(data.Sources, SourceData{
			Pad:    src.PadIndex,
			X:      src.Geometry.X,
			Y:      src.Geometry.Y,
			Width:  src.Geometry.Width,
			Height: src.Geometry.Height,
			Alpha:  src.Alpha,
		})
	}
	return data
}

func transitionToData(t scenes.TransitionState) TransitionData {
	return TransitionData{
		Active:     t.Active,
		From:       t.From,
		To:         t.To,
		Step:       t.Step,
		TotalSteps: t.TotalSteps,
	}
}
