package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"scenecast/internal/config"
)

// registerOutputRoutes registers destination listing and attachment.
func (s *Server) registerOutputRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-outputs",
		Method:      http.MethodGet,
		Path:        "/api/outputs",
		Summary:     "List Outputs",
		Description: "Get all attached streaming destinations",
		Tags:        []string{"outputs"},
		Errors:      []int{500},
	}, func(_ context.Context, _ *struct{}) (*OutputListResponse, error) {
		resp := &OutputListResponse{}
		for _, out := range s.session.Controller().Outputs() {
			resp.Body.Outputs = append(resp.Body.Outputs, OutputData{
				Protocol: out.Endpoint.Protocol(),
				Target:   out.Endpoint.Target(),
			})
		}
		resp.Body.Count = len(resp.Body.Outputs)
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "add-output",
		Method:      http.MethodPost,
		Path:        "/api/outputs",
		Summary:     "Add Output",
		Description: "Attach a new streaming destination branch and link the encoded feed into it",
		Tags:        []string{"outputs"},
		Errors:      []int{422, 502, 500},
	}, func(_ context.Context, input *AddOutputRequest) (*AddOutputResponse, error) {
		spec := config.DestinationSpec{
			Protocol: input.Body.Protocol,
			Target:   input.Body.Target,
		}
		if err := s.session.AddOutput(spec); err != nil {
			return nil, s.mapError(err)
		}
		s.logger.Info("Output attached via API", "protocol", spec.Protocol, "target", spec.Target)
		resp := &AddOutputResponse{}
		resp.Body = OutputData{Protocol: spec.Protocol, Target: spec.Target}
		return resp, nil
	})
}

// registerStatusRoutes registers the session status endpoint.
func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Session Status",
		Description: "Get encoder mode, bitrate state and scene position",
		Tags:        []string{"status"},
		Errors:      []int{500},
	}, func(_ context.Context, _ *struct{}) (*StatusResponse, error) {
		ctrl := s.session.Controller()
		sw := s.session.Switcher()
		resp := &StatusResponse{}
		resp.Body.EncoderMode = s.session.EncoderMode().String()
		resp.Body.BitrateKbps = ctrl.CurrentBitrate()
		resp.Body.BytesSent = ctrl.BytesSent()
		resp.Body.Outputs = len(ctrl.Outputs())
		resp.Body.Current = sw.CurrentScene()
		resp.Body.Transition = transitionToData(sw.Transition())
		return resp, nil
	})
}
