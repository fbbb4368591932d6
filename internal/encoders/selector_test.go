package encoders

import (
	"errors"
	"log/slog"
	"testing"

	"scenecast/internal/pipeline"
)

func newTestGraph(t *testing.T) (*pipeline.MemoryGraph, pipeline.Node, pipeline.Node) {
	t.Helper()
	g := pipeline.NewMemoryGraph()
	up, err := g.CreateNode("tee", "branch_tee")
	if err != nil {
		t.Fatalf("create upstream: %v", err)
	}
	down, err := g.CreateNode("queue", "enc_queue")
	if err != nil {
		t.Fatalf("create downstream: %v", err)
	}
	g.Add(up)
	g.Add(down)
	return g, up, down
}

func fixedProbe(val float64) GPUProbe {
	return ProbeFunc(func() (float64, error) { return val, nil })
}

func TestSelectPrefersVAAPI(t *testing.T) {
	g, up, down := newTestGraph(t)
	sel := NewSelector(g, fixedProbe(10), slog.Default())

	mode, enc, err := sel.Select(up, down)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if mode != VAAPI {
		t.Errorf("Expected VAAPI, got %s", mode)
	}
	if enc.Kind() != "vaapih264enc" {
		t.Errorf("Expected vaapih264enc node, got %s", enc.Kind())
	}

	// No lower-priority backend may have been instantiated.
	for _, kind := range g.CreatedKinds() {
		if kind == "nvh264enc" || kind == "amfenc_h264" || kind == "x264enc" {
			t.Errorf("Unexpected node kind created after VAAPI success: %s", kind)
		}
	}
}

func TestSelectSkipsHardwareUnderGPUPressure(t *testing.T) {
	g, up, down := newTestGraph(t)
	sel := NewSelector(g, fixedProbe(95), slog.Default())

	mode, enc, err := sel.Select(up, down)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if mode != Software {
		t.Errorf("Expected Software under GPU pressure, got %s", mode)
	}
	if enc.Kind() != "x264enc" {
		t.Errorf("Expected x264enc node, got %s", enc.Kind())
	}
	for _, kind := range g.CreatedKinds() {
		switch kind {
		case "vaapih264enc", "nvh264enc", "amfenc_h264":
			t.Errorf("Hardware backend %s attempted despite GPU pressure", kind)
		}
	}
}

func TestSelectAdvancesChainOnInstantiateFailure(t *testing.T) {
	g, up, down := newTestGraph(t)
	g.FailKinds["vaapih264enc"] = true
	sel := NewSelector(g, nil, slog.Default())

	mode, _, err := sel.Select(up, down)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if mode != NVENC {
		t.Errorf("Expected NVENC after VAAPI failure, got %s", mode)
	}
}

func TestSelectRollsBackFailedLink(t *testing.T) {
	g, up, down := newTestGraph(t)
	// VAAPI instantiates but its downstream link is rejected.
	g.FailLinks["vaapi_enc->enc_queue"] = true
	sel := NewSelector(g, nil, slog.Default())

	mode, _, err := sel.Select(up, down)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if mode != NVENC {
		t.Errorf("Expected NVENC after VAAPI link failure, got %s", mode)
	}
	if g.Contains("vaapi_enc") {
		t.Error("Failed VAAPI node left dangling in graph")
	}
	for _, link := range g.Links() {
		if link == "branch_tee->vaapi_enc" {
			t.Error("Stale link to removed VAAPI node remains")
		}
	}
}

func TestSelectFallsThroughAllHardware(t *testing.T) {
	g, up, down := newTestGraph(t)
	g.FailKinds["vaapih264enc"] = true
	g.FailKinds["nvh264enc"] = true
	g.FailKinds["amfenc_h264"] = true
	sel := NewSelector(g, nil, slog.Default())

	mode, _, err := sel.Select(up, down)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if mode != Software {
		t.Errorf("Expected Software fallback, got %s", mode)
	}
}

func TestSelectSoftwareFailureIsFatal(t *testing.T) {
	g, up, down := newTestGraph(t)
	g.FailKinds["vaapih264enc"] = true
	g.FailKinds["nvh264enc"] = true
	g.FailKinds["amfenc_h264"] = true
	g.FailKinds["x264enc"] = true
	sel := NewSelector(g, nil, slog.Default())

	_, _, err := sel.Select(up, down)
	if err == nil {
		t.Fatal("Expected error when software fallback fails")
	}
	if !errors.Is(err, pipeline.ErrElementUnavailable) {
		t.Errorf("Expected ErrElementUnavailable, got %v", err)
	}
}

func TestSelectProbeErrorTreatedAsIdle(t *testing.T) {
	g, up, down := newTestGraph(t)
	probe := ProbeFunc(func() (float64, error) { return 0, errors.New("no gpu") })
	sel := NewSelector(g, probe, slog.Default())

	mode, _, err := sel.Select(up, down)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	// Probe failure must not pre-empt hardware attempts.
	if mode != VAAPI {
		t.Errorf("Expected VAAPI with failing probe, got %s", mode)
	}
}
