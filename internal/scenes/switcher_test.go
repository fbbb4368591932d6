package scenes

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"scenecast/internal/pipeline"
)

func newTestSwitcher(t *testing.T, duration time.Duration) (*Switcher, *pipeline.MemoryGraph, pipeline.Node) {
	t.Helper()
	g := pipeline.NewMemoryGraph()
	comp, err := g.CreateNode("compositor", "comp")
	if err != nil {
		t.Fatalf("create compositor: %v", err)
	}
	g.Add(comp)
	return NewSwitcher(g, comp, duration, nil, slog.Default()), g, comp
}

func twoScenes() (Scene, Scene) {
	a := Scene{Name: "full", Sources: []Source{{
		PadIndex: 0,
		Geometry: Geometry{X: 0, Y: 0, Width: 1920, Height: 1080},
		Alpha:    1.0,
	}}}
	b := Scene{Name: "pip", Sources: []Source{{
		PadIndex: 1,
		Geometry: Geometry{X: 1280, Y: 720, Width: 640, Height: 360},
		Alpha:    1.0,
	}}}
	return a, b
}

// waitFade blocks until the switcher's transition slot drains.
func waitFade(t *testing.T, s *Switcher) {
	t.Helper()
	s.mu.Lock()
	slot := s.slot
	s.mu.Unlock()
	if slot == nil {
		return
	}
	select {
	case <-slot.done:
	case <-time.After(5 * time.Second):
		t.Fatal("fade did not finish in time")
	}
}

func alphaValues(t *testing.T, g *pipeline.MemoryGraph, pad string) []float64 {
	t.Helper()
	p := g.NodePad("comp", pad)
	if p == nil {
		t.Fatalf("pad %s missing", pad)
	}
	writes := p.Writes("alpha")
	out := make([]float64, len(writes))
	for i, w := range writes {
		v, ok := w.Value.(float64)
		if !ok {
			t.Fatalf("alpha write %d has non-float value %v", i, w.Value)
		}
		out[i] = v
	}
	return out
}

func TestSetInitialSceneAppliesLayoutWithoutAnimation(t *testing.T) {
	sw, g, _ := newTestSwitcher(t, 500*time.Millisecond)
	a, b := twoScenes()
	sw.AddScene(a)
	sw.AddScene(b)

	if err := sw.SetInitialScene(1); err != nil {
		t.Fatalf("SetInitialScene failed: %v", err)
	}
	if sw.CurrentScene() != 1 {
		t.Errorf("current = %d, want 1", sw.CurrentScene())
	}

	pad := g.NodePad("comp", "sink_1")
	if got := pad.Property("xpos"); got != 1280 {
		t.Errorf("xpos = %v, want 1280", got)
	}
	if got := pad.Property("width"); got != uint(640) {
		t.Errorf("width = %v, want 640", got)
	}
	if got := pad.Property("alpha"); got != 1.0 {
		t.Errorf("alpha = %v, want 1.0", got)
	}
	// Exactly one alpha write: the declared value, no animation.
	if n := len(pad.Writes("alpha")); n != 1 {
		t.Errorf("alpha writes = %d, want 1", n)
	}
}

func TestSetInitialSceneRejectsBadIndex(t *testing.T) {
	sw, _, _ := newTestSwitcher(t, time.Second)
	a, _ := twoScenes()
	sw.AddScene(a)

	if err := sw.SetInitialScene(3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestFadeToSameSceneIsNoOp(t *testing.T) {
	sw, g, _ := newTestSwitcher(t, time.Second)
	a, b := twoScenes()
	sw.AddScene(a)
	sw.AddScene(b)
	if err := sw.SetInitialScene(0); err != nil {
		t.Fatalf("SetInitialScene failed: %v", err)
	}
	before := len(g.NodePad("comp", "sink_0").Writes(""))

	if err := sw.FadeToScene(context.Background(), 0); err != nil {
		t.Fatalf("FadeToScene failed: %v", err)
	}
	if sw.Transition().Active {
		t.Error("no-op fade started a transition task")
	}
	if after := len(g.NodePad("comp", "sink_0").Writes("")); after != before {
		t.Errorf("no-op fade wrote properties: %d -> %d", before, after)
	}
}

func TestFadeToInvalidIndexLeavesCurrentUntouched(t *testing.T) {
	sw, _, _ := newTestSwitcher(t, time.Second)
	a, b := twoScenes()
	sw.AddScene(a)
	sw.AddScene(b)
	if err := sw.SetInitialScene(0); err != nil {
		t.Fatalf("SetInitialScene failed: %v", err)
	}

	if err := sw.FadeToScene(context.Background(), 7); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if sw.CurrentScene() != 0 {
		t.Errorf("current moved to %d on failed fade", sw.CurrentScene())
	}
}

func TestFadeRunsThirtyOneMonotonicWriteRounds(t *testing.T) {
	sw, g, _ := newTestSwitcher(t, 31*time.Millisecond)
	a, b := twoScenes()
	sw.AddScene(a)
	sw.AddScene(b)
	if err := sw.SetInitialScene(0); err != nil {
		t.Fatalf("SetInitialScene failed: %v", err)
	}

	if err := sw.FadeToScene(context.Background(), 1); err != nil {
		t.Fatalf("FadeToScene failed: %v", err)
	}
	if sw.CurrentScene() != 1 {
		t.Error("current index not updated optimistically")
	}
	waitFade(t, sw)

	outAlphas := alphaValues(t, g, "sink_0")
	// One write from the initial layout, then 31 fade rounds.
	if len(outAlphas) != 32 {
		t.Fatalf("outgoing alpha writes = %d, want 32 (1 layout + 31 rounds)", len(outAlphas))
	}
	fade := outAlphas[1:]
	for i := 1; i < len(fade); i++ {
		if fade[i] > fade[i-1] {
			t.Fatalf("outgoing alpha not monotonically non-increasing at round %d: %v -> %v", i, fade[i-1], fade[i])
		}
	}
	if last := fade[len(fade)-1]; last != 0.0 {
		t.Errorf("outgoing final alpha = %v, want 0.0", last)
	}

	inAlphas := alphaValues(t, g, "sink_1")
	// Pre-position write plus 31 fade rounds.
	if len(inAlphas) != 32 {
		t.Fatalf("incoming alpha writes = %d, want 32 (pre-position + 31 rounds)", len(inAlphas))
	}
	for i := 1; i < len(inAlphas); i++ {
		if inAlphas[i] < inAlphas[i-1] {
			t.Fatalf("incoming alpha not monotonically non-decreasing at round %d: %v -> %v", i, inAlphas[i-1], inAlphas[i])
		}
	}
	if last := inAlphas[len(inAlphas)-1]; last != 1.0 {
		t.Errorf("incoming final alpha = %v, want 1.0", last)
	}

	// Incoming geometry fixed before the fade, never interpolated.
	inPad := g.NodePad("comp", "sink_1")
	if n := len(inPad.Writes("xpos")); n != 1 {
		t.Errorf("incoming xpos writes = %d, want 1", n)
	}
}

func TestNewFadeCancelsInFlightFade(t *testing.T) {
	sw, _, _ := newTestSwitcher(t, 10*time.Second)
	a, b := twoScenes()
	c := Scene{Name: "side", Sources: []Source{{PadIndex: 2, Geometry: Geometry{Width: 960, Height: 540}, Alpha: 1.0}}}
	sw.AddScene(a)
	sw.AddScene(b)
	sw.AddScene(c)
	if err := sw.SetInitialScene(0); err != nil {
		t.Fatalf("SetInitialScene failed: %v", err)
	}

	if err := sw.FadeToScene(context.Background(), 1); err != nil {
		t.Fatalf("first fade failed: %v", err)
	}
	sw.mu.Lock()
	first := sw.slot
	sw.mu.Unlock()

	if err := sw.FadeToScene(context.Background(), 2); err != nil {
		t.Fatalf("second fade failed: %v", err)
	}

	select {
	case <-first.done:
	case <-time.After(5 * time.Second):
		t.Fatal("first fade not cancelled by second")
	}

	st := sw.Transition()
	if !st.Active || st.To != 2 {
		t.Errorf("transition slot = %+v, want active fade to scene 2", st)
	}
	if sw.CurrentScene() != 2 {
		t.Errorf("current = %d, want 2", sw.CurrentScene())
	}
}

func TestUpdateSourceGeometry(t *testing.T) {
	sw, g, _ := newTestSwitcher(t, time.Second)
	a, b := twoScenes()
	sw.AddScene(a)
	sw.AddScene(b)

	geo := Geometry{X: 10, Y: 20, Width: 320, Height: 180}
	if err := sw.UpdateSourceGeometry(0, 0, geo); err != nil {
		t.Fatalf("UpdateSourceGeometry failed: %v", err)
	}
	pad := g.NodePad("comp", "sink_0")
	if got := pad.Property("xpos"); got != 10 {
		t.Errorf("xpos = %v, want 10", got)
	}
	if got := sw.Scenes()[0].Sources[0].Geometry; got != geo {
		t.Errorf("stored geometry = %+v, want %+v", got, geo)
	}

	if err := sw.UpdateSourceGeometry(5, 0, geo); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange for bad scene, got %v", err)
	}
	if err := sw.UpdateSourceGeometry(0, 9, geo); !errors.Is(err, pipeline.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown pad, got %v", err)
	}
}

func TestFadeSkipsMissingPadWrites(t *testing.T) {
	sw, g, _ := newTestSwitcher(t, 31*time.Millisecond)
	a, b := twoScenes()
	sw.AddScene(a)
	sw.AddScene(b)
	if err := sw.SetInitialScene(0); err != nil {
		t.Fatalf("SetInitialScene failed: %v", err)
	}
	// Outgoing pad disappears mid-session; the fade task must keep going.
	g.FailPads["comp/sink_0"] = true

	if err := sw.FadeToScene(context.Background(), 1); err != nil {
		t.Fatalf("FadeToScene failed: %v", err)
	}
	waitFade(t, sw)

	inAlphas := alphaValues(t, g, "sink_1")
	if last := inAlphas[len(inAlphas)-1]; last != 1.0 {
		t.Errorf("incoming final alpha = %v, want 1.0 despite missing outgoing pad", last)
	}
}
