package scenes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"scenecast/internal/events"
	"scenecast/internal/pipeline"
)

// fadeSteps is the last step index of a fade; steps run 0..fadeSteps
// inclusive, one write round each.
const fadeSteps = 30

// TransitionState describes the switcher's transition slot.
type TransitionState struct {
	Active     bool `json:"active"`
	From       int  `json:"from"`
	To         int  `json:"to"`
	Step       int  `json:"step"`
	TotalSteps int  `json:"total_steps"`
}

// transition is one in-flight fade task. Exactly one occupies the slot at a
// time; starting a new fade cancels the previous task and waits for it to
// drain before stepping.
type transition struct {
	state  TransitionState
	cancel context.CancelFunc
	done   chan struct{}
}

// Switcher owns the scene list and the compositor layout. All graph writes
// it performs are synchronous pad-property sets through the facade.
type Switcher struct {
	graph      pipeline.Graph
	compositor pipeline.Node
	duration   time.Duration
	bus        *events.Bus
	logger     *slog.Logger

	mu      sync.Mutex
	scenes  []Scene
	current int
	slot    *transition
}

// NewSwitcher creates a switcher over an existing compositor node.
// transitionDuration is the total wall time of one fade.
func NewSwitcher(graph pipeline.Graph, compositor pipeline.Node, transitionDuration time.Duration, bus *events.Bus, logger *slog.Logger) *Switcher {
	return &Switcher{
		graph:      graph,
		compositor: compositor,
		duration:   transitionDuration,
		bus:        bus,
		logger:     logger,
	}
}

// AddScene appends a scene. No transition is triggered.
func (s *Switcher) AddScene(scene Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes = append(s.scenes, scene)
}

// Scenes returns a snapshot of the scene list.
func (s *Switcher) Scenes() []Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Scene, len(s.scenes))
	copy(out, s.scenes)
	return out
}

// CurrentScene returns the current scene index. During a fade this already
// reflects the incoming scene.
func (s *Switcher) CurrentScene() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Transition returns the current transition slot state.
func (s *Switcher) Transition() TransitionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slot == nil {
		return TransitionState{TotalSteps: fadeSteps}
	}
	return s.slot.state
}

// SetInitialScene applies scene index synchronously: every source's
// geometry and declared alpha is written once, with no animation.
func (s *Switcher) SetInitialScene(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.scenes) {
		return fmt.Errorf("set initial scene %d of %d: %w", index, len(s.scenes), ErrIndexOutOfRange)
	}
	if err := s.applyLayout(s.scenes[index]); err != nil {
		return err
	}
	prev := s.current
	s.current = index
	s.publish(events.SceneChangedEvent{From: prev, To: index, Scene: s.scenes[index].Name})
	return nil
}

// FadeToScene starts a linear alpha fade from the current scene to
// newIndex. The current index is updated immediately so it always reflects
// the latest request, even mid-transition. A fade already in flight is
// cancelled; its task stops writing at the next step boundary and the new
// task waits for it to drain before stepping.
func (s *Switcher) FadeToScene(ctx context.Context, newIndex int) error {
	s.mu.Lock()
	if newIndex < 0 || newIndex >= len(s.scenes) {
		s.mu.Unlock()
		return fmt.Errorf("fade to scene %d of %d: %w", newIndex, len(s.scenes), ErrIndexOutOfRange)
	}
	if newIndex == s.current {
		s.mu.Unlock()
		return nil
	}

	from := s.current
	s.current = newIndex

	var prevDone chan struct{}
	if s.slot != nil {
		s.slot.cancel()
		prevDone = s.slot.done
	}

	fadeCtx, cancel := context.WithCancel(ctx)
	t := &transition{
		state:  TransitionState{Active: true, From: from, To: newIndex, TotalSteps: fadeSteps},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.slot = t

	out := append([]Source(nil), s.scenes[from].Sources...)
	in := append([]Source(nil), s.scenes[newIndex].Sources...)
	sceneName := s.scenes[newIndex].Name
	s.mu.Unlock()

	s.publish(events.SceneChangedEvent{From: from, To: newIndex, Scene: sceneName})

	go s.runFade(fadeCtx, t, prevDone, out, in)
	return nil
}

// runFade executes one fade task: wait out the previous task, pre-position
// the incoming scene at final geometry with alpha 0, then run the write
// rounds. Write errors (a pad torn down mid-fade) skip that write; they
// never terminate the task.
func (s *Switcher) runFade(ctx context.Context, t *transition, prevDone chan struct{}, out, in []Source) {
	defer s.finishFade(t)

	if prevDone != nil {
		select {
		case <-prevDone:
		case <-ctx.Done():
			return
		}
	}

	for _, src := range in {
		pad, err := s.graph.Pad(s.compositor, src.padName())
		if err != nil {
			s.logger.Debug("Skipping fade pre-position", "pad", src.padName(), "error", err)
			continue
		}
		pad.SetProperty("xpos", src.Geometry.X)
		pad.SetProperty("ypos", src.Geometry.Y)
		pad.SetProperty("width", src.Geometry.Width)
		pad.SetProperty("height", src.Geometry.Height)
		pad.SetProperty("alpha", 0.0)
	}

	s.publish(events.TransitionStartedEvent{From: t.state.From, To: t.state.To, Duration: s.duration.String()})

	stepTime := s.duration / fadeSteps
	for step := 0; step <= fadeSteps; step++ {
		if ctx.Err() != nil {
			return
		}
		frac := float64(step) / float64(fadeSteps)
		s.writeAlphas(out, 1-frac)
		s.writeAlphas(in, frac)
		s.setStep(t, step)

		select {
		case <-ctx.Done():
			return
		case <-time.After(stepTime):
		}
	}
}

// writeAlphas issues one round of alpha writes. All writes of a round
// happen back to back, before the task sleeps again.
func (s *Switcher) writeAlphas(sources []Source, alpha float64) {
	for _, src := range sources {
		pad, err := s.graph.Pad(s.compositor, src.padName())
		if err != nil {
			s.logger.Debug("Skipping alpha write", "pad", src.padName(), "error", err)
			continue
		}
		pad.SetProperty("alpha", alpha)
	}
}

func (s *Switcher) setStep(t *transition, step int) {
	s.mu.Lock()
	t.state.Step = step
	s.mu.Unlock()
}

// finishFade vacates the transition slot if this task still owns it.
func (s *Switcher) finishFade(t *transition) {
	s.mu.Lock()
	cancelled := t.state.Step < fadeSteps
	t.state.Active = false
	if s.slot == t {
		s.slot = nil
	}
	s.mu.Unlock()
	close(t.done)
	s.publish(events.TransitionFinishedEvent{From: t.state.From, To: t.state.To, Cancelled: cancelled})
}

// UpdateSourceGeometry rewrites one source's placement directly on its
// compositor pad, updating the stored scene as well. It deliberately
// bypasses any in-flight transition: geometry is never interpolated.
func (s *Switcher) UpdateSourceGeometry(sceneIndex int, padIndex uint, geo Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sceneIndex < 0 || sceneIndex >= len(s.scenes) {
		return fmt.Errorf("update geometry in scene %d of %d: %w", sceneIndex, len(s.scenes), ErrIndexOutOfRange)
	}
	scene := &s.scenes[sceneIndex]
	var src *Source
	for i := range scene.Sources {
		if scene.Sources[i].PadIndex == padIndex {
			src = &scene.Sources[i]
			break
		}
	}
	if src == nil {
		return fmt.Errorf("scene %q has no source on pad %d: %w", scene.Name, padIndex, pipeline.ErrNotFound)
	}

	pad, err := s.graph.Pad(s.compositor, src.padName())
	if err != nil {
		return err
	}
	pad.SetProperty("xpos", geo.X)
	pad.SetProperty("ypos", geo.Y)
	pad.SetProperty("width", geo.Width)
	pad.SetProperty("height", geo.Height)
	src.Geometry = geo
	return nil
}

// applyLayout writes geometry and declared alpha for every source of a
// scene. Caller holds s.mu.
func (s *Switcher) applyLayout(scene Scene) error {
	for _, src := range scene.Sources {
		pad, err := s.graph.Pad(s.compositor, src.padName())
		if err != nil {
			return fmt.Errorf("apply scene %q: %w", scene.Name, err)
		}
		pad.SetProperty("xpos", src.Geometry.X)
		pad.SetProperty("ypos", src.Geometry.Y)
		pad.SetProperty("width", src.Geometry.Width)
		pad.SetProperty("height", src.Geometry.Height)
		pad.SetProperty("alpha", src.Alpha)
	}
	return nil
}

func (s *Switcher) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
