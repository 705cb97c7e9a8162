package engine

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/olivier-w/vivid/internal/audio"
	"github.com/olivier-w/vivid/internal/util"
	"github.com/olivier-w/vivid/internal/vis"
)

// FrameSink receives every rendered frame together with the audio snapshot
// it was drawn from. Implementations must not block; slow consumers drop.
type FrameSink interface {
	PushFrame(img *image.RGBA, snap audio.Snapshot)
}

// Engine ties the analyzer, the settings store and the renderer lineup into
// a tick-driven render pipeline. The owner calls Step once per display tick;
// everything else hangs off that call.
type Engine struct {
	analyzer *audio.Analyzer
	store    *vis.Store

	mu      sync.Mutex
	surface *vis.Surface
	modes   []vis.Renderer
	active  int
	clock   clock
	running bool
	sinks   []FrameSink
}

// New creates an engine in the stopped state with the full renderer lineup.
func New(analyzer *audio.Analyzer, store *vis.Store) *Engine {
	return &Engine{
		analyzer: analyzer,
		store:    store,
		surface:  vis.NewSurface(),
		modes:    vis.Modes(),
	}
}

// Start enables rendering. The clock is reset so the first frame after a
// pause does not integrate the idle time.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.clock.reset()
}

// Stop disables rendering. A tick already scheduled when Stop lands renders
// nothing, so stopping never produces a trailing frame.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// Running reports whether ticks currently produce frames.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Resize sets the raster dimensions and forwards them to every renderer.
func (e *Engine) Resize(w, h int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.Resize(w, h)
	for _, m := range e.modes {
		m.Resize(w, h)
	}
}

// Mode returns the active renderer's name.
func (e *Engine) Mode() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modes[e.active].Name()
}

// ModeNames lists all renderers in lineup order.
func (e *Engine) ModeNames() []string {
	names := make([]string, len(e.modes))
	for i, m := range e.modes {
		names[i] = m.Name()
	}
	return names
}

// CycleMode advances to the next renderer, wrapping at the end.
func (e *Engine) CycleMode() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = (e.active + 1) % len(e.modes)
	return e.modes[e.active].Name()
}

// SetMode switches to the named renderer.
func (e *Engine) SetMode(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, m := range e.modes {
		if m.Name() == name {
			e.active = i
			return nil
		}
	}
	return fmt.Errorf("unknown visualization mode %q", name)
}

// AddSink registers a frame consumer.
func (e *Engine) AddSink(s FrameSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// RemoveSink unregisters a frame consumer.
func (e *Engine) RemoveSink(s FrameSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, x := range e.sinks {
		if x == s {
			e.sinks = append(e.sinks[:i], e.sinks[i+1:]...)
			return
		}
	}
}

// Step renders one frame at the given wall-clock instant and returns the
// raster, or nil when the engine is stopped or the surface has no area.
// Settings changes applied before this call are visible in the frame.
func (e *Engine) Step(now time.Time) *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || !e.surface.Valid() {
		return nil
	}

	view := e.store.View()
	e.analyzer.SetAnalysisParameters(view.Settings.FFTSize, view.Settings.SmoothingTimeConstant)
	e.analyzer.SetSensitivity(view.Settings.Sensitivity)
	snap := e.analyzer.Snapshot()

	dt := e.clock.step(now, view.Settings.AnimationSpeed)
	frame := vis.Frame{
		Delta:    dt,
		Time:     e.clock.time(),
		Audio:    snap,
		Palette:  view.Palette,
		Settings: view.Settings,
	}

	e.renderGuarded(frame)

	img := e.surface.Image()
	for _, s := range e.sinks {
		s.PushFrame(img, snap)
	}
	return img
}

// renderGuarded isolates renderer faults: a panic in one frame resets the
// surface to the background and the loop carries on with the next tick.
func (e *Engine) renderGuarded(frame vis.Frame) {
	defer func() {
		if r := recover(); r != nil {
			util.Debugf("renderer %s panicked: %v", e.modes[e.active].Name(), r)
			e.surface.Reset(frame.Settings.BackgroundColor)
		}
	}()
	e.modes[e.active].RenderFrame(e.surface, frame)
}
