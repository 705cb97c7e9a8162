package engine

import (
	"image"
	"testing"
	"time"

	"github.com/olivier-w/vivid/internal/audio"
	"github.com/olivier-w/vivid/internal/vis"
)

func newTestEngine() *Engine {
	return New(audio.NewAnalyzer(), vis.NewStore())
}

type recordingSink struct {
	frames int
}

func (r *recordingSink) PushFrame(img *image.RGBA, snap audio.Snapshot) {
	r.frames++
}

func TestStepBeforeStartRendersNothing(t *testing.T) {
	e := newTestEngine()
	e.Resize(64, 48)
	if img := e.Step(time.Now()); img != nil {
		t.Fatal("stopped engine produced a frame")
	}
}

func TestStepAfterStopRendersNothing(t *testing.T) {
	e := newTestEngine()
	e.Resize(64, 48)
	e.Start()
	if e.Step(time.Now()) == nil {
		t.Fatal("running engine produced no frame")
	}
	e.Stop()
	// a tick that was already queued when Stop landed
	if img := e.Step(time.Now()); img != nil {
		t.Fatal("stopped engine produced a trailing frame")
	}
}

func TestStepWithoutAreaRendersNothing(t *testing.T) {
	e := newTestEngine()
	e.Start()
	if img := e.Step(time.Now()); img != nil {
		t.Fatal("zero-area engine produced a frame")
	}
	e.Resize(0, 10)
	if img := e.Step(time.Now()); img != nil {
		t.Fatal("zero-width engine produced a frame")
	}
}

func TestStepProducesFrames(t *testing.T) {
	e := newTestEngine()
	e.Resize(64, 48)
	e.Start()
	base := time.Now()
	for i := 0; i < 10; i++ {
		img := e.Step(base.Add(time.Duration(i) * 16 * time.Millisecond))
		if img == nil {
			t.Fatalf("no frame at step %d", i)
		}
		if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
			t.Fatalf("frame bounds = %v", img.Bounds())
		}
	}
}

func TestCycleModeWraps(t *testing.T) {
	e := newTestEngine()
	first := e.Mode()
	names := e.ModeNames()
	for range names {
		e.CycleMode()
	}
	if got := e.Mode(); got != first {
		t.Fatalf("after full cycle mode = %q, want %q", got, first)
	}
}

func TestSetMode(t *testing.T) {
	e := newTestEngine()
	if err := e.SetMode("terrain"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if e.Mode() != "terrain" {
		t.Fatalf("mode = %q, want terrain", e.Mode())
	}
	if err := e.SetMode("lava-lamp"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestAllModesRenderThroughEngine(t *testing.T) {
	e := newTestEngine()
	e.Resize(120, 80)
	e.Start()
	base := time.Now()
	for i := range e.ModeNames() {
		for j := 0; j < 3; j++ {
			at := base.Add(time.Duration(i*3+j) * 16 * time.Millisecond)
			if e.Step(at) == nil {
				t.Fatalf("mode %q produced no frame", e.Mode())
			}
		}
		e.CycleMode()
	}
}

func TestSinksReceiveFrames(t *testing.T) {
	e := newTestEngine()
	e.Resize(64, 48)
	e.Start()
	sink := &recordingSink{}
	e.AddSink(sink)

	base := time.Now()
	for i := 0; i < 5; i++ {
		e.Step(base.Add(time.Duration(i) * 16 * time.Millisecond))
	}
	if sink.frames != 5 {
		t.Fatalf("sink saw %d frames, want 5", sink.frames)
	}

	e.RemoveSink(sink)
	e.Step(base.Add(time.Second))
	if sink.frames != 5 {
		t.Fatal("sink received a frame after removal")
	}
}

func TestRenderPanicIsContained(t *testing.T) {
	e := newTestEngine()
	e.Resize(64, 48)
	e.Start()
	e.modes = append([]vis.Renderer{&panickyRenderer{}}, e.modes...)
	e.active = 0

	base := time.Now()
	if img := e.Step(base); img == nil {
		t.Fatal("panicking renderer killed the frame")
	}
	// next tick keeps going
	if img := e.Step(base.Add(16 * time.Millisecond)); img == nil {
		t.Fatal("engine stopped after contained panic")
	}
}

type panickyRenderer struct{}

func (p *panickyRenderer) Name() string    { return "panic" }
func (p *panickyRenderer) Resize(w, h int) {}

func (p *panickyRenderer) RenderFrame(s *vis.Surface, f vis.Frame) { panic("boom") }
