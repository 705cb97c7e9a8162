package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/vivid/internal/audio"
	"github.com/olivier-w/vivid/internal/engine"
	"github.com/olivier-w/vivid/internal/vis"
)

// fakeSource is an attachable source with a controllable transport.
type fakeSource struct {
	paused   bool
	volume   float64
	position time.Duration
	duration time.Duration
	seeks    []float64
	done     chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		volume:   1,
		position: 30 * time.Second,
		duration: 2 * time.Minute,
		done:     make(chan struct{}),
	}
}

func (f *fakeSource) Describe() string                    { return "fake" }
func (f *fakeSource) Start(feed audio.SampleWriter) error { return nil }
func (f *fakeSource) Close() error                        { return nil }

func (f *fakeSource) Play()        { f.paused = false }
func (f *fakeSource) Pause()       { f.paused = true }
func (f *fakeSource) Paused() bool { return f.paused }
func (f *fakeSource) Stop()        {}

func (f *fakeSource) SeekFraction(frac float64) { f.seeks = append(f.seeks, frac) }
func (f *fakeSource) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	f.volume = v
}
func (f *fakeSource) Volume() float64         { return f.volume }
func (f *fakeSource) Position() time.Duration { return f.position }
func (f *fakeSource) Duration() time.Duration { return f.duration }
func (f *fakeSource) Done() <-chan struct{}   { return f.done }

func newTestModel(t *testing.T, src *fakeSource) Model {
	t.Helper()
	analyzer := audio.NewAnalyzer()
	store := vis.NewStore()
	eng := engine.New(analyzer, store)
	hasFile := src != nil
	if src != nil {
		if err := analyzer.Attach(src); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}
	return New(analyzer, eng, store, "test track", hasFile)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model
}

func TestSpaceTogglesPause(t *testing.T) {
	src := newFakeSource()
	m := newTestModel(t, src)

	m = update(t, m, key(" "))
	if !src.paused {
		t.Fatal("space did not pause")
	}
	m = update(t, m, key(" "))
	if src.paused {
		t.Fatal("second space did not resume")
	}
	_ = m
}

func TestSeekKeysUseFractions(t *testing.T) {
	src := newFakeSource()
	m := newTestModel(t, src)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if len(src.seeks) == 0 {
		t.Fatal("right arrow did not seek")
	}
	// 30s + 5s of 2m
	want := 35.0 / 120
	got := src.seeks[len(src.seeks)-1]
	if got < want-0.001 || got > want+0.001 {
		t.Fatalf("seek fraction = %v, want ~%v", got, want)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	got = src.seeks[len(src.seeks)-1]
	want = 25.0 / 120
	if got < want-0.001 || got > want+0.001 {
		t.Fatalf("seek fraction = %v, want ~%v", got, want)
	}
}

func TestVolumeKeys(t *testing.T) {
	src := newFakeSource()
	m := newTestModel(t, src)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if src.volume != 0.95 {
		t.Fatalf("volume = %v, want 0.95", src.volume)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if src.volume != 1 {
		t.Fatalf("volume = %v, want 1", src.volume)
	}
}

func TestModeAndPaletteKeys(t *testing.T) {
	m := newTestModel(t, nil)
	firstMode := m.eng.Mode()
	firstPalette := m.store.View().Palette.Name

	m = update(t, m, key("v"))
	if m.eng.Mode() == firstMode {
		t.Fatal("v did not cycle mode")
	}
	m = update(t, m, key("c"))
	if m.store.View().Palette.Name == firstPalette {
		t.Fatal("c did not cycle palette")
	}
}

func TestToggleKeys(t *testing.T) {
	m := newTestModel(t, nil)

	m = update(t, m, key("m"))
	if !m.store.View().Settings.MirrorEffect {
		t.Fatal("m did not enable mirror")
	}
	m = update(t, m, key("g"))
	if m.store.View().Settings.GlowEffect {
		t.Fatal("g did not disable glow")
	}
}

func TestSensitivityAndSpeedKeys(t *testing.T) {
	m := newTestModel(t, nil)

	m = update(t, m, key("]"))
	if got := m.store.View().Settings.Sensitivity; got != 1.1 {
		t.Fatalf("sensitivity = %v, want 1.1", got)
	}
	m = update(t, m, key("{"))
	if got := m.store.View().Settings.AnimationSpeed; got != 0.75 {
		t.Fatalf("speed = %v, want 0.75", got)
	}
}

func TestWindowSizeDrivesEngineResize(t *testing.T) {
	m := newTestModel(t, nil)
	m.eng.Start()
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 29})

	if m.cols != 80 || m.rows != 24 {
		t.Fatalf("cells = %dx%d, want 80x24", m.cols, m.rows)
	}
	if img := m.eng.Step(time.Now()); img == nil {
		t.Fatal("engine not sized for rendering")
	}
}

func TestTinyWindowStaysUsable(t *testing.T) {
	m := newTestModel(t, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 10, Height: 3})
	if m.rows < 2 {
		t.Fatalf("rows = %d, want >= 2", m.rows)
	}
	_ = m.View()
}

func TestTickRendersFrame(t *testing.T) {
	m := newTestModel(t, nil)
	m.eng.Start()
	m = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	m = update(t, m, tickMsg(time.Now()))
	if m.frame == "" {
		t.Fatal("tick produced no preview frame")
	}
	if m.View() == "" {
		t.Fatal("empty view")
	}
}

func TestQuitStopsEngine(t *testing.T) {
	m := newTestModel(t, nil)
	m.eng.Start()
	next, _ := m.Update(key("q"))
	got := next.(Model)
	if !got.quitting {
		t.Fatal("q did not quit")
	}
	if got.eng.Running() {
		t.Fatal("engine still running after quit")
	}
	if got.View() != "" {
		t.Fatal("quitting view not empty")
	}
}

func TestPlaybackEndedQuits(t *testing.T) {
	src := newFakeSource()
	m := newTestModel(t, src)
	next, _ := m.Update(playbackEndedMsg{})
	if !next.(Model).quitting {
		t.Fatal("playback end did not quit")
	}
}

func TestHelpTextMentionsTransportOnlyForFiles(t *testing.T) {
	withFile := helpText(true)
	without := helpText(false)
	if withFile == without {
		t.Fatal("help text identical with and without transport")
	}
}
