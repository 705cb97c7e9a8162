package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/vivid/internal/audio"
	"github.com/olivier-w/vivid/internal/capture"
	"github.com/olivier-w/vivid/internal/engine"
	"github.com/olivier-w/vivid/internal/util"
	"github.com/olivier-w/vivid/internal/vis"
)

// hudRows is the terminal space reserved below the visualization.
const hudRows = 5

const captureFPS = 30

// Model is the Bubbletea model for the visualizer TUI.
type Model struct {
	analyzer *audio.Analyzer
	eng      *engine.Engine
	store    *vis.Store
	preview  *Preview

	title   string
	hasFile bool // file playback exposes transport controls

	width  int
	height int
	cols   int
	rows   int
	frame  string

	paused   bool
	elapsed  time.Duration
	duration time.Duration
	volume   float64
	seekBar  progress.Model

	recording *capture.Session
	stopping  bool

	statusMsg  string
	statusTime time.Time
	quitting   bool
}

// New creates the model. title labels the attached source; hasFile enables
// the playback transport keys.
func New(analyzer *audio.Analyzer, eng *engine.Engine, store *vis.Store, title string, hasFile bool) Model {
	bar := progress.New(
		progress.WithScaledGradient("#00E5FF", "#AA00FF"),
		progress.WithoutPercentage(),
	)
	m := Model{
		analyzer: analyzer,
		eng:      eng,
		store:    store,
		preview:  NewPreview(),
		title:    title,
		hasFile:  hasFile,
		seekBar:  bar,
	}
	if t := m.transport(); t != nil {
		m.duration = t.Duration()
		m.volume = t.Volume()
	}
	return m
}

func (m Model) transport() audio.Transport {
	if !m.hasFile {
		return nil
	}
	t, ok := m.analyzer.Source().(audio.Transport)
	if !ok {
		return nil
	}
	return t
}

func (m Model) Init() tea.Cmd {
	m.eng.Start()
	cmds := []tea.Cmd{tickCmd(), tea.SetWindowTitle("vivid: " + m.title)}
	if t := m.transport(); t != nil {
		cmds = append(cmds, watchDone(t))
	}
	return tea.Batch(cmds...)
}

func watchDone(t audio.Transport) tea.Cmd {
	return func() tea.Msg {
		<-t.Done()
		return playbackEndedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.cols = msg.Width
		m.rows = msg.Height - hudRows
		if m.rows < 2 {
			m.rows = 2
		}
		m.seekBar.Width = clampInt(msg.Width-16, 10, 60)
		w, h := m.preview.PixelSize(m.cols, m.rows)
		m.eng.Resize(w, h)
		return m, nil

	case tickMsg:
		if img := m.eng.Step(time.Time(msg)); img != nil {
			m.frame = m.preview.Render(img, m.cols, m.rows)
		}
		if t := m.transport(); t != nil {
			m.elapsed = t.Position()
			m.volume = t.Volume()
			m.paused = t.Paused()
		}
		if m.statusMsg != "" && time.Since(m.statusTime) > 4*time.Second {
			m.statusMsg = ""
		}
		return m, tickCmd()

	case recordingStoppedMsg:
		m.stopping = false
		if msg.err != nil {
			m.setStatus(errorStyle.Render(fmt.Sprintf("Recording failed: %v", msg.err)))
		} else {
			m.setStatus("Saved " + msg.path)
		}
		return m, nil

	case playbackEndedMsg:
		m.elapsed = m.duration
		return m.shutdown()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if isQuit(msg) {
		return m.shutdown()
	}

	switch msg.String() {
	case " ":
		if t := m.transport(); t != nil {
			if t.Paused() {
				t.Play()
			} else {
				t.Pause()
			}
			m.paused = t.Paused()
		}
	case "left", "h":
		m.seekBy(-5 * time.Second)
	case "right", "l":
		m.seekBy(5 * time.Second)
	case "up", "k", "+", "=":
		m.adjustVolume(0.05)
	case "down", "j", "-":
		m.adjustVolume(-0.05)
	case "v":
		m.setStatus("Mode: " + m.eng.CycleMode())
	case "c":
		m.store.CyclePalette()
		m.setStatus("Palette: " + m.store.View().Palette.Name)
	case "m":
		cur := m.store.View().Settings.MirrorEffect
		next := !cur
		m.store.Apply(vis.Patch{MirrorEffect: &next})
		m.setStatus(onOff("Mirror", next))
	case "g":
		cur := m.store.View().Settings.GlowEffect
		next := !cur
		m.store.Apply(vis.Patch{GlowEffect: &next})
		m.setStatus(onOff("Glow", next))
	case "[":
		m.nudgeSensitivity(-0.1)
	case "]":
		m.nudgeSensitivity(0.1)
	case "{":
		m.nudgeSpeed(-0.25)
	case "}":
		m.nudgeSpeed(0.25)
	case "r":
		return m.toggleRecording()
	}
	return m, nil
}

func (m *Model) seekBy(delta time.Duration) {
	t := m.transport()
	if t == nil || m.duration <= 0 {
		return
	}
	frac := float64(t.Position()+delta) / float64(m.duration)
	t.SeekFraction(frac)
}

func (m *Model) adjustVolume(delta float64) {
	t := m.transport()
	if t == nil {
		return
	}
	t.SetVolume(t.Volume() + delta)
	m.volume = t.Volume()
}

func (m *Model) nudgeSensitivity(delta float64) {
	v := m.store.View().Settings.Sensitivity + delta
	m.store.Apply(vis.Patch{Sensitivity: &v})
	m.setStatus(fmt.Sprintf("Sensitivity %.1f", m.store.View().Settings.Sensitivity))
}

func (m *Model) nudgeSpeed(delta float64) {
	v := m.store.View().Settings.AnimationSpeed + delta
	m.store.Apply(vis.Patch{AnimationSpeed: &v})
	m.setStatus(fmt.Sprintf("Speed %.2fx", m.store.View().Settings.AnimationSpeed))
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	if m.stopping {
		return m, nil
	}
	if m.recording != nil {
		session := m.recording
		m.eng.RemoveSink(session)
		m.recording = nil
		m.stopping = true
		return m, func() tea.Msg {
			path, err := session.Stop()
			return recordingStoppedMsg{path: path, err: err}
		}
	}

	w, h := m.preview.PixelSize(m.cols, m.rows)
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	session, err := capture.Start(dir, w, h, captureFPS, m.analyzer.NewTap())
	if err != nil {
		m.setStatus(errorStyle.Render(fmt.Sprintf("Recording failed: %v", err)))
		return m, nil
	}
	m.recording = session
	m.eng.AddSink(session)
	m.setStatus("Recording to ." + session.Ext())
	return m, nil
}

func (m Model) shutdown() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.eng.Stop()
	if m.recording != nil {
		m.eng.RemoveSink(m.recording)
		if _, err := m.recording.Stop(); err != nil {
			util.Debugf("ui: stopping recording on quit: %v", err)
		}
		m.recording = nil
	}
	m.analyzer.Detach()
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m *Model) setStatus(s string) {
	m.statusMsg = s
	m.statusTime = time.Now()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	out := m.frame
	if out == "" {
		out = headerStyle.Render("  vivid") + "\n"
	}
	out += "\n"

	// line 1: source and transport state
	left := titleStyle.Render(m.title)
	if t := m.transport(); t != nil {
		icon := "▶"
		if m.paused {
			icon = "❚❚"
		}
		elapsed := timeStyle.Render(util.FormatDuration(m.elapsed))
		total := timeStyle.Render(util.FormatDuration(m.duration))
		frac := 0.0
		if m.duration > 0 {
			frac = float64(m.elapsed) / float64(m.duration)
		}
		out += fmt.Sprintf(" %s %s %s %s %s\n",
			icon, left, elapsed, m.seekBar.ViewAs(frac), total)
	} else {
		out += " " + left + "\n"
	}

	// line 2: engine state
	view := m.store.View()
	state := fmt.Sprintf("%s · %s · sens %.1f · %.2fx",
		m.eng.Mode(), view.Palette.Name,
		view.Settings.Sensitivity, view.Settings.AnimationSpeed)
	if m.recording != nil {
		state += "   " + recordStyle.Render(fmt.Sprintf("● REC %s", util.FormatDuration(m.recording.Elapsed())))
	} else if m.stopping {
		state += "   " + statusStyle.Render("finalizing…")
	}
	out += " " + statusStyle.Render(state) + "\n"

	// line 3: transient status or help
	if m.statusMsg != "" {
		out += " " + m.statusMsg + "\n"
	} else {
		out += " " + helpStyle.Render(helpText(m.transport() != nil)) + "\n"
	}
	return out
}

func onOff(name string, v bool) string {
	if v {
		return name + " on"
	}
	return name + " off"
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
