package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

type playbackEndedMsg struct{}

type recordingStoppedMsg struct {
	path string
	err  error
}

// frameInterval paces the render loop. Terminal emulators rarely keep up
// beyond ~30fps of full-screen redraw.
const frameInterval = 33 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
