package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(hasTransport bool) string {
	s := "v mode  c palette  m mirror  g glow  [/] sens  {/} speed  r record"
	if hasTransport {
		s = "space pause  ←/→ seek  ↑/↓ volume  " + s
	}
	return s + "  q quit"
}
