package vis

import (
	"github.com/olivier-w/vivid/internal/audio"
)

// Frame carries everything a renderer needs for one animation step.
type Frame struct {
	// Delta is the clamped wall-clock step in seconds.
	Delta float64
	// Time is accumulated animation time, already scaled by animation speed.
	Time float64
	// Audio is the spectral snapshot for this tick.
	Audio audio.Snapshot
	// Palette and Settings are the view state captured at tick start.
	Palette  Palette
	Settings Settings
}

// Renderer is one visualization variant. RenderFrame draws a complete frame
// into the surface; implementations own whatever animation state they carry
// between frames.
type Renderer interface {
	Name() string
	Resize(w, h int)
	RenderFrame(s *Surface, f Frame)
}

// Modes returns the full renderer lineup in display order.
func Modes() []Renderer {
	return []Renderer{
		NewBars(),
		NewCircular(),
		NewParticles(),
		NewClouds(),
		NewTerrain(),
		NewKaleidoscope(),
		NewScope(),
	}
}

// drawBackground paints either a flat or vertically graded backdrop
// according to the shared settings.
func drawBackground(s *Surface, f Frame) {
	if f.Settings.GradientBackground {
		top := f.Settings.BackgroundColor
		bottom := lerpColor(top, f.Palette.Primary, 0.22)
		s.FillVertical(top, bottom)
		return
	}
	s.Fill(f.Settings.BackgroundColor)
}
