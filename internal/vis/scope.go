package vis

import (
	"math"
)

// scopeRenderer is an oscilloscope view: the raw waveform traced across the
// canvas with phosphor-style afterglow, tinted by whichever band dominates.
type scopeRenderer struct {
	w, h int

	gain float64
}

// NewScope creates the oscilloscope renderer.
func NewScope() Renderer {
	return &scopeRenderer{gain: 1}
}

func (r *scopeRenderer) Name() string { return "scope" }

func (r *scopeRenderer) Resize(w, h int) { r.w, r.h = w, h }

func (r *scopeRenderer) RenderFrame(s *Surface, f Frame) {
	// afterglow: previous traces fade instead of vanishing
	s.Dim(f.Settings.BackgroundColor, 0.82)

	wf := f.Audio.Waveform
	if len(wf) < 2 || r.w < 2 {
		return
	}

	// auto-gain keeps quiet signals visible without clipping loud ones
	peak := 0.0
	for _, v := range wf {
		d := math.Abs(float64(v) - 128)
		if d > peak {
			peak = d
		}
	}
	target := 1.0
	if peak > 4 {
		target = clampf(96/peak, 0.5, 6)
	}
	r.gain = Smooth(r.gain, target, 0.05)

	col := r.tint(f)
	midY := float64(r.h) / 2
	amp := float64(r.h) * 0.38 / 128

	// faint center line
	s.Line(0, midY, float64(r.w), midY, 1, col.Alpha(0.12))

	prevX, prevY := 0.0, midY
	for x := 0; x < r.w; x++ {
		i := x * (len(wf) - 1) / (r.w - 1)
		dev := (float64(wf[i]) - 128) * r.gain
		y := midY - dev*amp
		if x > 0 {
			s.Line(prevX, prevY, float64(x), y, 2, col)
			if f.Settings.GlowEffect {
				s.Line(prevX, prevY, float64(x), y, 5, col.Alpha(0.12))
			}
		}
		prevX, prevY = float64(x), y
	}
}

// tint blends the palette toward whichever band currently dominates.
func (r *scopeRenderer) tint(f Frame) Color {
	b, m, t := f.Audio.Bands.Bass, f.Audio.Bands.Mid, f.Audio.Bands.Treble
	switch {
	case b >= m && b >= t:
		return lerpColor(f.Palette.Primary, f.Palette.Secondary, 0.2)
	case t >= m:
		return lerpColor(f.Palette.Tertiary, f.Palette.Secondary, 0.3)
	default:
		return f.Palette.Secondary
	}
}
