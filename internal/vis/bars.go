package vis

import (
	"math"
	"math/rand"
)

const (
	barRiseAlpha   = 0.25
	barPeakGravity = 520
	barBurstCap    = 220
)

type barBurst struct {
	x, y   float64
	vx, vy float64
	life   float64
	col    Color
}

// barsRenderer is the classic spectrum bar view: bucketed bins rendered as
// gradient columns with falling peak caps and small bursts off hot bars.
type barsRenderer struct {
	w, h int
	rng  *rand.Rand

	buckets   []float64
	heights   []float64
	peaks     *PeakHold
	bursts    []barBurst
	lastBurst float64
}

// NewBars creates the spectrum bars renderer.
func NewBars() Renderer {
	return &barsRenderer{
		rng:   rand.New(rand.NewSource(0x6ba45)),
		peaks: NewPeakHold(barPeakGravity),
	}
}

func (r *barsRenderer) Name() string { return "bars" }

func (r *barsRenderer) Resize(w, h int) { r.w, r.h = w, h }

func (r *barsRenderer) RenderFrame(s *Surface, f Frame) {
	drawBackground(s, f)

	n := f.Settings.BarCount
	if len(r.buckets) != n {
		r.buckets = make([]float64, n)
		r.heights = make([]float64, n)
	}
	r.peaks.Resize(n)

	// mirror mode raises the baseline so the reflection fits underneath
	baseline := float64(r.h)
	if f.Settings.MirrorEffect {
		baseline = float64(r.h) * 0.74
	}

	Buckets(r.buckets, f.Audio.Magnitudes)
	maxH := baseline * 0.85
	for i, b := range r.buckets {
		target := b / 255 * maxH
		r.heights[i] = Smooth(r.heights[i], target, barRiseAlpha)
	}
	peaks := r.peaks.Update(r.heights, f.Delta)

	spacing := f.Settings.BarSpacing
	slot := float64(r.w) / float64(n)
	barW := slot - spacing
	if barW < 1 {
		barW = 1
	}

	for i := 0; i < n; i++ {
		t := float64(i) / float64(max(n-1, 1))
		col := f.Palette.Sample(t)
		h := r.heights[i]
		ph := peaks[i]
		x := float64(i)*slot + spacing/2

		if f.Settings.GlowEffect && h > 4 {
			s.Glow(x+barW/2, baseline-h, barW*1.6, col.Alpha(0.35))
		}
		s.FillRect(x, baseline-h, barW, h, col)
		if ph > 2 {
			s.FillRect(x, baseline-ph-3, barW, 2, f.Palette.Tertiary.Alpha(0.9))
		}

		if f.Settings.MirrorEffect {
			// squashed, dimmed reflection of bar and cap below the baseline
			rh := h * 0.45
			s.FillRect(x, baseline+2, barW, rh, col.Alpha(0.30))
			if ph > 2 {
				s.FillRect(x, baseline+2+ph*0.45, barW, 2, f.Palette.Tertiary.Alpha(0.35))
			}
		}

		// spawn a burst when a bar slams near the top
		if h > maxH*0.82 && f.Time-r.lastBurst > 0.05 && len(r.bursts) < barBurstCap {
			r.lastBurst = f.Time
			for k := 0; k < 4; k++ {
				r.bursts = append(r.bursts, barBurst{
					x:    x + barW/2,
					y:    baseline - h,
					vx:   (r.rng.Float64() - 0.5) * 160,
					vy:   -60 - r.rng.Float64()*140,
					life: 1,
					col:  col,
				})
			}
		}
	}

	r.stepBursts(s, f.Delta)
}

func (r *barsRenderer) stepBursts(s *Surface, dt float64) {
	alive := r.bursts[:0]
	for _, b := range r.bursts {
		b.vy += 380 * dt
		b.x += b.vx * dt
		b.y += b.vy * dt
		b.life -= dt * 1.4
		if b.life <= 0 || b.y > float64(r.h) {
			continue
		}
		size := 1.5 + b.life*1.5
		s.FillCircle(b.x, b.y, size, b.col.Alpha(math.Min(1, b.life)))
		alive = append(alive, b)
	}
	r.bursts = alive
}
