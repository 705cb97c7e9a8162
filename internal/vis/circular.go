package vis

import (
	"math"
	"math/rand"

	"github.com/charmbracelet/harmonica"
)

const (
	circularSegments = 96
	orbitCap         = 150
	orbitLinkDist    = 46.0
)

type orbiter struct {
	angle  float64
	radius float64
	speed  float64
	size   float64
	hue    float64
	band   int
}

// circularRenderer draws concentric reactive rings around a spring-driven
// core: an inner waveform ring, radial spectrum spokes and a pool of
// orbiting motes linked by proximity lines.
type circularRenderer struct {
	w, h int
	rng  *rand.Rand

	buckets []float64
	smooth  []float64

	spring   harmonica.Spring
	coreR    float64
	coreVel  float64
	orbiters []orbiter
}

// NewCircular creates the circular spectrum renderer.
func NewCircular() Renderer {
	return &circularRenderer{
		rng:    rand.New(rand.NewSource(0xc1cc)),
		spring: harmonica.NewSpring(harmonica.FPS(60), 4.2, 0.35),
	}
}

func (r *circularRenderer) Name() string { return "circular" }

func (r *circularRenderer) Resize(w, h int) { r.w, r.h = w, h }

func (r *circularRenderer) RenderFrame(s *Surface, f Frame) {
	drawBackground(s, f)

	cx := float64(r.w) / 2
	cy := float64(r.h) / 2
	base := math.Min(cx, cy) * 0.34

	if len(r.buckets) != circularSegments {
		r.buckets = make([]float64, circularSegments)
		r.smooth = make([]float64, circularSegments)
	}
	Buckets(r.buckets, f.Audio.Magnitudes)
	for i, b := range r.buckets {
		r.smooth[i] = Smooth(r.smooth[i], b/255, 0.3)
	}

	// core radius follows bass through a spring for a bouncy pulse
	target := base * (0.55 + f.Audio.Bands.Bass/255*0.6)
	r.coreR, r.coreVel = r.spring.Update(r.coreR, r.coreVel, target)

	r.ensureOrbiters(base)

	// radial spokes
	rot := f.Time * 0.35
	for i := 0; i < circularSegments; i++ {
		a := rot + 2*math.Pi*float64(i)/circularSegments
		level := r.smooth[i]
		inner := base * 1.1
		outer := inner + level*base*1.6
		col := f.Palette.Sample(float64(i) / circularSegments)
		s.Line(
			cx+math.Cos(a)*inner, cy+math.Sin(a)*inner,
			cx+math.Cos(a)*outer, cy+math.Sin(a)*outer,
			2, col.Alpha(0.35+level*0.65),
		)
	}

	// inner waveform ring
	wf := f.Audio.Waveform
	if len(wf) > 1 {
		prevX, prevY := 0.0, 0.0
		step := len(wf) / 256
		if step < 1 {
			step = 1
		}
		k := 0
		for i := 0; i < len(wf); i += step {
			frac := float64(i) / float64(len(wf))
			a := -rot + 2*math.Pi*frac
			dev := (float64(wf[i]) - 128) / 128
			rr := r.coreR*1.25 + dev*base*0.35
			x := cx + math.Cos(a)*rr
			y := cy + math.Sin(a)*rr
			if k > 0 {
				s.Line(prevX, prevY, x, y, 1.5, f.Palette.Secondary.Alpha(0.8))
			}
			prevX, prevY = x, y
			k++
		}
	}

	// outer accent arcs swell with mids
	mid := f.Audio.Bands.Mid / 255
	for i := 0; i < 3; i++ {
		off := float64(i) * 2 * math.Pi / 3
		from := rot*1.7 + off
		s.Arc(cx, cy, base*2.2+float64(i)*9, from, from+0.5+mid*1.3, 2,
			f.Palette.Tertiary.Alpha(0.25+mid*0.5))
	}

	r.stepOrbiters(s, f, cx, cy)

	// the core itself
	if f.Settings.GlowEffect {
		s.Glow(cx, cy, r.coreR*1.9, f.Palette.Primary.Alpha(0.5))
	}
	s.FillCircle(cx, cy, r.coreR, f.Palette.Primary)
	s.FillCircle(cx, cy, r.coreR*0.55, lerpColor(f.Palette.Primary, RGB(255, 255, 255), 0.55))
}

// orbitRadius swells an orbiter's base radius with its assigned band energy.
func orbitRadius(o orbiter, bands [3]float64) float64 {
	return o.radius * (1 + bands[o.band]*0.35)
}

func (r *circularRenderer) ensureOrbiters(base float64) {
	for len(r.orbiters) < orbitCap {
		r.orbiters = append(r.orbiters, orbiter{
			angle:  r.rng.Float64() * 2 * math.Pi,
			radius: base * (1.4 + r.rng.Float64()*1.6),
			speed:  0.2 + r.rng.Float64()*0.6,
			size:   1 + r.rng.Float64()*2,
			hue:    r.rng.Float64(),
			band:   len(r.orbiters) % 3,
		})
	}
}

func (r *circularRenderer) stepOrbiters(s *Surface, f Frame, cx, cy float64) {
	treble := f.Audio.Bands.Treble / 255
	bands := [3]float64{
		f.Audio.Bands.Bass / 255,
		f.Audio.Bands.Mid / 255,
		f.Audio.Bands.Treble / 255,
	}
	type pos struct{ x, y float64 }
	pts := make([]pos, len(r.orbiters))
	for i := range r.orbiters {
		o := &r.orbiters[i]
		o.angle += o.speed * (0.5 + treble*1.5) * f.Delta
		rad := orbitRadius(*o, bands)
		pts[i] = pos{cx + math.Cos(o.angle)*rad, cy + math.Sin(o.angle)*rad}
		col := f.Palette.Sample(o.hue)
		s.FillCircle(pts[i].x, pts[i].y, o.size*(0.7+treble), col.Alpha(0.5+treble*0.5))
	}
	// proximity links, pool is capped so the quadratic scan stays small
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			dx := pts[i].x - pts[j].x
			dy := pts[i].y - pts[j].y
			d := math.Hypot(dx, dy)
			if d < orbitLinkDist {
				a := (1 - d/orbitLinkDist) * 0.3
				s.Line(pts[i].x, pts[i].y, pts[j].x, pts[j].y, 1, f.Palette.Secondary.Alpha(a))
			}
		}
	}
}
