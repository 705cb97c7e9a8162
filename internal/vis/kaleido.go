package vis

import (
	"math"
)

const kaleidoWedges = 8

// kaleidoRenderer composes several drawing layers in a fixed order, each
// replicated through N-way rotational symmetry with alternating mirroring,
// while the whole hue wheel drifts over time.
type kaleidoRenderer struct {
	w, h int

	buckets []float64
	smooth  []float64
}

// NewKaleidoscope creates the kaleidoscope renderer.
func NewKaleidoscope() Renderer {
	return &kaleidoRenderer{
		buckets: make([]float64, 32),
		smooth:  make([]float64, 32),
	}
}

func (r *kaleidoRenderer) Name() string { return "kaleidoscope" }

func (r *kaleidoRenderer) Resize(w, h int) { r.w, r.h = w, h }

// mirror maps a point drawn in the base wedge into every symmetric copy and
// invokes draw for each. Odd wedges flip across the wedge bisector.
func (r *kaleidoRenderer) mirror(cx, cy, x, y float64, draw func(x, y float64)) {
	dx, dy := x-cx, y-cy
	dist := math.Hypot(dx, dy)
	baseA := math.Atan2(dy, dx)
	for i := 0; i < kaleidoWedges; i++ {
		a := baseA + 2*math.Pi*float64(i)/kaleidoWedges
		if i%2 == 1 {
			a = 2*math.Pi*float64(i)/kaleidoWedges - baseA
		}
		draw(cx+math.Cos(a)*dist, cy+math.Sin(a)*dist)
	}
}

func (r *kaleidoRenderer) RenderFrame(s *Surface, f Frame) {
	s.Dim(f.Settings.BackgroundColor, 0.88)

	cx := float64(r.w) / 2
	cy := float64(r.h) / 2
	reach := math.Min(cx, cy)
	hueShift := f.Time * 0.04

	Buckets(r.buckets, f.Audio.Magnitudes)
	for i, b := range r.buckets {
		r.smooth[i] = Smooth(r.smooth[i], b/255, 0.25)
	}
	bass := f.Audio.Bands.Bass / 255
	mid := f.Audio.Bands.Mid / 255
	treble := f.Audio.Bands.Treble / 255

	// ribbons: a flowing polyline per low bucket
	for i := 0; i < 4; i++ {
		level := r.smooth[i*2]
		col := f.Palette.Sample(math.Mod(hueShift+float64(i)*0.13, 1)).Alpha(0.3 + level*0.5)
		var prev Point
		for k := 0; k <= 24; k++ {
			t := float64(k) / 24
			a := t*math.Pi/kaleidoWedges + math.Sin(f.Time*0.7+float64(i))*0.2
			rr := reach * (0.2 + t*0.7) * (0.7 + level*0.5)
			pt := Point{cx + math.Cos(a)*rr, cy + math.Sin(a)*rr}
			if k > 0 {
				r.mirrorSegment(cx, cy, prev, pt, 1.5, col, s)
			}
			prev = pt
		}
	}

	// geometry: rotating polygons sized by mids
	sides := 3 + int(mid*4)
	polyR := reach * (0.25 + mid*0.35)
	rot := f.Time * 0.5
	colG := f.Palette.Sample(math.Mod(hueShift+0.4, 1)).Alpha(0.5)
	for i := 0; i < sides; i++ {
		a0 := rot + 2*math.Pi*float64(i)/float64(sides)
		a1 := rot + 2*math.Pi*float64(i+1)/float64(sides)
		p0 := Point{cx + math.Cos(a0)*polyR, cy + math.Sin(a0)*polyR}
		p1 := Point{cx + math.Cos(a1)*polyR, cy + math.Sin(a1)*polyR}
		r.mirrorSegment(cx, cy, p0, p1, 1.5, colG, s)
	}

	// spirograph traced dots
	colS := f.Palette.Sample(math.Mod(hueShift+0.6, 1))
	for k := 0; k < 40; k++ {
		t := f.Time*0.8 + float64(k)*0.16
		rr := reach * (0.3 + 0.25*math.Sin(t*2.1)) * (0.8 + treble*0.4)
		x := cx + math.Cos(t)*rr
		y := cy + math.Sin(t*1.5)*rr
		r.mirror(cx, cy, x, y, func(mx, my float64) {
			s.FillCircle(mx, my, 1.5+treble*2, colS.Alpha(0.25+treble*0.4))
		})
	}

	// spectrum slices: radial wedge bars per bucket
	for i, level := range r.smooth {
		a := math.Pi / kaleidoWedges * float64(i) / float64(len(r.smooth))
		inner := reach * 0.15
		outer := inner + level*reach*0.75
		col := f.Palette.Sample(math.Mod(hueShift+float64(i)/float64(len(r.smooth)), 1))
		p0 := Point{cx + math.Cos(a)*inner, cy + math.Sin(a)*inner}
		p1 := Point{cx + math.Cos(a)*outer, cy + math.Sin(a)*outer}
		r.mirrorSegment(cx, cy, p0, p1, 2, col.Alpha(0.3+level*0.6), s)
	}

	// mandala rings pulse with bass
	for i := 0; i < 3; i++ {
		rr := reach * (0.18 + float64(i)*0.12) * (1 + bass*0.3)
		s.StrokeCircle(cx, cy, rr, 1.5,
			f.Palette.Sample(math.Mod(hueShift+0.2+float64(i)*0.1, 1)).Alpha(0.3+bass*0.4))
	}

	// aurora: soft glow sweeps near the rim
	for i := 0; i < kaleidoWedges; i++ {
		a := f.Time*0.3 + 2*math.Pi*float64(i)/kaleidoWedges
		x := cx + math.Cos(a)*reach*0.85
		y := cy + math.Sin(a)*reach*0.85
		s.Glow(x, y, reach*0.25*(0.5+mid), f.Palette.Sample(math.Mod(hueShift+0.8, 1)).Alpha(0.12))
	}

	// chromatic accent: offset highlight dots on strong treble
	if treble > 0.4 {
		for k := 0; k < 12; k++ {
			a := f.Time*1.3 + float64(k)*math.Pi/6
			x := cx + math.Cos(a)*reach*0.5
			y := cy + math.Sin(a)*reach*0.5
			r.mirror(cx, cy, x, y, func(mx, my float64) {
				s.FillCircle(mx+1.5, my, 1, RGB(255, 80, 80).Alpha(0.35))
				s.FillCircle(mx-1.5, my, 1, RGB(80, 160, 255).Alpha(0.35))
			})
		}
	}

	if f.Settings.GlowEffect {
		s.Glow(cx, cy, reach*0.2*(1+bass), f.Palette.Primary.Alpha(0.4))
	}
}

// mirrorSegment replicates one line segment through all wedges.
func (r *kaleidoRenderer) mirrorSegment(cx, cy float64, p0, p1 Point, width float64, c Color, s *Surface) {
	type pt struct{ x, y float64 }
	a := make([]pt, 0, kaleidoWedges)
	b := make([]pt, 0, kaleidoWedges)
	r.mirror(cx, cy, p0.X, p0.Y, func(x, y float64) { a = append(a, pt{x, y}) })
	r.mirror(cx, cy, p1.X, p1.Y, func(x, y float64) { b = append(b, pt{x, y}) })
	for i := range a {
		s.Line(a[i].x, a[i].y, b[i].x, b[i].y, width, c)
	}
}
