package vis

import (
	"math"
	"math/rand"
)

const cloudCap = 90

type cloudPuff struct {
	x, y   float64
	vx, vy float64
	size   float64
	hue    float64
	phase  float64
	lobes  int
	life   float64
	decay  float64
}

// cloudsRenderer drifts soft lobed clusters along a coarse flow field. Each
// puff fades in, lives out a fixed lifetime, fades away and respawns
// elsewhere. Cluster size breathes with overall energy and color shifts
// through the palette gradient over time.
type cloudsRenderer struct {
	w, h int
	rng  *rand.Rand

	puffs  []cloudPuff
	field  *flowField
	energy float64
}

// NewClouds creates the nebula cloud renderer.
func NewClouds() Renderer {
	return &cloudsRenderer{
		rng:   rand.New(rand.NewSource(0xc70d)),
		field: newFlowField(40),
	}
}

func (r *cloudsRenderer) Name() string { return "clouds" }

func (r *cloudsRenderer) Resize(w, h int) {
	r.w, r.h = w, h
	r.field.resize(w, h)
}

func (r *cloudsRenderer) RenderFrame(s *Surface, f Frame) {
	s.Dim(f.Settings.BackgroundColor, 0.92)

	r.energy = Smooth(r.energy, f.Audio.Average/255, 0.1)
	r.field.update(f.Time*0.4, f.Audio.Bands.Bass*0.5)

	for len(r.puffs) < cloudCap {
		r.puffs = append(r.puffs, r.newPuff())
	}

	dt := f.Delta
	for i := range r.puffs {
		p := &r.puffs[i]
		p.life -= p.decay * dt
		if p.life <= 0 {
			*p = r.newPuff()
		}
		angle, mag := r.field.at(p.x, p.y)
		p.vx = Smooth(p.vx, math.Cos(angle)*mag*0.6, 0.05)
		p.vy = Smooth(p.vy, math.Sin(angle)*mag*0.6, 0.05)
		p.x = wrapf(p.x+p.vx*dt, float64(r.w))
		p.y = wrapf(p.y+p.vy*dt, float64(r.h))

		// fade in near life=1, fade out near life=0
		env := math.Min(1, math.Min(p.life, 1-p.life)*5)

		breathe := 1 + 0.25*math.Sin(f.Time*0.8+p.phase)
		size := p.size * breathe * (0.6 + r.energy*1.2)
		hue := math.Mod(p.hue+f.Time*0.015, 1)
		col := f.Palette.Sample(hue)
		a := (0.10 + r.energy*0.25) * env

		for k := 0; k < p.lobes; k++ {
			la := p.phase + float64(k)*2*math.Pi/float64(p.lobes)
			lx := p.x + math.Cos(la)*size*0.45
			ly := p.y + math.Sin(la)*size*0.45
			ls := size * (0.5 + 0.18*math.Sin(p.phase+float64(k)*1.7))
			s.Glow(lx, ly, ls, col.Alpha(a))
		}
		s.Glow(p.x, p.y, size*0.7, col.Alpha(a*1.3))
		if f.Settings.GlowEffect {
			s.Glow(p.x, p.y, size*0.35, col.Alpha((0.18+r.energy*0.3)*env))
		}
	}
}

func (r *cloudsRenderer) newPuff() cloudPuff {
	return cloudPuff{
		x:     r.rng.Float64() * float64(r.w),
		y:     r.rng.Float64() * float64(r.h),
		size:  14 + r.rng.Float64()*30,
		hue:   r.rng.Float64(),
		phase: r.rng.Float64() * 2 * math.Pi,
		lobes: 3 + r.rng.Intn(3),
		life:  1,
		decay: 0.06 + r.rng.Float64()*0.08,
	}
}
