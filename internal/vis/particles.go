package vis

import (
	"math"
	"math/rand"
)

const (
	particleCap      = 600
	particleFriction = 0.98
	particleMaxSpeed = 420.0
	shockwaveSpeed   = 360.0
	shockwaveBand    = 40.0
	wellCap          = 6
	wellLifeDecay    = 0.55
)

type particleKind int

const (
	kindBass particleKind = iota
	kindMid
	kindTreble
	kindField
)

type particle struct {
	kind   particleKind
	x, y   float64
	vx, vy float64
	life   float64
	decay  float64
	size   float64
	hue    float64
}

type shockwave struct {
	x, y   float64
	radius float64
	life   float64
}

// strength is signed: positive wells attract, negative repel.
type gravityWell struct {
	x, y     float64
	strength float64
	life     float64
}

// particlesRenderer is a physics playground: band-typed particles pushed by
// a noise flow field and pulled around by short-lived gravity wells, both
// wells and shockwaves fired on bass onsets.
type particlesRenderer struct {
	w, h int
	rng  *rand.Rand

	pool   []particle
	waves  []shockwave
	wells  []gravityWell
	field  *flowField
	onsets OnsetDetector
}

// NewParticles creates the particle field renderer.
func NewParticles() Renderer {
	return &particlesRenderer{
		rng:    rand.New(rand.NewSource(0x9a27)),
		field:  newFlowField(20),
		onsets: OnsetDetector{Threshold: 170, Refractory: 0.18},
	}
}

func (r *particlesRenderer) Name() string { return "particles" }

func (r *particlesRenderer) Resize(w, h int) {
	r.w, r.h = w, h
	r.field.resize(w, h)
	r.wells = r.wells[:0]
}

func (r *particlesRenderer) RenderFrame(s *Surface, f Frame) {
	// fade instead of clear so motion leaves trails
	s.Dim(f.Settings.BackgroundColor, 0.86)

	bass := f.Audio.Bands.Bass
	mid := f.Audio.Bands.Mid
	treble := f.Audio.Bands.Treble

	r.field.update(f.Time, bass)
	r.stepWells(f.Delta)
	r.spawn(f, bass, mid, treble)

	if r.onsets.Detect(f.Time, bass) {
		r.spawnWell(bass)
		r.waves = append(r.waves, shockwave{
			x:    float64(r.w) / 2,
			y:    float64(r.h) / 2,
			life: 1,
		})
	}

	r.stepParticles(s, f)
	r.stepWaves(s, f)
}

func (r *particlesRenderer) spawnWell(bass float64) {
	if len(r.wells) >= wellCap {
		return
	}
	str := 60 + bass/255*140
	if r.rng.Float64() < 0.35 {
		str = -str * 0.7
	}
	r.wells = append(r.wells, gravityWell{
		x:        float64(r.w) * (0.2 + r.rng.Float64()*0.6),
		y:        float64(r.h) * (0.2 + r.rng.Float64()*0.6),
		strength: str,
		life:     1,
	})
}

func (r *particlesRenderer) stepWells(dt float64) {
	alive := r.wells[:0]
	for _, w := range r.wells {
		w.life -= wellLifeDecay * dt
		if w.life > 0 {
			alive = append(alive, w)
		}
	}
	r.wells = alive
}

// spawn rates scale with band energy; silence spawns nothing.
func (r *particlesRenderer) spawn(f Frame, bass, mid, treble float64) {
	budget := particleCap - len(r.pool)
	if budget <= 0 {
		return
	}
	add := func(k particleKind, count int, mk func() particle) {
		for i := 0; i < count && budget > 0; i++ {
			p := mk()
			p.kind = k
			r.pool = append(r.pool, p)
			budget--
		}
	}

	if bass > 90 {
		add(kindBass, int(bass/255*4), func() particle {
			a := r.rng.Float64() * 2 * math.Pi
			sp := 80 + r.rng.Float64()*bass
			return particle{
				x: float64(r.w) / 2, y: float64(r.h) / 2,
				vx: math.Cos(a) * sp, vy: math.Sin(a) * sp,
				life: 1, decay: 0.5 + r.rng.Float64()*0.4,
				size: 2.5 + r.rng.Float64()*2.5, hue: r.rng.Float64() * 0.25,
			}
		})
	}
	if mid > 70 {
		add(kindMid, int(mid/255*3), func() particle {
			return particle{
				x: r.rng.Float64() * float64(r.w), y: float64(r.h) + 4,
				vx: (r.rng.Float64() - 0.5) * 40, vy: -60 - mid*0.8,
				life: 1, decay: 0.35 + r.rng.Float64()*0.3,
				size: 1.5 + r.rng.Float64()*2, hue: 0.3 + r.rng.Float64()*0.3,
			}
		})
	}
	if treble > 60 {
		add(kindTreble, int(treble/255*3), func() particle {
			return particle{
				x: r.rng.Float64() * float64(r.w), y: r.rng.Float64() * float64(r.h) * 0.5,
				vx: (r.rng.Float64() - 0.5) * 240, vy: (r.rng.Float64() - 0.5) * 240,
				life: 1, decay: 1.2 + r.rng.Float64()*0.8,
				size: 1 + r.rng.Float64(), hue: 0.7 + r.rng.Float64()*0.3,
			}
		})
	}
	if f.Audio.Average > 20 {
		add(kindField, 1, func() particle {
			return particle{
				x: r.rng.Float64() * float64(r.w), y: r.rng.Float64() * float64(r.h),
				life: 1, decay: 0.15 + r.rng.Float64()*0.1,
				size: 1 + r.rng.Float64()*1.5, hue: r.rng.Float64(),
			}
		})
	}
}

func (r *particlesRenderer) stepParticles(s *Surface, f Frame) {
	dt := f.Delta
	alive := r.pool[:0]
	for _, p := range r.pool {
		angle, mag := r.field.at(p.x, p.y)
		p.vx += math.Cos(angle) * mag * dt
		p.vy += math.Sin(angle) * mag * dt

		for _, w := range r.wells {
			dx := w.x - p.x
			dy := w.y - p.y
			d2 := dx*dx + dy*dy + 400
			pull := w.strength * w.life * 1200 / d2
			d := math.Sqrt(d2)
			p.vx += dx / d * pull * dt
			p.vy += dy / d * pull * dt
		}

		// expanding rings shove particles outward as they sweep past
		for _, w := range r.waves {
			dx := p.x - w.x
			dy := p.y - w.y
			d := math.Hypot(dx, dy)
			if d < 1 {
				continue
			}
			if band := math.Abs(d - w.radius); band < shockwaveBand {
				k := (1 - band/shockwaveBand) * w.life * 900
				p.vx += dx / d * k * dt
				p.vy += dy / d * k * dt
			}
		}

		p.vx *= particleFriction
		p.vy *= particleFriction
		if sp := math.Hypot(p.vx, p.vy); sp > particleMaxSpeed {
			k := particleMaxSpeed / sp
			p.vx *= k
			p.vy *= k
		}

		p.x += p.vx * dt
		p.y += p.vy * dt
		p.life -= p.decay * dt

		if p.kind == kindField {
			// field followers wrap, everything else dies off-screen
			p.x = wrapf(p.x, float64(r.w))
			p.y = wrapf(p.y, float64(r.h))
		} else if p.x < -10 || p.x > float64(r.w)+10 || p.y < -10 || p.y > float64(r.h)+10 {
			continue
		}
		if p.life <= 0 {
			continue
		}

		col := f.Palette.Sample(p.hue).Alpha(math.Min(1, p.life))
		if f.Settings.GlowEffect && p.size > 2 {
			s.Glow(p.x, p.y, p.size*3, col.Scaled(0.4))
		}
		s.FillCircle(p.x, p.y, p.size*p.life, col)
		alive = append(alive, p)
	}
	r.pool = alive
}

func (r *particlesRenderer) stepWaves(s *Surface, f Frame) {
	alive := r.waves[:0]
	for _, w := range r.waves {
		w.radius += shockwaveSpeed * f.Delta
		w.life -= f.Delta * 1.1
		if w.life <= 0 {
			continue
		}
		s.StrokeCircle(w.x, w.y, w.radius, 3, f.Palette.Primary.Alpha(w.life*0.7))
		alive = append(alive, w)
	}
	r.waves = alive
}

func wrapf(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	v = math.Mod(v, limit)
	if v < 0 {
		v += limit
	}
	return v
}
