package vis

import "math"

// Smooth advances a first-order low-pass filter one step toward target.
func Smooth(current, target, alpha float64) float64 {
	return current + (target-current)*alpha
}

// PeakHold tracks per-bucket peak markers that free-fall under simulated
// gravity once the smoothed value drops below them, floored at the current
// smoothed value.
type PeakHold struct {
	Gravity float64 // units per second squared
	peaks   []float64
	vels    []float64
}

// NewPeakHold creates a tracker with the given fall acceleration.
func NewPeakHold(gravity float64) *PeakHold {
	return &PeakHold{Gravity: gravity}
}

// Resize adjusts the bucket count, preserving state when unchanged.
func (p *PeakHold) Resize(n int) {
	if len(p.peaks) == n {
		return
	}
	p.peaks = make([]float64, n)
	p.vels = make([]float64, n)
}

// Update advances the fall simulation by dt against the smoothed values and
// returns the peak positions. len(smoothed) must equal the tracked size.
func (p *PeakHold) Update(smoothed []float64, dt float64) []float64 {
	for i, s := range smoothed {
		if s >= p.peaks[i] {
			p.peaks[i] = s
			p.vels[i] = 0
			continue
		}
		p.vels[i] += p.Gravity * dt
		p.peaks[i] -= p.vels[i] * dt
		if p.peaks[i] < s {
			p.peaks[i] = s
			p.vels[i] = 0
		}
	}
	return p.peaks
}

// Peaks returns the current peak positions without advancing the simulation.
func (p *PeakHold) Peaks() []float64 { return p.peaks }

// Buckets reduces a spectrum of len(src) bins to len(dst) buckets by
// averaging contiguous runs of bins.
func Buckets(dst []float64, src []uint8) {
	k := len(dst)
	n := len(src)
	if k == 0 || n == 0 {
		return
	}
	for i := 0; i < k; i++ {
		lo := i * n / k
		hi := (i + 1) * n / k
		if hi <= lo {
			hi = lo + 1
		}
		if hi > n {
			hi = n
		}
		var sum float64
		for j := lo; j < hi; j++ {
			sum += float64(src[j])
		}
		dst[i] = sum / float64(hi-lo)
	}
}

// OnsetDetector reports discrete events when an energy value crosses
// Threshold, with at least Refractory seconds between events.
type OnsetDetector struct {
	Threshold  float64
	Refractory float64
	last       float64
	primed     bool
}

// Detect returns true when an onset fires at simulation time now.
func (d *OnsetDetector) Detect(now, energy float64) bool {
	if energy < d.Threshold {
		return false
	}
	if d.primed && now-d.last < d.Refractory {
		return false
	}
	d.last = now
	d.primed = true
	return true
}

// Noise2D is a seed-free hash noise over the plane, returning [0,1).
// Call sites depend only on this signature, so the source can be swapped.
func Noise2D(x, y float64) float64 {
	s := math.Sin(x*12.9898+y*78.233) * 43758.5453
	return s - math.Floor(s)
}
