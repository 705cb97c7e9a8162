package engine

import "time"

// maxDelta caps the per-frame step so a stall (window drag, debugger pause,
// background tab) resumes with one normal-sized step instead of a jump.
const maxDelta = 100 * time.Millisecond

// clock converts wall-clock ticks into clamped frame deltas and accumulated
// animation time scaled by the current speed setting.
type clock struct {
	last    time.Time
	started bool
	simTime float64
}

// step advances the clock and returns the clamped real delta in seconds.
// The first step after a reset returns zero.
func (c *clock) step(now time.Time, speed float64) float64 {
	if !c.started {
		c.started = true
		c.last = now
		return 0
	}
	d := now.Sub(c.last)
	if d < 0 {
		d = 0
	}
	if d > maxDelta {
		d = maxDelta
	}
	c.last = now
	dt := d.Seconds()
	c.simTime += dt * speed
	return dt
}

// time returns accumulated animation time in seconds.
func (c *clock) time() float64 { return c.simTime }

// reset clears the reference point so the next step returns zero delta.
func (c *clock) reset() {
	c.started = false
}
